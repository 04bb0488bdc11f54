package service

import (
	"github.com/larestrepo/cardanoapi/internal/config"
	crypto2 "github.com/larestrepo/cardanoapi/internal/crypto"
	"github.com/larestrepo/cardanoapi/internal/keys"
	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/repository"
)

// Service bundles the long-lived handles of the application: the
// persistence store, the node client, the workflow executor and the key
// deriver. It is built once at process start and closed at shutdown.
type Service struct {
	Store   *repository.Store
	Node    *node.Client
	Ex      *Executor
	Deriver *keys.Deriver
}

// New wires the full service from configuration: derives the at-rest
// cipher key, opens the store, creates the node client and executor.
func New(cfg *config.Config) (*Service, error) {
	seed := []byte(cfg.Security.Seed)
	cipherKey, err := crypto2.GenerateEncryptKey(seed, crypto2.Hash256(seed))
	if err != nil {
		return nil, err
	}

	store, err := repository.OpenStore(cfg.Database.Path, cipherKey)
	if err != nil {
		return nil, err
	}

	client, err := node.NewClient(cfg.Node, nil)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Service{
		Store:   store,
		Node:    client,
		Ex:      NewExecutor(store, client),
		Deriver: keys.NewDeriver(store, client),
	}, nil
}

// Close releases the service's resources.
func (s *Service) Close() error {
	return s.Store.Close()
}
