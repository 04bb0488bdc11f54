package keys

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/larestrepo/cardanoapi/internal/models"
	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/repository"
)

var log = logging.Logger("keys")

// NodeDeriver is the derivation primitive the node client provides.
type NodeDeriver interface {
	GenerateMnemonic(ctx context.Context, size int) ([]string, error)
	DeriveKeys(ctx context.Context, words []string) (*node.KeyMaterial, error)
}

// Deriver turns mnemonics into full wallets and, when asked, hands the
// secret material to the store. The mnemonic and root key always go
// back to the caller: they are the only recovery path when nothing is
// persisted.
type Deriver struct {
	store *repository.Store
	node  NodeDeriver
}

func NewDeriver(store *repository.Store, node NodeDeriver) *Deriver {
	return &Deriver{store: store, node: node}
}

// Derived is the outcome of a derivation: the material itself plus the
// wallet id when it was persisted.
type Derived struct {
	WalletID  string            `json:"wallet_id,omitempty"`
	Name      string            `json:"name"`
	Material  *node.KeyMaterial `json:"keys"`
	Persisted bool              `json:"persisted"`
}

// Generate creates a fresh mnemonic of the requested word count and
// derives a wallet from it. With persist set, the signing keys are
// stored (encrypted by the repository).
func (d *Deriver) Generate(ctx context.Context, name string, size int, persist bool) (*Derived, error) {
	words, err := d.node.GenerateMnemonic(ctx, size)
	if err != nil {
		return nil, err
	}
	return d.derive(ctx, name, words, persist)
}

// Recover derives a wallet from a caller-supplied mnemonic.
func (d *Deriver) Recover(ctx context.Context, name string, words []string, persist bool) (*Derived, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("mnemonic words are required")
	}
	return d.derive(ctx, name, words, persist)
}

// GenerateMnemonic produces a recovery phrase only; nothing is derived
// or stored.
func (d *Deriver) GenerateMnemonic(ctx context.Context, size int) ([]string, error) {
	return d.node.GenerateMnemonic(ctx, size)
}

func (d *Deriver) derive(ctx context.Context, name string, words []string, persist bool) (*Derived, error) {
	if name == "" {
		name = "WalletDummyName"
	}

	material, err := d.node.DeriveKeys(ctx, words)
	if err != nil {
		log.Errorf("derive: key derivation failed for %q: %v", name, err)
		return nil, err
	}

	out := &Derived{Name: name, Material: material}
	if !persist {
		return out, nil
	}

	w := &models.Wallet{
		Name:                name,
		BaseAddr:            material.BaseAddr,
		PaymentAddr:         material.PaymentAddr,
		PaymentSkey:         material.PaymentSkey,
		PaymentVkey:         material.PaymentVkey,
		StakeAddr:           material.StakeAddr,
		StakeSkey:           material.StakeSkey,
		StakeVkey:           material.StakeVkey,
		HashVerificationKey: material.HashVerificationKey,
	}
	if err := d.store.CreateWallet(w); err != nil {
		return nil, err
	}

	log.Infof("derive: wallet %q stored as %s", name, w.ID)
	out.WalletID = w.ID
	out.Persisted = true
	return out, nil
}
