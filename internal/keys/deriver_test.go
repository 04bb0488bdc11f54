package keys

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/repository"
)

type fakeNodeDeriver struct {
	words      []string
	deriveErr  error
	derivedFor []string
}

func (f *fakeNodeDeriver) GenerateMnemonic(ctx context.Context, size int) ([]string, error) {
	return f.words[:size], nil
}

func (f *fakeNodeDeriver) DeriveKeys(ctx context.Context, words []string) (*node.KeyMaterial, error) {
	f.derivedFor = words
	if f.deriveErr != nil {
		return nil, f.deriveErr
	}
	return &node.KeyMaterial{
		Mnemonic:            words,
		RootKey:             "root_xsk1test",
		PaymentSkey:         []byte("payment-skey"),
		PaymentVkey:         []byte("payment-vkey"),
		StakeSkey:           []byte("stake-skey"),
		StakeVkey:           []byte("stake-vkey"),
		BaseAddr:            "addr_test1base",
		PaymentAddr:         "addr_test1payment",
		StakeAddr:           "stake_test1addr",
		HashVerificationKey: "deadbeef",
	}, nil
}

func newTestDeriver(t *testing.T) (*Deriver, *repository.Store, *fakeNodeDeriver) {
	t.Helper()

	key := []byte("0123456789abcdef0123456789abcdef")
	store, err := repository.OpenStore(filepath.Join(t.TempDir(), "test.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	nd := &fakeNodeDeriver{
		words: strings.Fields("abandon ability able about above absent absorb abstract absurd abuse access accident account accuse achieve acid acoustic acquire across act action actor actress actual"),
	}
	return NewDeriver(store, nd), store, nd
}

func TestGeneratePersists(t *testing.T) {
	d, store, _ := newTestDeriver(t)

	derived, err := d.Generate(context.Background(), "mywallet", 24, true)
	require.NoError(t, err)
	require.True(t, derived.Persisted)
	require.NotEmpty(t, derived.WalletID)
	require.Equal(t, "mywallet", derived.Name)
	require.Len(t, derived.Material.Mnemonic, 24)
	require.Equal(t, "root_xsk1test", derived.Material.RootKey)

	w, err := store.WalletByID(derived.WalletID)
	require.NoError(t, err)
	require.Equal(t, "mywallet", w.Name)
	require.Equal(t, "addr_test1payment", w.PaymentAddr)
	require.Equal(t, []byte("payment-skey"), w.PaymentSkey)
	require.Equal(t, "deadbeef", w.HashVerificationKey)
}

func TestGenerateWithoutPersist(t *testing.T) {
	d, store, _ := newTestDeriver(t)

	derived, err := d.Generate(context.Background(), "ephemeral", 12, false)
	require.NoError(t, err)
	require.False(t, derived.Persisted)
	require.Empty(t, derived.WalletID)
	// the material still goes back in full, it is the only recovery path
	require.Len(t, derived.Material.Mnemonic, 12)
	require.NotEmpty(t, derived.Material.PaymentSkey)

	wallets, err := store.Wallets()
	require.NoError(t, err)
	require.Empty(t, wallets)
}

func TestRecover(t *testing.T) {
	d, _, nd := newTestDeriver(t)

	words := strings.Fields("legal winner thank year wave sausage worth useful legal winner thank yellow")
	derived, err := d.Recover(context.Background(), "", words, true)
	require.NoError(t, err)
	require.Equal(t, "WalletDummyName", derived.Name)
	require.Equal(t, words, nd.derivedFor)
}

func TestRecoverRequiresWords(t *testing.T) {
	d, _, _ := newTestDeriver(t)

	_, err := d.Recover(context.Background(), "x", nil, true)
	require.Error(t, err)
}

func TestDeriveFailureLeavesNoRow(t *testing.T) {
	d, store, nd := newTestDeriver(t)
	nd.deriveErr = fmt.Errorf("exit status 1")

	_, err := d.Generate(context.Background(), "broken", 24, true)
	require.Error(t, err)

	wallets, err := store.Wallets()
	require.NoError(t, err)
	require.Empty(t, wallets)
}
