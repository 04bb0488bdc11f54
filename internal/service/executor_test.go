package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larestrepo/cardanoapi/internal/models"
	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/repository"
	"github.com/larestrepo/cardanoapi/internal/script"
)

// fakeLedger scripts the node client's answers and records what the
// executor asked of it.
type fakeLedger struct {
	workDir string

	fee       int64
	draftID   string
	signedID  string
	policyID  string
	submitOut string

	buildErr    error
	signErr     error
	signedIDErr error
	submitErr   error

	buildCalls  int
	signCalls   int
	submitCalls int

	lastBuild node.BuildParams
	keyFiles  [][]byte // contents of the key files seen at sign time

	draft  []byte
	signed []byte
}

func (f *fakeLedger) BuildTransaction(ctx context.Context, p node.BuildParams) (*node.BuildResult, error) {
	f.buildCalls++
	f.lastBuild = p
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	f.draft = []byte(`{"type":"TxBodyBabbage","cborHex":"84a4"}`)
	return &node.BuildResult{Fee: f.fee}, nil
}

func (f *fakeLedger) SignTransaction(ctx context.Context, signingKeyFiles []string) error {
	f.signCalls++
	f.keyFiles = nil
	for _, path := range signingKeyFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("key file unreadable at sign time: %w", err)
		}
		f.keyFiles = append(f.keyFiles, content)
	}
	if f.signErr != nil {
		return f.signErr
	}
	f.signed = []byte(`{"type":"Tx Babbage","cborHex":"84a5"}`)
	return nil
}

func (f *fakeLedger) SubmitTransaction(ctx context.Context) (string, error) {
	f.submitCalls++
	return f.submitOut, f.submitErr
}

func (f *fakeLedger) DraftTxID(ctx context.Context) (string, error) { return f.draftID, nil }

func (f *fakeLedger) SignedTxID(ctx context.Context) (string, error) {
	if f.signedIDErr != nil {
		return "", f.signedIDErr
	}
	return f.signedID, nil
}

func (f *fakeLedger) ReadDraft() ([]byte, error)  { return f.draft, nil }
func (f *fakeLedger) ReadSigned() ([]byte, error) { return f.signed, nil }

func (f *fakeLedger) WriteDraft(content []byte) error {
	f.draft = content
	return nil
}

func (f *fakeLedger) WriteSigned(content []byte) error {
	f.signed = content
	return nil
}

func (f *fakeLedger) WriteScriptFile(purpose script.Purpose, name string, content []byte) (string, error) {
	path := f.ScriptFilePath(purpose, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeLedger) ScriptFilePath(purpose script.Purpose, name string) string {
	return filepath.Join(f.workDir, "scripts", string(purpose), name+".script")
}

func (f *fakeLedger) CreatePolicyID(ctx context.Context, purpose script.Purpose, name string) (string, error) {
	return f.policyID, nil
}

func (f *fakeLedger) QueryBalance(ctx context.Context, address string) (int64, error) {
	return 0, nil
}

func (f *fakeLedger) QueryUTXOs(ctx context.Context, address string) ([]node.UTXO, error) {
	return nil, nil
}

func (f *fakeLedger) QueryProtocolParameters(ctx context.Context) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeLedger) QueryTip(ctx context.Context) (json.RawMessage, error) { return nil, nil }

func (f *fakeLedger) KeysDir() string { return filepath.Join(f.workDir, "keys") }
func (f *fakeLedger) Network() string { return "testnet" }

var _ Ledger = (*fakeLedger)(nil)

func newTestExecutor(t *testing.T) (*Executor, *repository.Store, *fakeLedger) {
	t.Helper()

	key := []byte("0123456789abcdef0123456789abcdef")
	store, err := repository.OpenStore(filepath.Join(t.TempDir(), "test.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ledger := &fakeLedger{
		workDir:   t.TempDir(),
		fee:       170000,
		draftID:   "tx_draft",
		signedID:  "tx_abc",
		policyID:  "cafebabe",
		submitOut: "Transaction successfully submitted.",
	}
	return NewExecutor(store, ledger), store, ledger
}

func createTestWallet(t *testing.T, store *repository.Store, name string) *models.Wallet {
	t.Helper()

	w := &models.Wallet{
		Name:        name,
		BaseAddr:    "addr_test1base" + name,
		PaymentAddr: "addr_test1payment" + name,
		PaymentSkey: []byte("skey-" + name),
	}
	require.NoError(t, store.CreateWallet(w))
	return w
}

// scratchEntries lists whatever request scratch directories survived a
// workflow run; a non-empty result means key material leaked to disk.
func scratchEntries(t *testing.T, ledger *fakeLedger) []os.DirEntry {
	t.Helper()

	entries, err := os.ReadDir(filepath.Join(ledger.KeysDir(), "scratch"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestSimpleSend(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")

	res, err := ex.SimpleSend(context.Background(), SendPayload{
		WalletID: w.ID,
		Destinations: []node.Destination{
			{Address: "addr_test1dest", Amount: 2000000},
		},
		Witness: 1,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Transaction signed and submitted", res.Message)
	require.Equal(t, "tx_abc", res.TxID)
	require.EqualValues(t, 170000, res.Fee)
	require.Equal(t, w.ID, res.WalletID)

	require.Equal(t, 1, ledger.buildCalls)
	require.Equal(t, 1, ledger.signCalls)
	require.Equal(t, 1, ledger.submitCalls)
	require.Equal(t, w.PaymentAddr, ledger.lastBuild.OriginAddr)
	require.Equal(t, w.PaymentAddr, ledger.lastBuild.ChangeAddr)

	// the decrypted signing key was handed to the node client
	require.Equal(t, [][]byte{[]byte("skey-origin")}, ledger.keyFiles)
	// and its scratch file is gone
	require.Empty(t, scratchEntries(t, ledger))

	rec, err := store.TransactionByTxID("tx_abc")
	require.NoError(t, err)
	require.True(t, rec.Processed)
	require.Equal(t, "testnet", rec.Network)
	require.NotNil(t, rec.IDWallet)
	require.Equal(t, w.ID, *rec.IDWallet)
	require.EqualValues(t, 170000, rec.Fees)
}

func TestSimpleSendDuplicateTxID(t *testing.T) {
	ex, store, _ := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")

	payload := SendPayload{
		WalletID:     w.ID,
		Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1000000}},
		Witness:      1,
	}

	first, err := ex.SimpleSend(context.Background(), payload)
	require.NoError(t, err)
	require.True(t, first.Success)

	// The node client deterministically reproduces the same tx id; the
	// second record attempt must surface the conflict without a second row.
	second, err := ex.SimpleSend(context.Background(), payload)
	require.NoError(t, err)
	require.False(t, second.Success)
	require.Equal(t, "Transaction id already exists in database", second.Message)

	txs, err := store.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestSimpleSendSubmitFailureStillRecorded(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")
	ledger.submitOut = "Command failed: transaction submit Error: BadInputsUTxO"

	res, err := ex.SimpleSend(context.Background(), SendPayload{
		WalletID:     w.ID,
		Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1000000}},
		Witness:      1,
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Problems submitting the transaction", res.Message)
	require.Contains(t, res.Submit, "Command failed")

	rec, err := store.TransactionByTxID("tx_abc")
	require.NoError(t, err)
	require.False(t, rec.Processed)
}

func TestSimpleSendWalletNotFound(t *testing.T) {
	ex, _, ledger := newTestExecutor(t)

	res, err := ex.SimpleSend(context.Background(), SendPayload{
		WalletID:     "no-such-wallet",
		Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1}},
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Wallet not found", res.Message)
	require.Zero(t, ledger.buildCalls)
}

func TestSimpleSendExtraSigners(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	origin := createTestWallet(t, store, "origin")
	cosigner := createTestWallet(t, store, "cosigner")

	res, err := ex.SimpleSend(context.Background(), SendPayload{
		WalletID:     origin.ID,
		Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1000000}},
		Witness:      2,
		// the origin id is deduplicated, the cosigner is added
		SignerWalletIDs: []string{origin.ID, cosigner.ID},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, [][]byte{
		[]byte("skey-origin"),
		[]byte("skey-cosigner"),
	}, ledger.keyFiles)
}

func TestSignFailureCleansScratch(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")
	ledger.signErr = fmt.Errorf("sign failed: exit status 1")

	res, err := ex.SimpleSend(context.Background(), SendPayload{
		WalletID:     w.ID,
		Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1}},
		Witness:      1,
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Problems signing the transaction", res.Message)

	// the key material existed during signing but not after
	require.Equal(t, [][]byte{[]byte("skey-origin")}, ledger.keyFiles)
	require.Empty(t, scratchEntries(t, ledger))

	// a failed sign records nothing
	txs, err := store.Transactions()
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestBuildFailureIsTerminal(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")
	ledger.buildErr = fmt.Errorf("build failed: no utxos")

	res, err := ex.SimpleSend(context.Background(), SendPayload{
		WalletID:     w.ID,
		Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1}},
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Problems building the transaction", res.Message)
	require.Zero(t, ledger.signCalls)

	txs, err := store.Transactions()
	require.NoError(t, err)
	require.Empty(t, txs)
}

func storeMintScript(t *testing.T, store *repository.Store, policyID string, timeType string, slot uint64) *models.Script {
	t.Helper()

	doc, err := script.Build(script.Params{
		Name:     "minttest",
		Type:     script.TypeSig,
		Hashes:   []string{"aaaa"},
		TimeType: timeType,
		Slot:     slot,
		Purpose:  script.PurposeMint,
	})
	require.NoError(t, err)
	content, err := doc.Encode()
	require.NoError(t, err)

	sc := &models.Script{
		Name:     "minttest",
		Purpose:  string(script.PurposeMint),
		Content:  content,
		PolicyID: policyID,
	}
	require.NoError(t, store.CreateScript(sc))
	return sc
}

func TestMint(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")
	sc := storeMintScript(t, store, ledger.policyID, script.TimeBefore, 42000000)

	res, err := ex.Mint(context.Background(), MintPayload{
		SendPayload: SendPayload{
			WalletID:     w.ID,
			Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 2000000}},
			Witness:      2,
		},
		ScriptID: sc.ID,
		Tokens:   []node.Token{{Name: "testtoken", Amount: 5}},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Transaction signed and submitted", res.Message)

	mint := ledger.lastBuild.Mint
	require.NotNil(t, mint)
	require.Equal(t, ledger.policyID, mint.PolicyID)
	require.Equal(t, []node.Token{{Name: "testtoken", Amount: 5}}, mint.Tokens)
	require.NotNil(t, mint.Validity)
	require.Equal(t, script.TimeBefore, mint.Validity.Type)
	require.EqualValues(t, 42000000, mint.Validity.Slot)
}

func TestMintIntegrityCheckAbortsBeforeBuild(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")
	// stored policy id does not re-derive from the content
	sc := storeMintScript(t, store, "tampered", "", 0)

	res, err := ex.Mint(context.Background(), MintPayload{
		SendPayload: SendPayload{
			WalletID:     w.ID,
			Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1}},
		},
		ScriptID: sc.ID,
		Tokens:   []node.Token{{Name: "testtoken", Amount: 1}},
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, res.Message, "Script integrity check failed")
	require.Zero(t, ledger.buildCalls)

	txs, err := store.Transactions()
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestMintRejectsWrongPurpose(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")

	sc := &models.Script{
		Name:     "spendonly",
		Purpose:  string(script.PurposeMultisig),
		Content:  []byte(`{"type":"sig","keyHash":"aaaa"}`),
		PolicyID: ledger.policyID,
	}
	require.NoError(t, store.CreateScript(sc))

	res, err := ex.Mint(context.Background(), MintPayload{
		SendPayload: SendPayload{
			WalletID:     w.ID,
			Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1}},
		},
		ScriptID: sc.ID,
		Tokens:   []node.Token{{Name: "testtoken", Amount: 1}},
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Script purpose is not for minting", res.Message)
	require.Zero(t, ledger.buildCalls)
}

func TestMintScriptNotFound(t *testing.T) {
	ex, store, _ := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")

	res, err := ex.Mint(context.Background(), MintPayload{
		SendPayload: SendPayload{
			WalletID:     w.ID,
			Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1}},
		},
		ScriptID: "missing",
		Tokens:   []node.Token{{Name: "testtoken", Amount: 1}},
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Could not find script for minting", res.Message)
}

func TestBuildOnlyDoesNotRecord(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)

	res, err := ex.BuildOnly(context.Background(), BuildPayload{
		OriginAddr:   "addr_test1raw",
		Destinations: []node.Destination{{Address: "addr_test1dest", Amount: 1000000}},
		Witness:      1,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Transaction build successful", res.Message)
	require.Equal(t, "tx_draft", res.TxID)
	require.EqualValues(t, 170000, res.Fee)
	require.NotEmpty(t, res.RawTx)

	require.Zero(t, ledger.signCalls)
	require.Zero(t, ledger.submitCalls)
	txs, err := store.Transactions()
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestSignOnly(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	w := createTestWallet(t, store, "origin")

	draft := []byte(`{"type":"TxBodyBabbage","cborHex":"84a4"}`)
	res, err := ex.SignOnly(context.Background(), SignPayload{
		RawTx:     draft,
		WalletIDs: []string{w.ID},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Transaction signed", res.Message)
	require.Equal(t, "tx_abc", res.TxID)

	// the uploaded draft went to the well-known location, untouched by a build
	require.Equal(t, draft, ledger.draft)
	require.Zero(t, ledger.buildCalls)
	require.Zero(t, ledger.submitCalls)

	rec, err := store.TransactionByTxID("tx_abc")
	require.NoError(t, err)
	require.False(t, rec.Processed)
}

func TestSignOnlyRequiresSigners(t *testing.T) {
	ex, _, _ := newTestExecutor(t)

	res, err := ex.SignOnly(context.Background(), SignPayload{RawTx: []byte("{}")})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "At least one signer wallet is required", res.Message)
}

func TestSubmitOnly(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)

	signed := []byte(`{"type":"Tx Babbage","cborHex":"84a5"}`)
	res, err := ex.SubmitOnly(context.Background(), SubmitPayload{RawTx: signed})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Transaction successfully submitted", res.Message)
	require.Equal(t, signed, ledger.signed)

	rec, err := store.TransactionByTxID("tx_abc")
	require.NoError(t, err)
	require.True(t, rec.Processed)
}

func TestSubmitOnlyInvalidArtifact(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)
	ledger.signedIDErr = fmt.Errorf("not a signed transaction")

	res, err := ex.SubmitOnly(context.Background(), SubmitPayload{RawTx: []byte("junk")})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Uploaded artifact is not a valid signed transaction", res.Message)
	require.Zero(t, ledger.submitCalls)

	txs, err := store.Transactions()
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestCreateScript(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)

	res, err := ex.CreateScript(context.Background(), script.Params{
		Name:     "quorum",
		Type:     script.TypeAtLeast,
		Required: 2,
		Hashes:   []string{"aaaa", "bbbb", "cccc"},
		Purpose:  script.PurposeMultisig,
	})
	require.NoError(t, err)
	require.Equal(t, "Script created", res.Message)
	require.Equal(t, ledger.policyID, res.PolicyID)
	require.NotEmpty(t, res.ScriptID)

	stored, err := store.ScriptByID(res.ScriptID)
	require.NoError(t, err)
	require.Equal(t, "atLeast", stored.Type)
	require.Equal(t, 2, stored.Required)
	require.Equal(t, ledger.policyID, stored.PolicyID)

	doc, err := script.ParseDocument(stored.Content)
	require.NoError(t, err)
	require.Equal(t, "atLeast", doc.Type)
	require.Len(t, doc.Scripts, 3)

	// the database copy is authoritative; the build files are removed
	_, err = os.Stat(ledger.ScriptFilePath(script.PurposeMultisig, "quorum"))
	require.True(t, os.IsNotExist(err))
}

func TestCreateScriptInvalidParams(t *testing.T) {
	ex, store, _ := newTestExecutor(t)

	res, err := ex.CreateScript(context.Background(), script.Params{
		Name:     "broken",
		Type:     script.TypeAtLeast,
		Required: 5,
		Hashes:   []string{"aaaa"},
		Purpose:  script.PurposeMint,
	})
	require.NoError(t, err)
	require.Contains(t, res.Message, "Problems building the script")
	require.Empty(t, res.ScriptID)

	scripts, err := store.Scripts()
	require.NoError(t, err)
	require.Empty(t, scripts)
}

func TestUploadScript(t *testing.T) {
	ex, store, ledger := newTestExecutor(t)

	content := []byte(`{"type":"all","scripts":[{"type":"sig","keyHash":"aaaa"}]}`)
	res, err := ex.UploadScript(context.Background(), UploadScriptPayload{
		Name:    "external",
		Purpose: script.PurposeMint,
		Content: content,
	})
	require.NoError(t, err)
	require.Equal(t, "Script created in local DB", res.Message)
	require.Equal(t, ledger.policyID, res.PolicyID)

	stored, err := store.ScriptByID(res.ScriptID)
	require.NoError(t, err)
	require.Equal(t, content, stored.Content)
}

func TestUploadScriptRejectsBadPurpose(t *testing.T) {
	ex, _, _ := newTestExecutor(t)

	res, err := ex.UploadScript(context.Background(), UploadScriptPayload{
		Name:    "external",
		Purpose: "staking",
		Content: []byte(`{"type":"sig"}`),
	})
	require.NoError(t, err)
	require.Contains(t, res.Message, "script purpose must be mint or multisig")
}
