package service

import (
	"context"
	"encoding/json"

	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/script"
)

// Ledger is the contract the workflow engine consumes from the node
// client. Operations fail with ordinary errors (or, for submit, the
// "Command failed" output signal) and never retry internally.
type Ledger interface {
	BuildTransaction(ctx context.Context, p node.BuildParams) (*node.BuildResult, error)
	SignTransaction(ctx context.Context, signingKeyFiles []string) error
	SubmitTransaction(ctx context.Context) (string, error)
	DraftTxID(ctx context.Context) (string, error)
	SignedTxID(ctx context.Context) (string, error)
	ReadDraft() ([]byte, error)
	ReadSigned() ([]byte, error)
	WriteDraft(content []byte) error
	WriteSigned(content []byte) error
	WriteScriptFile(purpose script.Purpose, name string, content []byte) (string, error)
	ScriptFilePath(purpose script.Purpose, name string) string
	CreatePolicyID(ctx context.Context, purpose script.Purpose, name string) (string, error)
	QueryBalance(ctx context.Context, address string) (int64, error)
	QueryUTXOs(ctx context.Context, address string) ([]node.UTXO, error)
	QueryProtocolParameters(ctx context.Context) (json.RawMessage, error)
	QueryTip(ctx context.Context) (json.RawMessage, error)
	KeysDir() string
	Network() string
}

var _ Ledger = (*node.Client)(nil)
