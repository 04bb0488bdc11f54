package service

import (
	"encoding/json"

	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/script"
)

// SendPayload is a simple send of lovelace to one or more destinations,
// signed with the origin wallet's payment key plus any extra signers.
type SendPayload struct {
	WalletID        string             `json:"wallet_id"`
	Destinations    []node.Destination `json:"address_destin"`
	Metadata        json.RawMessage    `json:"metadata,omitempty"`
	Witness         int                `json:"witness"`
	SignerWalletIDs []string           `json:"signer_wallet_ids,omitempty"`
}

// MintPayload mints tokens under a stored minting policy script.
type MintPayload struct {
	SendPayload
	ScriptID string       `json:"script_id"`
	Tokens   []node.Token `json:"tokens"`
}

// BuildPayload builds a draft without signing or submitting; the origin
// address comes straight from the request, no stored wallet involved.
type BuildPayload struct {
	OriginAddr   string             `json:"address_origin"`
	Destinations []node.Destination `json:"address_destin"`
	Metadata     json.RawMessage    `json:"metadata,omitempty"`
	Witness      int                `json:"witness"`
}

// SignPayload signs an uploaded draft artifact with stored wallet keys.
type SignPayload struct {
	RawTx     []byte   `json:"tx_draft"`
	WalletIDs []string `json:"wallet_ids"`
}

// SubmitPayload submits an uploaded, already signed artifact.
type SubmitPayload struct {
	RawTx []byte `json:"tx_signed"`
}

// UploadScriptPayload stores an externally built script document.
type UploadScriptPayload struct {
	Name    string         `json:"name"`
	Purpose script.Purpose `json:"purpose"`
	Content []byte         `json:"content"`
}

// Result is the outcome of a transaction workflow, terminal state
// included, handed back to the caller in full.
type Result struct {
	Message  string            `json:"msg"`
	Success  bool              `json:"success_flag"`
	WalletID string            `json:"wallet_origin_id,omitempty"`
	TxID     string            `json:"tx_id,omitempty"`
	Fee      int64             `json:"fees,omitempty"`
	Details  *node.BuildParams `json:"tx_details,omitempty"`
	RawTx    json.RawMessage   `json:"tx_cborhex,omitempty"`
	Submit   string            `json:"submit,omitempty"`
}

// ScriptResult is the outcome of a script workflow.
type ScriptResult struct {
	Message  string           `json:"msg"`
	ScriptID string           `json:"script_id,omitempty"`
	PolicyID string           `json:"policyID,omitempty"`
	Content  *script.Document `json:"content,omitempty"`
}
