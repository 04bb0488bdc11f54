package node

import "encoding/json"

// Destination is one output of a transaction.
type Destination struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"` // lovelace
}

// Token names an asset quantity under a minting policy.
type Token struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// MintInstruction carries everything the build step needs to mint.
type MintInstruction struct {
	PolicyID   string  `json:"policyID"`
	PolicyPath string  `json:"policy_path"` // materialized script file
	Validity   *Window `json:"validity_interval,omitempty"`
	Tokens     []Token `json:"tokens"`
}

// Window is a slot-bound validity constraint applied at build time.
type Window struct {
	Type string `json:"type"` // before or after
	Slot uint64 `json:"slot"`
}

// BuildParams are the inputs to a transaction build.
type BuildParams struct {
	OriginAddr   string           `json:"address_origin"`
	Destinations []Destination    `json:"address_destin"`
	ChangeAddr   string           `json:"change_address"`
	Metadata     json.RawMessage  `json:"metadata,omitempty"`
	Mint         *MintInstruction `json:"mint,omitempty"`
	ScriptPath   string           `json:"script_path,omitempty"` // multisig witness script
	Witness      int              `json:"witness"`
}

// BuildResult reports a successful build.
type BuildResult struct {
	Fee    int64  `json:"fee"`
	Output string `json:"output"`
}

// UTXO is one unspent output of an address.
type UTXO struct {
	TxHash   string `json:"txHash"`
	TxIx     int    `json:"txIx"`
	Lovelace int64  `json:"lovelace"`
}
