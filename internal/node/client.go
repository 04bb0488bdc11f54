package node

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/larestrepo/cardanoapi/internal/config"
	"github.com/larestrepo/cardanoapi/internal/script"
)

var log = logging.Logger("node")

const (
	draftFile  = "tx.draft"
	signedFile = "tx.signed"
)

// Client wraps the external cardano-cli / cardano-address binaries. It
// owns the on-disk workdir layout (transactions, keys, script folders)
// and never retries: retries are caller policy.
type Client struct {
	cfg    config.Node
	runner Runner
}

// NewClient creates the node client and makes sure the workdir layout
// exists.
func NewClient(cfg config.Node, runner Runner) (*Client, error) {
	log.Infof("NewClient: node client for %s network, workdir %s", cfg.Network, cfg.WorkDir)

	if runner == nil {
		runner = NewRunner(cfg.Timeout())
	}
	c := &Client{cfg: cfg, runner: runner}
	for _, dir := range []string{
		c.TransactionsDir(),
		c.KeysDir(),
		c.ScriptsDir(script.PurposeMint),
		c.ScriptsDir(script.PurposeMultisig),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Errorf("NewClient: failed to create %s: %v", dir, err)
			return nil, err
		}
	}
	return c, nil
}

// TransactionsDir is the well-known scratch location for draft and
// signed artifacts.
func (c *Client) TransactionsDir() string { return filepath.Join(c.cfg.WorkDir, "transactions") }

// KeysDir is the root for transient signing-key material.
func (c *Client) KeysDir() string { return filepath.Join(c.cfg.WorkDir, "keys") }

// ScriptsDir is the purpose-specific folder scripts are materialized in.
func (c *Client) ScriptsDir(purpose script.Purpose) string {
	return filepath.Join(c.cfg.WorkDir, "scripts", string(purpose))
}

// Network reports the configured network tag.
func (c *Client) Network() string { return c.cfg.Network }

func (c *Client) draftPath() string  { return filepath.Join(c.TransactionsDir(), draftFile) }
func (c *Client) signedPath() string { return filepath.Join(c.TransactionsDir(), signedFile) }

func (c *Client) networkArgs() []string {
	if c.cfg.Network == "mainnet" {
		return []string{"--mainnet"}
	}
	magic := c.cfg.Magic
	if magic == "" {
		magic = "1097911063"
	}
	return []string{"--testnet-magic", magic}
}

// BuildTransaction assembles and runs the build invocation. On success
// the draft artifact sits at the well-known scratch location and the
// computed fee is reported back.
func (c *Client) BuildTransaction(ctx context.Context, p BuildParams) (*BuildResult, error) {
	log.Infof("BuildTransaction: building transaction from %s (%d outputs)", p.OriginAddr, len(p.Destinations))

	if p.OriginAddr == "" || len(p.Destinations) == 0 {
		return nil, fmt.Errorf("origin address and at least one destination are required")
	}

	utxos, err := c.QueryUTXOs(ctx, p.OriginAddr)
	if err != nil {
		return nil, err
	}
	if len(utxos) == 0 {
		return nil, fmt.Errorf("no utxos found for address %s", p.OriginAddr)
	}

	args := []string{"transaction", "build"}
	args = append(args, c.networkArgs()...)
	for _, u := range utxos {
		args = append(args, "--tx-in", fmt.Sprintf("%s#%d", u.TxHash, u.TxIx))
	}
	for i, d := range p.Destinations {
		out := fmt.Sprintf("%s+%d", d.Address, d.Amount)
		if i == 0 && p.Mint != nil {
			for _, t := range p.Mint.Tokens {
				out += fmt.Sprintf("+%d %s.%s", t.Amount, p.Mint.PolicyID, t.Name)
			}
		}
		args = append(args, "--tx-out", out)
	}
	args = append(args, "--change-address", p.ChangeAddr)

	if len(p.Metadata) > 0 {
		metaPath := filepath.Join(c.TransactionsDir(), "tx.metadata")
		if err := os.WriteFile(metaPath, p.Metadata, 0644); err != nil {
			log.Errorf("BuildTransaction: failed to write metadata file: %v", err)
			return nil, err
		}
		args = append(args, "--metadata-json-file", metaPath)
	}

	if p.Mint != nil {
		mints := make([]string, 0, len(p.Mint.Tokens))
		for _, t := range p.Mint.Tokens {
			mints = append(mints, fmt.Sprintf("%d %s.%s", t.Amount, p.Mint.PolicyID, t.Name))
		}
		args = append(args, "--mint", strings.Join(mints, "+"))
		args = append(args, "--mint-script-file", p.Mint.PolicyPath)
		if w := p.Mint.Validity; w != nil {
			switch w.Type {
			case script.TimeBefore:
				args = append(args, "--invalid-hereafter", strconv.FormatUint(w.Slot, 10))
			case script.TimeAfter:
				args = append(args, "--invalid-before", strconv.FormatUint(w.Slot, 10))
			default:
				return nil, fmt.Errorf("check validity interval fields: unrecognized comparator %q", w.Type)
			}
		}
	}

	if p.ScriptPath != "" {
		args = append(args, "--tx-in-script-file", p.ScriptPath)
	}
	if p.Witness > 0 {
		args = append(args, "--witness-override", strconv.Itoa(p.Witness))
	}
	args = append(args, "--out-file", c.draftPath())

	out, err := c.runner.Run(ctx, c.cfg.CLI, args...)
	if err != nil {
		log.Errorf("BuildTransaction: build failed: %v: %s", err, out)
		return nil, fmt.Errorf("build failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	fee, err := parseFee(string(out))
	if err != nil {
		log.Errorf("BuildTransaction: %v", err)
		return nil, err
	}

	log.Infof("BuildTransaction: draft built, fee %d lovelace", fee)
	return &BuildResult{Fee: fee, Output: strings.TrimSpace(string(out))}, nil
}

// parseFee extracts the fee from the build output. The node client
// reports it as the last token of a line like
// "Estimated transaction fee: Lovelace 170000".
func parseFee(output string) (int64, error) {
	fields := strings.Fields(output)
	for i := len(fields) - 1; i >= 0; i-- {
		fee, err := strconv.ParseInt(strings.TrimSuffix(fields[i], "."), 10, 64)
		if err == nil {
			return fee, nil
		}
	}
	return 0, fmt.Errorf("no fee found in build output %q", output)
}

// SignTransaction signs the current draft with one or more signing-key
// files, producing the signed artifact at the well-known location.
func (c *Client) SignTransaction(ctx context.Context, signingKeyFiles []string) error {
	log.Infof("SignTransaction: signing draft with %d key file(s)", len(signingKeyFiles))

	if len(signingKeyFiles) == 0 {
		return fmt.Errorf("at least one signing key file is required")
	}
	args := []string{"transaction", "sign", "--tx-body-file", c.draftPath()}
	for _, f := range signingKeyFiles {
		args = append(args, "--signing-key-file", f)
	}
	args = append(args, c.networkArgs()...)
	args = append(args, "--out-file", c.signedPath())

	out, err := c.runner.Run(ctx, c.cfg.CLI, args...)
	if err != nil {
		log.Errorf("SignTransaction: sign failed: %v: %s", err, out)
		return fmt.Errorf("sign failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SubmitTransaction submits the current signed artifact. Failure is
// signalled solely by the "Command failed" substring in the returned
// output, matching the node client's own error banner.
func (c *Client) SubmitTransaction(ctx context.Context) (string, error) {
	log.Info("SubmitTransaction: submitting signed transaction")

	args := []string{"transaction", "submit", "--tx-file", c.signedPath()}
	args = append(args, c.networkArgs()...)

	out, err := c.runner.Run(ctx, c.cfg.CLI, args...)
	if err != nil {
		log.Errorf("SubmitTransaction: submit failed: %v: %s", err, out)
		return fmt.Sprintf("Command failed: transaction submit: %s", strings.TrimSpace(string(out))), nil
	}
	return strings.TrimSpace(string(out)), nil
}

// DraftTxID reads back the identifier assigned to the current draft.
func (c *Client) DraftTxID(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, c.cfg.CLI, "transaction", "txid", "--tx-body-file", c.draftPath())
	if err != nil {
		log.Errorf("DraftTxID: %v: %s", err, out)
		return "", fmt.Errorf("reading draft txid: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// SignedTxID reads back the identifier assigned to the signed artifact.
func (c *Client) SignedTxID(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, c.cfg.CLI, "transaction", "txid", "--tx-file", c.signedPath())
	if err != nil {
		log.Errorf("SignedTxID: %v: %s", err, out)
		return "", fmt.Errorf("reading signed txid: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ReadDraft returns the draft artifact envelope.
func (c *Client) ReadDraft() ([]byte, error) { return os.ReadFile(c.draftPath()) }

// ReadSigned returns the signed artifact envelope.
func (c *Client) ReadSigned() ([]byte, error) { return os.ReadFile(c.signedPath()) }

// WriteSigned places an externally produced signed artifact at the
// well-known location, for submit-only flows.
func (c *Client) WriteSigned(content []byte) error {
	return os.WriteFile(c.signedPath(), content, 0644)
}

// WriteDraft places an externally produced draft artifact at the
// well-known location, for sign-only flows.
func (c *Client) WriteDraft(content []byte) error {
	return os.WriteFile(c.draftPath(), content, 0644)
}

// WriteScriptFile materializes script content under the purpose-specific
// folder and returns the resulting path.
func (c *Client) WriteScriptFile(purpose script.Purpose, name string, content []byte) (string, error) {
	path := filepath.Join(c.ScriptsDir(purpose), name+".script")
	if err := os.WriteFile(path, content, 0644); err != nil {
		log.Errorf("WriteScriptFile: failed to write %s: %v", path, err)
		return "", err
	}
	return path, nil
}

// ScriptFilePath returns where a script with the given purpose and name
// is materialized.
func (c *Client) ScriptFilePath(purpose script.Purpose, name string) string {
	return filepath.Join(c.ScriptsDir(purpose), name+".script")
}

// CreatePolicyID derives the policy identifier from a script already
// materialized under the purpose-specific folder.
func (c *Client) CreatePolicyID(ctx context.Context, purpose script.Purpose, name string) (string, error) {
	scriptPath := c.ScriptFilePath(purpose, name)
	out, err := c.runner.Run(ctx, c.cfg.CLI, "transaction", "policyid", "--script-file", scriptPath)
	if err != nil {
		log.Errorf("CreatePolicyID: %v: %s", err, out)
		return "", fmt.Errorf("deriving policy id for %s: %w", name, err)
	}

	policyID := strings.TrimSpace(string(out))
	policyPath := filepath.Join(c.ScriptsDir(purpose), name+".policyid")
	if err := os.WriteFile(policyPath, []byte(policyID+"\n"), 0644); err != nil {
		log.Warnf("CreatePolicyID: failed to persist policy file %s: %v", policyPath, err)
	}
	return policyID, nil
}

// QueryTip returns the chain tip as reported by the node.
func (c *Client) QueryTip(ctx context.Context) (json.RawMessage, error) {
	args := append([]string{"query", "tip"}, c.networkArgs()...)
	out, err := c.runner.Run(ctx, c.cfg.CLI, args...)
	if err != nil {
		log.Errorf("QueryTip: %v: %s", err, out)
		return nil, fmt.Errorf("querying tip: %w", err)
	}
	return json.RawMessage(out), nil
}

// QueryProtocolParameters returns the current protocol parameters.
func (c *Client) QueryProtocolParameters(ctx context.Context) (json.RawMessage, error) {
	path := filepath.Join(c.TransactionsDir(), "protocol.json")
	args := append([]string{"query", "protocol-parameters"}, c.networkArgs()...)
	args = append(args, "--out-file", path)
	if out, err := c.runner.Run(ctx, c.cfg.CLI, args...); err != nil {
		log.Errorf("QueryProtocolParameters: %v: %s", err, out)
		return nil, fmt.Errorf("querying protocol parameters: %w", err)
	}
	return os.ReadFile(path)
}

// utxoValue is the value object of one utxo in the node client's JSON
// output; lovelace plus any native assets.
type utxoValue struct {
	Value map[string]json.RawMessage `json:"value"`
}

// QueryUTXOs lists the unspent outputs of an address.
func (c *Client) QueryUTXOs(ctx context.Context, address string) ([]UTXO, error) {
	log.Debugf("QueryUTXOs: querying utxos for %s", address)

	tmp, err := os.CreateTemp(c.TransactionsDir(), "utxo-*.json")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	args := append([]string{"query", "utxo", "--address", address}, c.networkArgs()...)
	args = append(args, "--out-file", path)
	if out, err := c.runner.Run(ctx, c.cfg.CLI, args...); err != nil {
		log.Errorf("QueryUTXOs: %v: %s", err, out)
		return nil, fmt.Errorf("querying utxos for %s: %w", address, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries map[string]utxoValue
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding utxo set: %w", err)
	}

	utxos := make([]UTXO, 0, len(entries))
	for ref, entry := range entries {
		hash, ix, ok := strings.Cut(ref, "#")
		if !ok {
			return nil, fmt.Errorf("malformed utxo reference %q", ref)
		}
		txIx, err := strconv.Atoi(ix)
		if err != nil {
			return nil, fmt.Errorf("malformed utxo index in %q", ref)
		}
		var lovelace int64
		if v, present := entry.Value["lovelace"]; present {
			if err := json.Unmarshal(v, &lovelace); err != nil {
				return nil, fmt.Errorf("decoding lovelace for %q: %w", ref, err)
			}
		}
		utxos = append(utxos, UTXO{TxHash: hash, TxIx: txIx, Lovelace: lovelace})
	}
	sort.Slice(utxos, func(i, j int) bool {
		if utxos[i].TxHash != utxos[j].TxHash {
			return utxos[i].TxHash < utxos[j].TxHash
		}
		return utxos[i].TxIx < utxos[j].TxIx
	})

	log.Debugf("QueryUTXOs: found %d utxos for %s", len(utxos), address)
	return utxos, nil
}

// QueryBalance consolidates the lovelace balance of an address.
func (c *Client) QueryBalance(ctx context.Context, address string) (int64, error) {
	utxos, err := c.QueryUTXOs(ctx, address)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, u := range utxos {
		total += u.Lovelace
	}
	return total, nil
}
