package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/larestrepo/cardanoapi/internal/models"
	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/repository"
	"github.com/larestrepo/cardanoapi/internal/script"
)

var log = logging.Logger("executor")

// submitFailureSignal is the sole failure signal of the submit
// operation: the node client prints it as its error banner.
const submitFailureSignal = "Command failed"

// Executor runs one workflow instance per request: assemble parameters,
// build, optionally sign and submit, and record the outcome exactly once
// per unique transaction id. No state is shared across requests.
type Executor struct {
	store   *repository.Store
	ledger  Ledger
	builder *script.Builder
}

func NewExecutor(store *repository.Store, ledger Ledger) *Executor {
	return &Executor{
		store:   store,
		ledger:  ledger,
		builder: script.NewBuilder(ledger),
	}
}

// signer pairs a wallet id with its decrypted payment signing key,
// held in memory only for the duration of one request.
type signer struct {
	walletID string
	skey     []byte
}

// SimpleSend sends lovelace from a stored wallet to one or more
// destinations: build, sign with the wallet's payment key (plus any
// extra signers), submit, record.
func (e *Executor) SimpleSend(ctx context.Context, p SendPayload) (*Result, error) {
	w, err := e.store.WalletByID(p.WalletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return &Result{Message: "Wallet not found"}, nil
		}
		return nil, err
	}

	signers, err := e.resolveSigners(w, p.SignerWalletIDs)
	if err != nil {
		return nil, err
	}

	params := node.BuildParams{
		OriginAddr:   w.PaymentAddr,
		Destinations: p.Destinations,
		ChangeAddr:   w.PaymentAddr,
		Metadata:     p.Metadata,
		Witness:      p.Witness,
	}
	return e.run(ctx, &w.ID, params, signers, true)
}

// Mint mints tokens under a stored minting policy: resolve and
// integrity-check the script, then run the same machine as SimpleSend
// with the mint instruction attached.
func (e *Executor) Mint(ctx context.Context, p MintPayload) (*Result, error) {
	w, err := e.store.WalletByID(p.WalletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return &Result{Message: "Wallet not found"}, nil
		}
		return nil, err
	}

	mint, failMsg, err := e.resolveMint(ctx, p.ScriptID, p.Tokens)
	if err != nil {
		return nil, err
	}
	if failMsg != "" {
		log.Warnf("Mint: aborting before build: %s", failMsg)
		return &Result{Message: failMsg, WalletID: w.ID}, nil
	}

	signers, err := e.resolveSigners(w, p.SignerWalletIDs)
	if err != nil {
		return nil, err
	}

	params := node.BuildParams{
		OriginAddr:   w.PaymentAddr,
		Destinations: p.Destinations,
		ChangeAddr:   w.PaymentAddr,
		Metadata:     p.Metadata,
		Mint:         mint,
		Witness:      p.Witness,
	}
	return e.run(ctx, &w.ID, params, signers, true)
}

// resolveMint looks up the script, verifies its purpose and integrity
// (the stored policy id must re-derive from the stored content), and
// assembles the mint instruction. A non-empty failMsg is a terminal
// pre-build abort.
func (e *Executor) resolveMint(ctx context.Context, scriptID string, tokens []node.Token) (mint *node.MintInstruction, failMsg string, err error) {
	sc, err := e.store.ScriptByID(scriptID)
	if err != nil {
		if errors.Is(err, repository.ErrScriptNotFound) {
			return nil, "Could not find script for minting", nil
		}
		return nil, "", err
	}
	if sc.Purpose != string(script.PurposeMint) {
		return nil, "Script purpose is not for minting", nil
	}

	doc, err := script.ParseDocument(sc.Content)
	if err != nil {
		return nil, fmt.Sprintf("Stored script is unreadable: %v", err), nil
	}

	policyID, err := e.builder.RecomputePolicyID(ctx, script.PurposeMint, sc.Name, sc.Content)
	if err != nil {
		return nil, fmt.Sprintf("Problems recomputing the policy id: %v", err), nil
	}
	if policyID != sc.PolicyID {
		log.Errorf("resolveMint: policy id mismatch for script %s: stored %s, recomputed %s", sc.ID, sc.PolicyID, policyID)
		return nil, fmt.Sprintf("Script integrity check failed: stored policy id %s does not match recomputed %s", sc.PolicyID, policyID), nil
	}

	rule, err := script.ExtractTimeRule(doc)
	if err != nil {
		return nil, err.Error(), nil
	}
	var window *node.Window
	if rule != nil {
		window = &node.Window{Type: rule.Type, Slot: rule.Slot}
	}

	return &node.MintInstruction{
		PolicyID:   sc.PolicyID,
		PolicyPath: e.ledger.ScriptFilePath(script.PurposeMint, sc.Name),
		Validity:   window,
		Tokens:     tokens,
	}, "", nil
}

func (e *Executor) resolveSigners(origin *models.Wallet, extraIDs []string) ([]signer, error) {
	signers := []signer{{walletID: origin.ID, skey: origin.PaymentSkey}}
	for _, id := range extraIDs {
		if id == origin.ID {
			continue
		}
		w, err := e.store.WalletByID(id)
		if err != nil {
			return nil, fmt.Errorf("resolving signer wallet %s: %w", id, err)
		}
		signers = append(signers, signer{walletID: w.ID, skey: w.PaymentSkey})
	}
	return signers, nil
}

// BuildOnly builds a draft from a raw origin address and stops after the
// build step; nothing is signed, submitted or recorded.
func (e *Executor) BuildOnly(ctx context.Context, p BuildPayload) (*Result, error) {
	params := node.BuildParams{
		OriginAddr:   p.OriginAddr,
		Destinations: p.Destinations,
		ChangeAddr:   p.OriginAddr,
		Metadata:     p.Metadata,
		Witness:      p.Witness,
	}
	res := &Result{Details: &params}

	build, err := e.ledger.BuildTransaction(ctx, params)
	if err != nil {
		log.Errorf("BuildOnly: build failed: %v", err)
		res.Message = "Problems building the transaction"
		return res, nil
	}
	res.Fee = build.Fee

	txID, err := e.ledger.DraftTxID(ctx)
	if err != nil {
		res.Message = "Problems building the transaction"
		return res, nil
	}
	res.TxID = txID
	if raw, err := e.ledger.ReadDraft(); err == nil {
		res.RawTx = raw
	}
	res.Success = true
	res.Message = "Transaction build successful"
	return res, nil
}

// SignOnly signs an uploaded draft artifact with one or more stored
// wallet keys and records the signed transaction (processed stays false
// until a submission succeeds).
func (e *Executor) SignOnly(ctx context.Context, p SignPayload) (*Result, error) {
	if len(p.WalletIDs) == 0 {
		return &Result{Message: "At least one signer wallet is required"}, nil
	}
	if err := e.ledger.WriteDraft(p.RawTx); err != nil {
		return nil, err
	}

	signers := make([]signer, 0, len(p.WalletIDs))
	for _, id := range p.WalletIDs {
		w, err := e.store.WalletByID(id)
		if err != nil {
			if errors.Is(err, repository.ErrWalletNotFound) {
				return &Result{Message: "Wallet not found"}, nil
			}
			return nil, err
		}
		signers = append(signers, signer{walletID: w.ID, skey: w.PaymentSkey})
	}

	params := node.BuildParams{Witness: len(signers)}
	return e.run(ctx, &signers[0].walletID, params, signers, false)
}

// SubmitOnly places an uploaded signed artifact at the well-known
// location, submits it, and records the outcome.
func (e *Executor) SubmitOnly(ctx context.Context, p SubmitPayload) (*Result, error) {
	if err := e.ledger.WriteSigned(p.RawTx); err != nil {
		return nil, err
	}

	res := &Result{}
	txID, err := e.ledger.SignedTxID(ctx)
	if err != nil {
		res.Message = "Uploaded artifact is not a valid signed transaction"
		return res, nil
	}
	res.TxID = txID
	res.RawTx = json.RawMessage(p.RawTx)

	out, err := e.ledger.SubmitTransaction(ctx)
	if err != nil {
		out = submitFailureSignal + ": " + err.Error()
	}
	res.Submit = out
	submitOK := !strings.Contains(out, submitFailureSignal)
	if submitOK {
		res.Success = true
		res.Message = "Transaction successfully submitted"
	} else {
		res.Message = "Problems while submitting the transaction"
	}

	return e.record(res, nil, nil, submitOK)
}

// run drives the build → sign → submit → record machine shared by the
// send, mint and sign-only flows. Signing-key scratch files live only
// for the duration of the sign step and are removed on every exit path.
func (e *Executor) run(ctx context.Context, walletID *string, params node.BuildParams, signers []signer, submit bool) (*Result, error) {
	res := &Result{Details: &params}
	if walletID != nil {
		res.WalletID = *walletID
	}

	// Sign-only flows arrive with the draft already in place.
	if params.OriginAddr != "" {
		build, err := e.ledger.BuildTransaction(ctx, params)
		if err != nil {
			log.Errorf("run: build failed: %v", err)
			res.Message = "Problems building the transaction"
			return res, nil
		}
		res.Fee = build.Fee
	}

	txID, err := e.ledger.DraftTxID(ctx)
	if err != nil {
		log.Errorf("run: failed to read draft txid: %v", err)
		res.Message = "Problems building the transaction"
		return res, nil
	}
	res.TxID = txID
	if raw, err := e.ledger.ReadDraft(); err == nil {
		res.RawTx = raw
	}

	if err := e.signWithScratch(ctx, signers); err != nil {
		log.Errorf("run: sign failed: %v", err)
		res.Message = "Problems signing the transaction"
		return res, nil
	}

	// The signed artifact's id supersedes the draft id.
	if signedID, err := e.ledger.SignedTxID(ctx); err == nil {
		res.TxID = signedID
	} else {
		log.Warnf("run: failed to read signed txid, keeping draft id: %v", err)
	}
	if raw, err := e.ledger.ReadSigned(); err == nil {
		res.RawTx = raw
	}

	submitOK := false
	if submit {
		out, err := e.ledger.SubmitTransaction(ctx)
		if err != nil {
			out = submitFailureSignal + ": " + err.Error()
		}
		res.Submit = out
		submitOK = !strings.Contains(out, submitFailureSignal)
		if submitOK {
			res.Success = true
			res.Message = "Transaction signed and submitted"
		} else {
			// Submission failure does not unwind signing; the record
			// is still written, just not marked processed.
			log.Warnf("run: submit failed for %s: %s", res.TxID, out)
			res.Message = "Problems submitting the transaction"
		}
	} else {
		res.Success = true
		res.Message = "Transaction signed"
	}

	return e.record(res, walletID, params.Metadata, submit && submitOK)
}

// record inserts the transaction row exactly once per unique id. A
// duplicate is a terminal conflict, not a storage error.
func (e *Executor) record(res *Result, walletID *string, metadata json.RawMessage, processed bool) (*Result, error) {
	var destins []byte
	if res.Details != nil && len(res.Details.Destinations) > 0 {
		destins, _ = json.Marshal(res.Details.Destinations)
	}
	var origin string
	if res.Details != nil {
		origin = res.Details.OriginAddr
	}

	rec := &models.Transaction{
		TxID:          res.TxID,
		IDWallet:      walletID,
		AddressOrigin: origin,
		AddressDestin: destins,
		TxCborHex:     res.RawTx,
		Metadata:      metadata,
		Fees:          res.Fee,
		Network:       e.ledger.Network(),
		Processed:     processed,
		Submission:    time.Now().UTC(),
	}
	if err := e.store.CreateTransactionIfAbsent(rec); err != nil {
		if errors.Is(err, repository.ErrDuplicateTransaction) {
			res.Success = false
			res.Message = "Transaction id already exists in database"
			return res, nil
		}
		return nil, err
	}
	return res, nil
}

// signWithScratch materializes each signer's key under a request-scoped
// scratch directory, signs, and removes the directory regardless of the
// outcome. Scratch names combine the request id and the wallet id so
// concurrent requests can never collide.
func (e *Executor) signWithScratch(ctx context.Context, signers []signer) error {
	requestID := uuid.NewString()
	scratchDir := filepath.Join(e.ledger.KeysDir(), "scratch", "req_"+requestID)
	if err := os.MkdirAll(scratchDir, 0700); err != nil {
		return err
	}
	defer os.RemoveAll(scratchDir)

	keyFiles := make([]string, 0, len(signers))
	for _, s := range signers {
		f := filepath.Join(scratchDir, fmt.Sprintf("%s.%s.payment.skey", requestID, s.walletID))
		if err := os.WriteFile(f, s.skey, 0600); err != nil {
			return err
		}
		keyFiles = append(keyFiles, f)
	}

	return e.ledger.SignTransaction(ctx, keyFiles)
}

// CreateScript builds a native script from declarative parameters,
// derives its policy id and stores the result together with the
// parameters it was built from. The materialized build files are
// removed afterwards; the database copy is authoritative.
func (e *Executor) CreateScript(ctx context.Context, p script.Params) (*ScriptResult, error) {
	doc, policyID, err := e.builder.Create(ctx, p)
	if err != nil {
		log.Warnf("CreateScript: %v", err)
		return &ScriptResult{Message: fmt.Sprintf("Problems building the script: %v", err)}, nil
	}

	content, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	hashes, _ := json.Marshal(p.Hashes)

	sc := &models.Script{
		Name:     p.Name,
		Purpose:  string(p.Purpose),
		Content:  content,
		PolicyID: policyID,
		Type:     string(p.Type),
		Required: p.Required,
		Hashes:   hashes,
		TypeTime: p.TimeType,
		Slot:     p.Slot,
	}
	if err := e.store.CreateScript(sc); err != nil {
		return nil, err
	}

	e.removeScriptFiles(p.Purpose, p.Name)

	return &ScriptResult{
		Message:  "Script created",
		ScriptID: sc.ID,
		PolicyID: policyID,
		Content:  doc,
	}, nil
}

// UploadScript stores an externally produced script document after
// deriving its policy id.
func (e *Executor) UploadScript(ctx context.Context, p UploadScriptPayload) (*ScriptResult, error) {
	if _, err := script.ParsePurpose(string(p.Purpose)); err != nil {
		return &ScriptResult{Message: err.Error()}, nil
	}
	if _, err := script.ParseDocument(p.Content); err != nil {
		return &ScriptResult{Message: fmt.Sprintf("Problems building the script: %v", err)}, nil
	}

	if _, err := e.ledger.WriteScriptFile(p.Purpose, p.Name, p.Content); err != nil {
		return nil, err
	}
	policyID, err := e.ledger.CreatePolicyID(ctx, p.Purpose, p.Name)
	if err != nil {
		log.Warnf("UploadScript: %v", err)
		return &ScriptResult{Message: fmt.Sprintf("Problems building the script: %v", err)}, nil
	}

	sc := &models.Script{
		Name:     p.Name,
		Purpose:  string(p.Purpose),
		Content:  p.Content,
		PolicyID: policyID,
	}
	if err := e.store.CreateScript(sc); err != nil {
		return nil, err
	}

	return &ScriptResult{
		Message:  "Script created in local DB",
		ScriptID: sc.ID,
		PolicyID: policyID,
	}, nil
}

func (e *Executor) removeScriptFiles(purpose script.Purpose, name string) {
	scriptPath := e.ledger.ScriptFilePath(purpose, name)
	policyPath := strings.TrimSuffix(scriptPath, ".script") + ".policyid"
	for _, p := range []string{scriptPath, policyPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warnf("removeScriptFiles: failed to remove %s: %v", p, err)
		}
	}
}
