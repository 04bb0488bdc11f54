package node

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Shelley derivation paths for the first payment and stake key pair.
const (
	paymentDerivationPath = "1852H/1815H/0H/0/0"
	stakeDerivationPath   = "1852H/1815H/0H/2/0"
)

// KeyMaterial is the full key hierarchy derived from one mnemonic:
// the recovery phrase and root key (always handed back to the caller,
// stored or not), node-client key envelopes, and the derived addresses.
type KeyMaterial struct {
	Mnemonic            []string `json:"mnemonic"`
	RootKey             string   `json:"rootKey"`
	PaymentSkey         []byte   `json:"paymentSkey"`
	PaymentVkey         []byte   `json:"paymentVkey"`
	StakeSkey           []byte   `json:"stakeSkey"`
	StakeVkey           []byte   `json:"stakeVkey"`
	BaseAddr            string   `json:"baseAddr"`
	PaymentAddr         string   `json:"paymentAddr"`
	StakeAddr           string   `json:"stakeAddr"`
	HashVerificationKey string   `json:"hashVerificationKey"`
}

// GenerateMnemonic asks the address tool for a fresh recovery phrase of
// the requested word count (12, 15 or 24).
func (c *Client) GenerateMnemonic(ctx context.Context, size int) ([]string, error) {
	log.Debugf("GenerateMnemonic: generating %d-word recovery phrase", size)

	out, err := c.runner.Run(ctx, c.cfg.AddressCLI, "recovery-phrase", "generate", "--size", fmt.Sprint(size))
	if err != nil {
		log.Errorf("GenerateMnemonic: %v: %s", err, out)
		return nil, fmt.Errorf("generating recovery phrase: %w", err)
	}
	words := strings.Fields(string(out))
	if len(words) == 0 {
		return nil, fmt.Errorf("empty recovery phrase from address tool")
	}
	return words, nil
}

// DeriveKeys walks the full Shelley hierarchy from a mnemonic: root key,
// payment and stake key pairs converted to node-client envelopes, and
// the base, payment and stake addresses plus the verification-key hash.
func (c *Client) DeriveKeys(ctx context.Context, words []string) (*KeyMaterial, error) {
	log.Info("DeriveKeys: deriving key hierarchy from recovery phrase")

	phrase := []byte(strings.Join(words, " "))
	rootKey, err := c.runner.RunWithInput(ctx, phrase, c.cfg.AddressCLI, "key", "from-recovery-phrase", "Shelley")
	if err != nil {
		log.Errorf("DeriveKeys: root key derivation failed: %v: %s", err, rootKey)
		return nil, fmt.Errorf("deriving root key: %w", err)
	}

	paymentXsk, err := c.runner.RunWithInput(ctx, rootKey, c.cfg.AddressCLI, "key", "child", paymentDerivationPath)
	if err != nil {
		return nil, fmt.Errorf("deriving payment key: %w", err)
	}
	stakeXsk, err := c.runner.RunWithInput(ctx, rootKey, c.cfg.AddressCLI, "key", "child", stakeDerivationPath)
	if err != nil {
		return nil, fmt.Errorf("deriving stake key: %w", err)
	}

	// The node cli only takes key files, so conversion goes through a
	// transient directory that is removed before returning.
	tmp, err := os.MkdirTemp(c.KeysDir(), "derive-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	paymentSkey, paymentVkey, err := c.convertKeyPair(ctx, tmp, "payment", paymentXsk)
	if err != nil {
		return nil, err
	}
	stakeSkey, stakeVkey, err := c.convertKeyPair(ctx, tmp, "stake", stakeXsk)
	if err != nil {
		return nil, err
	}

	paymentVkeyFile := filepath.Join(tmp, "payment.vkey")
	stakeVkeyFile := filepath.Join(tmp, "stake.vkey")

	paymentAddr, err := c.buildAddress(ctx, "--payment-verification-key-file", paymentVkeyFile)
	if err != nil {
		return nil, err
	}
	baseAddr, err := c.buildAddress(ctx,
		"--payment-verification-key-file", paymentVkeyFile,
		"--stake-verification-key-file", stakeVkeyFile)
	if err != nil {
		return nil, err
	}

	stakeArgs := append([]string{"stake-address", "build", "--stake-verification-key-file", stakeVkeyFile}, c.networkArgs()...)
	stakeOut, err := c.runner.Run(ctx, c.cfg.CLI, stakeArgs...)
	if err != nil {
		log.Errorf("DeriveKeys: stake address build failed: %v: %s", err, stakeOut)
		return nil, fmt.Errorf("building stake address: %w", err)
	}

	hashOut, err := c.runner.Run(ctx, c.cfg.CLI,
		"address", "key-hash", "--payment-verification-key-file", paymentVkeyFile)
	if err != nil {
		log.Errorf("DeriveKeys: key hash failed: %v: %s", err, hashOut)
		return nil, fmt.Errorf("hashing verification key: %w", err)
	}

	log.Infof("DeriveKeys: derived wallet, payment address %s", paymentAddr)
	return &KeyMaterial{
		Mnemonic:            words,
		RootKey:             strings.TrimSpace(string(rootKey)),
		PaymentSkey:         paymentSkey,
		PaymentVkey:         paymentVkey,
		StakeSkey:           stakeSkey,
		StakeVkey:           stakeVkey,
		BaseAddr:            baseAddr,
		PaymentAddr:         paymentAddr,
		StakeAddr:           strings.TrimSpace(string(stakeOut)),
		HashVerificationKey: strings.TrimSpace(string(hashOut)),
	}, nil
}

// convertKeyPair turns an extended bech32 signing key into node-client
// skey/vkey envelopes, leaving the files under dir for address building.
func (c *Client) convertKeyPair(ctx context.Context, dir, prefix string, xsk []byte) (skey, vkey []byte, err error) {
	xskFile := filepath.Join(dir, prefix+".xsk")
	skeyFile := filepath.Join(dir, prefix+".skey")
	evkeyFile := filepath.Join(dir, prefix+".evkey")
	vkeyFile := filepath.Join(dir, prefix+".vkey")

	if err := os.WriteFile(xskFile, xsk, 0600); err != nil {
		return nil, nil, err
	}

	keyFlag := "--shelley-payment-key"
	if prefix == "stake" {
		keyFlag = "--shelley-stake-key"
	}
	if out, err := c.runner.Run(ctx, c.cfg.CLI,
		"key", "convert-cardano-address-key", keyFlag,
		"--signing-key-file", xskFile, "--out-file", skeyFile); err != nil {
		log.Errorf("convertKeyPair: convert failed for %s: %v: %s", prefix, err, out)
		return nil, nil, fmt.Errorf("converting %s key: %w", prefix, err)
	}
	if out, err := c.runner.Run(ctx, c.cfg.CLI,
		"key", "verification-key",
		"--signing-key-file", skeyFile, "--verification-key-file", evkeyFile); err != nil {
		log.Errorf("convertKeyPair: verification key failed for %s: %v: %s", prefix, err, out)
		return nil, nil, fmt.Errorf("extracting %s verification key: %w", prefix, err)
	}
	if out, err := c.runner.Run(ctx, c.cfg.CLI,
		"key", "non-extended-key",
		"--extended-verification-key-file", evkeyFile, "--verification-key-file", vkeyFile); err != nil {
		log.Errorf("convertKeyPair: non-extended key failed for %s: %v: %s", prefix, err, out)
		return nil, nil, fmt.Errorf("shortening %s verification key: %w", prefix, err)
	}

	if skey, err = os.ReadFile(skeyFile); err != nil {
		return nil, nil, err
	}
	if vkey, err = os.ReadFile(vkeyFile); err != nil {
		return nil, nil, err
	}
	return skey, vkey, nil
}

func (c *Client) buildAddress(ctx context.Context, keyArgs ...string) (string, error) {
	args := append([]string{"address", "build"}, keyArgs...)
	args = append(args, c.networkArgs()...)
	out, err := c.runner.Run(ctx, c.cfg.CLI, args...)
	if err != nil {
		log.Errorf("buildAddress: %v: %s", err, out)
		return "", fmt.Errorf("building address: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
