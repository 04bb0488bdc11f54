package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the full application configuration, decoded from the TOML
// config file and passed down explicitly to every component that needs it.
type Config struct {
	Node     Node
	Database Database
	Security Security
}

// Node holds everything needed to drive the external node client binaries.
type Node struct {
	CLI        string `toml:"cli"`         // cardano-cli binary
	AddressCLI string `toml:"address_cli"` // cardano-address binary
	Network    string `toml:"network"`     // "mainnet" or "testnet"
	Magic      string `toml:"magic"`       // testnet magic, ignored on mainnet
	WorkDir    string `toml:"workdir"`     // root for keys, transactions and script folders
	TimeoutSec int    `toml:"timeout"`     // per-invocation timeout in seconds
}

// Database configuration.
type Database struct {
	Path string `toml:"path"` // SQLite database path
}

// Security configuration.
type Security struct {
	Seed string `toml:"seed"` // seed for the at-rest encryption key
}

// Timeout returns the per-invocation timeout for node client calls.
func (n Node) Timeout() time.Duration {
	if n.TimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(n.TimeoutSec) * time.Second
}

func (c *Config) applyDefaults() {
	if c.Node.CLI == "" {
		c.Node.CLI = "cardano-cli"
	}
	if c.Node.AddressCLI == "" {
		c.Node.AddressCLI = "cardano-address"
	}
	if c.Node.Network == "" {
		c.Node.Network = "testnet"
	}
	if c.Node.WorkDir == "" {
		c.Node.WorkDir = defaultWorkDir()
	}
	c.Node.WorkDir = expandPath(c.Node.WorkDir)
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.Node.WorkDir, "cardanoapi.db")
	}
	c.Database.Path = expandPath(c.Database.Path)
}

func defaultWorkDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".cardanoapi"
	}
	return filepath.Join(homeDir, ".cardanoapi")
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
