package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

const (
	defaultConfigPath = "configs/config.toml"
	legacyConfigPath  = "config.toml"
)

// Load decodes the TOML config file and returns the resulting Config.
// A missing file is not an error; defaults apply in that case.
func Load() (*Config, error) {
	cfg := &Config{}
	path := ResolveConfigPath()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ResolveConfigPath locates the config file, preferring the configs/
// directory over the legacy root-level path.
func ResolveConfigPath() string {
	if path, set := os.LookupEnv("CARDANOAPI_CONFIG"); set {
		return path
	}
	if fileExists(defaultConfigPath) {
		return defaultConfigPath
	}
	if fileExists(legacyConfigPath) {
		return legacyConfigPath
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
