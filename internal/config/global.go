package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GlobalConfig holds global Bastion settings from ~/.bastion/config.yaml.
type GlobalConfig struct {
	Debug DebugConfig `yaml:"debug"`

	// Proxy is the fallback proxy configuration used when a project manifest
	// carries none.
	Proxy *ProxyConfig `yaml:"proxy,omitempty"`
}

// DebugConfig configures debug log files.
type DebugConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// DefaultGlobalConfig returns the default global configuration.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Debug: DebugConfig{
			RetentionDays: 7,
		},
	}
}

// LoadGlobal reads ~/.bastion/config.yaml and applies environment overrides.
// A missing file yields defaults; a malformed proxy block is an error.
func LoadGlobal() (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	path := filepath.Join(GlobalConfigDir(), "config.yaml")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.Proxy.Validate(); err != nil {
		return nil, err
	}

	// Apply environment overrides
	if days := os.Getenv("BASTION_DEBUG_RETENTION_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil {
			cfg.Debug.RetentionDays = n
		}
	}

	return cfg, nil
}

// GlobalConfigDir returns the path to ~/.bastion.
func GlobalConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".bastion")
	}
	return filepath.Join(homeDir, ".bastion")
}
