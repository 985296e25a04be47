// Package config handles bastion.yaml manifest parsing.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents a bastion.yaml manifest.
type Config struct {
	Name    string            `yaml:"name,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Network NetworkConfig     `yaml:"network,omitempty"`

	// Sandbox configures agent sandboxing.
	// "none" disables the sandbox. Empty string or omitted uses the default
	// (sandbox enabled).
	Sandbox string `yaml:"sandbox,omitempty"`

	// Proxy routes the toolkit's outbound HTTP traffic through the given
	// proxies. Absent means no configuration-supplied proxy; environment
	// variables may still apply.
	Proxy *ProxyConfig `yaml:"proxy,omitempty"`
}

// NetworkConfig configures network access policies for the agent.
type NetworkConfig struct {
	Policy string   `yaml:"policy,omitempty"` // "permissive" or "strict", default "permissive"
	Allow  []string `yaml:"allow,omitempty"`  // allowed host patterns
}

// ProxyConfig holds outbound proxy settings. All fields are optional.
// Username and password apply to whichever proxy URLs are configured here;
// they are not scheme-specific and never apply to environment-supplied
// proxies.
type ProxyConfig struct {
	HTTP     string `yaml:"http,omitempty"`
	HTTPS    string `yaml:"https,omitempty"`
	SOCKS    string `yaml:"socks,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Validate checks that every configured proxy URL is an absolute URL with a
// scheme recognized for its slot. A nil receiver is valid (no proxy
// configuration).
func (p *ProxyConfig) Validate() error {
	if p == nil {
		return nil
	}
	if err := validateProxyURL("proxy.http", p.HTTP, "http", "https"); err != nil {
		return err
	}
	if err := validateProxyURL("proxy.https", p.HTTPS, "http", "https"); err != nil {
		return err
	}
	if err := validateProxyURL("proxy.socks", p.SOCKS, "socks5", "socks5h"); err != nil {
		return err
	}
	return nil
}

func validateProxyURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %w", field, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: invalid URL %q: must be absolute (e.g. %s://host:port)", field, raw, schemes[0])
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported scheme %q in %q (expected one of %v)", field, u.Scheme, raw, schemes)
}

// Load reads bastion.yaml from the given directory.
// Returns nil, nil if the file doesn't exist.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "bastion.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading bastion.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing bastion.yaml: %w", err)
	}

	// Set default network policy if not specified
	if cfg.Network.Policy == "" {
		cfg.Network.Policy = "permissive"
	}

	// Validate network policy
	if cfg.Network.Policy != "permissive" && cfg.Network.Policy != "strict" {
		return nil, fmt.Errorf("invalid network policy %q: must be 'permissive' or 'strict'", cfg.Network.Policy)
	}

	// Validate sandbox setting
	if cfg.Sandbox != "" && cfg.Sandbox != "none" {
		return nil, fmt.Errorf("invalid sandbox value %q: must be empty (default) or 'none'", cfg.Sandbox)
	}

	// Proxy URLs are rejected here rather than at client-construction time so
	// a bad manifest fails before anything network-capable is handed out.
	if err := cfg.Proxy.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Env: make(map[string]string),
		Network: NetworkConfig{
			Policy: "permissive",
		},
	}
}
