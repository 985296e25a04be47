package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGlobalConfig(t *testing.T, content string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".bastion")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadGlobalDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Debug.RetentionDays != 7 {
		t.Errorf("Debug.RetentionDays = %d, want 7", cfg.Debug.RetentionDays)
	}
	if cfg.Proxy != nil {
		t.Errorf("Proxy = %+v, want nil", cfg.Proxy)
	}
}

func TestLoadGlobalFromFile(t *testing.T) {
	writeGlobalConfig(t, `
debug:
  retention_days: 30

proxy:
  http: http://global-proxy:3128
`)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Debug.RetentionDays != 30 {
		t.Errorf("Debug.RetentionDays = %d, want 30", cfg.Debug.RetentionDays)
	}
	if cfg.Proxy == nil || cfg.Proxy.HTTP != "http://global-proxy:3128" {
		t.Errorf("Proxy = %+v, want global-proxy", cfg.Proxy)
	}
}

func TestLoadGlobalEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BASTION_DEBUG_RETENTION_DAYS", "3")

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Debug.RetentionDays != 3 {
		t.Errorf("Debug.RetentionDays = %d, want 3", cfg.Debug.RetentionDays)
	}
}

func TestLoadGlobalInvalidProxy(t *testing.T) {
	writeGlobalConfig(t, `
proxy:
  http: not-a-proxy
`)

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("LoadGlobal: expected error for malformed proxy URL")
	}
	if !strings.Contains(err.Error(), "proxy.http") {
		t.Errorf("error %q does not name the offending field", err)
	}
}

func TestGlobalConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := GlobalConfigDir(); got != filepath.Join(home, ".bastion") {
		t.Errorf("GlobalConfigDir() = %q", got)
	}
}
