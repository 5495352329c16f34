package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAPIConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadAPIConfig()
	if err != nil {
		t.Fatalf("LoadAPIConfig: %v", err)
	}
	if cfg.InvitationTTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day invitation ttl, got %s", cfg.InvitationTTL)
	}
	if cfg.DiscoveryDefaultLimit != 20 || cfg.DiscoveryMaxLimit != 100 {
		t.Fatalf("unexpected discovery limits: %d/%d", cfg.DiscoveryDefaultLimit, cfg.DiscoveryMaxLimit)
	}
	if cfg.Store != StorePostgres {
		t.Fatalf("expected postgres store by default, got %q", cfg.Store)
	}
}

func TestLoadAPIConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE", "memory")
	t.Setenv("INVITATION_TTL", "48h")
	t.Setenv("DISCOVERY_DEFAULT_LIMIT", "5")

	cfg, err := LoadAPIConfig()
	if err != nil {
		t.Fatalf("LoadAPIConfig: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.InvitationTTL != 48*time.Hour || cfg.DiscoveryDefaultLimit != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadAPIConfigRejectsUnknownStore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE", "mongo")
	if _, err := LoadAPIConfig(); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("API_ADDR=:9999\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("API_ADDR", ":7000")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("API_ADDR"); got != ":7000" {
		t.Fatalf("expected existing value to win, got %q", got)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "debug" {
		t.Fatalf("expected LOG_LEVEL from file, got %q", got)
	}
}
