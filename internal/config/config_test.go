package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("server.address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Database.DSN != "" {
		t.Errorf("database.dsn = %q, want empty", cfg.Database.DSN)
	}
	if cfg.Login.RatePerMinute != 10 || cfg.Login.Burst != 5 {
		t.Errorf("login limits = %d/%d, want 10/5", cfg.Login.RatePerMinute, cfg.Login.Burst)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DENTALAB_SERVER_ADDRESS", ":9090")
	t.Setenv("DENTALAB_DATABASE_DSN", "postgres://localhost/dentalab")
	t.Setenv("DENTALAB_LOGIN_RATE_PER_MINUTE", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("server.address = %q, want :9090", cfg.Server.Address)
	}
	if cfg.Database.DSN != "postgres://localhost/dentalab" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Login.RatePerMinute != 30 {
		t.Errorf("login.rate_per_minute = %d, want 30", cfg.Login.RatePerMinute)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("server:\n  address: \":7070\"\nlogin:\n  rate_per_minute: 20\n  burst: 8\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DENTALAB_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("server.address = %q, want :7070", cfg.Server.Address)
	}
	if cfg.Login.Burst != 8 {
		t.Errorf("login.burst = %d, want 8", cfg.Login.Burst)
	}
}

func TestValidate(t *testing.T) {
	var c Config
	c.Server.Address = ":8080"
	c.Login.RatePerMinute = 10
	c.Login.Burst = 5
	if err := validate(&c); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	c.Server.Address = "  "
	if err := validate(&c); err == nil {
		t.Error("blank address accepted")
	}
	c.Server.Address = ":8080"
	c.Login.Burst = 0
	if err := validate(&c); err == nil {
		t.Error("zero burst accepted")
	}
}
