package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if !cfg.Ledger.ClampPayableAtZero {
		t.Fatalf("expected payable clamp to default to true")
	}
	if cfg.OTPTTL() != 30*time.Minute {
		t.Fatalf("expected 30m otp ttl, got %v", cfg.OTPTTL())
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	yml := `server:
  port: "9090"
  store_timeout_seconds: 2
database:
  driver: mysql
  dsn: "user:pass@tcp(localhost:3306)/food"
dispatch:
  strategy: first
  max_attempts: 3
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DISPATCH_STRATEGY", "nearest")
	t.Setenv("PAYABLE_CLAMP_ZERO", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from yaml, got %s", cfg.Server.Port)
	}
	if cfg.StoreTimeout() != 2*time.Second {
		t.Fatalf("expected 2s store timeout, got %v", cfg.StoreTimeout())
	}
	if cfg.Database.Driver != "mysql" {
		t.Fatalf("expected mysql driver, got %s", cfg.Database.Driver)
	}
	if cfg.Dispatch.Strategy != "nearest" {
		t.Fatalf("expected env to override strategy, got %s", cfg.Dispatch.Strategy)
	}
	if cfg.Dispatch.MaxAttempts != 3 {
		t.Fatalf("expected max attempts 3, got %d", cfg.Dispatch.MaxAttempts)
	}
	if cfg.Ledger.ClampPayableAtZero {
		t.Fatalf("expected env to disable payable clamp")
	}
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	if _, err := OpenDB(DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestOpenDB_SQLiteMigrate(t *testing.T) {
	db, err := OpenDB(DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("OpenDB returned error: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
}
