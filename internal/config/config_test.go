package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("default port: %d", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr: %s", cfg.Server.Addr())
	}
	if cfg.Database.DSN != "" {
		t.Fatalf("dsn should default empty: %s", cfg.Database.DSN)
	}
	if !cfg.Database.Migrate {
		t.Fatal("migrations should default on")
	}
	if cfg.RateLimit.RequestsPerSecond != 20 || cfg.RateLimit.Burst != 40 {
		t.Fatalf("rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  host: 127.0.0.1
  port: 9090
  read_timeout: 5s
database:
  dsn: postgres://localhost/reviews
auth:
  jwt_secret: file-secret
admins:
  - admin-1
  - admin-2
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Fatalf("addr: %s", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("read timeout: %v", cfg.Server.ReadTimeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Fatalf("write timeout: %v", cfg.Server.WriteTimeout)
	}
	if cfg.Database.DSN != "postgres://localhost/reviews" {
		t.Fatalf("dsn: %s", cfg.Database.DSN)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Fatalf("jwt secret: %s", cfg.Auth.JWTSecret)
	}
	if len(cfg.Admins) != 2 || cfg.Admins[0] != "admin-1" {
		t.Fatalf("admins: %v", cfg.Admins)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("AUTH_JWT_SECRET", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("port: %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Fatalf("jwt secret: %s", cfg.Auth.JWTSecret)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: -1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("negative port accepted")
	}

	if err := os.WriteFile(path, []byte("rate_limit:\n  requests_per_second: 0\n  burst: 0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("zero rate limit accepted")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}

	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}
