package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROXY_CONFIG", "HTTP_ADDR", "PORT", "GOVEE_API_KEY", "GOVEE_BASE_URL",
		"CORS_ORIGIN", "SESSION_SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD",
		"SESSION_TTL", "RGB_ENCODING", "STATIC_DIR", "DATABASE_URL", "PG_DSN",
		"VENDOR_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("expected 12h ttl, got %v", cfg.SessionTTL)
	}
	if cfg.RGBEncoding != "packed" {
		t.Fatalf("expected packed encoding, got %q", cfg.RGBEncoding)
	}
	if cfg.VendorTimeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %v", cfg.VendorTimeout)
	}
	if cfg.SessionSecret == "" {
		t.Fatal("expected generated session secret")
	}
	if cfg.GateEnabled() {
		t.Fatal("gate must be off without credentials")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("GOVEE_API_KEY", "key-123")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("RGB_ENCODING", "struct")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.GoveeAPIKey != "key-123" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %v", cfg.SessionTTL)
	}
	if cfg.RGBEncoding != "struct" {
		t.Fatalf("expected struct encoding, got %q", cfg.RGBEncoding)
	}
	if !cfg.GateEnabled() {
		t.Fatal("gate must be on with both credentials")
	}
}

func TestLoad_PortFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("expected :3000 from PORT, got %q", cfg.HTTPAddr)
	}

	// explicit HTTP_ADDR wins over PORT
	t.Setenv("HTTP_ADDR", ":4000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":4000" {
		t.Fatalf("expected HTTP_ADDR to win, got %q", cfg.HTTPAddr)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "proxy.yaml")
	data := []byte("http_addr: \":7070\"\nsession_ttl: 1h\nadmin_username: fileadmin\nadmin_password: filepw\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("PROXY_CONFIG", path)
	t.Setenv("ADMIN_USERNAME", "envadmin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("expected file addr, got %q", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected file ttl, got %v", cfg.SessionTTL)
	}
	if cfg.AdminUsername != "envadmin" {
		t.Fatalf("env must win over file, got %q", cfg.AdminUsername)
	}
	if cfg.AdminPassword != "filepw" {
		t.Fatalf("expected file password, got %q", cfg.AdminPassword)
	}
}

func TestLoad_BadRGBEncodingRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("RGB_ENCODING", "rainbow")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown rgb encoding")
	}
}

func TestLoad_MissingConfigFileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROXY_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
