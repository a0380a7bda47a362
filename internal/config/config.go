package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the proxy configuration. Environment variables win over the
// optional YAML file; the file exists for deployments that prefer one.
type Config struct {
	HTTPAddr      string
	GoveeAPIKey   string
	GoveeBaseURL  string
	CORSOrigin    string
	SessionSecret string
	AdminUsername string
	AdminPassword string
	SessionTTL    time.Duration
	RGBEncoding   string
	StaticDir     string
	DatabaseURL   string
	VendorTimeout time.Duration
}

// GateEnabled reports whether the login wall is active. Both credentials
// must be configured; earlier deployments ran without one.
func (c Config) GateEnabled() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

type fileConfig struct {
	HTTPAddr      string `yaml:"http_addr"`
	GoveeBaseURL  string `yaml:"govee_base_url"`
	CORSOrigin    string `yaml:"cors_origin"`
	SessionSecret string `yaml:"session_secret"`
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	SessionTTL    string `yaml:"session_ttl"`
	RGBEncoding   string `yaml:"rgb_encoding"`
	StaticDir     string `yaml:"static_dir"`
	VendorTimeout string `yaml:"vendor_timeout"`
}

// Load builds the configuration from defaults, an optional YAML file named
// by PROXY_CONFIG, and the environment, in that order.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:      ":8080",
		CORSOrigin:    "*",
		SessionTTL:    12 * time.Hour,
		RGBEncoding:   "packed",
		StaticDir:     "public",
		VendorTimeout: 10 * time.Second,
	}

	if path := os.Getenv("PROXY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		if err := cfg.applyFile(file); err != nil {
			return cfg, err
		}
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.GoveeAPIKey = getenvDefault("GOVEE_API_KEY", cfg.GoveeAPIKey)
	cfg.GoveeBaseURL = getenvDefault("GOVEE_BASE_URL", cfg.GoveeBaseURL)
	cfg.CORSOrigin = getenvDefault("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.SessionSecret = getenvDefault("SESSION_SECRET", cfg.SessionSecret)
	cfg.AdminUsername = getenvDefault("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminPassword = getenvDefault("ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.SessionTTL = getenvDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.RGBEncoding = getenvDefault("RGB_ENCODING", cfg.RGBEncoding)
	cfg.StaticDir = getenvDefault("STATIC_DIR", cfg.StaticDir)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.VendorTimeout = getenvDuration("VENDOR_TIMEOUT", cfg.VendorTimeout)

	if cfg.RGBEncoding != "packed" && cfg.RGBEncoding != "struct" {
		return cfg, fmt.Errorf("config: rgb encoding must be packed or struct, got %q", cfg.RGBEncoding)
	}
	if cfg.SessionTTL <= 0 {
		return cfg, fmt.Errorf("config: session ttl must be positive")
	}
	if cfg.SessionSecret == "" {
		// Sessions live in process memory, so a per-process secret only
		// invalidates cookies a restart would invalidate anyway.
		cfg.SessionSecret = randomSecret()
	}
	return cfg, nil
}

func (c *Config) applyFile(file fileConfig) error {
	if file.HTTPAddr != "" {
		c.HTTPAddr = file.HTTPAddr
	}
	if file.GoveeBaseURL != "" {
		c.GoveeBaseURL = file.GoveeBaseURL
	}
	if file.CORSOrigin != "" {
		c.CORSOrigin = file.CORSOrigin
	}
	if file.SessionSecret != "" {
		c.SessionSecret = file.SessionSecret
	}
	if file.AdminUsername != "" {
		c.AdminUsername = file.AdminUsername
	}
	if file.AdminPassword != "" {
		c.AdminPassword = file.AdminPassword
	}
	if file.RGBEncoding != "" {
		c.RGBEncoding = file.RGBEncoding
	}
	if file.StaticDir != "" {
		c.StaticDir = file.StaticDir
	}
	if file.SessionTTL != "" {
		ttl, err := time.ParseDuration(file.SessionTTL)
		if err != nil {
			return fmt.Errorf("config: bad session_ttl: %w", err)
		}
		c.SessionTTL = ttl
	}
	if file.VendorTimeout != "" {
		timeout, err := time.ParseDuration(file.VendorTimeout)
		if err != nil {
			return fmt.Errorf("config: bad vendor_timeout: %w", err)
		}
		c.VendorTimeout = timeout
	}
	return nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
