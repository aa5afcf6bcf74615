package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "bookwise.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
server:
  base_url: https://api.bookwise.test
`)

	cfg, err := LoadConfig(dir, "bookwise")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.BaseURL != "https://api.bookwise.test" {
		t.Fatalf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.BasePath != "/api" || cfg.Server.Timeout != 30*time.Second {
		t.Fatalf("server defaults not applied: %+v", cfg.Server)
	}
	if cfg.Session.Backend != SessionBackendFile || cfg.Session.File == "" {
		t.Fatalf("session defaults not applied: %+v", cfg.Session)
	}
	if cfg.Logger.Level != "info" {
		t.Fatalf("logger defaults not applied: %+v", cfg.Logger)
	}
}

func TestLoadConfigEnvPlaceholder(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
server:
  base_url: ${BOOKWISE_TEST_URL:-https://fallback.bookwise.test}
session:
  backend: memory
`)

	cfg, err := LoadConfig(dir, "bookwise")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.BaseURL != "https://fallback.bookwise.test" {
		t.Fatalf("default placeholder not expanded: %q", cfg.Server.BaseURL)
	}

	t.Setenv("BOOKWISE_TEST_URL", "https://env.bookwise.test")
	cfg, err = LoadConfig(dir, "bookwise")
	if err != nil {
		t.Fatalf("LoadConfig with env: %v", err)
	}
	if cfg.Server.BaseURL != "https://env.bookwise.test" {
		t.Fatalf("env placeholder not expanded: %q", cfg.Server.BaseURL)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.Server.BaseURL = "" }},
		{"unknown session backend", func(c *Config) { c.Session.Backend = "etcd" }},
		{"file backend without path", func(c *Config) {
			c.Session.Backend = SessionBackendFile
			c.Session.File = ""
		}},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.BaseURL = "https://api.bookwise.test"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(dir, "bookwise"); err == nil {
		t.Fatalf("defaults have no base_url, validation should fail")
	}
}
