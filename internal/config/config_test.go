package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnvVars = []string{
	"FANBASE_CONFIG", "FANBASE_API_URL", "FANBASE_HTTP_TIMEOUT", "FANBASE_RATE_LIMIT", "FANBASE_RATE_BURST",
	"FANBASE_PROFILE", "FANBASE_TOKEN_STORE", "FANBASE_TOKEN_FILE", "FANBASE_TOKEN_PASSPHRASE",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"FANBASE_POLL_INTERVAL", "FANBASE_SEARCH_DEBOUNCE", "FANBASE_DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		if old, ok := os.LookupEnv(v); ok {
			t.Cleanup(func() { os.Setenv(v, old) })
		}
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("expected API.BaseURL http://localhost:8000, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("expected API.Timeout 15s, got %s", cfg.API.Timeout)
	}
	if cfg.API.RateLimit != 10 || cfg.API.RateBurst != 20 {
		t.Errorf("expected rate 10/20, got %v/%d", cfg.API.RateLimit, cfg.API.RateBurst)
	}
	if cfg.Session.Profile != "default" {
		t.Errorf("expected Session.Profile default, got %s", cfg.Session.Profile)
	}
	if cfg.Session.Store != StoreFile {
		t.Errorf("expected Session.Store file, got %s", cfg.Session.Store)
	}
	if !strings.HasSuffix(cfg.Session.TokenFile, filepath.Join("fanbase", "session-default.json")) {
		t.Errorf("unexpected token file %s", cfg.Session.TokenFile)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Errorf("expected redis addr localhost:6379, got %s", cfg.Redis.Addr())
	}
	if cfg.Database.DSN() != "postgres://fanbase:@localhost:5432/fanbase?sslmode=disable" {
		t.Errorf("unexpected DSN %s", cfg.Database.DSN())
	}
	if cfg.Client.PollInterval != 30*time.Second {
		t.Errorf("expected PollInterval 30s, got %s", cfg.Client.PollInterval)
	}
	if cfg.Client.SearchDebounce != 500*time.Millisecond {
		t.Errorf("expected SearchDebounce 500ms, got %s", cfg.Client.SearchDebounce)
	}
	if cfg.Debug {
		t.Error("expected Debug to be false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FANBASE_API_URL", "https://api.example.com")
	t.Setenv("FANBASE_TOKEN_STORE", "REDIS")
	t.Setenv("FANBASE_PROFILE", "work")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("FANBASE_POLL_INTERVAL", "5s")
	t.Setenv("FANBASE_DEBUG", "true")
	t.Setenv("FANBASE_TOKEN_PASSPHRASE", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("expected overridden base url, got %s", cfg.API.BaseURL)
	}
	if cfg.Session.Store != StoreRedis {
		t.Errorf("expected redis store, got %s", cfg.Session.Store)
	}
	if cfg.Session.TokenFile != "" {
		t.Errorf("expected no token file for redis store, got %s", cfg.Session.TokenFile)
	}
	if cfg.Redis.Port != 6380 {
		t.Errorf("expected redis port 6380, got %d", cfg.Redis.Port)
	}
	if cfg.Client.PollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %s", cfg.Client.PollInterval)
	}
	if !cfg.Debug {
		t.Error("expected debug enabled")
	}
	if cfg.Session.Passphrase != "hunter2" {
		t.Error("expected passphrase from env")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_PORT", "not-a-number")
	t.Setenv("FANBASE_POLL_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("expected default redis port, got %d", cfg.Redis.Port)
	}
	if cfg.Client.PollInterval != 30*time.Second {
		t.Errorf("expected default poll interval, got %s", cfg.Client.PollInterval)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "fanbase.yaml")
	content := `
api:
  base_url: https://file.example.com
  timeout: 3s
session:
  profile: shared
  store: postgres
client:
  poll_interval: 1m
  search_debounce: 250ms
database:
  host: db.internal
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FANBASE_CONFIG", path)
	t.Setenv("DB_HOST", "db.override")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "https://file.example.com" {
		t.Errorf("expected base url from file, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("expected timeout from file, got %s", cfg.API.Timeout)
	}
	if cfg.Session.Store != StorePostgres || cfg.Session.Profile != "shared" {
		t.Errorf("unexpected session config %+v", cfg.Session)
	}
	if cfg.Client.PollInterval != time.Minute || cfg.Client.SearchDebounce != 250*time.Millisecond {
		t.Errorf("unexpected client config %+v", cfg.Client)
	}
	if cfg.Database.Host != "db.override" {
		t.Errorf("expected env to win over file, got %s", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("expected default port kept, got %d", cfg.Database.Port)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("FANBASE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("api: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FANBASE_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad url", func(c *Config) { c.API.BaseURL = "localhost:8000" }},
		{"unknown store", func(c *Config) { c.Session.Store = "s3" }},
		{"empty profile", func(c *Config) { c.Session.Profile = " " }},
		{"zero poll interval", func(c *Config) { c.Client.PollInterval = 0 }},
		{"negative debounce", func(c *Config) { c.Client.SearchDebounce = -time.Second }},
		{"negative rate", func(c *Config) { c.API.RateLimit = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
