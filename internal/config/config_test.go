package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want %q", cfg.Store.Backend, BackendSQLite)
	}
	if cfg.Mailbox.MessagesPerPage != 27 || cfg.Mailbox.MaxAttachments != 27 || cfg.Mailbox.MaxMessageLength != 500 {
		t.Errorf("mailbox limits = %+v, want defaults", cfg.Mailbox)
	}
	if cfg.Session.TTL() != 5*time.Minute {
		t.Errorf("session TTL = %v, want 5m", cfg.Session.TTL())
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
store:
  backend: bolt
  path: /tmp/mail.db
mailbox:
  messages_per_page: 10
session:
  ttl_seconds: 60
http:
  addr: ":9000"
log_level: debug
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Backend != BackendBolt || cfg.Store.Path != "/tmp/mail.db" {
		t.Errorf("store = %+v, want bolt at /tmp/mail.db", cfg.Store)
	}
	if cfg.Mailbox.MessagesPerPage != 10 {
		t.Errorf("MessagesPerPage = %d, want 10", cfg.Mailbox.MessagesPerPage)
	}
	// Unset fields keep their defaults.
	if cfg.Mailbox.MaxAttachments != 27 {
		t.Errorf("MaxAttachments = %d, want default 27", cfg.Mailbox.MaxAttachments)
	}
	if cfg.Session.TTLSeconds != 60 {
		t.Errorf("TTLSeconds = %d, want 60", cfg.Session.TTLSeconds)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Errorf("HTTP.Addr = %q, want :9000", cfg.HTTP.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MAILVAULT_STORE_BACKEND", "bolt")
	t.Setenv("MAILVAULT_MESSAGES_PER_PAGE", "5")
	t.Setenv("MAILVAULT_SESSION_TTL_SECONDS", "120")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Backend != BackendBolt {
		t.Errorf("Backend = %q, want bolt", cfg.Store.Backend)
	}
	if cfg.Mailbox.MessagesPerPage != 5 {
		t.Errorf("MessagesPerPage = %d, want 5", cfg.Mailbox.MessagesPerPage)
	}
	if cfg.Session.TTLSeconds != 120 {
		t.Errorf("TTLSeconds = %d, want 120", cfg.Session.TTLSeconds)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"page size too small", func(c *Config) { c.Mailbox.MessagesPerPage = 0 }},
		{"page size too large", func(c *Config) { c.Mailbox.MessagesPerPage = 55 }},
		{"attachments too small", func(c *Config) { c.Mailbox.MaxAttachments = 0 }},
		{"attachments too large", func(c *Config) { c.Mailbox.MaxAttachments = 28 }},
		{"zero message length", func(c *Config) { c.Mailbox.MaxMessageLength = 0 }},
		{"zero cache size", func(c *Config) { c.Mailbox.DirectoryCacheSize = 0 }},
		{"zero ttl", func(c *Config) { c.Session.TTLSeconds = 0 }},
		{"zero sweep interval", func(c *Config) { c.Session.SweepIntervalSeconds = 0 }},
		{"empty http addr", func(c *Config) { c.HTTP.Addr = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted an invalid configuration")
			}
		})
	}
}
