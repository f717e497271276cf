package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config holds the application configuration. It is built once at startup,
// validated, and passed by reference to the components that need it.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Mailbox MailboxConfig `yaml:"mailbox"`
	Session SessionConfig `yaml:"session"`
	HTTP    HTTPConfig    `yaml:"http"`

	LogLevel string `yaml:"log_level"`
}

// StoreConfig selects and locates the record store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// MailboxConfig holds mailbox feature limits.
type MailboxConfig struct {
	MessagesPerPage  int `yaml:"messages_per_page"`
	MaxAttachments   int `yaml:"max_attachments"`
	MaxMessageLength int `yaml:"max_message_length"`

	// DirectoryCacheSize bounds the LRU cache over recipient lookups.
	DirectoryCacheSize int `yaml:"directory_cache_size"`
}

// SessionConfig holds composition session lifetimes, in seconds.
type SessionConfig struct {
	TTLSeconds           int `yaml:"ttl_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// TTL returns the session time-to-live as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// SweepInterval returns the expiry sweep period as a duration.
func (s SessionConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

// HTTPConfig holds the API and metrics endpoint settings.
type HTTPConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
			Path:    "/data/mailvault.db",
		},
		Mailbox: MailboxConfig{
			MessagesPerPage:    27,
			MaxAttachments:     27,
			MaxMessageLength:   500,
			DirectoryCacheSize: 1024,
		},
		Session: SessionConfig{
			TTLSeconds:           300,
			SweepIntervalSeconds: 300,
		},
		HTTP: HTTPConfig{
			Addr:    ":8199",
			Metrics: true,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from an optional YAML file, applies environment
// variable overrides, and returns the result. A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.Store.Backend = getEnv("MAILVAULT_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = getEnv("MAILVAULT_STORE_PATH", cfg.Store.Path)
	cfg.LogLevel = getEnv("MAILVAULT_LOG_LEVEL", cfg.LogLevel)
	cfg.HTTP.Addr = getEnv("MAILVAULT_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Mailbox.MessagesPerPage = getEnvInt("MAILVAULT_MESSAGES_PER_PAGE", cfg.Mailbox.MessagesPerPage)
	cfg.Mailbox.MaxAttachments = getEnvInt("MAILVAULT_MAX_ATTACHMENTS", cfg.Mailbox.MaxAttachments)
	cfg.Mailbox.MaxMessageLength = getEnvInt("MAILVAULT_MAX_MESSAGE_LENGTH", cfg.Mailbox.MaxMessageLength)
	cfg.Session.TTLSeconds = getEnvInt("MAILVAULT_SESSION_TTL_SECONDS", cfg.Session.TTLSeconds)

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("store backend must be %q or %q, got %q", BackendSQLite, BackendBolt, c.Store.Backend)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.Mailbox.MessagesPerPage < 1 || c.Mailbox.MessagesPerPage > 54 {
		return fmt.Errorf("messages_per_page must be between 1 and 54")
	}
	if c.Mailbox.MaxAttachments < 1 || c.Mailbox.MaxAttachments > 27 {
		return fmt.Errorf("max_attachments must be between 1 and 27")
	}
	if c.Mailbox.MaxMessageLength < 1 {
		return fmt.Errorf("max_message_length must be positive")
	}
	if c.Mailbox.DirectoryCacheSize < 1 {
		return fmt.Errorf("directory_cache_size must be positive")
	}
	if c.Session.TTLSeconds < 1 {
		return fmt.Errorf("session ttl_seconds must be positive")
	}
	if c.Session.SweepIntervalSeconds < 1 {
		return fmt.Errorf("session sweep_interval_seconds must be positive")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http addr is required")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
