// Package config loads charter's runtime configuration: defaults,
// overlaid by an optional YAML file, overlaid by CHARTER_* environment
// variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/charter/pkg/domain"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel string `yaml:"log_level" env:"CHARTER_LOG_LEVEL"`

	// SessionTTL is the lifetime of a formation session from creation.
	SessionTTL time.Duration `yaml:"session_ttl" env:"CHARTER_SESSION_TTL"`

	// RewindOnEdit allows re-running an earlier step to move the session
	// backwards. Off by default: steps only move forward.
	RewindOnEdit bool `yaml:"rewind_on_edit" env:"CHARTER_REWIND_ON_EDIT"`

	// BlockOnNameCheck turns name-check failures from advisory into
	// blocking.
	BlockOnNameCheck bool `yaml:"block_on_name_check" env:"CHARTER_BLOCK_ON_NAME_CHECK"`

	// CatalogPath optionally replaces the built-in state/type/ending
	// catalog with a YAML file.
	CatalogPath string `yaml:"catalog_path" env:"CHARTER_CATALOG_PATH"`

	HTTP       HTTPConfig       `yaml:"http"`
	Redis      RedisConfig      `yaml:"redis"`
	OpenCorp   OpenCorpConfig   `yaml:"opencorp"`
	Encryption EncryptionConfig `yaml:"encryption"`
}

// HTTPConfig configures the REST and SSE listeners.
type HTTPConfig struct {
	Addr    string `yaml:"addr" env:"CHARTER_HTTP_ADDR"`
	SSEPort int    `yaml:"sse_port" env:"CHARTER_SSE_PORT"`
}

// RedisConfig configures the redis session store. An empty Addr selects
// the in-memory store.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"CHARTER_REDIS_ADDR"`
	Password string        `yaml:"password" env:"CHARTER_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"CHARTER_REDIS_DB"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"CHARTER_REDIS_LOCK_TTL"`
}

// OpenCorpConfig configures the filing collaborator clients. An empty
// BaseURL disables the collaborators; name checks then degrade to
// advisory failures and certificate generation reports unavailability.
type OpenCorpConfig struct {
	BaseURL string        `yaml:"base_url" env:"CHARTER_OPENCORP_BASE_URL"`
	APIKey  string        `yaml:"api_key" env:"CHARTER_OPENCORP_API_KEY"`
	Retries int           `yaml:"retries" env:"CHARTER_OPENCORP_RETRIES"`
	Backoff time.Duration `yaml:"backoff" env:"CHARTER_OPENCORP_BACKOFF"`
}

// EncryptionConfig configures encryption at rest. Keys are hex-encoded
// 32-byte values. An empty ActiveKey disables the middleware.
type EncryptionConfig struct {
	ActiveKey    string   `yaml:"active_key" env:"CHARTER_ENCRYPTION_KEY"`
	FallbackKeys []string `yaml:"fallback_keys" env:"CHARTER_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`

	// ScrubPII masks shareholder and agent contact details at rest.
	ScrubPII bool `yaml:"scrub_pii" env:"CHARTER_SCRUB_PII"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:   "info",
		SessionTTL: 24 * time.Hour,
		HTTP: HTTPConfig{
			Addr:    ":8080",
			SSEPort: 8081,
		},
		Redis: RedisConfig{
			LockTTL: 30 * time.Second,
		},
		OpenCorp: OpenCorpConfig{
			Retries: 3,
			Backoff: 250 * time.Millisecond,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and CHARTER_* environment variables, in that precedence order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Catalog returns the formation catalog: the built-in one, or the YAML
// override named by CatalogPath.
func (c Config) Catalog() (*domain.Catalog, error) {
	if c.CatalogPath == "" {
		return domain.DefaultCatalog(), nil
	}

	raw, err := os.ReadFile(c.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	// Start from the defaults so a partial override file keeps the
	// built-in bounds.
	catalog := domain.DefaultCatalog()
	if err := yaml.Unmarshal(raw, catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", c.CatalogPath, err)
	}
	return catalog, nil
}

// Keys decodes the hex-encoded encryption keys. Returns nil active key
// when encryption is disabled.
func (c EncryptionConfig) Keys() (active []byte, fallbacks [][]byte, err error) {
	if c.ActiveKey == "" {
		return nil, nil, nil
	}

	active, err = decodeKey(c.ActiveKey)
	if err != nil {
		return nil, nil, fmt.Errorf("active encryption key: %w", err)
	}
	for i, fk := range c.FallbackKeys {
		key, err := decodeKey(fk)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback encryption key %d: %w", i, err)
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
