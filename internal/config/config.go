// Package config provides configuration loading and structs for the omomi server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/schema"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Schema  SchemaConfig  `yaml:"schema"`
	Payload PayloadConfig `yaml:"payload"`
	Search  SearchConfig  `yaml:"search"`
	Watch   WatchConfig   `yaml:"watch"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the keyword index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// SchemaConfig lists the indexed fields. Fields typed "payloads" are payload-bearing.
type SchemaConfig struct {
	Fields []schema.Field `yaml:"fields"`
}

// PayloadConfig controls how payloads are read and combined.
type PayloadConfig struct {
	// Function names the aggregation strategy (see payload.FunctionNames).
	Function string `yaml:"function"`
	// Delimiter separates a term from its weight in payload field text.
	Delimiter string `yaml:"delimiter"`
}

// On-invalid-payload policies.
const (
	InvalidPayloadFail = "fail"
	InvalidPayloadSkip = "skip"
)

// SearchConfig holds query and ranking settings.
type SearchConfig struct {
	DefaultLimit     int    `yaml:"default_limit"`
	MaxLimit         int    `yaml:"max_limit"`
	TopKCandidates   int    `yaml:"top_k_candidates"`
	DefaultField     string `yaml:"default_field"`
	PhraseSlop       int    `yaml:"phrase_slop"`
	NormalizeScores  bool   `yaml:"normalize_scores"`
	OnInvalidPayload string `yaml:"on_invalid_payload"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate checks settings that have no sensible default.
func Validate(cfg *Config) error {
	switch cfg.Search.OnInvalidPayload {
	case InvalidPayloadFail, InvalidPayloadSkip:
	default:
		return fmt.Errorf("invalid search.on_invalid_payload %q: use %q or %q",
			cfg.Search.OnInvalidPayload, InvalidPayloadFail, InvalidPayloadSkip)
	}
	if cfg.Search.PhraseSlop < 0 {
		return fmt.Errorf("invalid search.phrase_slop %d: must not be negative", cfg.Search.PhraseSlop)
	}
	if _, err := payload.FunctionByName(cfg.Payload.Function); err != nil {
		return fmt.Errorf("invalid payload.function: %w", err)
	}
	if _, err := schema.New(cfg.Schema.Fields); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// BuildSchema returns the schema described by cfg.
func (c *Config) BuildSchema() (*schema.Schema, error) {
	return schema.New(c.Schema.Fields)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
