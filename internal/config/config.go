// Package config manages regidx configuration and the .regidx directory
// structure. It handles loading, saving, and initializing the service
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	RegidxDir    = ".regidx"
	ConfigFile   = "config"
	DatabaseFile = "regidx.db"
	OutboxFile   = "outbox.db"
)

// Retention defaults, in milliseconds.
const (
	DefaultObjectDeleteRetentionMS = int64(63072000000) // 2 years
	DefaultSearchTrailRetentionMS  = int64(2592000000)  // 1 month
)

// SolrConfig holds connection and indexing settings for the search engine.
type SolrConfig struct {
	Enabled        bool   `toml:"enabled"`
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Scheme         string `toml:"scheme"`
	Core           string `toml:"core"` // base collection name
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	AutoCommit     bool   `toml:"auto_commit"`
	CommitWithinMS int    `toml:"commit_within_ms"`
	ConfigSet      string `toml:"config_set"` // template for collection creation
}

// BaseURL returns the root engine URL, e.g. "http://localhost:8983".
func (s *SolrConfig) BaseURL() string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.Host, s.Port)
}

// MultitenancyConfig controls tenant-scoped collection naming.
type MultitenancyConfig struct {
	Enabled      bool   `toml:"enabled"`
	OverrideHost string `toml:"override_host"` // reverse-proxy host URL, if any
	InstanceID   string `toml:"instance_id"`
	TenantID     string `toml:"tenant_id"` // explicit override, wins over derivation
}

// WebhookConfig holds dispatcher-wide delivery settings.
type WebhookConfig struct {
	DefaultTimeoutSeconds int    `toml:"default_timeout_seconds"`
	UserAgent             string `toml:"user_agent"`
	WorkerIntervalSeconds int    `toml:"worker_interval_seconds"`
}

// ChunkingConfig holds text-chunking parameters.
type ChunkingConfig struct {
	ChunkSize        int    `toml:"chunk_size"`
	ChunkOverlap     int    `toml:"chunk_overlap"`
	MinChunkSize     int    `toml:"min_chunk_size"`
	MaxChunksPerFile int    `toml:"max_chunks_per_file"`
	Strategy         string `toml:"strategy"` // "recursive" or "fixed"
}

// RetentionConfig holds data-retention windows in milliseconds.
type RetentionConfig struct {
	ObjectDeleteMS int64 `toml:"object_delete_ms"`
	SearchTrailMS  int64 `toml:"search_trail_ms"`
}

// Config represents the regidx configuration.
type Config struct {
	Solr         SolrConfig         `toml:"solr"`
	Multitenancy MultitenancyConfig `toml:"multitenancy"`
	Webhook      WebhookConfig      `toml:"webhook"`
	Chunking     ChunkingConfig     `toml:"chunking"`
	Retention    RetentionConfig    `toml:"retention"`

	path string // path to .regidx directory
}

// Default returns a Config populated with the documented default values.
func Default() *Config {
	return &Config{
		Solr: SolrConfig{
			Enabled:        true,
			Host:           "localhost",
			Port:           8983,
			Scheme:         "http",
			Core:           "openregister",
			TimeoutSeconds: 30,
			AutoCommit:     false,
			CommitWithinMS: 10000,
			ConfigSet:      "_default",
		},
		Multitenancy: MultitenancyConfig{
			Enabled: false,
		},
		Webhook: WebhookConfig{
			DefaultTimeoutSeconds: 30,
			UserAgent:             "regidx/1.0",
			WorkerIntervalSeconds: 30,
		},
		Chunking: ChunkingConfig{
			ChunkSize:        1000,
			ChunkOverlap:     200,
			MinChunkSize:     100,
			MaxChunksPerFile: 1000,
			Strategy:         "recursive",
		},
		Retention: RetentionConfig{
			ObjectDeleteMS: DefaultObjectDeleteRetentionMS,
			SearchTrailMS:  DefaultSearchTrailRetentionMS,
		},
	}
}

// FindRoot finds the .regidx directory by walking up from the current
// directory.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		p := filepath.Join(dir, RegidxDir)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a regidx workspace (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the .regidx directory. Missing values
// fall back to defaults.
func Load() (*Config, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(root)
}

// LoadFrom loads the configuration from an explicit .regidx directory path.
func LoadFrom(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = root
	return cfg, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(c.path, ConfigFile), data, 0644)
}

// Path returns the path to the .regidx directory.
func (c *Config) Path() string {
	return c.path
}

// DatabasePath returns the path to the SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.path, DatabaseFile)
}

// OutboxPath returns the path to the bbolt retry-outbox database.
func (c *Config) OutboxPath() string {
	return filepath.Join(c.path, OutboxFile)
}

// Initialize creates a new .regidx directory with default configuration.
func Initialize(solrURLHost string, port int) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root := filepath.Join(cwd, RegidxDir)
	if _, err := os.Stat(root); err == nil {
		return nil, fmt.Errorf("regidx workspace already exists")
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", RegidxDir, err)
	}

	cfg := Default()
	cfg.path = root
	if solrURLHost != "" {
		cfg.Solr.Host = solrURLHost
	}
	if port > 0 {
		cfg.Solr.Port = port
	}

	if err := cfg.Save(); err != nil {
		os.RemoveAll(root)
		return nil, err
	}

	return cfg, nil
}
