// Package config loads the YAML configuration of dango clients.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/blockberries/dango/appconfig"
)

// Config is the configuration of a dango client process.
type Config struct {
	// Node is the node to query.
	Node NodeConfig `yaml:"node"`

	// Cache configures the app-config resolver cache.
	Cache CacheConfig `yaml:"cache"`

	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string `yaml:"log_level"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics"`
}

// NodeConfig contains node connection configuration.
type NodeConfig struct {
	// GRPCAddr is the node's gRPC query endpoint.
	// Format: "host:port" (e.g., "localhost:9090")
	GRPCAddr string `yaml:"grpc_addr"`

	// ChainID is recorded on the client and prefixes its ID. Optional.
	ChainID string `yaml:"chain_id,omitempty"`

	// DialTimeoutSeconds bounds connection establishment.
	DialTimeoutSeconds int64 `yaml:"dial_timeout_seconds"`

	// QueryTimeoutSeconds bounds every single query.
	QueryTimeoutSeconds int64 `yaml:"query_timeout_seconds"`
}

// CacheConfig contains app-config cache configuration.
type CacheConfig struct {
	// MaxKeys caps the number of cached (client, height) registries.
	// Zero leaves the cache unbounded.
	MaxKeys int64 `yaml:"max_keys"`

	// LatestTTLSeconds expires registries cached for the latest height.
	// Zero keeps them until evicted. Historical heights never expire.
	LatestTTLSeconds int64 `yaml:"latest_ttl_seconds"`

	// Dir persists historical registries in a LevelDB database at this
	// path. Empty keeps everything in memory.
	Dir string `yaml:"dir,omitempty"`
}

// MetricsConfig contains Prometheus configuration.
type MetricsConfig struct {
	// Enabled wraps the transport with query metrics.
	Enabled bool `yaml:"enabled"`

	// Addr serves /metrics when set.
	Addr string `yaml:"addr,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{
			GRPCAddr:            "localhost:9090",
			DialTimeoutSeconds:  10,
			QueryTimeoutSeconds: 30,
		},
		LogLevel: "info",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Node.GRPCAddr == "" {
		return fmt.Errorf("node.grpc_addr is required")
	}
	if c.Node.DialTimeoutSeconds <= 0 {
		return fmt.Errorf("node.dial_timeout_seconds must be positive")
	}
	if c.Node.QueryTimeoutSeconds <= 0 {
		return fmt.Errorf("node.query_timeout_seconds must be positive")
	}
	if c.Cache.MaxKeys < 0 {
		return fmt.Errorf("cache.max_keys must not be negative")
	}
	if c.Cache.LatestTTLSeconds < 0 {
		return fmt.Errorf("cache.latest_ttl_seconds must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// DialTimeout returns the dial timeout as a duration.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Node.DialTimeoutSeconds) * time.Second
}

// QueryTimeout returns the per-query timeout as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Node.QueryTimeoutSeconds) * time.Second
}

// Level returns the parsed log level. Call Validate first.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewCache builds the app-config cache described by the cache
// settings. A *appconfig.DiskCache must be closed by the caller.
func (c *Config) NewCache() (appconfig.Cache, error) {
	opts := []appconfig.MemoryCacheOption{appconfig.WithMaxKeys(c.Cache.MaxKeys)}
	if c.Cache.LatestTTLSeconds > 0 {
		opts = append(opts, appconfig.WithLatestTTL(time.Duration(c.Cache.LatestTTLSeconds)*time.Second))
	}
	mem, err := appconfig.NewMemoryCache(opts...)
	if err != nil {
		return nil, err
	}
	if c.Cache.Dir == "" {
		return mem, nil
	}
	return appconfig.OpenDiskCache(c.Cache.Dir, mem)
}

// LoadConfig loads configuration from a YAML file on top of the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
