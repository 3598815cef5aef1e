package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// defaultMapSizeBytes is the KV backend's default mmap size hint.
const defaultMapSizeBytes int64 = 1 << 30

// Config is the ordinalindexd process configuration.
type Config struct {
	// WebsocketPort is the QSS listen port. 0 disables the server.
	WebsocketPort uint16 `yaml:"websocket_port"`
	// DBRoot is the directory containing the KV store (ordinaldb/) and the
	// checkpoint file (ordinal_last_indexed).
	DBRoot string `yaml:"db_root"`
	// MapSizeBytes is the KV backend's map-size hint.
	MapSizeBytes int64 `yaml:"map_size_bytes"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		WebsocketPort: 9944,
		DBRoot:        "./data",
		MapSizeBytes:  defaultMapSizeBytes,
	}
}

// Load reads path as YAML into a Config seeded from Default(), then applies
// any ORDINALINDEX_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ORDINALINDEX_WEBSOCKET_PORT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			cfg.WebsocketPort = uint16(n)
		}
	}
	if v := os.Getenv("ORDINALINDEX_DB_ROOT"); v != "" {
		cfg.DBRoot = v
	}
	if v := os.Getenv("ORDINALINDEX_MAP_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MapSizeBytes = n
		}
	}
}

// Validate checks the fields that must hold for the process to start.
func (c *Config) Validate() error {
	if c.DBRoot == "" {
		return fmt.Errorf("config: db_root must not be empty")
	}
	if c.MapSizeBytes <= 0 {
		return fmt.Errorf("config: map_size_bytes must be positive")
	}
	return nil
}
