// Package config loads hopper's runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Config holds the knobs a conversion run falls back to when the caller does
// not supply explicit values.
type Config struct {
	// DataDir is the directory raw dataset files are looked up in when no
	// --directory is given.
	DataDir string `mapstructure:"data_dir"`

	// Format is the artifact format written when the output path carries no
	// recognized extension (parquet, arrow, jsonl, duckdb).
	Format string `mapstructure:"format"`

	// BatchSize is the number of rows per record batch.
	BatchSize int64 `mapstructure:"batch_size"`
}

var (
	mu     sync.RWMutex
	active *Config
)

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := os.Getenv("HOPPER_DATA_DIR")
	if dataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(home, ".hopper", "data")
		} else {
			dataDir = "data"
		}
	}
	return &Config{
		DataDir:   dataDir,
		Format:    "parquet",
		BatchSize: 4096,
	}
}

// Load reads configuration from the given file path, or from ~/.hopper.yaml
// when path is empty, layered over the defaults. A missing file is not an
// error; the defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HOPPER")
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("batch_size", defaults.BatchSize)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".hopper")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		// Absence of the default lookup file is fine; an explicit --config
		// that cannot be read, or a malformed file, is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values no conversion can run with.
func (c *Config) Validate() error {
	switch c.Format {
	case "parquet", "arrow", "jsonl", "duckdb":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// Active returns the configuration in effect, falling back to Default.
func Active() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if active == nil {
		return Default()
	}
	return active
}

// SetActive installs the configuration used by subsequent conversions.
func SetActive(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	active = cfg
}
