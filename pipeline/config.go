package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full engine configuration.
type Config struct {
	DBPath      string `yaml:"db_path"`
	BlobDir     string `yaml:"blob_dir"`
	InboxDir    string `yaml:"inbox_dir"`
	CatalogPath string `yaml:"catalog_path"` // empty means the embedded catalogue
	Workers     int    `yaml:"workers"`
	BatchSize   int    `yaml:"batch_size"`
	Listen      string `yaml:"listen"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:    "carelog.db",
		BlobDir:   "blobs",
		InboxDir:  "inbox",
		Workers:   4,
		BatchSize: 100,
		Listen:    ":8086",
		LogLevel:  "info",
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig
// merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.BlobDir == "" {
		return fmt.Errorf("blob_dir is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q (use debug, info, warn or error)", c.LogLevel)
	}
	return nil
}
