// Package config loads semchunk settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/sevigo/semchunk/schema"
)

// ErrInvalidConfig is returned by Validate and Load for out-of-range values.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for the chunker and the indexing pipeline.
type Config struct {
	Chunking schema.ChunkingOptions `yaml:"chunking"`
	Indexing IndexingConfig         `yaml:"indexing"`
	Log      LogConfig              `yaml:"log"`
}

// IndexingConfig holds indexing pipeline configuration.
type IndexingConfig struct {
	Workers     int           `yaml:"workers"`      // 0 means one per CPU
	FileTimeout time.Duration `yaml:"file_timeout"` // 0 disables the limit
	Include     []string      `yaml:"include"`
	Exclude     []string      `yaml:"exclude"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: schema.ChunkingOptions{
			ChunkSize:     1500,
			ChunkOverlap:  200,
			MaxFileSize:   1 << 20,
			IndexComments: true,
		},
		Indexing: IndexingConfig{
			Workers:     0,
			FileTimeout: 30 * time.Second,
			Exclude:     []string{"**/*.min.js", "**/*.lock"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. Keys absent from the file keep
// their defaults; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir looks for semchunk.yaml, then .semchunk/config.yaml, in dir.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"semchunk.yaml", filepath.Join(".semchunk", "config.yaml")} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return DefaultConfig(), nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first out-of-range value, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	ch := c.Chunking
	switch {
	case ch.ChunkSize <= 0:
		return fmt.Errorf("%w: chunking.chunk_size must be positive, got %d", ErrInvalidConfig, ch.ChunkSize)
	case ch.ChunkOverlap < 0 || ch.ChunkOverlap >= ch.ChunkSize:
		return fmt.Errorf("%w: chunking.chunk_overlap must be in [0, %d), got %d", ErrInvalidConfig, ch.ChunkSize, ch.ChunkOverlap)
	case ch.MaxFileSize < 0:
		return fmt.Errorf("%w: chunking.max_file_size must not be negative", ErrInvalidConfig)
	case c.Indexing.Workers < 0:
		return fmt.Errorf("%w: indexing.workers must not be negative", ErrInvalidConfig)
	case c.Indexing.FileTimeout < 0:
		return fmt.Errorf("%w: indexing.file_timeout must not be negative", ErrInvalidConfig)
	}

	for _, pattern := range append(append([]string{}, c.Indexing.Include...), c.Indexing.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad glob %q", ErrInvalidConfig, pattern)
		}
	}

	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, l.Level)
	}
	return level, nil
}

// NewLogger builds a slog.Logger writing to w with the configured level and
// format.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
