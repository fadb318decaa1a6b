package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tickplay/pricing"
)

// Config is the full engine configuration.
type Config struct {
	Store  StoreConfig  `json:"store" yaml:"store"`
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
	Candle CandleConfig `json:"candle" yaml:"candle"`
	Stream StreamConfig `json:"stream" yaml:"stream"`
}

// StoreConfig selects the tick source: a SQLite database path or a
// chunk directory. Exactly one must be usable.
type StoreConfig struct {
	DBPath   string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	ChunkDir string `json:"chunk_dir,omitempty" yaml:"chunk_dir,omitempty"`
}

// CacheConfig sizes the point-lookup window.
type CacheConfig struct {
	Size      int    `json:"size" yaml:"size"`
	Lookback  string `json:"lookback" yaml:"lookback"`   // e.g. "30m"
	Lookahead string `json:"lookahead" yaml:"lookahead"` // e.g. "2h"
}

type CandleConfig struct {
	Interval  string `json:"interval" yaml:"interval"` // "1s", "1m", "5m", ...
	Retention int    `json:"retention" yaml:"retention"`
}

type StreamConfig struct {
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
	Buffer    string `json:"buffer" yaml:"buffer"` // e.g. "60m"
}

func (c CacheConfig) LookbackDuration() (time.Duration, error) {
	return time.ParseDuration(c.Lookback)
}

func (c CacheConfig) LookaheadDuration() (time.Duration, error) {
	return time.ParseDuration(c.Lookahead)
}

func (c StreamConfig) BufferDuration() (time.Duration, error) {
	return time.ParseDuration(c.Buffer)
}

// LoadFromFile loads configuration from a file, YAML first with a JSON
// fallback.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, format chosen by extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Store.DBPath == "" && c.Store.ChunkDir == "" {
		return fmt.Errorf("store.db_path or store.chunk_dir is required")
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive")
	}
	if _, err := c.Cache.LookbackDuration(); err != nil {
		return fmt.Errorf("cache.lookback: %w", err)
	}
	if _, err := c.Cache.LookaheadDuration(); err != nil {
		return fmt.Errorf("cache.lookahead: %w", err)
	}
	if _, err := pricing.ParseInterval(c.Candle.Interval); err != nil {
		return fmt.Errorf("candle.interval: %w", err)
	}
	if c.Candle.Retention <= 0 {
		return fmt.Errorf("candle.retention must be positive")
	}
	if c.Stream.BatchSize <= 0 {
		return fmt.Errorf("stream.batch_size must be positive")
	}
	if _, err := c.Stream.BufferDuration(); err != nil {
		return fmt.Errorf("stream.buffer: %w", err)
	}
	return nil
}

// Default returns a configuration with the engine defaults.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Size:      300_000,
			Lookback:  "30m",
			Lookahead: "2h",
		},
		Candle: CandleConfig{
			Interval:  "1m",
			Retention: 500,
		},
		Stream: StreamConfig{
			BatchSize: 60,
			Buffer:    "60m",
		},
	}
}
