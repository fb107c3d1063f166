// Package config loads the YAML configuration used by cmd/framecursor and by
// any host application that wants file-driven defaults instead of wiring
// DecoderOptions by hand.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level shape of a framecursor YAML config file.
type Config struct {
	LogLevel string       `yaml:"log_level"` // debug, info, warn, error (default: info)
	Decoder  DecoderConfig `yaml:"decoder"`
	Sources  []SourceConfig `yaml:"sources"`
}

// DecoderConfig mirrors videoframe.DecoderOptions in YAML-friendly form.
type DecoderConfig struct {
	BufferLength int    `yaml:"buffer_length"` // frames held per ping/pong buffer (default: 10)
	Type         string `yaml:"type"`          // "software" or "cuda" (default: software)
	OutputHost   bool   `yaml:"output_host"`   // force host-memory output even when Type is cuda
	StreamIndex  int    `yaml:"stream_index"`  // which video stream to decode, 0-based
}

// SourceConfig names one file the CLI should open on startup.
type SourceConfig struct {
	Path  string `yaml:"path"`
	Label string `yaml:"label,omitempty"`
}

// Load reads and parses a YAML configuration file, applying defaults for any
// field the file leaves at its zero value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Decoder.BufferLength <= 0 {
		cfg.Decoder.BufferLength = 10
	}
	if cfg.Decoder.Type == "" {
		cfg.Decoder.Type = "software"
	}
}
