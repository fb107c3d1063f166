package config

import "fmt"

// Validate checks a loaded Config for values videoframe cannot recover
// from at open time.
func Validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}

	switch cfg.Decoder.Type {
	case "software", "cuda":
	default:
		return fmt.Errorf("decoder.type must be \"software\" or \"cuda\", got %q", cfg.Decoder.Type)
	}

	if cfg.Decoder.StreamIndex < 0 {
		return fmt.Errorf("decoder.stream_index must be >= 0, got %d", cfg.Decoder.StreamIndex)
	}

	for i, src := range cfg.Sources {
		if src.Path == "" {
			return fmt.Errorf("sources[%d]: path is required", i)
		}
	}

	return nil
}
