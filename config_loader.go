package fntrace

import (
	"fmt"

	"github.com/arloliu/fuda"
)

// LoadConfig loads TelemetryConfig from a YAML or JSON file.
// Environment variables override file values; defaults and validation
// rules come from the struct tags.
func LoadConfig(path string) (*TelemetryConfig, error) {
	var cfg TelemetryConfig
	if err := fuda.LoadFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("fntrace: load config %s: %w", path, err)
	}

	return &cfg, nil
}

// ParseConfig parses TelemetryConfig from YAML or JSON bytes (auto-detected).
// Environment variables override the parsed values.
func ParseConfig(data []byte) (*TelemetryConfig, error) {
	var cfg TelemetryConfig
	if err := fuda.LoadBytes(data, &cfg); err != nil {
		return nil, fmt.Errorf("fntrace: parse config: %w", err)
	}

	return &cfg, nil
}
