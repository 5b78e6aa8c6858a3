package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTunables reads the YAML file at path on top of base. Keys missing from the file keep
// their value from base. Durations are written as Go duration strings:
//
//	retry:
//	  retries: 3
//	  timeout: 5s
//	cache:
//	  forecast: 1h
//	rate_limits:
//	  public: {limit: 10, window: 1m}
func LoadTunables(path string, base Tunables) (Tunables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseTunables(data, base)
}

// ParseTunables decodes data on top of base and validates the result.
func ParseTunables(data []byte, base Tunables) (Tunables, error) {
	out := base

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := out.Validate(); err != nil {
		return base, fmt.Errorf("invalid config file: %w", err)
	}
	return out, nil
}
