// Package config loads run configuration from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable behavior of a run. The zero value (and Default)
// reproduce the permissive ledger semantics: disputes may be repeated and
// locked accounts remain writable.
type Config struct {
	// StrictDisputes rejects disputes against already-disputed entries.
	StrictDisputes bool `yaml:"strict_disputes"`
	// EnforceLocks rejects all transactions on accounts locked by a chargeback.
	EnforceLocks bool `yaml:"enforce_locks"`
	// Workers caps the number of input streams read concurrently.
	// 0 means one worker per input stream.
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse builds a validated Config from YAML data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	// KnownFields catches typos like strict_dispute instead of silently
	// ignoring them.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		// An empty file is a valid config meaning "all defaults".
		return nil, fmt.Errorf("failed to parse YAML config (check syntax, indentation, and field names): %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}
