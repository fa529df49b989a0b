// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the corpus
// generator.
//
// Configuration is loaded from a single YAML file passed via the
// --config flag. There are no fallbacks or automatic discovery: runs
// must be reproducible from the command line alone, so every input is
// either a flag or an explicitly named file.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Engine names the archive construction mechanism.
type Engine string

const (
	// EngineTool shells out to the standard external utilities. This
	// is the default: corpus artifacts should match what stock
	// archivers emit.
	EngineTool Engine = "tool"
	// EngineNative builds supported families in-process; families
	// without an in-process encoder still use the external tool.
	EngineNative Engine = "native"
)

// Config is the full generator configuration.
type Config struct {
	// Seed feeds the PRNG for staged binary payloads. Fixed default
	// so unconfigured runs are repeatable.
	Seed uint64 `yaml:"seed"`

	// Engine selects tool-backed or native construction.
	Engine Engine `yaml:"engine"`

	// Password protects encrypted.zip. Recorded in the manifest.
	Password string `yaml:"password"`

	// BinarySizeKB is the size of the moderate staged blob.
	BinarySizeKB int64 `yaml:"binary_size_kb"`

	// LargeSizeMB is the size of the large staged blob.
	LargeSizeMB int64 `yaml:"large_size_mb"`

	// BombSizeMB is the size of the uniform-byte bomb-candidate
	// input before compression.
	BombSizeMB int64 `yaml:"bomb_size_mb"`

	// KeepStaging skips the cleanup stage, leaving the staged tree
	// and scratch directories in place for inspection.
	KeepStaging bool `yaml:"keep_staging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Seed:         1,
		Engine:       EngineTool,
		Password:     "secret",
		BinarySizeKB: 4,
		LargeSizeMB:  5,
		BombSizeMB:   50,
	}
}

// Load reads path and overlays it on the defaults. Unknown fields are
// rejected so typos fail loudly instead of silently reverting to
// defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	configuration := Default()
	// yaml.v3 exposes strict decoding only through the decoder form.
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(configuration); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return configuration, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineTool, EngineNative:
	default:
		return fmt.Errorf("engine must be %q or %q, got %q", EngineTool, EngineNative, c.Engine)
	}
	if c.Password == "" {
		return fmt.Errorf("password must not be empty")
	}
	for _, size := range []struct {
		name  string
		value int64
	}{
		{"binary_size_kb", c.BinarySizeKB},
		{"large_size_mb", c.LargeSizeMB},
		{"bomb_size_mb", c.BombSizeMB},
	} {
		if size.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", size.name, size.value)
		}
	}
	return nil
}
