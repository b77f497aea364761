// Package config loads betlang.yaml, the project-level configuration
// that lets the CLI carry sensible defaults (codegen target, RNG seed,
// default infer sample count/method) instead of requiring a flag on
// every invocation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type InferConfig struct {
	DefaultSamples int    `yaml:"defaultSamples"`
	Method         string `yaml:"method"`
}

type Config struct {
	Target string       `yaml:"target"`
	Seed   string       `yaml:"seed"`
	Infer  InferConfig  `yaml:"infer"`
}

// Default returns the configuration a project gets with no
// betlang.yaml present at all.
func Default() *Config {
	return &Config{
		Target: "javascript",
		Seed:   "",
		Infer: InferConfig{
			DefaultSamples: 1000,
			Method:         "rejection",
		},
	}
}

// LoadConfig reads and parses a betlang.yaml file at path. A missing
// file is not an error: it yields Default(), so a bare `betlang`
// invocation in a directory with no config still runs.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
