package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file and expands environment variables.
// An empty path yields an empty config.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config, applies overrides in order, then fills
// defaults for whatever is still unset.
func LoadWithDefaults(path string, overrides ...func(*Config)) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
