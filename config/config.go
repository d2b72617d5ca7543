// Package config loads the service configuration from YAML or JSON files
// with RR_ environment variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rescueroute/fleetsim/core/sim"
)

// Config is the root service configuration.
type Config struct {
	Simulation sim.Config    `json:"simulation"`
	Metrics    MetricsConfig `json:"metrics"`
}

// Load reads the configuration file at path and applies RR_ environment
// overrides (RR_SIMULATION__SEED=7 sets simulation.seed).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := loadEnv(k); err != nil {
		return nil, err
	}
	return unmarshal(k)
}

// Default returns the configuration built from defaults and RR_ environment
// overrides only, for running without a config file.
func Default() (*Config, error) {
	k := koanf.New(".")
	if err := loadEnv(k); err != nil {
		return nil, err
	}
	return unmarshal(k)
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider("RR_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "rr_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Simulation.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Simulation.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
