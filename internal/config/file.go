package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of an optional run-configuration file. Every
// field is a pointer so an absent key leaves the corresponding Config field
// untouched rather than zeroing it.
type fileConfig struct {
	Transport       *string `yaml:"transport"`
	HTTPAddr        *string `yaml:"httpAddr"`
	HTTPBearerToken *string `yaml:"httpBearerToken"`

	PoolMaxConns        *int32  `yaml:"poolMaxConns"`
	PoolMinConns        *int32  `yaml:"poolMinConns"`
	PoolMaxConnLifetime *string `yaml:"poolMaxConnLifetime"`

	CombinationsPerPass *int     `yaml:"combinationsPerPass"`
	SurpriseThreshold   *float64 `yaml:"surpriseThreshold"`
	ProfileTimeout      *string  `yaml:"profileTimeout"`

	OTelEnabled *bool `yaml:"otelEnabled"`
}

// loadFile reads an optional YAML run-configuration file at path and merges
// it into cfg. Env vars and CLI overrides are applied after this and take
// precedence.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config YAML: %w", err)
	}

	if fc.Transport != nil {
		cfg.Transport = *fc.Transport
	}
	if fc.HTTPAddr != nil {
		cfg.HTTPAddr = *fc.HTTPAddr
	}
	if fc.HTTPBearerToken != nil {
		cfg.HTTPBearerToken = *fc.HTTPBearerToken
	}
	if fc.PoolMaxConns != nil {
		cfg.PoolMaxConns = *fc.PoolMaxConns
	}
	if fc.PoolMinConns != nil {
		cfg.PoolMinConns = *fc.PoolMinConns
	}
	if fc.PoolMaxConnLifetime != nil {
		d, err := time.ParseDuration(*fc.PoolMaxConnLifetime)
		if err != nil {
			return fmt.Errorf("invalid poolMaxConnLifetime %q: %w", *fc.PoolMaxConnLifetime, err)
		}
		cfg.PoolMaxConnLifetime = d
	}
	if fc.CombinationsPerPass != nil {
		if *fc.CombinationsPerPass <= 2 {
			return fmt.Errorf("invalid combinationsPerPass %d: must be > 2", *fc.CombinationsPerPass)
		}
		cfg.CombinationsPerPass = *fc.CombinationsPerPass
	}
	if fc.SurpriseThreshold != nil {
		if *fc.SurpriseThreshold < 0 {
			return fmt.Errorf("invalid surpriseThreshold %v: must be non-negative", *fc.SurpriseThreshold)
		}
		cfg.SurpriseThreshold = *fc.SurpriseThreshold
	}
	if fc.ProfileTimeout != nil {
		d, err := time.ParseDuration(*fc.ProfileTimeout)
		if err != nil {
			return fmt.Errorf("invalid profileTimeout %q: %w", *fc.ProfileTimeout, err)
		}
		cfg.ProfileTimeout = d
	}
	if fc.OTelEnabled != nil {
		cfg.OTelEnabled = *fc.OTelEnabled
	}

	return nil
}
