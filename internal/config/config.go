package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database connection.
	DatabaseURL string

	// Logging.
	LogLevel slog.Level

	// Transport.
	Transport       string // "stdio" (default) or "http"
	HTTPAddr        string // listen address for HTTP transport (default ":8080")
	HTTPBearerToken string // required when transport=http

	// Connection pool.
	PoolMaxConns        int32         // default: 5
	PoolMinConns        int32         // default: 1
	PoolMaxConnLifetime time.Duration // default: 30m

	// Profiler tuning, per domain.Option.
	CombinationsPerPass int           // default: 100
	SurpriseThreshold   float64       // default: 0.3
	ProfileTimeout      time.Duration // default: 2m

	// Observability.
	OTelEnabled bool // enable OpenTelemetry tracing and metrics
}

// Overrides holds CLI-flag values layered on top of the YAML file and
// environment variables. A nil pointer field means "flag not passed" —
// the underlying value is left untouched.
type Overrides struct {
	ConfigFile *string

	DatabaseURL *string
	LogLevel    *string

	Transport       *string
	HTTPAddr        *string
	HTTPBearerToken *string

	PoolMaxConns        *int32
	PoolMinConns        *int32
	PoolMaxConnLifetime *time.Duration

	CombinationsPerPass *int
	SurpriseThreshold   *float64
	ProfileTimeout      *time.Duration

	OTelEnabled bool
}

// Load builds a Config from environment variables (plus the YAML file named
// by CONFIG_FILE, if set) and validates the result. Most callers that don't need CLI-flag overrides use this.
func Load() (*Config, error) {
	return LoadWithOverrides(Overrides{})
}

// LoadWithOverrides layers a YAML file (if configured), environment
// variables, and finally CLI-flag overrides — in that order, each one
// taking precedence over the last — onto the default Config.
func LoadWithOverrides(overrides Overrides) (*Config, error) {
	cfg := defaults()

	path := os.Getenv("CONFIG_FILE")
	if overrides.ConfigFile != nil {
		path = *overrides.ConfigFile
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}

	applyOverrides(cfg, overrides)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Transport:           "stdio",
		HTTPAddr:            ":8080",
		PoolMaxConns:        5,
		PoolMinConns:        1,
		PoolMaxConnLifetime: 30 * time.Minute,
		CombinationsPerPass: 100,
		SurpriseThreshold:   0.3,
		ProfileTimeout:      2 * time.Minute,
	}
}

// loadEnvVars reads all supported environment variables into cfg.
func loadEnvVars(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("HTTP_BEARER_TOKEN"); v != "" {
		cfg.HTTPBearerToken = v
	}

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED value %q: %w", v, err)
		}
		cfg.OTelEnabled = b
	}

	if v := os.Getenv("COMBINATIONS_PER_PASS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 2 {
			return fmt.Errorf("invalid COMBINATIONS_PER_PASS value %q: must be an integer > 2", v)
		}
		cfg.CombinationsPerPass = n
	}

	if v := os.Getenv("SURPRISE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid SURPRISE_THRESHOLD value %q: must be a non-negative number", v)
		}
		cfg.SurpriseThreshold = f
	}

	if v := os.Getenv("PROFILE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PROFILE_TIMEOUT value %q: %w", v, err)
		}
		cfg.ProfileTimeout = d
	}

	if err := loadPoolEnvVars(cfg); err != nil {
		return err
	}

	return nil
}

// loadPoolEnvVars reads connection pool environment variables.
func loadPoolEnvVars(cfg *Config) error {
	if v := os.Getenv("POOL_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid POOL_MAX_CONNS value %q: must be a positive integer", v)
		}
		cfg.PoolMaxConns = int32(n)
	}
	if v := os.Getenv("POOL_MIN_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid POOL_MIN_CONNS value %q: must be a non-negative integer", v)
		}
		cfg.PoolMinConns = int32(n)
	}
	if v := os.Getenv("POOL_MAX_CONN_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POOL_MAX_CONN_LIFETIME value %q: %w", v, err)
		}
		cfg.PoolMaxConnLifetime = d
	}
	return nil
}

// applyOverrides layers non-nil Overrides fields onto cfg, last and
// highest-precedence.
func applyOverrides(cfg *Config, o Overrides) {
	if o.DatabaseURL != nil {
		cfg.DatabaseURL = *o.DatabaseURL
	}
	if o.LogLevel != nil {
		if level, err := parseLogLevel(*o.LogLevel); err == nil {
			cfg.LogLevel = level
		}
	}
	if o.Transport != nil {
		cfg.Transport = *o.Transport
	}
	if o.HTTPAddr != nil {
		cfg.HTTPAddr = *o.HTTPAddr
	}
	if o.HTTPBearerToken != nil {
		cfg.HTTPBearerToken = *o.HTTPBearerToken
	}
	if o.PoolMaxConns != nil {
		cfg.PoolMaxConns = *o.PoolMaxConns
	}
	if o.PoolMinConns != nil {
		cfg.PoolMinConns = *o.PoolMinConns
	}
	if o.PoolMaxConnLifetime != nil {
		cfg.PoolMaxConnLifetime = *o.PoolMaxConnLifetime
	}
	if o.CombinationsPerPass != nil {
		cfg.CombinationsPerPass = *o.CombinationsPerPass
	}
	if o.SurpriseThreshold != nil {
		cfg.SurpriseThreshold = *o.SurpriseThreshold
	}
	if o.ProfileTimeout != nil {
		cfg.ProfileTimeout = *o.ProfileTimeout
	}
	if o.OTelEnabled {
		cfg.OTelEnabled = true
	}
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid TRANSPORT value %q: must be \"stdio\" or \"http\"", cfg.Transport)
	}

	if cfg.Transport == "http" && cfg.HTTPBearerToken == "" {
		return fmt.Errorf("HTTP_BEARER_TOKEN is required when TRANSPORT is \"http\"")
	}

	if cfg.PoolMinConns > cfg.PoolMaxConns {
		return fmt.Errorf("POOL_MIN_CONNS (%d) must not exceed POOL_MAX_CONNS (%d)", cfg.PoolMinConns, cfg.PoolMaxConns)
	}

	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
