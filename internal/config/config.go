// Package config loads command line settings with viper. Precedence, high
// to low: flags, TYPOX_* environment variables, the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/typox/internal/engine"
)

// EnvPrefix prefixes environment overrides: TYPOX_DB, TYPOX_LIMITS_MAX_TRIPLES, ...
const EnvPrefix = "TYPOX"

// Config is the CLI configuration.
type Config struct {
	Limits   LimitsConfig      `mapstructure:"limits"`
	DB       string            `mapstructure:"db"`
	Store    string            `mapstructure:"store"`
	Endpoint string            `mapstructure:"endpoint"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Prefixes map[string]string `mapstructure:"prefixes"`
}

// LimitsConfig sets the engine ceilings.
type LimitsConfig struct {
	MaxTriples  int `mapstructure:"max_triples"`
	MaxBindings int `mapstructure:"max_bindings"`
}

// SetDefaults registers every key with its default so environment
// overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("limits.max_triples", engine.DefaultMaxTriples)
	v.SetDefault("limits.max_bindings", engine.DefaultMaxBindings)
	v.SetDefault("db", "typox.db")
	v.SetDefault("store", engine.DefaultStore)
	v.SetDefault("endpoint", "")
	v.SetDefault("timeout", "30s")
	v.SetDefault("prefixes", map[string]string{})
}

// SetupEnv enables TYPOX_ environment overrides.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// New returns a viper instance with defaults and environment applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)
	return v
}

// ReadFile merges the config file at path into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from path (optional) over defaults and the
// environment.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		if err := ReadFile(v, path); err != nil {
			return nil, err
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validating config: %w", errors.Join(errs...))
	}
	return &cfg, nil
}

// Validate returns every problem found, not just the first.
func (c *Config) Validate() []error {
	var errs []error
	if c.Limits.MaxTriples < 0 {
		errs = append(errs, fmt.Errorf("limits.max_triples must be >= 0, got %d", c.Limits.MaxTriples))
	}
	if c.Limits.MaxBindings < 0 {
		errs = append(errs, fmt.Errorf("limits.max_bindings must be >= 0, got %d", c.Limits.MaxBindings))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %s", c.Timeout))
	}
	if c.Endpoint != "" && !IsEndpoint(c.Endpoint) {
		errs = append(errs, fmt.Errorf("endpoint must be an http(s) URL, got %q", c.Endpoint))
	}
	for name, ns := range c.Prefixes {
		if ns == "" {
			errs = append(errs, fmt.Errorf("prefixes.%s: empty namespace", name))
		}
	}
	return errs
}

// IsEndpoint reports whether s names a remote SPARQL endpoint rather than
// a local store.
func IsEndpoint(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// EngineOptions converts the configuration to engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithMaxTriples(c.Limits.MaxTriples),
		engine.WithMaxBindings(c.Limits.MaxBindings),
		engine.WithPrefixes(c.Prefixes),
	}
}
