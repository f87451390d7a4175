// Package config loads kit configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// Config is the top level kit configuration
type Config struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// MetricsPort exposes prometheus metrics when non-zero
	MetricsPort int `yaml:"metrics_port" validate:"omitempty,min=1,max=65535"`

	// Providers configures the providers the kit serves
	Providers []types.ProviderConfig `yaml:"providers" validate:"dive"`
}

// envOverrides are applied on top of the file configuration. Provider
// level overrides target the cluster provider, the common single-provider
// deployment.
type envOverrides struct {
	LogLevel     string        `env:"CIM_PROVIDER_LOG_LEVEL"`
	MetricsPort  int           `env:"CIM_PROVIDER_METRICS_PORT"`
	BaseURL      string        `env:"CIM_PROVIDER_BASE_URL"`
	ClientID     string        `env:"CIM_PROVIDER_CLIENT_ID"`
	ClientSecret string        `env:"CIM_PROVIDER_CLIENT_SECRET"`
	TokenURL     string        `env:"CIM_PROVIDER_TOKEN_URL"`
	StatusFile   string        `env:"CIM_PROVIDER_STATUS_FILE"`
	NATSURL      string        `env:"CIM_PROVIDER_NATS_URL"`
	PollInterval time.Duration `env:"CIM_PROVIDER_POLL_INTERVAL"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the configuration used when no file is present: the
// cluster provider monitoring the local cluster manager.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Providers: []types.ProviderConfig{
			{
				Type: types.ProviderTypeCluster,
				Name: types.ProviderNameCluster,
			},
		},
	}
}

// Load reads the configuration file, applies environment overrides and
// validates the result. An empty path yields the default configuration,
// still subject to environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}

		cfg = &Config{LogLevel: "info"}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("could not apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return err
	}

	if overrides.LogLevel != "" {
		c.LogLevel = overrides.LogLevel
	}
	if overrides.MetricsPort != 0 {
		c.MetricsPort = overrides.MetricsPort
	}

	provider := c.Provider(types.ProviderNameCluster)
	if provider == nil {
		return nil
	}

	if overrides.BaseURL != "" {
		provider.BaseURL = overrides.BaseURL
	}
	if overrides.ClientID != "" {
		provider.ClientID = overrides.ClientID
	}
	if overrides.ClientSecret != "" {
		provider.ClientSecret = overrides.ClientSecret
	}
	if overrides.TokenURL != "" {
		provider.TokenURL = overrides.TokenURL
	}
	if overrides.StatusFile != "" {
		provider.StatusFile = overrides.StatusFile
	}
	if overrides.NATSURL != "" {
		provider.Indications.Enabled = true
		provider.Indications.NATSURL = overrides.NATSURL
	}
	if overrides.PollInterval != 0 {
		provider.PollInterval = overrides.PollInterval
	}

	return nil
}

// Validate checks the configuration, including every provider entry
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("invalid configuration: field %s failed %s validation", errs[0].Field(), errs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Providers))
	for _, provider := range c.Providers {
		key := strings.ToLower(provider.Name)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("invalid configuration: duplicate provider name %s", provider.Name)
		}
		seen[key] = struct{}{}
	}

	return nil
}

// Provider returns the configuration entry for the named provider, nil
// when the name is not configured. Names match case-insensitively.
func (c *Config) Provider(name string) *types.ProviderConfig {
	for i := range c.Providers {
		if strings.EqualFold(c.Providers[i].Name, name) {
			return &c.Providers[i]
		}
	}
	return nil
}

// Logger builds a logger at the configured level
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
