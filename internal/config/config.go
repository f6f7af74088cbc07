// Package config loads application settings from environment variables
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the API binaries.
type Config struct {
	Server struct {
		Address string `mapstructure:"address"` // listen address, e.g. :8080
	} `mapstructure:"server"`

	Database struct {
		// DSN is the PostgreSQL connection string. Empty runs the API on
		// the in-memory store (demo and test mode).
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Auth struct {
		// BootstrapAdminPassword seeds the primary administrator account
		// on first run. Required when the account does not exist yet.
		BootstrapAdminPassword string `mapstructure:"bootstrap_admin_password"`
	} `mapstructure:"auth"`

	Login struct {
		RatePerMinute int `mapstructure:"rate_per_minute"` // per client IP
		Burst         int `mapstructure:"burst"`
	} `mapstructure:"login"`
}

// Load reads configuration with env overrides (DENTALAB_ prefix, dots
// become underscores) and optional file pointed to by DENTALAB_CONFIG.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("dentalab")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.dsn", "")
	v.SetDefault("auth.bootstrap_admin_password", "")
	v.SetDefault("login.rate_per_minute", 10)
	v.SetDefault("login.burst", 5)

	if cfgFile := os.Getenv("DENTALAB_CONFIG"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dentalab")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("config read error: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if c.Login.RatePerMinute <= 0 || c.Login.Burst <= 0 {
		return errors.New("login rate limits must be positive")
	}
	return nil
}
