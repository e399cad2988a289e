// Package config loads process configuration from the environment,
// grounded on noah-isme-sma-adp-api's pkg/config viper-based loader.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the small set of environment-driven defaults the CLI
// falls back to when a flag is not explicitly set.
type Config struct {
	LogLevel    string
	DatabaseDSN string
}

// Load reads MASTERSCHEDULE_-prefixed environment variables (and a
// .env file, if present) into a Config, applying defaults for anything
// unset.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("MASTERSCHEDULE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DSN", "")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // absence of a .env file is not an error

	return &Config{
		LogLevel:    v.GetString("LOG_LEVEL"),
		DatabaseDSN: v.GetString("DATABASE_DSN"),
	}
}
