package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. PKSIM_SERVER_PORT.
const EnvPrefix = "PKSIM"

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 10,
	"server.max_request_bytes":        1 << 20,

	"database.url":            "",
	"database.max_open_conns": 25,
	"database.max_idle_conns": 25,

	"auth.jwt_secret":                     "",
	"auth.bcrypt_cost":                    10,
	"auth.token_lifetime_minutes":         60,
	"auth.refresh_token_lifetime_minutes": 10080,

	"task.worker_count": 2,
	"task.queue_size":   100,

	"simulation.max_days":                 180,
	"simulation.max_repeat_interval_days": 60,
	"simulation.max_dose_mg":              10000,
	"simulation.max_regimens":             16,
	"simulation.fetch_timeout_seconds":    5,
	"simulation.workspace_idle_minutes":   60,

	"rate_limit.enabled":  true,
	"rate_limit.rate":     3,
	"rate_limit.capacity": 1000,
}

// Load reads configuration. Precedence, highest first: environment variables,
// a .env file in the working directory, config.yaml, built-in defaults.
// Returns a nil Config when validation fails.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
