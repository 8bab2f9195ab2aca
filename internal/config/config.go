package config

import (
	"time"

	"github.com/phrazzld/pksim-api/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Task       TaskConfig       `mapstructure:"task" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	ShutdownTimeoutSeconds int   `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
	MaxRequestBytes        int64 `mapstructure:"max_request_bytes" validate:"gte=1024"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"gtfield=TokenLifetimeMinutes"`
}

// TokenLifetime is the access token lifetime.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// TaskConfig sizes the background task runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=1"`
}

// SimulationConfig bounds regimen inputs and personalization work.
type SimulationConfig struct {
	MaxDays               int     `mapstructure:"max_days" validate:"gte=1"`
	MaxRepeatIntervalDays int     `mapstructure:"max_repeat_interval_days" validate:"gte=1"`
	MaxDoseMg             float64 `mapstructure:"max_dose_mg" validate:"gt=0"`
	MaxRegimens           int     `mapstructure:"max_regimens" validate:"gte=1"`
	FetchTimeoutSeconds   int     `mapstructure:"fetch_timeout_seconds" validate:"gte=1"`
	WorkspaceIdleMinutes  int     `mapstructure:"workspace_idle_minutes" validate:"gte=1"`
}

// Limits converts the bounds to domain limits.
func (c SimulationConfig) Limits() domain.RegimenLimits {
	return domain.RegimenLimits{
		MaxSimulationDays:     c.MaxDays,
		MaxRepeatIntervalDays: c.MaxRepeatIntervalDays,
		MaxDoseMg:             c.MaxDoseMg,
	}
}

// FetchTimeout bounds one observation fetch.
func (c SimulationConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// WorkspaceIdle is how long an untouched workspace is kept in memory.
func (c SimulationConfig) WorkspaceIdle() time.Duration {
	return time.Duration(c.WorkspaceIdleMinutes) * time.Minute
}

// RateLimitConfig controls the per-client token buckets.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Rate is the refill in tokens per second.
	Rate     float64 `mapstructure:"rate" validate:"gt=0"`
	Capacity int64   `mapstructure:"capacity" validate:"gte=1"`
}
