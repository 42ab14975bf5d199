// Package config provides configuration management for the Thymos insight service.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Insights InsightsConfig `mapstructure:"insights" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents HTTP API server configuration
type ServerConfig struct {
	Port                   int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"required,gt=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// AuthConfig represents identity service configuration. Bearer tokens are
// verified against a GoTrue-compatible endpoint and positive results cached
// briefly.
type AuthConfig struct {
	URL             string `mapstructure:"url" validate:"required,url"`
	ServiceKey      string `mapstructure:"service_key" validate:"required"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// OpenAIConfig represents remote text-generation configuration. An empty API
// key disables the remote strategy entirely; every insight batch then comes
// from the rule-based generator.
type OpenAIConfig struct {
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url" validate:"omitempty,url"`
	Model             string `mapstructure:"model"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" validate:"omitempty,gt=0"`
}

// InsightsConfig represents insight generation and retention configuration
type InsightsConfig struct {
	// PositionSizingThreshold is the fraction of average position size the
	// average per-trade P/L must exceed before a sizing insight fires.
	PositionSizingThreshold float64 `mapstructure:"position_sizing_threshold" validate:"required,gt=0,lt=1"`
	RetentionDays           int     `mapstructure:"retention_days" validate:"required,gt=0"`
	RetentionSchedule       string  `mapstructure:"retention_schedule" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// RemoteGenerationEnabled reports whether the remote strategy can run at all
func (c *Config) RemoteGenerationEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
