// Package config loads the service configuration from the environment.
//
// Values are read from WORKSTATIONS_-prefixed environment variables (a local
// `.env` file is loaded first when present), mapped into the Config struct by
// koanf and validated with go-playground/validator so the process refuses to
// start on missing settings.
//
// Keys use "." for nesting after the prefix is stripped and lower-cased:
//
//	WORKSTATIONS_DATABASE.HOST       -> database.host  -> Config.Database.Host
//	WORKSTATIONS_SERVER.READ_TIMEOUT -> server.read_timeout
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Loads `.env` into the process environment before env vars are read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from every environment variable read by LoadConfig.
const EnvPrefix = "WORKSTATIONS_"

// ServiceName labels logs, traces and metrics emitted by this service.
const ServiceName = "workstations"

// Config is the root configuration object.
//
// Observability is optional; DefaultObservabilityConfig is injected when it
// is not provided.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Jobs          JobsConfig           `koanf:"jobs"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds the runtime environment name ("local", "development",
// "production", ...). "local" turns on SQL query logging.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups HTTP server settings. Timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	// RateLimitRPS and RateLimitBurst size the per-IP token bucket.
	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"gte=0"`
}

func (s *ServerConfig) applyDefaults() {
	if s.RateLimitRPS == 0 {
		s.RateLimitRPS = 20
	}
	if s.RateLimitBurst == 0 {
		s.RateLimitBurst = 40
	}
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
// ConnMaxLifetime and ConnMaxIdleTime are in seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// DSN renders the postgres:// connection string, escaping the password.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		d.User,
		url.QueryEscape(d.Password),
		net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		d.Name,
		d.SSLMode,
	)
}

// RedisConfig contains the Redis address ("host:port") used by the health
// check and the background job queue.
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores the Clerk secret key guarding mutating routes.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// IntegrationConfig holds optional third-party credentials. An empty
// ResendAPIKey or AlertRecipient disables tree-integrity alert e-mails.
type IntegrationConfig struct {
	ResendAPIKey   string `koanf:"resend_api_key"`
	AlertRecipient string `koanf:"alert_recipient" validate:"omitempty,email"`
	EmailFrom      string `koanf:"email_from"`
}

// AlertsEnabled reports whether audit alerts can be e-mailed.
func (i IntegrationConfig) AlertsEnabled() bool {
	return i.ResendAPIKey != "" && i.AlertRecipient != ""
}

// JobsConfig controls the asynq worker running the tree audit.
type JobsConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Concurrency int    `koanf:"concurrency" validate:"omitempty,min=1,max=100"`
	AuditCron   string `koanf:"audit_cron"`
	// AuditUniqueWindow collapses audits enqueued within the window into one.
	AuditUniqueWindow time.Duration `koanf:"audit_unique_window"`
}

func (j *JobsConfig) applyDefaults() {
	if j.Concurrency == 0 {
		j.Concurrency = 5
	}
	if j.AuditCron == "" {
		j.AuditCron = "@every 1h"
	}
	if j.AuditUniqueWindow == 0 {
		j.AuditUniqueWindow = time.Minute
	}
}

// LoadConfig reads the environment, unmarshals it into Config, validates it
// and fills in defaults.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name is fixed and the environment always follows primary.env,
	// whatever was set under observability.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	mainConfig.Server.applyDefaults()
	mainConfig.Jobs.applyDefaults()

	return mainConfig, nil
}
