// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (FILESMITH_* and DATABASE_URL)
//  2. Config file (~/.filesmith/config.yaml, or ./config.yaml)
//  3. Default values
//
// Categories:
//   - Store: asset store backend (filesystem or PostgreSQL, see storage.go)
//   - Renderer: the external document rendering service
//   - Server: HTTP listen address, rate limits, proxy trust
//   - OTLP: trace export to a local collector
//
// Security: the PostgreSQL password is masked in MarshalJSON and String;
// the config directory is created with 0750 permissions. Validation is
// fail-fast with sentinel errors checkable via errors.Is (validation.go).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidStoreBackend indicates an unknown asset store backend.
	ErrInvalidStoreBackend = errors.New("invalid store backend")

	// ErrInvalidStoreRoot indicates the filesystem store root is unusable.
	ErrInvalidStoreRoot = errors.New("invalid store root")

	// ErrInvalidRendererURL indicates the rendering service URL is invalid.
	ErrInvalidRendererURL = errors.New("invalid renderer URL")

	// ErrInvalidRenderTimeout indicates the render timeout is out of range.
	ErrInvalidRenderTimeout = errors.New("invalid render timeout")

	// ErrInvalidRateLimit indicates the HTTP rate limit settings are out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Asset store backend identifiers used in Config.StoreBackend.
const (
	BackendFS       = "fs"
	BackendPostgres = "postgres"
)

// OTLPConfig holds trace export configuration. Spans are sent to a local
// OTLP HTTP collector, which handles buffering and forwarding.
type OTLPConfig struct {
	// Enabled turns trace export on. Default: false.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the collector's OTLP HTTP endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Environment is the deployment environment tag.
	Environment string `mapstructure:"environment" json:"environment"`
	// ServiceName is the service name attached to exported spans.
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON. When
// adding new sensitive fields, update MarshalJSON.
type Config struct {
	// Asset store configuration
	StoreBackend string `mapstructure:"store_backend" json:"store_backend"` // "fs" (default) or "postgres"
	StoreRoot    string `mapstructure:"store_root" json:"store_root"`       // fs backend root directory

	// PostgreSQL configuration (postgres backend; see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Rendering service configuration
	RendererURL          string `mapstructure:"renderer_url" json:"renderer_url"`
	RenderTimeoutSeconds int    `mapstructure:"render_timeout_seconds" json:"render_timeout_seconds"`

	// HTTP server configuration (serve mode only)
	Addr       string  `mapstructure:"addr" json:"addr"`
	RateRPS    float64 `mapstructure:"rate_rps" json:"rate_rps"`
	RateBurst  int     `mapstructure:"rate_burst" json:"rate_burst"`
	TrustProxy bool    `mapstructure:"trust_proxy" json:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For (set true behind reverse proxy)

	// Observability configuration
	OTLP OTLPConfig `mapstructure:"otlp" json:"otlp"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".filesmith")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, if set, overrides the individual postgres_* values.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	// Store defaults
	v.SetDefault("store_backend", BackendFS)
	v.SetDefault("store_root", filepath.Join(configDir, "assets"))

	// PostgreSQL defaults (local development database)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "filesmith")
	v.SetDefault("postgres_password", "filesmith_dev_password")
	v.SetDefault("postgres_db_name", "filesmith")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Renderer defaults
	v.SetDefault("renderer_url", "http://localhost:5051")
	v.SetDefault("render_timeout_seconds", 60)

	// Server defaults
	v.SetDefault("addr", "127.0.0.1:3500")
	v.SetDefault("rate_rps", 5.0)
	v.SetDefault("rate_burst", 10)
	v.SetDefault("trust_proxy", false)

	// OTLP defaults
	v.SetDefault("otlp.enabled", false)
	v.SetDefault("otlp.endpoint", "localhost:4318")
	v.SetDefault("otlp.environment", "dev")
	v.SetDefault("otlp.service_name", "filesmith")
}

// bindEnvVariables binds environment variable overrides explicitly.
// DATABASE_URL is handled separately in parseDatabaseURL.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: binding %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("store_backend", "FILESMITH_STORE_BACKEND")
	mustBind("store_root", "FILESMITH_STORE_ROOT")
	mustBind("renderer_url", "FILESMITH_RENDERER_URL")
	mustBind("addr", "FILESMITH_ADDR")
	mustBind("rate_rps", "FILESMITH_RATE_RPS")
	mustBind("rate_burst", "FILESMITH_RATE_BURST")
	mustBind("trust_proxy", "FILESMITH_TRUST_PROXY")
	mustBind("otlp.enabled", "FILESMITH_OTLP_ENABLED")
	mustBind("otlp.endpoint", "FILESMITH_OTLP_ENDPOINT")
	mustBind("otlp.environment", "FILESMITH_OTLP_ENVIRONMENT")
	mustBind("otlp.service_name", "FILESMITH_OTLP_SERVICE_NAME")
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Secrets of 8 characters or
// fewer are fully masked to prevent substring matching; longer secrets
// show the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. Currently masked: PostgresPassword.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
