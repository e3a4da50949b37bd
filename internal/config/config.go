// Package config provides configuration management for the logtime gateway.
// It supports environment variable-based configuration with validation and
// default values, optionally overlaid by YAML files for operational settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// MinPortNumber is the minimum valid port number.
	MinPortNumber = 1
	// MaxPortNumber is the maximum valid port number.
	MaxPortNumber = 65535
	// MaxPageSize is the largest page the school API accepts.
	MaxPageSize = 100
)

// DefaultConfigPaths are searched, in order, for the YAML overlay files.
var DefaultConfigPaths = []string{"./configs", "../configs", "../../configs"}

// Config represents the complete configuration for the gateway, aggregating
// all component-specific configurations.
type Config struct {
	// Environment holds environment-specific settings.
	Environment EnvironmentConfig `envconfig:"ENVIRONMENT"`
	// Server contains HTTP server configuration including ports and timeouts.
	Server ServerConfig `envconfig:"SERVER"`
	// API42 contains the school API application credentials and client tuning.
	API42 API42Config `envconfig:"API_42"`
	// Metrics contains the ops listener configuration.
	Metrics MetricsConfig `envconfig:"METRICS"`
	// Logging contains logging configuration.
	Logging LoggingConfig `envconfig:"LOGGING"`
}

type Environment string

const (
	Local   Environment = "LOCAL"
	NonProd Environment = "NONPROD"
	Prod    Environment = "PROD"
)

// EnvironmentConfig holds environment-specific settings.
type EnvironmentConfig struct {
	// Environment indicates the current running environment (LOCAL, NONPROD, PROD).
	Environment Environment `envconfig:"ENV" default:"LOCAL"`
}

// ServerConfig holds HTTP server configuration including network settings,
// timeouts, and TLS certificate paths.
type ServerConfig struct {
	// Port is the HTTP server listening port.
	Port int `envconfig:"PORT"             default:"5001"`
	// Host is the network interface to bind to.
	Host string `envconfig:"HOST"             default:"0.0.0.0"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"     default:"15s"`
	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT"    default:"30s"`
	// IdleTimeout is the maximum amount of time to wait for keep-alive connections.
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT"     default:"60s"`
	// ShutdownTimeout is the maximum time to wait for graceful server shutdown.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// TLSCert is the path to the TLS certificate file for HTTPS.
	TLSCert string `envconfig:"TLS_CERT"`
	// TLSKey is the path to the TLS private key file for HTTPS.
	TLSKey string `envconfig:"TLS_KEY"`
}

// API42Config holds the registered application credentials used for the
// authorization-code exchange and the tuning of upstream calls.
type API42Config struct {
	// UID is the application client id.
	UID string `envconfig:"UID"          required:"true"`
	// Secret is the application client secret.
	Secret string `envconfig:"SECRET"       required:"true"`
	// RedirectURI must match the URI registered for the application.
	RedirectURI string `envconfig:"REDIRECT_URI" required:"true"`
	// URI is the UI origin, the only origin allowed to call the gateway.
	URI string `envconfig:"URI"          required:"true"`
	// BaseURL is the school API root.
	BaseURL string `envconfig:"BASE_URL"     default:"https://api.intra.42.fr"`
	// Timeout bounds each upstream call.
	Timeout time.Duration `envconfig:"TIMEOUT"      default:"10s"`
	// PageSize is the page[size] sent when listing locations.
	PageSize int `envconfig:"PAGE_SIZE"    default:"100"`
	// MaxPages caps the number of location pages fetched per request.
	MaxPages int `envconfig:"MAX_PAGES"    default:"10"`
}

// MetricsConfig controls the ops listener serving metrics and health probes.
type MetricsConfig struct {
	Enabled bool   `envconfig:"ENABLED" default:"true"`
	Addr    string `envconfig:"ADDR"    default:":9101"`
	Path    string `envconfig:"PATH"    default:"/metrics"`
}

// LoggingConfig contains logging configuration including
// log level, format, and output destination.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `envconfig:"LEVEL"  default:"info"`
	// Format is the log output format (json, text).
	Format string `envconfig:"FORMAT" default:"json"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `envconfig:"OUTPUT" default:"stdout"`
}

// Load reads configuration from environment variables, overlays the YAML
// files found under DefaultConfigPaths and returns a validated Config.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPaths...)
}

// LoadFrom is Load with explicit YAML search paths.
func LoadFrom(paths ...string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	overlay, err := loadYAMLConfig(cfg.Environment.Environment, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration files: %w", err)
	}
	applyOverlay(&cfg, overlay)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port < MinPortNumber || c.Server.Port > MaxPortNumber {
		return errors.New("server port must be between 1 and 65535")
	}

	if c.API42.UID == "" || c.API42.Secret == "" {
		return errors.New("API_42_UID and API_42_SECRET are required")
	}

	if c.API42.RedirectURI == "" {
		return errors.New("API_42_REDIRECT_URI is required")
	}

	if err := validateAbsoluteURL("API_42_URI", c.API42.URI); err != nil {
		return err
	}

	if err := validateAbsoluteURL("API_42_BASE_URL", c.API42.BaseURL); err != nil {
		return err
	}

	if c.API42.Timeout <= 0 {
		return errors.New("API_42_TIMEOUT must be positive")
	}

	if c.API42.PageSize < 1 || c.API42.PageSize > MaxPageSize {
		return fmt.Errorf("API_42_PAGE_SIZE must be between 1 and %d", MaxPageSize)
	}

	if c.API42.MaxPages < 1 {
		return errors.New("API_42_MAX_PAGES must be at least 1")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("METRICS_ADDR is required when metrics are enabled")
	}

	return nil
}

func validateAbsoluteURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", name)
	}
	return nil
}

// AllowedOrigin returns the single CORS origin, the scheme and host of
// API_42_URI.
func (c *Config) AllowedOrigin() string {
	u, err := url.Parse(c.API42.URI)
	if err != nil || u.Host == "" {
		return strings.TrimRight(c.API42.URI, "/")
	}
	return u.Scheme + "://" + u.Host
}

// ServerAddr returns the formatted server address string in host:port format.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsTLSEnabled returns true if both TLS certificate and key paths are configured.
func (c *Config) IsTLSEnabled() bool {
	return c.Server.TLSCert != "" && c.Server.TLSKey != ""
}
