package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// loadYAMLConfig loads operational configuration from YAML files based on the environment.
// It first loads defaults.yaml, then overlays environment-specific configuration
// (local.yaml, nonprod.yaml, or prod.yaml). Missing files are skipped; a nil
// result means nothing was found.
func loadYAMLConfig(env Environment, paths ...string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("defaults")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	found := true
	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to read defaults config: %w", err)
		}
		found = false
	}

	// Determine environment-specific config file
	var envConfigFile string
	switch env {
	case NonProd:
		envConfigFile = "nonprod"
	case Prod:
		envConfigFile = "prod"
	default:
		envConfigFile = "local"
	}

	envViper := viper.New()
	envViper.SetConfigType("yaml")
	envViper.SetConfigName(envConfigFile)
	for _, p := range paths {
		envViper.AddConfigPath(p)
	}

	if err := envViper.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to read %s config: %w", envConfigFile, err)
		}
		if !found {
			return nil, nil
		}
		return v, nil
	}

	// Merge environment-specific config into defaults
	if err := v.MergeConfigMap(envViper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to merge environment config: %w", err)
	}

	return v, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// overlayKey binds a YAML key to the field it sets. The environment variable
// derived from the key takes precedence when it is set.
type overlayKey struct {
	key   string
	apply func(cfg *Config, v *viper.Viper, key string)
}

var overlayKeys = []overlayKey{
	{"server.read_timeout", func(c *Config, v *viper.Viper, k string) { c.Server.ReadTimeout = v.GetDuration(k) }},
	{"server.write_timeout", func(c *Config, v *viper.Viper, k string) { c.Server.WriteTimeout = v.GetDuration(k) }},
	{"server.idle_timeout", func(c *Config, v *viper.Viper, k string) { c.Server.IdleTimeout = v.GetDuration(k) }},
	{"server.shutdown_timeout", func(c *Config, v *viper.Viper, k string) { c.Server.ShutdownTimeout = v.GetDuration(k) }},
	{"api_42.timeout", func(c *Config, v *viper.Viper, k string) { c.API42.Timeout = v.GetDuration(k) }},
	{"api_42.page_size", func(c *Config, v *viper.Viper, k string) { c.API42.PageSize = v.GetInt(k) }},
	{"api_42.max_pages", func(c *Config, v *viper.Viper, k string) { c.API42.MaxPages = v.GetInt(k) }},
	{"metrics.enabled", func(c *Config, v *viper.Viper, k string) { c.Metrics.Enabled = v.GetBool(k) }},
	{"metrics.addr", func(c *Config, v *viper.Viper, k string) { c.Metrics.Addr = v.GetString(k) }},
	{"logging.level", func(c *Config, v *viper.Viper, k string) { c.Logging.Level = v.GetString(k) }},
	{"logging.format", func(c *Config, v *viper.Viper, k string) { c.Logging.Format = v.GetString(k) }},
}

func applyOverlay(cfg *Config, v *viper.Viper) {
	if v == nil {
		return
	}
	for _, ok := range overlayKeys {
		if !v.IsSet(ok.key) {
			continue
		}
		if _, set := os.LookupEnv(envName(ok.key)); set {
			continue
		}
		ok.apply(cfg, v, ok.key)
	}
}

// envName maps "api_42.page_size" to "API_42_PAGE_SIZE".
func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
