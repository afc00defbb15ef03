// Package config loads the forwarder's configuration with the same layered
// priority the teacher uses: flags (applied by the caller) override
// RDNS_FORWARDER_* environment variables, which override a YAML file, which
// overrides hardcoded defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every knob this forwarder exposes: spec.md's mandatory
// --resolver/--port plus the supplemental knobs SPEC_FULL.md adds
// (blocklist source, refresh cadence, metrics bind address, pending-forward
// staleness bound).
type Config struct {
	ListenPort int

	UpstreamResolver string

	BlocklistURL             string
	BlocklistFormat          string
	BlocklistRefreshInterval time.Duration

	MetricsAddr string

	PendingForwardTimeout time.Duration

	Logging LoggingConfig
}

// LoggingConfig mirrors the teacher's internal/logging.Config fields.
type LoggingConfig struct {
	Level            string
	Structured       bool
	StructuredFormat string
	IncludePID       bool
}

// Load reads configuration from configPath (if non-empty), environment
// variables under the RDNS_FORWARDER_ prefix, and defaults, then validates
// the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RDNS_FORWARDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		ListenPort:               v.GetInt("server.port"),
		UpstreamResolver:         v.GetString("upstream.resolver"),
		BlocklistURL:             v.GetString("blocklist.url"),
		BlocklistFormat:          v.GetString("blocklist.format"),
		BlocklistRefreshInterval: v.GetDuration("blocklist.refresh_interval"),
		MetricsAddr:              v.GetString("metrics.addr"),
		PendingForwardTimeout:    v.GetDuration("engine.pending_forward_timeout"),
		Logging: LoggingConfig{
			Level:            strings.ToUpper(v.GetString("logging.level")),
			Structured:       v.GetBool("logging.structured"),
			StructuredFormat: v.GetString("logging.structured_format"),
			IncludePID:       v.GetBool("logging.include_pid"),
		},
	}

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 53)
	v.SetDefault("upstream.resolver", "1.1.1.1:53")
	v.SetDefault("blocklist.url", "https://raw.githubusercontent.com/StevenBlack/hosts/master/hosts")
	v.SetDefault("blocklist.format", "auto")
	v.SetDefault("blocklist.refresh_interval", "1h")
	v.SetDefault("metrics.addr", ":3032")
	v.SetDefault("engine.pending_forward_timeout", "5s")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "text")
	v.SetDefault("logging.include_pid", false)
}

func normalize(cfg *Config) error {
	if cfg.ListenPort <= 0 || cfg.ListenPort > 65535 {
		return errors.New("server.port must be 1..65535")
	}
	if cfg.UpstreamResolver == "" {
		return errors.New("upstream.resolver must be set")
	}
	if cfg.BlocklistRefreshInterval <= 0 {
		cfg.BlocklistRefreshInterval = time.Hour
	}
	if cfg.PendingForwardTimeout <= 0 {
		cfg.PendingForwardTimeout = 5 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "text"
	}
	return nil
}
