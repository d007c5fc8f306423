// Package config provides configuration loading for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/insight-ledger/internal/common"
)

// Data source selection values.
const (
	SourceRemote = "remote"
	SourceSample = "sample"
)

// Config carries the resolved application configuration.
type Config struct {
	APIBaseURL       string
	DataSource       string
	CacheDBPath      string
	SessionStatePath string
	RequestTimeout   time.Duration
}

// SetDefaults registers default values on viper. Call before Load.
func SetDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8000/api")
	viper.SetDefault("api.timeout", "30s")
	viper.SetDefault("data.source", SourceRemote)
	viper.SetDefault("cache.path", "~/.local/share/ledger/cache.db")
	viper.SetDefault("session.path", "~/.local/share/ledger/session.json")
}

// Load resolves configuration from viper (config file, LEDGER_* env
// vars, bound flags) into a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:       viper.GetString("api.base_url"),
		DataSource:       viper.GetString("data.source"),
		CacheDBPath:      ExpandPath(viper.GetString("cache.path")),
		SessionStatePath: ExpandPath(viper.GetString("session.path")),
		RequestTimeout:   viper.GetDuration("api.timeout"),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("%w: api.base_url is required", common.ErrMissingConfig)
	}
	if cfg.DataSource != SourceRemote && cfg.DataSource != SourceSample {
		return nil, fmt.Errorf("%w: data.source must be %q or %q, got %q",
			common.ErrInvalidConfig, SourceRemote, SourceSample, cfg.DataSource)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return cfg, nil
}

// ExpandPath expands a leading ~ and $VAR environment references in a
// file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
