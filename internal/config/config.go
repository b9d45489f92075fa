// Package config loads brisk settings from defaults, an optional YAML file,
// BRISK_* environment variables and command-line flags, in that order of
// precedence from lowest to highest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lotas/brisk/internal/api"
	"github.com/lotas/brisk/internal/navigate"
	"github.com/lotas/brisk/internal/resolve"
	"github.com/lotas/brisk/internal/types"
)

// Surfaces that can render tabs.
const (
	SurfaceNone      = "none"
	SurfaceExtension = "extension"
	SurfaceChrome    = "chrome"
)

// Config is the effective configuration.
type Config struct {
	APIURL         string        `mapstructure:"api_url" yaml:"api_url"`
	User           string        `mapstructure:"user" yaml:"user"`
	HomeURL        string        `mapstructure:"home_url" yaml:"home_url"`
	Theme          string        `mapstructure:"theme" yaml:"theme"`
	LoadingDelay   time.Duration `mapstructure:"loading_delay" yaml:"-"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"-"`
	Surface        string        `mapstructure:"surface" yaml:"surface"`
	Port           int           `mapstructure:"port" yaml:"port"`
	ChromeHeadless bool          `mapstructure:"chrome_headless" yaml:"chrome_headless"`
	LogDir         string        `mapstructure:"log_dir" yaml:"log_dir"`
	DBPath         string        `mapstructure:"db_path" yaml:"db_path"`
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	CORSOrigins    []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	Features       []string      `mapstructure:"features" yaml:"features"`
}

// DefaultConfigPath returns ~/.config/brisk/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "brisk", "config.yaml"), nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "brisk")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	data := defaultDataDir()
	return Config{
		APIURL:         api.DefaultBaseURL,
		HomeURL:        resolve.HomeURL,
		Theme:          types.DefaultTheme,
		LoadingDelay:   navigate.DefaultLoadingDelay,
		RequestTimeout: 10 * time.Second,
		Surface:        SurfaceNone,
		Port:           19191,
		ChromeHeadless: true,
		LogDir:         data,
		DBPath:         filepath.Join(data, "brisk.db"),
		Addr:           "127.0.0.1:8001",
		CORSOrigins:    []string{"*"},
		Features:       []string{},
	}
}

// YAML renders c for display. Durations are written in their string form.
func (c Config) YAML() (string, error) {
	type view struct {
		Config         `yaml:",inline"`
		LoadingDelay   string `yaml:"loading_delay"`
		RequestTimeout string `yaml:"request_timeout"`
	}
	data, err := yaml.Marshal(view{
		Config:         c,
		LoadingDelay:   c.LoadingDelay.String(),
		RequestTimeout: c.RequestTimeout.String(),
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
