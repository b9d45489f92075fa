package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lotas/brisk/internal/types"
)

// EnvPrefix prefixes environment overrides, e.g. BRISK_API_URL.
const EnvPrefix = "BRISK"

var keys = []string{
	"api_url", "user", "home_url", "theme", "loading_delay", "request_timeout",
	"surface", "port", "chrome_headless", "log_dir", "db_path", "addr",
	"cors_origins", "features",
}

// Load reads configuration from path (DefaultConfigPath when empty). A
// missing file is not an error. Flags that were set on the command line
// override every other source; a flag named api-url binds to api_url.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("api_url", cfg.APIURL)
	v.SetDefault("user", cfg.User)
	v.SetDefault("home_url", cfg.HomeURL)
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("loading_delay", cfg.LoadingDelay)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("surface", cfg.Surface)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("chrome_headless", cfg.ChromeHeadless)
	v.SetDefault("log_dir", cfg.LogDir)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("cors_origins", cfg.CORSOrigins)
	v.SetDefault("features", cfg.Features)

	// Only flags given on the command line are bound: an unchanged flag's
	// default would otherwise shadow the file and environment.
	if flags != nil {
		var bindErr error
		flags.Visit(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if bindErr == nil && slices.Contains(keys, key) {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return Config{}, bindErr
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL with a host, got %q: %w", c.APIURL, types.ErrValidation)
	}
	if c.LoadingDelay <= 0 {
		return fmt.Errorf("loading_delay must be positive, got %s: %w", c.LoadingDelay, types.ErrValidation)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s: %w", c.RequestTimeout, types.ErrValidation)
	}
	switch c.Surface {
	case SurfaceNone, SurfaceExtension, SurfaceChrome:
	default:
		return fmt.Errorf("unsupported surface %q: %w", c.Surface, types.ErrValidation)
	}
	if !slices.Contains(types.Themes, c.Theme) {
		return fmt.Errorf("unknown theme %q: %w", c.Theme, types.ErrValidation)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d: %w", c.Port, types.ErrValidation)
	}
	for _, f := range c.Features {
		if !KnownFeatures.Contains(f) {
			return fmt.Errorf("unknown feature %q: %w", f, types.ErrValidation)
		}
	}
	return nil
}
