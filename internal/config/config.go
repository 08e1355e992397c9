package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// APIConfig holds connection settings for the storefront API.
type APIConfig struct {
	URL         string `toml:"url"`
	Timeout     string `toml:"timeout"`
	HTTP2       bool   `toml:"http2"`
	RefreshPath string `toml:"refresh_path"`
}

// LocaleConfig holds the persisted language preference.
type LocaleConfig struct {
	Lang      string   `toml:"lang"`
	Supported []string `toml:"supported"`
}

// ExclusionConfig adjusts the stock list of paths that never receive the lang parameter.
type ExclusionConfig struct {
	Extra   []string `toml:"extra"`
	Removed []string `toml:"removed"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// SessionConfig controls where session cookies are kept between runs.
type SessionConfig struct {
	CookieFile string `toml:"cookie_file"`
}

// Config holds all shopdeck configuration.
type Config struct {
	API        APIConfig       `toml:"api"`
	Locale     LocaleConfig    `toml:"locale"`
	Exclusions ExclusionConfig `toml:"exclusions"`
	Log        LogConfig       `toml:"log"`
	Session    SessionConfig   `toml:"session"`
}

const (
	defaultTimeout     = 30 * time.Second
	defaultRefreshPath = "/auth/refresh-token"
	defaultLang        = "en"
)

var defaultSupported = []string{"en", "vi"}

// TimeoutOrDefault returns the parsed API timeout, or 30s when unset or invalid.
func (c Config) TimeoutOrDefault() time.Duration {
	if c.API.Timeout == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

// RefreshPathOrDefault returns the refresh endpoint path.
func (c Config) RefreshPathOrDefault() string {
	if c.API.RefreshPath != "" {
		return c.API.RefreshPath
	}
	return defaultRefreshPath
}

// LangOrDefault returns the persisted language, or "en".
func (c Config) LangOrDefault() string {
	if c.Locale.Lang != "" {
		return c.Locale.Lang
	}
	return defaultLang
}

// SupportedOrDefault returns the languages the user can cycle through.
func (c Config) SupportedOrDefault() []string {
	if len(c.Locale.Supported) > 0 {
		return c.Locale.Supported
	}
	return defaultSupported
}

// CookieFileOrDefault returns the cookie file path, next to the config file by default.
func (c Config) CookieFileOrDefault() string {
	if c.Session.CookieFile != "" {
		return c.Session.CookieFile
	}
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "cookies.toml")
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns an empty config without error.
// Environment variables always take precedence over file values:
//   - SHOPDECK_API_URL   overrides api.url
//   - SHOPDECK_LANG      overrides locale.lang
//   - SHOPDECK_LOG_LEVEL overrides log.level
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// DefaultConfigPath returns the default path for the shopdeck config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.config/shopdeck/config.toml"
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHOPDECK_API_URL"); v != "" {
		cfg.API.URL = v
	}
	if v := os.Getenv("SHOPDECK_LANG"); v != "" {
		cfg.Locale.Lang = v
	}
	if v := os.Getenv("SHOPDECK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}

// LangSaver returns a function that stores a language preference into the
// config file at path, leaving the other settings untouched.
func LangSaver(path string) func(string) error {
	return func(lang string) error {
		var onDisk Config
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &onDisk); err != nil {
				return fmt.Errorf("reading config file: %w", err)
			}
		}
		onDisk.Locale.Lang = lang
		return Save(path, onDisk)
	}
}
