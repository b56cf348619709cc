// Package config handles configuration loading and management for tracker.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// Storage backends understood by the persistence layer.
var backends = []string{"csv", "yaml", "sqlite"}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all configuration for tracker.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
	Display DisplayConfig `mapstructure:"display"`
}

// StorageConfig selects where the task store is persisted.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// Path is the storage file. Empty means the XDG data default for Backend.
	Path     string `mapstructure:"path"`
	Autosave bool   `mapstructure:"autosave"`
}

// HistoryConfig holds view-history settings.
type HistoryConfig struct {
	// Limit caps the number of remembered views. Zero is unbounded.
	Limit int `mapstructure:"limit"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DisplayConfig holds CLI rendering settings.
type DisplayConfig struct {
	TimeLayout string `mapstructure:"time_layout"`
	Color      bool   `mapstructure:"color"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TRACKER_STORAGE_BACKEND, TRACKER_LOG_LEVEL, ...)
// 2. Project config (.tracker.yaml in current directory or parent)
// 3. User config (~/.config/tracker/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file. Environment
// variables still override values read from the file.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes the configuration to path, creating parent directories.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage.backend", cfg.Storage.Backend)
	v.Set("storage.path", cfg.Storage.Path)
	v.Set("storage.autosave", cfg.Storage.Autosave)
	v.Set("history.limit", cfg.History.Limit)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("display.time_layout", cfg.Display.TimeLayout)
	v.Set("display.color", cfg.Display.Color)

	return v.WriteConfig()
}

// Validate reports settings that no component can honor.
func (c *Config) Validate() error {
	if !slices.Contains(backends, c.Storage.Backend) {
		return fmt.Errorf("%w: storage.backend %q (want one of %s)",
			ErrInvalid, c.Storage.Backend, strings.Join(backends, ", "))
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("%w: history.limit %d is negative", ErrInvalid, c.History.Limit)
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.Display.TimeLayout == "" {
		return fmt.Errorf("%w: display.time_layout is empty", ErrInvalid)
	}
	return nil
}

// StoragePath returns the configured storage file, or the default data
// file named with ext when no path is set.
func (c *Config) StoragePath(ext string) string {
	if c.Storage.Path != "" {
		return os.ExpandEnv(c.Storage.Path)
	}
	return filepath.Join(getDataDir(), "tasks"+ext)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:  "csv",
			Autosave: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Display: DisplayConfig{
			TimeLayout: "2006-01-02 15:04",
			Color:      true,
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.autosave", d.Storage.Autosave)

	v.SetDefault("history.limit", d.History.Limit)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("display.time_layout", d.Display.TimeLayout)
	v.SetDefault("display.color", d.Display.Color)
}

// getUserConfigDir returns the XDG config directory for tracker.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tracker")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tracker")
	}
	return filepath.Join(home, ".config", "tracker")
}

// getDataDir returns the XDG data directory for tracker.
func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "tracker")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "tracker")
	}
	return filepath.Join(home, ".local", "share", "tracker")
}

// findProjectConfig searches for .tracker.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".tracker.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
