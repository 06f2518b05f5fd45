package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName      = ".widgetprops"
	configType      = "yaml"
	envPrefix       = "WIDGETPROPS"
	envKeySeparator = "_"
)

// Config is the contents of .widgetprops.yaml merged with WIDGETPROPS_*
// environment variables and defaults.
type Config struct {
	// CatalogPath is a JSON or YAML catalog. Empty selects the bundled
	// Flutter catalog.
	CatalogPath string `mapstructure:"catalog_path"`
	// ScanProject adds the declarations of the package under analysis to
	// the catalog.
	ScanProject bool `mapstructure:"scan_project"`

	Log   LogConfig   `mapstructure:"log"`
	Edits EditsConfig `mapstructure:"edits"`
	Cache CacheConfig `mapstructure:"cache"`
	Watch WatchConfig `mapstructure:"watch"`
	MCP   MCPConfig   `mapstructure:"mcp"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EditsConfig controls how edits are produced.
type EditsConfig struct {
	Format   bool `mapstructure:"format"`
	Verify   bool `mapstructure:"verify"`
	MaxDepth int  `mapstructure:"max_depth"`
}

// CacheConfig bounds the property registry and the file cache.
type CacheConfig struct {
	MaxProperties int `mapstructure:"max_properties"`
	MaxFiles      int `mapstructure:"max_files"`
	MaxMemoryMB   int `mapstructure:"max_memory_mb"`
}

// WatchConfig configures file watching while serving.
type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMs int  `mapstructure:"debounce_ms"`
}

// Debounce returns the configured debounce period.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	// LogPath receives one JSONL line per tool call. Empty disables it.
	LogPath string `mapstructure:"log_path"`
}

var (
	errInvalidMaxProperties = errors.New("cache.max_properties must be positive")
	errInvalidMaxDepth      = errors.New("edits.max_depth must be positive")
	errInvalidDebounce      = errors.New("watch.debounce_ms must not be negative")
)

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.MaxProperties <= 0 {
		errs = append(errs, errInvalidMaxProperties)
	}
	if c.Edits.MaxDepth <= 0 {
		errs = append(errs, errInvalidMaxDepth)
	}
	if c.Watch.DebounceMs < 0 {
		errs = append(errs, errInvalidDebounce)
	}
	return errors.Join(errs...)
}

// loadConfig reads configPath, or .widgetprops.yaml from the working
// directory or $HOME. A missing file is not an error.
func loadConfig(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("catalog_path", "")
	v.SetDefault("scan_project", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("edits.format", true)
	v.SetDefault("edits.verify", true)
	v.SetDefault("edits.max_depth", 4)

	v.SetDefault("cache.max_properties", 10000)
	v.SetDefault("cache.max_files", 5000)
	v.SetDefault("cache.max_memory_mb", 1024)

	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce_ms", 200)

	v.SetDefault("mcp.log_path", "")
}
