package config

import (
	"fmt"
	"slices"

	"github.com/spf13/viper"
)

// Formats are the accepted values for the format key.
var Formats = []string{"yaml", "json", "toml"}

// Config holds all runtime configuration for a scenery session.
// Values are populated from .scenery.yaml, SCENERY_* env vars, and CLI flags.
type Config struct {
	ProjectRoot      string `mapstructure:"project_root"`
	MaxInstanceDepth int    `mapstructure:"max_instance_depth"`
	CacheDocuments   bool   `mapstructure:"cache_documents"`
	Format           string `mapstructure:"format"`
	Indent           int    `mapstructure:"indent"`
	TelemetryPath    string `mapstructure:"telemetry_path"`
	LibraryPath      string `mapstructure:"library_path"`
	WatchDebounceMS  int    `mapstructure:"watch_debounce_ms"`
	Verbose          bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("project_root", ".")
	viper.SetDefault("max_instance_depth", 32)
	viper.SetDefault("cache_documents", false)
	viper.SetDefault("format", "yaml")
	viper.SetDefault("indent", 2)
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("library_path", ".scenery/library.db")
	viper.SetDefault("watch_debounce_ms", 100)
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.MaxInstanceDepth < 1 {
		return fmt.Errorf("config: max_instance_depth must be at least 1, got %d", c.MaxInstanceDepth)
	}
	if c.Indent < 1 || c.Indent > 8 {
		return fmt.Errorf("config: indent must be between 1 and 8, got %d", c.Indent)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("config: unknown format %q (want one of %v)", c.Format, Formats)
	}
	if c.WatchDebounceMS < 0 {
		return fmt.Errorf("config: watch_debounce_ms must not be negative, got %d", c.WatchDebounceMS)
	}
	return nil
}
