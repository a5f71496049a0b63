package config

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"ProjectRoot", cfg.ProjectRoot, "."},
		{"MaxInstanceDepth", cfg.MaxInstanceDepth, 32},
		{"CacheDocuments", cfg.CacheDocuments, false},
		{"Format", cfg.Format, "yaml"},
		{"Indent", cfg.Indent, 2},
		{"TelemetryPath", cfg.TelemetryPath, ""},
		{"LibraryPath", cfg.LibraryPath, ".scenery/library.db"},
		{"WatchDebounceMS", cfg.WatchDebounceMS, 100},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetViper()

	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "project_root",
			envKey: "SCENERY_PROJECT_ROOT",
			envVal: "/srv/game",
			field:  func(c Config) any { return c.ProjectRoot },
			want:   "/srv/game",
		},
		{
			name:   "max_instance_depth",
			envKey: "SCENERY_MAX_INSTANCE_DEPTH",
			envVal: "8",
			field:  func(c Config) any { return c.MaxInstanceDepth },
			want:   8,
		},
		{
			name:   "cache_documents",
			envKey: "SCENERY_CACHE_DOCUMENTS",
			envVal: "true",
			field:  func(c Config) any { return c.CacheDocuments },
			want:   true,
		},
		{
			name:   "format",
			envKey: "SCENERY_FORMAT",
			envVal: "toml",
			field:  func(c Config) any { return c.Format },
			want:   "toml",
		},
		{
			name:   "indent",
			envKey: "SCENERY_INDENT",
			envVal: "4",
			field:  func(c Config) any { return c.Indent },
			want:   4,
		},
		{
			name:   "verbose",
			envKey: "SCENERY_VERBOSE",
			envVal: "true",
			field:  func(c Config) any { return c.Verbose },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			// Set env prefix so SCENERY_* env vars map to config keys.
			viper.SetEnvPrefix("SCENERY")
			viper.AutomaticEnv()

			os.Setenv(tt.envKey, tt.envVal)
			defer os.Unsetenv(tt.envKey)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key     string
		value   any
		wantErr string
	}{
		{"max_instance_depth", 0, "max_instance_depth"},
		{"indent", 9, "indent"},
		{"indent", 0, "indent"},
		{"format", "xml", "unknown format"},
		{"watch_debounce_ms", -5, "watch_debounce_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetViper()
			viper.Set(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() with %s=%v: expected error", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_DefaultsAreNotZero(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ProjectRoot == "" {
		t.Error("ProjectRoot should not be empty")
	}
	if cfg.LibraryPath == "" {
		t.Error("LibraryPath should not be empty")
	}
	if cfg.MaxInstanceDepth == 0 {
		t.Error("MaxInstanceDepth should not be zero")
	}
	if cfg.Indent == 0 {
		t.Error("Indent should not be zero")
	}
}
