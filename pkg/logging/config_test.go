package logging_test

import (
	"testing"

	"github.com/JaimeStill/docbridge/pkg/logging"
)

func TestConfig_Merge(t *testing.T) {
	tests := []struct {
		name       string
		base       logging.Config
		overlay    logging.Config
		wantLevel  logging.Level
		wantFormat logging.Format
	}{
		{
			name:       "overlay level",
			base:       logging.Config{Level: logging.LevelInfo, Format: logging.FormatJSON},
			overlay:    logging.Config{Level: logging.LevelDebug},
			wantLevel:  logging.LevelDebug,
			wantFormat: logging.FormatJSON,
		},
		{
			name:       "empty overlay",
			base:       logging.Config{Level: logging.LevelWarn, Format: logging.FormatText},
			overlay:    logging.Config{},
			wantLevel:  logging.LevelWarn,
			wantFormat: logging.FormatText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.base.Merge(&tt.overlay)

			if tt.base.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", tt.base.Level, tt.wantLevel)
			}
			if tt.base.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", tt.base.Format, tt.wantFormat)
			}
		})
	}
}

func TestConfig_Finalize_AppliesDefaults(t *testing.T) {
	cfg := &logging.Config{}

	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Level != logging.LevelInfo {
		t.Errorf("Level = %q, want %q (default)", cfg.Level, logging.LevelInfo)
	}
	if cfg.Format != logging.FormatText {
		t.Errorf("Format = %q, want %q (default)", cfg.Format, logging.FormatText)
	}
}

func TestConfig_Finalize_EnvOverrides(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "ERROR")
	t.Setenv("TEST_LOG_FORMAT", "pretty")

	env := &logging.Env{
		Level:  "TEST_LOG_LEVEL",
		Format: "TEST_LOG_FORMAT",
	}

	cfg := &logging.Config{Level: logging.LevelInfo, Format: logging.FormatText}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Level != logging.LevelError {
		t.Errorf("Level = %q, want %q (env override)", cfg.Level, logging.LevelError)
	}
	if cfg.Format != logging.FormatPretty {
		t.Errorf("Format = %q, want %q (env override)", cfg.Format, logging.FormatPretty)
	}
}

func TestConfig_Finalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  logging.Config
	}{
		{"level", logging.Config{Level: "invalid", Format: logging.FormatJSON}},
		{"format", logging.Config{Level: logging.LevelInfo, Format: "invalid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("Finalize() succeeded, want error")
			}
		})
	}
}
