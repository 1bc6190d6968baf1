package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/docker/go-units"
)

// Remote upload targets for exports.
const (
	TargetSharePoint = "sharepoint"
	TargetMinio      = "minio"
)

// ExportConfig controls how exported documents are delivered.
type ExportConfig struct {
	// InlineLimit is the size under which exports are returned as data URLs.
	// Default: "5MB"
	InlineLimit    string `toml:"inline_limit"`
	inlineLimitVal int64

	RemoteUpload bool   `toml:"remote_upload_enabled"`
	RemoteTarget string `toml:"remote_target"`
}

// InlineLimitBytes returns the parsed inline_limit. Zero until Finalize succeeds.
func (c *ExportConfig) InlineLimitBytes() int64 {
	return c.inlineLimitVal
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *ExportConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration, including the boolean switch.
func (c *ExportConfig) Merge(overlay *ExportConfig) {
	mergeString(&c.InlineLimit, overlay.InlineLimit)
	mergeString(&c.RemoteTarget, overlay.RemoteTarget)
	c.RemoteUpload = overlay.RemoteUpload
}

func (c *ExportConfig) loadDefaults() {
	if c.InlineLimit == "" {
		c.InlineLimit = "5MB"
	}
	if c.RemoteTarget == "" {
		c.RemoteTarget = TargetSharePoint
	}
}

func (c *ExportConfig) loadEnv() {
	if v := os.Getenv("EXPORT_INLINE_LIMIT"); v != "" {
		c.InlineLimit = v
	}
	if v := os.Getenv("EXPORT_REMOTE_UPLOAD_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.RemoteUpload = enabled
		}
	}
	if v := os.Getenv("EXPORT_REMOTE_TARGET"); v != "" {
		c.RemoteTarget = v
	}
}

func (c *ExportConfig) validate() error {
	size, err := units.FromHumanSize(c.InlineLimit)
	if err != nil {
		return fmt.Errorf("invalid inline_limit: %w", err)
	}
	if size < 0 {
		return fmt.Errorf("inline_limit must not be negative")
	}
	c.inlineLimitVal = size

	switch c.RemoteTarget {
	case TargetSharePoint, TargetMinio:
	default:
		return fmt.Errorf("invalid remote_target %q (must be %s or %s)", c.RemoteTarget, TargetSharePoint, TargetMinio)
	}
	return nil
}
