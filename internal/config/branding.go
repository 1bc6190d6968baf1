package config

import (
	"os"

	"github.com/JaimeStill/docbridge/internal/render"
)

// Invalid colors are not rejected here; the renderer falls back to its
// defaults and logs a warning.
func (c *Config) finalizeBranding() error {
	b := &c.Branding
	if v := os.Getenv("BRANDING_COMPANY_NAME"); v != "" {
		b.CompanyName = v
	}
	if v := os.Getenv("BRANDING_LOGO_PATH"); v != "" {
		b.LogoPath = v
	}
	if v := os.Getenv("BRANDING_PRIMARY_COLOR"); v != "" {
		b.PrimaryColor = v
	}
	if v := os.Getenv("BRANDING_SECONDARY_COLOR"); v != "" {
		b.SecondaryColor = v
	}
	return nil
}

func mergeBranding(c, overlay *render.Branding) {
	mergeString(&c.CompanyName, overlay.CompanyName)
	mergeString(&c.LogoPath, overlay.LogoPath)
	mergeString(&c.PrimaryColor, overlay.PrimaryColor)
	mergeString(&c.SecondaryColor, overlay.SecondaryColor)
}
