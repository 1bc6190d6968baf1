package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/docker/go-units"

	"github.com/JaimeStill/docbridge/internal/graph"
)

// sharePointSecrets are read from the environment only.
type sharePointSecrets struct {
	TenantID     string `env:"SHAREPOINT_TENANT_ID"`
	ClientID     string `env:"SHAREPOINT_CLIENT_ID"`
	ClientSecret string `env:"SHAREPOINT_CLIENT_SECRET"`
}

// SharePointConfig configures the Microsoft Graph file client.
type SharePointConfig struct {
	// Enabled turns the integration off when explicitly false. Default: true.
	Enabled *bool `toml:"enabled"`

	SiteURL      string `toml:"site_url"`
	Folder       string `toml:"folder"`
	GraphURL     string `toml:"graph_url"`
	AuthorityURL string `toml:"authority_url"`

	TokenSkew       string `toml:"token_skew"`
	TokenTimeout    string `toml:"token_timeout"`
	RequestTimeout  string `toml:"request_timeout"`
	DownloadTimeout string `toml:"download_timeout"`

	MaxRetries   int    `toml:"max_retries"`
	RetryInitial string `toml:"retry_initial"`

	DownloadThreshold    string `toml:"download_threshold"`
	downloadThresholdVal int64

	TenantID     string `toml:"-"`
	ClientID     string `toml:"-"`
	ClientSecret string `toml:"-"`
}

// IsEnabled reports whether the integration is switched on.
func (c *SharePointConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Ready reports whether the integration is enabled and fully configured.
func (c *SharePointConfig) Ready() bool {
	return c.IsEnabled() && c.SiteURL != "" && c.credentials().Complete()
}

func (c *SharePointConfig) credentials() graph.Credentials {
	return graph.Credentials{
		TenantID:     c.TenantID,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}
}

// GraphConfig returns the resolved client settings. Call after Finalize.
func (c *SharePointConfig) GraphConfig() graph.Config {
	return graph.Config{
		Credentials:       c.credentials(),
		SiteURL:           c.SiteURL,
		Folder:            c.Folder,
		GraphURL:          c.GraphURL,
		AuthorityURL:      c.AuthorityURL,
		TokenSkew:         parseDuration(c.TokenSkew),
		TokenTimeout:      parseDuration(c.TokenTimeout),
		RequestTimeout:    parseDuration(c.RequestTimeout),
		DownloadTimeout:   parseDuration(c.DownloadTimeout),
		MaxRetries:        c.MaxRetries,
		RetryInitial:      parseDuration(c.RetryInitial),
		DownloadThreshold: c.downloadThresholdVal,
	}
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
// Missing credentials are not an error; the integration reports itself disabled instead.
func (c *SharePointConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *SharePointConfig) Merge(overlay *SharePointConfig) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	mergeString(&c.SiteURL, overlay.SiteURL)
	mergeString(&c.Folder, overlay.Folder)
	mergeString(&c.GraphURL, overlay.GraphURL)
	mergeString(&c.AuthorityURL, overlay.AuthorityURL)
	mergeString(&c.TokenSkew, overlay.TokenSkew)
	mergeString(&c.TokenTimeout, overlay.TokenTimeout)
	mergeString(&c.RequestTimeout, overlay.RequestTimeout)
	mergeString(&c.DownloadTimeout, overlay.DownloadTimeout)
	mergeString(&c.RetryInitial, overlay.RetryInitial)
	mergeString(&c.DownloadThreshold, overlay.DownloadThreshold)
	if overlay.MaxRetries > 0 {
		c.MaxRetries = overlay.MaxRetries
	}
}

func (c *SharePointConfig) loadDefaults() {
	if c.Folder == "" {
		c.Folder = "Shared Documents"
	}
	if c.GraphURL == "" {
		c.GraphURL = graph.DefaultGraphURL
	}
	if c.AuthorityURL == "" {
		c.AuthorityURL = graph.DefaultAuthorityURL
	}
	if c.TokenSkew == "" {
		c.TokenSkew = "60s"
	}
	if c.TokenTimeout == "" {
		c.TokenTimeout = "10s"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "15s"
	}
	if c.DownloadTimeout == "" {
		c.DownloadTimeout = "60s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RetryInitial == "" {
		c.RetryInitial = "500ms"
	}
	if c.DownloadThreshold == "" {
		c.DownloadThreshold = "10MB"
	}
}

func (c *SharePointConfig) loadEnv() error {
	var secrets sharePointSecrets
	if _, err := env.UnmarshalFromEnviron(&secrets); err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	mergeString(&c.TenantID, secrets.TenantID)
	mergeString(&c.ClientID, secrets.ClientID)
	mergeString(&c.ClientSecret, secrets.ClientSecret)

	if v := os.Getenv("SHAREPOINT_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = &enabled
		}
	}
	if v := os.Getenv("SHAREPOINT_SITE_URL"); v != "" {
		c.SiteURL = v
	}
	if v := os.Getenv("SHAREPOINT_FOLDER"); v != "" {
		c.Folder = v
	}
	return nil
}

func (c *SharePointConfig) validate() error {
	if c.SiteURL != "" {
		u, err := url.Parse(c.SiteURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid site_url %q", c.SiteURL)
		}
	}

	durations := map[string]string{
		"token_skew":       c.TokenSkew,
		"token_timeout":    c.TokenTimeout,
		"request_timeout":  c.RequestTimeout,
		"download_timeout": c.DownloadTimeout,
		"retry_initial":    c.RetryInitial,
	}
	for name, v := range durations {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}

	size, err := units.FromHumanSize(c.DownloadThreshold)
	if err != nil {
		return fmt.Errorf("invalid download_threshold: %w", err)
	}
	c.downloadThresholdVal = size
	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
