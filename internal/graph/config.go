package graph

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const DefaultGraphURL = "https://graph.microsoft.com/v1.0"

// Config holds the resolved settings of the remote file client.
type Config struct {
	Credentials Credentials

	// SiteURL is the SharePoint site, e.g. https://contoso.sharepoint.com/sites/Team.
	SiteURL string

	// Folder is the default folder path inside the site's first document library.
	Folder string

	GraphURL     string
	AuthorityURL string

	TokenSkew       time.Duration
	TokenTimeout    time.Duration
	RequestTimeout  time.Duration
	DownloadTimeout time.Duration

	MaxRetries   int
	RetryInitial time.Duration

	// DownloadThreshold is the size above which downloads stream straight to disk.
	DownloadThreshold int64
}

func (c *Config) applyDefaults() {
	if c.GraphURL == "" {
		c.GraphURL = DefaultGraphURL
	}
	if c.AuthorityURL == "" {
		c.AuthorityURL = DefaultAuthorityURL
	}
	if c.TokenSkew <= 0 {
		c.TokenSkew = 60 * time.Second
	}
	if c.TokenTimeout <= 0 {
		c.TokenTimeout = 10 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 60 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = 500 * time.Millisecond
	}
	if c.DownloadThreshold <= 0 {
		c.DownloadThreshold = 10 << 20
	}
}

// siteRef splits SiteURL into the Graph site reference host:/path.
func (c *Config) siteRef() (string, error) {
	u, err := url.Parse(c.SiteURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid site_url %q", c.SiteURL)
	}

	path := strings.TrimSuffix(u.Path, "/")
	if path == "" {
		return u.Host, nil
	}
	return u.Host + ":" + path, nil
}
