package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	env "github.com/Netflix/go-env"

	"github.com/JaimeStill/docbridge/internal/mirror"
)

type minioSecrets struct {
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
}

// MinioConfig configures the S3-compatible export mirror.
type MinioConfig struct {
	Endpoint      string `toml:"endpoint"`
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Secure        bool   `toml:"secure"`
	PresignExpiry string `toml:"presign_expiry"`
	Timeout       string `toml:"timeout"`

	AccessKey string `toml:"-"`
	SecretKey string `toml:"-"`
}

// Ready reports whether the mirror has everything it needs to connect.
func (c *MinioConfig) Ready() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// MirrorConfig returns the resolved mirror settings. Call after Finalize.
func (c *MinioConfig) MirrorConfig() mirror.Config {
	return mirror.Config{
		Endpoint:      c.Endpoint,
		Bucket:        c.Bucket,
		Region:        c.Region,
		AccessKey:     c.AccessKey,
		SecretKey:     c.SecretKey,
		Secure:        c.Secure,
		PresignExpiry: parseDuration(c.PresignExpiry),
		Timeout:       parseDuration(c.Timeout),
	}
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *MinioConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies values from overlay configuration, including the boolean switch.
func (c *MinioConfig) Merge(overlay *MinioConfig) {
	mergeString(&c.Endpoint, overlay.Endpoint)
	mergeString(&c.Bucket, overlay.Bucket)
	mergeString(&c.Region, overlay.Region)
	mergeString(&c.PresignExpiry, overlay.PresignExpiry)
	mergeString(&c.Timeout, overlay.Timeout)
	c.Secure = overlay.Secure
}

func (c *MinioConfig) loadDefaults() {
	if c.Bucket == "" {
		c.Bucket = "docbridge-exports"
	}
	if c.PresignExpiry == "" {
		c.PresignExpiry = "24h"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
}

func (c *MinioConfig) loadEnv() error {
	var secrets minioSecrets
	if _, err := env.UnmarshalFromEnviron(&secrets); err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	mergeString(&c.AccessKey, secrets.AccessKey)
	mergeString(&c.SecretKey, secrets.SecretKey)

	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("MINIO_SECURE"); v != "" {
		if secure, err := strconv.ParseBool(v); err == nil {
			c.Secure = secure
		}
	}
	return nil
}

func (c *MinioConfig) validate() error {
	d, err := time.ParseDuration(c.PresignExpiry)
	if err != nil {
		return fmt.Errorf("invalid presign_expiry: %w", err)
	}
	if d <= 0 || d > 7*24*time.Hour {
		return fmt.Errorf("presign_expiry must be between 1s and 168h")
	}
	if t, err := time.ParseDuration(c.Timeout); err != nil || t <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	return nil
}
