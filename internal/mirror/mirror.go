// Package mirror copies exports into an S3-compatible bucket and hands back
// presigned download links.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JaimeStill/docbridge/pkg/lifecycle"
)

// ErrUnavailable reports that the bucket could not be reached or prepared.
var ErrUnavailable = errors.New("mirror: bucket unavailable")

// Config describes the bucket connection. Credentials come from the environment.
type Config struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	Secure        bool
	PresignExpiry time.Duration

	// Timeout bounds each bucket operation, including its retries.
	Timeout time.Duration

	// MaxRetries bounds attempts per request; 1 disables retries.
	MaxRetries int
}

// Bucket uploads objects to a single bucket.
type Bucket struct {
	client *minio.Client
	cfg    Config
	logger *slog.Logger
}

// New creates the client. No request is made until Start or Upload.
func New(cfg Config, logger *slog.Logger) (*Bucket, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("endpoint and bucket required")
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 24 * time.Hour
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     cfg.Secure,
		Region:     cfg.Region,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Bucket{
		client: client,
		cfg:    cfg,
		logger: logger.With("system", "mirror", "bucket", cfg.Bucket),
	}, nil
}

// Start ensures the bucket exists during application startup. A failure is
// logged and left to surface on the first upload.
func (b *Bucket) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := b.Ensure(lc.Context()); err != nil {
			b.logger.Warn("bucket not ready", "error", err)
			return
		}
		b.logger.Info("bucket ready")
	})
	return nil
}

// Ensure creates the bucket if it does not exist.
func (b *Bucket) Ensure(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	exists, err := b.client.BucketExists(ctx, b.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("%w: bucket check: %w", ErrUnavailable, err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.cfg.Bucket, minio.MakeBucketOptions{Region: b.cfg.Region}); err != nil {
		return fmt.Errorf("%w: make bucket: %w", ErrUnavailable, err)
	}
	b.logger.Info("bucket created")
	return nil
}

func (b *Bucket) Target() string {
	return "minio"
}

// Upload stores data under name and returns a presigned GET URL for it.
// The whole operation is bounded by the configured timeout.
func (b *Bucket) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	_, err := b.client.PutObject(ctx, b.cfg.Bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", name, err)
	}

	u, err := b.client.PresignedGetObject(ctx, b.cfg.Bucket, name, b.cfg.PresignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", name, err)
	}

	b.logger.Info("object uploaded", "name", name, "size", len(data))
	return u.String(), nil
}
