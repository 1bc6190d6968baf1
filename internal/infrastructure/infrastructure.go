// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies shared by the server and the CLI: logging,
// the uploads directory, the SharePoint client, and the export mirror.
package infrastructure

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docbridge/internal/attachments"
	"github.com/JaimeStill/docbridge/internal/config"
	"github.com/JaimeStill/docbridge/internal/exports"
	"github.com/JaimeStill/docbridge/internal/graph"
	"github.com/JaimeStill/docbridge/internal/mirror"
	"github.com/JaimeStill/docbridge/pkg/lifecycle"
	"github.com/JaimeStill/docbridge/pkg/logging"
	"github.com/JaimeStill/docbridge/pkg/storage"
)

// Infrastructure holds the core systems required by the filter and the CLI.
type Infrastructure struct {
	Lifecycle   *lifecycle.Coordinator
	Logger      *slog.Logger
	Storage     storage.System
	Attachments *attachments.Store

	// SharePoint is nil when the integration is disabled or unconfigured.
	SharePoint *graph.Client

	// Mirror is nil unless exports are uploaded to the minio target.
	Mirror *mirror.Bucket

	cfg *config.Config
}

// New creates an Infrastructure from the application configuration, logging to w.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(logging.NewHandler(&cfg.Logging, w))

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}
	files := attachments.New(store, logger, nil)

	sp, err := newSharePoint(&cfg.SharePoint, files, logger)
	if err != nil {
		return nil, fmt.Errorf("sharepoint init failed: %w", err)
	}

	var bucket *mirror.Bucket
	if cfg.Export.RemoteUpload && cfg.Export.RemoteTarget == config.TargetMinio {
		bucket, err = mirror.New(cfg.Minio.MirrorConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("mirror init failed: %w", err)
		}
	}

	return &Infrastructure{
		Lifecycle:   lc,
		Logger:      logger,
		Storage:     store,
		Attachments: files,
		SharePoint:  sp,
		Mirror:      bucket,
		cfg:         cfg,
	}, nil
}

// Start initializes all infrastructure systems and registers them with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if i.Mirror != nil {
		if err := i.Mirror.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("mirror start failed: %w", err)
		}
	}
	return nil
}

// Uploader returns the configured remote export target, or nil when remote
// upload is off or its target is unavailable.
func (i *Infrastructure) Uploader() exports.Uploader {
	if !i.cfg.Export.RemoteUpload {
		return nil
	}

	switch i.cfg.Export.RemoteTarget {
	case config.TargetMinio:
		if i.Mirror != nil {
			return i.Mirror
		}
	case config.TargetSharePoint:
		if i.SharePoint != nil {
			return exports.SharePoint{Client: i.SharePoint}
		}
	}
	return nil
}

func newSharePoint(cfg *config.SharePointConfig, files *attachments.Store, logger *slog.Logger) (*graph.Client, error) {
	if !cfg.IsEnabled() {
		logger.Info("sharepoint integration disabled")
		return nil, nil
	}
	if !cfg.Ready() {
		logger.Warn("sharepoint integration disabled: site_url or credentials missing")
		return nil, nil
	}

	gc := cfg.GraphConfig()
	httpClient := &http.Client{}

	exchanger := graph.NewClientCredentials(gc.Credentials, gc.AuthorityURL, httpClient)
	tokens := graph.NewTokenCache(exchanger, gc.TokenSkew, gc.TokenTimeout, logger)

	client, err := graph.New(gc, tokens, httpClient, files, logger)
	if errors.Is(err, graph.ErrDisabled) {
		return nil, nil
	}
	return client, err
}
