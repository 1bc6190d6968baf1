// Package exports renders a conversation report, stores it in the uploads
// directory, and optionally mirrors it to a remote target.
package exports

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/JaimeStill/docbridge/internal/attachments"
	"github.com/JaimeStill/docbridge/internal/compose"
	"github.com/JaimeStill/docbridge/internal/render"
)

// ErrNoUploader is reported when a remote upload is enabled but no target is available.
var ErrNoUploader = errors.New("exports: remote target unavailable")

// Uploader mirrors a stored export to a remote target and returns a link to it.
type Uploader interface {
	Target() string
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Config controls how exports are referenced and mirrored.
type Config struct {
	// InlineLimit is the size below which the download reference is a data URL.
	InlineLimit int64

	// PublicURL prefixes the /exports/{name} link for larger documents.
	PublicURL string

	RemoteUpload bool
	RemoteTarget string
}

// Service produces exports. It is safe for concurrent use.
type Service struct {
	renderer *render.Renderer
	store    *attachments.Store
	branding render.Branding
	uploader Uploader
	cfg      Config
	logger   *slog.Logger
}

// New creates an export service. uploader may be nil when remote upload is off
// or its target is not configured.
func New(
	renderer *render.Renderer,
	store *attachments.Store,
	branding render.Branding,
	uploader Uploader,
	cfg Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		renderer: renderer,
		store:    store,
		branding: branding,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger.With("system", "exports"),
	}
}

// Export renders report, stores the document, and mirrors it when configured.
// It never returns an error; failures are carried in the result.
func (s *Service) Export(ctx context.Context, report render.Report, format render.Format) compose.Result {
	return compose.Guard(s.logger, compose.OpExport, string(format), func() compose.Result {
		return s.export(ctx, report, format)
	})
}

func (s *Service) export(ctx context.Context, report render.Report, format render.Format) compose.Result {
	doc, err := s.renderer.Render(ctx, report, format, s.branding)
	if err != nil {
		return compose.Failure(compose.OpExport, string(format), err)
	}

	att, err := s.store.SaveBytes(ctx, attachments.TagExport, doc.Filename, doc.Data)
	if err != nil {
		return compose.Failure(compose.OpExport, doc.Filename, err)
	}

	info := &compose.ExportInfo{
		Name:     att.Key,
		Format:   string(doc.Format),
		MimeType: doc.MimeType,
		Size:     att.Size,
		Pages:    doc.Pages,
		Download: s.reference(att.Key, doc),
	}
	for _, w := range doc.Warnings {
		info.Warnings = append(info.Warnings, w.Error())
	}

	up := s.upload(ctx, att.Key, doc)
	res := compose.Exported(info, up)

	s.logger.Info("export complete", append([]any{"name", att.Key, "size", att.Size}, res.LogAttrs()...)...)
	return res
}

func (s *Service) upload(ctx context.Context, name string, doc *render.Document) compose.Upload {
	if !s.cfg.RemoteUpload {
		return compose.Upload{}
	}

	if s.uploader == nil {
		s.logger.Warn("remote upload enabled without a target", "target", s.cfg.RemoteTarget)
		return compose.Upload{Requested: true, Target: s.cfg.RemoteTarget, Err: ErrNoUploader}
	}

	up := compose.Upload{Requested: true, Target: s.uploader.Target()}
	url, err := s.uploader.Upload(ctx, name, doc.Data, doc.MimeType)
	if err != nil {
		s.logger.Warn("remote upload failed", "target", up.Target, "name", name, "error", err)
		up.Err = err
		return up
	}
	up.URL = url
	return up
}

// reference returns a data URL for small documents and a served link otherwise.
func (s *Service) reference(key string, doc *render.Document) string {
	if doc.Size() < s.cfg.InlineLimit {
		return "data:" + doc.MimeType + ";base64," + base64.StdEncoding.EncodeToString(doc.Data)
	}
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/exports/" + key
}
