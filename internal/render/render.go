// Package render turns a format-neutral Report into a branded PDF or DOCX document.
// Output is deterministic: the same report and branding always produce the same bytes.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// Document is a rendered file held in memory.
type Document struct {
	Data     []byte
	Format   Format
	MimeType string
	Filename string
	Pages    int

	// Warnings lists non-fatal ErrAsset failures that were skipped.
	Warnings []error
}

// Size returns the document length in bytes.
func (d *Document) Size() int64 {
	return int64(len(d.Data))
}

// Renderer renders reports. Branding assets are read through fs.
type Renderer struct {
	fs     afero.Fs
	logger *slog.Logger
}

func New(fs afero.Fs, logger *slog.Logger) *Renderer {
	return &Renderer{
		fs:     fs,
		logger: logger.With("system", "render"),
	}
}

// Render produces the document in the requested format.
// Returns ErrRender when the report has no renderable content or generation fails.
// A missing or unusable logo never fails the render; it is reported in Document.Warnings.
func (r *Renderer) Render(ctx context.Context, report Report, format Format, branding Branding) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if format != PDF && format != DOCX {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrRender, format)
	}

	if !report.Renderable() {
		return nil, fmt.Errorf("%w: report has no renderable content", ErrRender)
	}

	colors := branding.palette(r.logger)
	company := strings.TrimSpace(branding.CompanyName)

	var warnings []error
	lg, err := loadLogo(r.fs, branding.LogoPath)
	if err != nil {
		warnings = append(warnings, err)
		lg = nil
	}

	doc := &Document{
		Format:   format,
		MimeType: format.MimeType(),
		Filename: Filename(report) + format.Ext(),
	}

	switch format {
	case PDF:
		data, pages, warn, err := renderPDF(report, colors, company, lg)
		warnings = append(warnings, warn...)
		if err != nil {
			r.logger.Error("pdf render failed", "title", report.Title, "error", err)
			return nil, err
		}
		doc.Data, doc.Pages = data, pages
	case DOCX:
		data, warn, err := renderDOCX(report, colors, company, lg)
		warnings = append(warnings, warn...)
		if err != nil {
			r.logger.Error("docx render failed", "title", report.Title, "error", err)
			return nil, err
		}
		doc.Data = data
	}

	for _, w := range warnings {
		r.logger.Warn("branding asset skipped", "error", w)
	}
	doc.Warnings = warnings

	r.logger.Debug("document rendered",
		"format", format,
		"filename", doc.Filename,
		"bytes", len(doc.Data),
		"pages", doc.Pages,
	)

	return doc, nil
}

// AssetWarning reports whether any warning is an ErrAsset.
func (d *Document) AssetWarning() bool {
	for _, w := range d.Warnings {
		if errors.Is(w, ErrAsset) {
			return true
		}
	}
	return false
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename derives the suggested base name of a report without extension.
// Report.Name wins over the title; the fallback is "document".
func Filename(report Report) string {
	base := report.Name
	if strings.TrimSpace(base) == "" {
		base = report.Title
	}
	base = strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(base)), "_"), "_")
	if base == "" {
		return "document"
	}
	return base
}
