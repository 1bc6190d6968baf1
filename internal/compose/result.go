// Package compose turns the outcome of an import or export into the notice shown
// in the chat stream. Nothing in this package returns an error: every failure
// becomes a user-facing line plus a machine-readable status code.
package compose

import (
	"github.com/docker/go-units"

	"github.com/JaimeStill/docbridge/internal/attachments"
)

// Status is the machine-readable result code logged for every turn.
type Status string

const (
	StatusOK            Status = "ok"
	StatusPartial       Status = "partial"
	StatusListed        Status = "listed"
	StatusNotFound      Status = "not_found"
	StatusAuthFailed    Status = "auth_failed"
	StatusTransient     Status = "transient"
	StatusTimeout       Status = "timeout"
	StatusRenderFailed  Status = "render_failed"
	StatusAssetMissing  Status = "asset_missing"
	StatusStorageFailed Status = "storage_failed"
	StatusDisabled      Status = "disabled"
	StatusInternal      Status = "internal"
)

// State is the result of one step of a turn.
type State string

const (
	Succeeded State = "succeeded"
	Failed    State = "failed"
	Skipped   State = "skipped"
)

// Outcome records how one step ended.
type Outcome struct {
	State  State  `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// Result is the composed outcome of a turn. Primary is the local operation
// (listing, download, render); Secondary is the optional remote upload.
type Result struct {
	Status     Status                  `json:"status"`
	Primary    Outcome                 `json:"primary"`
	Secondary  Outcome                 `json:"secondary"`
	Notice     string                  `json:"notice"`
	Attachment *attachments.Attachment `json:"attachment,omitempty"`
	Export     *ExportInfo             `json:"export,omitempty"`
}

// Failed reports whether the primary operation failed.
func (r Result) Failed() bool {
	return r.Primary.State == Failed
}

// LogAttrs returns the result as slog key/value pairs.
func (r Result) LogAttrs() []any {
	attrs := []any{
		"status", r.Status,
		"primary", r.Primary.State,
		"secondary", r.Secondary.State,
	}
	if r.Primary.Detail != "" {
		attrs = append(attrs, "detail", r.Primary.Detail)
	}
	if r.Secondary.Detail != "" {
		attrs = append(attrs, "secondary_detail", r.Secondary.Detail)
	}
	return attrs
}

// ExportInfo describes a stored export.
type ExportInfo struct {
	Name     string `json:"name"`
	Format   string `json:"format"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Pages    int    `json:"pages,omitempty"`
	Download string `json:"download"`

	// Warnings are non-fatal render problems, such as an unusable logo.
	Warnings []string `json:"warnings,omitempty"`
}

// Upload is the secondary outcome of an export.
type Upload struct {
	Requested bool
	Target    string
	URL       string
	Err       error
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// Size formats a byte count with binary multiples, e.g. 250880 as 245KB.
func Size(n int64) string {
	return units.CustomSize("%.4g%s", float64(n), 1024.0, sizeUnits)
}
