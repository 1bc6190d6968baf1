package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/docbridge/internal/attachments"
	"github.com/JaimeStill/docbridge/internal/graph"
	"github.com/JaimeStill/docbridge/internal/render"
	"github.com/JaimeStill/docbridge/pkg/storage"
)

const (
	// MaxListed bounds the files shown in a listing.
	MaxListed = 20

	// MaxAlternatives bounds the files suggested after a failed fetch.
	MaxAlternatives = 10
)

// Op names the operation a failure belongs to.
type Op string

const (
	OpList   Op = "Listing"
	OpImport Op = "Import"
	OpExport Op = "Export"
)

// Listing enumerates remote files and asks the user to pick one. No file is attached.
func Listing(folder string, files []graph.FileDescriptor) Result {
	folder = displayFolder(folder)

	if len(files) == 0 {
		return Result{
			Status:    StatusListed,
			Primary:   Outcome{State: Succeeded, Detail: "0 files"},
			Secondary: Outcome{State: Skipped},
			Notice:    fmt.Sprintf("📂 No files found in SharePoint folder '%s'.", folder),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📂 **SharePoint files in %s**\n", folder)
	writeFiles(&b, files, MaxListed)
	fmt.Fprintf(&b, "\nAsk for a specific file to import it, for example: \"load %s from SharePoint\".", files[0].Name)

	return Result{
		Status:    StatusListed,
		Primary:   Outcome{State: Succeeded, Detail: fmt.Sprintf("%d files", len(files))},
		Secondary: Outcome{State: Skipped},
		Notice:    b.String(),
	}
}

// Imported confirms a downloaded file and attaches it to the turn.
func Imported(att *attachments.Attachment) Result {
	return Result{
		Status:    StatusOK,
		Primary:   Outcome{State: Succeeded, Detail: att.Key},
		Secondary: Outcome{State: Skipped},
		Notice: fmt.Sprintf("📎 **Imported from SharePoint**: %s (%s)\nThe file is attached to this message for analysis.",
			att.OriginalName, Size(att.Size)),
		Attachment: att,
	}
}

// Exported reports a stored export and the outcome of the optional upload.
// A failed upload degrades the result to partial; the export itself still succeeded.
func Exported(info *ExportInfo, up Upload) Result {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 **Export File Ready**: %s (%s)\n", info.Name, Size(info.Size))
	fmt.Fprintf(&b, "[Download %s](%s)", info.Name, info.Download)

	if len(info.Warnings) > 0 {
		b.WriteString("\nℹ️ The branding logo could not be used, so the document was rendered without it.")
	}

	res := Result{
		Status:    StatusOK,
		Primary:   Outcome{State: Succeeded, Detail: info.Name},
		Secondary: Outcome{State: Skipped},
		Export:    info,
	}

	switch {
	case !up.Requested:
	case up.Err != nil:
		res.Status = StatusPartial
		res.Secondary = Outcome{State: Failed, Detail: up.Err.Error()}
		fmt.Fprintf(&b, "\n⚠️ The export was saved locally, but uploading to %s failed: %s", up.Target, reason(up.Err))
	default:
		res.Secondary = Outcome{State: Succeeded, Detail: up.URL}
		fmt.Fprintf(&b, "\n☁️ Uploaded to %s: %s", up.Target, up.URL)
	}

	res.Notice = b.String()
	return res
}

// MissingFile reports a failed fetch and suggests the files that do exist.
func MissingFile(name string, available []graph.FileDescriptor) Result {
	res := Failure(OpImport, name, fmt.Errorf("%w: file %s", graph.ErrNotFound, name))
	if len(available) == 0 {
		return res
	}

	var b strings.Builder
	b.WriteString(res.Notice)
	b.WriteString("\nAvailable files:\n")
	writeFiles(&b, available, MaxAlternatives)
	res.Notice = strings.TrimRight(b.String(), "\n")
	return res
}

// Disabled reports a skipped request because the integration is not configured.
func Disabled(op Op) Result {
	return Result{
		Status:    StatusDisabled,
		Primary:   Outcome{State: Skipped, Detail: "sharepoint disabled"},
		Secondary: Outcome{State: Skipped},
		Notice:    fmt.Sprintf("⚠️ %s skipped: the SharePoint integration is not configured.", op),
	}
}

// Failure converts an error from the remote client, renderer, or storage into a
// specific user-facing line. target is the filename, folder, or format involved.
func Failure(op Op, target string, err error) Result {
	status, line := classify(op, target, err)
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return Result{
		Status:    status,
		Primary:   Outcome{State: Failed, Detail: detail},
		Secondary: Outcome{State: Skipped},
		Notice:    "⚠️ " + line,
	}
}

// Guard runs fn and converts a panic into an internal failure, so a turn always
// gets a result.
func Guard(logger *slog.Logger, op Op, target string, fn func() Result) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("turn step panicked", "op", op, "target", target, "panic", p)
			res = Failure(op, target, fmt.Errorf("panic: %v", p))
		}
	}()
	return fn()
}

func classify(op Op, target string, err error) (Status, string) {
	switch {
	case errors.Is(err, graph.ErrDisabled):
		return StatusDisabled, fmt.Sprintf("%s skipped: the SharePoint integration is not configured.", op)
	case errors.Is(err, graph.ErrNotFound):
		if op == OpList {
			return StatusNotFound, fmt.Sprintf("%s failed: folder not found: %s", op, displayFolder(target))
		}
		return StatusNotFound, fmt.Sprintf("%s failed: file not found: %s", op, target)
	case errors.Is(err, graph.ErrAuth):
		return StatusAuthFailed, fmt.Sprintf("%s failed for %s: SharePoint rejected the service credentials.", op, display(target))
	case errors.Is(err, graph.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout, fmt.Sprintf("%s failed for %s: SharePoint did not respond in time. Please try again.", op, display(target))
	case errors.Is(err, graph.ErrTransient):
		return StatusTransient, fmt.Sprintf("%s failed for %s: SharePoint is temporarily unavailable. Please try again.", op, display(target))
	case errors.Is(err, render.ErrRender):
		return StatusRenderFailed, fmt.Sprintf("%s failed: there is no conversation content to render as %s.", op, strings.ToUpper(target))
	case errors.Is(err, render.ErrAsset):
		return StatusAssetMissing, fmt.Sprintf("%s: the branding asset for %s is unavailable.", op, display(target))
	case errors.Is(err, storage.ErrTooLarge):
		return StatusStorageFailed, fmt.Sprintf("%s failed: %s exceeds the maximum upload size.", op, display(target))
	case errors.Is(err, attachments.ErrNameExhausted),
		errors.Is(err, storage.ErrPermissionDenied),
		errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, storage.ErrExists):
		return StatusStorageFailed, fmt.Sprintf("%s failed: %s could not be saved locally.", op, display(target))
	default:
		return StatusInternal, fmt.Sprintf("%s failed for %s: unexpected error.", op, display(target))
	}
}

func writeFiles(b *strings.Builder, files []graph.FileDescriptor, limit int) {
	for i, f := range files {
		if i == limit {
			fmt.Fprintf(b, "- ... and %d more\n", len(files)-limit)
			break
		}
		fmt.Fprintf(b, "- %s (%s)\n", f.Name, Size(f.Size))
	}
}

// reason strips package prefixes from an error for display.
func reason(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"graph: ", "mirror: ", "storage: "} {
		msg = strings.ReplaceAll(msg, prefix, "")
	}
	return msg
}

func display(target string) string {
	if strings.TrimSpace(target) == "" {
		return "the request"
	}
	return target
}

func displayFolder(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return "/"
	}
	return folder
}
