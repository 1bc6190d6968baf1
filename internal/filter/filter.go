// Package filter implements the OpenWebUI inlet and outlet hooks. The inlet
// classifies the latest user message, performs the import or export it asks for,
// and appends the composed notice; the outlet echoes that notice into the reply.
package filter

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/docbridge/internal/attachments"
	"github.com/JaimeStill/docbridge/internal/chat"
	"github.com/JaimeStill/docbridge/internal/compose"
	"github.com/JaimeStill/docbridge/internal/graph"
	"github.com/JaimeStill/docbridge/internal/intent"
	"github.com/JaimeStill/docbridge/internal/render"
	"github.com/JaimeStill/docbridge/pkg/decode"
)

// MetaKey is the body metadata key carrying the turn state from inlet to outlet.
const MetaKey = "docbridge"

// Importer reads files from the remote library.
type Importer interface {
	Folder() string
	ListFiles(ctx context.Context, folder string) ([]graph.FileDescriptor, error)
	Fetch(ctx context.Context, file graph.FileDescriptor) (*attachments.Attachment, error)
}

// Exporter renders and stores a report. It never fails; errors are in the result.
type Exporter interface {
	Export(ctx context.Context, report render.Report, format render.Format) compose.Result
}

// State is recorded in the body metadata for the outlet.
type State struct {
	Status compose.Status `json:"status"`
	Notice string         `json:"notice"`
	TurnID string         `json:"turn_id"`
}

// Filter handles one chat turn at a time and holds no per-turn state.
type Filter struct {
	importer Importer
	exporter Exporter
	logger   *slog.Logger
}

// New creates a filter. A nil importer disables SharePoint requests.
func New(importer Importer, exporter Exporter, logger *slog.Logger) *Filter {
	return &Filter{
		importer: importer,
		exporter: exporter,
		logger:   logger.With("system", "filter"),
	}
}

// Inlet processes the latest user message in place. It returns nil when the
// message is not a request this service handles.
func (f *Filter) Inlet(ctx context.Context, body *chat.Body) *compose.Result {
	idx := body.LastIndex(chat.User)
	if idx < 0 {
		return nil
	}
	msg := &body.Messages[idx]

	req := intent.Classify(msg.Content.String())
	if req.Kind == intent.None {
		return nil
	}

	turn := uuid.NewString()
	logger := f.logger.With("turn", turn, "kind", req.Kind, "rule", req.Rule)
	logger.Debug("request classified", "target", req.TargetFilename, "format", req.Format)

	var res compose.Result
	switch {
	case req.Kind.IsImport() && f.importer == nil:
		op := compose.OpImport
		if req.Kind == intent.ListFiles {
			op = compose.OpList
		}
		res = compose.Disabled(op)
		logger.Warn("sharepoint request skipped", res.LogAttrs()...)

	case req.Kind.IsImport():
		op, target := compose.OpImport, req.TargetFilename
		if req.Kind == intent.ListFiles {
			op, target = compose.OpList, f.importer.Folder()
		}
		res = compose.Guard(logger, op, target, func() compose.Result {
			return f.importFile(ctx, msg, req)
		})

	case req.Kind == intent.Export:
		report := BuildReport(body.Messages, idx)
		res = f.exporter.Export(ctx, report, req.Format)
	}

	note := "[SYSTEM NOTE: " + res.Notice + "]"
	if !msg.Content.IsParts() {
		note = "\n\n" + note
	}
	msg.Content.Append(note)

	body.SetMeta(MetaKey, State{Status: res.Status, Notice: res.Notice, TurnID: turn})

	logger.Info("turn handled", res.LogAttrs()...)
	return &res
}

func (f *Filter) importFile(ctx context.Context, msg *chat.Message, req intent.Request) compose.Result {
	files, err := f.importer.ListFiles(ctx, "")
	if err != nil {
		if req.Kind == intent.ListFiles {
			return compose.Failure(compose.OpList, f.importer.Folder(), err)
		}
		return compose.Failure(compose.OpImport, req.TargetFilename, err)
	}

	if req.Kind == intent.ListFiles {
		return compose.Listing(f.importer.Folder(), files)
	}

	file, ok := graph.Match(files, req.TargetFilename)
	if !ok {
		return compose.MissingFile(req.TargetFilename, files)
	}

	att, err := f.importer.Fetch(ctx, file)
	if err != nil {
		return compose.Failure(compose.OpImport, file.Name, err)
	}

	if err := msg.AttachFile(newHostFile(att)); err != nil {
		return compose.Failure(compose.OpImport, file.Name, err)
	}
	return compose.Imported(att)
}

// Outlet appends the inlet's notice to the last assistant message once.
// It reports whether the body changed.
func (f *Filter) Outlet(ctx context.Context, body *chat.Body) bool {
	state, ok := turnState(body.Metadata[MetaKey])
	if !ok || state.Notice == "" {
		return false
	}

	idx := body.LastIndex(chat.Assistant)
	if idx < 0 {
		return false
	}
	msg := &body.Messages[idx]
	if msg.Content.Contains(state.Notice) {
		return false
	}

	if msg.Content.IsParts() {
		msg.Content.Append(state.Notice)
	} else {
		msg.Content.Append("\n\n" + state.Notice)
	}

	f.logger.Debug("notice appended", "turn", state.TurnID, "status", state.Status)
	return true
}

func turnState(v any) (State, bool) {
	switch s := v.(type) {
	case State:
		return s, true
	case *State:
		if s == nil {
			return State{}, false
		}
		return *s, true
	}
	state, ok, err := decode.FromAny[State](v)
	return state, ok && err == nil
}

// hostFile is the attachment shape the host expects in a message's files array.
type hostFile struct {
	Type string      `json:"type"`
	File hostFileRef `json:"file"`
}

type hostFileRef struct {
	Path string       `json:"path"`
	Name string       `json:"name"`
	Size int64        `json:"size"`
	Meta hostFileMeta `json:"meta"`
}

type hostFileMeta struct {
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Source      string `json:"source"`
}

func newHostFile(att *attachments.Attachment) hostFile {
	return hostFile{
		Type: "file",
		File: hostFileRef{
			Path: att.Path,
			Name: att.OriginalName,
			Size: att.Size,
			Meta: hostFileMeta{
				Path:        att.Path,
				Filename:    att.OriginalName,
				ContentType: att.ContentType,
				Source:      att.Source,
			},
		},
	}
}
