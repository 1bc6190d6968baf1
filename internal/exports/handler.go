package exports

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JaimeStill/docbridge/internal/attachments"
	"github.com/JaimeStill/docbridge/pkg/handlers"
	"github.com/JaimeStill/docbridge/pkg/pagination"
	"github.com/JaimeStill/docbridge/pkg/routes"
	"github.com/JaimeStill/docbridge/pkg/storage"
)

// Handler serves stored exports and attachments by key.
type Handler struct {
	store      *attachments.Store
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(store *attachments.Store, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		store:      store,
		logger:     logger.With("handler", "exports"),
		pagination: pagination,
	}
}

// Routes returns the export download route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/exports",
		Description: "Stored export downloads",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Summary: "List stored files"},
			{Method: "GET", Pattern: "/{name}", Handler: h.Download, Summary: "Download a stored file"},
		},
	}
}

// List pages through the stored files. search matches a key substring
// case-insensitively; sort accepts name, size, and modified, newest first by default.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	entries, err := h.store.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	if page.Search != nil {
		needle := strings.ToLower(*page.Search)
		entries = slices.DeleteFunc(entries, func(e storage.Entry) bool {
			return !strings.Contains(strings.ToLower(e.Key), needle)
		})
	}

	sortEntries(entries, page.Sort)
	handlers.RespondJSON(w, http.StatusOK, pagination.Paginate(entries, page))
}

func sortEntries(entries []storage.Entry, fields []pagination.SortField) {
	if len(fields) == 0 {
		fields = []pagination.SortField{{Field: "modified", Descending: true}, {Field: "name"}}
	}

	slices.SortStableFunc(entries, func(a, b storage.Entry) int {
		for _, f := range fields {
			var c int
			switch f.Field {
			case "name":
				c = strings.Compare(a.Key, b.Key)
			case "size":
				c = cmpInt64(a.Size, b.Size)
			case "modified":
				c = a.ModTime.Compare(b.ModTime)
			}
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	f, entry, err := h.store.Open(r.Context(), name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": entry.Key}))
	http.ServeContent(w, r, entry.Key, entry.ModTime, f)
}

// MapHTTPStatus converts storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
