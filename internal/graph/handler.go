package graph

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docbridge/pkg/handlers"
	"github.com/JaimeStill/docbridge/pkg/routes"
)

// Handler exposes the remote library listing. A nil client reports the
// integration as disabled.
type Handler struct {
	client *Client
	logger *slog.Logger
}

func NewHandler(client *Client, logger *slog.Logger) *Handler {
	return &Handler{
		client: client,
		logger: logger.With("handler", "sharepoint"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/sharepoint",
		Description: "SharePoint document library",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/files", Handler: h.ListFiles, Summary: "List files in a folder"},
		},
	}
}

type listing struct {
	Folder string           `json:"folder"`
	Files  []FileDescriptor `json:"files"`
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		handlers.RespondError(w, h.logger, http.StatusServiceUnavailable, ErrDisabled)
		return
	}

	folder := r.URL.Query().Get("folder")
	files, err := h.client.ListFiles(r.Context(), folder)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if folder == "" {
		folder = h.client.Folder()
	}
	handlers.RespondJSON(w, http.StatusOK, listing{Folder: folder, Files: files})
}

// MapHTTPStatus converts client errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrAuth):
		return http.StatusBadGateway
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
