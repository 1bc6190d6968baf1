package filter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docbridge/internal/chat"
	"github.com/JaimeStill/docbridge/pkg/decode"
	"github.com/JaimeStill/docbridge/pkg/handlers"
	"github.com/JaimeStill/docbridge/pkg/routes"
)

// Handler exposes the filter hooks over HTTP.
type Handler struct {
	filter  *Filter
	logger  *slog.Logger
	maxBody int64
}

func NewHandler(filter *Filter, logger *slog.Logger, maxBody int64) *Handler {
	return &Handler{
		filter:  filter,
		logger:  logger.With("handler", "filter"),
		maxBody: maxBody,
	}
}

// Routes returns the filter endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/filter",
		Description: "OpenWebUI filter hooks",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/inlet", Handler: h.Inlet, Summary: "Process the latest user message"},
			{Method: "POST", Pattern: "/outlet", Handler: h.Outlet, Summary: "Append the turn notice to the reply"},
		},
	}
}

func (h *Handler) Inlet(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.filter.Inlet(r.Context(), &body)
	handlers.RespondJSON(w, http.StatusOK, body)
}

func (h *Handler) Outlet(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.filter.Outlet(r.Context(), &body)
	handlers.RespondJSON(w, http.StatusOK, body)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (chat.Body, bool) {
	body, err := decode.JSON[chat.Body](r.Body, h.maxBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, decode.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		handlers.RespondError(w, h.logger, status, err)
		return chat.Body{}, false
	}
	return body, true
}
