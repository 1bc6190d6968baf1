package intent

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docbridge/pkg/decode"
	"github.com/JaimeStill/docbridge/pkg/handlers"
	"github.com/JaimeStill/docbridge/pkg/routes"
)

const maxClassifyBody = 64 << 10

// Handler exposes the classifier for diagnostics.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("handler", "intent")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/classify",
		Description: "Message classification",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Classify, Summary: "Classify a message"},
		},
	}
}

type classifyCommand struct {
	Text string `json:"text"`
}

func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	cmd, err := decode.JSON[classifyCommand](r.Body, maxClassifyBody)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, Classify(cmd.Text))
}
