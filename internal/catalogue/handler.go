package catalogue

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"regioniq/internal/observations"
	"regioniq/pkg/platform/httputil"
	"regioniq/pkg/requestcontext"
)

// Handler serves the schema endpoint.
type Handler struct {
	catalogue *Catalogue
	lifecycle observations.Lifecycle
	logger    *slog.Logger
}

// NewHandler constructs a schema handler.
func NewHandler(c *Catalogue, lc observations.Lifecycle, logger *slog.Logger) *Handler {
	return &Handler{catalogue: c, lifecycle: lc, logger: logger}
}

// Register mounts the schema endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/schema", h.HandleSchema)
}

// HandleSchema handles GET /schema requests.
func (h *Handler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schema := h.catalogue.Schema(h.lifecycle, requestcontext.Now(ctx))
	h.logger.DebugContext(ctx, "schema served",
		"request_id", requestcontext.RequestID(ctx),
		"metrics", len(schema.Metrics),
	)
	httputil.WriteJSON(w, http.StatusOK, schema)
}
