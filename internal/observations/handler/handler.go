package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"regioniq/internal/observations"
	"regioniq/internal/usage"
	dErrors "regioniq/pkg/domain-errors"
	"regioniq/pkg/platform/httputil"
	"regioniq/pkg/requestcontext"
)

// Service executes observation queries.
type Service interface {
	Execute(ctx context.Context, req observations.Request) (*observations.Result, error)
}

// UsageRecorder notes completed queries.
type UsageRecorder interface {
	Record(ctx context.Context, e usage.Entry)
}

// Handler wires the observation endpoint to the query engine.
type Handler struct {
	service Service
	usage   UsageRecorder
	logger  *slog.Logger
}

// New constructs an observation handler with its dependencies.
func New(service Service, recorder UsageRecorder, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		usage:   recorder,
		logger:  logger,
	}
}

// Register mounts observation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/observations/query", h.HandleQuery)
}

// HandleQuery handles POST /observations/query requests.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing bearer token"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[QueryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Execute(ctx, observations.Request{
		Query:  req.Query,
		Limit:  *req.Limit,
		Cursor: req.Cursor,
		URL:    requestURL(r),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "observation query rejected",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if h.usage != nil {
		h.usage.Record(ctx, usage.Entry{
			UserID:    userID,
			At:        requestcontext.Now(ctx),
			Estimated: result.Meta.EstimatedRecords,
			Returned:  result.Meta.ReturnedRecords,
			Truncated: result.Meta.Truncated,
		})
	}

	h.logger.InfoContext(ctx, "observation query served",
		"request_id", requestID,
		"user_id", userID,
		"estimated", result.Meta.EstimatedRecords,
		"returned", result.Meta.ReturnedRecords,
		"truncated", result.Meta.Truncated,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// requestURL reconstructs the absolute URL the caller used, honouring a
// terminating proxy's X-Forwarded-Proto.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
