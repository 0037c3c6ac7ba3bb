// Package httptransport assembles the HTTP surface of the Data API.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regioniq/internal/platform/metrics"
	"regioniq/internal/platform/middleware"
	dErrors "regioniq/pkg/domain-errors"
	"regioniq/pkg/platform/httputil"
	"regioniq/pkg/platform/middleware/metadata"
	"regioniq/pkg/platform/middleware/requesttime"
)

const (
	serviceName = "RegionIQ Data API"
	apiVersion  = "v1"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// VersionInfo is served on GET /version.
type VersionInfo struct {
	Service         string `json:"service"`
	APIVersion      string `json:"api_version"`
	ForecastVintage string `json:"forecast_vintage"`
	Build           string `json:"build"`
	Env             string `json:"env"`
}

// Deps are the collaborators NewRouter wires together.
type Deps struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Version     VersionInfo

	// Public routes are mounted under /api/v1 without authentication.
	Public []Registrar
	// Protected routes run behind Authenticate then RateLimit.
	Protected    []Registrar
	Authenticate func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
}

// NewVersionInfo fills the fixed service identity fields.
func NewVersionInfo(vintage, build, env string) VersionInfo {
	if build == "" {
		build = "dev"
	}
	return VersionInfo{
		Service:         serviceName,
		APIVersion:      apiVersion,
		ForecastVintage: vintage,
		Build:           build,
		Env:             env,
	}
}

// NewRouter wires middleware, operational endpoints and the versioned API.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.AccessLog(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Resource not found."))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, d.Version)
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		for _, reg := range d.Public {
			reg.Register(api)
		}
		api.Group(func(pr chi.Router) {
			if d.Authenticate != nil {
				pr.Use(d.Authenticate)
			}
			if d.RateLimit != nil {
				pr.Use(d.RateLimit)
			}
			for _, reg := range d.Protected {
				reg.Register(pr)
			}
		})
	})

	return r
}
