package main

import (
	"context"
	"log/slog"

	"regioniq/internal/geo"
	obsmetrics "regioniq/internal/observations/metrics"
	"regioniq/internal/platform/config"
	"regioniq/internal/store"
	"regioniq/internal/store/postgres"
	"regioniq/internal/store/postgrest"
)

// openStore builds the configured backend. A backend that cannot be built
// is replaced by store.Unconfigured so the API still starts and reports
// DATA_API_MISCONFIGURED on query.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger, m *obsmetrics.Metrics) (store.Store, func()) {
	var (
		backend store.Store
		closer  = func() {}
	)

	switch cfg.Store.Backend {
	case config.StorePostgres:
		tables := make([]string, 0, len(geo.Levels))
		for _, l := range geo.Levels {
			tables = append(tables, l.Table())
		}
		pg, err := postgres.Open(ctx, cfg.Store.DSN, tables...)
		if err != nil {
			log.Error("postgres store unavailable", "error", err)
			backend = store.Unconfigured{Reason: err.Error()}
			break
		}
		backend, closer = pg, func() { _ = pg.Close() }
	default:
		rest, err := postgrest.New(cfg.Store.SupabaseURL, cfg.Store.AnonKey, postgrest.WithTimeout(cfg.Store.Timeout))
		if err != nil {
			log.Error("rest store unavailable", "error", err)
			backend = store.Unconfigured{Reason: err.Error()}
			break
		}
		backend = rest
	}

	return store.Instrument(backend, m), closer
}
