package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"regioniq/internal/catalogue"
	"regioniq/internal/identity"
	"regioniq/internal/observations"
	obshandler "regioniq/internal/observations/handler"
	obsmetrics "regioniq/internal/observations/metrics"
	"regioniq/internal/platform/config"
	"regioniq/internal/platform/httpserver"
	"regioniq/internal/platform/logger"
	"regioniq/internal/platform/metrics"
	"regioniq/internal/platform/redis"
	rlmetrics "regioniq/internal/ratelimit/metrics"
	ratelimit "regioniq/internal/ratelimit/middleware"
	httptransport "regioniq/internal/transport/http"
	"regioniq/internal/usage"
	"regioniq/pkg/platform/middleware/auth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "data-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.SlogLevel())
	for _, w := range cfg.Warnings {
		log.Warn("configuration warning", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	queryMetrics := obsmetrics.New(reg)

	cat, err := catalogue.Load()
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}
	lifecycle := catalogue.Lifecycle(cfg.ForecastVintage)

	engineCfg := engineConfig(cfg, lifecycle)
	for _, w := range cat.CheckCostPolicy(engineCfg.Cost) {
		log.Warn("cost policy out of step with catalogue", "warning", w)
	}

	backend, closeStore := openStore(ctx, cfg, log, queryMetrics)
	defer closeStore()
	engine := observations.New(backend, engineCfg,
		observations.WithCatalogue(cat),
		observations.WithLogger(log),
		observations.WithMetrics(queryMetrics),
	)

	verifier, err := identity.Select(ctx, identity.Settings{
		SupabaseURL: cfg.Auth.SupabaseURL,
		AnonKey:     cfg.Auth.AnonKey,
		JWTSecret:   cfg.Auth.JWTSecret,
		JWKSURL:     cfg.Auth.JWKSURL,
		IssuerURL:   cfg.Auth.IssuerURL,
		Audience:    cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("configure token verification: %w", err)
	}

	ledger, closeLedger := openLedger(ctx, cfg, log)
	defer closeLedger()

	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log,
		ratelimit.WithMetrics(rlmetrics.New(reg)),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		Version:      httptransport.NewVersionInfo(lifecycle.Vintage, cfg.Server.GitSHA, cfg.Server.Env),
		Public:       []httptransport.Registrar{catalogue.NewHandler(cat, lifecycle, log)},
		Protected:    []httptransport.Registrar{obshandler.New(engine, usage.NewRecorder(ledger, log), log)},
		Authenticate: auth.RequireAuth(verifier, log),
		RateLimit:    limiter.RateLimitAuthenticated,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting data api",
		"addr", cfg.Server.Addr,
		"env", cfg.Server.Env,
		"store_backend", cfg.Store.Backend,
		"forecast_vintage", lifecycle.Vintage,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout) })
	g.Go(func() error { return limiter.Run(gctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("data api stopped")
	return nil
}

func engineConfig(cfg *config.Config, lc observations.Lifecycle) observations.Config {
	ec := observations.DefaultConfig(lc)
	ec.Cost.MaxRecords = cfg.Query.MaxRecords
	ec.Cost.WorstCaseMetrics = cfg.Query.WorstCaseMetrics
	ec.Cost.WorstCaseRegions = cfg.Query.WorstCaseRegions
	ec.RegionBatchSize = cfg.Query.RegionBatch
	ec.MetricBatchSize = cfg.Query.MetricBatch
	ec.PageSize = cfg.Query.PageSize
	return ec
}

// openLedger prefers Redis and falls back to process memory.
func openLedger(ctx context.Context, cfg *config.Config, log *slog.Logger) (usage.Ledger, func()) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, usage kept in memory", "error", err)
		return usage.NewMemoryLedger(), func() {}
	}
	if client == nil {
		return usage.NewMemoryLedger(), func() {}
	}
	return usage.NewRedisLedger(client.Client), func() { _ = client.Close() }
}
