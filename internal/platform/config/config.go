// Package config loads the process configuration from the environment once
// at startup. Nothing else reads the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Env             string
	GitSHA          string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// StoreBackend selects the observation store adapter.
type StoreBackend string

const (
	StoreREST     StoreBackend = "rest"
	StorePostgres StoreBackend = "postgres"
)

// Store configures the observation store.
type Store struct {
	Backend     StoreBackend
	SupabaseURL string
	AnonKey     string
	DSN         string
	Timeout     time.Duration
}

// Auth configures bearer-token verification.
type Auth struct {
	SupabaseURL string
	AnonKey     string
	JWTSecret   string
	JWKSURL     string
	IssuerURL   string
	Audience    string
}

// RedisConfig configures the optional Redis connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Query is the engine policy.
type Query struct {
	MaxRecords       int
	RegionBatch      int
	MetricBatch      int
	PageSize         int
	WorstCaseMetrics int
	WorstCaseRegions int
}

// RateLimit configures the per-user limiter. RPS <= 0 disables it.
type RateLimit struct {
	RPS   float64
	Burst int
}

// Config is the complete, immutable process configuration.
type Config struct {
	Server             Server
	Store              Store
	Auth               Auth
	Redis              RedisConfig
	Query              Query
	RateLimit          RateLimit
	ForecastVintage    string
	CORSAllowedOrigins []string

	// Warnings collects non-fatal problems found while loading. They are
	// logged once the logger exists.
	Warnings []string
}

// DefaultCORSOrigins are the first-party web origins.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"https://app.regioniq.io",
	"https://regioniq.io",
	"https://www.regioniq.io",
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// FromEnv builds the configuration from environment variables.
func FromEnv() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	l := loader{getenv: getenv}

	supabaseURL := strings.TrimRight(l.str("SUPABASE_URL", ""), "/")
	anonKey := l.str("SUPABASE_ANON_KEY", "")

	cfg := &Config{
		Server: Server{
			Addr:            l.str("DATA_API_ADDR", ":8000"),
			Env:             l.str("ENV", "development"),
			GitSHA:          l.str("GIT_SHA", "dev"),
			LogLevel:        l.str("LOG_LEVEL", "info"),
			ShutdownTimeout: l.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: Store{
			Backend:     StoreBackend(strings.ToLower(l.str("STORE_BACKEND", string(StoreREST)))),
			SupabaseURL: supabaseURL,
			AnonKey:     anonKey,
			DSN:         l.str("STORE_DSN", ""),
			Timeout:     l.duration("STORE_TIMEOUT", 15*time.Second),
		},
		Auth: Auth{
			SupabaseURL: supabaseURL,
			AnonKey:     anonKey,
			JWTSecret:   l.str("SUPABASE_JWT_SECRET", ""),
			JWKSURL:     l.str("AUTH_JWKS_URL", ""),
			IssuerURL:   l.str("AUTH_ISSUER_URL", ""),
			Audience:    l.str("AUTH_AUDIENCE", ""),
		},
		Redis: RedisConfig{
			URL:          l.str("REDIS_URL", ""),
			PoolSize:     l.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: l.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  l.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  l.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: l.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Query: Query{
			MaxRecords:       l.int("QUERY_MAX_RECORDS", 250_000),
			RegionBatch:      l.int("QUERY_REGION_BATCH", 100),
			MetricBatch:      l.int("QUERY_METRIC_BATCH", 50),
			PageSize:         l.int("QUERY_PAGE_SIZE", 10_000),
			WorstCaseMetrics: l.int("QUERY_WORST_CASE_METRICS", 5000),
			WorstCaseRegions: l.int("QUERY_WORST_CASE_REGIONS", 50_000),
		},
		RateLimit: RateLimit{
			RPS:   l.float("RATE_LIMIT_RPS", 5),
			Burst: l.int("RATE_LIMIT_BURST", 20),
		},
		ForecastVintage:    l.str("FORECAST_VINTAGE", "unreleased"),
		CORSAllowedOrigins: l.list("CORS_ALLOWED_ORIGINS", DefaultCORSOrigins),
	}
	if len(l.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(l.errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Warnings = cfg.warnings()
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreREST, StorePostgres:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreREST, StorePostgres, c.Store.Backend)
	}
	q := c.Query
	for name, v := range map[string]int{
		"QUERY_MAX_RECORDS":        q.MaxRecords,
		"QUERY_REGION_BATCH":       q.RegionBatch,
		"QUERY_METRIC_BATCH":       q.MetricBatch,
		"QUERY_PAGE_SIZE":          q.PageSize,
		"QUERY_WORST_CASE_METRICS": q.WorstCaseMetrics,
		"QUERY_WORST_CASE_REGIONS": q.WorstCaseRegions,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}

func (c *Config) warnings() []string {
	var w []string
	switch c.Store.Backend {
	case StoreREST:
		if c.Store.SupabaseURL == "" || c.Store.AnonKey == "" {
			w = append(w, "SUPABASE_URL and SUPABASE_ANON_KEY are not set; observation queries will fail with DATA_API_MISCONFIGURED")
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			w = append(w, "STORE_DSN is not set; observation queries will fail with DATA_API_MISCONFIGURED")
		}
	}
	if c.Auth.JWKSURL == "" && c.Auth.JWTSecret == "" && (c.Auth.SupabaseURL == "" || c.Auth.AnonKey == "") {
		w = append(w, "no token verifier is configured; every request will fail with AUTH_CONFIG_MISSING")
	}
	if c.IsProduction() && c.ForecastVintage == "unreleased" {
		w = append(w, "FORECAST_VINTAGE is not set in production")
	}
	return w
}

// loader reads typed values and collects parse errors.
type loader struct {
	getenv func(string) string
	errs   []string
}

func (l *loader) str(key, def string) string {
	if v := strings.TrimSpace(l.getenv(key)); v != "" {
		return v
	}
	return def
}

func (l *loader) int(key string, def int) int {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (l *loader) float(key string, def float64) float64 {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (l *loader) list(key string, def []string) []string {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
