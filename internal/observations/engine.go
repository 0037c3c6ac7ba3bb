// Package observations is the observation query engine: it validates a
// dimensional query, gates it on estimated cost, plans bounded range-filtered
// fetches against the level views of the store, and assembles the response.
package observations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"regioniq/internal/geo"
	"regioniq/internal/observations/metrics"
	"regioniq/internal/store"
	dErrors "regioniq/pkg/domain-errors"
	"regioniq/pkg/platform/sentinel"
	strutil "regioniq/pkg/platform/strings"
	"regioniq/pkg/requestcontext"
)

const unboundedHint = "Use schema to enumerate values, then query a subset."

// Config is the immutable engine policy. Build it once at startup.
type Config struct {
	Cost            CostPolicy
	RegionBatchSize int
	MetricBatchSize int
	PageSize        int
	DefaultFrom     int
	DefaultTo       int
	Lifecycle       Lifecycle
}

// DefaultConfig returns the production policy with the given lifecycle.
func DefaultConfig(lc Lifecycle) Config {
	return Config{
		Cost:            DefaultCostPolicy(),
		RegionBatchSize: 100,
		MetricBatchSize: 50,
		PageSize:        10_000,
		DefaultFrom:     1991,
		DefaultTo:       2050,
		Lifecycle:       lc,
	}
}

// MetricCatalogue answers unit lookups for compatibility warnings.
type MetricCatalogue interface {
	MetricUnit(metricID string) (unit string, ok bool)
}

// Request is one query invocation.
type Request struct {
	Query Query
	// Limit is the caller's requested record cap before the global ceiling.
	Limit int
	// Cursor resumes a truncated query; nil starts from the beginning.
	Cursor *int
	// URL is echoed in the response metadata.
	URL string
}

// Engine executes observation queries. It holds no per-request state; one
// Engine serves concurrent requests.
type Engine struct {
	cfg       Config
	store     store.Store
	catalogue MetricCatalogue
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalogue enables metric compatibility warnings.
func WithCatalogue(c MetricCatalogue) Option {
	return func(e *Engine) { e.catalogue = c }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New constructs an engine reading from s.
func New(s store.Store, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		store:  s,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine policy.
func (e *Engine) Config() Config {
	return e.cfg
}

// Check validates q and applies the unbounded and cost gates without
// touching the store. It returns the estimate.
func (e *Engine) Check(q Query) (int, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	if err := checkBounded(q); err != nil {
		return 0, err
	}
	return e.cfg.Cost.Gate(q)
}

// Execute runs req end to end. Either the full result (up to the cap) or a
// single error is returned; there are no partial successes.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	estimated, err := e.Check(req.Query)
	if err != nil {
		e.metrics.ObserveQuery(outcome(err), estimated, 0, time.Since(start))
		return nil, err
	}

	metricIDs, _ := req.Query.Extract(DimMetric)
	regionCodes, _ := req.Query.Extract(DimRegion)
	dataTypes, _ := req.Query.Extract(DimDataType)
	scenarios, _ := req.Query.Extract(DimScenario)
	scenarios = strutil.DedupeAndTrim(scenarios)
	if len(scenarios) == 0 {
		scenarios = []string{ScenarioBaseline}
	}
	explicitMeasure := ""
	if measures, bounded := req.Query.Extract(DimMeasure); bounded && len(measures) > 0 {
		explicitMeasure = measures[0]
	}

	cursor := 0
	if req.Cursor != nil {
		cursor = *req.Cursor
	}

	run := &execution{
		store:     e.store,
		token:     requestcontext.Token(ctx),
		window:    resolveWindow(req.Query, e.cfg.DefaultFrom, e.cfg.DefaultTo),
		dataTypes: dataTypes,
		scenarios: scenarios,
		measure:   explicitMeasure,
		cursor:    cursor,
		pageSize:  max(1, e.cfg.PageSize),
		cap:       min(e.cfg.Cost.MaxRecords, max(1, req.Limit)),
	}
	plan := planBatches(regionCodes, metricIDs, e.cfg.RegionBatchSize, e.cfg.MetricBatchSize)

	if err := run.drain(ctx, plan); err != nil {
		e.logger.ErrorContext(ctx, "observation fetch failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", requestcontext.UserID(ctx),
			"batches", len(plan),
			"error", err,
		)
		e.metrics.ObserveQuery(outcome(err), estimated, 0, time.Since(start))
		return nil, err
	}

	res := assembly{
		lifecycle: e.cfg.Lifecycle,
		now:       requestcontext.Now(ctx),
		url:       req.URL,
		estimated: estimated,
		cursor:    cursor,
		records:   run.records,
		truncated: run.full(),
		warnings:  append(e.warnings(metricIDs), cursorWarnings(cursor, len(plan))...),
	}.result()

	e.metrics.ObserveQuery("ok", estimated, len(res.Data), time.Since(start))
	return res, nil
}

// checkBounded rejects queries that do not name explicit metrics and regions.
// Both an "all" selection and an absent dimension count as unbounded.
func checkBounded(q Query) error {
	var offending []string
	for _, code := range []DimensionCode{DimMetric, DimRegion} {
		if !q.explicit(code) {
			offending = append(offending, string(code))
		}
	}
	if len(offending) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeUnboundedQuery,
		"metric=all and region=all are not allowed in v1; provide explicit metric and region selections.").
		WithDetails(map[string]any{
			"dimensions": offending,
			"hint":       unboundedHint,
		})
}

// execution is the mutable state of one Execute call.
type execution struct {
	store     store.Store
	token     string
	window    window
	dataTypes []string
	scenarios []string
	measure   string
	cursor    int
	pageSize  int
	cap       int
	records   []Record
}

func (x *execution) full() bool {
	return len(x.records) >= x.cap
}

// drain visits batches in plan order and pages each one until it is
// exhausted or the global cap is reached. The cap spans all batches.
func (x *execution) drain(ctx context.Context, plan []batch) error {
	for i := range plan {
		if x.full() {
			return nil
		}
		if err := x.pageBatch(ctx, &plan[i]); err != nil {
			return err
		}
	}
	return nil
}

func (x *execution) pageBatch(ctx context.Context, b *batch) error {
	offset := x.cursor
	for !x.full() {
		limit := min(x.pageSize, x.cap-len(x.records))
		rows, err := x.store.Fetch(ctx, store.FetchRequest{
			Table:      b.Table,
			Token:      x.token,
			Regions:    b.Regions,
			Metrics:    b.Metrics,
			PeriodFrom: x.window.From,
			PeriodTo:   x.window.To,
			Periods:    x.window.Periods,
			DataTypes:  x.dataTypes,
			Offset:     offset,
			Limit:      limit,
		})
		if err != nil {
			return storeError(b.Table, err)
		}
		if len(rows) == 0 {
			return nil
		}
		for _, row := range rows {
			if !x.expand(b.Level, row) {
				return nil
			}
		}
		offset += len(rows)
		if len(rows) < limit {
			return nil
		}
	}
	return nil
}

// expand appends one record per scenario and reports whether there is room
// for more.
func (x *execution) expand(level geo.Level, row store.Row) bool {
	for _, scenario := range x.scenarios {
		if x.full() {
			return false
		}
		m := Resolve(scenario, x.measure)
		x.records = append(x.records, Record{
			MetricID:        row.MetricID,
			RegionCode:      geo.ToPublic(row.RegionCode),
			GeoSchema:       geo.GeoSchema,
			Level:           level.String(),
			TimePeriod:      row.Period,
			Scenario:        scenario,
			Measure:         string(m),
			Value:           PickValue(row, m),
			Unit:            row.Unit,
			DataType:        row.DataType,
			DataQuality:     row.DataQuality,
			ConfidenceLower: row.CILower,
			ConfidenceUpper: row.CIUpper,
		})
	}
	return !x.full()
}

func storeError(table string, err error) error {
	if errors.Is(err, sentinel.ErrNotConfigured) {
		return dErrors.Wrap(err, dErrors.CodeDataAPIMisconfigured,
			"Data API is not configured to reach the underlying data store.").
			WithDetails(map[string]any{"reason": err.Error()})
	}
	return dErrors.Wrap(err, dErrors.CodeDataUnavailable, "Failed to query underlying data store.").
		WithDetails(map[string]any{"table": table, "reason": err.Error()})
}

func outcome(err error) string {
	if de, ok := dErrors.As(err); ok {
		return string(de.Code)
	}
	return string(dErrors.CodeInternal)
}
