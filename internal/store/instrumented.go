package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "regioniq/internal/store"

// PageObserver receives the outcome of every page fetch.
type PageObserver interface {
	ObservePage(table string, rows int, d time.Duration, err error)
}

// Instrumented wraps a Store with a span and an observation per page.
type Instrumented struct {
	next     Store
	observer PageObserver
	tracer   trace.Tracer
}

// Instrument decorates next. A nil observer only traces.
func Instrument(next Store, observer PageObserver) *Instrumented {
	return &Instrumented{
		next:     next,
		observer: observer,
		tracer:   otel.Tracer(tracerName),
	}
}

func (s *Instrumented) Fetch(ctx context.Context, req FetchRequest) ([]Row, error) {
	ctx, span := s.tracer.Start(ctx, "store.fetch_page", trace.WithAttributes(
		attribute.String("store.table", req.Table),
		attribute.Int("store.regions", len(req.Regions)),
		attribute.Int("store.metrics", len(req.Metrics)),
		attribute.Int("store.offset", req.Offset),
		attribute.Int("store.limit", req.Limit),
	))
	defer span.End()

	start := time.Now()
	rows, err := s.next.Fetch(ctx, req)
	if s.observer != nil {
		s.observer.ObservePage(req.Table, len(rows), time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "page fetch failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("store.rows", len(rows)))
	return rows, nil
}
