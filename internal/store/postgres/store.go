// Package postgres reads observation views directly from PostgreSQL. It is
// used where the service holds a read-only DSN instead of going through the
// REST gateway; the caller's bearer token is not forwarded.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"regioniq/internal/store"
	"regioniq/pkg/platform/sentinel"
)

// Store implements store.Store over database/sql with the lib/pq driver.
type Store struct {
	db     *sql.DB
	tables map[string]struct{}
}

// New wraps an open database handle. Only the listed tables may be queried.
func New(db *sql.DB, tables ...string) *Store {
	allowed := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		allowed[t] = struct{}{}
	}
	return &Store{db: db, tables: allowed}
}

// Open connects with the given DSN and verifies the connection.
func Open(ctx context.Context, dsn string, tables ...string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("STORE_DSN must be set for the postgres store backend: %w", sentinel.ErrNotConfigured)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w: %w", err, sentinel.ErrUnavailable)
	}
	return New(db, tables...), nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fetch reads one page from req.Table.
func (s *Store) Fetch(ctx context.Context, req store.FetchRequest) ([]store.Row, error) {
	if _, ok := s.tables[req.Table]; !ok {
		return nil, fmt.Errorf("table %q is not readable: %w", req.Table, sentinel.ErrRejected)
	}
	query, args := buildQuery(req)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w: %w", req.Table, err, sentinel.ErrUnavailable)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		var r store.Row
		if err := rows.Scan(
			&r.RegionCode, &r.RegionName, &r.RegionLevel, &r.MetricID, &r.Period,
			&r.Value, &r.CILower, &r.CIUpper, &r.Unit, &r.Freq, &r.DataType,
			&r.DataQuality, &r.Vintage, &r.ForecastRunDate, &r.ForecastVersion,
			&r.IsCalculated,
		); err != nil {
			return nil, fmt.Errorf("scan %s: %w: %w", req.Table, err, sentinel.ErrBadResponse)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w: %w", req.Table, err, sentinel.ErrUnavailable)
	}
	return out, nil
}

func buildQuery(req store.FetchRequest) (string, []any) {
	var b strings.Builder
	args := []any{pq.Array(req.Regions), pq.Array(req.Metrics)}

	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE region_code = ANY($1) AND metric_id = ANY($2)",
		strings.Join(store.Columns, ", "), pq.QuoteIdentifier(req.Table))

	if len(req.Periods) > 0 {
		periods := make([]int64, len(req.Periods))
		for i, p := range req.Periods {
			periods[i] = int64(p)
		}
		args = append(args, pq.Array(periods))
		fmt.Fprintf(&b, " AND period = ANY($%d)", len(args))
	} else {
		args = append(args, req.PeriodFrom, req.PeriodTo)
		fmt.Fprintf(&b, " AND period >= $%d AND period <= $%d", len(args)-1, len(args))
	}
	if len(req.DataTypes) > 0 {
		args = append(args, pq.Array(req.DataTypes))
		fmt.Fprintf(&b, " AND data_type = ANY($%d)", len(args))
	}

	args = append(args, req.Offset, req.Limit)
	fmt.Fprintf(&b, " ORDER BY metric_id ASC, region_code ASC, period ASC OFFSET $%d LIMIT $%d", len(args)-1, len(args))
	return b.String(), args
}
