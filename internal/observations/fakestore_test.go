package observations

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"regioniq/internal/store"
)

// memStore is a paginating in-memory store keyed by table. It applies the
// same filters and ordering as the remote adapters.
type memStore struct {
	mu    sync.Mutex
	rows  map[string][]store.Row
	calls []store.FetchRequest
	err   error
}

func newMemStore() *memStore {
	return &memStore{rows: map[string][]store.Row{}}
}

func (m *memStore) add(table string, rows ...store.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[table] = append(m.rows[table], rows...)
}

func (m *memStore) Fetch(_ context.Context, req store.FetchRequest) ([]store.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}

	var matched []store.Row
	for _, r := range m.rows[req.Table] {
		if !slices.Contains(req.Regions, r.RegionCode) || !slices.Contains(req.Metrics, r.MetricID) {
			continue
		}
		if len(req.Periods) > 0 {
			if !slices.Contains(req.Periods, r.Period) {
				continue
			}
		} else if r.Period < req.PeriodFrom || r.Period > req.PeriodTo {
			continue
		}
		if len(req.DataTypes) > 0 && (r.DataType == nil || !slices.Contains(req.DataTypes, *r.DataType)) {
			continue
		}
		matched = append(matched, r)
	}
	slices.SortFunc(matched, func(a, b store.Row) int {
		return cmp.Or(
			cmp.Compare(a.MetricID, b.MetricID),
			cmp.Compare(a.RegionCode, b.RegionCode),
			cmp.Compare(a.Period, b.Period),
		)
	})

	if req.Offset >= len(matched) {
		return []store.Row{}, nil
	}
	end := min(len(matched), req.Offset+req.Limit)
	return slices.Clone(matched[req.Offset:end]), nil
}

func (m *memStore) fetches() []store.FetchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func ptr[T any](v T) *T { return &v }

func forecastRow(region, metric string, period int, value, lo, hi float64) store.Row {
	return store.Row{
		RegionCode: region,
		MetricID:   metric,
		Period:     period,
		Value:      ptr(value),
		CILower:    ptr(lo),
		CIUpper:    ptr(hi),
		Unit:       ptr("persons"),
		DataType:   ptr("forecast"),
	}
}

func historicalRow(region, metric string, period int, value float64) store.Row {
	return store.Row{
		RegionCode: region,
		MetricID:   metric,
		Period:     period,
		Value:      ptr(value),
		Unit:       ptr("persons"),
		DataType:   ptr("historical"),
	}
}

func items(code DimensionCode, values ...string) Dimension {
	return Dimension{Code: code, Selection: ItemSelection{Values: values}}
}

func all(code DimensionCode) Dimension {
	return Dimension{Code: code, Selection: AllSelection{}}
}

func span(code DimensionCode, from, to string) Dimension {
	return Dimension{Code: code, Selection: RangeSelection{From: from, To: to}}
}
