package observations

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "regioniq/pkg/domain-errors"
)

func TestEstimate(t *testing.T) {
	p := DefaultCostPolicy()

	tests := []struct {
		name  string
		query Query
		want  int
	}{
		{
			name:  "explicit selections multiply",
			query: Query{items(DimMetric, "a", "b"), items(DimRegion, "UKC", "UKD", "UKE"), span(DimTimePeriod, "2020", "2029")},
			want:  2 * 3 * 10,
		},
		{
			name:  "reversed range counts the same years",
			query: Query{items(DimMetric, "a"), items(DimRegion, "UKC"), span(DimTimePeriod, "2029", "2020")},
			want:  10,
		},
		{
			name:  "non-numeric range counts two",
			query: Query{items(DimMetric, "a"), items(DimRegion, "UKC"), span(DimTimePeriod, "start", "end")},
			want:  2,
		},
		{
			name:  "time_period items count each year",
			query: Query{items(DimMetric, "a"), items(DimRegion, "UKC"), items(DimTimePeriod, "2020", "2025", "2030")},
			want:  3,
		},
		{
			name:  "absent time_period is worst case",
			query: Query{items(DimMetric, "a"), items(DimRegion, "UKC")},
			want:  200,
		},
		{
			name:  "scenarios and measures multiply",
			query: Query{items(DimMetric, "a"), items(DimRegion, "UKC"), items(DimTimePeriod, "2020"), items(DimScenario, "baseline", "upside"), items(DimMeasure, "value", "ci_lower")},
			want:  4,
		},
		{
			name:  "all metrics and regions are worst case",
			query: Query{all(DimMetric), all(DimRegion), items(DimTimePeriod, "2020")},
			want:  5000 * 50_000,
		},
		{
			name:  "empty query is worst case",
			query: Query{},
			want:  5000 * 50_000 * 200,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Estimate(tc.query))
		})
	}
}

func TestEstimateIsMonotone(t *testing.T) {
	p := DefaultCostPolicy()
	base := Query{items(DimMetric, "a"), items(DimRegion, "UKC"), span(DimTimePeriod, "2020", "2024")}
	wider := Query{items(DimMetric, "a", "b"), items(DimRegion, "UKC"), span(DimTimePeriod, "2020", "2024")}
	unbounded := Query{all(DimMetric), items(DimRegion, "UKC"), span(DimTimePeriod, "2020", "2024")}

	assert.Less(t, p.Estimate(base), p.Estimate(wider))
	assert.Less(t, p.Estimate(wider), p.Estimate(unbounded))
	assert.GreaterOrEqual(t, p.Estimate(base), 1)
}

func TestEstimateSaturates(t *testing.T) {
	p := DefaultCostPolicy()
	p.WorstCaseMetrics = math.MaxInt / 2
	p.WorstCaseRegions = math.MaxInt / 2

	narrow := Query{all(DimMetric), items(DimRegion, "UKC"), span(DimTimePeriod, "2020", "2020")}
	wide := Query{all(DimMetric), all(DimRegion), span(DimTimePeriod, "0", "9999")}

	assert.Equal(t, math.MaxInt/2, p.Estimate(narrow))
	assert.Equal(t, math.MaxInt, p.Estimate(wide))
	assert.LessOrEqual(t, p.Estimate(narrow), p.Estimate(wide))

	got, err := p.Gate(wide)
	require.Error(t, err)
	assert.Equal(t, math.MaxInt, got)
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeQueryTooLarge, de.Code)
}

func TestEstimateWidestYearRange(t *testing.T) {
	p := DefaultCostPolicy()
	q := Query{items(DimMetric, "a"), items(DimRegion, "UKC"), span(DimTimePeriod, "0", "9999")}
	assert.Equal(t, 10_000, p.Estimate(q))

	q = Query{items(DimMetric, "a", "b", "c"), items(DimRegion, "UKC", "UKD", "UKE", "UKF", "UKG", "UKH", "UKI", "UKJ", "UKK"), span(DimTimePeriod, "0", "9999")}
	got, err := p.Gate(q)
	require.Error(t, err)
	assert.Equal(t, 270_000, got)
}

func TestGate(t *testing.T) {
	p := DefaultCostPolicy()

	t.Run("at the ceiling passes", func(t *testing.T) {
		p := p
		p.MaxRecords = 10
		got, err := p.Gate(Query{items(DimMetric, "a"), items(DimRegion, "UKC"), span(DimTimePeriod, "2020", "2029")})
		require.NoError(t, err)
		assert.Equal(t, 10, got)
	})

	t.Run("above the ceiling is refused with details", func(t *testing.T) {
		got, err := p.Gate(Query{all(DimMetric), items(DimRegion, "UKC")})
		require.Error(t, err)
		assert.Equal(t, 5000*200, got)

		de, ok := dErrors.As(err)
		require.True(t, ok)
		assert.Equal(t, dErrors.CodeQueryTooLarge, de.Code)
		assert.Equal(t, map[string]any{"estimated_records": 1_000_000, "max_records": 250_000}, de.Details)
	})
}
