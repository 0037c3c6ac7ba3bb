package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regioniq/internal/store"
	"regioniq/pkg/platform/sentinel"
)

func TestBuildQuery(t *testing.T) {
	t.Run("period range", func(t *testing.T) {
		query, args := buildQuery(store.FetchRequest{
			Table:      "itl2_latest_all",
			Regions:    []string{"TLC1"},
			Metrics:    []string{"population_total"},
			PeriodFrom: 1991,
			PeriodTo:   2050,
			Offset:     20,
			Limit:      10,
		})

		assert.Contains(t, query, `FROM "itl2_latest_all"`)
		assert.Contains(t, query, "period >= $3 AND period <= $4")
		assert.Contains(t, query, "OFFSET $5 LIMIT $6")
		assert.NotContains(t, query, "data_type = ANY")
		require.Len(t, args, 6)
		assert.Equal(t, 1991, args[2])
		assert.Equal(t, 2050, args[3])
		assert.Equal(t, 20, args[4])
		assert.Equal(t, 10, args[5])
	})

	t.Run("explicit periods and data types", func(t *testing.T) {
		query, args := buildQuery(store.FetchRequest{
			Table:     "lad_latest_all",
			Regions:   []string{"E06000001"},
			Metrics:   []string{"emp_total_jobs"},
			Periods:   []int{2021, 2023},
			DataTypes: []string{"forecast"},
			Limit:     5,
		})

		assert.Contains(t, query, "period = ANY($3)")
		assert.Contains(t, query, "data_type = ANY($4)")
		assert.Contains(t, query, "ORDER BY metric_id ASC, region_code ASC, period ASC OFFSET $5 LIMIT $6")
		assert.Len(t, args, 6)
	})
}

func TestFetchRejectsUnknownTable(t *testing.T) {
	s := New(nil, "itl1_latest_all")

	_, err := s.Fetch(context.Background(), store.FetchRequest{Table: "users"})
	assert.ErrorIs(t, err, sentinel.ErrRejected)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.ErrorIs(t, err, sentinel.ErrNotConfigured)
}
