//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"regioniq/internal/store"
	"regioniq/pkg/platform/sentinel"
	"regioniq/pkg/testutil/containers"
)

const levelView = `CREATE TABLE %s (
	region_code       text NOT NULL,
	region_name       text,
	region_level      text,
	metric_id         text NOT NULL,
	period            integer NOT NULL,
	value             double precision,
	ci_lower          double precision,
	ci_upper          double precision,
	unit              text,
	freq              text,
	data_type         text,
	data_quality      text,
	vintage           text,
	forecast_run_date text,
	forecast_version  text,
	is_calculated     boolean
)`

type StoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.Exec(s.T(),
		fmtTable("itl1_latest_all"),
		`INSERT INTO itl1_latest_all (region_code, region_name, region_level, metric_id, period, value, ci_lower, ci_upper, unit, data_type, is_calculated) VALUES
			('E12000001', 'North East', 'ITL1', 'population_total', 2023, 2700000, NULL, NULL, 'people', 'historical', false),
			('E12000001', 'North East', 'ITL1', 'population_total', 2024, 2710000, NULL, NULL, 'people', 'historical', false),
			('E12000001', 'North East', 'ITL1', 'population_total', 2030, 2800000, 2750000, 2850000, 'people', 'forecast', false),
			('E12000002', 'North West', 'ITL1', 'population_total', 2024, 7500000, NULL, NULL, 'people', 'historical', false),
			('E12000001', 'North East', 'ITL1', 'nominal_gva_mn_gbp', 2024, 65000, NULL, NULL, '£m', 'historical', true)`,
	)

	st, err := Open(context.Background(), s.pg.DSN, "itl1_latest_all")
	s.Require().NoError(err)
	s.store = st
}

func (s *StoreSuite) TearDownSuite() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func fmtTable(name string) string {
	return fmt.Sprintf(levelView, name)
}

func (s *StoreSuite) fetch(req store.FetchRequest) []store.Row {
	req.Table = "itl1_latest_all"
	if req.Limit == 0 {
		req.Limit = 100
	}
	rows, err := s.store.Fetch(context.Background(), req)
	s.Require().NoError(err)
	return rows
}

// =============================================================================
// Filtering and Ordering
// =============================================================================

func (s *StoreSuite) TestRangeFilterAndOrder() {
	rows := s.fetch(store.FetchRequest{
		Regions:    []string{"E12000001", "E12000002"},
		Metrics:    []string{"population_total", "nominal_gva_mn_gbp"},
		PeriodFrom: 2024,
		PeriodTo:   2050,
	})

	s.Require().Len(rows, 4)
	s.Equal("nominal_gva_mn_gbp", rows[0].MetricID)
	s.Equal([]int{2024, 2030}, []int{rows[1].Period, rows[2].Period})
	s.Equal("E12000002", rows[3].RegionCode)

	s.Require().NotNil(rows[2].CILower)
	s.InDelta(2750000, *rows[2].CILower, 0.001)
	s.Nil(rows[1].CILower)
	s.Require().NotNil(rows[0].IsCalculated)
	s.True(*rows[0].IsCalculated)
}

func (s *StoreSuite) TestExplicitPeriodsAndDataTypes() {
	rows := s.fetch(store.FetchRequest{
		Regions:   []string{"E12000001"},
		Metrics:   []string{"population_total"},
		Periods:   []int{2023, 2030},
		DataTypes: []string{"forecast"},
	})

	s.Require().Len(rows, 1)
	s.Equal(2030, rows[0].Period)
}

func (s *StoreSuite) TestOffsetAndLimitPage() {
	req := store.FetchRequest{
		Regions:    []string{"E12000001"},
		Metrics:    []string{"population_total"},
		PeriodFrom: 1991,
		PeriodTo:   2050,
		Limit:      2,
	}
	first := s.fetch(req)
	req.Offset = 2
	second := s.fetch(req)

	s.Require().Len(first, 2)
	s.Require().Len(second, 1)
	s.Equal(2030, second[0].Period)
}

func (s *StoreSuite) TestUnlistedTableIsRejected() {
	_, err := s.store.Fetch(context.Background(), store.FetchRequest{Table: "lad_latest_all", Limit: 1})
	s.ErrorIs(err, sentinel.ErrRejected)
}
