package catalogue

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regioniq/internal/observations"
	"regioniq/pkg/requestcontext"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Regions, 12)
	assert.Equal(t, TimeCoverage{MinYear: 1991, MaxYear: 2050}, c.TimeCoverage)

	m, ok := c.Metric("population_total")
	require.True(t, ok)
	assert.Equal(t, "people", m.Unit)

	unit, ok := c.MetricUnit("emp_total_jobs")
	assert.True(t, ok)
	assert.Equal(t, "jobs/level", unit)

	_, ok = c.MetricUnit("growth_yoy")
	assert.False(t, ok)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "metrics: []\ncolour: red\n"},
		{"duplicate metric", "metrics:\n  - metric_id: a\n  - metric_id: a\n"},
		{"metric without id", "metrics:\n  - name: nameless\n"},
		{"non-public region", "regions:\n  - {region_code: E12000001, region_name: North East, level: ITL1}\n"},
		{"inverted coverage", "time_coverage: {min_year: 2050, max_year: 1991}\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLifecycle(t *testing.T) {
	assert.Equal(t, observations.Lifecycle{
		Vintage: "2026-W03",
		Source:  "RegionIQ Forecast Engine v1",
		Status:  "provisional",
	}, Lifecycle(" 2026-W03 "))
	assert.Equal(t, "unreleased", Lifecycle("").Vintage)
}

func TestCheckCostPolicy(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Empty(t, c.CheckCostPolicy(observations.DefaultCostPolicy()))

	tight := observations.DefaultCostPolicy()
	tight.WorstCaseMetrics = 2
	tight.WorstCaseYears = 10
	assert.Len(t, c.CheckCostPolicy(tight), 2)
}

func TestSchemaEndpoint(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(c, Lifecycle("2026-W03"), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	req := httptest.NewRequest(http.MethodGet, "/schema", nil)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	req = req.WithContext(requestcontext.WithTime(req.Context(), now))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body Schema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "v1", body.Version)
	assert.Equal(t, "2026-W03", body.Vintage)
	assert.Equal(t, "2026-01-02T03:04:05.000000Z", body.GeneratedAt)
	assert.Equal(t, []string{"baseline", "upside", "downside"}, body.Scenarios)
	assert.Empty(t, body.Breakdowns)

	require.Len(t, body.Metrics, 4)
	assert.Equal(t, "emp_total_jobs", body.Metrics[0].ID)
	assert.Equal(t, "population_total", body.Metrics[3].ID)

	require.Len(t, body.Regions, 12)
	assert.Equal(t, "UKC", body.Regions[0].Code)
	assert.Equal(t, "UKN", body.Regions[11].Code)
	require.NotNil(t, body.Regions[0].ParentCode)
	assert.Equal(t, "UK", *body.Regions[0].ParentCode)
	assert.Equal(t, "UK_ITL_2025", body.Regions[0].GeoSchema)
	assert.Nil(t, body.Regions[0].ValidTo)
}
