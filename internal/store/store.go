// Package store defines the read contract the observation engine has with the
// remote statistics store. Adapters live in the postgrest and postgres
// subpackages.
package store

import (
	"context"
	"fmt"

	"regioniq/pkg/platform/sentinel"
)

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

// Columns is the projection requested from every level view.
var Columns = []string{
	"region_code", "region_name", "region_level", "metric_id", "period",
	"value", "ci_lower", "ci_upper", "unit", "freq", "data_type",
	"data_quality", "vintage", "forecast_run_date", "forecast_version",
	"is_calculated",
}

// Row is one observation as stored. Nullable columns are pointers.
type Row struct {
	RegionCode      string   `json:"region_code"`
	RegionName      *string  `json:"region_name"`
	RegionLevel     *string  `json:"region_level"`
	MetricID        string   `json:"metric_id"`
	Period          int      `json:"period"`
	Value           *float64 `json:"value"`
	CILower         *float64 `json:"ci_lower"`
	CIUpper         *float64 `json:"ci_upper"`
	Unit            *string  `json:"unit"`
	Freq            *string  `json:"freq"`
	DataType        *string  `json:"data_type"`
	DataQuality     *string  `json:"data_quality"`
	Vintage         *string  `json:"vintage"`
	ForecastRunDate *string  `json:"forecast_run_date"`
	ForecastVersion *string  `json:"forecast_version"`
	IsCalculated    *bool    `json:"is_calculated"`
}

// FetchRequest is one page of a range-filtered read against a level view.
// Rows are ordered by (metric_id, region_code, period) ascending.
type FetchRequest struct {
	Table string
	// Token is the caller's bearer token, forwarded where the store enforces
	// row-level security.
	Token   string
	Regions []string
	Metrics []string
	// PeriodFrom and PeriodTo bound period inclusively. Ignored when Periods
	// is non-empty.
	PeriodFrom int
	PeriodTo   int
	Periods    []int
	DataTypes  []string
	Offset     int
	Limit      int
}

// Store reads observation rows.
type Store interface {
	Fetch(ctx context.Context, req FetchRequest) ([]Row, error)
}

// Unconfigured is a Store that fails every fetch. It stands in when the
// process started without store credentials so the API can still answer
// with a precise error.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Fetch(context.Context, FetchRequest) ([]Row, error) {
	return nil, fmt.Errorf("%s: %w", u.Reason, sentinel.ErrNotConfigured)
}
