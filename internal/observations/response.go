package observations

import (
	"fmt"
	"time"
)

// timestampLayout renders UTC with microseconds and a literal Z.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Lifecycle describes the release the served observations belong to.
type Lifecycle struct {
	Vintage string
	Source  string
	Status  string
}

// Record is one observation in a response.
type Record struct {
	MetricID        string   `json:"metric_id"`
	RegionCode      string   `json:"region_code"`
	GeoSchema       string   `json:"geo_schema"`
	Level           string   `json:"level"`
	TimePeriod      int      `json:"time_period"`
	Scenario        string   `json:"scenario"`
	Measure         string   `json:"measure"`
	Value           *float64 `json:"value"`
	Unit            *string  `json:"unit"`
	DataType        *string  `json:"data_type"`
	DataQuality     *string  `json:"data_quality"`
	ConfidenceLower *float64 `json:"confidence_lower"`
	ConfidenceUpper *float64 `json:"confidence_upper"`
	BreakdownType   *string  `json:"breakdown_type"`
	BreakdownValue  *string  `json:"breakdown_value"`
}

// Meta is the provenance and paging block of a response.
type Meta struct {
	Vintage          string   `json:"vintage"`
	GeneratedAt      string   `json:"generated_at"`
	Source           string   `json:"source"`
	Status           string   `json:"status"`
	EstimatedRecords int      `json:"estimated_records"`
	ReturnedRecords  int      `json:"returned_records"`
	Truncated        bool     `json:"truncated"`
	Warnings         []string `json:"warnings"`
	Citation         string   `json:"citation"`
	URL              string   `json:"url"`
	AccessedAt       string   `json:"accessed_at"`
	NextCursor       *int     `json:"next_cursor,omitempty"`
}

// Result is a complete query response.
type Result struct {
	Meta Meta     `json:"meta"`
	Data []Record `json:"data"`
}

// FormatTimestamp renders t in the response timestamp form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Citation is the suggested attribution for a response.
func Citation(lc Lifecycle, accessedAt string) string {
	return fmt.Sprintf("RegionIQ Data API (%s). Accessed %s. Source: %s.", lc.Vintage, accessedAt, lc.Source)
}

type assembly struct {
	lifecycle Lifecycle
	now       time.Time
	url       string
	estimated int
	cursor    int
	records   []Record
	truncated bool
	warnings  []string
}

func (a assembly) result() *Result {
	ts := FormatTimestamp(a.now)
	warnings := a.warnings
	if warnings == nil {
		warnings = []string{}
	}
	records := a.records
	if records == nil {
		records = []Record{}
	}
	meta := Meta{
		Vintage:          a.lifecycle.Vintage,
		GeneratedAt:      ts,
		Source:           a.lifecycle.Source,
		Status:           a.lifecycle.Status,
		EstimatedRecords: a.estimated,
		ReturnedRecords:  len(records),
		Truncated:        a.truncated,
		Warnings:         warnings,
		Citation:         Citation(a.lifecycle, ts),
		URL:              a.url,
		AccessedAt:       ts,
	}
	if a.truncated {
		next := a.cursor + len(records)
		meta.NextCursor = &next
	}
	return &Result{Meta: meta, Data: records}
}
