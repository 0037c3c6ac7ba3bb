// Package catalogue holds the published schema: which metrics, regions,
// scenarios and measures the API serves, and the release lifecycle stamped
// on every response.
package catalogue

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"regioniq/internal/geo"
	"regioniq/internal/observations"
)

//go:embed catalogue.yaml
var embedded []byte

const (
	lifecycleSource = "RegionIQ Forecast Engine v1"
	// lifecycleStatus is one of final, provisional, experimental.
	lifecycleStatus = "provisional"
	// UnreleasedVintage is reported until a release sets FORECAST_VINTAGE.
	UnreleasedVintage = "unreleased"
	regionsValidFrom  = "2025-01-01"
)

// Metric describes one published metric.
type Metric struct {
	ID       string  `yaml:"metric_id" json:"metric_id"`
	Name     string  `yaml:"name" json:"name"`
	Unit     string  `yaml:"unit" json:"unit"`
	Type     string  `yaml:"type" json:"type"`
	Scale    string  `yaml:"scale" json:"scale"`
	Deflator *string `yaml:"deflator" json:"deflator"`
}

// Region is a catalogued region.
type Region struct {
	Code  string `yaml:"region_code"`
	Name  string `yaml:"region_name"`
	Level string `yaml:"level"`
}

// TimeCoverage bounds the published years.
type TimeCoverage struct {
	MinYear int `yaml:"min_year" json:"min_year"`
	MaxYear int `yaml:"max_year" json:"max_year"`
}

// Rule is a query compatibility rule.
type Rule struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description" json:"description"`
}

// Catalogue is the parsed schema. It is read-only after Load.
type Catalogue struct {
	Version       string       `yaml:"version"`
	Metrics       []Metric     `yaml:"metrics"`
	Regions       []Region     `yaml:"regions"`
	Scenarios     []string     `yaml:"scenarios"`
	Measures      []string     `yaml:"measures"`
	TimeCoverage  TimeCoverage `yaml:"time_coverage"`
	Compatibility struct {
		Rules []Rule `yaml:"rules"`
	} `yaml:"compatibility"`

	byID map[string]Metric
}

// Load parses the catalogue compiled into the binary.
func Load() (*Catalogue, error) {
	return Parse(embedded)
}

// Parse decodes a catalogue document and checks it for consistency.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}

	c.byID = make(map[string]Metric, len(c.Metrics))
	for _, m := range c.Metrics {
		if m.ID == "" {
			return nil, fmt.Errorf("catalogue: metric without metric_id")
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("catalogue: duplicate metric %q", m.ID)
		}
		c.byID[m.ID] = m
	}
	for _, r := range c.Regions {
		if geo.ToPublic(geo.ToInternal(r.Code)) != r.Code {
			return nil, fmt.Errorf("catalogue: region %q is not a public code", r.Code)
		}
	}
	if c.TimeCoverage.MinYear > c.TimeCoverage.MaxYear {
		return nil, fmt.Errorf("catalogue: time coverage %d..%d is inverted",
			c.TimeCoverage.MinYear, c.TimeCoverage.MaxYear)
	}
	return &c, nil
}

// Metric looks up a metric by id.
func (c *Catalogue) Metric(id string) (Metric, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// MetricUnit reports the unit class of a metric. Units and types together
// decide whether two metrics are comparable.
func (c *Catalogue) MetricUnit(id string) (string, bool) {
	m, ok := c.byID[id]
	if !ok {
		return "", false
	}
	return m.Unit + "/" + m.Type, true
}

// Lifecycle returns the lifecycle for a release vintage. An empty vintage
// reports as unreleased.
func Lifecycle(vintage string) observations.Lifecycle {
	vintage = strings.TrimSpace(vintage)
	if vintage == "" {
		vintage = UnreleasedVintage
	}
	return observations.Lifecycle{
		Vintage: vintage,
		Source:  lifecycleSource,
		Status:  lifecycleStatus,
	}
}

// CheckCostPolicy compares the cost estimator's stand-ins with what the
// catalogue actually publishes and describes every stand-in that is too
// small to be a worst case.
func (c *Catalogue) CheckCostPolicy(p observations.CostPolicy) []string {
	var problems []string
	if n := len(c.Metrics); n > p.WorstCaseMetrics {
		problems = append(problems, fmt.Sprintf("worst-case metrics %d is below the %d catalogued metrics", p.WorstCaseMetrics, n))
	}
	if n := len(c.Regions); n > p.WorstCaseRegions {
		problems = append(problems, fmt.Sprintf("worst-case regions %d is below the %d catalogued regions", p.WorstCaseRegions, n))
	}
	if years := c.TimeCoverage.MaxYear - c.TimeCoverage.MinYear + 1; years > p.WorstCaseYears {
		problems = append(problems, fmt.Sprintf("worst-case years %d is below the %d covered years", p.WorstCaseYears, years))
	}
	return problems
}

// RegionView is a region as rendered by the schema endpoint.
type RegionView struct {
	Code       string  `json:"region_code"`
	Name       string  `json:"region_name"`
	Level      string  `json:"level"`
	GeoSchema  string  `json:"geo_schema"`
	ParentCode *string `json:"parent_region_code"`
	ValidFrom  string  `json:"valid_from"`
	ValidTo    *string `json:"valid_to"`
}

// Schema is the body of the schema endpoint.
type Schema struct {
	Version       string         `json:"version"`
	GeneratedAt   string         `json:"generated_at"`
	Vintage       string         `json:"vintage"`
	Source        string         `json:"source"`
	Status        string         `json:"status"`
	Metrics       []Metric       `json:"metrics"`
	Regions       []RegionView   `json:"regions"`
	Scenarios     []string       `json:"scenarios"`
	Measures      []string       `json:"measures"`
	Breakdowns    []any          `json:"breakdowns"`
	TimeCoverage  TimeCoverage   `json:"time_coverage"`
	Compatibility map[string]any `json:"compatibility"`
}

// Schema renders the catalogue with metrics sorted by id and regions by code.
func (c *Catalogue) Schema(lc observations.Lifecycle, now time.Time) Schema {
	metrics := slices.Clone(c.Metrics)
	slices.SortFunc(metrics, func(a, b Metric) int { return strings.Compare(a.ID, b.ID) })

	regions := make([]RegionView, 0, len(c.Regions))
	for _, r := range c.Regions {
		view := RegionView{
			Code:      r.Code,
			Name:      r.Name,
			Level:     r.Level,
			GeoSchema: geo.GeoSchema,
			ValidFrom: regionsValidFrom,
		}
		if r.Level == string(geo.LevelITL1) {
			parent := "UK"
			view.ParentCode = &parent
		}
		regions = append(regions, view)
	}
	slices.SortFunc(regions, func(a, b RegionView) int { return strings.Compare(a.Code, b.Code) })

	return Schema{
		Version:       c.Version,
		GeneratedAt:   observations.FormatTimestamp(now),
		Vintage:       lc.Vintage,
		Source:        lc.Source,
		Status:        lc.Status,
		Metrics:       metrics,
		Regions:       regions,
		Scenarios:     slices.Clone(c.Scenarios),
		Measures:      slices.Clone(c.Measures),
		Breakdowns:    []any{},
		TimeCoverage:  c.TimeCoverage,
		Compatibility: map[string]any{"rules": slices.Clone(c.Compatibility.Rules)},
	}
}
