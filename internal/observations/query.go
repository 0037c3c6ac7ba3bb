package observations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	dErrors "regioniq/pkg/domain-errors"
)

// DimensionCode names a queryable dimension.
type DimensionCode string

const (
	DimMetric         DimensionCode = "metric"
	DimRegion         DimensionCode = "region"
	DimGeoSchema      DimensionCode = "geo_schema"
	DimLevel          DimensionCode = "level"
	DimTimePeriod     DimensionCode = "time_period"
	DimScenario       DimensionCode = "scenario"
	DimMeasure        DimensionCode = "measure"
	DimDataType       DimensionCode = "data_type"
	DimBreakdownType  DimensionCode = "breakdown_type"
	DimBreakdownValue DimensionCode = "breakdown_value"
)

var dimensionCodes = map[DimensionCode]struct{}{
	DimMetric: {}, DimRegion: {}, DimGeoSchema: {}, DimLevel: {}, DimTimePeriod: {},
	DimScenario: {}, DimMeasure: {}, DimDataType: {}, DimBreakdownType: {}, DimBreakdownValue: {},
}

// ParseDimensionCode validates a dimension code.
func ParseDimensionCode(s string) (DimensionCode, error) {
	code := DimensionCode(s)
	if _, ok := dimensionCodes[code]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "Invalid request payload.").
			WithDetails(map[string]any{"issues": []string{fmt.Sprintf("unknown dimension code %q", s)}})
	}
	return code, nil
}

// FilterType is the discriminant of a Selection.
type FilterType string

const (
	FilterItem  FilterType = "item"
	FilterAll   FilterType = "all"
	FilterRange FilterType = "range"
)

// Selection picks values of one dimension. It is closed over ItemSelection,
// AllSelection and RangeSelection; switch on the concrete type.
type Selection interface {
	Filter() FilterType
	sealed()
}

// ItemSelection is an explicit list of values.
type ItemSelection struct {
	Values []string
}

// AllSelection selects every value of the dimension.
type AllSelection struct{}

// RangeSelection selects an inclusive range. Endpoints are kept as given;
// only time_period interprets them numerically.
type RangeSelection struct {
	From string
	To   string
}

func (ItemSelection) Filter() FilterType { return FilterItem }
func (AllSelection) Filter() FilterType { return FilterAll }
func (RangeSelection) Filter() FilterType { return FilterRange }

func (ItemSelection) sealed() {}
func (AllSelection) sealed() {}
func (RangeSelection) sealed() {}

// Dimension pairs a dimension code with its selection.
type Dimension struct {
	Code      DimensionCode
	Selection Selection
}

// Query is the ordered list of dimension selections of one request.
type Query []Dimension

type selectionJSON struct {
	Filter FilterType      `json:"filter"`
	Values []string        `json:"values,omitempty"`
	From   json.RawMessage `json:"from,omitempty"`
	To     json.RawMessage `json:"to,omitempty"`
}

type dimensionJSON struct {
	Code      string          `json:"code"`
	Selection json.RawMessage `json:"selection"`
}

// UnmarshalJSON decodes {"code": ..., "selection": {"filter": ...}}.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	var raw dimensionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	code, err := ParseDimensionCode(raw.Code)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw.Selection)) == 0 || bytes.Equal(bytes.TrimSpace(raw.Selection), []byte("null")) {
		return validationIssue("dimension %q: selection is required", raw.Code)
	}
	sel, err := decodeSelection(raw.Selection)
	if err != nil {
		return validationIssue("dimension %q: %s", raw.Code, err.Error())
	}
	d.Code = code
	d.Selection = sel
	return nil
}

// MarshalJSON encodes the wire form.
func (d Dimension) MarshalJSON() ([]byte, error) {
	var sel selectionJSON
	switch s := d.Selection.(type) {
	case ItemSelection:
		sel = selectionJSON{Filter: FilterItem, Values: s.Values}
		if sel.Values == nil {
			sel.Values = []string{}
		}
	case AllSelection:
		sel = selectionJSON{Filter: FilterAll}
	case RangeSelection:
		from, _ := json.Marshal(s.From)
		to, _ := json.Marshal(s.To)
		sel = selectionJSON{Filter: FilterRange, From: from, To: to}
	default:
		return nil, fmt.Errorf("dimension %s: unsupported selection %T", d.Code, d.Selection)
	}
	return json.Marshal(struct {
		Code      DimensionCode `json:"code"`
		Selection selectionJSON `json:"selection"`
	}{d.Code, sel})
}

func decodeSelection(data []byte) (Selection, error) {
	var raw selectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed selection")
	}
	switch raw.Filter {
	case FilterItem:
		if raw.Values == nil {
			return nil, fmt.Errorf("item selection requires values")
		}
		return ItemSelection{Values: raw.Values}, nil
	case FilterAll:
		return AllSelection{}, nil
	case FilterRange:
		from, err := scalarString(raw.From)
		if err != nil {
			return nil, fmt.Errorf("range selection: from: %w", err)
		}
		to, err := scalarString(raw.To)
		if err != nil {
			return nil, fmt.Errorf("range selection: to: %w", err)
		}
		return RangeSelection{From: from, To: to}, nil
	case "":
		return nil, fmt.Errorf("selection filter is required")
	default:
		return nil, fmt.Errorf("unknown selection filter %q", raw.Filter)
	}
}

// scalarString accepts a JSON string or number and returns its text.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("value is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("must be a string or number")
}

// Validate enforces the shape rules the grammar cannot express: one selection
// per dimension, non-empty item lists, ranges only on time_period, and
// integer years on time_period.
func (q Query) Validate() error {
	var issues []string
	seen := make(map[DimensionCode]struct{}, len(q))
	for _, d := range q {
		if _, dup := seen[d.Code]; dup {
			issues = append(issues, fmt.Sprintf("dimension %q selected more than once", d.Code))
			continue
		}
		seen[d.Code] = struct{}{}

		switch s := d.Selection.(type) {
		case ItemSelection:
			if len(s.Values) == 0 {
				issues = append(issues, fmt.Sprintf("dimension %q: item selection requires at least one value", d.Code))
			}
			if d.Code == DimTimePeriod {
				issues = append(issues, yearIssues(s.Values...)...)
			}
		case RangeSelection:
			if d.Code != DimTimePeriod {
				issues = append(issues, fmt.Sprintf("dimension %q: range selection is only supported for time_period", d.Code))
				continue
			}
			issues = append(issues, yearIssues(s.From, s.To)...)
		case AllSelection:
		case nil:
			issues = append(issues, fmt.Sprintf("dimension %q: selection is required", d.Code))
		}
	}
	if len(issues) > 0 {
		return dErrors.New(dErrors.CodeValidation, "Invalid request payload.").
			WithDetails(map[string]any{"issues": issues})
	}
	return nil
}

func yearIssues(values ...string) []string {
	var issues []string
	for _, v := range values {
		if _, ok := parseYear(v); !ok {
			issues = append(issues, fmt.Sprintf("dimension %q: %q is not a year between 0 and %d", DimTimePeriod, v, MaxYear))
		}
	}
	return issues
}

func validationIssue(format string, args ...any) error {
	return dErrors.New(dErrors.CodeValidation, "Invalid request payload.").
		WithDetails(map[string]any{"issues": []string{fmt.Sprintf(format, args...)}})
}

// MaxYear is the largest time_period value a query may name.
const MaxYear = 9999

// parseYear parses a year of at most four digits; surrounding space is ignored.
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
