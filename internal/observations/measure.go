package observations

import "regioniq/internal/store"

// Measure names the store column an observation value is read from.
type Measure string

const (
	MeasureValue   Measure = "value"
	MeasureCILower Measure = "ci_lower"
	MeasureCIUpper Measure = "ci_upper"
)

const (
	ScenarioBaseline = "baseline"
	ScenarioUpside   = "upside"
	ScenarioDownside = "downside"

	dataTypeHistorical = "historical"
)

func knownMeasure(m string) (Measure, bool) {
	switch Measure(m) {
	case MeasureValue, MeasureCILower, MeasureCIUpper:
		return Measure(m), true
	}
	return "", false
}

// Resolve picks the measure for a scenario. A known explicit measure wins
// regardless of scenario; otherwise upside reads the upper bound, downside
// the lower bound and everything else the central value.
func Resolve(scenario, explicit string) Measure {
	if m, ok := knownMeasure(explicit); ok {
		return m
	}
	switch scenario {
	case ScenarioUpside:
		return MeasureCIUpper
	case ScenarioDownside:
		return MeasureCILower
	default:
		return MeasureValue
	}
}

// PickValue reads m from row. Historical rows carry no interval, so they
// always yield the central value; a null interval bound falls back to it too.
func PickValue(row store.Row, m Measure) *float64 {
	if row.DataType != nil && *row.DataType == dataTypeHistorical {
		return row.Value
	}
	var v *float64
	switch m {
	case MeasureCILower:
		v = row.CILower
	case MeasureCIUpper:
		v = row.CIUpper
	default:
		v = row.Value
	}
	if v == nil {
		return row.Value
	}
	return v
}
