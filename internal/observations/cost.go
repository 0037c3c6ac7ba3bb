package observations

import (
	"math"

	dErrors "regioniq/pkg/domain-errors"
)

// CostPolicy holds the cardinality stand-ins used for unbounded dimensions and
// the ceiling above which a query is refused. The stand-ins are policy, not
// facts derived from the catalogue; see catalogue.CheckCostPolicy.
type CostPolicy struct {
	MaxRecords         int
	WorstCaseMetrics   int
	WorstCaseRegions   int
	WorstCaseYears     int
	WorstCaseScenarios int
	WorstCaseMeasures  int
}

// DefaultCostPolicy returns the production guardrail.
func DefaultCostPolicy() CostPolicy {
	return CostPolicy{
		MaxRecords:         250_000,
		WorstCaseMetrics:   5000,
		WorstCaseRegions:   50_000,
		WorstCaseYears:     200,
		WorstCaseScenarios: 1,
		WorstCaseMeasures:  1,
	}
}

// Estimate returns an upper bound on the number of records q can produce:
// the product of metric, region, year, scenario and measure cardinalities,
// each at least 1. The product saturates at math.MaxInt. It never touches
// the store.
func (p CostPolicy) Estimate(q Query) int {
	estimate := 1
	for _, n := range []int{
		p.cardinality(q, DimMetric, p.WorstCaseMetrics),
		p.cardinality(q, DimRegion, p.WorstCaseRegions),
		p.yearCardinality(q),
		p.cardinality(q, DimScenario, p.WorstCaseScenarios),
		p.cardinality(q, DimMeasure, p.WorstCaseMeasures),
	} {
		estimate = saturatingMul(estimate, max(1, n))
	}
	return estimate
}

// saturatingMul multiplies two positive ints, clamping at math.MaxInt.
func saturatingMul(a, b int) int {
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

// Gate rejects q when its estimate exceeds the ceiling. It returns the
// estimate either way.
func (p CostPolicy) Gate(q Query) (int, error) {
	estimated := p.Estimate(q)
	if estimated > p.MaxRecords {
		return estimated, dErrors.New(dErrors.CodeQueryTooLarge, "Query exceeds maximum estimated record limit.").
			WithDetails(map[string]any{
				"estimated_records": estimated,
				"max_records":       p.MaxRecords,
			})
	}
	return estimated, nil
}

func (p CostPolicy) cardinality(q Query, code DimensionCode, worstCase int) int {
	values, bounded := q.Extract(code)
	if !bounded || len(values) == 0 {
		return max(1, worstCase)
	}
	return len(values)
}

func (p CostPolicy) yearCardinality(q Query) int {
	sel, ok := q.Lookup(DimTimePeriod)
	if !ok {
		return max(1, p.WorstCaseYears)
	}
	switch s := sel.(type) {
	case RangeSelection:
		from, okFrom := parseYear(s.From)
		to, okTo := parseYear(s.To)
		if okFrom && okTo {
			return abs(to-from) + 1
		}
		return 2
	case ItemSelection:
		return max(1, len(s.Values))
	default:
		return max(1, p.WorstCaseYears)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
