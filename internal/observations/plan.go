package observations

import (
	"slices"

	"regioniq/internal/geo"
	strutil "regioniq/pkg/platform/strings"
)

// window bounds the period filter of every page. Periods, when set, replaces
// the From/To range with exact membership.
type window struct {
	From    int
	To      int
	Periods []int
}

// resolveWindow derives the period filter from the time_period selection.
// Anything that does not yield integer years falls back to the defaults.
func resolveWindow(q Query, defaultFrom, defaultTo int) window {
	def := window{From: defaultFrom, To: defaultTo}
	sel, ok := q.Lookup(DimTimePeriod)
	if !ok {
		return def
	}
	switch s := sel.(type) {
	case RangeSelection:
		from, okFrom := parseYear(s.From)
		to, okTo := parseYear(s.To)
		if !okFrom || !okTo {
			return def
		}
		return window{From: min(from, to), To: max(from, to)}
	case ItemSelection:
		var years []int
		for _, v := range s.Values {
			if y, ok := parseYear(v); ok {
				years = append(years, y)
			}
		}
		if len(years) == 0 {
			return def
		}
		slices.Sort(years)
		years = slices.Compact(years)
		return window{From: years[0], To: years[len(years)-1], Periods: years}
	default:
		return def
	}
}

// batch is one (level, region chunk, metric chunk) unit of work. Batches are
// planned up front and consumed strictly in order.
type batch struct {
	Level   geo.Level
	Table   string
	Regions []string
	Metrics []string
}

// planBatches translates public region codes, groups them by hierarchy level
// and crosses each level's region chunks with the metric chunks.
func planBatches(regionCodes, metricIDs []string, regionBatch, metricBatch int) []batch {
	byLevel := make(map[geo.Level][]string, len(geo.Levels))
	seen := make(map[string]struct{}, len(regionCodes))
	for _, code := range strutil.DedupeAndTrimUpper(regionCodes) {
		internal := geo.ToInternal(code)
		if _, dup := seen[internal]; dup {
			continue
		}
		seen[internal] = struct{}{}
		lvl := geo.InferLevel(internal)
		byLevel[lvl] = append(byLevel[lvl], internal)
	}

	metricChunks := chunk(strutil.DedupeAndTrim(metricIDs), metricBatch)

	var plan []batch
	for _, lvl := range geo.Levels {
		codes := byLevel[lvl]
		if len(codes) == 0 {
			continue
		}
		for _, regions := range chunk(codes, regionBatch) {
			for _, metrics := range metricChunks {
				plan = append(plan, batch{
					Level:   lvl,
					Table:   lvl.Table(),
					Regions: regions,
					Metrics: metrics,
				})
			}
		}
	}
	return plan
}

func chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
