package observations

import (
	"fmt"
	"sort"
	"strings"

	strutil "regioniq/pkg/platform/strings"
)

// warnings lists non-fatal observations about the selected metrics: ids the
// catalogue does not know, and selections that mix units.
func (e *Engine) warnings(metricIDs []string) []string {
	if e.catalogue == nil {
		return nil
	}
	var out []string
	units := map[string]struct{}{}
	for _, id := range strutil.DedupeAndTrim(metricIDs) {
		unit, ok := e.catalogue.MetricUnit(id)
		if !ok {
			out = append(out, fmt.Sprintf("Unknown metric %q; no observations are published for it.", id))
			continue
		}
		units[unit] = struct{}{}
	}
	if len(units) > 1 {
		mixed := make([]string, 0, len(units))
		for u := range units {
			mixed = append(mixed, u)
		}
		sort.Strings(mixed)
		out = append(out, fmt.Sprintf("Selected metrics mix units (%s); values are not directly comparable.",
			strings.Join(mixed, ", ")))
	}
	return out
}

// cursorWarnings flags resumed queries whose plan has more than one batch.
// The cursor offsets every batch, so such a page is not an exact
// continuation of the previous one.
func cursorWarnings(cursor, batches int) []string {
	if cursor <= 0 || batches <= 1 {
		return nil
	}
	return []string{fmt.Sprintf(
		"cursor %d was applied to each of %d fetch batches; rows may be skipped. Narrow metric and region selections to one batch for exact paging.",
		cursor, batches)}
}
