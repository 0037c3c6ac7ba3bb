package observations

// Lookup returns the selection for code and whether the dimension appears in
// the query at all. Use it where "absent" and "all" must be told apart.
func (q Query) Lookup(code DimensionCode) (Selection, bool) {
	for _, d := range q {
		if d.Code == code {
			return d.Selection, true
		}
	}
	return nil, false
}

// Extract flattens a dimension's selection to its explicit values.
//
//	all    -> (nil, false)          unbounded
//	item   -> (values, true)
//	range  -> ([from, to], true)
//	absent -> ([]string{}, true)    no explicit values
//
// Cost estimation treats the last case like "all"; the unbounded-query gate
// uses Lookup instead.
func (q Query) Extract(code DimensionCode) ([]string, bool) {
	sel, ok := q.Lookup(code)
	if !ok {
		return []string{}, true
	}
	switch s := sel.(type) {
	case ItemSelection:
		return s.Values, true
	case RangeSelection:
		return []string{s.From, s.To}, true
	default:
		return nil, false
	}
}

// explicit reports whether code is present with a bounded selection.
func (q Query) explicit(code DimensionCode) bool {
	sel, ok := q.Lookup(code)
	if !ok {
		return false
	}
	_, all := sel.(AllSelection)
	return !all
}
