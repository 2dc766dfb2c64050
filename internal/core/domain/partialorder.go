package domain

// partialOrder is the ordered set of Spaces under subset inclusion
// (s1 ≤ s2 iff s1.Columns ⊆ s2.Columns). Implemented as a
// flat list: add is a plain append and descendants scans every Space — a
// Hasse diagram with incremental
// maintenance would cut Descendants to O(1) amortized, but for the handful
// of thousand Spaces a single profiler run ever materializes the scan cost
// is dominated by the pass itself, so the simpler structure is kept.
type partialOrder struct {
	spaces []*Space
}

// add inserts s into the index. s must not already be present.
func (p *partialOrder) add(s *Space) {
	p.spaces = append(p.spaces, s)
}

// descendants returns every existing Space whose ColumnSet is a strict
// (irreflexive) subset of s.Columns.
func (p *partialOrder) descendants(s *Space) []*Space {
	var out []*Space
	for _, other := range p.spaces {
		if other.Columns.StrictSubsetOf(s.Columns) {
			out = append(out, other)
		}
	}
	return out
}

// get returns the Space for columns, or nil if none has been materialized.
func (p *partialOrder) get(columns ColumnSet) *Space {
	for _, s := range p.spaces {
		if s.Columns.Equal(columns) {
			return s
		}
	}
	return nil
}
