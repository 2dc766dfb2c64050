package domain

import "math"

// expectedCardinalityTerm predicts the cardinality of a combination of size
// |S|>=2 from the cardinalities of one column and its complement within S:
// f(R,a,b) = R * (1 - (1-1/R)^(a*b)) for R>0, else 0.
//
// This is the usual urn-style attenuation of a combined domain of size a*b
// onto R draws: it is non-decreasing in a and b, and f(R,a,b) <= min(R, a*b).
// It only approaches R at b=R and a at b=1 (e.g. f(4,1,4) ≈ 2.73 and
// f(4,2,1) = 1.75).
func expectedCardinalityTerm(rowCount, a, b int) float64 {
	if rowCount <= 0 {
		return 0
	}
	R := float64(rowCount)
	n := float64(a) * float64(b)
	return R * (1 - math.Pow(1-1/R, n))
}

// expectedCardinalityLookup resolves the cardinality of a ColumnSet that
// has already been computed, or reports found=false.
type expectedCardinalityLookup func(ColumnSet) (cardinality int, found bool)

// expectedCardinality predicts the cardinality of columns from the smallest
// expectedCardinalityTerm over every split into one column and the rest
// where both parts are known, falling back to rowCount when no such split
// is known yet.
func expectedCardinality(columns ColumnSet, rowCount int, lookup expectedCardinalityLookup) float64 {
	switch columns.Len() {
	case 0:
		return 1
	case 1:
		return float64(rowCount)
	default:
		expected := float64(rowCount)
		anyKnown := false
		for _, i := range columns.Members() {
			a, aok := lookup(NewColumnSet(i))
			b, bok := lookup(columns.Clear(i))
			if !aok || !bok {
				continue
			}
			anyKnown = true
			term := expectedCardinalityTerm(rowCount, a, b)
			if term < expected {
				expected = term
			}
		}
		if !anyKnown {
			return float64(rowCount)
		}
		return expected
	}
}
