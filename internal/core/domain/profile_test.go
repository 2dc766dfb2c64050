package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCardinality(t *testing.T) {
	tests := []struct {
		name     string
		distinct int64
		rowCount int64
		want     CardinalityClass
	}{
		{"DEPTNO over 4-row DEPT: a key", 4, 4, CardinalityUnique},
		{"near-key at the 90% boundary", 90, 100, CardinalityNearUnique},
		{"just under the near-key boundary falls to a count bucket", 89, 100, CardinalityLowCardinality},
		{"JOB over EMP: a small fixed set of codes", 3, 14, CardinalityEnumLike},
		{"enum-like at the 20-value boundary", 20, 1000, CardinalityEnumLike},
		{"21 distinct values crosses out of enum-like", 21, 1000, CardinalityLowCardinality},
		{"low-cardinality at the 200-value boundary", 200, 10000, CardinalityLowCardinality},
		{"201 distinct values crosses into high-cardinality", 201, 10000, CardinalityHighCardinality},
		{"free-form column, many values distinct but not a key", 480, 1000, CardinalityHighCardinality},
		{"no rows scanned yet", 0, 0, CardinalityEnumLike},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyCardinality(tt.distinct, tt.rowCount)
			assert.Equal(t, tt.want, got)
		})
	}
}
