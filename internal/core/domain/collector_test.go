package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCollector_SingletonNulls exercises the singleton collector's null
// path: a null value is counted via NullCount, not inserted into the
// distinct-value set.
func TestCollector_SingletonNulls(t *testing.T) {
	c := newCollector([]int{0})
	rows := []Row{
		{Int(1)},
		{Null},
		{Int(2)},
		{Null},
		{Int(1)}, // duplicate, shouldn't inflate cardinality
	}
	for _, r := range rows {
		c.add(r)
	}

	space := &Space{}
	c.finish(space)

	assert.Equal(t, 2, space.NullCount)
	// Two distinct non-null values (1, 2) plus one slot for the null group.
	assert.Equal(t, 3, space.Cardinality)
	assert.ElementsMatch(t, []Comparable{Int(1), Int(2)}, space.ValueSet)
}

func TestCollector_SingletonAllNull(t *testing.T) {
	c := newCollector([]int{0})
	c.add(Row{Null})
	c.add(Row{Null})
	c.add(Row{Null})

	space := &Space{}
	c.finish(space)

	assert.Equal(t, 3, space.NullCount)
	assert.Equal(t, 1, space.Cardinality)
	assert.Empty(t, space.ValueSet)
}

// TestCollector_CompositeNullBucketing exercises the documented semantic
// choice in addComposite: a tuple with a null in any of its columns is
// counted once via NullCount regardless of which column was null or how
// many rows had one, and is never inserted into the tuple set.
func TestCollector_CompositeNullBucketing(t *testing.T) {
	c := newCollector([]int{0, 1})
	rows := []Row{
		{Int(10), String("ACCOUNTING")},
		{Null, String("RESEARCH")},  // null in column 0
		{Int(30), Null},             // null in column 1
		{Int(10), String("ACCOUNTING")}, // duplicate of the first tuple
	}
	for _, r := range rows {
		c.add(r)
	}

	space := &Space{}
	c.finish(space)

	// One distinct non-null tuple plus one slot for the null group.
	assert.Equal(t, 2, space.Cardinality)
	// Composite Spaces don't report a per-column null count.
	assert.Equal(t, compositeNullCountNotApplicable, space.NullCount)
	assert.Nil(t, space.ValueSet)
}

func TestCollector_CompositeNoNulls(t *testing.T) {
	c := newCollector([]int{0, 1})
	c.add(Row{Int(10), String("ACCOUNTING")})
	c.add(Row{Int(20), String("RESEARCH")})

	space := &Space{}
	c.finish(space)

	assert.Equal(t, 2, space.Cardinality)
	assert.Equal(t, compositeNullCountNotApplicable, space.NullCount)
}

// TestCollector_ValueListCap confirms ValueSet is populated up to, but not
// at or beyond, ValueListCap distinct values.
func TestCollector_ValueListCap(t *testing.T) {
	t.Run("19 distinct values stays under the cap", func(t *testing.T) {
		c := newCollector([]int{0})
		for i := 0; i < 19; i++ {
			c.add(Row{Int(i)})
		}
		space := &Space{}
		c.finish(space)

		assert.Equal(t, 19, space.Cardinality)
		assert.Len(t, space.ValueSet, 19)
	})

	t.Run("exactly ValueListCap distinct values drops the value set", func(t *testing.T) {
		require.Equal(t, 20, ValueListCap)

		c := newCollector([]int{0})
		for i := 0; i < ValueListCap; i++ {
			c.add(Row{Int(i)})
		}
		space := &Space{}
		c.finish(space)

		assert.Equal(t, ValueListCap, space.Cardinality)
		assert.Nil(t, space.ValueSet, "a column with exactly ValueListCap distinct values must not report a value set")
	})

	t.Run("21 distinct values drops the value set", func(t *testing.T) {
		c := newCollector([]int{0})
		for i := 0; i < ValueListCap+1; i++ {
			c.add(Row{Int(i)})
		}
		space := &Space{}
		c.finish(space)

		assert.Equal(t, ValueListCap+1, space.Cardinality)
		assert.Nil(t, space.ValueSet)
	})
}

func TestTupleKey_DistinguishesValueKinds(t *testing.T) {
	// keyOf's string-typed prefixes must not let values of different kinds
	// collide on an equal textual representation.
	intKey := keyOf(Int(1))
	stringKey := keyOf(String("1"))
	assert.NotEqual(t, intKey, stringKey, fmt.Sprintf("%q vs %q", intKey, stringKey))
}
