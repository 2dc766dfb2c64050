package domain

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ValueListCap bounds the sorted value list of a singleton Space: the list
// is kept only when the Space has fewer than ValueListCap distinct values.
// Spaces with ValueListCap or more distinct values report a cardinality but
// no ValueSet.
const ValueListCap = 20

// collector accumulates observations for one Space during a single pass.
// It is a tagged union of two variants: singleton (one column) and
// composite (two or more). There is no
// interface/inheritance — the zero value of neither field set is ever
// mixed, selected once at construction by arity.
type collector struct {
	ordinals []int // ascending column ordinals this collector reads

	// singleton state (len(ordinals) == 1)
	values    map[Comparable]struct{}
	nullCount int

	// composite state (len(ordinals) >= 2)
	tuples map[string]Row // keyed by a canonical encoding of the tuple
}

func newCollector(ordinals []int) *collector {
	c := &collector{ordinals: ordinals}
	if len(ordinals) == 1 {
		c.values = make(map[Comparable]struct{})
	} else {
		c.tuples = make(map[string]Row)
	}
	return c
}

// add feeds one row to the collector.
func (c *collector) add(row Row) {
	if len(c.ordinals) == 1 {
		c.addSingleton(row)
	} else {
		c.addComposite(row)
	}
}

func (c *collector) addSingleton(row Row) {
	v := row[c.ordinals[0]]
	if IsNull(v) {
		c.nullCount++
		return
	}
	c.values[v] = struct{}{}
}

// addComposite implements a deliberate semantic choice: a tuple with any
// null component is counted as a single "null group" via nullCount, never
// inserted by null-pattern. This loses which columns were null; that is
// intentional, for parity with the upstream profiler this one's statistics
// are meant to match.
func (c *collector) addComposite(row Row) {
	tuple := make(Row, len(c.ordinals))
	for i, ord := range c.ordinals {
		v := row[ord]
		if IsNull(v) {
			c.nullCount++
			return
		}
		tuple[i] = v
	}
	c.tuples[tupleKey(tuple)] = tuple
}

// sentinel used for Space.nullCount on composite Spaces, which do not
// report per-column null counts.
const compositeNullCountNotApplicable = -1

// finish finalizes the collector into the owning Space's statistics and
// releases the collector's storage.
func (c *collector) finish(space *Space) {
	if len(c.ordinals) == 1 {
		c.finishSingleton(space)
	} else {
		c.finishComposite(space)
	}
}

func (c *collector) finishSingleton(space *Space) {
	space.NullCount = c.nullCount
	space.Cardinality = len(c.values) + boolToInt(c.nullCount > 0)
	if len(c.values) < ValueListCap {
		values := make([]Comparable, 0, len(c.values))
		for v := range c.values {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool {
			return values[i].CompareTo(values[j]) < 0
		})
		space.ValueSet = values
	} else {
		space.ValueSet = nil
	}
}

func (c *collector) finishComposite(space *Space) {
	space.NullCount = compositeNullCountNotApplicable
	space.Cardinality = len(c.tuples) + boolToInt(c.nullCount > 0)
	space.ValueSet = nil
}

// tupleKey builds a canonical, order-sensitive encoding of a tuple for use
// as a composite collector's dedup key. Composite tuples are never ordered
// (only singleton values are sorted, for ValueSet), so the key only needs
// to distinguish distinct tuples, not order them.
func tupleKey(tuple Row) string {
	key := make([]byte, 0, len(tuple)*8)
	for _, v := range tuple {
		key = append(key, []byte(keyOf(v))...)
		key = append(key, 0)
	}
	return string(key)
}

func keyOf(v Comparable) string {
	switch t := v.(type) {
	case String:
		return "s:" + string(t)
	case Int:
		return "i:" + itoa(int64(t))
	case Float:
		return "f:" + ftoa(float64(t))
	case Bool:
		if bool(t) {
			return "b:1"
		}
		return "b:0"
	case Time:
		return "t:" + time.Time(t).String()
	default:
		// Fallback for caller-defined Comparable types: %v is stable for a
		// fixed run since the same process never changes a value's
		// representation mid-run.
		return fmt.Sprintf("v:%v", v)
	}
}

func itoa(n int64) string   { return strconv.FormatInt(n, 10) }
func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
