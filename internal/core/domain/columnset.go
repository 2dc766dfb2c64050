package domain

import (
	"math/bits"
	"strconv"
	"strings"
)

const wordBits = 64

// ColumnSet is an immutable bit-set over column ordinals [0, N). Two
// ColumnSets are equal iff their raw bits are equal; Key returns a value
// suitable for use as a map key since slices (and therefore ColumnSet
// itself) are not comparable in Go.
type ColumnSet struct {
	words []uint64
}

// NewColumnSet returns the ColumnSet containing exactly the given ordinals.
func NewColumnSet(ordinals ...int) ColumnSet {
	var s ColumnSet
	for _, o := range ordinals {
		s = s.Set(o)
	}
	return s
}

func wordIndex(i int) (word, bit int) {
	return i / wordBits, i % wordBits
}

// Has reports whether ordinal i is a member of s.
func (s ColumnSet) Has(i int) bool {
	w, b := wordIndex(i)
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(uint64(1)<<uint(b)) != 0
}

// Set returns a new ColumnSet with ordinal i added.
func (s ColumnSet) Set(i int) ColumnSet {
	w, b := wordIndex(i)
	words := make([]uint64, maxInt(w+1, len(s.words)))
	copy(words, s.words)
	words[w] |= uint64(1) << uint(b)
	return ColumnSet{words: trim(words)}
}

// Clear returns a new ColumnSet with ordinal i removed.
func (s ColumnSet) Clear(i int) ColumnSet {
	w, b := wordIndex(i)
	if w >= len(s.words) {
		return s
	}
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	words[w] &^= uint64(1) << uint(b)
	return ColumnSet{words: trim(words)}
}

// Len returns the cardinality of s, i.e. the number of member ordinals.
func (s ColumnSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether s has no members.
func (s ColumnSet) Empty() bool {
	return len(s.words) == 0
}

// SubsetOf reports whether every member of s is also a member of other
// (s ≤ other, reflexively — s.SubsetOf(s) is true).
func (s ColumnSet) SubsetOf(other ColumnSet) bool {
	for i, w := range s.words {
		if i >= len(other.words) {
			if w != 0 {
				return false
			}
			continue
		}
		if w&^other.words[i] != 0 {
			return false
		}
	}
	return true
}

// StrictSubsetOf reports whether s is a proper subset of other.
func (s ColumnSet) StrictSubsetOf(other ColumnSet) bool {
	return s.SubsetOf(other) && !s.Equal(other)
}

// Difference returns the members of s that are not in other (s \ other).
func (s ColumnSet) Difference(other ColumnSet) ColumnSet {
	words := make([]uint64, len(s.words))
	for i, w := range s.words {
		if i < len(other.words) {
			words[i] = w &^ other.words[i]
		} else {
			words[i] = w
		}
	}
	return ColumnSet{words: trim(words)}
}

// Equal reports whether s and other have identical bits.
func (s ColumnSet) Equal(other ColumnSet) bool {
	return s.Key() == other.Key()
}

// Union returns the set of columns in either s or other.
func (s ColumnSet) Union(other ColumnSet) ColumnSet {
	words := make([]uint64, maxInt(len(s.words), len(other.words)))
	for i := range words {
		var a, b uint64
		if i < len(s.words) {
			a = s.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		words[i] = a | b
	}
	return ColumnSet{words: trim(words)}
}

// Members returns the ordinals of s in ascending order.
func (s ColumnSet) Members() []int {
	members := make([]int, 0, s.Len())
	for wi, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			members = append(members, wi*wordBits+b)
			w &^= uint64(1) << uint(b)
		}
	}
	return members
}

// Only returns the single member of s. Panics if s.Len() != 1.
func (s ColumnSet) Only() int {
	m := s.Members()
	if len(m) != 1 {
		panic("domain: ColumnSet.Only called on a set with len != 1")
	}
	return m[0]
}

// Key returns a canonical string encoding of s, suitable for map keys and
// equality comparisons.
func (s ColumnSet) Key() string {
	t := trim(s.words)
	if len(t) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, w := range t {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(w, 16))
	}
	return sb.String()
}

// String renders s as its member ordinals, e.g. "{0,2,3}".
func (s ColumnSet) String() string {
	members := s.Members()
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// PowerSet returns every subset of {0, ..., n-1}, including the empty set,
// in an unspecified order. Used only when 2^n is small enough that the
// frontier can hold all subsets up front (see engine.go).
func PowerSet(n int) []ColumnSet {
	total := 1 << uint(n)
	sets := make([]ColumnSet, total)
	for mask := 0; mask < total; mask++ {
		var s ColumnSet
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				s = s.Set(i)
			}
		}
		sets[mask] = s
	}
	return sets
}

func trim(words []uint64) []uint64 {
	n := len(words)
	for n > 0 && words[n-1] == 0 {
		n--
	}
	return words[:n]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
