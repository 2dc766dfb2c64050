package domain

import (
	"container/heap"
	"fmt"
)

// interestingSurpriseThreshold is the fixed threshold used by the
// distribution-registration test when a Space finishes. It is distinct
// from the configurable InterestPredicate, which instead gates successor
// generation in nextBatch.
const interestingSurpriseThreshold = 0.3

// InterestPredicate decides whether a successor of parent, extended by
// column, is worth computing at all. The default accepts everything.
type InterestPredicate func(parent *Space, extending Column) bool

// AlwaysInteresting is the default InterestPredicate.
func AlwaysInteresting(*Space, Column) bool { return true }

// SurpriseThreshold returns an InterestPredicate that accepts a successor
// when the parent's expected and observed cardinalities are both zero (as
// for a column scored over zero rows), or when the parent's surprise
// exceeds threshold. It does not look at the run's Distributions.
func SurpriseThreshold(threshold float64) InterestPredicate {
	return func(parent *Space, _ Column) bool {
		if parent.ExpectedCardinality == 0 && parent.Cardinality == 0 {
			return true
		}
		return parent.Surprise() > threshold
	}
}

// TraceEvent is the diagnostic emitted once per pass: the pass index, how
// many column-sets it evaluated, and the running count of distributions
// found so far.
type TraceEvent struct {
	Pass              int
	BatchSize         int
	DistributionCount int
}

type config struct {
	combinationsPerPass int
	predicate           InterestPredicate
	trace               func(TraceEvent)
}

// Option configures a Run.
type Option func(*config)

// WithCombinationsPerPass sets the maximum number of Spaces materialized
// per pass. Must be > 2; violating this is a misuse error
// raised by Run.
func WithCombinationsPerPass(n int) Option {
	return func(c *config) { c.combinationsPerPass = n }
}

// WithInterestPredicate overrides the default always-accept successor
// predicate.
func WithInterestPredicate(p InterestPredicate) Option {
	return func(c *config) { c.predicate = p }
}

// WithTrace installs a callback invoked once per pass with diagnostic
// counters. It never affects the computed Profile.
func WithTrace(fn func(TraceEvent)) Option {
	return func(c *config) { c.trace = fn }
}

// Run executes the bounded-memory, pass-limited, priority-driven
// combination search over the power set of columns, consuming rows from
// stream and columns from the given schema, and returns the resulting
// Profile.
//
// Run fails synchronously (before streaming any rows) if combinationsPerPass
// is misconfigured or a column's ordinal doesn't match its index — a misuse
// error. It fails mid-run, without returning a partial Profile, if a row is
// shorter than len(columns) or the stream itself returns an error.
func Run(stream RowStream, columns []Column, opts ...Option) (*Profile, error) {
	cfg := config{combinationsPerPass: 100, predicate: AlwaysInteresting}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.combinationsPerPass <= 2 {
		return nil, fmt.Errorf("%w: combinationsPerPass must be > 2, got %d", ErrMisuse, cfg.combinationsPerPass)
	}
	for i, col := range columns {
		if col.Ordinal != i {
			return nil, fmt.Errorf("%w: column %q has ordinal %d, want %d", ErrMisuse, col.Name, col.Ordinal, i)
		}
	}

	r := newRun(columns, cfg)
	if err := r.profile(stream); err != nil {
		return nil, err
	}
	return r.assembleProfile(), nil
}

type run struct {
	columns []Column
	cfg     config

	distributions map[string]*Distribution
	singletons    []*Space

	done     doneQueue
	frontier []ColumnSet
	seen     map[string]bool

	uniques []Unique
	keys    []ColumnSet

	results partialOrder

	rowCount int
	pass     int
}

func newRun(columns []Column, cfg config) *run {
	r := &run{
		columns:       columns,
		cfg:           cfg,
		distributions: make(map[string]*Distribution),
		singletons:    make([]*Space, len(columns)),
		seen:          make(map[string]bool),
	}
	n := len(columns)
	if (1 << uint(n)) < cfg.combinationsPerPass {
		// There are not many columns. We can compute all combinations in
		// the first pass.
		for _, s := range PowerSet(n) {
			r.frontier = append(r.frontier, s)
			r.seen[s.Key()] = true
		}
	} else {
		// We will need multiple passes. Pass 0 evaluates only the empty
		// combination; its successors (the singletons) are generated once
		// it finishes.
		r.frontier = append(r.frontier, NewColumnSet())
		r.seen[NewColumnSet().Key()] = true
	}
	return r
}

func (r *run) profile(stream RowStream) error {
	for {
		batch := r.nextBatch()
		if len(batch) == 0 {
			return nil
		}
		if err := r.runPass(batch, stream); err != nil {
			return err
		}
		r.pass++
	}
}

// nextBatch drains the frontier into a batch up to combinationsPerPass
// Spaces, then pulls finished Spaces off the priority queue and expands
// each into successors until either the batch is full or both the frontier
// and queue are exhausted.
func (r *run) nextBatch() []*Space {
	var batch []*Space
outer:
	for {
		if len(batch) >= r.cfg.combinationsPerPass {
			return batch
		}
		if len(r.frontier) > 0 {
			ordinals := r.frontier[0]
			r.frontier = r.frontier[1:]
			space := newSpace(ordinals, r.toColumns(ordinals))
			batch = append(batch, space)
			if ordinals.Len() == 1 {
				r.singletons[ordinals.Only()] = space
			}
			continue outer
		}
		for {
			doneSpace := r.done.pop()
			if doneSpace == nil {
				return batch
			}
			for _, col := range r.columns {
				if doneSpace.Columns.Has(col.Ordinal) {
					continue
				}
				next := doneSpace.Columns.Set(col.Ordinal)
				keyOK := r.pass == 0 || doneSpace.Columns.Empty() || !r.containsKey(next)
				if !keyOK || !r.cfg.predicate(doneSpace, col) || r.seen[next.Key()] {
					continue
				}
				r.seen[next.Key()] = true
				r.frontier = append(r.frontier, next)
			}
			if len(r.frontier) > 0 {
				continue outer
			}
		}
	}
}

func (r *run) containsKey(columns ColumnSet) bool {
	for _, k := range r.keys {
		if k.SubsetOf(columns) {
			return true
		}
	}
	return false
}

func (r *run) toColumns(columns ColumnSet) []Column {
	members := columns.Members()
	out := make([]Column, len(members))
	for i, m := range members {
		out[i] = r.columns[m]
	}
	return out
}

// runPass streams rows once through every Space in batch, then finalizes,
// derives minimality/FDs, scores, and registers each Space in turn.
func (r *run) runPass(batch []*Space, stream RowStream) error {
	for _, s := range batch {
		s.collector = newCollector(s.Columns.Members())
	}

	rowCount := 0
	var shapeErr *RowShapeError
	err := stream(func(row Row) bool {
		if len(row) != len(r.columns) {
			shapeErr = &RowShapeError{
				ColumnIndex: minInt(len(row), len(r.columns)),
				Observed:    len(row),
				Expected:    len(r.columns),
				Pass:        r.pass,
			}
			return false
		}
		for _, s := range batch {
			s.collector.add(row)
		}
		rowCount++
		return true
	})
	if shapeErr != nil {
		return shapeErr
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIteration, err)
	}

	for _, s := range batch {
		r.finishSpace(s, rowCount)
	}

	if r.pass == 0 {
		r.rowCount = rowCount
	}
	if r.cfg.trace != nil {
		r.cfg.trace(TraceEvent{Pass: r.pass, BatchSize: len(batch), DistributionCount: len(r.distributions)})
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// finishSpace finalizes a Space's collector into its statistics, derives
// minimality and functional dependencies against previously finished
// Spaces, scores it against the expected-cardinality model, and registers
// it as a key and/or distribution as appropriate.
func (r *run) finishSpace(s *Space, rowCount int) {
	s.collector.finish(s)
	s.collector = nil
	r.results.add(s)

	nonMinimal := r.deriveDependencies(s)

	s.ExpectedCardinality = expectedCardinality(s.Columns, rowCount, r.distributionCardinality)

	minimal := nonMinimal == 0 && !s.Unique && !r.containsKey(s.Columns)
	if minimal && isInteresting(s) {
		d := &Distribution{
			Columns:             s.Names,
			ValueSet:            s.ValueSet,
			Cardinality:         s.Cardinality,
			NullCount:           s.NullCount,
			ExpectedCardinality: s.ExpectedCardinality,
			Minimal:             true,
			CardinalityClass:    classifyCardinality(int64(s.Cardinality), int64(rowCount)),
		}
		r.distributions[s.Columns.Key()] = d
		r.done.push(s)
	}

	if rowCount > 0 && s.Cardinality == rowCount {
		r.uniques = append(r.uniques, Unique{Columns: s.Names})
		r.keys = append(r.keys, s.Columns)
		s.Unique = true
	}
}

func (r *run) distributionCardinality(columns ColumnSet) (int, bool) {
	d, ok := r.distributions[columns.Key()]
	if !ok {
		return 0, false
	}
	return d.Cardinality, true
}

// deriveDependencies implements step 5: for every strict
// descendant with the same cardinality as s, the columns not in common are
// functionally dependent on the descendant, unless that dependency is
// non-minimal by way of an already-known, smaller functional dependency.
// Returns the number of candidate dependencies rejected as non-minimal.
func (r *run) deriveDependencies(s *Space) int {
	nonMinimal := 0
descendants:
	for _, d := range r.results.descendants(s) {
		if d.Cardinality != s.Cardinality {
			continue
		}
		dependents := s.Columns.Difference(d.Columns)

		for _, i := range d.Columns.Members() {
			rest := d.Columns.Clear(i)
			for _, known := range r.singletons[i].Dependents {
				if known.SubsetOf(rest) {
					nonMinimal++
					continue descendants
				}
			}
		}
		for _, dep := range dependents.Members() {
			for _, known := range r.singletons[dep].Dependents {
				if known.SubsetOf(d.Columns) {
					nonMinimal++
					continue descendants
				}
			}
		}

		s.Dependencies = s.Dependencies.Union(dependents)
		for _, dep := range dependents.Members() {
			r.singletons[dep].addDependent(d.Columns)
		}
	}
	return nonMinimal
}

func isInteresting(s *Space) bool {
	return s.Columns.Len() < 2 || s.Surprise() > interestingSurpriseThreshold
}

func (r *run) assembleProfile() *Profile {
	var fds []FunctionalDependency
	for _, s := range r.singletons {
		if s == nil {
			continue
		}
		for _, determinant := range s.Dependents {
			fds = append(fds, FunctionalDependency{
				Determinant: r.toColumns(determinant),
				Dependent:   s.Names[0],
			})
		}
	}

	distributions := make([]Distribution, 0, len(r.distributions))
	for _, d := range r.distributions {
		distributions = append(distributions, *d)
	}

	return &Profile{
		RowCount:               r.rowCount,
		Distributions:          distributions,
		Uniques:                r.uniques,
		FunctionalDependencies: fds,
	}
}

// doneQueue is the priority queue over finished Spaces, ordered by
// (|S| ascending, then surprise ascending). The empty set sorts first,
// then singletons, then larger combinations; within a size, the
// less-surprising (less promising) Space is dequeued first.
type doneQueue struct {
	items []*Space
}

func (q *doneQueue) push(s *Space) { heap.Push((*spaceHeap)(q), s) }
func (q *doneQueue) pop() *Space {
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop((*spaceHeap)(q)).(*Space)
}

type spaceHeap doneQueue

func (h spaceHeap) Len() int { return len(h.items) }
func (h spaceHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.Columns.Len() != b.Columns.Len() {
		return a.Columns.Len() < b.Columns.Len()
	}
	return a.Surprise() < b.Surprise()
}
func (h spaceHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *spaceHeap) Push(x any)   { h.items = append(h.items, x.(*Space)) }
func (h *spaceHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
