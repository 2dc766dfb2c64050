package domain

import (
	"errors"
	"fmt"
)

// Error kinds. All three are fatal to the run they occur
// in: no retry is attempted, and no partial Profile is ever returned.
var (
	// ErrMisuse covers construction-time programming errors: an invalid
	// combinationsPerPass, or a column whose ordinal doesn't match its
	// index in the schema.
	ErrMisuse = errors.New("profiler: misuse")

	// ErrRowShape covers a row shorter than the column count.
	ErrRowShape = errors.New("profiler: row shape")

	// ErrIteration wraps a failure raised by the caller's RowStream itself.
	// The underlying error is propagated unmodified via %w.
	ErrIteration = errors.New("profiler: row iteration failed")
)

// RowShapeError reports the offending column index, and the width the row
// actually had versus the width the schema requires.
type RowShapeError struct {
	ColumnIndex int
	Observed    int
	Expected    int
	Pass        int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("profiler: row shape at pass %d: column %d, observed arity %d, expected %d",
		e.Pass, e.ColumnIndex, e.Observed, e.Expected)
}

func (e *RowShapeError) Unwrap() error { return ErrRowShape }
