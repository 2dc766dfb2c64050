package port

import (
	"context"

	"github.com/halvard/colprofiler/internal/core/domain"
)

// RowSource supplies the column-set profiler with rows from a concrete
// backing store. ProfileService calls Open once per run; the engine then
// invokes the returned stream once per pass, and each invocation must
// replay the same rows in the same order.
type RowSource interface {
	// Columns returns the schema of the rows this source produces, in
	// ordinal order matching domain.Column.Ordinal.
	Columns(ctx context.Context) ([]domain.Column, error)

	// Open returns a domain.RowStream over the source's rows. The returned
	// stream is itself restartable per domain.RowStream's contract; Open
	// may be called again to obtain an independent stream.
	Open(ctx context.Context) (domain.RowStream, error)
}
