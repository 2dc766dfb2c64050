package postgres

import (
	"context"
	"fmt"

	"github.com/halvard/colprofiler/internal/adapter/sqlcols"
	"github.com/halvard/colprofiler/internal/core/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLRowSource streams the rows of an arbitrary SELECT statement, deriving
// its schema from the statement's own target list via sqlcols rather than
// from table metadata. Useful for profiling a view, join, or computed
// projection instead of a bare table.
type SQLRowSource struct {
	pool  *pgxpool.Pool
	query string
}

func NewSQLRowSource(pool *pgxpool.Pool, query string) *SQLRowSource {
	return &SQLRowSource{pool: pool, query: query}
}

func (s *SQLRowSource) Columns(context.Context) ([]domain.Column, error) {
	return sqlcols.DeriveColumns(s.query)
}

func (s *SQLRowSource) Open(ctx context.Context) (domain.RowStream, error) {
	return func(yield func(domain.Row) bool) error {
		rows, err := s.pool.Query(ctx, s.query)
		if err != nil {
			return fmt.Errorf("executing query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			vals, err := rows.Values()
			if err != nil {
				return fmt.Errorf("reading row values: %w", err)
			}
			row := make(domain.Row, len(vals))
			for i, v := range vals {
				row[i] = toComparable(v)
			}
			if !yield(row) {
				break
			}
		}
		return rows.Err()
	}, nil
}
