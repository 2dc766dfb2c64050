package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/halvard/colprofiler/internal/core/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RowSource streams a single table's rows as domain.Row values, re-running
// the SELECT each time the domain.RowStream returned by Open is invoked, so
// the stream is restartable per its documented contract.
type RowSource struct {
	pool   *pgxpool.Pool
	schema string
	table  string
}

func NewRowSource(pool *pgxpool.Pool, schema, table string) *RowSource {
	return &RowSource{pool: pool, schema: schema, table: table}
}

// Columns queries information_schema for the table's columns, in ordinal
// order, and returns them as domain.Column values with matching ordinals.
func (s *RowSource) Columns(ctx context.Context) ([]domain.Column, error) {
	rows, err := s.pool.Query(ctx, queryColumns, s.schema, s.table)
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s.%s: %w", s.schema, s.table, err)
	}
	defer rows.Close()

	var columns []domain.Column
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("scanning column metadata: %w", err)
		}
		columns = append(columns, domain.Column{Ordinal: len(columns), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s has no columns, or does not exist", s.schema, s.table)
	}
	return columns, nil
}

// RowEstimate returns the planner's row-count estimate for the table, from
// pg_class.reltuples. It is a diagnostic only — the profiler's own RowCount
// always comes from the rows actually streamed through Open.
func (s *RowSource) RowEstimate(ctx context.Context) (int64, error) {
	var estimate int64
	err := s.pool.QueryRow(ctx, queryRowEstimate, s.schema, s.table).Scan(&estimate)
	if err != nil {
		return 0, fmt.Errorf("estimating row count of %s.%s: %w", s.schema, s.table, err)
	}
	return estimate, nil
}

// Open returns a domain.RowStream that re-runs a SELECT * over the table on
// every call made to it, converting each pgx value into a domain.Comparable
// (or domain.Null).
func (s *RowSource) Open(ctx context.Context) (domain.RowStream, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s", quoteIdent(s.schema), quoteIdent(s.table))

	return func(yield func(domain.Row) bool) error {
		rows, err := s.pool.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("querying %s.%s: %w", s.schema, s.table, err)
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

// toComparable converts a value returned by pgx into a domain.Comparable,
// or domain.Null for a SQL NULL. Types pgx doesn't map onto one of
// domain's wrappers fall back to their string representation, preserving
// distinctness even though it loses a native ordering.
func toComparable(v any) domain.Comparable {
	switch t := v.(type) {
	case nil:
		return domain.Null
	case int64:
		return domain.Int(t)
	case int32:
		return domain.Int(int64(t))
	case int16:
		return domain.Int(int64(t))
	case float64:
		return domain.Float(t)
	case float32:
		return domain.Float(float64(t))
	case string:
		return domain.String(t)
	case bool:
		return domain.Bool(t)
	case time.Time:
		return domain.Time(t)
	case [16]byte: // uuid.UUID's underlying representation
		return domain.String(fmt.Sprintf("%x", t))
	case *big.Rat:
		f, _ := t.Float64()
		return domain.Float(f)
	default:
		return domain.String(fmt.Sprintf("%v", t))
	}
}
