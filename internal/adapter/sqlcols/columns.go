// Package sqlcols derives a profiler schema from a SQL SELECT statement's
// target list, instead of requiring a hand-written []domain.Column.
package sqlcols

import (
	"fmt"

	"github.com/halvard/colprofiler/internal/core/domain"
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// DeriveColumns parses a single SELECT statement and returns one
// domain.Column per target, in target-list order, naming each after its
// alias (AS clause), its bare column reference, or — for an unaliased
// expression, same as Postgres' own naming convention — "column_N".
func DeriveColumns(sql string) ([]domain.Column, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parsing SELECT: %w", err)
	}
	if len(tree.Stmts) == 0 {
		return nil, fmt.Errorf("parsing SELECT: no statements")
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return nil, fmt.Errorf("parsing SELECT: empty statement")
	}

	sel, ok := stmt.Node.(*pg_query.Node_SelectStmt)
	if !ok || sel.SelectStmt == nil {
		return nil, fmt.Errorf("parsing SELECT: not a SELECT statement")
	}

	targets := sel.SelectStmt.TargetList
	if len(targets) == 0 {
		return nil, fmt.Errorf("parsing SELECT: empty target list")
	}

	columns := make([]domain.Column, 0, len(targets))
	for i, target := range targets {
		name := targetName(target, i)
		columns = append(columns, domain.Column{Ordinal: i, Name: name})
	}
	return columns, nil
}

// targetName resolves one target list entry's output name: its alias if
// present, else the bare name of a simple column reference, else a
// positional fallback matching Postgres' own "column_N" convention
// (1-based, as Postgres numbers it).
func targetName(target *pg_query.Node, ordinal int) string {
	fallback := fmt.Sprintf("column_%d", ordinal+1)

	rt, ok := target.Node.(*pg_query.Node_ResTarget)
	if !ok || rt.ResTarget == nil {
		return fallback
	}

	if rt.ResTarget.Name != "" {
		return rt.ResTarget.Name
	}

	val := rt.ResTarget.Val
	if val == nil {
		return fallback
	}

	cr, ok := val.Node.(*pg_query.Node_ColumnRef)
	if !ok || cr.ColumnRef == nil {
		return fallback
	}

	fields := cr.ColumnRef.Fields
	if len(fields) == 0 {
		return fallback
	}

	lastField := fields[len(fields)-1]
	str, ok := lastField.Node.(*pg_query.Node_String_)
	if !ok || str.String_ == nil || str.String_.Sval == "" {
		return fallback
	}

	return str.String_.Sval
}
