package sqlcols

import (
	"testing"

	"github.com/halvard/colprofiler/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveColumns_SimpleColumns(t *testing.T) {
	t.Parallel()
	columns, err := DeriveColumns(`SELECT "DEPTNO", "DNAME", "LOC" FROM "DEPT"`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Column{
		{Ordinal: 0, Name: "DEPTNO"},
		{Ordinal: 1, Name: "DNAME"},
		{Ordinal: 2, Name: "LOC"},
	}, columns)
}

func TestDeriveColumns_Alias(t *testing.T) {
	t.Parallel()
	columns, err := DeriveColumns(`SELECT "EMPNO" AS emp_id, "ENAME" AS name FROM "EMP"`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Column{
		{Ordinal: 0, Name: "emp_id"},
		{Ordinal: 1, Name: "name"},
	}, columns)
}

func TestDeriveColumns_TableQualified(t *testing.T) {
	t.Parallel()
	columns, err := DeriveColumns(`SELECT e."EMPNO", e."DEPTNO" FROM "EMP" e`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Column{
		{Ordinal: 0, Name: "EMPNO"},
		{Ordinal: 1, Name: "DEPTNO"},
	}, columns)
}

func TestDeriveColumns_UnaliasedExpression(t *testing.T) {
	t.Parallel()
	columns, err := DeriveColumns(`SELECT "SAL" * 12 FROM "EMP"`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Column{{Ordinal: 0, Name: "column_1"}}, columns)
}

func TestDeriveColumns_Join(t *testing.T) {
	t.Parallel()
	columns, err := DeriveColumns(`
		SELECT e."EMPNO", e."ENAME", d."DNAME"
		FROM "EMP" e JOIN "DEPT" d ON e."DEPTNO" = d."DEPTNO"`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Column{
		{Ordinal: 0, Name: "EMPNO"},
		{Ordinal: 1, Name: "ENAME"},
		{Ordinal: 2, Name: "DNAME"},
	}, columns)
}

func TestDeriveColumns_InvalidSQL(t *testing.T) {
	t.Parallel()
	_, err := DeriveColumns("NOT VALID SQL !!!")
	require.Error(t, err)
}

func TestDeriveColumns_NotASelect(t *testing.T) {
	t.Parallel()
	_, err := DeriveColumns(`DELETE FROM "EMP"`)
	require.Error(t, err)
}
