package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/halvard/colprofiler/internal/adapter/postgres"
	"github.com/halvard/colprofiler/internal/core/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testSchemaDept mirrors the classic SCOTT DEPT/EMP tables, the fixture the
// engine's unit tests also use, so the integration path exercises the same
// scenario end to end against a real Postgres instance.
const testSchemaDept = `
	CREATE TABLE dept (
		deptno INTEGER PRIMARY KEY,
		dname  TEXT NOT NULL,
		loc    TEXT NOT NULL
	);

	CREATE TABLE emp (
		empno    INTEGER PRIMARY KEY,
		ename    TEXT NOT NULL,
		job      TEXT NOT NULL,
		deptno   INTEGER NOT NULL REFERENCES dept(deptno)
	);

	INSERT INTO dept (deptno, dname, loc) VALUES
		(10, 'ACCOUNTING', 'NEW YORK'),
		(20, 'RESEARCH', 'DALLAS'),
		(30, 'SALES', 'CHICAGO'),
		(40, 'OPERATIONS', 'BOSTON');

	INSERT INTO emp (empno, ename, job, deptno) VALUES
		(7369, 'SMITH', 'CLERK', 20),
		(7499, 'ALLEN', 'SALESMAN', 30),
		(7521, 'WARD', 'SALESMAN', 30),
		(7566, 'JONES', 'MANAGER', 20),
		(7654, 'MARTIN', 'SALESMAN', 30),
		(7698, 'BLAKE', 'MANAGER', 30);
`

func setupDeptDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, testSchemaDept)
	require.NoError(t, err)

	return pool
}

func TestRowSource_Columns(t *testing.T) {
	pool := setupDeptDB(t)
	source := postgres.NewRowSource(pool, "public", "dept")
	ctx := context.Background()

	columns, err := source.Columns(ctx)
	require.NoError(t, err)

	require.Len(t, columns, 3)
	names := []string{columns[0].Name, columns[1].Name, columns[2].Name}
	assert.Equal(t, []string{"deptno", "dname", "loc"}, names)
	for i, c := range columns {
		assert.Equal(t, i, c.Ordinal)
	}
}

func TestRowSource_Columns_UnknownTable(t *testing.T) {
	pool := setupDeptDB(t)
	source := postgres.NewRowSource(pool, "public", "does_not_exist")
	ctx := context.Background()

	_, err := source.Columns(ctx)
	assert.Error(t, err)
}

func TestRowSource_Open_StreamsRows(t *testing.T) {
	pool := setupDeptDB(t)
	source := postgres.NewRowSource(pool, "public", "dept")
	ctx := context.Background()

	stream, err := source.Open(ctx)
	require.NoError(t, err)

	var rows []domain.Row
	err = stream(func(row domain.Row) bool {
		rows = append(rows, row)
		return true
	})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestRowSource_Open_IsRestartable(t *testing.T) {
	pool := setupDeptDB(t)
	source := postgres.NewRowSource(pool, "public", "dept")
	ctx := context.Background()

	countRows := func() int {
		stream, err := source.Open(ctx)
		require.NoError(t, err)
		n := 0
		err = stream(func(domain.Row) bool {
			n++
			return true
		})
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, countRows(), countRows())
}

func TestRowSource_RowEstimate(t *testing.T) {
	pool := setupDeptDB(t)
	source := postgres.NewRowSource(pool, "public", "dept")
	ctx := context.Background()

	_, err := pool.Exec(ctx, "ANALYZE dept")
	require.NoError(t, err)

	estimate, err := source.RowEstimate(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, estimate, int64(0))
}

func TestSQLRowSource_Open_DerivesSchemaFromQuery(t *testing.T) {
	pool := setupDeptDB(t)
	query := `SELECT e.empno, e.ename, e.job, d.dname
		FROM emp e JOIN dept d ON d.deptno = e.deptno`
	source := postgres.NewSQLRowSource(pool, query)
	ctx := context.Background()

	columns, err := source.Columns(ctx)
	require.NoError(t, err)
	require.Len(t, columns, 4)

	stream, err := source.Open(ctx)
	require.NoError(t, err)

	rowCount := 0
	err = stream(func(row domain.Row) bool {
		require.Len(t, row, 4)
		rowCount++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 6, rowCount)
}

func TestRun_AgainstDeptTable(t *testing.T) {
	pool := setupDeptDB(t)
	source := postgres.NewRowSource(pool, "public", "dept")
	ctx := context.Background()

	columns, err := source.Columns(ctx)
	require.NoError(t, err)
	stream, err := source.Open(ctx)
	require.NoError(t, err)

	profile, err := domain.Run(stream, columns, domain.WithCombinationsPerPass(20))
	require.NoError(t, err)

	assert.Equal(t, 4, profile.RowCount)
	// deptno, dname, and loc are each independently a key over the 4 rows.
	assert.Len(t, profile.Uniques, 7)
}
