package postgres

// queryColumns lists a table's columns in ordinal order.
// $1 = schema, $2 = table_name.
const queryColumns = `
	SELECT c.column_name, c.data_type
	FROM information_schema.columns c
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position`

// queryRowEstimate returns the planner's row-count estimate for a table,
// used only by RowSource.RowEstimate as a diagnostic — the profiler's own
// RowCount always comes from the rows it actually streamed.
// $1 = schema, $2 = table_name.
const queryRowEstimate = `
	SELECT COALESCE(c.reltuples::bigint, 0)
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND c.relname = $2`
