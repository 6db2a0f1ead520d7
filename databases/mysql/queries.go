package mysql

// Catalog queries over information_schema. The schema is the first argument;
// per-table queries take the table name second.
const (
	queryCurrentDatabase = `SELECT DATABASE() AS schema_name`

	querySchemaExists = `
SELECT COUNT(*) AS schema_count
FROM information_schema.schemata
WHERE schema_name = ?`

	querySchemas = `
SELECT schema_name AS schema_name
FROM information_schema.schemata
WHERE schema_name NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
ORDER BY schema_name`

	queryTables = `
SELECT table_name AS table_name
FROM information_schema.tables
WHERE table_schema = ?
  AND table_type = 'BASE TABLE'
ORDER BY table_name`

	queryColumns = `
SELECT column_name AS column_name,
       column_type AS column_type,
       is_nullable AS is_nullable,
       column_default AS column_default,
       extra AS extra,
       character_maximum_length AS max_length,
       numeric_precision AS numeric_precision,
       numeric_scale AS numeric_scale,
       column_comment AS column_comment
FROM information_schema.columns
WHERE table_schema = ?
  AND table_name = ?
ORDER BY ordinal_position`

	queryIndexes = `
SELECT index_name AS index_name,
       column_name AS column_name,
       non_unique AS non_unique
FROM information_schema.statistics
WHERE table_schema = ?
  AND table_name = ?
ORDER BY index_name, seq_in_index`

	queryForeignKeys = `
SELECT k.constraint_name AS constraint_name,
       k.column_name AS column_name,
       k.referenced_table_name AS referenced_table,
       k.referenced_column_name AS referenced_column,
       r.delete_rule AS delete_rule
FROM information_schema.key_column_usage k
JOIN information_schema.referential_constraints r
  ON r.constraint_schema = k.constraint_schema
 AND r.constraint_name = k.constraint_name
 AND r.table_name = k.table_name
WHERE k.table_schema = ?
  AND k.table_name = ?
  AND k.referenced_table_schema = k.table_schema
ORDER BY k.constraint_name, k.ordinal_position`

	queryMetadata = `
SELECT table_name AS table_name,
       CAST(COALESCE(table_rows, 0) AS SIGNED) AS row_count,
       CAST(COALESCE(data_length, 0) + COALESCE(index_length, 0) AS SIGNED) AS size_bytes
FROM information_schema.tables
WHERE table_schema = ?
  AND table_type = 'BASE TABLE'
ORDER BY table_name`
)
