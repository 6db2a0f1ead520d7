package postgres

// Catalog queries. Every query takes the schema name as $1; the per-table
// queries take the table name as $2. Numeric catalog columns are cast so that
// both clients decode them as plain integers.
const (
	querySchemaExists = `
SELECT EXISTS (SELECT 1 FROM pg_namespace WHERE nspname = $1) AS schema_exists`

	querySchemas = `
SELECT nspname AS schema_name
FROM pg_namespace
WHERE nspname NOT LIKE 'pg\_%'
  AND nspname <> 'information_schema'
ORDER BY nspname`

	queryTables = `
SELECT table_name::text AS table_name
FROM information_schema.tables
WHERE table_schema = $1
  AND table_type = 'BASE TABLE'
ORDER BY table_name`

	queryEnums = `
SELECT t.typname AS enum_name, e.enumlabel AS enum_value
FROM pg_type t
JOIN pg_enum e ON e.enumtypid = t.oid
JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
ORDER BY t.typname, e.enumsortorder`

	querySequences = `
SELECT sequence_name::text AS sequence_name,
       start_value::bigint AS start_value,
       increment::bigint AS increment
FROM information_schema.sequences
WHERE sequence_schema = $1
ORDER BY sequence_name`

	queryColumns = `
SELECT column_name::text AS column_name,
       data_type::text AS data_type,
       udt_name::text AS udt_name,
       is_nullable::text AS is_nullable,
       column_default::text AS column_default,
       is_identity::text AS is_identity,
       character_maximum_length::int AS max_length,
       numeric_precision::int AS numeric_precision,
       numeric_scale::int AS numeric_scale,
       col_description(format('%I.%I', table_schema, table_name)::regclass, ordinal_position::int) AS column_comment
FROM information_schema.columns
WHERE table_schema = $1
  AND table_name = $2
ORDER BY ordinal_position`

	queryIndexes = `
SELECT i.relname AS index_name,
       a.attname AS column_name,
       ix.indisunique AS is_unique,
       ix.indisprimary AS is_primary
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE n.nspname = $1
  AND t.relname = $2
ORDER BY i.relname, k.ord`

	queryForeignKeys = `
SELECT c.conname AS constraint_name,
       a.attname AS column_name,
       rt.relname AS referenced_table,
       ra.attname AS referenced_column,
       c.confdeltype::text AS delete_type
FROM pg_constraint c
JOIN pg_class t ON t.oid = c.conrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_class rt ON rt.oid = c.confrelid
JOIN pg_namespace rn ON rn.oid = rt.relnamespace
CROSS JOIN LATERAL unnest(c.conkey, c.confkey) WITH ORDINALITY AS k(attnum, refnum, ord)
JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
JOIN pg_attribute ra ON ra.attrelid = c.confrelid AND ra.attnum = k.refnum
WHERE c.contype = 'f'
  AND n.nspname = $1
  AND rn.nspname = $1
  AND t.relname = $2
ORDER BY c.conname, k.ord`

	queryMetadata = `
SELECT c.relname AS table_name,
       GREATEST(c.reltuples, 0)::bigint AS row_count,
       pg_total_relation_size(c.oid)::bigint AS size_bytes
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p')
ORDER BY c.relname`
)
