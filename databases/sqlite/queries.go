package sqlite

import (
	"fmt"
	"strings"
)

// Catalog queries. Pragma table-valued functions take the table first and the
// schema last.
const (
	querySchemaExists = `SELECT COUNT(*) AS schema_count FROM pragma_database_list WHERE name = ?`

	querySchemas = `SELECT name AS schema_name FROM pragma_database_list ORDER BY seq`

	queryColumns = `
SELECT name AS column_name,
       type AS column_type,
       "notnull" AS not_null,
       dflt_value AS column_default,
       pk AS pk
FROM pragma_table_info(?, ?)
ORDER BY cid`

	queryIndexes = `
SELECT il.name AS index_name,
       il."unique" AS is_unique,
       il.origin AS origin,
       ii.name AS column_name
FROM pragma_index_list(?, ?) AS il
JOIN pragma_index_info(il.name, ?) AS ii
ORDER BY il.name, ii.seqno`

	queryForeignKeys = `
SELECT id AS id,
       "table" AS referenced_table,
       "from" AS column_name,
       "to" AS referenced_column,
       on_delete AS on_delete
FROM pragma_foreign_key_list(?, ?)
ORDER BY id, seq`
)

// Queries that name the schema in the statement itself.

func queryTables(schema string) string {
	return fmt.Sprintf(`
SELECT name AS table_name
FROM %s.sqlite_master
WHERE type = 'table'
  AND name NOT LIKE 'sqlite\_%%' ESCAPE '\'
ORDER BY name`, quoteIdent(schema))
}

func queryRowCount(schema, table string) string {
	return fmt.Sprintf(`SELECT COUNT(*) AS row_count FROM %s.%s`, quoteIdent(schema), quoteIdent(table))
}

func queryPageCount(schema string) string {
	return fmt.Sprintf(`PRAGMA %s.page_count`, quoteIdent(schema))
}

func queryPageSize(schema string) string {
	return fmt.Sprintf(`PRAGMA %s.page_size`, quoteIdent(schema))
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
