package dml

// Database names.
const (
	DatabasePostgres = "postgres"
	DatabaseMySQL    = "mysql"
	DatabaseSQLite   = "sqlite"
)

// Driver names used by the client adapters.
const (
	DriverPgx    = "pgx"
	DriverPq     = "pq"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DatabaseInfo maps database names to their default schema and driver.
type DatabaseInfo struct {
	DefaultSchema string
	Driver        string
}

// KnownDatabases maps database names to their info.
var KnownDatabases = map[string]DatabaseInfo{
	DatabasePostgres: {DefaultSchema: "public", Driver: DriverPgx},
	DatabaseMySQL:    {DefaultSchema: "", Driver: DriverMySQL},
	DatabaseSQLite:   {DefaultSchema: "main", Driver: DriverSQLite},
}

// DefaultSchemaFor returns the schema introspected when none is given.
// MySQL has no default: the database name from the DSN is the schema.
func DefaultSchemaFor(dbName string) string {
	if info, ok := KnownDatabases[dbName]; ok {
		return info.DefaultSchema
	}

	return ""
}

// DriverForDatabase returns the default driver name for a database.
func DriverForDatabase(dbName string) string {
	if info, ok := KnownDatabases[dbName]; ok {
		return info.Driver
	}

	return ""
}

// Scalar type identifiers.
const (
	TypeString   = "String"
	TypeInt      = "Int"
	TypeFloat    = "Float"
	TypeBoolean  = "Boolean"
	TypeDateTime = "DateTime"
	TypeJSON     = "Json"
	TypeID       = "ID"
	TypeUUID     = "UUID"
)

var scalarTypes = map[string]bool{
	TypeString:   true,
	TypeInt:      true,
	TypeFloat:    true,
	TypeBoolean:  true,
	TypeDateTime: true,
	TypeJSON:     true,
	TypeID:       true,
	TypeUUID:     true,
}

// IsScalar reports whether name is a built-in scalar type identifier.
func IsScalar(name string) bool {
	return scalarTypes[name]
}

// isQuotedScalar reports whether defaults of the scalar are rendered as strings.
func isQuotedScalar(name string) bool {
	switch name {
	case TypeString, TypeJSON, TypeDateTime, TypeID, TypeUUID:
		return true
	default:
		return false
	}
}

// Directive names.
const (
	DirectiveID              = "id"
	DirectiveUnique          = "unique"
	DirectiveDefault         = "default"
	DirectiveRelation        = "relation"
	DirectiveDB              = "db"
	DirectiveEmbedded        = "embedded"
	DirectiveSequence        = "sequence"
	DirectiveCreatedAt       = "createdAt"
	DirectiveUpdatedAt       = "updatedAt"
	DirectivePgTable         = "pgTable"
	DirectivePgColumn        = "pgColumn"
	DirectivePgRelation      = "pgRelation"
	DirectivePgRelationTable = "pgRelationTable"
	DirectiveScalarList      = "scalarList"
)

// Reserved field names recognized by the legacy style.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)
