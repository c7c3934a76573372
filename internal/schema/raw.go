package schema

// Dialect names a supported database driver
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// RawTable holds a table's metadata rows as the driver reported them.
// Rows keep introspection order.
type RawTable struct {
	Name        string
	Columns     []RawColumn
	Indexes     []RawIndex
	ForeignKeys []RawForeignKey
	// CreateSQL is the table's DDL when the driver keeps it (SQLite)
	CreateSQL string
}

// RawColumn is one column row. Fields a driver does not report stay zero.
type RawColumn struct {
	Name     string
	Ordinal  int
	DataType string // information_schema data_type, or the declared type on SQLite
	// ColumnType is the full native type, e.g. "int(10) unsigned" or "enum('a','b')"
	ColumnType       string
	UDTName          string // Postgres udt_name
	CharMaxLength    *int
	NumericPrecision *int
	NumericScale     *int
	Nullable         bool
	Default          *string
	Extra            string // MySQL EXTRA, e.g. "auto_increment"
	IsIdentity       bool   // Postgres identity column
	PrimaryKeyOrder  int    // SQLite table_info pk, 0 when not part of the key
	EnumValues       []string
}

// RawIndex is one index with its columns in key order
type RawIndex struct {
	Name    string
	Primary bool
	Unique  bool
	Columns []string
	Origin  string // SQLite index_list origin: c, u or pk
}

// RawForeignKey is one foreign key column row. Composite keys arrive as several
// rows sharing Name (or ID on SQLite) ordered by Position.
type RawForeignKey struct {
	Name             string
	ID               int
	Position         int
	Column           string
	ReferencedTable  string
	ReferencedColumn string
	OnDelete         string
	OnUpdate         string
}
