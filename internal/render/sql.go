package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tordrt/migrategen/internal/migration"
	"github.com/tordrt/migrategen/internal/schema"
)

// SQLRenderer turns operation lists into SQL statements for one dialect
type SQLRenderer struct {
	dialect schema.Dialect
}

// NewSQLRenderer creates a renderer for dialect
func NewSQLRenderer(dialect schema.Dialect) (*SQLRenderer, error) {
	switch dialect {
	case schema.DialectMySQL, schema.DialectPostgres, schema.DialectSQLite:
		return &SQLRenderer{dialect: dialect}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// Dialect returns the output dialect
func (r *SQLRenderer) Dialect() schema.Dialect {
	return r.dialect
}

type tableDef struct {
	name    string
	columns []schema.Column
	primary []string
}

// Render renders ops as newline separated statements. Consecutive AddColumn
// operations on one table, and the primary index right after them, become a
// single CREATE TABLE.
func (r *SQLRenderer) Render(ops []migration.Operation) (string, error) {
	var stmts []string
	var pending *tableDef

	flush := func() {
		if pending != nil {
			stmts = append(stmts, r.createTable(pending))
			pending = nil
		}
	}

	for _, op := range ops {
		switch o := op.(type) {
		case migration.AddColumn:
			if pending == nil || pending.name != o.Table {
				flush()
				pending = &tableDef{name: o.Table}
			}
			pending.columns = append(pending.columns, o.Column)

		case migration.AddIndex:
			if o.Index.Kind == schema.IndexPrimary && pending != nil && pending.name == o.Table && pending.primary == nil {
				pending.primary = o.Index.Columns
				continue
			}
			flush()
			stmts = append(stmts, r.createIndex(o.Table, o.Index))

		case migration.AddForeignKey:
			flush()
			stmts = append(stmts, r.addForeignKey(o.Table, o.ForeignKey))

		case migration.DropTable:
			flush()
			stmts = append(stmts, fmt.Sprintf("DROP TABLE %s;", r.quote(o.Table)))

		case migration.DropForeignKey:
			flush()
			stmts = append(stmts, r.dropForeignKey(o))

		default:
			return "", fmt.Errorf("unsupported operation: %s", op.Type())
		}
	}
	flush()

	return strings.Join(stmts, "\n"), nil
}

func (r *SQLRenderer) createTable(def *tableDef) string {
	// SQLite only auto-increments a rowid alias declared inline
	inlinePK := ""
	if r.dialect == schema.DialectSQLite && len(def.primary) == 1 {
		for _, col := range def.columns {
			if col.Name == def.primary[0] && col.AutoIncrement && col.Kind.IsInteger() {
				inlinePK = col.Name
			}
		}
	}

	lines := make([]string, 0, len(def.columns)+1)
	for _, col := range def.columns {
		if col.Name == inlinePK {
			lines = append(lines, fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", r.quote(col.Name)))
			continue
		}
		lines = append(lines, r.columnDefinition(col))
	}
	if len(def.primary) > 0 && inlinePK == "" {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", r.quoteList(def.primary)))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", r.quote(def.name), strings.Join(lines, ",\n  "))
}

func (r *SQLRenderer) columnDefinition(col schema.Column) string {
	parts := []string{r.quote(col.Name), r.columnType(col)}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if col.DefaultValue != nil && !(col.AutoIncrement && r.dialect == schema.DialectPostgres) {
		parts = append(parts, "DEFAULT "+r.defaultValue(*col.DefaultValue, col.Kind))
	}

	if col.AutoIncrement && r.dialect == schema.DialectMySQL {
		parts = append(parts, "AUTO_INCREMENT")
	}

	if col.Kind == schema.KindEnum && r.dialect != schema.DialectMySQL && len(col.EnumValues) > 0 {
		parts = append(parts, fmt.Sprintf("CHECK (%s IN (%s))", r.quote(col.Name), quoteValues(col.EnumValues)))
	}

	return strings.Join(parts, " ")
}

// columnType maps a normalized column to the native type of the output dialect
func (r *SQLRenderer) columnType(col schema.Column) string {
	switch r.dialect {
	case schema.DialectMySQL:
		return mysqlType(col)
	case schema.DialectPostgres:
		return postgresType(col)
	default:
		return sqliteType(col)
	}
}

func mysqlType(col schema.Column) string {
	var t string
	switch col.Kind {
	case schema.KindTinyInteger:
		t = "TINYINT"
	case schema.KindSmallInteger:
		t = "SMALLINT"
	case schema.KindMediumInteger:
		t = "MEDIUMINT"
	case schema.KindInteger:
		t = "INT"
	case schema.KindBigInteger:
		t = "BIGINT"
	case schema.KindDecimal:
		t = withArgs("DECIMAL", col.Precision, col.Scale)
	case schema.KindFloat:
		t = "FLOAT"
	case schema.KindDouble:
		t = "DOUBLE"
	case schema.KindString:
		t = withLength("VARCHAR", col.Length, 255)
	case schema.KindChar:
		t = withLength("CHAR", col.Length, 255)
	case schema.KindText:
		t = "TEXT"
	case schema.KindMediumText:
		t = "MEDIUMTEXT"
	case schema.KindLongText:
		t = "LONGTEXT"
	case schema.KindDate:
		t = "DATE"
	case schema.KindDateTime:
		t = "DATETIME"
	case schema.KindTime, schema.KindTimeTz:
		t = "TIME"
	case schema.KindTimestamp, schema.KindTimestampTz:
		t = "TIMESTAMP"
	case schema.KindYear:
		t = "YEAR"
	case schema.KindBoolean:
		t = "TINYINT(1)"
	case schema.KindBinary:
		if col.Length > 0 {
			t = fmt.Sprintf("VARBINARY(%d)", col.Length)
		} else {
			t = "BLOB"
		}
	case schema.KindJSON, schema.KindJSONB:
		t = "JSON"
	case schema.KindUUID:
		t = "CHAR(36)"
	case schema.KindEnum:
		t = fmt.Sprintf("ENUM(%s)", quoteValues(col.EnumValues))
	default:
		t = rawType(col)
	}

	if col.Unsigned && (col.Kind.IsInteger() || col.Kind == schema.KindDecimal || col.Kind == schema.KindFloat || col.Kind == schema.KindDouble) {
		t += " UNSIGNED"
	}
	return t
}

func postgresType(col schema.Column) string {
	switch col.Kind {
	case schema.KindTinyInteger, schema.KindSmallInteger:
		if col.AutoIncrement {
			return "SMALLSERIAL"
		}
		return "SMALLINT"
	case schema.KindMediumInteger, schema.KindInteger:
		if col.AutoIncrement {
			return "SERIAL"
		}
		return "INTEGER"
	case schema.KindBigInteger:
		if col.AutoIncrement {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case schema.KindDecimal:
		return withArgs("NUMERIC", col.Precision, col.Scale)
	case schema.KindFloat:
		return "REAL"
	case schema.KindDouble:
		return "DOUBLE PRECISION"
	case schema.KindString:
		return withLength("VARCHAR", col.Length, 0)
	case schema.KindChar:
		return withLength("CHAR", col.Length, 0)
	case schema.KindText, schema.KindMediumText, schema.KindLongText:
		return "TEXT"
	case schema.KindDate:
		return "DATE"
	case schema.KindDateTime, schema.KindTimestamp:
		return "TIMESTAMP"
	case schema.KindTimestampTz:
		return "TIMESTAMP WITH TIME ZONE"
	case schema.KindTime:
		return "TIME"
	case schema.KindTimeTz:
		return "TIME WITH TIME ZONE"
	case schema.KindYear:
		return "INTEGER"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindBinary:
		return "BYTEA"
	case schema.KindJSON:
		return "JSON"
	case schema.KindJSONB:
		return "JSONB"
	case schema.KindUUID:
		return "UUID"
	case schema.KindEnum:
		return "VARCHAR(255)"
	default:
		return rawType(col)
	}
}

func sqliteType(col schema.Column) string {
	switch col.Kind {
	case schema.KindTinyInteger, schema.KindSmallInteger, schema.KindMediumInteger,
		schema.KindInteger, schema.KindBigInteger, schema.KindYear:
		return "INTEGER"
	case schema.KindDecimal:
		return withArgs("NUMERIC", col.Precision, col.Scale)
	case schema.KindFloat, schema.KindDouble:
		return "REAL"
	case schema.KindString:
		return withLength("VARCHAR", col.Length, 0)
	case schema.KindChar:
		return withLength("CHAR", col.Length, 0)
	case schema.KindText, schema.KindMediumText, schema.KindLongText, schema.KindJSON, schema.KindJSONB:
		return "TEXT"
	case schema.KindDate:
		return "DATE"
	case schema.KindDateTime, schema.KindTimestamp, schema.KindTimestampTz:
		return "DATETIME"
	case schema.KindTime, schema.KindTimeTz:
		return "TIME"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindBinary:
		return "BLOB"
	case schema.KindUUID:
		return "VARCHAR(36)"
	case schema.KindEnum:
		return "VARCHAR(255)"
	default:
		return rawType(col)
	}
}

func rawType(col schema.Column) string {
	if col.RawType == "" {
		return "TEXT"
	}
	return col.RawType
}

func withLength(base string, length, fallback int) string {
	if length <= 0 {
		length = fallback
	}
	if length <= 0 {
		return base
	}
	return fmt.Sprintf("%s(%d)", base, length)
}

func withArgs(base string, precision, scale int) string {
	if precision <= 0 {
		return base
	}
	return fmt.Sprintf("%s(%d,%d)", base, precision, scale)
}

var (
	castSuffix = regexp.MustCompile(`::[a-zA-Z_][a-zA-Z0-9_ ]*(\[\])?$`)
	numeric    = regexp.MustCompile(`^[-+]?[0-9]+(\.[0-9]+)?$`)
	funcCall   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*\(.*\)$`)
)

// defaultValue renders a column default as reported by the source database.
// Postgres casts are dropped for other dialects. Bare words, which MySQL
// reports for string defaults, are quoted. Parentheses only mark an
// expression on character columns when the default reads as a function call.
func (r *SQLRenderer) defaultValue(def string, kind schema.Kind) string {
	bare := castSuffix.ReplaceAllString(def, "")
	if r.dialect != schema.DialectPostgres {
		def = bare
	}

	switch {
	case numeric.MatchString(bare),
		strings.HasPrefix(bare, "'"),
		isKeyword(bare),
		funcCall.MatchString(bare):
		return def
	case strings.Contains(bare, "(") && !kind.IsText():
		return def
	default:
		return quoteValue(bare)
	}
}

func isKeyword(def string) bool {
	switch strings.ToUpper(def) {
	case "NULL", "TRUE", "FALSE", "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "LOCALTIME", "LOCALTIMESTAMP":
		return true
	}
	return false
}

func (r *SQLRenderer) createIndex(table string, idx schema.Index) string {
	switch idx.Kind {
	case schema.IndexPrimary:
		return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);", r.quote(table), r.quoteList(idx.Columns))
	case schema.IndexUnique:
		return fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s);", r.quote(idx.Name), r.quote(table), r.quoteList(idx.Columns))
	default:
		return fmt.Sprintf("CREATE INDEX %s ON %s (%s);", r.quote(idx.Name), r.quote(table), r.quoteList(idx.Columns))
	}
}

func (r *SQLRenderer) addForeignKey(table string, fk schema.ForeignKey) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s",
		r.quote(table), r.quote(fk.Name), r.quoteList(fk.Columns), r.quote(fk.ReferencedTable))
	if len(fk.ReferencedColumns) > 0 {
		_, _ = fmt.Fprintf(&b, " (%s)", r.quoteList(fk.ReferencedColumns))
	}
	if fk.OnDelete != schema.ActionNone && fk.OnDelete != schema.ActionNoAction {
		_, _ = fmt.Fprintf(&b, " ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != schema.ActionNone && fk.OnUpdate != schema.ActionNoAction {
		_, _ = fmt.Fprintf(&b, " ON UPDATE %s", fk.OnUpdate)
	}
	b.WriteString(";")

	return r.sqliteComment(b.String())
}

func (r *SQLRenderer) dropForeignKey(op migration.DropForeignKey) string {
	if r.dialect == schema.DialectMySQL {
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;", r.quote(op.Table), r.quote(op.Name))
	}
	return r.sqliteComment(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", r.quote(op.Table), r.quote(op.Name)))
}

// sqliteComment comments out a constraint statement on SQLite, which cannot
// alter constraints of an existing table
func (r *SQLRenderer) sqliteComment(stmt string) string {
	if r.dialect != schema.DialectSQLite {
		return stmt
	}
	return "-- " + stmt
}

func (r *SQLRenderer) quote(ident string) string {
	if r.dialect == schema.DialectMySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (r *SQLRenderer) quoteList(idents []string) string {
	quoted := make([]string, len(idents))
	for i, ident := range idents {
		quoted[i] = r.quote(ident)
	}
	return strings.Join(quoted, ", ")
}

func quoteValue(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func quoteValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteValue(v)
	}
	return strings.Join(quoted, ",")
}
