package normalize

import (
	"regexp"
	"strings"

	"github.com/tordrt/migrategen/internal/schema"
)

var autoincrement = regexp.MustCompile(`(?i)\bautoincrement\b`)

// SQLite normalizes a table read with the table_info, index_list and
// foreign_key_list pragmas. Declared types are free-form, so known type names
// are mapped and anything else is kept verbatim as a raw type.
func SQLite(raw *schema.RawTable) schema.Table {
	table := normalizeTable(raw, sqliteColumn)

	// only a rowid alias declared with AUTOINCREMENT never reuses keys
	if !autoincrement.MatchString(raw.CreateSQL) {
		return table
	}
	if pk, ok := table.PrimaryKey(); ok && len(pk.Columns) == 1 {
		for i := range table.Columns {
			col := &table.Columns[i]
			if col.Name == pk.Columns[0] && strings.EqualFold(strings.TrimSpace(col.RawType), "integer") {
				col.AutoIncrement = true
			}
		}
	}

	return table
}

func sqliteColumn(rc schema.RawColumn) schema.Column {
	declared := rc.ColumnType
	if declared == "" {
		declared = rc.DataType
	}

	col := schema.Column{
		Name:         rc.Name,
		Nullable:     rc.Nullable,
		DefaultValue: copyString(rc.Default),
		RawType:      declared,
	}

	lower := strings.ToLower(declared)
	base, args := typeArgs(lower)
	col.Unsigned = strings.Contains(base, "unsigned")
	base = strings.TrimSpace(strings.TrimSuffix(base, "unsigned"))

	switch base {
	case "tinyint":
		if len(args) == 1 && args[0] == 1 {
			col.Kind = schema.KindBoolean
		} else {
			col.Kind = schema.KindTinyInteger
		}
	case "smallint", "int2":
		col.Kind = schema.KindSmallInteger
	case "mediumint":
		col.Kind = schema.KindMediumInteger
	case "int", "integer", "int4":
		col.Kind = schema.KindInteger
	case "bigint", "int8", "unsigned big int":
		col.Kind = schema.KindBigInteger
	case "decimal", "numeric":
		col.Kind = schema.KindDecimal
		col.Precision = argAt(args, 0)
		col.Scale = argAt(args, 1)
	case "float":
		col.Kind = schema.KindFloat
	case "double", "double precision", "real":
		col.Kind = schema.KindDouble
	case "varchar", "character varying", "nvarchar", "varying character":
		col.Kind = schema.KindString
		col.Length = argAt(args, 0)
	case "char", "character", "nchar", "native character":
		col.Kind = schema.KindChar
		col.Length = argAt(args, 0)
	case "text", "clob":
		col.Kind = schema.KindText
	case "date":
		col.Kind = schema.KindDate
	case "datetime":
		col.Kind = schema.KindDateTime
	case "time":
		col.Kind = schema.KindTime
	case "timestamp":
		col.Kind = schema.KindTimestamp
	case "boolean", "bool":
		col.Kind = schema.KindBoolean
	case "blob":
		col.Kind = schema.KindBinary
	case "json":
		col.Kind = schema.KindJSON
	case "uuid":
		col.Kind = schema.KindUUID
	default:
		col.Kind = schema.KindRaw
	}

	return col
}
