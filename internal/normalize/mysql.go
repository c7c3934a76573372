package normalize

import (
	"strings"

	"github.com/tordrt/migrategen/internal/schema"
)

// MySQL normalizes a table read from information_schema on MySQL or MariaDB
func MySQL(raw *schema.RawTable) schema.Table {
	return normalizeTable(raw, mysqlColumn)
}

func mysqlColumn(rc schema.RawColumn) schema.Column {
	columnType := strings.ToLower(rc.ColumnType)
	dataType := strings.ToLower(rc.DataType)
	if dataType == "" {
		dataType, _ = typeArgs(columnType)
	}

	col := schema.Column{
		Name:          rc.Name,
		Nullable:      rc.Nullable,
		DefaultValue:  copyString(rc.Default),
		AutoIncrement: strings.Contains(strings.ToLower(rc.Extra), "auto_increment"),
		Unsigned:      strings.Contains(columnType, "unsigned"),
		RawType:       rc.ColumnType,
	}

	_, args := typeArgs(columnType)

	switch dataType {
	case "tinyint":
		if len(args) == 1 && args[0] == 1 {
			col.Kind = schema.KindBoolean
		} else {
			col.Kind = schema.KindTinyInteger
		}
	case "bool", "boolean":
		col.Kind = schema.KindBoolean
	case "smallint":
		col.Kind = schema.KindSmallInteger
	case "mediumint":
		col.Kind = schema.KindMediumInteger
	case "int", "integer":
		col.Kind = schema.KindInteger
	case "bigint":
		col.Kind = schema.KindBigInteger
	case "decimal", "numeric":
		col.Kind = schema.KindDecimal
		col.Precision = intOr(rc.NumericPrecision, argAt(args, 0))
		col.Scale = intOr(rc.NumericScale, argAt(args, 1))
	case "float":
		col.Kind = schema.KindFloat
	case "double", "real", "double precision":
		col.Kind = schema.KindDouble
	case "varchar":
		col.Kind = schema.KindString
		col.Length = intOr(rc.CharMaxLength, argAt(args, 0))
	case "char":
		col.Kind = schema.KindChar
		col.Length = intOr(rc.CharMaxLength, argAt(args, 0))
	case "tinytext", "text":
		col.Kind = schema.KindText
	case "mediumtext":
		col.Kind = schema.KindMediumText
	case "longtext":
		col.Kind = schema.KindLongText
	case "date":
		col.Kind = schema.KindDate
	case "datetime":
		col.Kind = schema.KindDateTime
	case "time":
		col.Kind = schema.KindTime
	case "timestamp":
		col.Kind = schema.KindTimestamp
	case "year":
		col.Kind = schema.KindYear
	case "binary", "varbinary":
		col.Kind = schema.KindBinary
		col.Length = intOr(rc.CharMaxLength, argAt(args, 0))
	case "tinyblob", "blob", "mediumblob", "longblob":
		col.Kind = schema.KindBinary
	case "json":
		col.Kind = schema.KindJSON
	case "enum":
		col.Kind = schema.KindEnum
		col.EnumValues = parseEnumValues(rc.ColumnType)
	default:
		col.Kind = schema.KindRaw
	}

	if col.AutoIncrement && !col.Kind.IsInteger() {
		col.AutoIncrement = false
	}

	return col
}

// parseEnumValues parses the labels of "enum('a','b')". Quotes inside a label
// are doubled by MySQL and a label may contain commas.
func parseEnumValues(columnType string) []string {
	start := strings.Index(columnType, "(")
	end := strings.LastIndex(columnType, ")")
	if start == -1 || end <= start {
		return nil
	}

	list := columnType[start+1 : end]
	var values []string
	var current strings.Builder
	inQuote := false

	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case c == '\'' && !inQuote:
			inQuote = true
		case c == '\'' && inQuote:
			if i+1 < len(list) && list[i+1] == '\'' {
				current.WriteByte('\'')
				i++
				continue
			}
			inQuote = false
			values = append(values, current.String())
			current.Reset()
		case inQuote:
			current.WriteByte(c)
		}
	}

	return values
}

func argAt(args []int, i int) int {
	if i < len(args) {
		return args[i]
	}
	return 0
}
