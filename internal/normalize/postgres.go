package normalize

import (
	"strings"

	"github.com/tordrt/migrategen/internal/schema"
)

// Postgres normalizes a table read from information_schema on PostgreSQL
func Postgres(raw *schema.RawTable) schema.Table {
	return normalizeTable(raw, postgresColumn)
}

func postgresColumn(rc schema.RawColumn) schema.Column {
	col := schema.Column{
		Name:         rc.Name,
		Nullable:     rc.Nullable,
		DefaultValue: copyString(rc.Default),
		RawType:      postgresRawType(rc),
	}

	switch postgresTypeName(rc) {
	case "smallint":
		col.Kind = schema.KindSmallInteger
	case "integer":
		col.Kind = schema.KindInteger
	case "bigint":
		col.Kind = schema.KindBigInteger
	case "numeric":
		col.Kind = schema.KindDecimal
		col.Precision = intOr(rc.NumericPrecision, 0)
		col.Scale = intOr(rc.NumericScale, 0)
	case "real":
		col.Kind = schema.KindFloat
	case "double precision":
		col.Kind = schema.KindDouble
	case "character varying":
		col.Kind = schema.KindString
		col.Length = intOr(rc.CharMaxLength, 0)
	case "character":
		col.Kind = schema.KindChar
		col.Length = intOr(rc.CharMaxLength, 0)
	case "text":
		col.Kind = schema.KindText
	case "date":
		col.Kind = schema.KindDate
	case "time without time zone":
		col.Kind = schema.KindTime
	case "time with time zone":
		col.Kind = schema.KindTimeTz
	case "timestamp without time zone":
		col.Kind = schema.KindTimestamp
	case "timestamp with time zone":
		col.Kind = schema.KindTimestampTz
	case "boolean":
		col.Kind = schema.KindBoolean
	case "bytea":
		col.Kind = schema.KindBinary
	case "json":
		col.Kind = schema.KindJSON
	case "jsonb":
		col.Kind = schema.KindJSONB
	case "uuid":
		col.Kind = schema.KindUUID
	case "USER-DEFINED":
		if len(rc.EnumValues) > 0 {
			col.Kind = schema.KindEnum
			col.EnumValues = append([]string(nil), rc.EnumValues...)
		} else {
			col.Kind = schema.KindRaw
		}
	default:
		col.Kind = schema.KindRaw
	}

	// serial columns report their sequence as the default
	if col.Kind.IsInteger() && (rc.IsIdentity || isSequenceDefault(rc.Default)) {
		col.AutoIncrement = true
		col.DefaultValue = nil
	}

	return col
}

// postgresTypeName resolves the information_schema data_type, falling back to
// the udt name when the data type is missing.
func postgresTypeName(rc schema.RawColumn) string {
	if rc.DataType != "" {
		return rc.DataType
	}
	return normalizeUdtName(rc.UDTName)
}

func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int2":
		return "smallint"
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case "varchar":
		return "character varying"
	case "bpchar":
		return "character"
	case "timestamp":
		return "timestamp without time zone"
	case "timestamptz":
		return "timestamp with time zone"
	case "time":
		return "time without time zone"
	case "timetz":
		return "time with time zone"
	default:
		return udtName
	}
}

// postgresRawType is the native type used when a column cannot be mapped
func postgresRawType(rc schema.RawColumn) string {
	switch rc.DataType {
	case "ARRAY":
		// udt_name of an array type is the element type prefixed with "_"
		return normalizeUdtName(strings.TrimPrefix(rc.UDTName, "_")) + "[]"
	case "USER-DEFINED", "":
		return rc.UDTName
	default:
		return rc.DataType
	}
}

func isSequenceDefault(def *string) bool {
	return def != nil && strings.HasPrefix(*def, "nextval(")
}
