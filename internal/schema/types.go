package schema

// Kind is the driver-agnostic column type
type Kind int

const (
	KindRaw Kind = iota // unrecognized native type, see Column.RawType
	KindTinyInteger
	KindSmallInteger
	KindMediumInteger
	KindInteger
	KindBigInteger
	KindDecimal
	KindFloat
	KindDouble
	KindString
	KindChar
	KindText
	KindMediumText
	KindLongText
	KindDate
	KindDateTime
	KindTime
	KindTimeTz
	KindTimestamp
	KindTimestampTz
	KindYear
	KindBoolean
	KindBinary
	KindJSON
	KindJSONB
	KindUUID
	KindEnum
)

var kindNames = map[Kind]string{
	KindRaw:           "raw",
	KindTinyInteger:   "tinyInteger",
	KindSmallInteger:  "smallInteger",
	KindMediumInteger: "mediumInteger",
	KindInteger:       "integer",
	KindBigInteger:    "bigInteger",
	KindDecimal:       "decimal",
	KindFloat:         "float",
	KindDouble:        "double",
	KindString:        "string",
	KindChar:          "char",
	KindText:          "text",
	KindMediumText:    "mediumText",
	KindLongText:      "longText",
	KindDate:          "date",
	KindDateTime:      "dateTime",
	KindTime:          "time",
	KindTimeTz:        "timeTz",
	KindTimestamp:     "timestamp",
	KindTimestampTz:   "timestampTz",
	KindYear:          "year",
	KindBoolean:       "boolean",
	KindBinary:        "binary",
	KindJSON:          "json",
	KindJSONB:         "jsonb",
	KindUUID:          "uuid",
	KindEnum:          "enum",
}

// String returns the canonical name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsInteger reports whether the kind is one of the integer kinds
func (k Kind) IsInteger() bool {
	return k >= KindTinyInteger && k <= KindBigInteger
}

// IsText reports whether the kind holds character data
func (k Kind) IsText() bool {
	return (k >= KindString && k <= KindLongText) || k == KindEnum
}

// IndexKind distinguishes primary, unique and plain indexes
type IndexKind int

const (
	IndexPrimary IndexKind = iota
	IndexUnique
	IndexPlain
)

// String returns the index kind name
func (k IndexKind) String() string {
	switch k {
	case IndexPrimary:
		return "primary"
	case IndexUnique:
		return "unique"
	default:
		return "index"
	}
}

// Action is a foreign key referential action. Empty means the database default.
type Action string

const (
	ActionNone       Action = ""
	ActionCascade    Action = "CASCADE"
	ActionSetNull    Action = "SET NULL"
	ActionSetDefault Action = "SET DEFAULT"
	ActionRestrict   Action = "RESTRICT"
	ActionNoAction   Action = "NO ACTION"
)

// Table represents a normalized database table
type Table struct {
	Name        string
	Columns     []Column
	Indexes     []Index
	ForeignKeys []ForeignKey
}

// Column represents a normalized table column
type Column struct {
	Name          string
	Kind          Kind
	Length        int // string/char/binary length, 0 when not applicable
	Precision     int // decimal/float precision, 0 when not applicable
	Scale         int
	Nullable      bool
	DefaultValue  *string
	AutoIncrement bool
	Unsigned      bool
	EnumValues    []string
	RawType       string // native type as reported by the driver
}

// Index represents a normalized index
type Index struct {
	Name    string
	Kind    IndexKind
	Columns []string
}

// ForeignKey represents a normalized foreign key constraint
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          Action
	OnUpdate          Action
}

// PrimaryKey returns the primary index of the table, if any
func (t *Table) PrimaryKey() (Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Kind == IndexPrimary {
			return idx, true
		}
	}
	return Index{}, false
}
