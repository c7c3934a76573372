package migration

import "github.com/tordrt/migrategen/internal/schema"

// OpType represents the type of a schema operation.
type OpType int

const (
	// OpAddColumn adds one column to a table being created.
	OpAddColumn OpType = iota

	// OpAddIndex adds a primary, unique or plain index.
	OpAddIndex

	// OpAddForeignKey adds one foreign key constraint to an existing table.
	OpAddForeignKey

	// OpDropTable removes a table with everything on it.
	OpDropTable

	// OpDropForeignKey removes a foreign key constraint by name.
	OpDropForeignKey
)

// String returns the string representation of an OpType.
func (o OpType) String() string {
	switch o {
	case OpAddColumn:
		return "AddColumn"
	case OpAddIndex:
		return "AddIndex"
	case OpAddForeignKey:
		return "AddForeignKey"
	case OpDropTable:
		return "DropTable"
	case OpDropForeignKey:
		return "DropForeignKey"
	default:
		return "Unknown"
	}
}

// Operation is a single schema change. It carries everything needed to render
// it, so renderers never go back to the database.
type Operation interface {
	Type() OpType
	TableName() string
}

// AddColumn adds Column to Table
type AddColumn struct {
	Table  string
	Column schema.Column
}

func (op AddColumn) Type() OpType      { return OpAddColumn }
func (op AddColumn) TableName() string { return op.Table }

// AddIndex adds Index to Table
type AddIndex struct {
	Table string
	Index schema.Index
}

func (op AddIndex) Type() OpType      { return OpAddIndex }
func (op AddIndex) TableName() string { return op.Table }

// AddForeignKey adds ForeignKey to Table
type AddForeignKey struct {
	Table      string
	ForeignKey schema.ForeignKey
}

func (op AddForeignKey) Type() OpType      { return OpAddForeignKey }
func (op AddForeignKey) TableName() string { return op.Table }

// DropTable drops Table
type DropTable struct {
	Table string
}

func (op DropTable) Type() OpType      { return OpDropTable }
func (op DropTable) TableName() string { return op.Table }

// DropForeignKey drops the constraint Name from Table
type DropForeignKey struct {
	Table string
	Name  string
	// Columns are the constrained columns, kept for dialects that need them
	Columns []string
}

func (op DropForeignKey) Type() OpType      { return OpDropForeignKey }
func (op DropForeignKey) TableName() string { return op.Table }
