package migration

import (
	"sort"

	"github.com/tordrt/migrategen/internal/schema"
)

// SynthesizeCreate builds the create unit body for a table: one AddColumn per
// column in ordinal order, then the indexes ordered primary, unique, plain.
// Down is a single DropTable. ok is false when the table has no columns.
func SynthesizeCreate(table schema.Table) (up, down []Operation, ok bool) {
	if len(table.Columns) == 0 {
		return nil, nil, false
	}

	up = make([]Operation, 0, len(table.Columns)+len(table.Indexes))
	for _, col := range table.Columns {
		up = append(up, AddColumn{Table: table.Name, Column: col})
	}

	indexes := append([]schema.Index(nil), table.Indexes...)
	sort.SliceStable(indexes, func(i, j int) bool {
		return indexes[i].Kind < indexes[j].Kind
	})
	for _, idx := range indexes {
		up = append(up, AddIndex{Table: table.Name, Index: idx})
	}

	down = []Operation{DropTable{Table: table.Name}}
	return up, down, true
}

// SynthesizeForeignKeys builds the foreign keys unit body for a table: one
// AddForeignKey per constraint and, at the same position in down, the
// DropForeignKey undoing it. ok is false when there are no constraints.
func SynthesizeForeignKeys(table string, fks []schema.ForeignKey) (up, down []Operation, ok bool) {
	if len(fks) == 0 {
		return nil, nil, false
	}

	up = make([]Operation, 0, len(fks))
	down = make([]Operation, 0, len(fks))
	for _, fk := range fks {
		up = append(up, AddForeignKey{Table: table, ForeignKey: fk})
		down = append(down, DropForeignKey{
			Table:   table,
			Name:    fk.Name,
			Columns: append([]string(nil), fk.Columns...),
		})
	}

	return up, down, true
}

// Synthesize dispatches to the synthesis function of path
func Synthesize(path Path, table schema.Table) (up, down []Operation, ok bool) {
	switch path {
	case CreatePath:
		return SynthesizeCreate(table)
	case ForeignKeysPath:
		return SynthesizeForeignKeys(table.Name, table.ForeignKeys)
	default:
		return nil, nil, false
	}
}
