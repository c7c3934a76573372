// Package normalize converts driver-specific metadata rows into the
// driver-agnostic schema model. Every function in this package is pure: the
// same raw table always yields an equal normalized table, and the result never
// shares slices with its input.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/migrategen/internal/schema"
)

// Func normalizes one raw table
type Func func(raw *schema.RawTable) schema.Table

// For returns the normalizer of a dialect
func For(dialect schema.Dialect) (Func, error) {
	switch dialect {
	case schema.DialectMySQL:
		return MySQL, nil
	case schema.DialectPostgres:
		return Postgres, nil
	case schema.DialectSQLite:
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// normalizeTable applies the shared index and foreign key rules around a
// dialect-specific column mapping.
func normalizeTable(raw *schema.RawTable, column func(schema.RawColumn) schema.Column) schema.Table {
	table := schema.Table{Name: raw.Name}
	if len(raw.Columns) == 0 {
		return table
	}

	table.Columns = make([]schema.Column, 0, len(raw.Columns))
	for _, rc := range raw.Columns {
		table.Columns = append(table.Columns, column(rc))
	}
	table.Indexes = normalizeIndexes(raw.Name, raw.Indexes)
	table.ForeignKeys = normalizeForeignKeys(raw.Name, raw.ForeignKeys)

	return table
}

func normalizeIndexes(tableName string, raw []schema.RawIndex) []schema.Index {
	var indexes []schema.Index
	hasPrimary := false

	for _, ri := range raw {
		if len(ri.Columns) == 0 {
			continue
		}

		idx := schema.Index{
			Name:    ri.Name,
			Columns: append([]string(nil), ri.Columns...),
		}

		switch {
		case ri.Primary:
			if hasPrimary {
				continue
			}
			hasPrimary = true
			idx.Kind = schema.IndexPrimary
		case ri.Unique:
			idx.Kind = schema.IndexUnique
		default:
			idx.Kind = schema.IndexPlain
		}

		if idx.Name == "" || strings.HasPrefix(idx.Name, "sqlite_autoindex_") {
			idx.Name = IndexName(tableName, idx.Columns, idx.Kind)
		}

		indexes = append(indexes, idx)
	}

	return indexes
}

// IndexName builds a conventional index name, e.g. users_email_unique
func IndexName(tableName string, columns []string, kind schema.IndexKind) string {
	parts := append([]string{tableName}, columns...)
	return strings.ToLower(strings.Join(append(parts, kind.String()), "_"))
}

// ForeignKeyName builds a conventional constraint name, e.g. posts_user_id_foreign
func ForeignKeyName(tableName string, columns []string) string {
	parts := append([]string{tableName}, columns...)
	return strings.ToLower(strings.Join(append(parts, "foreign"), "_"))
}

// normalizeForeignKeys groups per-column rows into constraints, keeping the
// order in which each constraint was first reported.
func normalizeForeignKeys(tableName string, raw []schema.RawForeignKey) []schema.ForeignKey {
	var fks []schema.ForeignKey
	pos := make(map[string]int)

	for _, row := range raw {
		key := row.Name
		if key == "" {
			key = "#" + strconv.Itoa(row.ID)
		}

		i, ok := pos[key]
		if !ok {
			i = len(fks)
			pos[key] = i
			fks = append(fks, schema.ForeignKey{
				Name:            row.Name,
				ReferencedTable: row.ReferencedTable,
				OnDelete:        normalizeAction(row.OnDelete),
				OnUpdate:        normalizeAction(row.OnUpdate),
			})
		}

		fks[i].Columns = append(fks[i].Columns, row.Column)
		if row.ReferencedColumn != "" {
			fks[i].ReferencedColumns = append(fks[i].ReferencedColumns, row.ReferencedColumn)
		}
	}

	for i := range fks {
		if fks[i].Name == "" {
			fks[i].Name = ForeignKeyName(tableName, fks[i].Columns)
		}
	}

	return fks
}

func normalizeAction(rule string) schema.Action {
	return schema.Action(strings.ToUpper(strings.TrimSpace(rule)))
}

// typeArgs splits "varchar(255)" into "varchar" and [255]. Non-numeric
// arguments are ignored.
func typeArgs(declared string) (string, []int) {
	open := strings.Index(declared, "(")
	if open == -1 {
		return strings.TrimSpace(declared), nil
	}

	base := strings.TrimSpace(declared[:open])
	closing := strings.LastIndex(declared, ")")
	if closing <= open {
		return base, nil
	}

	var args []int
	for _, part := range strings.Split(declared[open+1:closing], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		args = append(args, n)
	}
	return base, args
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
