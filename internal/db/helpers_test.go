package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tordrt/migrategen/internal/schema"
)

// findColumn returns the named column of a raw table
func findColumn(t *testing.T, table *schema.RawTable, name string) schema.RawColumn {
	t.Helper()

	for _, col := range table.Columns {
		if col.Name == name {
			return col
		}
	}
	require.Failf(t, "column not found", "%s.%s", table.Name, name)
	return schema.RawColumn{}
}

// findIndex returns the named index of a raw table
func findIndex(t *testing.T, table *schema.RawTable, name string) schema.RawIndex {
	t.Helper()

	for _, idx := range table.Indexes {
		if idx.Name == name {
			return idx
		}
	}
	require.Failf(t, "index not found", "%s.%s", table.Name, name)
	return schema.RawIndex{}
}

func columnNames(table *schema.RawTable) []string {
	names := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		names = append(names, col.Name)
	}
	return names
}
