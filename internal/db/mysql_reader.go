package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/migrategen/internal/schema"
)

// MySQLReader reads table metadata from a MySQL database
type MySQLReader struct {
	client     *MySQLClient
	schemaName string
}

var _ Describer = (*MySQLReader)(nil)

// NewMySQLReader creates a reader for the given database
func NewMySQLReader(client *MySQLClient, schemaName string) *MySQLReader {
	return &MySQLReader{
		client:     client,
		schemaName: schemaName,
	}
}

// Dialect returns schema.DialectMySQL
func (r *MySQLReader) Dialect() schema.Dialect {
	return schema.DialectMySQL
}

// Close closes the underlying client
func (r *MySQLReader) Close() error {
	return r.client.Close()
}

// ListTables returns the base tables of the database
func (r *MySQLReader) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name AS table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	var tables []string
	if err := r.client.GetDB().SelectContext(ctx, &tables, query, r.schemaName); err != nil {
		return nil, err
	}
	return tables, nil
}

// DescribeTable reads columns, indexes and foreign keys of a table
func (r *MySQLReader) DescribeTable(ctx context.Context, tableName string) (*schema.RawTable, error) {
	table := &schema.RawTable{Name: tableName}

	columns, err := r.readColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	if len(columns) == 0 {
		return table, nil
	}
	table.Columns = columns

	indexes, err := r.readIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes: %w", err)
	}
	table.Indexes = indexes

	fks, err := r.readForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	return table, nil
}

type mysqlColumnRow struct {
	Name             string         `db:"column_name"`
	Ordinal          int            `db:"ordinal_position"`
	DataType         string         `db:"data_type"`
	ColumnType       string         `db:"column_type"`
	CharMaxLength    sql.NullInt64  `db:"character_maximum_length"`
	NumericPrecision sql.NullInt64  `db:"numeric_precision"`
	NumericScale     sql.NullInt64  `db:"numeric_scale"`
	IsNullable       string         `db:"is_nullable"`
	Default          sql.NullString `db:"column_default"`
	Extra            string         `db:"extra"`
}

func (r *MySQLReader) readColumns(ctx context.Context, tableName string) ([]schema.RawColumn, error) {
	query := `
		SELECT
			c.column_name AS column_name,
			c.ordinal_position AS ordinal_position,
			c.data_type AS data_type,
			c.column_type AS column_type,
			c.character_maximum_length AS character_maximum_length,
			c.numeric_precision AS numeric_precision,
			c.numeric_scale AS numeric_scale,
			c.is_nullable AS is_nullable,
			c.column_default AS column_default,
			c.extra AS extra
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	var rows []mysqlColumnRow
	if err := r.client.GetDB().SelectContext(ctx, &rows, query, r.schemaName, tableName); err != nil {
		return nil, err
	}

	columns := make([]schema.RawColumn, 0, len(rows))
	for _, row := range rows {
		col := schema.RawColumn{
			Name:             row.Name,
			Ordinal:          row.Ordinal,
			DataType:         strings.ToLower(row.DataType),
			ColumnType:       row.ColumnType,
			CharMaxLength:    nullInt(row.CharMaxLength),
			NumericPrecision: nullInt(row.NumericPrecision),
			NumericScale:     nullInt(row.NumericScale),
			Nullable:         row.IsNullable == "YES",
			Extra:            row.Extra,
		}
		if row.Default.Valid {
			def := row.Default.String
			col.Default = &def
		}
		columns = append(columns, col)
	}

	return columns, nil
}

type mysqlIndexRow struct {
	Name      string         `db:"index_name"`
	NonUnique int            `db:"non_unique"`
	Column    sql.NullString `db:"column_name"`
}

func (r *MySQLReader) readIndexes(ctx context.Context, tableName string) ([]schema.RawIndex, error) {
	query := `
		SELECT
			s.index_name AS index_name,
			s.non_unique AS non_unique,
			s.column_name AS column_name
		FROM information_schema.statistics s
		WHERE s.table_schema = ? AND s.table_name = ?
		ORDER BY s.index_name != 'PRIMARY', s.index_name, s.seq_in_index
	`

	var rows []mysqlIndexRow
	if err := r.client.GetDB().SelectContext(ctx, &rows, query, r.schemaName, tableName); err != nil {
		return nil, err
	}

	indexRows := make([]indexRow, 0, len(rows))
	for _, row := range rows {
		// functional key parts have no column
		if !row.Column.Valid {
			continue
		}
		indexRows = append(indexRows, indexRow{
			Name:    row.Name,
			Primary: row.Name == "PRIMARY",
			Unique:  row.NonUnique == 0,
			Column:  row.Column.String,
		})
	}

	return groupIndexRows(indexRows), nil
}

type mysqlForeignKeyRow struct {
	Name             string `db:"constraint_name"`
	Position         int    `db:"ordinal_position"`
	Column           string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table_name"`
	ReferencedColumn string `db:"referenced_column_name"`
	OnDelete         string `db:"delete_rule"`
	OnUpdate         string `db:"update_rule"`
}

func (r *MySQLReader) readForeignKeys(ctx context.Context, tableName string) ([]schema.RawForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name AS constraint_name,
			kcu.ordinal_position AS ordinal_position,
			kcu.column_name AS column_name,
			kcu.referenced_table_name AS referenced_table_name,
			kcu.referenced_column_name AS referenced_column_name,
			rc.delete_rule AS delete_rule,
			rc.update_rule AS update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.constraint_schema
			AND rc.constraint_name = kcu.constraint_name
			AND rc.table_name = kcu.table_name
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	var rows []mysqlForeignKeyRow
	if err := r.client.GetDB().SelectContext(ctx, &rows, query, r.schemaName, tableName); err != nil {
		return nil, err
	}

	fks := make([]schema.RawForeignKey, 0, len(rows))
	for _, row := range rows {
		fks = append(fks, schema.RawForeignKey{
			Name:             row.Name,
			Position:         row.Position,
			Column:           row.Column,
			ReferencedTable:  row.ReferencedTable,
			ReferencedColumn: row.ReferencedColumn,
			OnDelete:         row.OnDelete,
			OnUpdate:         row.OnUpdate,
		})
	}

	return fks, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
