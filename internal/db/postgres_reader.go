package db

import (
	"context"
	"fmt"

	"github.com/tordrt/migrategen/internal/schema"
)

// PostgresReader reads table metadata from a PostgreSQL schema
type PostgresReader struct {
	client *PostgresClient
	schema string
}

var _ Describer = (*PostgresReader)(nil)

// NewPostgresReader creates a reader for the given schema
func NewPostgresReader(client *PostgresClient, schemaName string) *PostgresReader {
	return &PostgresReader{
		client: client,
		schema: schemaName,
	}
}

// Dialect returns schema.DialectPostgres
func (r *PostgresReader) Dialect() schema.Dialect {
	return schema.DialectPostgres
}

// Close closes the underlying client
func (r *PostgresReader) Close() error {
	return r.client.Close()
}

// ListTables returns the base tables of the schema
func (r *PostgresReader) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := r.client.GetPool().Query(ctx, query, r.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// DescribeTable reads columns, indexes and foreign keys of a table
func (r *PostgresReader) DescribeTable(ctx context.Context, tableName string) (*schema.RawTable, error) {
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

func (r *PostgresReader) readColumns(ctx context.Context, tableName string) ([]schema.RawColumn, error) {
	query := `
		SELECT
			c.column_name,
			c.ordinal_position::int,
			c.data_type,
			c.udt_name,
			c.character_maximum_length::int,
			c.numeric_precision::int,
			c.numeric_scale::int,
			c.is_nullable,
			c.column_default,
			c.is_identity
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := r.client.GetPool().Query(ctx, query, r.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.RawColumn
	var enumTypes []string

	for rows.Next() {
		var col schema.RawColumn
		var nullable, isIdentity string

		if err := rows.Scan(
			&col.Name, &col.Ordinal, &col.DataType, &col.UDTName,
			&col.CharMaxLength, &col.NumericPrecision, &col.NumericScale,
			&nullable, &col.Default, &isIdentity,
		); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.IsIdentity = isIdentity == "YES"
		col.ColumnType = col.DataType

		if col.DataType == "USER-DEFINED" {
			enumTypes = append(enumTypes, col.UDTName)
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(enumTypes) > 0 {
		enumValues, err := r.readEnumValues(ctx, enumTypes)
		if err != nil {
			return nil, err
		}
		for i := range columns {
			if values, ok := enumValues[columns[i].UDTName]; ok && columns[i].DataType == "USER-DEFINED" {
				columns[i].EnumValues = values
			}
		}
	}

	return columns, nil
}

// readEnumValues returns the labels of each enum type, in sort order
func (r *PostgresReader) readEnumValues(ctx context.Context, typeNames []string) (map[string][]string, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1 AND t.typname = ANY($2)
		ORDER BY t.typname, e.enumsortorder
	`

	rows, err := r.client.GetPool().Query(ctx, query, r.schema, typeNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var typName, label string
		if err := rows.Scan(&typName, &label); err != nil {
			return nil, err
		}
		result[typName] = append(result[typName], label)
	}

	return result, rows.Err()
}

func (r *PostgresReader) readIndexes(ctx context.Context, tableName string) ([]schema.RawIndex, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisprimary,
			ix.indisunique,
			a.attname
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
		ORDER BY i.oid, array_position(ix.indkey, a.attnum)
	`

	rows, err := r.client.GetPool().Query(ctx, query, r.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexRows []indexRow
	for rows.Next() {
		var row indexRow
		if err := rows.Scan(&row.Name, &row.Primary, &row.Unique, &row.Column); err != nil {
			return nil, err
		}
		indexRows = append(indexRows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groupIndexRows(indexRows), nil
}

func (r *PostgresReader) readForeignKeys(ctx context.Context, tableName string) ([]schema.RawForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.ordinal_position::int,
			kcu.column_name,
			ref.table_name,
			ref.column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = rc.constraint_schema
			AND kcu.constraint_name = rc.constraint_name
		JOIN information_schema.key_column_usage ref
			ON ref.constraint_schema = rc.unique_constraint_schema
			AND ref.constraint_name = rc.unique_constraint_name
			AND ref.ordinal_position = kcu.position_in_unique_constraint
		WHERE kcu.table_schema = $1 AND kcu.table_name = $2
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := r.client.GetPool().Query(ctx, query, r.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.RawForeignKey
	for rows.Next() {
		var fk schema.RawForeignKey
		if err := rows.Scan(
			&fk.Name, &fk.Position, &fk.Column,
			&fk.ReferencedTable, &fk.ReferencedColumn,
			&fk.OnDelete, &fk.OnUpdate,
		); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}
