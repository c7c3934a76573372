package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/tordrt/migrategen/internal/schema"
)

// SQLiteReader reads table metadata from a SQLite database
type SQLiteReader struct {
	client *SQLiteClient
}

var _ Describer = (*SQLiteReader)(nil)

// NewSQLiteReader creates a new SQLite reader
func NewSQLiteReader(client *SQLiteClient) *SQLiteReader {
	return &SQLiteReader{client: client}
}

// Dialect returns schema.DialectSQLite
func (r *SQLiteReader) Dialect() schema.Dialect {
	return schema.DialectSQLite
}

// Close closes the underlying client
func (r *SQLiteReader) Close() error {
	return r.client.Close()
}

// ListTables returns all user tables
func (r *SQLiteReader) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	var tables []string
	if err := r.client.GetDB().SelectContext(ctx, &tables, query); err != nil {
		return nil, err
	}
	return tables, nil
}

// DescribeTable reads columns, indexes and foreign keys of a table
func (r *SQLiteReader) DescribeTable(ctx context.Context, tableName string) (*schema.RawTable, error) {
	table := &schema.RawTable{Name: tableName}

	createSQL, err := r.readCreateSQL(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read table definition: %w", err)
	}
	table.CreateSQL = createSQL

	columns, err := r.readColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	if len(columns) == 0 {
		return table, nil
	}
	table.Columns = columns

	indexes, err := r.readIndexes(ctx, tableName, columns)
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

func (r *SQLiteReader) readCreateSQL(ctx context.Context, tableName string) (string, error) {
	var createSQL sql.NullString
	err := r.client.GetDB().GetContext(ctx, &createSQL,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return createSQL.String, nil
}

type sqliteColumnRow struct {
	CID          int            `db:"cid"`
	Name         string         `db:"name"`
	Type         string         `db:"type"`
	NotNull      int            `db:"notnull"`
	DefaultValue sql.NullString `db:"dflt_value"`
	PK           int            `db:"pk"`
}

func (r *SQLiteReader) readColumns(ctx context.Context, tableName string) ([]schema.RawColumn, error) {
	var rows []sqliteColumnRow
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))
	if err := r.client.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	columns := make([]schema.RawColumn, 0, len(rows))
	for _, row := range rows {
		col := schema.RawColumn{
			Name:            row.Name,
			Ordinal:         row.CID + 1,
			DataType:        row.Type,
			ColumnType:      row.Type,
			Nullable:        row.NotNull == 0,
			PrimaryKeyOrder: row.PK,
		}
		if row.DefaultValue.Valid {
			def := row.DefaultValue.String
			col.Default = &def
		}
		columns = append(columns, col)
	}

	return columns, nil
}

type sqliteIndexListRow struct {
	Seq     int    `db:"seq"`
	Name    string `db:"name"`
	Unique  int    `db:"unique"`
	Origin  string `db:"origin"`
	Partial int    `db:"partial"`
}

type sqliteIndexInfoRow struct {
	SeqNo int            `db:"seqno"`
	CID   int            `db:"cid"`
	Name  sql.NullString `db:"name"`
}

// readIndexes reads index_list in reverse seq order, which is creation order.
// The primary key comes from table_info because a rowid alias has no index.
func (r *SQLiteReader) readIndexes(ctx context.Context, tableName string, columns []schema.RawColumn) ([]schema.RawIndex, error) {
	var indexes []schema.RawIndex

	if pk := primaryKeyColumns(columns); len(pk) > 0 {
		indexes = append(indexes, schema.RawIndex{
			Name:    "primary",
			Primary: true,
			Unique:  true,
			Columns: pk,
			Origin:  "pk",
		})
	}

	var list []sqliteIndexListRow
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName))
	if err := r.client.GetDB().SelectContext(ctx, &list, query); err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Seq > list[j].Seq })

	for _, entry := range list {
		if entry.Origin == "pk" {
			continue
		}

		var info []sqliteIndexInfoRow
		infoQuery := fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(entry.Name))
		if err := r.client.GetDB().SelectContext(ctx, &info, infoQuery); err != nil {
			return nil, fmt.Errorf("failed to read index %s: %w", entry.Name, err)
		}

		var cols []string
		for _, col := range info {
			// expression index parts have no column name
			if col.Name.Valid {
				cols = append(cols, col.Name.String)
			}
		}
		if len(cols) == 0 {
			continue
		}

		indexes = append(indexes, schema.RawIndex{
			Name:    entry.Name,
			Unique:  entry.Unique == 1,
			Columns: cols,
			Origin:  entry.Origin,
		})
	}

	return indexes, nil
}

func primaryKeyColumns(columns []schema.RawColumn) []string {
	var pk []schema.RawColumn
	for _, col := range columns {
		if col.PrimaryKeyOrder > 0 {
			pk = append(pk, col)
		}
	}
	sort.SliceStable(pk, func(i, j int) bool { return pk[i].PrimaryKeyOrder < pk[j].PrimaryKeyOrder })

	names := make([]string, 0, len(pk))
	for _, col := range pk {
		names = append(names, col.Name)
	}
	return names
}

type sqliteForeignKeyRow struct {
	ID       int            `db:"id"`
	Seq      int            `db:"seq"`
	Table    string         `db:"table"`
	From     string         `db:"from"`
	To       sql.NullString `db:"to"`
	OnUpdate string         `db:"on_update"`
	OnDelete string         `db:"on_delete"`
	Match    string         `db:"match"`
}

// readForeignKeys reads foreign_key_list. SQLite numbers constraints with the
// last declared first, so ids are reversed to get declaration order.
func (r *SQLiteReader) readForeignKeys(ctx context.Context, tableName string) ([]schema.RawForeignKey, error) {
	var rows []sqliteForeignKeyRow
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName))
	if err := r.client.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ID != rows[j].ID {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].Seq < rows[j].Seq
	})

	fks := make([]schema.RawForeignKey, 0, len(rows))
	for _, row := range rows {
		fks = append(fks, schema.RawForeignKey{
			ID:               row.ID,
			Position:         row.Seq + 1,
			Column:           row.From,
			ReferencedTable:  row.Table,
			ReferencedColumn: row.To.String,
			OnDelete:         row.OnDelete,
			OnUpdate:         row.OnUpdate,
		})
	}

	return fks, nil
}
