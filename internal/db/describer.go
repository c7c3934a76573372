package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tordrt/migrategen/internal/schema"
)

// ErrConnection marks failures to reach or authenticate to the database.
// They abort the run.
var ErrConnection = errors.New("database connection failed")

// IsConnectionError reports whether err means the connection itself is
// unusable, as opposed to a failure confined to one query
func IsConnectionError(err error) bool {
	if errors.Is(err, ErrConnection) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	// socket level failures, possibly surfacing mid-query
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

// Describer reads table metadata from one database
type Describer interface {
	// Dialect returns the driver the metadata comes from
	Dialect() schema.Dialect

	// ListTables returns all base tables, sorted by name
	ListTables(ctx context.Context) ([]string, error)

	// DescribeTable returns the raw metadata of a table. A table that does not
	// exist or has no columns yields an empty column list, not an error.
	DescribeTable(ctx context.Context, tableName string) (*schema.RawTable, error)

	Close() error
}

// groupIndexRows folds per-column index rows into indexes, keeping the order in
// which each index was first seen.
func groupIndexRows(rows []indexRow) []schema.RawIndex {
	var indexes []schema.RawIndex
	pos := make(map[string]int)

	for _, r := range rows {
		i, ok := pos[r.Name]
		if !ok {
			i = len(indexes)
			pos[r.Name] = i
			indexes = append(indexes, schema.RawIndex{
				Name:    r.Name,
				Primary: r.Primary,
				Unique:  r.Unique,
			})
		}
		indexes[i].Columns = append(indexes[i].Columns, r.Column)
	}

	return indexes
}

type indexRow struct {
	Name    string
	Primary bool
	Unique  bool
	Column  string
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
