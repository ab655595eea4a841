package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// DataSource is a paged reader over a relational database. Both the
// SQLite and PostgreSQL sources implement it; tests use an in-memory
// fake.
type DataSource interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	TableNames(ctx context.Context) ([]string, error)
	TableExists(ctx context.Context, table string) (bool, error)
	RowCount(ctx context.Context, table string) (int, error)

	// Rows reads one page of a table in a stable order.
	Rows(ctx context.Context, table string, offset, limit int) ([]Row, error)

	// Query runs an arbitrary read query.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// ColumnInfo describes one column of a source table.
type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// TableProfile is the shape and size of one source table.
type TableProfile struct {
	Name     string
	RowCount int
	Columns  []ColumnInfo
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkIdent guards table names that end up interpolated into SQL,
// since placeholders cannot carry identifiers.
func checkIdent(name string) error {
	if !identRE.MatchString(name) {
		return fmt.Errorf("migrate: invalid identifier %q", name)
	}
	return nil
}

// scanRows renders *sql.Rows into generic row maps. Byte slices become
// strings so text columns survive the drivers that return []byte.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[name] = string(v)
			default:
				row[name] = v
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
