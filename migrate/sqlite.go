package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteSource reads a SQLite database file as a migration source. It
// also knows how to profile the schema and suggest a starting mapping
// for unfamiliar databases.
type SQLiteSource struct {
	path string
	db   *sql.DB
	log  zerolog.Logger
}

var _ DataSource = (*SQLiteSource)(nil)

// NewSQLiteSource returns a source for the given database file.
func NewSQLiteSource(path string, log zerolog.Logger) *SQLiteSource {
	return &SQLiteSource{
		path: path,
		log:  log.With().Str("source", "sqlite").Str("path", path).Logger(),
	}
}

func (s *SQLiteSource) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("migrate: open sqlite %s: %w", s.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("migrate: ping sqlite %s: %w", s.path, err)
	}
	s.db = db
	return nil
}

func (s *SQLiteSource) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteSource) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("migrate: sqlite source not connected")
	}
	return s.db.PingContext(ctx)
}

func (s *SQLiteSource) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.Query(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *SQLiteSource) TableExists(ctx context.Context, table string) (bool, error) {
	rows, err := s.Query(ctx,
		`SELECT COUNT(*) AS n FROM sqlite_master WHERE type='table' AND name=?`, table)
	if err != nil {
		return false, err
	}
	n, _ := rows[0]["n"].(int64)
	return n > 0, nil
}

func (s *SQLiteSource) RowCount(ctx context.Context, table string) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	rows, err := s.Query(ctx, fmt.Sprintf(`SELECT COUNT(*) AS n FROM %q`, table))
	if err != nil {
		return 0, err
	}
	n, _ := rows[0]["n"].(int64)
	return int(n), nil
}

// Rows pages a table in rowid order so batches never overlap or skip.
// WITHOUT ROWID tables fall back to primary-key order.
func (s *SQLiteSource) Rows(ctx context.Context, table string, offset, limit int) ([]Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	rows, err := s.Query(ctx, fmt.Sprintf(`SELECT * FROM %q ORDER BY rowid LIMIT ? OFFSET ?`, table), limit, offset)
	if err == nil {
		return rows, nil
	}

	columns, schemaErr := s.Schema(ctx, table)
	if schemaErr != nil {
		return nil, err
	}
	var order []string
	for _, c := range columns {
		if c.PrimaryKey {
			order = append(order, fmt.Sprintf("%q", c.Name))
		}
	}
	if len(order) == 0 {
		return nil, err
	}
	return s.Query(ctx, fmt.Sprintf(`SELECT * FROM %q ORDER BY %s LIMIT ? OFFSET ?`,
		table, strings.Join(order, ", ")), limit, offset)
}

func (s *SQLiteSource) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if s.db == nil {
		return nil, fmt.Errorf("migrate: sqlite source not connected")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("migrate: sqlite query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Schema lists the columns of one table.
func (s *SQLiteSource) Schema(ctx context.Context, table string) ([]ColumnInfo, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	rows, err := s.Query(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnInfo, 0, len(rows))
	for _, row := range rows {
		name, _ := row["name"].(string)
		colType, _ := row["type"].(string)
		notNull, _ := row["notnull"].(int64)
		pk, _ := row["pk"].(int64)
		columns = append(columns, ColumnInfo{
			Name:       name,
			Type:       colType,
			NotNull:    notNull != 0,
			PrimaryKey: pk != 0,
		})
	}
	return columns, nil
}

// SampleData reads the first rows of a table, for mapping design and
// spot checks before a run.
func (s *SQLiteSource) SampleData(ctx context.Context, table string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.Rows(ctx, table, 0, limit)
}

// DatabaseSize reports the database file size in bytes.
func (s *SQLiteSource) DatabaseSize(ctx context.Context) (int64, error) {
	pages, err := s.Query(ctx, `PRAGMA page_count`)
	if err != nil {
		return 0, err
	}
	size, err := s.Query(ctx, `PRAGMA page_size`)
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 || len(size) == 0 {
		return 0, fmt.Errorf("migrate: sqlite pragma returned no rows")
	}
	count, _ := pages[0]["page_count"].(int64)
	bytes, _ := size[0]["page_size"].(int64)
	return count * bytes, nil
}

// Analyze profiles every table: columns and row counts.
func (s *SQLiteSource) Analyze(ctx context.Context) ([]TableProfile, error) {
	names, err := s.TableNames(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]TableProfile, 0, len(names))
	for _, name := range names {
		columns, err := s.Schema(ctx, name)
		if err != nil {
			return nil, err
		}
		count, err := s.RowCount(ctx, name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, TableProfile{Name: name, RowCount: count, Columns: columns})
	}
	return profiles, nil
}

// SuggestMapping derives a starting mapping from a table's schema: the
// primary key column becomes the partition key, the sort key is the
// METADATA constant and every column maps through verbatim. Callers are
// expected to refine the result.
func (s *SQLiteSource) SuggestMapping(ctx context.Context, table string) (Mapping, error) {
	columns, err := s.Schema(ctx, table)
	if err != nil {
		return Mapping{}, err
	}
	if len(columns) == 0 {
		return Mapping{}, fmt.Errorf("migrate: table %s has no columns", table)
	}

	idColumn := columns[0].Name
	for _, col := range columns {
		if col.PrimaryKey {
			idColumn = col.Name
			break
		}
		if strings.EqualFold(col.Name, "id") {
			idColumn = col.Name
		}
	}

	entityType := strings.ToUpper(strings.TrimSuffix(table, "s"))
	keyPrefix := entityType + "#"

	fields := make(map[string]FieldSource, len(columns))
	for _, col := range columns {
		fields[col.Name] = FieldSource{Column: col.Name}
	}

	return Mapping{
		SourceTable: table,
		EntityType:  entityType,
		Keys: KeyMapping{
			PK: func(row Row) string {
				if v, found := row[idColumn]; found && v != nil {
					return keyPrefix + fmt.Sprint(v)
				}
				return ""
			},
			SK: func(Row) string { return "METADATA" },
		},
		Fields: fields,
	}, nil
}
