package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// PostgresSource reads a PostgreSQL database as a migration source.
// Only tables in the public schema are visible.
type PostgresSource struct {
	dsn string
	db  *sql.DB
	log zerolog.Logger
}

var _ DataSource = (*PostgresSource)(nil)

// NewPostgresSource returns a source for the given connection string.
func NewPostgresSource(dsn string, log zerolog.Logger) *PostgresSource {
	return &PostgresSource{
		dsn: dsn,
		log: log.With().Str("source", "postgresql").Logger(),
	}
}

func (s *PostgresSource) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return fmt.Errorf("migrate: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("migrate: ping postgres: %w", err)
	}
	s.db = db
	return nil
}

func (s *PostgresSource) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *PostgresSource) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("migrate: postgres source not connected")
	}
	return s.db.PingContext(ctx)
}

func (s *PostgresSource) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["table_name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *PostgresSource) TableExists(ctx context.Context, table string) (bool, error) {
	rows, err := s.Query(ctx,
		`SELECT COUNT(*) AS n FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_name = $1`, table)
	if err != nil {
		return false, err
	}
	n, _ := rows[0]["n"].(int64)
	return n > 0, nil
}

func (s *PostgresSource) RowCount(ctx context.Context, table string) (int, error) {
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

func (s *PostgresSource) Rows(ctx context.Context, table string, offset, limit int) ([]Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	// Paging needs a stable order; ctid is cheap and total for a
	// read-only migration pass.
	return s.Query(ctx,
		fmt.Sprintf(`SELECT * FROM %q ORDER BY ctid LIMIT $1 OFFSET $2`, table),
		limit, offset)
}

func (s *PostgresSource) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if s.db == nil {
		return nil, fmt.Errorf("migrate: postgres source not connected")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("migrate: postgres query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}
