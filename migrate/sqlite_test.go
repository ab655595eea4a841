package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/single-table-toolkit/dynstore"
)

func seedSQLite(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			first_name TEXT,
			last_name TEXT
		);
		CREATE TABLE circles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);
	`)
	require.NoError(t, err)

	for _, row := range [][]string{
		{"u1", "amara@example.com", "Amara", "Okafor"},
		{"u2", "kwame@example.com", "Kwame", "Mensah"},
		{"u3", "zola@example.com", "Zola", "Dlamini"},
	} {
		_, err = db.Exec(`INSERT INTO users (id, email, first_name, last_name) VALUES (?, ?, ?, ?)`,
			row[0], row[1], row[2], row[3])
		require.NoError(t, err)
	}
	return path
}

func TestSQLiteSourceReadsTables(t *testing.T) {
	t.Parallel()

	source := NewSQLiteSource(seedSQLite(t), zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, source.Connect(ctx))
	defer source.Close()
	require.NoError(t, source.Ping(ctx))

	names, err := source.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"circles", "users"}, names)

	found, err := source.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = source.TableExists(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, found)

	count, err := source.RowCount(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteSourcePagesRows(t *testing.T) {
	t.Parallel()

	source := NewSQLiteSource(seedSQLite(t), zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, source.Connect(ctx))
	defer source.Close()

	first, err := source.Rows(ctx, "users", 0, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	rest, err := source.Rows(ctx, "users", 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "zola@example.com", rest[0]["email"])

	_, err = source.Rows(ctx, "users; DROP TABLE users", 0, 2)
	assert.Error(t, err)
}

func TestSQLiteSourceProfilesSchema(t *testing.T) {
	t.Parallel()

	source := NewSQLiteSource(seedSQLite(t), zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, source.Connect(ctx))
	defer source.Close()

	columns, err := source.Schema(ctx, "users")
	require.NoError(t, err)
	require.Len(t, columns, 4)
	assert.Equal(t, "id", columns[0].Name)
	assert.True(t, columns[0].PrimaryKey)
	assert.True(t, columns[1].NotNull)

	profiles, err := source.Analyze(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	byName := map[string]TableProfile{}
	for _, p := range profiles {
		byName[p.Name] = p
	}
	assert.Equal(t, 3, byName["users"].RowCount)
	assert.Equal(t, 0, byName["circles"].RowCount)
}

func TestSQLiteSourcePagesWithoutRowidTables(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE events (id TEXT PRIMARY KEY, kind TEXT) WITHOUT ROWID`)
	require.NoError(t, err)
	for _, id := range []string{"e3", "e1", "e2"} {
		_, err = db.Exec(`INSERT INTO events (id, kind) VALUES (?, ?)`, id, "signup")
		require.NoError(t, err)
	}

	source := NewSQLiteSource(path, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, source.Connect(ctx))
	defer source.Close()

	// No rowid to order by, so paging falls back to the primary key.
	first, err := source.Rows(ctx, "events", 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "e1", first[0]["id"])
	assert.Equal(t, "e2", first[1]["id"])

	rest, err := source.Rows(ctx, "events", 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "e3", rest[0]["id"])
}

func TestSQLiteSourceSamplesAndReportsSize(t *testing.T) {
	t.Parallel()

	source := NewSQLiteSource(seedSQLite(t), zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, source.Connect(ctx))
	defer source.Close()

	sample, err := source.SampleData(ctx, "users", 2)
	require.NoError(t, err)
	assert.Len(t, sample, 2)

	all, err := source.SampleData(ctx, "users", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	size, err := source.DatabaseSize(ctx)
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))
}

func TestSQLiteSuggestMappingUsesPrimaryKey(t *testing.T) {
	t.Parallel()

	source := NewSQLiteSource(seedSQLite(t), zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, source.Connect(ctx))
	defer source.Close()

	mapping, err := source.SuggestMapping(ctx, "users")
	require.NoError(t, err)

	assert.Equal(t, "users", mapping.SourceTable)
	assert.Equal(t, "USER", mapping.EntityType)
	assert.Len(t, mapping.Fields, 4)

	row := Row{"id": "u1", "email": "amara@example.com"}
	assert.Equal(t, "USER#u1", mapping.Keys.PK(row))
	assert.Equal(t, "METADATA", mapping.Keys.SK(row))
	assert.Empty(t, mapping.Keys.PK(Row{}))
}

func TestSQLiteSourceEndToEndMigration(t *testing.T) {
	t.Parallel()

	source := NewSQLiteSource(seedSQLite(t), zerolog.Nop())
	engine := newTestEngine(&dynstore.Mock{}, source)

	results, err := engine.ExecutePlan(context.Background(),
		Plan{Name: "legacy", Mappings: []Mapping{UsersMapping()}},
		Config{BatchSize: 2})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Total)
	assert.Equal(t, 3, results[0].Migrated)
}
