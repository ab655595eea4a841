package migrate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/validate"
)

// memSource serves rows from memory. connected gates every call so
// tests can also verify the engine's connect/close discipline.
type memSource struct {
	tables    map[string][]Row
	countErr  map[string]error
	connected bool
	connectCh chan struct{}
}

func (s *memSource) Connect(ctx context.Context) error {
	if s.connectCh != nil {
		select {
		case <-s.connectCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.connected = true
	return nil
}

func (s *memSource) Close() error {
	s.connected = false
	return nil
}

func (s *memSource) Ping(context.Context) error {
	if !s.connected {
		return fmt.Errorf("not connected")
	}
	return nil
}

func (s *memSource) TableNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	return names, nil
}

func (s *memSource) TableExists(_ context.Context, table string) (bool, error) {
	_, found := s.tables[table]
	return found, nil
}

func (s *memSource) RowCount(_ context.Context, table string) (int, error) {
	if !s.connected {
		return 0, fmt.Errorf("not connected")
	}
	if err := s.countErr[table]; err != nil {
		return 0, err
	}
	return len(s.tables[table]), nil
}

func (s *memSource) Rows(_ context.Context, table string, offset, limit int) ([]Row, error) {
	rows := s.tables[table]
	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], nil
}

func (s *memSource) Query(context.Context, string, ...any) ([]Row, error) {
	return nil, fmt.Errorf("not supported")
}

// userRows builds n well-formed source rows; indexes listed in broken
// get an empty first name, which passes extraction but fails validation.
func userRows(n int, broken ...int) []Row {
	brokenSet := make(map[int]struct{}, len(broken))
	for _, i := range broken {
		brokenSet[i] = struct{}{}
	}

	rows := make([]Row, n)
	for i := range rows {
		firstName := "Amara"
		if _, bad := brokenSet[i]; bad {
			firstName = ""
		}
		rows[i] = Row{
			"id":         fmt.Sprintf("u%03d", i),
			"email":      fmt.Sprintf("user%03d@example.com", i),
			"first_name": firstName,
			"last_name":  "Okafor",
			"created_at": "2024-01-15 10:30:00",
		}
	}
	return rows
}

func newTestEngine(store dynstore.API, source DataSource) *Engine {
	return NewEngine(store, validate.NewEngine(zerolog.Nop()), source, zerolog.Nop())
}

func TestExecutePlanMigratesAndReportsFailures(t *testing.T) {
	t.Parallel()

	source := &memSource{tables: map[string][]Row{
		"users": userRows(120, 3, 17, 55, 71, 102),
	}}

	writes := 0
	written := 0
	store := &dynstore.Mock{
		BatchWriteFn: func(_ context.Context, puts []dynstore.Item, _ []dynstore.Key) error {
			writes++
			written += len(puts)
			return nil
		},
	}
	engine := newTestEngine(store, source)

	results, err := engine.ExecutePlan(context.Background(),
		Plan{Name: "users", Mappings: []Mapping{UsersMapping()}},
		Config{BatchSize: 50, ContinueOnError: true})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, 120, result.Total)
	assert.Equal(t, 115, result.Migrated)
	assert.Equal(t, 5, result.Failed)
	assert.Zero(t, result.Skipped)
	require.Len(t, result.Errors, 5)
	for _, recErr := range result.Errors {
		assert.Equal(t, ErrorValidation, recErr.Type)
		assert.NotEmpty(t, recErr.RecordID)
	}

	assert.Equal(t, 3, writes)
	assert.Equal(t, 115, written)
	assert.Positive(t, result.Throughput)
	assert.False(t, engine.Running())
}

func TestExecutePlanDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	source := &memSource{tables: map[string][]Row{
		"users": userRows(120, 3, 17, 55, 71, 102),
	}}

	writes := 0
	store := &dynstore.Mock{
		BatchWriteFn: func(context.Context, []dynstore.Item, []dynstore.Key) error {
			writes++
			return nil
		},
	}
	engine := newTestEngine(store, source)

	results, err := engine.ExecutePlan(context.Background(),
		Plan{Name: "users", Mappings: []Mapping{UsersMapping()}},
		Config{BatchSize: 50, DryRun: true, ContinueOnError: true})
	require.NoError(t, err)

	result := results[0]
	assert.True(t, result.DryRun)
	assert.Equal(t, 115, result.Migrated)
	assert.Equal(t, 5, result.Failed)
	assert.Zero(t, writes)
}

func TestExecutePlanCountsFilteredRowsAsSkipped(t *testing.T) {
	t.Parallel()

	rows := userRows(10)
	for _, i := range []int{2, 7} {
		rows[i]["email"] = ""
	}
	source := &memSource{tables: map[string][]Row{"users": rows}}
	engine := newTestEngine(&dynstore.Mock{}, source)

	results, err := engine.ExecutePlan(context.Background(),
		Plan{Name: "users", Mappings: []Mapping{UsersMapping()}},
		Config{})
	require.NoError(t, err)

	result := results[0]
	assert.Equal(t, 8, result.Migrated)
	assert.Equal(t, 2, result.Skipped)
	assert.Zero(t, result.Failed)
}

func TestExecutePlanRecordErrorsNeverAbort(t *testing.T) {
	t.Parallel()

	source := &memSource{tables: map[string][]Row{
		"users": userRows(120, 3),
	}}
	engine := newTestEngine(&dynstore.Mock{}, source)

	results, err := engine.ExecutePlan(context.Background(),
		Plan{Name: "users", Mappings: []Mapping{UsersMapping()}},
		Config{BatchSize: 50})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The broken record is reported but every batch still ran.
	assert.Equal(t, 119, results[0].Migrated)
	assert.Equal(t, 1, results[0].Failed)
	assert.Equal(t, 120, results[0].Total)
}

func TestExecutePlanMappingFaultAbortsByDefault(t *testing.T) {
	t.Parallel()

	broken := UsersMapping()
	broken.SourceTable = "legacy_users"

	source := &memSource{
		tables:   map[string][]Row{"users": userRows(5)},
		countErr: map[string]error{"legacy_users": fmt.Errorf("disk gone")},
	}
	engine := newTestEngine(&dynstore.Mock{}, source)

	results, err := engine.ExecutePlan(context.Background(),
		Plan{Name: "users", Mappings: []Mapping{broken, UsersMapping()}},
		Config{})
	require.Error(t, err)

	// The healthy second mapping never ran.
	require.Len(t, results, 1)
}

func TestExecutePlanMappingFaultContinuesWhenAsked(t *testing.T) {
	t.Parallel()

	broken := UsersMapping()
	broken.SourceTable = "legacy_users"

	source := &memSource{
		tables:   map[string][]Row{"users": userRows(5)},
		countErr: map[string]error{"legacy_users": fmt.Errorf("disk gone")},
	}
	engine := newTestEngine(&dynstore.Mock{}, source)

	results, err := engine.ExecutePlan(context.Background(),
		Plan{Name: "users", Mappings: []Mapping{broken, UsersMapping()}},
		Config{ContinueOnError: true})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Len(t, results[0].Errors, 1)
	assert.Equal(t, ErrorConstraint, results[0].Errors[0].Type)
	assert.Contains(t, results[0].Errors[0].Message, "legacy_users")
	assert.Zero(t, results[0].Migrated)

	assert.Equal(t, 5, results[1].Migrated)
	assert.Zero(t, results[1].Failed)
}

func TestExecutePlanRunsOneAtATime(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	source := &memSource{
		tables:    map[string][]Row{"users": userRows(1)},
		connectCh: release,
	}
	engine := newTestEngine(&dynstore.Mock{}, source)

	plan := Plan{Name: "users", Mappings: []Mapping{UsersMapping()}}
	done := make(chan error, 1)
	go func() {
		_, err := engine.ExecutePlan(context.Background(), plan, Config{})
		done <- err
	}()

	// Wait until the first run holds the slot, then try a second.
	require.Eventually(t, engine.Running, 2*time.Second, 10*time.Millisecond)
	_, err := engine.ExecutePlan(context.Background(), plan, Config{})
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, engine.Running())
}

func TestExecutePlanStopsBetweenBatchesOnCancel(t *testing.T) {
	t.Parallel()

	source := &memSource{tables: map[string][]Row{
		"users": userRows(200),
	}}
	engine := newTestEngine(&dynstore.Mock{}, source)

	ctx, cancel := context.WithCancel(context.Background())
	engine.OnProgress(func(p Progress) {
		if p.Phase == PhaseLoading && p.Batch == 1 {
			cancel()
		}
	})

	results, err := engine.ExecutePlan(ctx,
		Plan{Name: "users", Mappings: []Mapping{UsersMapping()}},
		Config{BatchSize: 50})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.Equal(t, 50, results[0].Migrated)

	prog, found := engine.Progress("USER")
	require.True(t, found)
	assert.Equal(t, PhaseCancelled, prog.Phase)
}

func TestExecutePlanFailingPreHookAborts(t *testing.T) {
	t.Parallel()

	source := &memSource{tables: map[string][]Row{"users": userRows(5)}}
	writes := 0
	store := &dynstore.Mock{
		BatchWriteFn: func(context.Context, []dynstore.Item, []dynstore.Key) error {
			writes++
			return nil
		},
	}
	engine := newTestEngine(store, source)

	_, err := engine.ExecutePlan(context.Background(), Plan{
		Name:     "users",
		Mappings: []Mapping{UsersMapping()},
		PreHooks: []Hook{func(context.Context) error { return fmt.Errorf("table not provisioned") }},
	}, Config{})
	require.Error(t, err)
	assert.Zero(t, writes)
}

func TestBackupIsRefused(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(&dynstore.Mock{}, &memSource{})
	err := engine.Backup(context.Background(), "pre-run")
	assert.ErrorIs(t, err, ErrBackupUnsupported)
}

func TestTransformRowCoercesTimestamps(t *testing.T) {
	t.Parallel()

	mapping := UsersMapping()
	mapping.Fields["createdAt"] = FieldSource{Column: "created_at"}

	item, err := transformRow(mapping, Row{
		"id":         "u1",
		"email":      "u1@example.com",
		"first_name": "Amara",
		"last_name":  "Okafor",
		"created_at": "2024-01-15 10:30:00",
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-15T10:30:00.000Z", item["createdAt"])
	assert.Equal(t, item["createdAt"], item["updatedAt"])
	assert.Equal(t, 1, item["version"])
	assert.Equal(t, "USER#u1", item["PK"])
	assert.Equal(t, "EMAIL#u1@example.com", item["GSI1PK"])
	_, hasTenantIndex := item["GSI4PK"]
	assert.False(t, hasTenantIndex)
}

func TestTransformRowRejectsEmptyKeys(t *testing.T) {
	t.Parallel()

	mapping := Mapping{
		EntityType: "USER",
		Keys: KeyMapping{
			PK: func(Row) string { return "" },
			SK: func(Row) string { return "PROFILE" },
		},
	}
	_, err := transformRow(mapping, Row{})
	assert.Error(t, err)
}
