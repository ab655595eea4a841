package migrate

import (
	"context"
	"time"
)

// Row is one record read from the relational source.
type Row = map[string]any

// Phase tracks where a mapping is in its batch cycle.
type Phase string

const (
	PhaseExtracting   Phase = "extracting"
	PhaseTransforming Phase = "transforming"
	PhaseValidating   Phase = "validating"
	PhaseLoading      Phase = "loading"
	PhaseCompleted    Phase = "completed"
	PhaseFailed       Phase = "failed"
	PhaseCancelled    Phase = "cancelled"
)

// ErrorType classifies a per-record failure.
type ErrorType string

const (
	ErrorValidation ErrorType = "validation"
	ErrorWrite      ErrorType = "write"
	ErrorConstraint ErrorType = "constraint"
)

// Error captures one failed record with enough context to replay it.
type Error struct {
	RecordID  string    `json:"recordId"`
	Record    Row       `json:"record,omitempty"`
	Message   string    `json:"message"`
	Type      ErrorType `json:"type"`
	Timestamp string    `json:"timestamp"`
}

// Config tunes one plan execution. A dry run performs the full
// extract-transform-validate cycle and counts what would load, without
// writing anything.
type Config struct {
	BatchSize int
	DryRun    bool
	// ContinueOnError records a failed mapping and moves on to the
	// next one instead of aborting the plan. Record-level errors
	// accumulate in the result either way.
	ContinueOnError bool
}

// Hook runs before or after a plan. A failing pre-hook aborts the plan.
type Hook func(ctx context.Context) error

// FieldSource tells the transformer where a target attribute comes
// from: a source column verbatim, or a function over the whole row.
type FieldSource struct {
	Column  string
	Compute func(Row) any
}

// KeyMapping derives the item keys from a source row. Both functions
// must return non-empty strings for a row to load.
type KeyMapping struct {
	PK func(Row) string
	SK func(Row) string
}

// Mapping describes how one source table becomes one entity type.
type Mapping struct {
	SourceTable string
	// SourceQuery overrides the default SELECT * paging query. It must
	// accept LIMIT/OFFSET appended by the engine.
	SourceQuery string
	EntityType  string
	Keys        KeyMapping
	Fields      map[string]FieldSource
	// GSIs computes index projections, keyed by attribute name
	// (GSI1PK, GSI1SK, ...). Empty results are omitted.
	GSIs map[string]func(Row) string
	// Filter drops rows before transformation; dropped rows count as
	// skipped, not failed.
	Filter func(Row) bool
	// PostTransform adjusts the assembled item in place.
	PostTransform func(item map[string]any)
}

// Plan is an ordered set of mappings executed as one migration.
type Plan struct {
	Name      string
	Mappings  []Mapping
	PreHooks  []Hook
	PostHooks []Hook
}

// Result summarizes one mapping's run.
type Result struct {
	EntityType string
	Table      string
	DryRun     bool

	Total    int
	Migrated int
	Failed   int
	Skipped  int

	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	// Throughput is records migrated per second.
	Throughput float64

	Errors []Error
}

// Progress is a live snapshot of one mapping's run, published to
// subscribers after every phase change and batch.
type Progress struct {
	EntityType string
	Phase      Phase
	Total      int
	Processed  int
	Succeeded  int
	Failed     int
	Skipped    int
	Batch      int
	StartedAt  time.Time
	// ETA estimates the remaining time from throughput so far; zero
	// until the first batch completes.
	ETA time.Duration
}
