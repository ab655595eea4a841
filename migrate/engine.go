// Package migrate moves relational data into the single-table store in
// validated batches: extract a page, transform rows into items, validate
// each item, load the survivors, repeat until the source is drained.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// ErrAlreadyRunning is returned when a plan is started while another is
// in flight. The engine runs one migration at a time.
var ErrAlreadyRunning = errors.New("migrate: a migration is already running")

// ErrBackupUnsupported is returned by Backup until snapshot support
// lands; callers that require a backup should treat it as fatal.
var ErrBackupUnsupported = errors.New("migrate: table backup not supported")

const defaultBatchSize = 100

// Engine executes migration plans against one store.
type Engine struct {
	store     dynstore.API
	validator *validate.Engine
	source    DataSource
	log       zerolog.Logger

	running atomic.Bool

	mu         sync.Mutex
	progress   map[string]Progress
	onProgress []func(Progress)
}

// NewEngine returns an engine reading from source and loading into
// store.
func NewEngine(store dynstore.API, validator *validate.Engine, source DataSource, log zerolog.Logger) *Engine {
	return &Engine{
		store:     store,
		validator: validator,
		source:    source,
		log:       log.With().Str("component", "migrate").Logger(),
		progress:  make(map[string]Progress),
	}
}

// OnProgress subscribes to progress snapshots. Callbacks run inline on
// the migration goroutine and should return quickly.
func (e *Engine) OnProgress(fn func(Progress)) {
	e.mu.Lock()
	e.onProgress = append(e.onProgress, fn)
	e.mu.Unlock()
}

// Running reports whether a plan is currently executing.
func (e *Engine) Running() bool { return e.running.Load() }

// Backup would snapshot the target table before a run. On-demand
// DynamoDB backups need table-level permissions the toolkit does not
// assume, so for now the request is logged and refused.
func (e *Engine) Backup(ctx context.Context, label string) error {
	e.log.Warn().Str("label", label).Msg("backup requested but not supported")
	return ErrBackupUnsupported
}

// Progress returns the latest snapshot for one entity type.
func (e *Engine) Progress(entityType string) (Progress, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.progress[entityType]
	return p, ok
}

func (e *Engine) publish(p Progress) {
	e.mu.Lock()
	e.progress[p.EntityType] = p
	subscribers := e.onProgress
	e.mu.Unlock()

	for _, fn := range subscribers {
		fn(p)
	}
}

// ExecutePlan runs every mapping of a plan in order. Record-level
// failures accumulate in the mapping's result and never stop a run; a
// mapping-level fault (source count or extract error) aborts the plan
// unless Config.ContinueOnError is set, in which case the failed
// result is recorded and the next mapping runs. Cancelling the context
// stops between batches and returns the results accumulated so far.
func (e *Engine) ExecutePlan(ctx context.Context, plan Plan, cfg Config) ([]Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	if err := e.source.Connect(ctx); err != nil {
		return nil, fmt.Errorf("migrate: connect source: %w", err)
	}
	defer e.source.Close()

	e.log.Info().Str("plan", plan.Name).Bool("dry_run", cfg.DryRun).
		Int("mappings", len(plan.Mappings)).Msg("starting migration plan")

	for _, hook := range plan.PreHooks {
		if err := hook(ctx); err != nil {
			return nil, fmt.Errorf("migrate: pre-hook: %w", err)
		}
	}

	var results []Result
	for _, mapping := range plan.Mappings {
		result, err := e.migrateMapping(ctx, mapping, cfg)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) && cfg.ContinueOnError {
			result.Errors = append(result.Errors, Error{
				Message:   err.Error(),
				Type:      ErrorConstraint,
				Timestamp: entity.NowISO(),
			})
			results = append(results, result)
			e.log.Error().Err(err).Str("entity_type", mapping.EntityType).Msg("mapping failed, continuing plan")
			continue
		}
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}

	for _, hook := range plan.PostHooks {
		if err := hook(ctx); err != nil {
			return results, fmt.Errorf("migrate: post-hook: %w", err)
		}
	}
	return results, nil
}

func (e *Engine) migrateMapping(ctx context.Context, m Mapping, cfg Config) (Result, error) {
	result := Result{
		EntityType: m.EntityType,
		Table:      m.SourceTable,
		DryRun:     cfg.DryRun,
		StartedAt:  time.Now(),
	}
	log := e.log.With().Str("entity_type", m.EntityType).Str("table", m.SourceTable).Logger()

	total, err := e.source.RowCount(ctx, m.SourceTable)
	if err != nil {
		result = e.finish(result)
		return result, fmt.Errorf("migrate: count %s: %w", m.SourceTable, err)
	}
	result.Total = total

	prog := Progress{
		EntityType: m.EntityType,
		Phase:      PhaseExtracting,
		Total:      total,
		StartedAt:  result.StartedAt,
	}
	e.publish(prog)

	offset := 0
	for {
		if ctx.Err() != nil {
			prog.Phase = PhaseCancelled
			e.publish(prog)
			result = e.finish(result)
			return result, ctx.Err()
		}

		prog.Phase = PhaseExtracting
		prog.Batch++
		e.publish(prog)

		rows, err := e.extractBatch(ctx, m, offset, cfg.BatchSize)
		if err != nil {
			prog.Phase = PhaseFailed
			e.publish(prog)
			result = e.finish(result)
			return result, fmt.Errorf("migrate: extract %s: %w", m.SourceTable, err)
		}
		if len(rows) == 0 {
			break
		}

		prog.Phase = PhaseTransforming
		e.publish(prog)
		items, skipped, transformErrors := e.transformBatch(m, rows)

		prog.Phase = PhaseValidating
		e.publish(prog)
		valid, validationErrors := e.validateBatch(m, items)

		batchErrors := append(transformErrors, validationErrors...)

		prog.Phase = PhaseLoading
		e.publish(prog)
		loaded, writeErrors := e.loadBatch(ctx, valid, cfg.DryRun)
		batchErrors = append(batchErrors, writeErrors...)

		result.Migrated += loaded
		result.Failed += len(batchErrors)
		result.Skipped += skipped
		result.Errors = append(result.Errors, batchErrors...)

		prog.Processed += len(rows)
		prog.Succeeded = result.Migrated
		prog.Failed = result.Failed
		prog.Skipped = result.Skipped
		prog.ETA = estimateETA(prog)
		e.publish(prog)

		log.Debug().Int("batch", prog.Batch).Int("rows", len(rows)).
			Int("loaded", loaded).Int("failed", len(batchErrors)).Msg("batch processed")

		offset += cfg.BatchSize
		if len(rows) < cfg.BatchSize {
			break
		}
	}

	prog.Phase = PhaseCompleted
	prog.ETA = 0
	e.publish(prog)
	result = e.finish(result)

	log.Info().Int("total", result.Total).Int("migrated", result.Migrated).
		Int("failed", result.Failed).Int("skipped", result.Skipped).
		Dur("duration", result.Duration).Msg("mapping finished")
	return result, nil
}

func (e *Engine) extractBatch(ctx context.Context, m Mapping, offset, limit int) ([]Row, error) {
	if m.SourceQuery != "" {
		query := fmt.Sprintf("%s LIMIT %d OFFSET %d", m.SourceQuery, limit, offset)
		return e.source.Query(ctx, query)
	}
	return e.source.Rows(ctx, m.SourceTable, offset, limit)
}

// transformBatch assembles items from rows. Filtered rows are skipped;
// rows that cannot produce keys fail with a constraint error.
func (e *Engine) transformBatch(m Mapping, rows []Row) (items []map[string]any, skipped int, errs []Error) {
	for _, row := range rows {
		if m.Filter != nil && !m.Filter(row) {
			skipped++
			continue
		}
		item, err := transformRow(m, row)
		if err != nil {
			errs = append(errs, Error{
				RecordID:  rowID(row),
				Record:    row,
				Message:   err.Error(),
				Type:      ErrorConstraint,
				Timestamp: entity.NowISO(),
			})
			continue
		}
		items = append(items, item)
	}
	return items, skipped, errs
}

func (e *Engine) validateBatch(m Mapping, items []map[string]any) (valid []map[string]any, errs []Error) {
	for _, item := range items {
		res := e.validator.Validate(item)
		if !res.Valid() {
			errs = append(errs, Error{
				RecordID:  itemID(item),
				Record:    item,
				Message:   res.Errors[0].Message,
				Type:      ErrorValidation,
				Timestamp: entity.NowISO(),
			})
			continue
		}
		valid = append(valid, item)
	}
	return valid, errs
}

// loadBatch writes validated items. A dry run counts them as migrated
// without touching the store.
func (e *Engine) loadBatch(ctx context.Context, items []map[string]any, dryRun bool) (int, []Error) {
	if len(items) == 0 {
		return 0, nil
	}
	if dryRun {
		return len(items), nil
	}

	puts := make([]dynstore.Item, 0, len(items))
	for _, item := range items {
		raw, err := attributevalue.MarshalMap(item)
		if err != nil {
			return 0, []Error{{
				RecordID:  itemID(item),
				Message:   err.Error(),
				Type:      ErrorWrite,
				Timestamp: entity.NowISO(),
			}}
		}
		puts = append(puts, raw)
	}

	if err := e.store.BatchWrite(ctx, puts, nil); err != nil {
		errs := make([]Error, 0, len(items))
		for _, item := range items {
			errs = append(errs, Error{
				RecordID:  itemID(item),
				Message:   err.Error(),
				Type:      ErrorWrite,
				Timestamp: entity.NowISO(),
			})
		}
		return 0, errs
	}
	return len(items), nil
}

func (e *Engine) finish(result Result) Result {
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	if seconds := result.Duration.Seconds(); seconds > 0 {
		result.Throughput = float64(result.Migrated) / seconds
	}
	return result
}

func estimateETA(p Progress) time.Duration {
	if p.Processed == 0 || p.Total <= p.Processed {
		return 0
	}
	elapsed := time.Since(p.StartedAt)
	perRecord := elapsed / time.Duration(p.Processed)
	return perRecord * time.Duration(p.Total-p.Processed)
}

// transformRow builds one item: keys first, then mapped fields, then
// bookkeeping, index projections and the post-transform hook.
func transformRow(m Mapping, row Row) (map[string]any, error) {
	pk := m.Keys.PK(row)
	sk := m.Keys.SK(row)
	if pk == "" || sk == "" {
		return nil, fmt.Errorf("row produced empty keys (pk=%q sk=%q)", pk, sk)
	}

	item := map[string]any{
		"PK":         pk,
		"SK":         sk,
		"entityType": m.EntityType,
		"version":    1,
	}

	for attr, src := range m.Fields {
		switch {
		case src.Compute != nil:
			item[attr] = src.Compute(row)
		case src.Column != "":
			if v, found := row[src.Column]; found && v != nil {
				item[attr] = v
			}
		}
	}

	now := entity.NowISO()
	item["createdAt"] = coerceISO(item["createdAt"], now)
	item["updatedAt"] = coerceISO(item["updatedAt"], item["createdAt"].(string))

	for attr, fn := range m.GSIs {
		if v := fn(row); v != "" {
			item[attr] = v
		}
	}

	if m.PostTransform != nil {
		m.PostTransform(item)
	}
	return item, nil
}

// coerceISO normalizes the timestamp shapes relational sources produce
// into the canonical layout. Values it cannot read are passed through
// for validation to flag.
func coerceISO(v any, fallback string) any {
	switch t := v.(type) {
	case nil:
		return fallback
	case time.Time:
		return t.UTC().Format(entity.ISOLayout)
	case string:
		if t == "" {
			return fallback
		}
		if _, ok := entity.ParseISO(t); ok {
			return t
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC().Format(entity.ISOLayout)
			}
		}
		return t
	case int64:
		return time.Unix(t, 0).UTC().Format(entity.ISOLayout)
	case float64:
		return time.Unix(int64(t), 0).UTC().Format(entity.ISOLayout)
	default:
		return v
	}
}

func rowID(row Row) string {
	for _, key := range []string{"id", "uuid", "pk"} {
		if v, found := row[key]; found {
			return fmt.Sprint(v)
		}
	}
	return "unknown"
}

func itemID(item map[string]any) string {
	return fmt.Sprintf("%v/%v", item["PK"], item["SK"])
}
