// Package dao layers entity semantics over the raw store: bookkeeping
// stamps, validation gates, optimistic locking and the per-entity access
// patterns of the single-table layout.
package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// ptrTo constrains P to a pointer to the entity struct, so the generic
// base can both allocate values and reach their embedded bookkeeping.
type ptrTo[T any] interface {
	*T
	entity.Entity
}

// Page is one page of typed query results.
type Page[P any] struct {
	Items     []P
	Count     int
	NextToken string
}

// QueryOptions tunes a typed query.
type QueryOptions struct {
	Filter         *expression.ConditionBuilder
	Limit          int32
	StartToken     string
	ConsistentRead bool
	ScanForward    *bool
}

// Base implements the generic persistence contract for one entity type.
// Entity DAOs embed or compose it and add their key construction and
// index access patterns.
type Base[T any, P ptrTo[T]] struct {
	store      dynstore.API
	engine     *validate.Engine
	entityType string
	log        zerolog.Logger
}

// NewBase returns a Base bound to one entity type.
func NewBase[T any, P ptrTo[T]](store dynstore.API, engine *validate.Engine, entityType string, log zerolog.Logger) *Base[T, P] {
	return &Base[T, P]{
		store:      store,
		engine:     engine,
		entityType: entityType,
		log:        log.With().Str("entity_type", entityType).Logger(),
	}
}

// stampNew initializes the bookkeeping fields of a fresh item. Both
// timestamps are set from the same instant.
func (b *Base[T, P]) stampNew(item P) {
	meta := item.Meta()
	now := entity.NowISO()
	meta.EntityType = b.entityType
	meta.Version = 1
	meta.CreatedAt = now
	meta.UpdatedAt = now
}

// validateItem gates a write. Errors block; warnings are logged.
func (b *Base[T, P]) validateItem(item P) error {
	res, err := b.engine.ValidateEntity(item)
	if err != nil {
		return err
	}
	return b.checkResult(res)
}

func (b *Base[T, P]) checkResult(res *validate.Result) error {
	if !res.Valid() {
		return &ValidationError{EntityType: b.entityType, Result: res}
	}
	for _, w := range res.Warnings {
		b.log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	return nil
}

// Create writes a new item. The write is conditional on the key not
// existing, so two simultaneous creates of the same key resolve to one
// winner and one DuplicateKeyError without a read-before-write.
func (b *Base[T, P]) Create(ctx context.Context, item P) (P, error) {
	b.stampNew(item)
	if err := b.validateItem(item); err != nil {
		return nil, err
	}

	raw, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("dao: marshal %s: %w", b.entityType, err)
	}

	meta := item.Meta()
	cond := expression.AttributeNotExists(expression.Name("PK")).
		And(expression.AttributeNotExists(expression.Name("SK")))
	if err := b.store.PutItem(ctx, raw, &dynstore.PutOptions{Condition: &cond}); err != nil {
		if errors.Is(err, dynstore.ErrConditionFailed) {
			return nil, &DuplicateKeyError{PK: meta.PK, SK: meta.SK}
		}
		return nil, err
	}

	b.log.Debug().Str("pk", meta.PK).Str("sk", meta.SK).Msg("item created")
	return item, nil
}

// Get reads one item. A missing item returns (nil, nil).
func (b *Base[T, P]) Get(ctx context.Context, pk, sk string) (P, error) {
	raw, err := b.store.GetItem(ctx, dynstore.Key{PK: pk, SK: sk}, nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return b.unmarshal(raw)
}

// Update applies a patch under optimistic locking. The merged item is
// validated before anything is written; a stale version read concurrently
// surfaces as OptimisticLockError and leaves the stored item untouched.
func (b *Base[T, P]) Update(ctx context.Context, pk, sk string, patch *Patch) (P, error) {
	current, err := b.Get(ctx, pk, sk)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &NotFoundError{PK: pk, SK: sk}
	}

	currentVersion := current.Meta().Version
	now := entity.NowISO()

	// Validate the post-patch item before touching the store.
	doc, err := validate.DocumentOf(current)
	if err != nil {
		return nil, err
	}
	patch.applyToDoc(doc)
	doc["version"] = currentVersion + 1
	doc["updatedAt"] = now
	if err := b.checkResult(b.engine.Validate(doc)); err != nil {
		return nil, err
	}

	upd, err := patch.build(expression.UpdateBuilder{})
	if err != nil {
		return nil, err
	}
	upd = upd.
		Set(expression.Name("version"), expression.Value(currentVersion+1)).
		Set(expression.Name("updatedAt"), expression.Value(now))
	cond := expression.Name("version").Equal(expression.Value(currentVersion))

	raw, err := b.store.UpdateItem(ctx, dynstore.Key{PK: pk, SK: sk}, dynstore.UpdateOptions{
		Update:    upd,
		Condition: &cond,
	})
	if err != nil {
		if errors.Is(err, dynstore.ErrConditionFailed) {
			return nil, &OptimisticLockError{PK: pk, SK: sk, ExpectedVersion: currentVersion}
		}
		return nil, err
	}
	return b.unmarshal(raw)
}

// Delete removes one item, reporting NotFoundError when it is absent.
func (b *Base[T, P]) Delete(ctx context.Context, pk, sk string) error {
	exists, err := b.store.Exists(ctx, dynstore.Key{PK: pk, SK: sk})
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{PK: pk, SK: sk}
	}
	return b.store.DeleteItem(ctx, dynstore.Key{PK: pk, SK: sk}, nil)
}

// Query lists the items of one partition.
func (b *Base[T, P]) Query(ctx context.Context, pk string, opts *QueryOptions) (*Page[P], error) {
	keyCond := expression.Key("PK").Equal(expression.Value(pk))
	return b.queryPage(ctx, "", keyCond, opts)
}

// QueryPrefix lists the items of one partition whose sort key starts
// with the given prefix.
func (b *Base[T, P]) QueryPrefix(ctx context.Context, pk, skPrefix string, opts *QueryOptions) (*Page[P], error) {
	keyCond := expression.Key("PK").Equal(expression.Value(pk)).
		And(expression.Key("SK").BeginsWith(skPrefix))
	return b.queryPage(ctx, "", keyCond, opts)
}

// QueryGSI queries one of the four secondary indexes. skPrefix narrows
// the sort key with begins_with when non-empty.
func (b *Base[T, P]) QueryGSI(ctx context.Context, index int, pk, skPrefix string, opts *QueryOptions) (*Page[P], error) {
	if index < 1 || index > 4 {
		return nil, fmt.Errorf("dao: unknown index GSI%d", index)
	}
	pkAttr := fmt.Sprintf("GSI%dPK", index)
	skAttr := fmt.Sprintf("GSI%dSK", index)

	keyCond := expression.Key(pkAttr).Equal(expression.Value(pk))
	if skPrefix != "" {
		keyCond = keyCond.And(expression.Key(skAttr).BeginsWith(skPrefix))
	}
	return b.queryPage(ctx, fmt.Sprintf("GSI%d", index), keyCond, opts)
}

func (b *Base[T, P]) queryPage(ctx context.Context, index string, keyCond expression.KeyConditionBuilder, opts *QueryOptions) (*Page[P], error) {
	in := dynstore.QueryInput{
		IndexName:    index,
		KeyCondition: keyCond,
	}
	if opts != nil {
		in.Filter = opts.Filter
		in.Limit = opts.Limit
		in.StartToken = opts.StartToken
		in.ConsistentRead = opts.ConsistentRead
		in.ScanForward = opts.ScanForward
	}

	result, err := b.store.Query(ctx, in)
	if err != nil {
		return nil, err
	}

	page := &Page[P]{
		Items:     make([]P, 0, len(result.Items)),
		Count:     result.Count,
		NextToken: result.NextToken,
	}
	for _, raw := range result.Items {
		item, err := b.unmarshal(raw)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// BatchGet reads many items by key; missing keys are simply absent from
// the result.
func (b *Base[T, P]) BatchGet(ctx context.Context, keys []dynstore.Key) ([]P, error) {
	raws, err := b.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	items := make([]P, 0, len(raws))
	for _, raw := range raws {
		item, err := b.unmarshal(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// BatchWrite validates every item, then writes them in chunks. Items
// without bookkeeping are stamped as new; nothing is written when any
// item fails validation.
func (b *Base[T, P]) BatchWrite(ctx context.Context, items []P) error {
	puts := make([]dynstore.Item, 0, len(items))
	for _, item := range items {
		if item.Meta().Version == 0 {
			b.stampNew(item)
		}
		if err := b.validateItem(item); err != nil {
			return err
		}
		raw, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("dao: marshal %s: %w", b.entityType, err)
		}
		puts = append(puts, raw)
	}
	return b.store.BatchWrite(ctx, puts, nil)
}

// BatchDelete removes many items by key.
func (b *Base[T, P]) BatchDelete(ctx context.Context, keys []dynstore.Key) error {
	return b.store.BatchWrite(ctx, nil, keys)
}

// Transact forwards an atomic write, enforcing the size limit before the
// store is touched.
func (b *Base[T, P]) Transact(ctx context.Context, items []dynstore.TransactItem) error {
	if len(items) > dynstore.MaxTransactionItems {
		return fmt.Errorf("dao: %w: got %d", dynstore.ErrTooManyTransactItems, len(items))
	}
	return b.store.Transact(ctx, items)
}

// Exists reports item presence without reading attributes.
func (b *Base[T, P]) Exists(ctx context.Context, pk, sk string) (bool, error) {
	return b.store.Exists(ctx, dynstore.Key{PK: pk, SK: sk})
}

// Count counts the items of one partition.
func (b *Base[T, P]) Count(ctx context.Context, pk string) (int, error) {
	return b.store.Count(ctx, dynstore.QueryInput{
		KeyCondition: expression.Key("PK").Equal(expression.Value(pk)),
	})
}

// marshalNew stamps, validates and marshals an item for use inside a
// transaction put.
func (b *Base[T, P]) marshalNew(item P) (dynstore.Item, error) {
	b.stampNew(item)
	if err := b.validateItem(item); err != nil {
		return nil, err
	}
	raw, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("dao: marshal %s: %w", b.entityType, err)
	}
	return raw, nil
}

func (b *Base[T, P]) unmarshal(raw dynstore.Item) (P, error) {
	var value T
	if err := attributevalue.UnmarshalMap(raw, &value); err != nil {
		return nil, fmt.Errorf("dao: unmarshal %s: %w", b.entityType, err)
	}
	return P(&value), nil
}
