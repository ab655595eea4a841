// Package dynstore is a thin, instrumented client for a single-table
// DynamoDB layout. It owns expression building, batch chunking,
// client-side transaction limits and error normalization; entity
// semantics live one layer up in the data-access objects.
package dynstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// Options configures a Store. Statsd is optional; when nil no metrics
// are emitted beyond the in-process snapshot.
type Options struct {
	TableName string
	Logger    zerolog.Logger
	Statsd    statsd.ClientInterface
}

// Store implements API against a DynamoDB table.
type Store struct {
	client  DynamoDBClient
	table   string
	log     zerolog.Logger
	statsd  statsd.ClientInterface
	metrics metricsRecorder
}

// New returns a Store for the given table.
func New(client DynamoDBClient, opts Options) *Store {
	return &Store{
		client: client,
		table:  opts.TableName,
		log:    opts.Logger.With().Str("component", "dynstore").Str("table", opts.TableName).Logger(),
		statsd: opts.Statsd,
	}
}

// TableName returns the configured table name.
func (s *Store) TableName() string { return s.table }

// Metrics returns a snapshot of store activity.
func (s *Store) Metrics() Metrics { return s.metrics.snapshot() }

// instrument starts timing an operation. The returned func must be
// called exactly once with the operation's final error.
func (s *Store) instrument(op string) func(error) {
	start := time.Now()
	s.metrics.opStarted()
	return func(err error) {
		elapsed := time.Since(start)
		s.metrics.opFinished(elapsed, err == nil)
		if s.statsd != nil {
			outcome := "outcome:ok"
			if err != nil {
				outcome = "outcome:error"
			}
			_ = s.statsd.Timing("dynstore.operation", elapsed, []string{"op:" + op, outcome}, 1)
		}
		if err != nil {
			s.log.Error().Err(err).Str("op", op).Dur("elapsed", elapsed).Msg("store operation failed")
		}
	}
}

func keyAttrs(key Key) Item {
	return Item{
		"PK": &types.AttributeValueMemberS{Value: key.PK},
		"SK": &types.AttributeValueMemberS{Value: key.SK},
	}
}

func keyContext(key Key) map[string]string {
	return map[string]string{"pk": key.PK, "sk": key.SK}
}

func projectionOf(names []string) expression.ProjectionBuilder {
	builders := make([]expression.NameBuilder, len(names))
	for i, n := range names {
		builders[i] = expression.Name(n)
	}
	return expression.NamesList(builders[0], builders[1:]...)
}

// GetItem reads one item. A missing item returns (nil, nil).
func (s *Store) GetItem(ctx context.Context, key Key, opts *GetOptions) (item Item, err error) {
	done := s.instrument("get_item")
	defer func() { done(err) }()

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       keyAttrs(key),
	}
	if opts != nil {
		input.ConsistentRead = aws.Bool(opts.ConsistentRead)
		if len(opts.Projection) > 0 {
			expr, buildErr := expression.NewBuilder().WithProjection(projectionOf(opts.Projection)).Build()
			if buildErr != nil {
				err = s.wrapErr("get_item", buildErr, keyContext(key))
				return nil, err
			}
			input.ProjectionExpression = expr.Projection()
			input.ExpressionAttributeNames = expr.Names()
		}
	}

	out, callErr := s.client.GetItem(ctx, input)
	if callErr != nil {
		err = s.wrapErr("get_item", callErr, keyContext(key))
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// PutItem writes one item, applying the condition when present.
func (s *Store) PutItem(ctx context.Context, item Item, opts *PutOptions) (err error) {
	done := s.instrument("put_item")
	defer func() { done(err) }()

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}
	if opts != nil && opts.Condition != nil {
		expr, buildErr := expression.NewBuilder().WithCondition(*opts.Condition).Build()
		if buildErr != nil {
			err = s.wrapErr("put_item", buildErr, nil)
			return err
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, callErr := s.client.PutItem(ctx, input); callErr != nil {
		err = s.wrapErr("put_item", callErr, nil)
		return err
	}
	return nil
}

// UpdateItem applies an update expression and returns the item as stored
// after the update.
func (s *Store) UpdateItem(ctx context.Context, key Key, opts UpdateOptions) (item Item, err error) {
	done := s.instrument("update_item")
	defer func() { done(err) }()

	builder := expression.NewBuilder().WithUpdate(opts.Update)
	if opts.Condition != nil {
		builder = builder.WithCondition(*opts.Condition)
	}
	expr, buildErr := builder.Build()
	if buildErr != nil {
		err = s.wrapErr("update_item", buildErr, keyContext(key))
		return nil, err
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       keyAttrs(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	}

	out, callErr := s.client.UpdateItem(ctx, input)
	if callErr != nil {
		err = s.wrapErr("update_item", callErr, keyContext(key))
		return nil, err
	}
	return out.Attributes, nil
}

// DeleteItem removes one item, applying the condition when present.
func (s *Store) DeleteItem(ctx context.Context, key Key, opts *DeleteOptions) (err error) {
	done := s.instrument("delete_item")
	defer func() { done(err) }()

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       keyAttrs(key),
	}
	if opts != nil && opts.Condition != nil {
		expr, buildErr := expression.NewBuilder().WithCondition(*opts.Condition).Build()
		if buildErr != nil {
			err = s.wrapErr("delete_item", buildErr, keyContext(key))
			return err
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, callErr := s.client.DeleteItem(ctx, input); callErr != nil {
		err = s.wrapErr("delete_item", callErr, keyContext(key))
		return err
	}
	return nil
}

func (s *Store) buildQueryInput(in QueryInput) (*dynamodb.QueryInput, error) {
	builder := expression.NewBuilder().WithKeyCondition(in.KeyCondition)
	if in.Filter != nil {
		builder = builder.WithFilter(*in.Filter)
	}
	if len(in.Projection) > 0 {
		builder = builder.WithProjection(projectionOf(in.Projection))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if in.IndexName != "" {
		input.IndexName = aws.String(in.IndexName)
	}
	if in.Limit > 0 {
		input.Limit = aws.Int32(in.Limit)
	}
	if in.ConsistentRead {
		input.ConsistentRead = aws.Bool(true)
	}
	if in.ScanForward != nil {
		input.ScanIndexForward = in.ScanForward
	}
	if in.StartToken != "" {
		startKey, err := decodePageToken(in.StartToken)
		if err != nil {
			return nil, err
		}
		input.ExclusiveStartKey = startKey
	}
	return input, nil
}

// Query runs one page of a query and returns an opaque continuation
// token when more pages remain.
func (s *Store) Query(ctx context.Context, in QueryInput) (result *QueryResult, err error) {
	done := s.instrument("query")
	defer func() { done(err) }()

	kv := map[string]string{"index": in.IndexName}
	input, buildErr := s.buildQueryInput(in)
	if buildErr != nil {
		err = s.wrapErr("query", buildErr, kv)
		return nil, err
	}

	out, callErr := s.client.Query(ctx, input)
	if callErr != nil {
		err = s.wrapErr("query", callErr, kv)
		return nil, err
	}

	result = &QueryResult{
		Items:        out.Items,
		Count:        int(out.Count),
		ScannedCount: int(out.ScannedCount),
	}
	if len(out.LastEvaluatedKey) > 0 {
		token, encErr := encodePageToken(out.LastEvaluatedKey)
		if encErr != nil {
			err = s.wrapErr("query", encErr, kv)
			return nil, err
		}
		result.NextToken = token
	}
	return result, nil
}

// Count runs the query in COUNT mode for a single page.
func (s *Store) Count(ctx context.Context, in QueryInput) (count int, err error) {
	done := s.instrument("count")
	defer func() { done(err) }()

	in.Projection = nil
	input, buildErr := s.buildQueryInput(in)
	if buildErr != nil {
		err = s.wrapErr("count", buildErr, nil)
		return 0, err
	}
	input.Select = types.SelectCount

	out, callErr := s.client.Query(ctx, input)
	if callErr != nil {
		err = s.wrapErr("count", callErr, nil)
		return 0, err
	}
	return int(out.Count), nil
}

// BatchGet reads up to any number of keys, chunking requests to the
// service limit. Keys the service reports as unprocessed are folded back
// into the pending set; repeated zero-progress rounds abort the call.
func (s *Store) BatchGet(ctx context.Context, keys []Key) (items []Item, err error) {
	done := s.instrument("batch_get")
	defer func() { done(err) }()

	pending := make([]Item, len(keys))
	for i, key := range keys {
		pending[i] = keyAttrs(key)
	}

	stalls := 0
	for len(pending) > 0 {
		n := min(MaxBatchGetKeys, len(pending))
		chunk := pending[:n]
		pending = pending[n:]

		out, callErr := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				s.table: {Keys: chunk},
			},
		})
		if callErr != nil {
			err = s.wrapErr("batch_get", callErr, map[string]string{"keys": fmt.Sprint(len(keys))})
			return nil, err
		}

		items = append(items, out.Responses[s.table]...)

		unprocessed := out.UnprocessedKeys[s.table].Keys
		if len(unprocessed) == n {
			stalls++
			if stalls >= 3 {
				err = s.wrapErr("batch_get", fmt.Errorf("%d keys remain unprocessed", len(unprocessed)), nil)
				return nil, err
			}
		} else {
			stalls = 0
		}
		pending = append(pending, unprocessed...)
	}
	return items, nil
}

// BatchWrite puts and deletes items in service-limit chunks. Unprocessed
// items are folded back into the pending set like BatchGet.
func (s *Store) BatchWrite(ctx context.Context, puts []Item, deletes []Key) (err error) {
	done := s.instrument("batch_write")
	defer func() { done(err) }()

	pending := make([]types.WriteRequest, 0, len(puts)+len(deletes))
	for _, item := range puts {
		pending = append(pending, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	for _, key := range deletes {
		pending = append(pending, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: keyAttrs(key)}})
	}

	stalls := 0
	for len(pending) > 0 {
		n := min(MaxBatchWriteItems, len(pending))
		chunk := pending[:n]
		pending = pending[n:]

		out, callErr := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: chunk},
		})
		if callErr != nil {
			err = s.wrapErr("batch_write", callErr, map[string]string{
				"puts": fmt.Sprint(len(puts)), "deletes": fmt.Sprint(len(deletes)),
			})
			return err
		}

		unprocessed := out.UnprocessedItems[s.table]
		if len(unprocessed) == n {
			stalls++
			if stalls >= 3 {
				err = s.wrapErr("batch_write", fmt.Errorf("%d writes remain unprocessed", len(unprocessed)), nil)
				return err
			}
		} else {
			stalls = 0
		}
		pending = append(pending, unprocessed...)
	}
	return nil
}

// Transact applies up to MaxTransactionItems writes atomically. Larger
// inputs fail before any request is issued.
func (s *Store) Transact(ctx context.Context, items []TransactItem) (err error) {
	done := s.instrument("transact")
	defer func() { done(err) }()

	if len(items) > MaxTransactionItems {
		err = s.wrapErr("transact", fmt.Errorf("%w: got %d", ErrTooManyTransactItems, len(items)), nil)
		return err
	}

	writes := make([]types.TransactWriteItem, 0, len(items))
	for i, it := range items {
		write, buildErr := s.buildTransactItem(it)
		if buildErr != nil {
			err = s.wrapErr("transact", fmt.Errorf("item %d: %w", i, buildErr), nil)
			return err
		}
		writes = append(writes, write)
	}

	if _, callErr := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	}); callErr != nil {
		err = s.wrapErr("transact", callErr, map[string]string{"items": fmt.Sprint(len(items))})
		return err
	}
	return nil
}

func (s *Store) buildTransactItem(it TransactItem) (types.TransactWriteItem, error) {
	switch it.Op {
	case TransactPut:
		put := &types.Put{TableName: aws.String(s.table), Item: it.Item}
		if it.Condition != nil {
			expr, err := expression.NewBuilder().WithCondition(*it.Condition).Build()
			if err != nil {
				return types.TransactWriteItem{}, err
			}
			put.ConditionExpression = expr.Condition()
			put.ExpressionAttributeNames = expr.Names()
			put.ExpressionAttributeValues = expr.Values()
		}
		return types.TransactWriteItem{Put: put}, nil

	case TransactUpdate:
		if it.Update == nil {
			return types.TransactWriteItem{}, fmt.Errorf("update op requires an update expression")
		}
		builder := expression.NewBuilder().WithUpdate(*it.Update)
		if it.Condition != nil {
			builder = builder.WithCondition(*it.Condition)
		}
		expr, err := builder.Build()
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return types.TransactWriteItem{Update: &types.Update{
			TableName:                 aws.String(s.table),
			Key:                       keyAttrs(it.Key),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}}, nil

	case TransactDelete:
		del := &types.Delete{TableName: aws.String(s.table), Key: keyAttrs(it.Key)}
		if it.Condition != nil {
			expr, err := expression.NewBuilder().WithCondition(*it.Condition).Build()
			if err != nil {
				return types.TransactWriteItem{}, err
			}
			del.ConditionExpression = expr.Condition()
			del.ExpressionAttributeNames = expr.Names()
			del.ExpressionAttributeValues = expr.Values()
		}
		return types.TransactWriteItem{Delete: del}, nil

	case TransactConditionCheck:
		if it.Condition == nil {
			return types.TransactWriteItem{}, fmt.Errorf("condition check requires a condition")
		}
		expr, err := expression.NewBuilder().WithCondition(*it.Condition).Build()
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
			TableName:                 aws.String(s.table),
			Key:                       keyAttrs(it.Key),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}}, nil

	default:
		return types.TransactWriteItem{}, fmt.Errorf("unknown transact op %q", it.Op)
	}
}

// Exists reports whether an item is present, reading only its key.
func (s *Store) Exists(ctx context.Context, key Key) (bool, error) {
	item, err := s.GetItem(ctx, key, &GetOptions{Projection: []string{"PK"}})
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// HealthCheck verifies the table is reachable.
func (s *Store) HealthCheck(ctx context.Context) (err error) {
	done := s.instrument("health_check")
	defer func() { done(err) }()

	if _, callErr := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}); callErr != nil {
		err = s.wrapErr("health_check", callErr, nil)
		return err
	}
	return nil
}

// Page tokens are base64 JSON of the last evaluated key. Every key
// attribute in this layout is a string, which keeps the encoding exact.
func encodePageToken(lastKey Item) (string, error) {
	flat := make(map[string]string, len(lastKey))
	for name, value := range lastKey {
		s, isStr := value.(*types.AttributeValueMemberS)
		if !isStr {
			return "", fmt.Errorf("non-string key attribute %q in page token", name)
		}
		flat[name] = s.Value
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodePageToken(token string) (Item, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid page token: %w", err)
	}
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("invalid page token: %w", err)
	}
	key := make(Item, len(flat))
	for name, value := range flat {
		key[name] = &types.AttributeValueMemberS{Value: value}
	}
	return key, nil
}
