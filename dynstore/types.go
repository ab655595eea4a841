package dynstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Service limits enforced client-side. Batches are chunked transparently;
// transactions over the limit fail before any request is issued.
const (
	MaxBatchGetKeys     = 100
	MaxBatchWriteItems  = 25
	MaxTransactionItems = 25
)

// Item is a raw table item in SDK attribute-value form.
type Item = map[string]types.AttributeValue

// Key addresses a single item in the table.
type Key struct {
	PK string
	SK string
}

// DynamoDBClient is the subset of the SDK client the store uses.
// *dynamodb.Client satisfies it; tests substitute a fake.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// GetOptions tunes a single-item read.
type GetOptions struct {
	ConsistentRead bool
	Projection     []string
}

// PutOptions carries an optional condition for a put.
type PutOptions struct {
	Condition *expression.ConditionBuilder
}

// UpdateOptions carries the update expression and an optional condition.
type UpdateOptions struct {
	Update    expression.UpdateBuilder
	Condition *expression.ConditionBuilder
}

// DeleteOptions carries an optional condition for a delete.
type DeleteOptions struct {
	Condition *expression.ConditionBuilder
}

// QueryInput describes one page of a query. StartToken is the opaque
// cursor returned by a previous page.
type QueryInput struct {
	IndexName      string
	KeyCondition   expression.KeyConditionBuilder
	Filter         *expression.ConditionBuilder
	Projection     []string
	Limit          int32
	StartToken     string
	ConsistentRead bool
	ScanForward    *bool
}

// QueryResult is one page of query results. NextToken is empty on the
// last page.
type QueryResult struct {
	Items        []Item
	Count        int
	ScannedCount int
	NextToken    string
}

// TransactOp selects the kind of a transaction element.
type TransactOp string

const (
	TransactPut            TransactOp = "put"
	TransactUpdate         TransactOp = "update"
	TransactDelete         TransactOp = "delete"
	TransactConditionCheck TransactOp = "condition_check"
)

// TransactItem is one element of an atomic write. Item is used for puts;
// Key for the other kinds.
type TransactItem struct {
	Op        TransactOp
	Item      Item
	Key       Key
	Update    *expression.UpdateBuilder
	Condition *expression.ConditionBuilder
}

// API is the store surface the data-access layer is built on.
type API interface {
	GetItem(ctx context.Context, key Key, opts *GetOptions) (Item, error)
	PutItem(ctx context.Context, item Item, opts *PutOptions) error
	UpdateItem(ctx context.Context, key Key, opts UpdateOptions) (Item, error)
	DeleteItem(ctx context.Context, key Key, opts *DeleteOptions) error
	Query(ctx context.Context, in QueryInput) (*QueryResult, error)
	Count(ctx context.Context, in QueryInput) (int, error)
	BatchGet(ctx context.Context, keys []Key) ([]Item, error)
	BatchWrite(ctx context.Context, puts []Item, deletes []Key) error
	Transact(ctx context.Context, items []TransactItem) error
	Exists(ctx context.Context, key Key) (bool, error)
	HealthCheck(ctx context.Context) error
	Metrics() Metrics
	TableName() string
}
