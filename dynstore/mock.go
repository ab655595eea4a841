package dynstore

import "context"

// Mock implements API through optional function fields, so tests only
// stub the calls they care about. Unset fields succeed with zero values.
type Mock struct {
	GetItemFn     func(ctx context.Context, key Key, opts *GetOptions) (Item, error)
	PutItemFn     func(ctx context.Context, item Item, opts *PutOptions) error
	UpdateItemFn  func(ctx context.Context, key Key, opts UpdateOptions) (Item, error)
	DeleteItemFn  func(ctx context.Context, key Key, opts *DeleteOptions) error
	QueryFn       func(ctx context.Context, in QueryInput) (*QueryResult, error)
	CountFn       func(ctx context.Context, in QueryInput) (int, error)
	BatchGetFn    func(ctx context.Context, keys []Key) ([]Item, error)
	BatchWriteFn  func(ctx context.Context, puts []Item, deletes []Key) error
	TransactFn    func(ctx context.Context, items []TransactItem) error
	ExistsFn      func(ctx context.Context, key Key) (bool, error)
	HealthCheckFn func(ctx context.Context) error
	MetricsFn     func() Metrics
	TableNameFn   func() string
}

var _ API = (*Mock)(nil)

func (m *Mock) GetItem(ctx context.Context, key Key, opts *GetOptions) (Item, error) {
	if m.GetItemFn != nil {
		return m.GetItemFn(ctx, key, opts)
	}
	return nil, nil
}

func (m *Mock) PutItem(ctx context.Context, item Item, opts *PutOptions) error {
	if m.PutItemFn != nil {
		return m.PutItemFn(ctx, item, opts)
	}
	return nil
}

func (m *Mock) UpdateItem(ctx context.Context, key Key, opts UpdateOptions) (Item, error) {
	if m.UpdateItemFn != nil {
		return m.UpdateItemFn(ctx, key, opts)
	}
	return nil, nil
}

func (m *Mock) DeleteItem(ctx context.Context, key Key, opts *DeleteOptions) error {
	if m.DeleteItemFn != nil {
		return m.DeleteItemFn(ctx, key, opts)
	}
	return nil
}

func (m *Mock) Query(ctx context.Context, in QueryInput) (*QueryResult, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, in)
	}
	return &QueryResult{}, nil
}

func (m *Mock) Count(ctx context.Context, in QueryInput) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, in)
	}
	return 0, nil
}

func (m *Mock) BatchGet(ctx context.Context, keys []Key) ([]Item, error) {
	if m.BatchGetFn != nil {
		return m.BatchGetFn(ctx, keys)
	}
	return nil, nil
}

func (m *Mock) BatchWrite(ctx context.Context, puts []Item, deletes []Key) error {
	if m.BatchWriteFn != nil {
		return m.BatchWriteFn(ctx, puts, deletes)
	}
	return nil
}

func (m *Mock) Transact(ctx context.Context, items []TransactItem) error {
	if m.TransactFn != nil {
		return m.TransactFn(ctx, items)
	}
	return nil
}

func (m *Mock) Exists(ctx context.Context, key Key) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, key)
	}
	return false, nil
}

func (m *Mock) HealthCheck(ctx context.Context) error {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return nil
}

func (m *Mock) Metrics() Metrics {
	if m.MetricsFn != nil {
		return m.MetricsFn()
	}
	return Metrics{}
}

func (m *Mock) TableName() string {
	if m.TableNameFn != nil {
		return m.TableNameFn()
	}
	return "mock"
}
