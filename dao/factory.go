package dao

import (
	"context"
	"fmt"
	"net/http"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/pkg/config"
	"github.com/raywall/single-table-toolkit/validate"
)

// Factory wires the store, the validation engine and every entity DAO
// against one table. It is the single composition root; everything it
// hands out shares the same client and metrics.
type Factory struct {
	store  dynstore.API
	engine *validate.Engine
	statsd *statsd.Client
	log    zerolog.Logger

	Users           *UserDAO
	Circles         *CircleDAO
	Images          *ImageAssetDAO
	Feedback        *FeedbackDAO
	Incidents       *IncidentDAO
	Advisory        *AdvisoryReviewDAO
	PremiumSources  *PremiumSourceDAO
	Personalization *PersonalizationDAO
}

// poolTransport sizes the idle connection pool so concurrent DAO calls
// reuse connections instead of redialing.
func poolTransport(size int) func(*http.Transport) {
	return func(t *http.Transport) {
		if size <= 0 {
			return
		}
		t.MaxIdleConns = size
		t.MaxIdleConnsPerHost = size
	}
}

// New builds a Factory from configuration: AWS client with the
// configured timeout, retries, pool size and optional endpoint
// override, plus a statsd client when Datadog is enabled.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Factory, error) {
	httpClient := awshttp.NewBuildableClient().
		WithTimeout(cfg.Timeout()).
		WithTransportOptions(poolTransport(cfg.PoolSize))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(cfg.MaxRetries),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("dao: load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	var dd *statsd.Client
	if cfg.Metrics.Datadog.Enabled {
		dd, err = statsd.New(cfg.Metrics.Datadog.Addr,
			statsd.WithNamespace(cfg.Metrics.Datadog.Namespace))
		if err != nil {
			return nil, fmt.Errorf("dao: connect statsd: %w", err)
		}
	}

	store := dynstore.New(client, dynstore.Options{
		TableName: cfg.TableName,
		Logger:    log,
		Statsd:    dd,
	})

	f := NewWithStore(store, validate.NewEngine(log), log)
	f.statsd = dd
	return f, nil
}

// NewWithStore wires the DAOs over an existing store and engine. Tests
// and custom deployments enter here.
func NewWithStore(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *Factory {
	return &Factory{
		store:           store,
		engine:          engine,
		log:             log,
		Users:           NewUserDAO(store, engine, log),
		Circles:         NewCircleDAO(store, engine, log),
		Images:          NewImageAssetDAO(store, engine, log),
		Feedback:        NewFeedbackDAO(store, engine, log),
		Incidents:       NewIncidentDAO(store, engine, log),
		Advisory:        NewAdvisoryReviewDAO(store, engine, log),
		PremiumSources:  NewPremiumSourceDAO(store, engine, log),
		Personalization: NewPersonalizationDAO(store, engine, log),
	}
}

// Store exposes the shared store for code that needs raw access, such
// as the migration loader.
func (f *Factory) Store() dynstore.API { return f.store }

// Engine exposes the shared validation engine.
func (f *Factory) Engine() *validate.Engine { return f.engine }

// Metrics returns the shared store metrics snapshot.
func (f *Factory) Metrics() dynstore.Metrics { return f.store.Metrics() }

// HealthCheck reports whether the table is reachable.
func (f *Factory) HealthCheck(ctx context.Context) bool {
	if err := f.store.HealthCheck(ctx); err != nil {
		f.log.Error().Err(err).Msg("health check failed")
		return false
	}
	return true
}

// Close flushes and releases owned resources.
func (f *Factory) Close() error {
	if f.statsd != nil {
		return f.statsd.Close()
	}
	return nil
}
