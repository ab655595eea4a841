package dao

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// PremiumSourceDAO persists external content sources with a tier
// projection on GSI3 and a provider projection on GSI2.
type PremiumSourceDAO struct {
	base *Base[entity.PremiumSource, *entity.PremiumSource]
	log  zerolog.Logger
}

func NewPremiumSourceDAO(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *PremiumSourceDAO {
	return &PremiumSourceDAO{
		base: NewBase[entity.PremiumSource](store, engine, entity.TypePremiumSource, log),
		log:  log.With().Str("dao", "premium_source").Logger(),
	}
}

// Create registers a new content source.
func (d *PremiumSourceDAO) Create(ctx context.Context, source *entity.PremiumSource) (*entity.PremiumSource, error) {
	if source.SourceID == "" {
		source.SourceID = uuid.NewString()
	}

	meta := source.Meta()
	meta.PK, meta.SK = entity.PremiumSourceKey(source.SourceID)
	meta.GSI3PK, meta.GSI3SK = entity.PremiumSourceTierGSI(source.Type, source.SourceID)
	if source.Provider != "" {
		meta.GSI2PK, meta.GSI2SK = entity.PremiumSourceProviderGSI(source.Provider, source.SourceID)
	}
	return d.base.Create(ctx, source)
}

// GetByID returns a source, or nil when absent.
func (d *PremiumSourceDAO) GetByID(ctx context.Context, sourceID string) (*entity.PremiumSource, error) {
	pk, sk := entity.PremiumSourceKey(sourceID)
	return d.base.Get(ctx, pk, sk)
}

// ListByType pages through the sources of one content type.
func (d *PremiumSourceDAO) ListByType(ctx context.Context, sourceType string, opts *QueryOptions) (*Page[*entity.PremiumSource], error) {
	gsi3pk, _ := entity.PremiumSourceTierGSI(sourceType, "")
	return d.base.QueryGSI(ctx, 3, gsi3pk, "", opts)
}

// ListByProvider pages through the sources of one provider.
func (d *PremiumSourceDAO) ListByProvider(ctx context.Context, provider string, opts *QueryOptions) (*Page[*entity.PremiumSource], error) {
	gsi2pk, _ := entity.PremiumSourceProviderGSI(provider, "")
	return d.base.QueryGSI(ctx, 2, gsi2pk, "", opts)
}

// ListActiveByType narrows a type listing to enabled sources.
func (d *PremiumSourceDAO) ListActiveByType(ctx context.Context, sourceType string, opts *QueryOptions) (*Page[*entity.PremiumSource], error) {
	if opts == nil {
		opts = &QueryOptions{}
	}
	filter := Equals("isActive", true)
	if opts.Filter != nil {
		filter = AndAll(*opts.Filter, filter)
	}
	opts.Filter = &filter
	return d.ListByType(ctx, sourceType, opts)
}

// Update applies a patch under optimistic locking.
func (d *PremiumSourceDAO) Update(ctx context.Context, sourceID string, patch *Patch) (*entity.PremiumSource, error) {
	pk, sk := entity.PremiumSourceKey(sourceID)
	return d.base.Update(ctx, pk, sk, patch)
}

// SetActive enables or disables a source without touching its
// configuration.
func (d *PremiumSourceDAO) SetActive(ctx context.Context, sourceID string, active bool) (*entity.PremiumSource, error) {
	return d.Update(ctx, sourceID, NewPatch().Set("isActive", active))
}

// RecordQuality folds a new rating into the source's quality metrics.
func (d *PremiumSourceDAO) RecordQuality(ctx context.Context, sourceID string, rating float64) (*entity.PremiumSource, error) {
	current, err := d.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		pk, sk := entity.PremiumSourceKey(sourceID)
		return nil, &NotFoundError{PK: pk, SK: sk}
	}

	qm := current.QualityMetrics
	average := (qm.AverageRating*float64(qm.TotalImages) + rating) / float64(qm.TotalImages+1)

	return d.Update(ctx, sourceID, NewPatch().
		Set("qualityMetrics.averageRating", average).
		Increment("qualityMetrics.totalImages", 1))
}

// Delete removes a source.
func (d *PremiumSourceDAO) Delete(ctx context.Context, sourceID string) error {
	pk, sk := entity.PremiumSourceKey(sourceID)
	return d.base.Delete(ctx, pk, sk)
}
