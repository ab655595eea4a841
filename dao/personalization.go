package dao

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// PersonalizationDAO persists per-user personalization profiles in the
// user's partition, with a cohort projection on GSI2.
type PersonalizationDAO struct {
	base *Base[entity.Personalization, *entity.Personalization]
	log  zerolog.Logger
}

func NewPersonalizationDAO(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *PersonalizationDAO {
	return &PersonalizationDAO{
		base: NewBase[entity.Personalization](store, engine, entity.TypePersonalization, log),
		log:  log.With().Str("dao", "personalization").Logger(),
	}
}

// GetByUser returns a user's personalization profile, or nil.
func (d *PersonalizationDAO) GetByUser(ctx context.Context, userID string) (*entity.Personalization, error) {
	pk, sk := entity.PersonalizationKey(userID)
	return d.base.Get(ctx, pk, sk)
}

// Upsert creates the profile on first write and replaces its sections
// afterwards, keeping the version chain intact.
func (d *PersonalizationDAO) Upsert(ctx context.Context, profile *entity.Personalization) (*entity.Personalization, error) {
	existing, err := d.GetByUser(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		meta := profile.Meta()
		meta.PK, meta.SK = entity.PersonalizationKey(profile.UserID)
		if profile.CohortID != "" {
			meta.GSI2PK, meta.GSI2SK = entity.CohortGSI(profile.CohortID, profile.UserID)
		}
		return d.base.Create(ctx, profile)
	}

	patch := NewPatch().
		Set("culturalProfile", profile.CulturalProfile).
		Set("contentPreferences", profile.ContentPreferences).
		Set("engagementHistory", profile.EngagementHistory)
	if profile.AIInsights != nil {
		patch.Set("aiInsights", profile.AIInsights)
	}
	if profile.CohortID != "" && profile.CohortID != existing.CohortID {
		gsi2pk, gsi2sk := entity.CohortGSI(profile.CohortID, profile.UserID)
		patch.Set("cohortId", profile.CohortID).
			Set("GSI2PK", gsi2pk).
			Set("GSI2SK", gsi2sk)
	}

	pk, sk := entity.PersonalizationKey(profile.UserID)
	return d.base.Update(ctx, pk, sk, patch)
}

// ListCohort pages through the profiles assigned to one cohort.
func (d *PersonalizationDAO) ListCohort(ctx context.Context, cohortID string, opts *QueryOptions) (*Page[*entity.Personalization], error) {
	gsi2pk, _ := entity.CohortGSI(cohortID, "")
	return d.base.QueryGSI(ctx, 2, gsi2pk, "", opts)
}

// RecordInsights stores a fresh model analysis for a user.
func (d *PersonalizationDAO) RecordInsights(ctx context.Context, userID string, insights entity.PredictiveInsights) (*entity.Personalization, error) {
	if insights.LastAnalysis == "" {
		insights.LastAnalysis = entity.NowISO()
	}
	pk, sk := entity.PersonalizationKey(userID)
	return d.base.Update(ctx, pk, sk, NewPatch().Set("aiInsights", insights))
}

// Delete removes a user's personalization profile.
func (d *PersonalizationDAO) Delete(ctx context.Context, userID string) error {
	pk, sk := entity.PersonalizationKey(userID)
	return d.base.Delete(ctx, pk, sk)
}
