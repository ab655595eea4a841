package dao

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// AdvisoryReviewDAO persists the advisory board's review queue. All
// queued content shares one partition keyed by content id, with a status
// projection on GSI2.
type AdvisoryReviewDAO struct {
	base *Base[entity.AdvisoryReview, *entity.AdvisoryReview]
	log  zerolog.Logger
}

func NewAdvisoryReviewDAO(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *AdvisoryReviewDAO {
	return &AdvisoryReviewDAO{
		base: NewBase[entity.AdvisoryReview](store, engine, entity.TypeAdvisoryReview, log),
		log:  log.With().Str("dao", "advisory_review").Logger(),
	}
}

// Submit queues content for review.
func (d *AdvisoryReviewDAO) Submit(ctx context.Context, review *entity.AdvisoryReview) (*entity.AdvisoryReview, error) {
	if review.ReviewID == "" {
		review.ReviewID = uuid.NewString()
	}
	if review.Status == "" {
		review.Status = "queued"
	}
	if review.Priority == "" {
		review.Priority = "medium"
	}

	meta := review.Meta()
	meta.PK, meta.SK = entity.AdvisoryReviewKey(review.ContentID)
	meta.GSI2PK, meta.GSI2SK = entity.AdvisoryStatusGSI(review.Status, entity.NowISO())
	return d.base.Create(ctx, review)
}

// GetByContent returns the review for one piece of content, or nil.
func (d *AdvisoryReviewDAO) GetByContent(ctx context.Context, contentID string) (*entity.AdvisoryReview, error) {
	pk, sk := entity.AdvisoryReviewKey(contentID)
	return d.base.Get(ctx, pk, sk)
}

// ListByStatus pages through the queue in one status, oldest first.
func (d *AdvisoryReviewDAO) ListByStatus(ctx context.Context, status string, opts *QueryOptions) (*Page[*entity.AdvisoryReview], error) {
	gsi2pk, _ := entity.AdvisoryStatusGSI(status, "")
	return d.base.QueryGSI(ctx, 2, gsi2pk, "", opts)
}

// ListQueue returns the pending queue.
func (d *AdvisoryReviewDAO) ListQueue(ctx context.Context, opts *QueryOptions) (*Page[*entity.AdvisoryReview], error) {
	return d.ListByStatus(ctx, "queued", opts)
}

// AssignReviewers sets the reviewer panel and moves the content into
// review.
func (d *AdvisoryReviewDAO) AssignReviewers(ctx context.Context, contentID string, reviewers []string) (*entity.AdvisoryReview, error) {
	return d.markStatus(ctx, contentID, "in_review", NewPatch().Set("assignedReviewers", reviewers))
}

// AddDecision records one reviewer's decision and refreshes the
// consensus score from all decisions so far.
func (d *AdvisoryReviewDAO) AddDecision(ctx context.Context, contentID string, decision entity.ReviewDecision) (*entity.AdvisoryReview, error) {
	current, err := d.GetByContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		pk, sk := entity.AdvisoryReviewKey(contentID)
		return nil, &NotFoundError{PK: pk, SK: sk}
	}

	if decision.ReviewedAt == "" {
		decision.ReviewedAt = entity.NowISO()
	}
	reviews := append(current.Reviews, decision)

	var sum float64
	for _, r := range reviews {
		sum += (r.CulturalAccuracy + r.SensitivityScore) / 2
	}
	consensus := sum / float64(len(reviews))

	return d.markStatus(ctx, contentID, "in_review", NewPatch().
		Set("reviews", reviews).
		Set("consensusScore", consensus))
}

// Finalize records the board's decision and moves the content to its
// terminal status.
func (d *AdvisoryReviewDAO) Finalize(ctx context.Context, contentID, decision, rationale string) (*entity.AdvisoryReview, error) {
	status, err := finalStatus(decision)
	if err != nil {
		return nil, err
	}
	return d.markStatus(ctx, contentID, status, NewPatch().
		Set("finalDecision", decision).
		Set("decisionRationale", rationale))
}

func finalStatus(decision string) (string, error) {
	switch decision {
	case "approve":
		return "approved", nil
	case "request_changes":
		return "changes_requested", nil
	case "reject":
		return "rejected", nil
	}
	return "", fmt.Errorf("dao: unknown review decision %q", decision)
}

// markStatus applies a patch together with a status change and its GSI2
// projection rewrite.
func (d *AdvisoryReviewDAO) markStatus(ctx context.Context, contentID, status string, patch *Patch) (*entity.AdvisoryReview, error) {
	current, err := d.GetByContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		pk, sk := entity.AdvisoryReviewKey(contentID)
		return nil, &NotFoundError{PK: pk, SK: sk}
	}

	gsi2pk, gsi2sk := entity.AdvisoryStatusGSI(status, current.CreatedAt)
	patch.Set("status", status).
		Set("GSI2PK", gsi2pk).
		Set("GSI2SK", gsi2sk)

	pk, sk := entity.AdvisoryReviewKey(contentID)
	return d.base.Update(ctx, pk, sk, patch)
}

// Delete removes a review from the queue.
func (d *AdvisoryReviewDAO) Delete(ctx context.Context, contentID string) error {
	pk, sk := entity.AdvisoryReviewKey(contentID)
	return d.base.Delete(ctx, pk, sk)
}
