package dao

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// FeedbackDAO persists image feedback. Feedback for one image shares a
// partition; GSI1 orders a user's feedback by creation time.
type FeedbackDAO struct {
	base *Base[entity.Feedback, *entity.Feedback]
	log  zerolog.Logger
}

func NewFeedbackDAO(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *FeedbackDAO {
	return &FeedbackDAO{
		base: NewBase[entity.Feedback](store, engine, entity.TypeFeedback, log),
		log:  log.With().Str("dao", "feedback").Logger(),
	}
}

// Create stores new feedback. When no severity is given, one is derived:
// content concerns with low ratings are escalated, everything else
// starts low.
func (d *FeedbackDAO) Create(ctx context.Context, fb *entity.Feedback) (*entity.Feedback, error) {
	if fb.FeedbackID == "" {
		fb.FeedbackID = uuid.NewString()
	}
	if fb.Status == "" {
		fb.Status = "pending"
	}
	if fb.Severity == "" {
		fb.Severity = deriveSeverity(fb.FeedbackType, fb.Rating)
	}

	meta := fb.Meta()
	meta.PK, meta.SK = entity.FeedbackKey(fb.ImageID, fb.FeedbackID)
	meta.GSI1PK, meta.GSI1SK = entity.FeedbackUserGSI(fb.UserID, entity.NowISO())
	return d.base.Create(ctx, fb)
}

func deriveSeverity(feedbackType string, rating int) string {
	switch feedbackType {
	case "inappropriate":
		return "critical"
	case "cultural_concern":
		if rating <= 2 {
			return "high"
		}
		return "medium"
	default:
		return "low"
	}
}

// Get returns one feedback item, or nil when absent.
func (d *FeedbackDAO) Get(ctx context.Context, imageID, feedbackID string) (*entity.Feedback, error) {
	pk, sk := entity.FeedbackKey(imageID, feedbackID)
	return d.base.Get(ctx, pk, sk)
}

// ListByImage pages through the feedback of one image.
func (d *FeedbackDAO) ListByImage(ctx context.Context, imageID string, opts *QueryOptions) (*Page[*entity.Feedback], error) {
	pk, _ := entity.FeedbackKey(imageID, "")
	return d.base.QueryPrefix(ctx, pk, "FEEDBACK#", opts)
}

// ListByUser pages through a user's feedback, newest first.
func (d *FeedbackDAO) ListByUser(ctx context.Context, userID string, opts *QueryOptions) (*Page[*entity.Feedback], error) {
	if opts == nil {
		opts = &QueryOptions{}
	}
	if opts.ScanForward == nil {
		backward := false
		opts.ScanForward = &backward
	}
	gsi1pk, _ := entity.FeedbackUserGSI(userID, "")
	return d.base.QueryGSI(ctx, 1, gsi1pk, "", opts)
}

// ListUrgent returns the high and critical feedback of one image.
func (d *FeedbackDAO) ListUrgent(ctx context.Context, imageID string, opts *QueryOptions) (*Page[*entity.Feedback], error) {
	if opts == nil {
		opts = &QueryOptions{}
	}
	filter := InSet("severity", []string{"high", "critical"})
	if opts.Filter != nil {
		filter = AndAll(*opts.Filter, filter)
	}
	opts.Filter = &filter
	return d.ListByImage(ctx, imageID, opts)
}

// MarkStatus moves feedback through the triage lifecycle.
func (d *FeedbackDAO) MarkStatus(ctx context.Context, imageID, feedbackID, status string) (*entity.Feedback, error) {
	pk, sk := entity.FeedbackKey(imageID, feedbackID)
	return d.base.Update(ctx, pk, sk, NewPatch().Set("status", status))
}

// Delete removes one feedback item.
func (d *FeedbackDAO) Delete(ctx context.Context, imageID, feedbackID string) error {
	pk, sk := entity.FeedbackKey(imageID, feedbackID)
	return d.base.Delete(ctx, pk, sk)
}
