package dao

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// ImageAssetDAO persists image metadata with category and status
// projections.
type ImageAssetDAO struct {
	base *Base[entity.ImageAsset, *entity.ImageAsset]
	log  zerolog.Logger
}

func NewImageAssetDAO(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *ImageAssetDAO {
	return &ImageAssetDAO{
		base: NewBase[entity.ImageAsset](store, engine, entity.TypeImageAsset, log),
		log:  log.With().Str("dao", "image_asset").Logger(),
	}
}

// Create stores a new image. Images enter the catalog pending review
// unless a status is given explicitly.
func (d *ImageAssetDAO) Create(ctx context.Context, image *entity.ImageAsset) (*entity.ImageAsset, error) {
	if image.ImageID == "" {
		image.ImageID = uuid.NewString()
	}
	if image.Status == "" {
		image.Status = "pending_review"
	}

	meta := image.Meta()
	meta.PK, meta.SK = entity.ImageMetadataKey(image.ImageID)
	meta.GSI2PK, meta.GSI2SK = entity.ImageCategoryGSI(image.Category, image.ImageID)
	meta.GSI3PK, meta.GSI3SK = entity.ImageStatusGSI(image.Status, image.ImageID)
	return d.base.Create(ctx, image)
}

// GetByID returns image metadata, or nil when absent.
func (d *ImageAssetDAO) GetByID(ctx context.Context, imageID string) (*entity.ImageAsset, error) {
	pk, sk := entity.ImageMetadataKey(imageID)
	return d.base.Get(ctx, pk, sk)
}

// ListByCategory pages through the images of one category.
func (d *ImageAssetDAO) ListByCategory(ctx context.Context, category string, opts *QueryOptions) (*Page[*entity.ImageAsset], error) {
	gsi2pk, _ := entity.ImageCategoryGSI(category, "")
	return d.base.QueryGSI(ctx, 2, gsi2pk, "", opts)
}

// ListByStatus pages through the images in one review state.
func (d *ImageAssetDAO) ListByStatus(ctx context.Context, status string, opts *QueryOptions) (*Page[*entity.ImageAsset], error) {
	gsi3pk, _ := entity.ImageStatusGSI(status, "")
	return d.base.QueryGSI(ctx, 3, gsi3pk, "", opts)
}

// FindByTags narrows a category listing to images carrying any of the
// given tags. Without tags it is a plain category listing.
func (d *ImageAssetDAO) FindByTags(ctx context.Context, category string, tags []string, opts *QueryOptions) (*Page[*entity.ImageAsset], error) {
	if len(tags) == 0 {
		return d.ListByCategory(ctx, category, opts)
	}
	if opts == nil {
		opts = &QueryOptions{}
	}
	filter := ContainsAny("tags", tags)
	if opts.Filter != nil {
		filter = AndAll(*opts.Filter, filter)
	}
	opts.Filter = &filter
	return d.ListByCategory(ctx, category, opts)
}

// Update applies a patch to image metadata under optimistic locking.
func (d *ImageAssetDAO) Update(ctx context.Context, imageID string, patch *Patch) (*entity.ImageAsset, error) {
	pk, sk := entity.ImageMetadataKey(imageID)
	return d.base.Update(ctx, pk, sk, patch)
}

// statusPatch moves the status and its GSI3 projection together.
func statusPatch(imageID, status string) *Patch {
	gsi3pk, gsi3sk := entity.ImageStatusGSI(status, imageID)
	return NewPatch().
		Set("status", status).
		Set("GSI3PK", gsi3pk).
		Set("GSI3SK", gsi3sk)
}

// MarkStatus moves an image through the review lifecycle. Notes are
// appended to the validation issue list.
func (d *ImageAssetDAO) MarkStatus(ctx context.Context, imageID, status string, notes ...string) (*entity.ImageAsset, error) {
	patch := statusPatch(imageID, status)
	for _, note := range notes {
		patch.Append("validation.issues", note)
	}
	return d.Update(ctx, imageID, patch)
}

// RecordValidation stores the review scores and flips the status
// according to the appropriateness verdict.
func (d *ImageAssetDAO) RecordValidation(ctx context.Context, imageID string, v entity.ImageValidation) (*entity.ImageAsset, error) {
	if v.ValidatedAt == "" {
		v.ValidatedAt = entity.NowISO()
	}
	status := "active"
	if !v.IsAppropriate {
		status = "flagged"
	}
	return d.Update(ctx, imageID, statusPatch(imageID, status).
		Set("validation", v))
}

// RecordUsage bumps the usage counter and remembers where the image was
// shown.
func (d *ImageAssetDAO) RecordUsage(ctx context.Context, imageID, usageContext string) (*entity.ImageAsset, error) {
	return d.Update(ctx, imageID, NewPatch().
		Increment("usage.timesUsed", 1).
		Append("usage.contexts", usageContext).
		Set("usage.lastUsed", entity.NowISO()))
}

// Delete removes image metadata.
func (d *ImageAssetDAO) Delete(ctx context.Context, imageID string) error {
	pk, sk := entity.ImageMetadataKey(imageID)
	return d.base.Delete(ctx, pk, sk)
}
