package dao

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// userStatFields is the set of counters IncrementStat accepts.
var userStatFields = map[string]struct{}{
	"storiesShared":  {},
	"circlesJoined":  {},
	"commentsPosted": {},
	"helpfulVotes":   {},
	"daysActive":     {},
	"streakDays":     {},
}

// UserDAO persists user profiles and the user-side membership mirrors.
type UserDAO struct {
	base        *Base[entity.User, *entity.User]
	userCircles *Base[entity.UserCircle, *entity.UserCircle]
	log         zerolog.Logger
}

func NewUserDAO(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *UserDAO {
	return &UserDAO{
		base:        NewBase[entity.User](store, engine, entity.TypeUser, log),
		userCircles: NewBase[entity.UserCircle](store, engine, entity.TypeUserCircle, log),
		log:         log.With().Str("dao", "user").Logger(),
	}
}

// Create stores a new user with the email and tenant projections. The
// email uniqueness pre-check reads the email index before the write;
// two simultaneous creates with the same email can both pass it, since
// the final conditional put only guards the profile key. Serializing
// email claims would need a dedicated email reservation item.
func (d *UserDAO) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}

	existing, err := d.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateEmailError{Email: user.Email}
	}

	meta := user.Meta()
	meta.PK, meta.SK = entity.UserProfileKey(user.UserID)
	meta.GSI1PK, meta.GSI1SK = entity.UserEmailGSI(user.Email, user.UserID)
	if user.TenantID != "" {
		meta.GSI4PK, meta.GSI4SK = entity.UserTenantGSI(user.TenantID, user.UserID)
	}
	return d.base.Create(ctx, user)
}

// GetByID returns a user profile, or nil when absent.
func (d *UserDAO) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	pk, sk := entity.UserProfileKey(userID)
	return d.base.Get(ctx, pk, sk)
}

// GetByEmail resolves a user through the email index, or nil when the
// email is unknown.
func (d *UserDAO) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	gsi1pk, _ := entity.UserEmailGSI(email, "")
	page, err := d.base.QueryGSI(ctx, 1, gsi1pk, "", &QueryOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return page.Items[0], nil
}

// GetCircles lists the circles a user belongs to, straight from the
// user's own partition.
func (d *UserDAO) GetCircles(ctx context.Context, userID string, opts *QueryOptions) (*Page[*entity.UserCircle], error) {
	return d.userCircles.QueryPrefix(ctx, "USER#"+userID, "CIRCLE#", opts)
}

// GetCirclesByStatus narrows the membership listing to one membership
// status, filtered server-side on the page.
func (d *UserDAO) GetCirclesByStatus(ctx context.Context, userID, status string, opts *QueryOptions) (*Page[*entity.UserCircle], error) {
	if opts == nil {
		opts = &QueryOptions{}
	}
	filter := Equals("status", status)
	opts.Filter = &filter
	return d.GetCircles(ctx, userID, opts)
}

// ListByTenant pages through the users of one tenant via GSI4.
func (d *UserDAO) ListByTenant(ctx context.Context, tenantID string, opts *QueryOptions) (*Page[*entity.User], error) {
	gsi4pk, _ := entity.UserTenantGSI(tenantID, "")
	return d.base.QueryGSI(ctx, 4, gsi4pk, "", opts)
}

// SearchQuery narrows a tenant user listing with post-filters that run
// server-side on the index page.
type SearchQuery struct {
	TenantID           string
	CulturalBackground []string
	DiagnosisStage     string
	SupportNeeds       []string
	Limit              int32
	StartToken         string
}

// Search filters a tenant's users by profile attributes.
func (d *UserDAO) Search(ctx context.Context, q SearchQuery) (*Page[*entity.User], error) {
	if q.TenantID == "" {
		return nil, fmt.Errorf("dao: user search requires a tenant")
	}

	var conds []expression.ConditionBuilder
	if len(q.CulturalBackground) > 0 {
		conds = append(conds, ContainsAny("profile.culturalBackground", q.CulturalBackground))
	}
	if q.DiagnosisStage != "" {
		conds = append(conds, Equals("profile.diagnosisStage", q.DiagnosisStage))
	}
	if len(q.SupportNeeds) > 0 {
		conds = append(conds, ContainsAny("profile.supportNeeds", q.SupportNeeds))
	}

	opts := &QueryOptions{Limit: q.Limit, StartToken: q.StartToken}
	if len(conds) > 0 {
		filter := AndAll(conds...)
		opts.Filter = &filter
	}
	return d.ListByTenant(ctx, q.TenantID, opts)
}

// Update applies a patch to a user profile under optimistic locking.
func (d *UserDAO) Update(ctx context.Context, userID string, patch *Patch) (*entity.User, error) {
	pk, sk := entity.UserProfileKey(userID)
	return d.base.Update(ctx, pk, sk, patch)
}

// IncrementStat adds delta to one of the user activity counters.
func (d *UserDAO) IncrementStat(ctx context.Context, userID, stat string, delta int) (*entity.User, error) {
	if _, known := userStatFields[stat]; !known {
		return nil, fmt.Errorf("dao: unknown user stat %q", stat)
	}
	return d.Update(ctx, userID, NewPatch().Increment("stats."+stat, float64(delta)))
}

// UpdateProfile patches fields under the profile attribute.
func (d *UserDAO) UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*entity.User, error) {
	patch := NewPatch()
	for name, value := range fields {
		patch.Set("profile."+name, value)
	}
	return d.Update(ctx, userID, patch)
}

// UpdatePreferences patches fields under the preferences attribute.
func (d *UserDAO) UpdatePreferences(ctx context.Context, userID string, fields map[string]any) (*entity.User, error) {
	patch := NewPatch()
	for name, value := range fields {
		patch.Set("preferences."+name, value)
	}
	return d.Update(ctx, userID, patch)
}

// RecordActivity stamps the last-seen time on the user's stats.
func (d *UserDAO) RecordActivity(ctx context.Context, userID string) (*entity.User, error) {
	return d.Update(ctx, userID, NewPatch().Set("stats.lastActiveAt", entity.NowISO()))
}

// Deactivate marks a user inactive without removing the profile.
func (d *UserDAO) Deactivate(ctx context.Context, userID string) (*entity.User, error) {
	return d.Update(ctx, userID, NewPatch().Set("isActive", false))
}

// Delete removes a user profile.
func (d *UserDAO) Delete(ctx context.Context, userID string) error {
	pk, sk := entity.UserProfileKey(userID)
	return d.base.Delete(ctx, pk, sk)
}
