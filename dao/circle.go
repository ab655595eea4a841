package dao

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

// CircleDAO persists circles and their membership pairs. A membership is
// two rows, one in the circle's partition and one in the user's, written
// together in a transaction so neither side can exist alone.
type CircleDAO struct {
	base        *Base[entity.Circle, *entity.Circle]
	members     *Base[entity.CircleMember, *entity.CircleMember]
	userCircles *Base[entity.UserCircle, *entity.UserCircle]
	log         zerolog.Logger
}

func NewCircleDAO(store dynstore.API, engine *validate.Engine, log zerolog.Logger) *CircleDAO {
	return &CircleDAO{
		base:        NewBase[entity.Circle](store, engine, entity.TypeCircle, log),
		members:     NewBase[entity.CircleMember](store, engine, entity.TypeCircleMember, log),
		userCircles: NewBase[entity.UserCircle](store, engine, entity.TypeUserCircle, log),
		log:         log.With().Str("dao", "circle").Logger(),
	}
}

// Create stores a new circle and enrolls its creator as admin.
func (d *CircleDAO) Create(ctx context.Context, circle *entity.Circle) (*entity.Circle, error) {
	if circle.CircleID == "" {
		circle.CircleID = uuid.NewString()
	}
	if circle.Status == "" {
		circle.Status = "active"
	}

	meta := circle.Meta()
	meta.PK, meta.SK = entity.CircleMetadataKey(circle.CircleID)
	if circle.Type != "" {
		meta.GSI1PK, meta.GSI1SK = entity.CircleTypeGSI(circle.Type, circle.CircleID)
	}

	created, err := d.base.Create(ctx, circle)
	if err != nil {
		return nil, err
	}

	if circle.CreatedBy != "" {
		if _, err := d.AddMember(ctx, circle.CircleID, circle.CreatedBy, "admin"); err != nil {
			return nil, err
		}
		created, err = d.GetByID(ctx, circle.CircleID)
		if err != nil {
			return nil, err
		}
	}
	return created, nil
}

// GetByID returns circle metadata, or nil when absent.
func (d *CircleDAO) GetByID(ctx context.Context, circleID string) (*entity.Circle, error) {
	pk, sk := entity.CircleMetadataKey(circleID)
	return d.base.Get(ctx, pk, sk)
}

// Update applies a patch to circle metadata under optimistic locking.
func (d *CircleDAO) Update(ctx context.Context, circleID string, patch *Patch) (*entity.Circle, error) {
	pk, sk := entity.CircleMetadataKey(circleID)
	return d.base.Update(ctx, pk, sk, patch)
}

// AddMember writes both rows of a membership pair atomically, then bumps
// the circle's member count. The pair puts are conditional on absence so
// a double join surfaces as DuplicateKeyError.
func (d *CircleDAO) AddMember(ctx context.Context, circleID, userID, role string) (*entity.CircleMember, error) {
	now := entity.NowISO()
	member := &entity.CircleMember{
		CircleID:      circleID,
		UserID:        userID,
		Role:          role,
		JoinedAt:      now,
		Status:        "active",
		Notifications: true,
	}
	member.PK, member.SK = entity.CircleMemberKey(circleID, userID)

	mirror := &entity.UserCircle{
		UserID:   userID,
		CircleID: circleID,
		Role:     role,
		JoinedAt: now,
		Status:   "active",
	}
	mirror.PK, mirror.SK = entity.UserCircleKey(userID, circleID)

	memberRaw, err := d.members.marshalNew(member)
	if err != nil {
		return nil, err
	}
	mirrorRaw, err := d.userCircles.marshalNew(mirror)
	if err != nil {
		return nil, err
	}

	absent := expression.AttributeNotExists(expression.Name("PK"))
	err = d.base.Transact(ctx, []dynstore.TransactItem{
		{Op: dynstore.TransactPut, Item: memberRaw, Condition: &absent},
		{Op: dynstore.TransactPut, Item: mirrorRaw, Condition: &absent},
	})
	if err != nil {
		if errors.Is(err, dynstore.ErrConditionFailed) {
			return nil, &DuplicateKeyError{PK: member.PK, SK: member.SK}
		}
		return nil, err
	}

	if _, err := d.Update(ctx, circleID, NewPatch().Increment("stats.memberCount", 1)); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember deletes both rows of a membership pair atomically and
// decrements the member count. A missing membership is NotFoundError.
func (d *CircleDAO) RemoveMember(ctx context.Context, circleID, userID string) error {
	memberPK, memberSK := entity.CircleMemberKey(circleID, userID)
	mirrorPK, mirrorSK := entity.UserCircleKey(userID, circleID)

	present := expression.AttributeExists(expression.Name("PK"))
	err := d.base.Transact(ctx, []dynstore.TransactItem{
		{Op: dynstore.TransactDelete, Key: dynstore.Key{PK: memberPK, SK: memberSK}, Condition: &present},
		{Op: dynstore.TransactDelete, Key: dynstore.Key{PK: mirrorPK, SK: mirrorSK}, Condition: &present},
	})
	if err != nil {
		if errors.Is(err, dynstore.ErrConditionFailed) {
			return &NotFoundError{PK: memberPK, SK: memberSK}
		}
		return err
	}

	_, err = d.Update(ctx, circleID, NewPatch().Increment("stats.memberCount", -1))
	return err
}

// UpdateMemberRole changes the role on both rows of a membership pair in
// one transaction, keeping their versions moving in step.
func (d *CircleDAO) UpdateMemberRole(ctx context.Context, circleID, userID, role string) error {
	memberPK, memberSK := entity.CircleMemberKey(circleID, userID)
	mirrorPK, mirrorSK := entity.UserCircleKey(userID, circleID)

	now := entity.NowISO()
	upd := expression.UpdateBuilder{}.
		Set(expression.Name("role"), expression.Value(role)).
		Set(expression.Name("updatedAt"), expression.Value(now)).
		Set(expression.Name("version"), expression.Plus(expression.Name("version"), expression.Value(1)))
	present := expression.AttributeExists(expression.Name("PK"))

	err := d.base.Transact(ctx, []dynstore.TransactItem{
		{Op: dynstore.TransactUpdate, Key: dynstore.Key{PK: memberPK, SK: memberSK}, Update: &upd, Condition: &present},
		{Op: dynstore.TransactUpdate, Key: dynstore.Key{PK: mirrorPK, SK: mirrorSK}, Update: &upd, Condition: &present},
	})
	if errors.Is(err, dynstore.ErrConditionFailed) {
		return &NotFoundError{PK: memberPK, SK: memberSK}
	}
	return err
}

// GetMember returns one membership row, or nil when the user is not a
// member.
func (d *CircleDAO) GetMember(ctx context.Context, circleID, userID string) (*entity.CircleMember, error) {
	pk, sk := entity.CircleMemberKey(circleID, userID)
	return d.members.Get(ctx, pk, sk)
}

// GetMembers pages through the members of a circle.
func (d *CircleDAO) GetMembers(ctx context.Context, circleID string, opts *QueryOptions) (*Page[*entity.CircleMember], error) {
	return d.members.QueryPrefix(ctx, "CIRCLE#"+circleID, "MEMBER#", opts)
}

// SearchCircles lists circles of one type, then narrows by tags and name
// in memory; tag and substring matching over metadata does not map onto
// index conditions.
func (d *CircleDAO) SearchCircles(ctx context.Context, circleType, nameContains string, tags []string, opts *QueryOptions) ([]*entity.Circle, error) {
	gsi1pk, _ := entity.CircleTypeGSI(circleType, "")
	page, err := d.base.QueryGSI(ctx, 1, gsi1pk, "", opts)
	if err != nil {
		return nil, err
	}

	matched := make([]*entity.Circle, 0, len(page.Items))
	for _, circle := range page.Items {
		if nameContains != "" && !strings.Contains(strings.ToLower(circle.Name), strings.ToLower(nameContains)) {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(circle.Tags, tags) {
			continue
		}
		matched = append(matched, circle)
	}
	return matched, nil
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// UpdateStats adjusts the activity counters and rates of a circle.
func (d *CircleDAO) UpdateStats(ctx context.Context, circleID string, deltas map[string]int, rates map[string]float64) (*entity.Circle, error) {
	patch := NewPatch()
	for field, delta := range deltas {
		patch.Increment("stats."+field, float64(delta))
	}
	for field, value := range rates {
		patch.Set("stats."+field, value)
	}
	return d.Update(ctx, circleID, patch)
}

// Delete removes circle metadata along with every membership pair rooted
// at it.
func (d *CircleDAO) Delete(ctx context.Context, circleID string) error {
	page, err := d.GetMembers(ctx, circleID, nil)
	if err != nil {
		return err
	}
	for _, member := range page.Items {
		if err := d.RemoveMember(ctx, circleID, member.UserID); err != nil {
			return err
		}
	}

	pk, sk := entity.CircleMetadataKey(circleID)
	return d.base.Delete(ctx, pk, sk)
}
