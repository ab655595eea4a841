package dao

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
)

func newUser(email string) *entity.User {
	user := &entity.User{Email: email}
	user.Profile.FirstName = "Amara"
	user.Profile.LastName = "Okafor"
	user.Preferences.ProfileVisibility = "circles_only"
	return user
}

func TestUserCreateAssignsIDAndProjections(t *testing.T) {
	t.Parallel()

	var written dynstore.Item
	store := &dynstore.Mock{
		QueryFn: func(_ context.Context, in dynstore.QueryInput) (*dynstore.QueryResult, error) {
			// Email pre-check finds nothing.
			assert.Equal(t, "GSI1", in.IndexName)
			return &dynstore.QueryResult{}, nil
		},
		PutItemFn: func(_ context.Context, item dynstore.Item, _ *dynstore.PutOptions) error {
			written = item
			return nil
		},
	}
	dao := NewUserDAO(store, testEngine(), zerolog.Nop())

	user := newUser("amara@example.com")
	user.TenantID = "t1"

	created, err := dao.Create(context.Background(), user)
	require.NoError(t, err)

	assert.NotEmpty(t, created.UserID)
	assert.Equal(t, "USER#"+created.UserID, created.PK)
	assert.Equal(t, "PROFILE", created.SK)
	assert.Equal(t, "EMAIL#amara@example.com", created.GSI1PK)
	assert.Equal(t, "TENANT#t1#USERS", created.GSI4PK)
	assert.NotNil(t, written)
}

func TestUserCreateRejectsKnownEmail(t *testing.T) {
	t.Parallel()

	existing := testUser("u1")
	puts := 0
	store := &dynstore.Mock{
		QueryFn: func(_ context.Context, _ dynstore.QueryInput) (*dynstore.QueryResult, error) {
			return &dynstore.QueryResult{
				Items: []dynstore.Item{marshalUser(t, existing)},
				Count: 1,
			}, nil
		},
		PutItemFn: func(context.Context, dynstore.Item, *dynstore.PutOptions) error {
			puts++
			return nil
		},
	}
	dao := NewUserDAO(store, testEngine(), zerolog.Nop())

	_, err := dao.Create(context.Background(), newUser("u1@example.com"))
	var dup *DuplicateEmailError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "u1@example.com", dup.Email)
	assert.Zero(t, puts)
}

func TestUserGetByEmailUnknownReturnsNil(t *testing.T) {
	t.Parallel()

	dao := NewUserDAO(&dynstore.Mock{}, testEngine(), zerolog.Nop())
	got, err := dao.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserIncrementStatRejectsUnknownCounter(t *testing.T) {
	t.Parallel()

	gets := 0
	store := &dynstore.Mock{
		GetItemFn: func(_ context.Context, _ dynstore.Key, _ *dynstore.GetOptions) (dynstore.Item, error) {
			gets++
			return nil, nil
		},
	}
	dao := NewUserDAO(store, testEngine(), zerolog.Nop())

	_, err := dao.IncrementStat(context.Background(), "u1", "karma", 1)
	require.Error(t, err)
	assert.Zero(t, gets)
}

func TestUserRecordActivityUpdatesProfileKey(t *testing.T) {
	t.Parallel()

	stored := testUser("u1")
	stored.Version = 1
	stored.EntityType = entity.TypeUser
	stored.CreatedAt = "2024-01-15T10:30:00.000Z"
	stored.UpdatedAt = "2024-01-15T10:30:00.000Z"

	updates := 0
	store := &dynstore.Mock{
		GetItemFn: func(_ context.Context, key dynstore.Key, _ *dynstore.GetOptions) (dynstore.Item, error) {
			assert.Equal(t, "USER#u1", key.PK)
			assert.Equal(t, "PROFILE", key.SK)
			return marshalUser(t, stored), nil
		},
		UpdateItemFn: func(_ context.Context, key dynstore.Key, _ dynstore.UpdateOptions) (dynstore.Item, error) {
			updates++
			assert.Equal(t, "USER#u1", key.PK)
			stamped := *stored
			stamped.Stats.LastActiveAt = entity.NowISO()
			return marshalUser(t, &stamped), nil
		},
	}
	dao := NewUserDAO(store, testEngine(), zerolog.Nop())

	updated, err := dao.RecordActivity(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, updates)
	assert.NotEmpty(t, updated.Stats.LastActiveAt)
}

func TestUserSearchRequiresTenant(t *testing.T) {
	t.Parallel()

	dao := NewUserDAO(&dynstore.Mock{}, testEngine(), zerolog.Nop())
	_, err := dao.Search(context.Background(), SearchQuery{DiagnosisStage: "adjusting"})
	assert.Error(t, err)
}

func TestUserSearchFiltersOnTenantIndex(t *testing.T) {
	t.Parallel()

	var seen dynstore.QueryInput
	store := &dynstore.Mock{
		QueryFn: func(_ context.Context, in dynstore.QueryInput) (*dynstore.QueryResult, error) {
			seen = in
			return &dynstore.QueryResult{}, nil
		},
	}
	dao := NewUserDAO(store, testEngine(), zerolog.Nop())

	_, err := dao.Search(context.Background(), SearchQuery{
		TenantID:           "t1",
		CulturalBackground: []string{"nigerian", "ghanaian"},
		DiagnosisStage:     "adjusting",
	})
	require.NoError(t, err)
	assert.Equal(t, "GSI4", seen.IndexName)
	assert.NotNil(t, seen.Filter)
}
