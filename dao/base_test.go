package dao

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
	"github.com/raywall/single-table-toolkit/validate"
)

func testEngine() *validate.Engine {
	return validate.NewEngine(zerolog.Nop())
}

func testUser(id string) *entity.User {
	user := &entity.User{
		UserID: id,
		Email:  id + "@example.com",
	}
	user.Profile.FirstName = "Amara"
	user.Profile.LastName = "Okafor"
	user.Preferences.ProfileVisibility = "circles_only"
	user.PK, user.SK = entity.UserProfileKey(id)
	return user
}

func userBase(store dynstore.API) *Base[entity.User, *entity.User] {
	return NewBase[entity.User](store, testEngine(), entity.TypeUser, zerolog.Nop())
}

func marshalUser(t *testing.T, user *entity.User) dynstore.Item {
	t.Helper()
	raw, err := attributevalue.MarshalMap(user)
	require.NoError(t, err)
	return raw
}

func TestCreateStampsBookkeeping(t *testing.T) {
	t.Parallel()

	var written dynstore.Item
	var condition *dynstore.PutOptions
	store := &dynstore.Mock{
		PutItemFn: func(_ context.Context, item dynstore.Item, opts *dynstore.PutOptions) error {
			written = item
			condition = opts
			return nil
		},
	}

	created, err := userBase(store).Create(context.Background(), testUser("u1"))
	require.NoError(t, err)

	assert.Equal(t, 1, created.Version)
	assert.Equal(t, entity.TypeUser, created.EntityType)
	assert.NotEmpty(t, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	require.NotNil(t, written)
	require.NotNil(t, condition)
	assert.NotNil(t, condition.Condition)
}

func TestCreateDuplicateKey(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{
		PutItemFn: func(context.Context, dynstore.Item, *dynstore.PutOptions) error {
			return fmt.Errorf("store: %w", dynstore.ErrConditionFailed)
		},
	}

	_, err := userBase(store).Create(context.Background(), testUser("u1"))
	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "USER#u1", dup.PK)
}

func TestCreateInvalidItemNeverReachesStore(t *testing.T) {
	t.Parallel()

	puts := 0
	store := &dynstore.Mock{
		PutItemFn: func(context.Context, dynstore.Item, *dynstore.PutOptions) error {
			puts++
			return nil
		},
	}

	user := testUser("u1")
	user.Email = "not an email"

	_, err := userBase(store).Create(context.Background(), user)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, entity.TypeUser, verr.EntityType)
	assert.Zero(t, puts)
}

func TestGetMissingReturnsNil(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{}
	got, err := userBase(store).Get(context.Background(), "USER#absent", "PROFILE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateStaleVersionLeavesItemUntouched(t *testing.T) {
	t.Parallel()

	stored := testUser("u1")
	stored.Version = 3
	stored.EntityType = entity.TypeUser
	stored.CreatedAt = "2024-01-15T10:30:00.000Z"
	stored.UpdatedAt = "2024-01-15T10:30:00.000Z"

	store := &dynstore.Mock{
		GetItemFn: func(_ context.Context, _ dynstore.Key, _ *dynstore.GetOptions) (dynstore.Item, error) {
			return marshalUser(t, stored), nil
		},
		UpdateItemFn: func(context.Context, dynstore.Key, dynstore.UpdateOptions) (dynstore.Item, error) {
			return nil, fmt.Errorf("store: %w", dynstore.ErrConditionFailed)
		},
	}

	_, err := userBase(store).Update(context.Background(), "USER#u1", "PROFILE",
		NewPatch().Set("profile.bio", "hello"))

	var lockErr *OptimisticLockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, 3, lockErr.ExpectedVersion)
	assert.Equal(t, "USER#u1", lockErr.PK)
}

func TestUpdateValidatesMergedItemBeforeWriting(t *testing.T) {
	t.Parallel()

	stored := testUser("u1")
	stored.Version = 1
	stored.EntityType = entity.TypeUser
	stored.CreatedAt = "2024-01-15T10:30:00.000Z"
	stored.UpdatedAt = "2024-01-15T10:30:00.000Z"

	updates := 0
	store := &dynstore.Mock{
		GetItemFn: func(_ context.Context, _ dynstore.Key, _ *dynstore.GetOptions) (dynstore.Item, error) {
			return marshalUser(t, stored), nil
		},
		UpdateItemFn: func(_ context.Context, _ dynstore.Key, _ dynstore.UpdateOptions) (dynstore.Item, error) {
			updates++
			return marshalUser(t, stored), nil
		},
	}

	_, err := userBase(store).Update(context.Background(), "USER#u1", "PROFILE",
		NewPatch().Set("email", "not an email"))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, updates)
}

func TestUpdateMissingItemIsNotFound(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{}
	_, err := userBase(store).Update(context.Background(), "USER#absent", "PROFILE",
		NewPatch().Set("profile.bio", "hello"))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestConcurrentUpdatesOneWinner(t *testing.T) {
	t.Parallel()

	stored := testUser("u1")
	stored.Version = 3
	stored.EntityType = entity.TypeUser
	stored.CreatedAt = "2024-01-15T10:30:00.000Z"
	stored.UpdatedAt = "2024-01-15T10:30:00.000Z"

	var mu sync.Mutex
	committed := false

	store := &dynstore.Mock{
		GetItemFn: func(_ context.Context, _ dynstore.Key, _ *dynstore.GetOptions) (dynstore.Item, error) {
			// Both writers read version 3.
			return marshalUser(t, stored), nil
		},
		UpdateItemFn: func(_ context.Context, _ dynstore.Key, _ dynstore.UpdateOptions) (dynstore.Item, error) {
			mu.Lock()
			defer mu.Unlock()
			if committed {
				return nil, fmt.Errorf("store: %w", dynstore.ErrConditionFailed)
			}
			committed = true
			winner := *stored
			winner.Version = 4
			return marshalUser(t, &winner), nil
		},
	}
	base := userBase(store)

	results := make(chan error, 2)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		go func(bio string) {
			start.Wait()
			_, err := base.Update(context.Background(), "USER#u1", "PROFILE",
				NewPatch().Set("profile.bio", bio))
			results <- err
		}(fmt.Sprintf("writer %d", i))
	}
	start.Done()

	var successes, conflicts int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			successes++
			continue
		}
		var lockErr *OptimisticLockError
		require.ErrorAs(t, err, &lockErr)
		assert.Equal(t, 3, lockErr.ExpectedVersion)
		conflicts++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestDeleteMissingItemIsNotFound(t *testing.T) {
	t.Parallel()

	deletes := 0
	store := &dynstore.Mock{
		DeleteItemFn: func(context.Context, dynstore.Key, *dynstore.DeleteOptions) error {
			deletes++
			return nil
		},
	}

	err := userBase(store).Delete(context.Background(), "USER#absent", "PROFILE")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Zero(t, deletes)
}

func TestBatchWriteValidatesEverythingFirst(t *testing.T) {
	t.Parallel()

	writes := 0
	store := &dynstore.Mock{
		BatchWriteFn: func(context.Context, []dynstore.Item, []dynstore.Key) error {
			writes++
			return nil
		},
	}

	bad := testUser("u2")
	bad.Email = "not an email"

	err := userBase(store).BatchWrite(context.Background(), []*entity.User{testUser("u1"), bad})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, writes)
}

func TestTransactCapEnforcedBeforeStore(t *testing.T) {
	t.Parallel()

	calls := 0
	store := &dynstore.Mock{
		TransactFn: func(context.Context, []dynstore.TransactItem) error {
			calls++
			return nil
		},
	}

	items := make([]dynstore.TransactItem, dynstore.MaxTransactionItems+1)
	err := userBase(store).Transact(context.Background(), items)
	require.Error(t, err)
	assert.ErrorIs(t, err, dynstore.ErrTooManyTransactItems)
	assert.Zero(t, calls)
}

func TestPatchRejectsSystemFields(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"PK", "SK", "entityType", "version", "createdAt", "updatedAt"} {
		patch := NewPatch().Set(field, "x")
		assert.Error(t, patch.Err(), "expected %s to be rejected", field)
		assert.Zero(t, patch.Len())
	}

	// GSI projections are fair game; status changes rewrite them.
	patch := NewPatch().Set("GSI3PK", "INCIDENT_STATUS#resolved")
	assert.NoError(t, patch.Err())
	assert.Equal(t, 1, patch.Len())
}

func TestPatchApplyToDocPreviewsMerge(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"stats": map[string]any{"memberCount": float64(4)},
		"tags":  []any{"support"},
	}
	patch := NewPatch().
		Increment("stats.memberCount", 1).
		Append("tags", "newly_diagnosed").
		Set("profile.bio", "hi").
		Remove("tags")
	require.NoError(t, patch.Err())

	patch.applyToDoc(doc)
	assert.Equal(t, float64(5), doc["stats"].(map[string]any)["memberCount"])
	assert.Equal(t, "hi", doc["profile"].(map[string]any)["bio"])
	_, hasTags := doc["tags"]
	assert.False(t, hasTags)
}

func TestQueryGSIRejectsUnknownIndex(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{}
	_, err := userBase(store).QueryGSI(context.Background(), 5, "EMAIL#a@b.co", "", nil)
	assert.Error(t, err)
}
