package dao

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/single-table-toolkit/dynstore"
	"github.com/raywall/single-table-toolkit/entity"
)

func storedCircle(t *testing.T, circleID string) dynstore.Item {
	t.Helper()
	circle := &entity.Circle{
		CircleID:     circleID,
		Name:         "Newly Diagnosed Support",
		PrivacyLevel: "private",
		CreatedBy:    "u1",
		Status:       "active",
	}
	circle.PK, circle.SK = entity.CircleMetadataKey(circleID)
	circle.EntityType = entity.TypeCircle
	circle.Version = 1
	circle.CreatedAt = "2024-01-15T10:30:00.000Z"
	circle.UpdatedAt = "2024-01-15T10:30:00.000Z"

	raw, err := attributevalue.MarshalMap(circle)
	require.NoError(t, err)
	return raw
}

func TestAddMemberWritesMirroredPairAtomically(t *testing.T) {
	t.Parallel()

	var transacted []dynstore.TransactItem
	store := &dynstore.Mock{
		TransactFn: func(_ context.Context, items []dynstore.TransactItem) error {
			transacted = items
			return nil
		},
		GetItemFn: func(_ context.Context, key dynstore.Key, _ *dynstore.GetOptions) (dynstore.Item, error) {
			return storedCircle(t, "c1"), nil
		},
		UpdateItemFn: func(_ context.Context, _ dynstore.Key, _ dynstore.UpdateOptions) (dynstore.Item, error) {
			return storedCircle(t, "c1"), nil
		},
	}
	dao := NewCircleDAO(store, testEngine(), zerolog.Nop())

	member, err := dao.AddMember(context.Background(), "c1", "u2", "member")
	require.NoError(t, err)

	assert.Equal(t, "CIRCLE#c1", member.PK)
	assert.Equal(t, "MEMBER#u2", member.SK)
	assert.Equal(t, "active", member.Status)

	require.Len(t, transacted, 2)
	for _, item := range transacted {
		assert.Equal(t, dynstore.TransactPut, item.Op)
		assert.NotNil(t, item.Condition)
	}

	memberPK := transacted[0].Item["PK"]
	mirrorPK := transacted[1].Item["PK"]
	assert.NotEqual(t, memberPK, mirrorPK)
}

func TestAddMemberDoubleJoinIsDuplicate(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{
		TransactFn: func(context.Context, []dynstore.TransactItem) error {
			return fmt.Errorf("store: %w", dynstore.ErrConditionFailed)
		},
	}
	dao := NewCircleDAO(store, testEngine(), zerolog.Nop())

	_, err := dao.AddMember(context.Background(), "c1", "u2", "member")
	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "CIRCLE#c1", dup.PK)
	assert.Equal(t, "MEMBER#u2", dup.SK)
}

func TestRemoveMemberMissingPairIsNotFound(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{
		TransactFn: func(context.Context, []dynstore.TransactItem) error {
			return fmt.Errorf("store: %w", dynstore.ErrConditionFailed)
		},
	}
	dao := NewCircleDAO(store, testEngine(), zerolog.Nop())

	err := dao.RemoveMember(context.Background(), "c1", "u2")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestGetMembersQueriesCirclePartition(t *testing.T) {
	t.Parallel()

	member := &entity.CircleMember{
		CircleID: "c1",
		UserID:   "u2",
		Role:     "moderator",
		JoinedAt: "2024-01-15T10:30:00.000Z",
		Status:   "active",
	}
	member.PK, member.SK = entity.CircleMemberKey("c1", "u2")
	member.EntityType = entity.TypeCircleMember
	member.Version = 1
	member.CreatedAt = "2024-01-15T10:30:00.000Z"
	member.UpdatedAt = "2024-01-15T10:30:00.000Z"
	raw, err := attributevalue.MarshalMap(member)
	require.NoError(t, err)

	store := &dynstore.Mock{
		QueryFn: func(_ context.Context, in dynstore.QueryInput) (*dynstore.QueryResult, error) {
			assert.Empty(t, in.IndexName)
			return &dynstore.QueryResult{Items: []dynstore.Item{raw}, Count: 1}, nil
		},
	}
	dao := NewCircleDAO(store, testEngine(), zerolog.Nop())

	page, err := dao.GetMembers(context.Background(), "c1", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "moderator", page.Items[0].Role)
	assert.Equal(t, "u2", page.Items[0].UserID)
}

func TestSearchCirclesNarrowsByNameAndTags(t *testing.T) {
	t.Parallel()

	circles := []*entity.Circle{
		{CircleID: "c1", Name: "Newly Diagnosed Support", Tags: []string{"support"}},
		{CircleID: "c2", Name: "Recipe Swap", Tags: []string{"nutrition"}},
	}
	items := make([]dynstore.Item, 0, len(circles))
	for _, c := range circles {
		c.PrivacyLevel = "public"
		c.CreatedBy = "u1"
		c.Status = "active"
		c.PK, c.SK = entity.CircleMetadataKey(c.CircleID)
		c.EntityType = entity.TypeCircle
		c.Version = 1
		c.CreatedAt = "2024-01-15T10:30:00.000Z"
		c.UpdatedAt = "2024-01-15T10:30:00.000Z"
		raw, err := attributevalue.MarshalMap(c)
		require.NoError(t, err)
		items = append(items, raw)
	}

	store := &dynstore.Mock{
		QueryFn: func(_ context.Context, in dynstore.QueryInput) (*dynstore.QueryResult, error) {
			assert.Equal(t, "GSI1", in.IndexName)
			return &dynstore.QueryResult{Items: items, Count: len(items)}, nil
		},
	}
	dao := NewCircleDAO(store, testEngine(), zerolog.Nop())

	matched, err := dao.SearchCircles(context.Background(), "support_group", "diagnosed", nil, nil)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "c1", matched[0].CircleID)

	matched, err = dao.SearchCircles(context.Background(), "support_group", "", []string{"nutrition"}, nil)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "c2", matched[0].CircleID)
}
