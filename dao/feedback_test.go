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

func TestDeriveSeverity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		feedbackType string
		rating       int
		want         string
	}{
		{"inappropriate", 5, "critical"},
		{"cultural_concern", 1, "high"},
		{"cultural_concern", 2, "high"},
		{"cultural_concern", 3, "medium"},
		{"love_it", 5, "low"},
		{"technical_issue", 1, "low"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, deriveSeverity(tc.feedbackType, tc.rating),
			"%s rating %d", tc.feedbackType, tc.rating)
	}
}

func TestFeedbackCreateDefaultsAndKeys(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{}
	dao := NewFeedbackDAO(store, testEngine(), zerolog.Nop())

	fb := &entity.Feedback{
		ImageID:      "img1",
		UserID:       "u1",
		Rating:       1,
		FeedbackType: "cultural_concern",
	}
	created, err := dao.Create(context.Background(), fb)
	require.NoError(t, err)

	assert.NotEmpty(t, created.FeedbackID)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "high", created.Severity)
	assert.Equal(t, "FEEDBACK#IMAGE#img1", created.PK)
	assert.Equal(t, "FEEDBACK#"+created.FeedbackID, created.SK)
	assert.Equal(t, "USER#u1#FEEDBACK", created.GSI1PK)
}

func TestFeedbackCreateKeepsExplicitSeverity(t *testing.T) {
	t.Parallel()

	dao := NewFeedbackDAO(&dynstore.Mock{}, testEngine(), zerolog.Nop())

	fb := &entity.Feedback{
		ImageID:      "img1",
		UserID:       "u1",
		Rating:       5,
		FeedbackType: "inappropriate",
		Severity:     "medium",
	}
	created, err := dao.Create(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, "medium", created.Severity)
}

func TestFeedbackListByUserDefaultsToNewestFirst(t *testing.T) {
	t.Parallel()

	var seen dynstore.QueryInput
	store := &dynstore.Mock{
		QueryFn: func(_ context.Context, in dynstore.QueryInput) (*dynstore.QueryResult, error) {
			seen = in
			return &dynstore.QueryResult{}, nil
		},
	}
	dao := NewFeedbackDAO(store, testEngine(), zerolog.Nop())

	_, err := dao.ListByUser(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, "GSI1", seen.IndexName)
	require.NotNil(t, seen.ScanForward)
	assert.False(t, *seen.ScanForward)
}

func TestFeedbackListUrgentAddsSeverityFilter(t *testing.T) {
	t.Parallel()

	var seen dynstore.QueryInput
	store := &dynstore.Mock{
		QueryFn: func(_ context.Context, in dynstore.QueryInput) (*dynstore.QueryResult, error) {
			seen = in
			return &dynstore.QueryResult{}, nil
		},
	}
	dao := NewFeedbackDAO(store, testEngine(), zerolog.Nop())

	_, err := dao.ListUrgent(context.Background(), "img1", nil)
	require.NoError(t, err)
	assert.NotNil(t, seen.Filter)
	assert.Empty(t, seen.IndexName)
}
