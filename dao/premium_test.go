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

func TestPremiumCreateStampsProviderProjection(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{
		PutItemFn: func(context.Context, dynstore.Item, *dynstore.PutOptions) error {
			return nil
		},
	}
	dao := NewPremiumSourceDAO(store, testEngine(), zerolog.Nop())

	source := &entity.PremiumSource{
		Name:     "Getty Cultural",
		Type:     "stock_photos",
		Provider: "getty",
	}
	source.LicenseInfo.Type = "royalty_free"

	created, err := dao.Create(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, "SOURCE_TIER#stock_photos", created.GSI3PK)
	assert.Equal(t, "PROVIDER#getty", created.GSI2PK)
	assert.Equal(t, "SOURCE#"+created.SourceID, created.GSI2SK)
}

func TestPremiumListByProviderUsesProviderIndex(t *testing.T) {
	t.Parallel()

	store := &dynstore.Mock{
		QueryFn: func(_ context.Context, in dynstore.QueryInput) (*dynstore.QueryResult, error) {
			assert.Equal(t, "GSI2", in.IndexName)
			return &dynstore.QueryResult{}, nil
		},
	}
	dao := NewPremiumSourceDAO(store, testEngine(), zerolog.Nop())

	page, err := dao.ListByProvider(context.Background(), "getty", nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
