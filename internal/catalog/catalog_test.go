package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/storebot/internal/config"
	"github.com/dshills/storebot/internal/storage"
)

func setup(t *testing.T) *Service {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, config.SeedCategories, config.SeedBrands)
}

func TestParsePrice(t *testing.T) {
	price, err := ParsePrice("29.99")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("29.99")))

	_, err = ParsePrice("abc")
	assert.Error(t, err)

	_, err = ParsePrice("-1")
	assert.ErrorIs(t, err, ErrNegativePrice)

	price, err = ParsePrice("0")
	require.NoError(t, err)
	assert.True(t, price.IsZero())
}

func TestCreate(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, "Widget", "A widget", decimal.RequireFromString("10"), "Electronics", "Brand A", "")
	require.NoError(t, err)
	assert.Greater(t, product.ID, int64(0))
	assert.True(t, product.Active)
}

func TestUpdateField_Price(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, "Widget", "", decimal.RequireFromString("10"), "Electronics", "Brand A", "")
	require.NoError(t, err)

	updated, err := svc.UpdateField(ctx, product.ID, FieldPrice, "19.95")
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("19.95")))
}

func TestUpdateField_BadPriceLeavesProductUnchanged(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, "Widget", "", decimal.RequireFromString("10"), "Electronics", "Brand A", "")
	require.NoError(t, err)

	_, err = svc.UpdateField(ctx, product.ID, FieldPrice, "abc")
	assert.Error(t, err)

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("10")))
}

func TestUpdateField_Unknown(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, "Widget", "", decimal.RequireFromString("10"), "Electronics", "Brand A", "")
	require.NoError(t, err)

	_, err = svc.UpdateField(ctx, product.ID, "sku", "X1")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestUpdateField_NotFound(t *testing.T) {
	svc := setup(t)

	_, err := svc.UpdateField(context.Background(), 999, FieldName, "Ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCategories_SeedFallback(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.SeedCategories, categories)

	_, err = svc.Create(ctx, "Widget", "", decimal.RequireFromString("10"), "Gadgets", "Brand A", "")
	require.NoError(t, err)

	categories, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gadgets"}, categories)
}

func TestBrands_SeedFallback(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	brands, err := svc.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.SeedBrands, brands)
}

func TestToggleActive(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, "Widget", "", decimal.RequireFromString("10"), "Electronics", "Brand A", "")
	require.NoError(t, err)

	active, err := svc.ToggleActive(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, active)

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}
