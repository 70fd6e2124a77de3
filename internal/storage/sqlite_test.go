package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/storebot/pkg/types"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	// Use in-memory database for testing
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testProduct(name, price, category string) *types.Product {
	return &types.Product{
		Name:        name,
		Description: "test description",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Brand:       "Brand A",
		Active:      true,
	}
}

func TestUpsertUser_Overwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.UpsertUser(ctx, &types.User{ID: 1, Username: "old", FirstName: "Old"})
	require.NoError(t, err)
	err = store.UpsertUser(ctx, &types.User{ID: 1, Username: "new", FirstName: "New"})
	require.NoError(t, err)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "new", users[0].Username)
	assert.Equal(t, "New", users[0].FirstName)
}

func TestCreateProduct_AssignsID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testProduct("Widget", "29.99", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))
	assert.Greater(t, p.ID, int64(0))

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("29.99")))
	assert.True(t, got.Active)
}

func TestGetProduct_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProductsByCategory_ActiveOnly(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	active := testProduct("Active", "10", "Books")
	require.NoError(t, store.CreateProduct(ctx, active))
	inactive := testProduct("Inactive", "10", "Books")
	inactive.Active = false
	require.NoError(t, store.CreateProduct(ctx, inactive))
	other := testProduct("Other", "10", "Home")
	require.NoError(t, store.CreateProduct(ctx, other))

	products, err := store.ListProductsByCategory(ctx, "Books")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Active", products[0].Name)
}

func TestUpdateProduct(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testProduct("Widget", "29.99", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))

	p.Price = decimal.RequireFromString("19.99")
	p.Name = "Widget v2"
	require.NoError(t, store.UpdateProduct(ctx, p))

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestUpdateProduct_NotFound(t *testing.T) {
	store := setupTestStore(t)

	p := testProduct("Ghost", "1", "Books")
	p.ID = 12345
	assert.ErrorIs(t, store.UpdateProduct(context.Background(), p), ErrNotFound)
}

func TestToggleProductActive_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testProduct("Widget", "5", "Home")
	require.NoError(t, store.CreateProduct(ctx, p))

	active, err := store.ToggleProductActive(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, active)

	// Toggling twice returns to the original state
	active, err = store.ToggleProductActive(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = store.ToggleProductActive(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCategoriesAndBrands(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)

	a := testProduct("A", "1", "Books")
	a.Brand = "Zeta"
	require.NoError(t, store.CreateProduct(ctx, a))
	b := testProduct("B", "1", "Home")
	require.NoError(t, store.CreateProduct(ctx, b))
	c := testProduct("C", "1", "Books")
	require.NoError(t, store.CreateProduct(ctx, c))

	categories, err = store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Home"}, categories)

	brands, err := store.ListBrands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Brand A", "Zeta"}, brands)
}

func TestCart_AddAndQuantity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))

	require.NoError(t, store.AddToCart(ctx, 1, p.ID))
	require.NoError(t, store.AddToCart(ctx, 1, p.ID))

	qty, err := store.CartQuantity(ctx, 1, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	// Absent entry reads as zero
	qty, err = store.CartQuantity(ctx, 2, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))
	require.NoError(t, store.AddToCart(ctx, 1, p.ID))

	require.NoError(t, store.SetCartQuantity(ctx, 1, p.ID, 0))

	lines, err := store.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCart_GetJoinsLivePrice(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))
	require.NoError(t, store.AddToCart(ctx, 1, p.ID))

	p.Price = decimal.RequireFromString("12.50")
	require.NoError(t, store.UpdateProduct(ctx, p))

	lines, err := store.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Price.Equal(decimal.RequireFromString("12.50")))
}

func TestCart_ClearOnlyAffectsUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))
	require.NoError(t, store.AddToCart(ctx, 1, p.ID))
	require.NoError(t, store.AddToCart(ctx, 2, p.ID))

	require.NoError(t, store.ClearCart(ctx, 1))

	lines, err := store.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = store.GetCart(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func createTestOrder(t *testing.T, store *SQLiteStore, userID int64, productID int64) *types.Order {
	t.Helper()
	order := &types.Order{
		UserID:        userID,
		CustomerName:  "Jane",
		CustomerPhone: "555-1234",
		CustomerAddr:  "1 Main St",
		Items: []types.OrderItem{
			{ProductID: productID, Name: "Widget", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		},
		Total:   decimal.RequireFromString("20.00"),
		Payment: types.PaymentBTC,
		Status:  types.StatusPending,
	}
	require.NoError(t, store.CreateOrder(context.Background(), order))
	return order
}

func TestCreateOrder_SequentialIDs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, &types.User{ID: 1}))
	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))

	first := createTestOrder(t, store, 1, p.ID)
	second := createTestOrder(t, store, 1, p.ID)

	assert.Equal(t, "ORD-001", first.ID)
	assert.Equal(t, "ORD-002", second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestGetOrder_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, &types.User{ID: 1}))
	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))
	created := createTestOrder(t, store, 1, p.ID)

	got, err := store.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Jane", got.CustomerName)
	assert.Equal(t, types.StatusPending, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("20.00")))
}

func TestGetOrder_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetOrder(context.Background(), "ORD-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderSnapshot_ImmuneToCatalogEdits(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, &types.User{ID: 1}))
	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))
	created := createTestOrder(t, store, 1, p.ID)

	// Raising the catalog price must not change the frozen snapshot
	p.Price = decimal.RequireFromString("99.99")
	require.NoError(t, store.UpdateProduct(ctx, p))

	got, err := store.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, got.Total.Equal(decimal.RequireFromString("20.00")))
}

func TestDeleteProduct_RestrictedWhenOrdered(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, &types.User{ID: 1}))
	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))
	createTestOrder(t, store, 1, p.ID)

	err := store.DeleteProduct(ctx, p.ID)
	assert.Error(t, err)

	// Product remains unchanged
	_, err = store.GetProduct(ctx, p.ID)
	assert.NoError(t, err)
}

func TestDeleteProduct_Unreferenced(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))

	require.NoError(t, store.DeleteProduct(ctx, p.ID))
	_, err := store.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteProduct(ctx, 999), ErrNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, &types.User{ID: 1}))
	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))
	created := createTestOrder(t, store, 1, p.ID)

	require.NoError(t, store.UpdateOrderStatus(ctx, created.ID, types.StatusPaid))

	got, err := store.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPaid, got.Status)

	assert.ErrorIs(t, store.UpdateOrderStatus(ctx, "ORD-999", types.StatusPaid), ErrNotFound)
}

func TestListOrdersForUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, &types.User{ID: 1}))
	require.NoError(t, store.UpsertUser(ctx, &types.User{ID: 2}))
	p := testProduct("Widget", "10.00", "Electronics")
	require.NoError(t, store.CreateProduct(ctx, p))

	createTestOrder(t, store, 1, p.ID)
	createTestOrder(t, store, 1, p.ID)
	createTestOrder(t, store, 2, p.ID)

	mine, err := store.ListOrdersForUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := store.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
