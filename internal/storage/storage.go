package storage

import (
	"context"

	"github.com/dshills/storebot/pkg/types"
)

// Store defines the interface for the catalog/order store. Each call is
// atomic with respect to its own rows; no cross-entity transactions are
// assumed by callers.
type Store interface {
	// User operations
	UpsertUser(ctx context.Context, user *types.User) error
	ListUsers(ctx context.Context) ([]*types.User, error)

	// Product operations
	CreateProduct(ctx context.Context, product *types.Product) error
	GetProduct(ctx context.Context, id int64) (*types.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]*types.Product, error)
	ListAllProducts(ctx context.Context) ([]*types.Product, error)
	UpdateProduct(ctx context.Context, product *types.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ToggleProductActive(ctx context.Context, id int64) (bool, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListBrands(ctx context.Context) ([]string, error)

	// Cart operations
	AddToCart(ctx context.Context, userID, productID int64) error
	CartQuantity(ctx context.Context, userID, productID int64) (int, error)
	SetCartQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveFromCart(ctx context.Context, userID, productID int64) error
	GetCart(ctx context.Context, userID int64) ([]types.CartLine, error)
	ClearCart(ctx context.Context, userID int64) error

	// Order operations
	CreateOrder(ctx context.Context, order *types.Order) error
	GetOrder(ctx context.Context, id string) (*types.Order, error)
	ListOrdersForUser(ctx context.Context, userID int64) ([]*types.Order, error)
	ListAllOrders(ctx context.Context) ([]*types.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status types.OrderStatus) error

	Close() error
}
