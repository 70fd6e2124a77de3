// Package catalog implements admin-side product management: creation,
// single-field edits, deletion, active toggling, and the open-ended
// category/brand sets.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dshills/storebot/internal/storage"
	"github.com/dshills/storebot/pkg/types"
)

var (
	// ErrNegativePrice is returned for prices below zero
	ErrNegativePrice = errors.New("price must not be negative")
	// ErrUnknownField is returned for an unrecognized edit field
	ErrUnknownField = errors.New("unknown product field")
)

// Field names accepted by UpdateField.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldCategory    = "category"
	FieldBrand       = "brand"
	FieldImage       = "image"
)

// Fields lists the editable product fields in display order.
var Fields = []string{FieldName, FieldDescription, FieldPrice, FieldCategory, FieldBrand, FieldImage}

// Service manages the product catalog.
type Service struct {
	store          storage.Store
	seedCategories []string
	seedBrands     []string
}

// New creates a catalog service. The seed lists are returned by Categories
// and Brands only while the store has no values of its own.
func New(store storage.Store, seedCategories, seedBrands []string) *Service {
	return &Service{store: store, seedCategories: seedCategories, seedBrands: seedBrands}
}

// ParsePrice parses a non-negative decimal price from admin input.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if price.IsNegative() {
		return decimal.Zero, ErrNegativePrice
	}
	return price, nil
}

// Create validates and persists a new product, returning it with its
// assigned id. New products are active.
func (s *Service) Create(ctx context.Context, name, description string, price decimal.Decimal, category, brand, imageRef string) (*types.Product, error) {
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}
	product := &types.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		Brand:       brand,
		ImageRef:    imageRef,
		Active:      true,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id int64) (*types.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// ListAll returns every product, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*types.Product, error) {
	return s.store.ListAllProducts(ctx)
}

// ListByCategory returns active products in a category.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*types.Product, error) {
	return s.store.ListProductsByCategory(ctx, category)
}

// UpdateField sets a single product field. Price values are validated as
// non-negative decimals; the image field stores an opaque reference.
func (s *Service) UpdateField(ctx context.Context, id int64, field, value string) (*types.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	switch field {
	case FieldName:
		product.Name = value
	case FieldDescription:
		product.Description = value
	case FieldPrice:
		price, err := ParsePrice(value)
		if err != nil {
			return nil, err
		}
		product.Price = price
	case FieldCategory:
		product.Category = value
	case FieldBrand:
		product.Brand = value
	case FieldImage:
		product.ImageRef = value
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return product, nil
}

// Delete hard-deletes a product. The store rejects the delete while any
// order item references the product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}

// ToggleActive flips the active flag and returns the new state.
func (s *Service) ToggleActive(ctx context.Context, id int64) (bool, error) {
	return s.store.ToggleProductActive(ctx, id)
}

// Categories returns the known category set, falling back to the seed list
// while the store is empty.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return s.seedCategories, nil
	}
	return categories, nil
}

// Brands returns the known brand set, falling back to the seed list while
// the store is empty.
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.store.ListBrands(ctx)
	if err != nil {
		return nil, err
	}
	if len(brands) == 0 {
		return s.seedBrands, nil
	}
	return brands, nil
}
