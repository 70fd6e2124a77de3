package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a known chat identity. Users are upserted on every interaction;
// last-seen attributes always overwrite.
type User struct {
	ID        int64
	Username  string // optional handle, may be empty
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// Product is a catalog entry. The ID is assigned on creation and immutable.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Brand       string
	ImageRef    string // opaque image handle, empty when unset
	Active      bool
	CreatedAt   time.Time
}

// CartLine is one cart entry joined with live catalog data. Price reflects
// the current catalog price; it is only frozen at checkout.
type CartLine struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
	ImageRef  string
}

// Subtotal returns price x quantity at full precision.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
