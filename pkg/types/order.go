package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is the declared payment method recorded on an order. The
// system does not settle payments; it only records the choice.
type PaymentMethod string

const (
	PaymentBTC    PaymentMethod = "btc"
	PaymentCustom PaymentMethod = "custom"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentBTC || m == PaymentCustom
}

// OrderItem is a frozen line-item snapshot. Name and UnitPrice are copied
// from the catalog at order creation and never change afterward.
type OrderItem struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal returns unit price x quantity at full precision.
func (it OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Order is an immutable purchase record. Only Status changes after
// creation, and only through the lifecycle manager's transition graph.
type Order struct {
	ID            string // ORD-NNN
	UserID        int64
	CustomerName  string
	CustomerPhone string
	CustomerAddr  string
	Items         []OrderItem
	Total         decimal.Decimal
	Payment       PaymentMethod
	Status        OrderStatus
	CreatedAt     time.Time
}
