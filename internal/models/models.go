package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Category    string          `db:"category" json:"category"`
	Image       string          `db:"image" json:"image,omitempty"`
	Description string          `db:"description" json:"description,omitempty"`
	Stock       int             `db:"stock" json:"stock"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// CartLine is a single product entry in a cart. A cart holds at most
// one line per product; adding the same product again accumulates
// quantity on the existing line.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ResolvedCartLine is a cart line joined with current product data for
// display. Checkout never trusts these prices; it re-resolves against
// the catalog.
type ResolvedCartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CustomerInfo is the checkout form. Card fields are accepted on the
// wire but discarded: they are never stored or charged.
type CustomerInfo struct {
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone,omitempty"`
	Address   string `db:"address" json:"address"`
	City      string `db:"city" json:"city,omitempty"`
	State     string `db:"state" json:"state,omitempty"`
	ZipCode   string `db:"zip_code" json:"zipCode,omitempty"`

	CardNumber string `db:"-" json:"cardNumber,omitempty"`
	ExpiryDate string `db:"-" json:"expiryDate,omitempty"`
	CVV        string `db:"-" json:"cvv,omitempty"`
}

// FullName returns "First Last" for reporting output.
func (ci CustomerInfo) FullName() string {
	return ci.FirstName + " " + ci.LastName
}

// Order represents a completed checkout. Everything except Status,
// PaymentStatus and UpdatedAt is frozen at checkout time.
type Order struct {
	ID            int64           `db:"id" json:"id"`
	OrderNumber   string          `db:"order_number" json:"order_number"`
	Items         []OrderItem     `db:"-" json:"items"`
	CustomerInfo  CustomerInfo    `json:"customer_info"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Status        string          `db:"status" json:"status"`
	PaymentStatus string          `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is one priced line of an order. UnitPrice is the catalog
// price at checkout time; later catalog changes never touch it.
type OrderItem struct {
	ID        int64           `db:"id" json:"-"`
	OrderID   int64           `db:"order_id" json:"-"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// ValidOrderStatus reports whether s is a known fulfillment status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// OrderFilter narrows admin order listings. Zero-valued fields match
// everything; set fields are combined with AND.
type OrderFilter struct {
	Status string
	From   time.Time
	To     time.Time
}

// Matches reports whether the order satisfies every set filter field.
func (f OrderFilter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && o.CreatedAt.After(f.To) {
		return false
	}
	return true
}

// DashboardStats is the admin reporting aggregation, recomputed on
// every request.
type DashboardStats struct {
	TotalOrders       int             `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	OrdersByStatus    map[string]int  `json:"ordersByStatus"`
	RecentOrders      []Order         `json:"recentOrders"`
}
