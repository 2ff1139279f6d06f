// internal/domain/order/entity.go
package order

import (
	"errors"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

// Status represents an order's position in its lifecycle
type Status string

const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// ErrInvalidTransition is returned for backward or skip-state moves
var ErrInvalidTransition = errors.New("invalid order status transition")

// validTransitions is the explicit transition table. Delivered and
// Cancelled are terminal.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered, StatusCancelled},
}

// CanTransition reports whether moving from one status to another is legal
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known status value
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

const orderIDCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// orderIDLength matches the 8-character public order token
const orderIDLength = 8

// GenerateOrderID returns a random 8-char alphanumeric order token.
// Callers must retry on uniqueness-constraint collisions.
func GenerateOrderID() string {
	b := make([]byte, orderIDLength)
	for i := range b {
		b[i] = orderIDCharset[rand.Intn(len(orderIDCharset))]
	}
	return string(b)
}

// Order represents a confirmed purchase
type Order struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OrderID    string         `gorm:"uniqueIndex;not null;size:8" json:"order_id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	FirstName  string         `gorm:"not null;size:30" json:"first_name"`
	LastName   string         `gorm:"not null;size:30" json:"last_name"`
	Email      string         `gorm:"not null;size:255" json:"email"`
	City       string         `gorm:"not null;size:30" json:"city"`
	Address    string         `gorm:"not null;size:200" json:"address"`
	PostalCode string         `gorm:"not null;size:20" json:"postal_code"`
	Paid       bool           `gorm:"default:false" json:"paid"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem   `gorm:"foreignKey:OrderRef;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []StatusEntry `gorm:"foreignKey:OrderRef;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
	Payment       *Payment      `gorm:"foreignKey:OrderRef;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"payment,omitempty"`
}

// OrderItem snapshots a product's price and quantity at order time,
// decoupled from later catalog price changes.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderRef  uint            `gorm:"not null;index" json:"order_ref"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`

	// Relationships
	Product *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// StatusEntry is one immutable row of status history; the current status
// is the most recent entry by timestamp.
type StatusEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderRef  uint      `gorm:"not null;index" json:"order_ref"`
	Status    Status    `gorm:"not null;size:30;default:'Pending'" json:"status"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

// Payment is the proof-of-payment record; its presence implies paid=true
type Payment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderRef    uint      `gorm:"uniqueIndex;not null" json:"order_ref"`
	Reference   string    `gorm:"not null;size:64" json:"reference"`
	ImageURL    string    `gorm:"size:500" json:"image_url"`
	PhoneNumber string    `gorm:"size:30" json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string       { return "orders" }
func (OrderItem) TableName() string   { return "order_items" }
func (StatusEntry) TableName() string { return "order_status" }
func (Payment) TableName() string     { return "order_payments" }

// CurrentStatus returns the most recent status from preloaded history,
// defaulting to Pending when none is loaded.
func (o *Order) CurrentStatus() Status {
	if len(o.StatusHistory) == 0 {
		return StatusPending
	}
	latest := o.StatusHistory[0]
	for _, entry := range o.StatusHistory[1:] {
		if entry.Timestamp.After(latest.Timestamp) {
			latest = entry
		}
	}
	return latest.Status
}

// TotalAmount sums the item price snapshots
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}
