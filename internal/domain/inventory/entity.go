// internal/domain/inventory/entity.go
package inventory

import (
	"time"
)

// MovementType classifies stock movements
type MovementType string

const (
	MovementTypeReserve MovementType = "reserve"
	MovementTypeRelease MovementType = "release"
)

// StockMovement is an audit record for every stock mutation
type StockMovement struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ProductID     uint         `gorm:"not null;index" json:"product_id"`
	MovementType  MovementType `gorm:"not null;size:20" json:"movement_type"`
	Quantity      int          `gorm:"not null" json:"quantity"`
	ReferenceType string       `gorm:"size:50" json:"reference_type,omitempty"` // cart, order
	ReferenceID   string       `gorm:"size:64" json:"reference_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// TableName overrides the table name
func (StockMovement) TableName() string {
	return "stock_movements"
}
