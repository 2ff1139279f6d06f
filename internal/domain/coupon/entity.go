// internal/domain/coupon/entity.go
package coupon

import (
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

// Coupon is a merchant-issued percentage discount scoped to one product
// and a validity window. The code is its immutable identity.
type Coupon struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MerchantID uint           `gorm:"not null;index" json:"merchant_id"`
	ProductID  *uint          `gorm:"index" json:"product_id"`
	Code       string         `gorm:"uniqueIndex;not null;size:8" json:"code"`
	ValidFrom  time.Time      `gorm:"not null" json:"valid_from"`
	ValidTo    time.Time      `gorm:"not null" json:"valid_to"`
	Discount   int            `gorm:"not null" json:"discount"` // percent, 0-100
	Active     bool           `gorm:"default:true" json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product,omitempty"`
}

// TableName overrides the table name
func (Coupon) TableName() string {
	return "coupons"
}

// InWindow reports whether now falls inside the inclusive validity window
func (c *Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidTo)
}
