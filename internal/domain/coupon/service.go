// internal/domain/coupon/service.go
package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// ErrNotOwner is returned when a merchant edits a coupon that isn't theirs
var ErrNotOwner = errors.New("coupon does not belong to this merchant")

// Service handles coupon lifecycle and cart application
type Service struct {
	db        *gorm.DB
	cartStore *cart.Store
	products  *product.Service
	config    *config.Config
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, cartStore *cart.Store, products *product.Service, cfg *config.Config) *Service {
	return &Service{
		db:        db,
		cartStore: cartStore,
		products:  products,
		config:    cfg,
	}
}

// CreateRequest represents coupon creation data
type CreateRequest struct {
	Code      string    `json:"code" binding:"required,max=8"`
	ValidFrom time.Time `json:"valid_from" binding:"required"`
	ValidTo   time.Time `json:"valid_to" binding:"required"`
	Discount  int       `json:"discount" binding:"required,min=0,max=100"`
	Active    *bool     `json:"active"`
}

// UpdateRequest represents mutable coupon fields; the code is immutable
type UpdateRequest struct {
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
	Discount  *int       `json:"discount" binding:"omitempty,min=0,max=100"`
	Active    *bool      `json:"active"`
}

// Create issues a coupon for a product owned by the merchant
func (s *Service) Create(merchantID uint, productSlug string, req *CreateRequest) (*Coupon, error) {
	prod, err := s.products.GetBySlug(productSlug)
	if err != nil {
		return nil, err
	}
	if prod.MerchantID != merchantID {
		return nil, ErrNotOwner
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	coupon := &Coupon{
		MerchantID: merchantID,
		ProductID:  &prod.ID,
		Code:       req.Code,
		ValidFrom:  req.ValidFrom,
		ValidTo:    req.ValidTo,
		Discount:   req.Discount,
		Active:     active,
	}
	if err := s.db.Create(coupon).Error; err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

// List returns all coupons issued by a merchant
func (s *Service) List(merchantID uint) ([]Coupon, error) {
	var coupons []Coupon
	if err := s.db.Where("merchant_id = ?", merchantID).Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve coupons: %w", err)
	}
	return coupons, nil
}

// GetByCode retrieves a coupon by its code
func (s *Service) GetByCode(code string) (*Coupon, error) {
	var coupon Coupon
	err := s.db.Preload("Product").Where("code = ?", code).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}
	return &coupon, nil
}

// Update changes the validity window, discount, or active flag
func (s *Service) Update(merchantID uint, code string, req *UpdateRequest) (*Coupon, error) {
	coupon, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon.MerchantID != merchantID {
		return nil, ErrNotOwner
	}

	updates := map[string]interface{}{}
	if req.ValidFrom != nil {
		updates["valid_from"] = *req.ValidFrom
	}
	if req.ValidTo != nil {
		updates["valid_to"] = *req.ValidTo
	}
	if req.Discount != nil {
		updates["discount"] = *req.Discount
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) > 0 {
		if err := s.db.Model(coupon).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update coupon: %w", err)
		}
	}
	return coupon, nil
}

// Delete removes a coupon owned by the merchant
func (s *Service) Delete(merchantID uint, code string) error {
	coupon, err := s.GetByCode(code)
	if err != nil {
		return err
	}
	if coupon.MerchantID != merchantID {
		return ErrNotOwner
	}
	if err := s.db.Delete(coupon).Error; err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return nil
}

// ApplyToCart validates a coupon code and applies it to the user's cart
func (s *Service) ApplyToCart(ctx context.Context, userID uint, code string) (*cart.Cart, error) {
	coupon, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.cartStore.Mutate(ctx, userID, func(c *cart.Cart) error {
		if c.IsEmpty() {
			return cart.ErrEmptyCart
		}
		return Apply(c, coupon, now)
	})
}

// RemoveFromCart detaches the active coupon from the user's cart
func (s *Service) RemoveFromCart(ctx context.Context, userID uint) (*cart.Cart, error) {
	return s.cartStore.Mutate(ctx, userID, func(c *cart.Cart) error {
		return Remove(c)
	})
}
