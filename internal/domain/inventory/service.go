// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Domain errors
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
)

// Service owns per-product available stock. Reserve and Release are the
// only mutation paths; both run as single conditional updates so that
// concurrent carts competing for the same product never lose an update.
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// Reserve atomically decrements available stock for a product. The
// decrement only happens when available_amount >= qty; otherwise nothing
// changes and ErrInsufficientStock is returned.
func (s *Service) Reserve(ctx context.Context, productID uint, qty int, refType, refID string) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&product.Product{}).
			Where("id = ? AND available_amount >= ?", productID, qty).
			UpdateColumn("available_amount", gorm.Expr("available_amount - ?", qty))
		if result.Error != nil {
			return fmt.Errorf("failed to reserve stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Either the product is missing or stock ran out; distinguish for the caller.
			var count int64
			if err := tx.Model(&product.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check product: %w", err)
			}
			if count == 0 {
				return ErrProductNotFound
			}
			return ErrInsufficientStock
		}

		movement := StockMovement{
			ProductID:     productID,
			MovementType:  MovementTypeReserve,
			Quantity:      qty,
			ReferenceType: refType,
			ReferenceID:   refID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
		return nil
	})
}

// Release atomically returns previously reserved stock to a product. It
// must be called on every path that reserved and did not hand the
// reservation to an order.
func (s *Service) Release(ctx context.Context, productID uint, qty int, refType, refID string) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&product.Product{}).
			Where("id = ?", productID).
			UpdateColumn("available_amount", gorm.Expr("available_amount + ?", qty))
		if result.Error != nil {
			return fmt.Errorf("failed to release stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}

		movement := StockMovement{
			ProductID:     productID,
			MovementType:  MovementTypeRelease,
			Quantity:      qty,
			ReferenceType: refType,
			ReferenceID:   refID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
		return nil
	})
}

// StockLevel returns the current available amount for a product
func (s *Service) StockLevel(ctx context.Context, productID uint) (int, error) {
	var prod product.Product
	err := s.db.WithContext(ctx).Select("available_amount").Where("id = ?", productID).First(&prod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to get stock level: %w", err)
	}
	return prod.AvailableAmount, nil
}

// Movements returns the audit trail for a product, newest first
func (s *Service) Movements(ctx context.Context, productID uint, limit int) ([]StockMovement, error) {
	var movements []StockMovement
	if limit <= 0 {
		limit = 50
	}
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stock movements: %w", err)
	}
	return movements, nil
}
