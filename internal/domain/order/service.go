// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

// Domain errors
var (
	ErrCartEmpty     = errors.New("cannot confirm an order from an empty cart")
	ErrOrderNotFound = errors.New("order not found")
	ErrAlreadyPaid   = errors.New("order is already paid")
)

// CartStore is the cart collaborator the order service depends on
type CartStore interface {
	Get(ctx context.Context, userID uint) (*cart.Cart, error)
	Clear(ctx context.Context, userID uint, paid bool) error
}

// ActionRecorder receives purchase events after a successful payment
type ActionRecorder interface {
	RecordPurchase(userID, productID uint, orderID string)
}

// Notifier delivers the order confirmation email
type Notifier interface {
	OrderConfirmed(o *Order) error
}

// Invoicer renders the PDF invoice for a delivered order
type Invoicer interface {
	WriteInvoice(o *Order) (string, error)
}

// Service handles order lifecycle operations
type Service struct {
	db       *gorm.DB
	carts    CartStore
	actions  ActionRecorder
	notifier Notifier
	invoicer Invoicer
	config   *config.Config
	logger   *logrus.Logger
}

// NewService creates a new order service. The actions, notifier, and
// invoicer hooks may be nil; the corresponding post-commit steps are
// then skipped.
func NewService(db *gorm.DB, carts CartStore, actions ActionRecorder, notifier Notifier, invoicer Invoicer, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:       db,
		carts:    carts,
		actions:  actions,
		notifier: notifier,
		invoicer: invoicer,
		config:   cfg,
		logger:   logger,
	}
}

// ConfirmRequest carries the shipping details for checkout
type ConfirmRequest struct {
	FirstName  string `json:"first_name" binding:"required,max=30"`
	LastName   string `json:"last_name" binding:"required,max=30"`
	Email      string `json:"email" binding:"required,email"`
	City       string `json:"city" binding:"required,max=30"`
	Address    string `json:"address" binding:"required,max=200"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
}

// PaymentRequest carries the proof-of-payment details
type PaymentRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,max=30"`
	ImageURL    string `json:"image_url" binding:"omitempty,max=500"`
}

// Confirm converts the user's cart into an order. Item snapshots, the
// initial Pending status, and the cart clear happen in one transaction:
// a failure at any point leaves both cart and database untouched. Stock
// reserved by the cart transfers to the order, so nothing is released.
func (s *Service) Confirm(ctx context.Context, userID uint, req *ConfirmRequest) (*Order, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrCartEmpty
	}

	var order *Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderID, err := s.uniqueOrderID(tx)
		if err != nil {
			return err
		}

		order = &Order{
			OrderID:    orderID,
			UserID:     userID,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Email:      req.Email,
			City:       req.City,
			Address:    req.Address,
			PostalCode: req.PostalCode,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		items := make([]OrderItem, 0, len(c.Items))
		for productID, line := range c.Items {
			items = append(items, OrderItem{
				OrderRef:  order.ID,
				ProductID: productID,
				Price:     line.UnitPrice,
				Quantity:  line.Quantity,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		order.Items = items

		status := StatusEntry{OrderRef: order.ID, Status: StatusPending}
		if err := tx.Create(&status).Error; err != nil {
			return fmt.Errorf("failed to create order status: %w", err)
		}
		order.StatusHistory = []StatusEntry{status}

		// Clearing with paid=true hands the stock reservation to the
		// order. A failed clear rolls the order back.
		if err := s.carts.Clear(ctx, userID, true); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		go func(o Order) {
			if err := s.notifier.OrderConfirmed(&o); err != nil {
				s.logger.WithField("order_id", o.OrderID).WithError(err).Warn("failed to send order confirmation")
			}
		}(*order)
	}

	return order, nil
}

// RecordPayment marks an order as paid and stores the proof-of-payment
// record. A second payment for the same order is rejected without side
// effects.
func (s *Service) RecordPayment(ctx context.Context, userID uint, orderID string, req *PaymentRequest) (*Order, error) {
	order, err := s.Get(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Paid || order.Payment != nil {
		return nil, ErrAlreadyPaid
	}

	payment := &Payment{
		OrderRef:    order.ID,
		Reference:   uuid.New().String(),
		ImageURL:    req.ImageURL,
		PhoneNumber: req.PhoneNumber,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Order{}).Where("id = ? AND paid = ?", order.ID, false).Update("paid", true)
		if res.Error != nil {
			return fmt.Errorf("failed to mark order paid: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyPaid
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Paid = true
	order.Payment = payment

	if s.actions != nil {
		for _, item := range order.Items {
			s.actions.RecordPurchase(userID, item.ProductID, order.OrderID)
		}
	}

	return order, nil
}

// AdvanceStatus appends a new status entry after validating the move
// against the transition table. Cancelling returns the order's stock to
// inventory in the same transaction; delivery triggers invoice
// generation after commit.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string, next Status) (*Order, error) {
	if !IsValidStatus(next) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	var order Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Preload("StatusHistory").
			Where("order_id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to retrieve order: %w", err)
		}

		current := order.CurrentStatus()
		if !CanTransition(current, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
		}

		entry := StatusEntry{OrderRef: order.ID, Status: next}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record status: %w", err)
		}
		order.StatusHistory = append(order.StatusHistory, entry)

		if next == StatusCancelled {
			if err := s.restoreInventory(tx, &order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if next == StatusDelivered && s.invoicer != nil {
		go func(o Order) {
			path, err := s.invoicer.WriteInvoice(&o)
			if err != nil {
				s.logger.WithField("order_id", o.OrderID).WithError(err).Warn("failed to generate invoice")
				return
			}
			s.logger.WithFields(logrus.Fields{
				"order_id": o.OrderID,
				"path":     path,
			}).Info("Invoice generated")
		}(order)
	}

	return &order, nil
}

// Get retrieves an order by its public token, scoped to the owning user
func (s *Service) Get(ctx context.Context, orderID string, userID uint) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("StatusHistory").
		Preload("Payment").
		Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// uniqueOrderID generates an order token, regenerating on the rare
// collision with an existing order.
func (s *Service) uniqueOrderID(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		id := GenerateOrderID()
		var count int64
		if err := tx.Model(&Order{}).Where("order_id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check order id: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", errors.New("failed to generate a unique order id")
}

// restoreInventory returns every item quantity of a cancelled order to
// the catalog and records the movements.
func (s *Service) restoreInventory(tx *gorm.DB, order *Order) error {
	for _, item := range order.Items {
		res := tx.Model(&product.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("available_amount", gorm.Expr("available_amount + ?", item.Quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to restore stock for product %d: %w", item.ProductID, res.Error)
		}
		movement := inventory.StockMovement{
			ProductID:     item.ProductID,
			MovementType:  inventory.MovementTypeRelease,
			Quantity:      item.Quantity,
			ReferenceType: "order",
			ReferenceID:   order.OrderID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}
	return nil
}

// ensure the concrete cart store satisfies the collaborator contract
var _ CartStore = (*cart.Store)(nil)
