package order

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

// fakeCartStore stands in for the Redis-backed cart during order tests
type fakeCartStore struct {
	cart      *cart.Cart
	cleared   []bool
	failClear bool
}

func (f *fakeCartStore) Get(ctx context.Context, userID uint) (*cart.Cart, error) {
	if f.cart == nil {
		return cart.New(), nil
	}
	return f.cart, nil
}

func (f *fakeCartStore) Clear(ctx context.Context, userID uint, paid bool) error {
	if f.failClear {
		return errors.New("redis unavailable")
	}
	f.cleared = append(f.cleared, paid)
	f.cart = cart.New()
	return nil
}

// fakeRecorder captures purchase events
type fakeRecorder struct {
	purchases []uint
}

func (f *fakeRecorder) RecordPurchase(userID, productID uint, orderID string) {
	f.purchases = append(f.purchases, productID)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&product.Product{},
		&inventory.StockMovement{},
		&Order{},
		&OrderItem{},
		&StatusEntry{},
		&Payment{},
	))
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func filledCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	c.AddItem(1, "Keyboard", decimal.RequireFromString("89.50"), 2)
	c.AddItem(2, "Book", decimal.RequireFromString("42.00"), 1)
	return c
}

func confirmReq() *ConfirmRequest {
	return &ConfirmRequest{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		City:       "London",
		Address:    "12 St James Square",
		PostalCode: "SW1Y 4JH",
	}
}

func newTestService(db *gorm.DB, carts CartStore, actions ActionRecorder) *Service {
	return NewService(db, carts, actions, nil, nil, &config.Config{}, testLogger())
}

func TestConfirmCreatesOrderAndClearsCart(t *testing.T) {
	db := setupDB(t)
	carts := &fakeCartStore{cart: filledCart(t)}
	svc := newTestService(db, carts, nil)

	created, err := svc.Confirm(context.Background(), 42, confirmReq())
	require.NoError(t, err)

	assert.Len(t, created.OrderID, 8)
	assert.Equal(t, uint(42), created.UserID)
	assert.False(t, created.Paid)
	assert.Len(t, created.Items, 2)
	assert.Equal(t, StatusPending, created.CurrentStatus())

	// Stock moves to the order, so the clear must be the paid variant
	require.Len(t, carts.cleared, 1)
	assert.True(t, carts.cleared[0])

	stored, err := svc.Get(context.Background(), created.OrderID, 42)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount().Equal(decimal.RequireFromString("221.00")))
}

func TestConfirmEmptyCart(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(db, &fakeCartStore{}, nil)

	_, err := svc.Confirm(context.Background(), 42, confirmReq())
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestConfirmRollsBackWhenCartClearFails(t *testing.T) {
	db := setupDB(t)
	carts := &fakeCartStore{cart: filledCart(t), failClear: true}
	svc := newTestService(db, carts, nil)

	_, err := svc.Confirm(context.Background(), 42, confirmReq())
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&Order{}).Count(&count).Error)
	assert.Zero(t, count, "failed clear must not leave a partial order behind")
}

func TestRecordPaymentIsIdempotent(t *testing.T) {
	db := setupDB(t)
	recorder := &fakeRecorder{}
	svc := newTestService(db, &fakeCartStore{cart: filledCart(t)}, recorder)

	created, err := svc.Confirm(context.Background(), 42, confirmReq())
	require.NoError(t, err)

	paid, err := svc.RecordPayment(context.Background(), 42, created.OrderID, &PaymentRequest{PhoneNumber: "555-0100"})
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.Payment)
	assert.NotEmpty(t, paid.Payment.Reference)

	// One purchase event per order item
	assert.ElementsMatch(t, []uint{1, 2}, recorder.purchases)

	_, err = svc.RecordPayment(context.Background(), 42, created.OrderID, &PaymentRequest{PhoneNumber: "555-0100"})
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Len(t, recorder.purchases, 2, "second payment must not replay purchase events")
}

func TestRecordPaymentUnknownOrder(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(db, &fakeCartStore{}, nil)

	_, err := svc.RecordPayment(context.Background(), 42, "nope1234", &PaymentRequest{PhoneNumber: "555-0100"})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAdvanceStatusHappyPath(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(db, &fakeCartStore{cart: filledCart(t)}, nil)

	created, err := svc.Confirm(context.Background(), 42, confirmReq())
	require.NoError(t, err)

	shipped, err := svc.AdvanceStatus(context.Background(), created.OrderID, StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, shipped.CurrentStatus())

	delivered, err := svc.AdvanceStatus(context.Background(), created.OrderID, StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.CurrentStatus())
}

func TestAdvanceStatusRejectsIllegalMoves(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(db, &fakeCartStore{cart: filledCart(t)}, nil)

	created, err := svc.Confirm(context.Background(), 42, confirmReq())
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(context.Background(), created.OrderID, StatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.AdvanceStatus(context.Background(), created.OrderID, Status("Returned"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.AdvanceStatus(context.Background(), "nope1234", StatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelReturnsStockToInventory(t *testing.T) {
	db := setupDB(t)

	// Stock already reserved by the cart: 5 on the shelf minus 2 in the cart
	prod := &product.Product{
		ID:              1,
		MerchantID:      1,
		Name:            "Keyboard",
		Slug:            "keyboard",
		Price:           decimal.RequireFromString("89.50"),
		AvailableAmount: 3,
	}
	require.NoError(t, db.Create(prod).Error)

	c := cart.New()
	c.AddItem(1, "Keyboard", decimal.RequireFromString("89.50"), 2)
	svc := newTestService(db, &fakeCartStore{cart: c}, nil)

	created, err := svc.Confirm(context.Background(), 42, confirmReq())
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(context.Background(), created.OrderID, StatusCancelled)
	require.NoError(t, err)

	var after product.Product
	require.NoError(t, db.First(&after, 1).Error)
	assert.Equal(t, 5, after.AvailableAmount)

	var movement inventory.StockMovement
	require.NoError(t, db.Where("reference_id = ?", created.OrderID).First(&movement).Error)
	assert.Equal(t, inventory.MovementTypeRelease, movement.MovementType)
	assert.Equal(t, 2, movement.Quantity)

	// Terminal state: nothing moves out of Cancelled
	_, err = svc.AdvanceStatus(context.Background(), created.OrderID, StatusShipped)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
