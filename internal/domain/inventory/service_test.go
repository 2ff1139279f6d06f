package inventory

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&product.Product{}, &StockMovement{}))
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *product.Product {
	t.Helper()
	prod := &product.Product{
		MerchantID:      1,
		Name:            "Keyboard",
		Slug:            "keyboard",
		Price:           decimal.NewFromInt(90),
		AvailableAmount: stock,
	}
	require.NoError(t, db.Create(prod).Error)
	return prod
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var prod product.Product
	require.NoError(t, db.First(&prod, id).Error)
	return prod.AvailableAmount
}

func TestReserveDecrementsStock(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, testLogger())
	prod := seedProduct(t, db, 10)

	require.NoError(t, svc.Reserve(context.Background(), prod.ID, 3, "cart", "42"))

	assert.Equal(t, 7, stockOf(t, db, prod.ID))

	var movements []StockMovement
	require.NoError(t, db.Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, MovementTypeReserve, movements[0].MovementType)
	assert.Equal(t, 3, movements[0].Quantity)
	assert.Equal(t, "cart", movements[0].ReferenceType)
}

func TestReserveInsufficientStockLeavesStateUntouched(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, testLogger())
	prod := seedProduct(t, db, 2)

	err := svc.Reserve(context.Background(), prod.ID, 3, "cart", "42")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 2, stockOf(t, db, prod.ID))

	var count int64
	require.NoError(t, db.Model(&StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReserveUnknownProduct(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, testLogger())

	assert.ErrorIs(t, svc.Reserve(context.Background(), 999, 1, "cart", "42"), ErrProductNotFound)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, testLogger())
	prod := seedProduct(t, db, 5)

	assert.Error(t, svc.Reserve(context.Background(), prod.ID, 0, "cart", "42"))
	assert.Error(t, svc.Release(context.Background(), prod.ID, -1, "cart", "42"))
}

func TestReleaseRestoresStock(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, testLogger())
	prod := seedProduct(t, db, 10)

	require.NoError(t, svc.Reserve(context.Background(), prod.ID, 4, "cart", "42"))
	require.NoError(t, svc.Release(context.Background(), prod.ID, 4, "cart", "42"))

	assert.Equal(t, 10, stockOf(t, db, prod.ID))
}

func TestRepeatedReservesNeverOversell(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, testLogger())
	prod := seedProduct(t, db, 5)

	granted := 0
	for i := 0; i < 8; i++ {
		err := svc.Reserve(context.Background(), prod.ID, 1, "cart", "42")
		if err == nil {
			granted++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}

	assert.Equal(t, 5, granted)
	assert.Equal(t, 0, stockOf(t, db, prod.ID))
}

func TestStockLevelAndMovements(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, testLogger())
	prod := seedProduct(t, db, 10)

	require.NoError(t, svc.Reserve(context.Background(), prod.ID, 2, "cart", "42"))
	require.NoError(t, svc.Release(context.Background(), prod.ID, 1, "cart", "42"))

	level, err := svc.StockLevel(context.Background(), prod.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, level)

	movements, err := svc.Movements(context.Background(), prod.ID, 10)
	require.NoError(t, err)
	assert.Len(t, movements, 2)
}
