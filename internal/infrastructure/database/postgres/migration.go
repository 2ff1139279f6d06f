// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/action"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/recommend"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// Migrate runs schema migrations and, in development, seeds demo data
func Migrate(db *gorm.DB, cfg *config.Config) error {
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&user.User{},
		&product.Category{},
		&product.Product{},
		&inventory.StockMovement{},
		&coupon.Coupon{},
		&order.Order{},
		&order.OrderItem{},
		&order.StatusEntry{},
		&order.Payment{},
		&action.UserAction{},
		&recommend.ItemSimilarity{},
		&recommend.UserRecommendation{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if cfg.IsDevelopment() {
		if err := seedData(db, cfg); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
	}

	log.Println("✅ Database migrations completed successfully")
	return nil
}

// createIndexes adds indexes AutoMigrate does not cover
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_user_actions_created_at ON user_actions(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_item_similarities_score ON item_similarities(product_id, score DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_order_ts ON order_status(order_ref, timestamp DESC)",
		"CREATE INDEX IF NOT EXISTS idx_coupons_window ON coupons(valid_from, valid_to)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_ref ON stock_movements(reference_type, reference_id)",
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// seedData inserts a demo merchant, customer, and catalog for local work
func seedData(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&user.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("🌱 Seeding development data...")

	merchantPass, err := auth.HashPassword("merchant123", cfg.Security.BcryptCost)
	if err != nil {
		return err
	}
	customerPass, err := auth.HashPassword("customer123", cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	merchant := user.User{
		Email:      "merchant@example.com",
		Password:   merchantPass,
		FirstName:  "Demo",
		LastName:   "Merchant",
		IsMerchant: true,
		IsActive:   true,
	}
	customer := user.User{
		Email:     "customer@example.com",
		Password:  customerPass,
		FirstName: "Demo",
		LastName:  "Customer",
		IsActive:  true,
	}
	if err := db.Create(&merchant).Error; err != nil {
		return err
	}
	if err := db.Create(&customer).Error; err != nil {
		return err
	}

	electronics := product.Category{Name: "Electronics", Slug: "electronics"}
	books := product.Category{Name: "Books", Slug: "books"}
	if err := db.Create(&electronics).Error; err != nil {
		return err
	}
	if err := db.Create(&books).Error; err != nil {
		return err
	}

	products := []product.Product{
		{
			MerchantID:      merchant.ID,
			CategoryID:      &electronics.ID,
			Name:            "Wireless Headphones",
			Slug:            "wireless-headphones",
			Description:     "Over-ear wireless headphones with noise cancellation.",
			Price:           decimal.NewFromFloat(129.99),
			AvailableAmount: 50,
		},
		{
			MerchantID:      merchant.ID,
			CategoryID:      &electronics.ID,
			Name:            "Mechanical Keyboard",
			Slug:            "mechanical-keyboard",
			Description:     "Tenkeyless mechanical keyboard with hot-swappable switches.",
			Price:           decimal.NewFromFloat(89.50),
			AvailableAmount: 35,
		},
		{
			MerchantID:      merchant.ID,
			CategoryID:      &books.ID,
			Name:            "Distributed Systems Primer",
			Slug:            "distributed-systems-primer",
			Description:     "An introduction to consensus, replication, and failure.",
			Price:           decimal.NewFromFloat(42.00),
			AvailableAmount: 120,
		},
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	demo := coupon.Coupon{
		MerchantID: merchant.ID,
		ProductID:  &products[0].ID,
		Code:       "WELCOME1",
		ValidFrom:  time.Now().UTC(),
		ValidTo:    time.Now().UTC().Add(30 * 24 * time.Hour),
		Discount:   10,
		Active:     true,
	}
	if err := db.Create(&demo).Error; err != nil {
		return err
	}

	log.Println("✅ Development data seeded")
	return nil
}
