package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront-backend/internal/config"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&User{}))

	cfg := &config.Config{}
	cfg.App.Name = "storefront-test"
	cfg.JWT.Secret = "test-secret-key-that-is-long-enough!"
	cfg.JWT.AccessTokenExpiry = time.Hour
	cfg.Security.BcryptCost = 4 // keep tests fast

	return NewService(db, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupService(t)

	registered, err := svc.Register(&RegisterRequest{
		Email:      "merchant@example.com",
		Password:   "hunter22hunter22",
		FirstName:  "Demo",
		LastName:   "Merchant",
		IsMerchant: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.True(t, registered.User.IsMerchant)
	assert.NotEqual(t, "hunter22hunter22", registered.User.Password)

	logged, err := svc.Login(&LoginRequest{
		Email:    "merchant@example.com",
		Password: "hunter22hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)
	assert.NotEmpty(t, logged.AccessToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Register(&RegisterRequest{Email: "a@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	_, err = svc.Register(&RegisterRequest{Email: "a@example.com", Password: "different-pass-123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Register(&RegisterRequest{Email: "a@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "hunter22hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
