package recommend

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/action"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

func TestScorePairsPerfectOverlap(t *testing.T) {
	// Two users, both interacting with products 1 and 2
	interactions := []UserProduct{
		{UserID: 10, ProductID: 1},
		{UserID: 10, ProductID: 2},
		{UserID: 20, ProductID: 1},
		{UserID: 20, ProductID: 2},
	}

	scores := ScorePairs(interactions)
	require.Len(t, scores, 2, "one pair, both directions")

	for _, s := range scores {
		assert.Equal(t, 1.0, s.Score)
	}
	assert.Equal(t, uint(1), scores[0].ProductID)
	assert.Equal(t, uint(2), scores[0].SimilarProductID)
	assert.Equal(t, uint(2), scores[1].ProductID)
	assert.Equal(t, uint(1), scores[1].SimilarProductID)
}

func TestScorePairsPartialOverlap(t *testing.T) {
	// Product 1 has users {10, 20}, product 2 has users {10, 30}.
	// One shared user out of sqrt(2*2) gives 0.5.
	interactions := []UserProduct{
		{UserID: 10, ProductID: 1},
		{UserID: 20, ProductID: 1},
		{UserID: 10, ProductID: 2},
		{UserID: 30, ProductID: 2},
	}

	scores := ScorePairs(interactions)
	require.Len(t, scores, 2)
	assert.Equal(t, 0.5, scores[0].Score)
}

func TestScorePairsRoundsToFourPlaces(t *testing.T) {
	// co=1, |users(1)|=3, |users(2)|=1: 1/sqrt(3) = 0.57735... -> 0.5774
	interactions := []UserProduct{
		{UserID: 10, ProductID: 1},
		{UserID: 20, ProductID: 1},
		{UserID: 30, ProductID: 1},
		{UserID: 10, ProductID: 2},
	}

	scores := ScorePairs(interactions)
	require.Len(t, scores, 2)
	assert.Equal(t, 0.5774, scores[0].Score)
}

func TestScorePairsOmitsDisjointProducts(t *testing.T) {
	interactions := []UserProduct{
		{UserID: 10, ProductID: 1},
		{UserID: 20, ProductID: 2},
	}
	assert.Empty(t, ScorePairs(interactions))
}

func TestScorePairsDeterministic(t *testing.T) {
	interactions := []UserProduct{
		{UserID: 10, ProductID: 3},
		{UserID: 10, ProductID: 1},
		{UserID: 20, ProductID: 1},
		{UserID: 20, ProductID: 3},
		{UserID: 10, ProductID: 2},
	}

	first := ScorePairs(interactions)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ScorePairs(interactions))
	}
}

func setupEngine(t *testing.T) (*Engine, *gorm.DB) {
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
		&action.UserAction{},
		&ItemSimilarity{},
		&UserRecommendation{},
	))

	cfg := &config.Config{}
	cfg.Recommend.ModelVersion = "v1"
	cfg.Recommend.TopK = 50

	l := logrus.New()
	l.SetOutput(io.Discard)

	return NewEngine(db, nil, cfg, l), db
}

func TestRecommendForWithoutModelIsEmpty(t *testing.T) {
	engine, _ := setupEngine(t)

	recs, err := engine.RecommendFor(context.Background(), 42, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecentlyViewedOrdersByRecency(t *testing.T) {
	engine, db := setupEngine(t)

	products := []product.Product{
		{ID: 1, MerchantID: 1, Name: "A", Slug: "a"},
		{ID: 2, MerchantID: 1, Name: "B", Slug: "b"},
		{ID: 3, MerchantID: 1, Name: "C", Slug: "c"},
	}
	require.NoError(t, db.Create(&products).Error)

	now := time.Now().UTC()
	view := func(productID uint, at time.Time) action.UserAction {
		return action.UserAction{UserID: 42, Action: action.TypeView, ProductID: &productID, CreatedAt: at}
	}
	actions := []action.UserAction{
		view(1, now.Add(-3*time.Hour)),
		view(2, now.Add(-2*time.Hour)),
		view(1, now.Add(-1*time.Hour)), // product 1 seen again, most recent
		{UserID: 42, Action: action.TypePurchase, ProductID: &products[2].ID, CreatedAt: now},
		{UserID: 99, Action: action.TypeView, ProductID: &products[2].ID, CreatedAt: now},
	}
	require.NoError(t, db.Create(&actions).Error)

	viewed, err := engine.RecentlyViewed(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, viewed, 2, "only view actions by this user count")
	assert.Equal(t, uint(1), viewed[0].ID)
	assert.Equal(t, uint(2), viewed[1].ID)
}
