// internal/domain/recommend/engine.go
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/action"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// ErrProductNotFound is returned when the similarity anchor is unknown
var ErrProductNotFound = errors.New("product not found")

// similarityBatchSize bounds each bulk insert during a model rebuild
const similarityBatchSize = 5000

// recentlyViewedLimit caps the recently-viewed shelf
const recentlyViewedLimit = 20

// signalActions are the action types the model learns from
var signalActions = []action.Type{action.TypeView, action.TypePurchase, action.TypeAddToCart}

// UserProduct is one distinct (user, product) interaction
type UserProduct struct {
	UserID    uint
	ProductID uint
}

// PairScore is the similarity of one ordered product pair
type PairScore struct {
	ProductID        uint
	SimilarProductID uint
	Score            float64
}

// Engine computes and serves item-to-item recommendations from the
// co-occurrence of user interactions.
type Engine struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	logger      *logrus.Logger
}

// NewEngine creates a new recommendation engine
func NewEngine(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Engine {
	return &Engine{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		logger:      logger,
	}
}

// ScorePairs turns distinct user-product interactions into pairwise
// similarity scores. For products p and q the score is
// |users(p) ∩ users(q)| / sqrt(|users(p)| * |users(q)|), rounded to
// four decimal places; zero-score pairs are omitted. Both directions
// are emitted for every scored pair.
func ScorePairs(interactions []UserProduct) []PairScore {
	users := make(map[uint]map[uint]struct{})
	for _, in := range interactions {
		set, ok := users[in.ProductID]
		if !ok {
			set = make(map[uint]struct{})
			users[in.ProductID] = set
		}
		set[in.UserID] = struct{}{}
	}

	products := make([]uint, 0, len(users))
	for id := range users {
		products = append(products, id)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })

	var scores []PairScore
	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			p, q := products[i], products[j]
			co := 0
			for u := range users[p] {
				if _, ok := users[q][u]; ok {
					co++
				}
			}
			if co == 0 {
				continue
			}
			score := float64(co) / math.Sqrt(float64(len(users[p]))*float64(len(users[q])))
			score = math.Round(score*10000) / 10000
			if score <= 0 {
				continue
			}
			scores = append(scores,
				PairScore{ProductID: p, SimilarProductID: q, Score: score},
				PairScore{ProductID: q, SimilarProductID: p, Score: score},
			)
		}
	}
	return scores
}

// ComputeSimilarity rebuilds the similarity model and the materialized
// per-user recommendations from all recorded interactions. The old
// model is replaced atomically; readers see either the previous model
// or the new one, never a partial mix.
func (e *Engine) ComputeSimilarity(ctx context.Context) error {
	start := time.Now()

	var interactions []UserProduct
	err := e.db.WithContext(ctx).Model(&action.UserAction{}).
		Distinct("user_id", "product_id").
		Where("action IN ? AND product_id IS NOT NULL", signalActions).
		Scan(&interactions).Error
	if err != nil {
		return fmt.Errorf("failed to load interactions: %w", err)
	}

	scores := ScorePairs(interactions)
	if err := ctx.Err(); err != nil {
		return err
	}

	version := e.config.Recommend.ModelVersion
	rows := make([]ItemSimilarity, len(scores))
	for i, s := range scores {
		rows[i] = ItemSimilarity{
			ProductID:        s.ProductID,
			SimilarProductID: s.SimilarProductID,
			Score:            s.Score,
			ModelVersion:     version,
		}
	}

	recs, err := e.materialize(ctx, interactions, scores)
	if err != nil {
		return err
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ItemSimilarity{}).Error; err != nil {
			return fmt.Errorf("failed to clear similarity model: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, similarityBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert similarity model: %w", err)
			}
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&UserRecommendation{}).Error; err != nil {
			return fmt.Errorf("failed to clear user recommendations: %w", err)
		}
		if len(recs) > 0 {
			if err := tx.CreateInBatches(recs, similarityBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert user recommendations: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidateCache(ctx)
	metrics.RecommendRebuildDuration.Observe(time.Since(start).Seconds())

	e.logger.WithFields(logrus.Fields{
		"interactions": len(interactions),
		"pairs":        len(rows),
		"users":        len(recs),
		"duration":     time.Since(start).String(),
	}).Info("Recommendation model rebuilt")
	return nil
}

// materialize ranks the top products per user from the fresh scores,
// excluding products the user already interacted with or dismissed.
func (e *Engine) materialize(ctx context.Context, interactions []UserProduct, scores []PairScore) ([]UserRecommendation, error) {
	var dismissed []UserProduct
	err := e.db.WithContext(ctx).Model(&action.UserAction{}).
		Distinct("user_id", "product_id").
		Where("action = ? AND product_id IS NOT NULL", action.TypeNotInterested).
		Scan(&dismissed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load dismissals: %w", err)
	}

	excluded := make(map[uint]map[uint]struct{})
	exclude := func(userID, productID uint) {
		set, ok := excluded[userID]
		if !ok {
			set = make(map[uint]struct{})
			excluded[userID] = set
		}
		set[productID] = struct{}{}
	}
	interacted := make(map[uint][]uint)
	for _, in := range interactions {
		interacted[in.UserID] = append(interacted[in.UserID], in.ProductID)
		exclude(in.UserID, in.ProductID)
	}
	for _, d := range dismissed {
		exclude(d.UserID, d.ProductID)
	}

	neighbors := make(map[uint][]PairScore)
	for _, s := range scores {
		neighbors[s.ProductID] = append(neighbors[s.ProductID], s)
	}

	version := e.config.Recommend.ModelVersion
	topK := e.config.Recommend.TopK
	var recs []UserRecommendation
	for userID, products := range interacted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates := make(map[uint]float64)
		for _, p := range products {
			for _, edge := range neighbors[p] {
				if _, skip := excluded[userID][edge.SimilarProductID]; skip {
					continue
				}
				candidates[edge.SimilarProductID] += edge.Score
			}
		}
		if len(candidates) == 0 {
			continue
		}

		ranked := make([]PairScore, 0, len(candidates))
		for productID, score := range candidates {
			ranked = append(ranked, PairScore{SimilarProductID: productID, Score: score})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Score != ranked[j].Score {
				return ranked[i].Score > ranked[j].Score
			}
			return ranked[i].SimilarProductID < ranked[j].SimilarProductID
		})
		if len(ranked) > topK {
			ranked = ranked[:topK]
		}
		for i, r := range ranked {
			recs = append(recs, UserRecommendation{
				UserID:       userID,
				ProductID:    r.SimilarProductID,
				Rank:         i + 1,
				Score:        math.Round(r.Score*10000) / 10000,
				ModelVersion: version,
			})
		}
	}
	return recs, nil
}

// RecommendFor returns the materialized suggestions for a user, best
// first. A user with no model coverage gets an empty list, not an error.
func (e *Engine) RecommendFor(ctx context.Context, userID uint, limit int) ([]UserRecommendation, error) {
	if limit <= 0 || limit > e.config.Recommend.TopK {
		limit = e.config.Recommend.TopK
	}
	var recs []UserRecommendation
	err := e.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("rank ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve recommendations: %w", err)
	}
	return recs, nil
}

// SimilarTo returns the products most similar to the given one, served
// from Redis when a fresh model copy is cached there.
func (e *Engine) SimilarTo(ctx context.Context, slug string, limit int) ([]ItemSimilarity, error) {
	if limit <= 0 || limit > e.config.Recommend.TopK {
		limit = e.config.Recommend.TopK
	}

	var prod product.Product
	if err := e.db.WithContext(ctx).Select("id").Where("slug = ?", slug).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	cacheKey := fmt.Sprintf("similar_%d_%d", prod.ID, limit)
	if data, err := e.redisClient.Get(ctx, cacheKey).Result(); err == nil {
		var cached []ItemSimilarity
		if err := json.Unmarshal([]byte(data), &cached); err == nil {
			return cached, nil
		}
	}

	var similar []ItemSimilarity
	err := e.db.WithContext(ctx).
		Preload("SimilarProduct").
		Where("product_id = ?", prod.ID).
		Order("score DESC, similar_product_id ASC").
		Limit(limit).
		Find(&similar).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve similar products: %w", err)
	}

	if data, err := json.Marshal(similar); err == nil {
		if err := e.redisClient.Set(ctx, cacheKey, data, e.config.Recommend.CacheTTL).Err(); err != nil {
			e.logger.WithError(err).Warn("failed to cache similar products")
		}
	}
	return similar, nil
}

// RecentlyViewed returns the user's latest distinct viewed products,
// most recent first.
func (e *Engine) RecentlyViewed(ctx context.Context, userID uint) ([]product.Product, error) {
	type viewed struct {
		ProductID uint
		LastSeen  time.Time
	}
	var rows []viewed
	err := e.db.WithContext(ctx).Model(&action.UserAction{}).
		Select("product_id, MAX(created_at) AS last_seen").
		Where("user_id = ? AND action = ? AND product_id IS NOT NULL", userID, action.TypeView).
		Group("product_id").
		Order("last_seen DESC").
		Limit(recentlyViewedLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve view history: %w", err)
	}
	if len(rows) == 0 {
		return []product.Product{}, nil
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ProductID
	}
	var products []product.Product
	if err := e.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	byID := make(map[uint]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]product.Product, 0, len(rows))
	for _, r := range rows {
		if p, ok := byID[r.ProductID]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// invalidateCache drops every cached similarity shelf after a rebuild
func (e *Engine) invalidateCache(ctx context.Context) {
	iter := e.redisClient.Scan(ctx, 0, "similar_*", 100).Iterator()
	for iter.Next(ctx) {
		if err := e.redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			e.logger.WithError(err).Warn("failed to invalidate similarity cache entry")
		}
	}
	if err := iter.Err(); err != nil {
		e.logger.WithError(err).Warn("failed to scan similarity cache")
	}
}
