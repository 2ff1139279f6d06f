// internal/interfaces/http/handlers/recommendation.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/action"
	"github.com/your-org/storefront-backend/internal/domain/recommend"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// RecommendationHandler handles recommendation endpoints
type RecommendationHandler struct {
	engine       *recommend.Engine
	actionLogger *action.Logger
	config       *config.Config
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		engine:       recommend.NewEngine(db, redisClient, cfg, logger),
		actionLogger: action.NewLogger(redisClient, cfg, logger),
		config:       cfg,
	}
}

// feedbackRequest carries explicit feedback on a recommendation
type feedbackRequest struct {
	ProductID    uint   `json:"product_id" binding:"required"`
	FeedbackType string `json:"feedback_type" binding:"required,oneof=click not_interested"`
}

// GetRecommendations handles GET /recommendations
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	limit := h.parseLimit(c)

	recs, err := h.engine.RecommendFor(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve recommendations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recommendations retrieved successfully",
		"data":    recs,
	})
}

// GetSimilarProducts handles GET /recommendations/similar-products/:slug
func (h *RecommendationHandler) GetSimilarProducts(c *gin.Context) {
	limit := h.parseLimit(c)

	similar, err := h.engine.SimilarTo(c.Request.Context(), c.Param("slug"), limit)
	if err != nil {
		if errors.Is(err, recommend.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve similar products",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Similar products retrieved successfully",
		"data":    similar,
	})
}

// GetRecentlyViewed handles GET /recommendations/recently-viewed
func (h *RecommendationHandler) GetRecentlyViewed(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	products, err := h.engine.RecentlyViewed(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve view history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recently viewed products retrieved successfully",
		"data":    products,
	})
}

// RecordFeedback handles POST /recommendations/feedback
func (h *RecommendationHandler) RecordFeedback(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionID := getOrCreateSessionID(c)
	switch req.FeedbackType {
	case "click":
		h.actionLogger.RecordClick(userID, req.ProductID, sessionID)
	case "not_interested":
		h.actionLogger.RecordNotInterested(userID, req.ProductID, sessionID)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Feedback recorded",
	})
}

func (h *RecommendationHandler) parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
