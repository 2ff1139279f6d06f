// internal/interfaces/http/handlers/coupon.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CouponHandler handles merchant coupon management endpoints
type CouponHandler struct {
	couponService *coupon.Service
	config        *config.Config
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *CouponHandler {
	inventoryService := inventory.NewService(db, logger)
	cartStore := cart.NewStore(redisClient, inventoryService, cfg, logger)
	productService := product.NewService(db, cfg)

	return &CouponHandler{
		couponService: coupon.NewService(db, cartStore, productService, cfg),
		config:        cfg,
	}
}

// CreateCoupon handles POST /coupons/:slug
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	merchantID, _ := middleware.GetUserIDFromContext(c)

	var req coupon.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	created, err := h.couponService.Create(merchantID, c.Param("slug"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Coupon created successfully",
		"data":    created,
	})
}

// ListCoupons handles GET /coupons
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	merchantID, _ := middleware.GetUserIDFromContext(c)

	coupons, err := h.couponService.List(merchantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve coupons",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupons retrieved successfully",
		"data":    coupons,
	})
}

// GetCoupon handles GET /coupons/:code
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	found, err := h.couponService.GetByCode(c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon retrieved successfully",
		"data":    found,
	})
}

// UpdateCoupon handles PUT /coupons/:code
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	merchantID, _ := middleware.GetUserIDFromContext(c)

	var req coupon.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.couponService.Update(merchantID, c.Param("code"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon updated successfully",
		"data":    updated,
	})
}

// DeleteCoupon handles DELETE /coupons/:code
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	merchantID, _ := middleware.GetUserIDFromContext(c)

	if err := h.couponService.Delete(merchantID, c.Param("code")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon deleted successfully",
	})
}

// respondError maps domain errors onto HTTP statuses
func (h *CouponHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, coupon.ErrCouponNotFound), errors.Is(err, product.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, coupon.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process coupon operation"})
	}
}
