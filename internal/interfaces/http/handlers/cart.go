// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/action"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartStore      *cart.Store
	productService *product.Service
	couponService  *coupon.Service
	actionLogger   *action.Logger
	config         *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *CartHandler {
	inventoryService := inventory.NewService(db, logger)
	cartStore := cart.NewStore(redisClient, inventoryService, cfg, logger)
	productService := product.NewService(db, cfg)

	return &CartHandler{
		cartStore:      cartStore,
		productService: productService,
		couponService:  coupon.NewService(db, cartStore, productService, cfg),
		actionLogger:   action.NewLogger(redisClient, cfg, logger),
		config:         cfg,
	}
}

// quantityRequest carries the quantity for add/update operations
type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// clearRequest distinguishes checkout clears from abandonment
type clearRequest struct {
	IsPaid bool `json:"is_paid"`
}

// couponRequest carries a coupon code for cart application
type couponRequest struct {
	CouponCode string `json:"coupon_code" binding:"required,max=8"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	userCart, err := h.cartStore.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}
	if userCart.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cart is empty",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    userCart,
	})
}

// AddToCart handles POST /cart/:slug
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prod, err := h.productService.GetBySlug(c.Param("slug"))
	if err != nil {
		h.respondError(c, err, "add")
		return
	}

	userCart, err := h.cartStore.Add(c.Request.Context(), userID, prod, req.Quantity)
	if err != nil {
		h.respondError(c, err, "add")
		return
	}
	metrics.CartOperations.WithLabelValues("add", "ok").Inc()
	h.actionLogger.RecordAddToCart(userID, prod.ID, getOrCreateSessionID(c))

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    userCart,
	})
}

// UpdateCartItem handles PUT /cart/:slug
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prod, err := h.productService.GetBySlug(c.Param("slug"))
	if err != nil {
		h.respondError(c, err, "update")
		return
	}

	userCart, err := h.cartStore.Update(c.Request.Context(), userID, prod, req.Quantity)
	if err != nil {
		h.respondError(c, err, "update")
		return
	}
	metrics.CartOperations.WithLabelValues("update", "ok").Inc()

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    userCart,
	})
}

// RemoveFromCart handles DELETE /cart/:slug
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	prod, err := h.productService.GetBySlug(c.Param("slug"))
	if err != nil {
		h.respondError(c, err, "remove")
		return
	}

	userCart, err := h.cartStore.Remove(c.Request.Context(), userID, prod.ID)
	if err != nil {
		h.respondError(c, err, "remove")
		return
	}
	metrics.CartOperations.WithLabelValues("remove", "ok").Inc()

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    userCart,
	})
}

// ClearCart handles DELETE /cart/clear
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req clearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.cartStore.Clear(c.Request.Context(), userID, req.IsPaid); err != nil {
		h.respondError(c, err, "clear")
		return
	}
	metrics.CartOperations.WithLabelValues("clear", "ok").Inc()

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// ApplyCoupon handles POST /cart/apply-coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userCart, err := h.couponService.ApplyToCart(c.Request.Context(), userID, req.CouponCode)
	if err != nil {
		h.respondError(c, err, "apply_coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon applied successfully",
		"data":    userCart,
	})
}

// RemoveCoupon handles POST /cart/remove-coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	userCart, err := h.couponService.RemoveFromCart(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "remove_coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon removed successfully",
		"data":    userCart,
	})
}

// respondError maps domain errors onto HTTP statuses
func (h *CartHandler) respondError(c *gin.Context, err error, operation string) {
	metrics.CartOperations.WithLabelValues(operation, "error").Inc()

	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, inventory.ErrProductNotFound),
		errors.Is(err, cart.ErrNotInCart),
		errors.Is(err, coupon.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrNoCouponApplied),
		errors.Is(err, coupon.ErrCouponInactive),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrCouponNotApplicable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cart is busy, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process cart operation"})
	}
}
