// internal/interfaces/http/handlers/order.go
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
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *OrderHandler {
	inventoryService := inventory.NewService(db, logger)
	cartStore := cart.NewStore(redisClient, inventoryService, cfg, logger)
	actionLogger := action.NewLogger(redisClient, cfg, logger)
	notifier := email.NewService(cfg, logger)
	invoicer := pdf.NewService(cfg, logger)

	return &OrderHandler{
		orderService: order.NewService(db, cartStore, actionLogger, notifier, invoicer, cfg, logger),
		config:       cfg,
	}
}

// trackRequest carries the target status for tracking updates
type trackRequest struct {
	Status order.Status `json:"status" binding:"required"`
}

// ConfirmOrder handles POST /orders
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req order.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	confirmed, err := h.orderService.Confirm(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	metrics.OrdersConfirmed.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order confirmed successfully",
		"data":    confirmed,
	})
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	orders, err := h.orderService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
	})
}

// GetOrder handles GET /orders/:order_id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	found, err := h.orderService.Get(c.Request.Context(), c.Param("order_id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    found,
	})
}

// RecordPayment handles POST /orders/:order_id/payment
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req order.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	paid, err := h.orderService.RecordPayment(c.Request.Context(), userID, c.Param("order_id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	metrics.PaymentsRecorded.Inc()

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment recorded successfully",
		"data":    paid,
	})
}

// TrackOrder handles PUT /orders/:order_id/track
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.orderService.AdvanceStatus(c.Request.Context(), c.Param("order_id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    updated,
	})
}

// respondError maps domain errors onto HTTP statuses
func (h *OrderHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrCartEmpty),
		errors.Is(err, order.ErrAlreadyPaid),
		errors.Is(err, order.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cart is busy, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process order"})
	}
}
