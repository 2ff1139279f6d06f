// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// SetupRoutes wires every API route group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	SetupAuthRoutes(rg, db, cfg)
	SetupProductRoutes(rg, db, redisClient, cfg, logger)
	SetupCartRoutes(rg, db, redisClient, cfg, logger)
	SetupOrderRoutes(rg, db, redisClient, cfg, logger)
	SetupCouponRoutes(rg, db, redisClient, cfg, logger)
	SetupRecommendationRoutes(rg, db, redisClient, cfg, logger)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
		}
	}
}

// SetupProductRoutes sets up catalog read routes
func SetupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	productHandler := handlers.NewProductHandler(db, redisClient, cfg, logger)

	products := rg.Group("/products")
	products.Use(middleware.OptionalAuthMiddleware(cfg)) // Views are logged only for signed-in users
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/search", productHandler.SearchProducts)
		products.GET("/:slug", productHandler.GetProductBySlug)
	}
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	cartHandler := handlers.NewCartHandler(db, redisClient, cfg, logger)

	cart := rg.Group("/cart")
	cart.Use(middleware.AuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/apply-coupon", cartHandler.ApplyCoupon)
		cart.POST("/remove-coupon", cartHandler.RemoveCoupon)

		// /cart/clear must win over the slug route
		cart.DELETE("/clear", cartHandler.ClearCart)
		cart.POST("/:slug", cartHandler.AddToCart)
		cart.PUT("/:slug", cartHandler.UpdateCartItem)
		cart.DELETE("/:slug", cartHandler.RemoveFromCart)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	orderHandler := handlers.NewOrderHandler(db, redisClient, cfg, logger)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.ListOrders)
		orders.POST("", orderHandler.ConfirmOrder)
		orders.GET("/:order_id", orderHandler.GetOrder)
		orders.POST("/:order_id/payment", orderHandler.RecordPayment)

		// Status moves are a merchant concern
		tracked := orders.Group("")
		tracked.Use(middleware.MerchantMiddleware())
		{
			tracked.PUT("/:order_id/track", orderHandler.TrackOrder)
		}
	}
}

// SetupCouponRoutes sets up merchant coupon management routes
func SetupCouponRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	couponHandler := handlers.NewCouponHandler(db, redisClient, cfg, logger)

	coupons := rg.Group("/coupons")
	coupons.Use(middleware.AuthMiddleware(cfg))
	coupons.Use(middleware.MerchantMiddleware())
	{
		coupons.GET("", couponHandler.ListCoupons)
		coupons.POST("/:slug", couponHandler.CreateCoupon)
		coupons.GET("/:code", couponHandler.GetCoupon)
		coupons.PUT("/:code", couponHandler.UpdateCoupon)
		coupons.DELETE("/:code", couponHandler.DeleteCoupon)
	}
}

// SetupRecommendationRoutes sets up recommendation routes
func SetupRecommendationRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	recommendationHandler := handlers.NewRecommendationHandler(db, redisClient, cfg, logger)

	recommendations := rg.Group("/recommendations")
	recommendations.Use(middleware.AuthMiddleware(cfg))
	{
		recommendations.GET("", recommendationHandler.GetRecommendations)
		recommendations.GET("/similar-products/:slug", recommendationHandler.GetSimilarProducts)
		recommendations.GET("/recently-viewed", recommendationHandler.GetRecentlyViewed)
		recommendations.POST("/feedback", recommendationHandler.RecordFeedback)
	}
}
