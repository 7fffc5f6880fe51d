// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/samplestore-backend/internal/config"
	"github.com/your-org/samplestore-backend/internal/domain/cart"
	"github.com/your-org/samplestore-backend/internal/domain/order"
	"github.com/your-org/samplestore-backend/internal/domain/payment"
	"github.com/your-org/samplestore-backend/internal/domain/product"
	"github.com/your-org/samplestore-backend/internal/domain/user"
	"github.com/your-org/samplestore-backend/internal/infrastructure/database/postgres"
	redisdb "github.com/your-org/samplestore-backend/internal/infrastructure/database/redis"
	"github.com/your-org/samplestore-backend/internal/interfaces/http/handlers"
	"github.com/your-org/samplestore-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all route groups onto the API router group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redisdb.Client, cfg *config.Config, logger *logrus.Logger) {
	SetupCartRoutes(rg, db, redisClient, cfg, logger)
	SetupOrderRoutes(rg, db, redisClient, cfg, logger)
	SetupAdminRoutes(rg, db, cfg, logger)
	SetupWebhookRoutes(rg, db, cfg, logger)
}

// SetupCartRoutes sets up cart related routes. Carts belong to the session,
// not the user, so authentication is optional here.
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redisdb.Client, cfg *config.Config, logger *logrus.Logger) {
	cartStore := cart.NewStore(redisClient, cfg, logger)
	products := product.NewService(db)
	cartHandler := handlers.NewCartHandler(cartStore, products)

	carts := rg.Group("/cart")
	carts.Use(middleware.OptionalAuthMiddleware(cfg))
	carts.Use(middleware.SessionMiddleware())
	{
		carts.GET("", cartHandler.GetCart)
		carts.POST("/items", cartHandler.AddItem)
		carts.PUT("/items/:id", cartHandler.UpdateItem)
		carts.DELETE("/items/:id", cartHandler.RemoveItem)
		carts.DELETE("", cartHandler.ClearCart)
	}
}

// SetupOrderRoutes sets up buyer order routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redisdb.Client, cfg *config.Config, logger *logrus.Logger) {
	orderStore := postgres.NewOrderStore(db)
	cartStore := cart.NewStore(redisClient, cfg, logger)
	userService := user.NewService(db)
	factory := order.NewFactory(orderStore, cartStore, userService, userService, redisClient, cfg, logger)
	orderService := order.NewService(orderStore, logger)
	orderHandler := handlers.NewOrderHandler(factory, orderService)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("", middleware.SessionMiddleware(), orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:number", orderHandler.GetOrder)
	}

	profileHandler := handlers.NewProfileHandler(userService)

	profile := rg.Group("/profile")
	profile.Use(middleware.AuthMiddleware(cfg))
	{
		profile.GET("/shipping", profileHandler.GetShippingProfile)
	}
}

// SetupAdminRoutes sets up admin order management routes
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	orderStore := postgres.NewOrderStore(db)
	orderService := order.NewService(orderStore, logger)
	adminHandler := handlers.NewAdminOrderHandler(orderService, logger)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/orders", adminHandler.ListOrders)
		admin.GET("/orders/export", adminHandler.ExportOrders)
		admin.PUT("/orders/:id", adminHandler.UpdateOrder)
	}
}

// SetupWebhookRoutes sets up payment provider webhook routes. These are
// public; the HMAC signature is the authentication.
func SetupWebhookRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	orderStore := postgres.NewOrderStore(db)
	processor := payment.NewProcessor(orderStore, cfg, logger)
	webhookHandler := handlers.NewWebhookHandler(processor)

	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/payment", webhookHandler.HandlePaymentWebhook)
	}
}
