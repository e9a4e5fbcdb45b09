// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes onto the v1 router group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, redisClient, cfg)
	productHandler := handlers.NewProductHandler(db, cfg)
	cartHandler := handlers.NewCartHandler(db, redisClient, cfg)
	orderHandler := handlers.NewOrderHandler(db, redisClient, cfg)
	quotationHandler := handlers.NewQuotationHandler(db, cfg)
	inventoryHandler := handlers.NewInventoryHandler(db, cfg)

	// Public routes
	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/profile", middleware.AuthMiddleware(cfg), authHandler.Profile)
	}

	products := rg.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/slug/:slug", productHandler.GetProductBySlug)
	}

	// Cart supports both guests (session cookie) and authenticated users
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddItem)
		cart.PUT("/items/:id", cartHandler.UpdateItem)
		cart.DELETE("/items/:id", cartHandler.RemoveItem)
		cart.DELETE("", cartHandler.ClearCart)
	}

	// Authenticated routes
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("/calculate-totals", orderHandler.CalculateTotals)
		orders.POST("/checkout", orderHandler.Checkout)
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id/cancel", orderHandler.Cancel)
		orders.PATCH("/:id/status", middleware.AdminMiddleware(), orderHandler.UpdateStatus)
	}

	quotations := rg.Group("/quotations")
	quotations.Use(middleware.AuthMiddleware(cfg))
	{
		quotations.POST("", quotationHandler.Create)
		quotations.GET("", quotationHandler.List)
		quotations.GET("/:id", quotationHandler.Get)
		quotations.PUT("/:id", quotationHandler.Update)
		quotations.POST("/:id/submit", quotationHandler.Submit)
		quotations.GET("/:id/pdf", quotationHandler.ExportPDF)
	}

	// Admin routes
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.POST("/products/:id/stock", productHandler.AdjustStock)

		admin.GET("/orders", orderHandler.ListAllOrders)
		admin.PATCH("/orders/:id/status", orderHandler.UpdateStatus)

		admin.GET("/quotations", quotationHandler.ListAll)
		admin.PATCH("/quotations/:id/status", quotationHandler.UpdateStatus)
		admin.POST("/quotations/expire", quotationHandler.ExpireStale)

		admin.GET("/inventory/movements", inventoryHandler.ListMovements)
		admin.GET("/inventory/low-stock", inventoryHandler.ListLowStock)
	}
}
