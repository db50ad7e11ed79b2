package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"prebook/internal/handler"
	"prebook/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler  *handler.UserHandler
	RideHandler  *handler.RideHandler
	AdminHandler *handler.AdminHandler
	RedisClient  *redis.Client
	NewRelicApp  *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.GetAll)
			users.GET("/:id/wallet", deps.UserHandler.GetWallet)
			users.GET("/:id/transactions", deps.UserHandler.GetTransactions)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.Book)
			rides.GET("", deps.RideHandler.List)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/accept", deps.RideHandler.Accept)
			rides.POST("/:id/start", deps.RideHandler.Start)
			rides.POST("/:id/complete", deps.RideHandler.Complete)
			rides.POST("/:id/cancel", deps.RideHandler.Cancel)
			rides.GET("/:id/penalties", deps.RideHandler.GetPenalties)
		}

		// Admin routes.
		admin := v1.Group("/admin")
		{
			admin.GET("/transactions", deps.AdminHandler.GetTransactions)
			admin.GET("/rides", deps.AdminHandler.GetRides)
			admin.GET("/commissions", deps.AdminHandler.GetCommissions)
			admin.GET("/stats", deps.AdminHandler.GetStats)
			admin.POST("/fees", deps.AdminHandler.UpdateFees)
		}
	}

	return router
}
