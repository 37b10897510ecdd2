package routes

import (
	"github.com/SujaySAK777/StreamIQ/controllers"
	"github.com/SujaySAK777/StreamIQ/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterPromotionRoutes sets up all promotion-related routes.
func RegisterPromotionRoutes(r *gin.Engine, pc *controllers.PromotionController, sc *controllers.StreamController, limiter *middleware.RateLimiter) {
	promotionRoutes := r.Group("/promotions")

	// UI-facing
	promotionRoutes.GET("/stats", pc.Stats)
	promotionRoutes.GET("/stream", sc.Stream)

	adminRoutes := promotionRoutes.Group("")
	adminRoutes.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	adminRoutes.POST("/evaluate", middleware.RateLimit(limiter), pc.Evaluate)
	adminRoutes.GET("/decisions", pc.ListDecisions)
	adminRoutes.GET("/decisions/:id", pc.GetDecision)
}
