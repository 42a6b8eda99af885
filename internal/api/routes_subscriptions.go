package api

import (
	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/handlers"
	"github.com/carenethq/carenet/internal/middleware"
)

func registerSubscriptionRoutes(r *gin.Engine, handler *handlers.SubscriptionHandler) {
	subscriptions := r.Group("/api/subscriptions")
	subscriptions.Use(middleware.RequireAuthenticated())
	{
		subscriptions.GET("/plans", handler.Plans)
		subscriptions.POST("/purchase", handler.Purchase)
		subscriptions.GET("/status", handler.Status)
		subscriptions.POST("/consume", handler.Consume)
	}
}
