package api

import (
	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/handlers"
	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/permissions"
)

func registerNetworkRoutes(r *gin.Engine, handler *handlers.NetworkHandler) {
	network := r.Group("/api/admin/network")
	network.Use(middleware.RequireAuthenticated(), middleware.RequirePermission(permissions.ManageNetwork))
	{
		network.POST("", handler.Create)
		network.GET("", handler.Get)
		network.POST("/members", handler.AddMember)
		network.GET("/members", handler.ListMembers)
		network.DELETE("/members/:id", handler.RemoveMember)
	}
}
