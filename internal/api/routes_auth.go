package api

import (
	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/handlers"
	"github.com/carenethq/carenet/internal/middleware"
)

// Login, register and refresh are on the gateway's public allowlist; me and
// logout require an attached principal.
func registerAuthRoutes(r *gin.Engine, handler *handlers.AuthHandler) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", handler.Login)
		auth.POST("/register", handler.Register)
		auth.POST("/refresh", handler.Refresh)

		auth.GET("/me", middleware.RequireAuthenticated(), handler.Me)
		auth.POST("/logout", middleware.RequireAuthenticated(), handler.Logout)
	}
}
