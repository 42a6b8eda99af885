package api

import (
	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/handlers"
	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/permissions"
)

func registerUserRoutes(r *gin.Engine, handler *handlers.UserHandler) {
	// Visible-scope listing for every authenticated principal.
	r.GET("/api/users", middleware.RequireAuthenticated(), handler.List)

	// The gateway already restricts these prefixes by role; the permission
	// gates keep the routes safe under a changed restriction table.
	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAuthenticated())
	{
		admin.POST("/users", middleware.RequirePermission(permissions.ManageUsers), handler.Create)
	}

	super := r.Group("/api/super-admin")
	super.Use(middleware.RequireAuthenticated())
	{
		super.GET("/users/:id", middleware.RequirePermission(permissions.ManageAdmins), handler.Get)
		super.PUT("/users/:id/active", middleware.RequirePermission(permissions.ManageAdmins), handler.SetActive)
		super.PUT("/users/:id/role", middleware.RequirePermission(permissions.ManageAdmins), handler.ChangeRole)
		super.PUT("/users/:id/permissions", middleware.RequirePermission(permissions.ManageSystem), handler.UpdateOverlay)
	}
}
