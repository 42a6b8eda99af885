package api

import (
	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/handlers"
	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/permissions"
)

func registerAuditRoutes(r *gin.Engine, handler *handlers.AuditHandler) {
	r.GET("/api/super-admin/audit",
		middleware.RequireAuthenticated(),
		middleware.RequirePermission(permissions.ViewAuditLogs),
		handler.List,
	)
}
