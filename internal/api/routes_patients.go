package api

import (
	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/handlers"
	"github.com/carenethq/carenet/internal/middleware"
)

// Patient routes carry no permission gate of their own: visibility is decided
// per row by the scope guard, which can answer 404 instead of 403 when the
// caller should not learn the resource exists.
func registerPatientRoutes(r *gin.Engine, handler *handlers.PatientHandler) {
	patients := r.Group("/api/patients")
	patients.Use(middleware.RequireAuthenticated())
	{
		patients.POST("", handler.Create)
		patients.GET("", handler.List)
		patients.GET("/:id", handler.Get)
		patients.PUT("/:id", handler.Update)
		patients.DELETE("/:id", handler.Delete)
	}
}
