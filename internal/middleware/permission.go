package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/permissions"
	apperrors "github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/metrics"
	"github.com/carenethq/carenet/pkg/response"
)

// RequirePermission checks that the authenticated principal holds the given
// permission string, taking the admin overlay into account.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !permissions.Has(user.Role, user.CustomPermissions, permission) {
			metrics.PermissionChecks.WithLabelValues(permission, "deny").Inc()
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		metrics.PermissionChecks.WithLabelValues(permission, "allow").Inc()
		c.Next()
	}
}
