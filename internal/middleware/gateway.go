package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/carenethq/carenet/internal/auth"
	"github.com/carenethq/carenet/internal/models"
	apperrors "github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/metrics"
	"github.com/carenethq/carenet/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxUserKey      = "authUser"
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"

	// SessionCookieName carries the access token for browser page loads.
	SessionCookieName = "carenet_token"

	signInPath = "/auth/signin"
	signUpPath = "/auth/signup"
)

// publicExactPaths are reachable without a session.
var publicExactPaths = []string{
	"/",
	signInPath,
	signUpPath,
	"/auth/forgot-password",
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/refresh",
	"/api/health",
	"/metrics",
}

// publicPrefixPaths match by prefix.
var publicPrefixPaths = []string{
	"/static/",
	"/assets/",
	"/favicon",
	"/.well-known/",
}

// roleRestriction maps a pair of path prefixes (API and page) to the roles
// allowed through them.
type roleRestriction struct {
	apiPrefix  string
	pagePrefix string
	roles      []models.Role
}

var roleRestrictions = []roleRestriction{
	{
		apiPrefix:  "/api/super-admin",
		pagePrefix: "/super-admin",
		roles:      []models.Role{models.RoleSuperAdmin},
	},
	{
		apiPrefix:  "/api/admin",
		pagePrefix: "/admin",
		roles:      []models.Role{models.RoleAdmin, models.RoleSuperAdmin},
	},
}

// RoleLanding maps a role to its post-authentication landing path. The gateway
// and the auth handlers both use this single mapping.
func RoleLanding(role models.Role) string {
	switch role {
	case models.RoleSuperAdmin:
		return "/super-admin/dashboard"
	case models.RoleAdmin:
		return "/admin/dashboard"
	case models.RoleDoctor:
		return "/doctor/dashboard"
	case models.RoleAttendant:
		return "/attendant/dashboard"
	case models.RoleControlRoom:
		return "/control-room/dashboard"
	default:
		return "/patient/dashboard"
	}
}

// Gateway is the edge middleware: it authenticates the session token, applies
// the public allowlist and role-prefixed restrictions, and issues redirects
// for page navigation. The decision is re-evaluated on every request.
func Gateway(jwt *iauth.JWTService, db *gorm.DB, extraPublic ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		user, claims := resolvePrincipal(c, jwt, db)
		authenticated := user != nil

		// A deactivated principal with a still-valid token is denied outright,
		// never redirected to a dashboard it cannot load.
		if authenticated && !user.IsActive {
			metrics.GatewayDecisions.WithLabelValues("forbidden").Inc()
			response.Error(c, apperrors.ErrAccountDisabled)
			c.Abort()
			return
		}

		// An authenticated user never sees the sign-in or sign-up pages.
		if authenticated && (path == signInPath || path == signUpPath) {
			metrics.GatewayDecisions.WithLabelValues("redirect").Inc()
			c.Redirect(http.StatusFound, RoleLanding(user.Role))
			c.Abort()
			return
		}

		if isPublicPath(path, extraPublic) {
			if authenticated {
				attachPrincipal(c, user, claims)
			}
			applyAssetHeaders(c, path)
			metrics.GatewayDecisions.WithLabelValues("pass").Inc()
			c.Next()
			return
		}

		if !authenticated {
			metrics.GatewayDecisions.WithLabelValues("unauthenticated").Inc()
			rejectUnauthenticated(c, path)
			return
		}

		if restriction, restricted := matchRestriction(path); restricted {
			if !roleAllowed(user.Role, restriction.roles) {
				metrics.GatewayDecisions.WithLabelValues("forbidden").Inc()
				response.Error(c, apperrors.ErrForbidden)
				c.Abort()
				return
			}
		}

		attachPrincipal(c, user, claims)
		applyAssetHeaders(c, path)
		metrics.GatewayDecisions.WithLabelValues("pass").Inc()
		c.Next()
	}
}

// resolvePrincipal extracts and validates the session token, then loads the
// principal so role changes and deactivation take effect immediately.
func resolvePrincipal(c *gin.Context, jwt *iauth.JWTService, db *gorm.DB) (*models.User, *iauth.Claims) {
	token := extractToken(c)
	if token == "" {
		return nil, nil
	}

	claims, err := jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, nil
	}

	var user models.User
	err = db.WithContext(c.Request.Context()).
		Select("id", "email", "role", "is_active", "custom_permissions").
		Take(&user, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		// A broken principal lookup must not authenticate the request.
		return nil, nil
	}

	return &user, claims
}

func attachPrincipal(c *gin.Context, user *models.User, claims *iauth.Claims) {
	c.Set(CtxUserKey, user)
	c.Set(CtxUserIDKey, user.ID)
	c.Set(CtxClaimsKey, claims)
	if claims != nil && claims.SessionID != "" {
		c.Set(CtxSessionIDKey, claims.SessionID)
	}
}

func rejectUnauthenticated(c *gin.Context, path string) {
	if isAPIPath(path) {
		c.Header("WWW-Authenticate", "Bearer")
		response.Error(c, apperrors.ErrUnauthorized)
		c.Abort()
		return
	}

	// Page navigation redirects to sign-in, preserving the original target.
	target := c.Request.URL.Path
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}
	c.Redirect(http.StatusFound, signInPath+"?callbackUrl="+url.QueryEscape(target))
	c.Abort()
}

func extractToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func isPublicPath(path string, extra []string) bool {
	for _, exact := range publicExactPaths {
		if path == exact {
			return true
		}
	}
	for _, exact := range extra {
		if path == exact {
			return true
		}
	}
	for _, prefix := range publicPrefixPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func matchRestriction(path string) (roleRestriction, bool) {
	for _, restriction := range roleRestrictions {
		if prefixMatch(path, restriction.apiPrefix) || prefixMatch(path, restriction.pagePrefix) {
			return restriction, true
		}
	}
	return roleRestriction{}, false
}

// prefixMatch treats "/admin" as matching "/admin" and "/admin/..." but never
// "/administrators".
func prefixMatch(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

func roleAllowed(role models.Role, allowed []models.Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

var assetSuffixes = []string{".css", ".js", ".map", ".png", ".jpg", ".svg", ".ico", ".woff", ".woff2"}

func applyAssetHeaders(c *gin.Context, path string) {
	if !isAssetPath(path) {
		return
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
}

func isAssetPath(path string) bool {
	if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/assets/") {
		return true
	}
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
