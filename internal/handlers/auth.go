package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/carenethq/carenet/internal/auth"
	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/internal/permissions"
	"github.com/carenethq/carenet/internal/services"
	"github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/response"
)

// AuthHandler manages authentication flows (register/login/refresh/logout/me).
type AuthHandler struct {
	login    *iauth.LoginService
	sessions *iauth.SessionService
	users    *services.UserService
	audit    *services.AuditService
}

func NewAuthHandler(login *iauth.LoginService, sessions *iauth.SessionService, users *services.UserService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{login: login, sessions: sessions, users: users, audit: audit}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/register
//
// Self-service registration always creates a PATIENT account. Privileged
// roles are provisioned through the admin user endpoints.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Create(requestContext(c), services.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      models.RolePatient,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, &user.ID, user.Email, services.AuditActionRegister, services.AuditSuccess)
	response.Success(c, http.StatusCreated, userPayload(user))
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.login.Login(requestContext(c), iauth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.record(c, nil, strings.ToLower(strings.TrimSpace(req.Email)), services.AuditActionLogin, services.AuditFailure)
		response.Error(c, err)
		return
	}

	h.record(c, &result.User.ID, result.User.Email, services.AuditActionLogin, services.AuditSuccess)
	setSessionCookie(c, result.Tokens.AccessToken)

	response.Success(c, http.StatusOK, gin.H{
		"tokens":  tokenResponse{AccessToken: result.Tokens.AccessToken, RefreshToken: result.Tokens.RefreshToken},
		"user":    userPayload(result.User),
		"landing": middleware.RoleLanding(result.User.Role),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		response.Error(c, errors.NewBadRequest("refresh token is required"))
		return
	}

	pair, _, err := h.sessions.RefreshSession(req.RefreshToken)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	setSessionCookie(c, pair.AccessToken)
	response.Success(c, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	v, ok := c.Get(middleware.CtxSessionIDKey)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	sid, _ := v.(string)
	if sid == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(sid); err != nil {
		response.Error(c, err)
		return
	}

	if user, ok := middleware.CurrentUser(c); ok {
		h.record(c, &user.ID, user.Email, services.AuditActionLogout, services.AuditSuccess)
	}
	clearSessionCookie(c)
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, userPayload(user))
}

func (h *AuthHandler) record(c *gin.Context, userID *string, email, action string, result services.AuditResult) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(requestContext(c), services.AuditEntry{
		UserID:    userID,
		Email:     email,
		Action:    action,
		Resource:  "auth",
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}

// userPayload renders the principal along with its effective permission list
// and landing path so clients never re-derive either.
func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"role":        user.Role,
		"is_active":   user.IsActive,
		"permissions": permissions.ResolveList(user.Role, user.CustomPermissions),
		"landing":     middleware.RoleLanding(user.Role),
	}
}

func setSessionCookie(c *gin.Context, accessToken string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, accessToken, int(iauth.DefaultAccessTokenTTL.Seconds()), "/", "", false, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
}
