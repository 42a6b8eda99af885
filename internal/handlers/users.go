package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/internal/permissions"
	"github.com/carenethq/carenet/internal/services"
	"github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/response"
)

// UserHandler exposes the principal directory and the privileged account
// operations (activation, role change, permission overlay).
type UserHandler struct {
	users *services.UserService
	audit *services.AuditService
}

func NewUserHandler(users *services.UserService, audit *services.AuditService) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=32"`
	Role      string `json:"role" validate:"required"`
}

// GET /api/users
//
// The listing is scoped by the caller's role inside the service: admins see
// their network members, self roles see only themselves.
func (h *UserHandler) List(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	opts := services.UserListOptions{
		Role:     models.Role(strings.TrimSpace(c.Query("role"))),
		Page:     page,
		PageSize: perPage,
	}

	users, total, err := h.users.List(requestContext(c), principal, opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, users, &response.Meta{Page: page, PerPage: perPage, Total: int(total)})
}

// POST /api/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Create(requestContext(c), services.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      models.Role(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, services.AuditActionUserCreate, services.AuditSuccess, map[string]any{"target": user.ID, "role": user.Role})
	response.Success(c, http.StatusCreated, user)
}

// GET /api/super-admin/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// PUT /api/super-admin/users/:id/active
func (h *UserHandler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	id := c.Param("id")
	if err := h.users.SetActive(requestContext(c), id, *req.Active); err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, services.AuditActionUserSetActive, services.AuditSuccess, map[string]any{"target": id, "active": *req.Active})
	response.Success(c, http.StatusOK, gin.H{"id": id, "is_active": *req.Active})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// PUT /api/super-admin/users/:id/role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req changeRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	id := c.Param("id")
	role := models.Role(strings.TrimSpace(req.Role))
	if err := h.users.ChangeRole(requestContext(c), principal, id, role); err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, services.AuditActionUserChangeRole, services.AuditSuccess, map[string]any{"target": id, "role": role})
	response.Success(c, http.StatusOK, gin.H{"id": id, "role": role})
}

type overlayRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

// PUT /api/super-admin/users/:id/permissions
//
// Replaces the target's permission overlay. The resolved effective set is
// returned so callers see base ∪ overlay immediately.
func (h *UserHandler) UpdateOverlay(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req overlayRequest
	if !bindAndValidate(c, &req) {
		return
	}

	raw, err := json.Marshal(gin.H{"permissions": req.Permissions})
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	id := c.Param("id")
	if err := h.users.UpdateOverlay(requestContext(c), principal, id, raw); err != nil {
		response.Error(c, err)
		return
	}

	target, err := h.users.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, services.AuditActionUserOverlay, services.AuditSuccess, map[string]any{"target": id})
	response.Success(c, http.StatusOK, gin.H{
		"id":          target.ID,
		"permissions": permissions.ResolveList(target.Role, target.CustomPermissions),
	})
}

func (h *UserHandler) record(c *gin.Context, action string, result services.AuditResult, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	entry := services.AuditEntry{
		Action:    action,
		Resource:  "users",
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Metadata:  metadata,
	}
	if user, ok := middleware.CurrentUser(c); ok {
		entry.UserID = &user.ID
		entry.Email = user.Email
	}
	_ = h.audit.Log(requestContext(c), entry)
}
