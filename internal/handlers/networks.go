package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/internal/services"
	"github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/response"
)

// NetworkHandler manages an admin's care network and its memberships.
type NetworkHandler struct {
	networks *services.NetworkService
	audit    *services.AuditService
}

func NewNetworkHandler(networks *services.NetworkService, audit *services.AuditService) *NetworkHandler {
	return &NetworkHandler{networks: networks, audit: audit}
}

type createNetworkRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=120"`
	Description string `json:"description" validate:"max=500"`
}

// POST /api/admin/network
func (h *NetworkHandler) Create(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createNetworkRequest
	if !bindAndValidate(c, &req) {
		return
	}

	network, err := h.networks.CreateNetwork(requestContext(c), principal, strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, principal, services.AuditActionNetworkCreate, map[string]any{"network": network.ID})
	response.Success(c, http.StatusCreated, network)
}

// GET /api/admin/network
func (h *NetworkHandler) Get(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	network, err := h.networks.NetworkOf(requestContext(c), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, network)
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// POST /api/admin/network/members
func (h *NetworkHandler) AddMember(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req addMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}

	membership, err := h.networks.AddMember(requestContext(c), principal, strings.TrimSpace(req.UserID))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, principal, services.AuditActionMemberAdd, map[string]any{"member": membership.MemberUserID, "kind": membership.MemberKind})
	response.Success(c, http.StatusCreated, membership)
}

// DELETE /api/admin/network/members/:id
func (h *NetworkHandler) RemoveMember(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	memberID := c.Param("id")
	if err := h.networks.RemoveMember(requestContext(c), principal, memberID); err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, principal, services.AuditActionMemberRemove, map[string]any{"member": memberID})
	response.Success(c, http.StatusOK, gin.H{"removed": memberID})
}

// GET /api/admin/network/members?kind=patient
func (h *NetworkHandler) ListMembers(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	kind := models.MemberKind(strings.TrimSpace(c.Query("kind")))
	switch kind {
	case "", models.MemberKindPatient, models.MemberKindDoctor, models.MemberKindAttendant:
	default:
		response.Error(c, errors.NewBadRequest("kind must be one of: patient, doctor, attendant"))
		return
	}

	members, err := h.networks.ListMembers(requestContext(c), principal.ID, kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

func (h *NetworkHandler) record(c *gin.Context, principal *models.User, action string, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(requestContext(c), services.AuditEntry{
		UserID:    &principal.ID,
		Email:     principal.Email,
		Action:    action,
		Resource:  "networks",
		Result:    services.AuditSuccess,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Metadata:  metadata,
	})
}
