package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/quota"
	"github.com/carenethq/carenet/internal/services"
	"github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/response"
)

// SubscriptionHandler covers plan listing, purchase, usage status, and the
// consume endpoint the booking flows debit against.
type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
	audit         *services.AuditService
}

func NewSubscriptionHandler(subscriptions *services.SubscriptionService, audit *services.AuditService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, audit: audit}
}

// GET /api/subscriptions/plans
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	plans, err := h.subscriptions.ListPlans(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, plans)
}

type purchaseRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// POST /api/subscriptions/purchase
func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req purchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}

	subscription, err := h.subscriptions.Purchase(requestContext(c), principal.ID, strings.TrimSpace(req.PlanID))
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Log(requestContext(c), services.AuditEntry{
			UserID:    &principal.ID,
			Email:     principal.Email,
			Action:    services.AuditActionSubscriptionPurchase,
			Resource:  "subscriptions",
			Result:    services.AuditSuccess,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Metadata:  map[string]any{"plan": subscription.PlanID},
		})
	}

	response.Success(c, http.StatusCreated, subscription)
}

// GET /api/subscriptions/status
func (h *SubscriptionHandler) Status(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	status, err := h.subscriptions.Status(requestContext(c), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

type consumeRequest struct {
	Service string `json:"service" validate:"required"`
	Amount  int    `json:"amount"`
}

// POST /api/subscriptions/consume
func (h *SubscriptionHandler) Consume(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req consumeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	service, err := quota.ParseServiceType(req.Service)
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}

	amount := req.Amount
	if amount == 0 {
		amount = 1
	}

	consumption, err := h.subscriptions.Consume(requestContext(c), principal.ID, service, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, consumption)
}
