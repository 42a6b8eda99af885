package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/internal/quota"
	apperrors "github.com/carenethq/carenet/pkg/errors"
)

// SubscriptionStatus is the usage-versus-allowance view rendered to clients.
type SubscriptionStatus struct {
	Subscription *models.UserSubscription `json:"subscription"`
	Usage        []quota.Usage            `json:"usage"`
}

// SubscriptionService wraps plan listing, purchase, status and consumption on
// top of the quota ledger.
type SubscriptionService struct {
	db     *gorm.DB
	ledger *quota.Ledger
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(db *gorm.DB, ledger *quota.Ledger) (*SubscriptionService, error) {
	if db == nil {
		return nil, errors.New("subscription service: db is required")
	}
	if ledger == nil {
		return nil, errors.New("subscription service: quota ledger is required")
	}
	return &SubscriptionService{db: db, ledger: ledger}, nil
}

// ListPlans returns the purchasable plans.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	ctx = ensureContext(ctx)

	var plans []models.SubscriptionPlan
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_cents ASC").
		Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("subscription service: list plans: %w", err)
	}
	return plans, nil
}

// Purchase activates the plan for the user, atomically superseding any prior
// active subscription.
func (s *SubscriptionService) Purchase(ctx context.Context, userID, planID string) (*models.UserSubscription, error) {
	ctx = ensureContext(ctx)

	var plan models.SubscriptionPlan
	err := s.db.WithContext(ctx).Take(&plan, "id = ? AND is_active = ?", planID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("subscription plan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("subscription service: find plan: %w", err)
	}

	sub, err := s.ledger.Switch(ctx, userID, &plan)
	if err != nil {
		return nil, fmt.Errorf("subscription service: activate plan: %w", err)
	}
	sub.Plan = &plan
	return sub, nil
}

// Status reports the user's active subscription and the usage of all five
// service types against their (direct or derived) bounds.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	ctx = ensureContext(ctx)

	sub, usage, err := s.ledger.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SubscriptionStatus{Subscription: sub, Usage: usage}, nil
}

// Consume spends one or more units of a service benefit through the ledger.
func (s *SubscriptionService) Consume(ctx context.Context, userID string, service quota.ServiceType, amount int) (*quota.Consumption, error) {
	ctx = ensureContext(ctx)

	if amount <= 0 {
		return nil, apperrors.ErrBadRequest.WithMessage("amount must be positive")
	}
	return s.ledger.TryConsume(ctx, userID, service, amount)
}
