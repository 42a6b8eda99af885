package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	pkgerrors "github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/metrics"
)

// casRetries bounds how often a consume attempt re-reads the counter after a
// lost compare-and-set race. Exhaustion rejects the request (fail closed).
const casRetries = 5

var errLedgerContention = errors.New("quota ledger: counter contention, retries exhausted")

// Consumption reports a successful ledger debit. Remaining is nil when the
// service is unbounded under the plan.
type Consumption struct {
	Service   ServiceType `json:"service"`
	NewUsage  int         `json:"new_usage"`
	Remaining *int        `json:"remaining"`
}

// Ledger tracks per-subscription service consumption and enforces allowances
// with an atomic check-and-increment per subscription row.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

// LedgerConfig carries optional Ledger tuning.
type LedgerConfig struct {
	Clock func() time.Time
}

// NewLedger constructs a quota ledger backed by the provided database.
func NewLedger(db *gorm.DB, cfg LedgerConfig) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("quota ledger: db is required")
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &Ledger{db: db, now: now}, nil
}

// TryConsume debits amount units of the service from the principal's active
// subscription. The check and increment execute as an atomic unit through an
// optimistic compare-and-set on the counter column: two racing requests cannot
// both observe usage below the bound and both commit.
//
// Every rejection path — missing subscription, exhausted allowance, storage
// failure, context timeout, retry exhaustion — leaves the counters untouched.
func (l *Ledger) TryConsume(ctx context.Context, userID string, service ServiceType, amount int) (*Consumption, error) {
	ctx = ensureContext(ctx)

	if userID == "" {
		return nil, errors.New("quota ledger: user id is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("quota ledger: amount must be positive, got %d", amount)
	}

	column, err := usageColumn(service)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			// Fail closed: a timed-out check is a rejection, never a consume.
			metrics.QuotaDecisions.WithLabelValues(string(service), "rejected").Inc()
			return nil, pkgerrors.ErrQuotaExceeded.WithInternal(err)
		}

		sub, err := l.activeSubscription(ctx, userID)
		if err != nil {
			return nil, err
		}

		bound := BoundFor(sub.Plan, service)
		used := UsageOf(sub, service)

		if bound != nil && used+amount > *bound {
			metrics.QuotaDecisions.WithLabelValues(string(service), "rejected").Inc()
			return nil, &pkgerrors.QuotaError{Service: string(service), Used: used, Limit: *bound}
		}

		// Compare-and-set: the update only lands when the counter still holds
		// the value we based the bound check on.
		res := l.db.WithContext(ctx).
			Model(&models.UserSubscription{}).
			Where("id = ? AND is_active = ? AND "+column+" = ?", sub.ID, true, used).
			Update(column, used+amount)
		if res.Error != nil {
			metrics.QuotaDecisions.WithLabelValues(string(service), "rejected").Inc()
			return nil, pkgerrors.ErrQuotaExceeded.WithInternal(
				fmt.Errorf("quota ledger: update counter: %w", res.Error))
		}

		if res.RowsAffected == 1 {
			metrics.QuotaDecisions.WithLabelValues(string(service), "consumed").Inc()
			consumption := &Consumption{
				Service:  service,
				NewUsage: used + amount,
			}
			if bound != nil {
				remaining := *bound - (used + amount)
				consumption.Remaining = &remaining
			}
			return consumption, nil
		}

		// Lost the race; re-read and re-check against the bound.
	}

	metrics.QuotaDecisions.WithLabelValues(string(service), "rejected").Inc()
	return nil, pkgerrors.ErrQuotaExceeded.WithInternal(errLedgerContention)
}

// Usage summarises the principal's current consumption against every service
// bound. Remaining is nil for unbounded services.
type Usage struct {
	Service ServiceType `json:"service"`
	Used    int         `json:"used"`
	Limit   *int        `json:"limit"`
}

// Snapshot returns the usage of every service type under the active
// subscription.
func (l *Ledger) Snapshot(ctx context.Context, userID string) (*models.UserSubscription, []Usage, error) {
	ctx = ensureContext(ctx)

	sub, err := l.activeSubscription(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	usages := make([]Usage, 0, len(ServiceTypes))
	for _, service := range ServiceTypes {
		usages = append(usages, Usage{
			Service: service,
			Used:    UsageOf(sub, service),
			Limit:   BoundFor(sub.Plan, service),
		})
	}
	return sub, usages, nil
}

// activeSubscription loads the principal's single active, unexpired
// subscription together with its plan.
func (l *Ledger) activeSubscription(ctx context.Context, userID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := l.db.WithContext(ctx).
		Preload("Plan").
		Take(&sub, "user_id = ? AND is_active = ?", userID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNoActiveSubscription
	}
	if err != nil {
		// Fail closed on storage trouble during the check.
		return nil, pkgerrors.ErrQuotaExceeded.WithInternal(
			fmt.Errorf("quota ledger: load subscription: %w", err))
	}

	if sub.Expired(l.now()) {
		return nil, pkgerrors.ErrNoActiveSubscription
	}
	return &sub, nil
}

// Switch activates a subscription to the plan for the principal, deactivating
// any prior active subscription inside the same transaction. There is no
// observable instant with zero or two active rows for the principal.
func (l *Ledger) Switch(ctx context.Context, userID string, plan *models.SubscriptionPlan) (*models.UserSubscription, error) {
	ctx = ensureContext(ctx)

	if userID == "" {
		return nil, errors.New("quota ledger: user id is required")
	}
	if plan == nil {
		return nil, errors.New("quota ledger: plan is required")
	}

	now := l.now()
	sub := &models.UserSubscription{
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, plan.DurationDays),
		IsActive:  true,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserSubscription{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate previous subscription: %w", err)
		}

		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("quota ledger: switch subscription: %w", err)
	}

	sub.Plan = plan
	return sub, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
