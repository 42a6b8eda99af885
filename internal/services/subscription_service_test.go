package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/internal/quota"
	apperrors "github.com/carenethq/carenet/pkg/errors"
)

func newSubscriptionService(t *testing.T, db *gorm.DB) *SubscriptionService {
	t.Helper()

	ledger, err := quota.NewLedger(db, quota.LedgerConfig{})
	require.NoError(t, err)
	svc, err := NewSubscriptionService(db, ledger)
	require.NoError(t, err)
	return svc
}

func seedPlan(t *testing.T, db *gorm.DB, name string, consultations *int) *models.SubscriptionPlan {
	t.Helper()

	plan := &models.SubscriptionPlan{
		Name:             name,
		PriceCents:       9900,
		DurationDays:     30,
		MaxConsultations: consultations,
		MaxFamilyMembers: intPtr(2),
		IsActive:         true,
	}
	require.NoError(t, db.Create(plan).Error)
	require.NoError(t, db.Model(plan).Update("is_active", true).Error)
	return plan
}

func TestPurchaseActivatesAndSupersedes(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newSubscriptionService(t, db)

	ctx := context.Background()
	user := seedUser(t, db, "sub-user@example.com", models.RolePatient)
	basic := seedPlan(t, db, "sub-basic", intPtr(5))
	family := seedPlan(t, db, "sub-family", intPtr(15))

	first, err := svc.Purchase(ctx, user.ID, basic.ID)
	require.NoError(t, err)
	require.True(t, first.IsActive)

	second, err := svc.Purchase(ctx, user.ID, family.ID)
	require.NoError(t, err)
	require.True(t, second.IsActive)

	var activeCount int64
	require.NoError(t, db.Model(&models.UserSubscription{}).
		Where("user_id = ? AND is_active = ?", user.ID, true).
		Count(&activeCount).Error)
	require.EqualValues(t, 1, activeCount)

	// Counters start fresh on the new subscription.
	require.Zero(t, second.ConsultationsUsed)
}

func TestPurchaseUnknownPlan(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newSubscriptionService(t, db)

	user := seedUser(t, db, "sub-noplan@example.com", models.RolePatient)

	_, err := svc.Purchase(context.Background(), user.ID, "missing-plan")
	require.Error(t, err)
	require.Contains(t, err.Error(), "plan not found")
}

func TestStatusReportsAllFiveServices(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newSubscriptionService(t, db)

	ctx := context.Background()
	user := seedUser(t, db, "sub-status@example.com", models.RolePatient)
	plan := seedPlan(t, db, "sub-status-plan", intPtr(10))

	_, err := svc.Purchase(ctx, user.ID, plan.ID)
	require.NoError(t, err)

	_, err = svc.Consume(ctx, user.ID, quota.ServiceConsultation, 2)
	require.NoError(t, err)

	status, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, status.Usage, 5)

	byService := make(map[quota.ServiceType]quota.Usage, len(status.Usage))
	for _, usage := range status.Usage {
		byService[usage.Service] = usage
	}

	require.Equal(t, 2, byService[quota.ServiceConsultation].Used)
	require.Equal(t, 10, *byService[quota.ServiceConsultation].Limit)
	require.Equal(t, 8, *byService[quota.ServiceLabTest].Limit)
	require.Equal(t, 15, *byService[quota.ServicePrescription].Limit)
	require.Equal(t, 6, *byService[quota.ServiceAIReport].Limit)
	require.Equal(t, 2, *byService[quota.ServiceFamilyMember].Limit)
}

func TestStatusWithoutSubscription(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newSubscriptionService(t, db)

	user := seedUser(t, db, "sub-none@example.com", models.RolePatient)

	_, err := svc.Status(context.Background(), user.ID)
	require.ErrorIs(t, err, apperrors.ErrNoActiveSubscription)
}

func TestConsumeValidatesAmount(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newSubscriptionService(t, db)

	user := seedUser(t, db, "sub-amount@example.com", models.RolePatient)

	_, err := svc.Consume(context.Background(), user.ID, quota.ServiceConsultation, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "positive")
}

func TestListPlansOrderedByPrice(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newSubscriptionService(t, db)

	cheap := seedPlan(t, db, "sub-cheap", intPtr(3))
	require.NoError(t, db.Model(cheap).Update("price_cents", 100).Error)
	seedPlan(t, db, "sub-pricey", intPtr(30))

	plans, err := svc.ListPlans(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(plans), 2)
	require.True(t, plans[0].PriceCents <= plans[len(plans)-1].PriceCents)
}
