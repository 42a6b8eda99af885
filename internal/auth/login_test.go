package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/cache"
	"github.com/carenethq/carenet/internal/models"
	apperrors "github.com/carenethq/carenet/pkg/errors"
)

func setupLoginService(t *testing.T) (*gorm.DB, *LoginService) {
	t.Helper()

	db, sessions, _ := setupSessionService(t)

	store, err := cache.NewDatabaseStore(db)
	require.NoError(t, err)

	limiter, err := NewAttemptLimiter(store, AttemptLimiterConfig{MaxAttempts: 3})
	require.NoError(t, err)

	svc, err := NewLoginService(db, sessions, limiter)
	require.NoError(t, err)
	return db, svc
}

func TestLoginSuccess(t *testing.T) {
	db, svc := setupLoginService(t)
	user := createTestUser(t, db, "doctor@example.com", models.RoleDoctor)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:     "Doctor@Example.com",
		Password:  "password",
		IPAddress: "10.1.2.3",
		UserAgent: "unit-test",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)
	require.NotEmpty(t, result.Tokens.AccessToken)
	require.NotEmpty(t, result.Tokens.RefreshToken)

	var reloaded models.User
	require.NoError(t, db.Take(&reloaded, "id = ?", user.ID).Error)
	require.NotNil(t, reloaded.LastLoginAt)
	require.Equal(t, "10.1.2.3", reloaded.LastLoginIP)
}

func TestLoginWrongPassword(t *testing.T) {
	db, svc := setupLoginService(t)
	createTestUser(t, db, "patient@example.com", models.RolePatient)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "patient@example.com",
		Password: "wrong",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmailIndistinguishable(t *testing.T) {
	_, svc := setupLoginService(t)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "password",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginDeactivatedUserDenied(t *testing.T) {
	db, svc := setupLoginService(t)
	user := createTestUser(t, db, "gone@example.com", models.RoleAttendant)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "gone@example.com",
		Password: "password",
	})
	require.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	db, svc := setupLoginService(t)
	createTestUser(t, db, "locked@example.com", models.RolePatient)

	ctx := context.Background()
	input := LoginInput{
		Email:     "locked@example.com",
		Password:  "wrong",
		IPAddress: "10.0.0.9",
	}

	_, err := svc.Login(ctx, input)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, input)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// Third failure crosses the threshold.
	_, err = svc.Login(ctx, input)
	require.ErrorIs(t, err, apperrors.ErrAccountLocked)

	// Even the correct password is rejected while locked.
	input.Password = "password"
	_, err = svc.Login(ctx, input)
	require.ErrorIs(t, err, apperrors.ErrAccountLocked)
}

func TestLoginLockoutScopedToIP(t *testing.T) {
	db, svc := setupLoginService(t)
	createTestUser(t, db, "scoped@example.com", models.RolePatient)

	ctx := context.Background()
	wrong := LoginInput{Email: "scoped@example.com", Password: "wrong", IPAddress: "10.0.0.1"}
	for i := 0; i < 3; i++ {
		_, _ = svc.Login(ctx, wrong)
	}

	_, err := svc.Login(ctx, wrong)
	require.ErrorIs(t, err, apperrors.ErrAccountLocked)

	// Same identifier from another address is still allowed through.
	_, err = svc.Login(ctx, LoginInput{
		Email:     "scoped@example.com",
		Password:  "password",
		IPAddress: "192.168.0.7",
	})
	require.NoError(t, err)
}

func TestLoginResetsCounterOnSuccess(t *testing.T) {
	db, svc := setupLoginService(t)
	createTestUser(t, db, "reset@example.com", models.RolePatient)

	ctx := context.Background()
	wrong := LoginInput{Email: "reset@example.com", Password: "wrong", IPAddress: "10.0.0.2"}

	_, _ = svc.Login(ctx, wrong)
	_, _ = svc.Login(ctx, wrong)

	ok := wrong
	ok.Password = "password"
	_, err := svc.Login(ctx, ok)
	require.NoError(t, err)

	// The counter restarted, so two more failures stay below the threshold.
	_, err = svc.Login(ctx, wrong)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, wrong)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
