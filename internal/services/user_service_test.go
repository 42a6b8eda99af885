package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carenethq/carenet/internal/models"
	apperrors "github.com/carenethq/carenet/pkg/errors"
)

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()
	input := CreateUserInput{
		Email:    "dup@example.com",
		Password: "long-enough-password",
		Role:     models.RolePatient,
	}

	_, err = svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.Create(ctx, input)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestCreateUserValidatesRoleAndPassword(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = svc.Create(ctx, CreateUserInput{
		Email:    "weak@example.com",
		Password: "short",
		Role:     models.RolePatient,
	})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateUserInput{
		Email:    "badrole@example.com",
		Password: "long-enough-password",
		Role:     models.Role("WIZARD"),
	})
	require.Error(t, err)
}

func TestChangeRoleOnlySuperAdmin(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()
	admin := seedUser(t, db, "role-admin@example.com", models.RoleAdmin)
	superAdmin := seedUser(t, db, "role-root@example.com", models.RoleSuperAdmin)
	target := seedUser(t, db, "role-target@example.com", models.RolePatient)

	err = svc.ChangeRole(ctx, admin, target.ID, models.RoleDoctor)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, svc.ChangeRole(ctx, superAdmin, target.ID, models.RoleDoctor))

	var reloaded models.User
	require.NoError(t, db.Take(&reloaded, "id = ?", target.ID).Error)
	require.Equal(t, models.RoleDoctor, reloaded.Role)
}

func TestUserListScopedToAdminNetwork(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()

	adminA := seedUser(t, db, "list-admin-a@example.com", models.RoleAdmin)
	adminB := seedUser(t, db, "list-admin-b@example.com", models.RoleAdmin)
	memberA := seedUser(t, db, "list-member-a@example.com", models.RolePatient)
	memberB := seedUser(t, db, "list-member-b@example.com", models.RolePatient)
	seedMembership(t, db, adminA, memberA, models.MemberKindPatient)
	seedMembership(t, db, adminB, memberB, models.MemberKindPatient)

	users, total, err := svc.List(ctx, adminA, UserListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	require.Equal(t, memberA.ID, users[0].ID)

	superAdmin := seedUser(t, db, "list-root@example.com", models.RoleSuperAdmin)
	_, total, err = svc.List(ctx, superAdmin, UserListOptions{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, total, int64(5))
}

func TestSelfRoleListSeesOnlyItself(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()
	patient := seedUser(t, db, "self-list@example.com", models.RolePatient)
	seedUser(t, db, "self-list-other@example.com", models.RolePatient)

	users, total, err := svc.List(ctx, patient, UserListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, patient.ID, users[0].ID)
}

func TestSetActiveUnknownUser(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	err = svc.SetActive(context.Background(), "missing-id", false)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
