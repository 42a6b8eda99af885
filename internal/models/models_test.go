package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openModelsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&User{},
		&Network{},
		&NetworkMembership{},
		&SubscriptionPlan{},
		&UserSubscription{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" doctor ")
	require.True(t, ok)
	require.Equal(t, RoleDoctor, role)

	_, ok = ParseRole("janitor")
	require.False(t, ok)
}

func TestRoleSelfAccess(t *testing.T) {
	require.True(t, RolePatient.SelfAccess())
	require.True(t, RoleDoctor.SelfAccess())
	require.True(t, RoleAttendant.SelfAccess())
	require.False(t, RoleAdmin.SelfAccess())
	require.False(t, RoleControlRoom.SelfAccess())
	require.False(t, RoleSuperAdmin.SelfAccess())
}

func TestNetworkMembershipSingleNetworkPerMember(t *testing.T) {
	db := openModelsTestDB(t)

	admin := &User{Email: "admin@example.com", Password: "x", Role: RoleAdmin}
	otherAdmin := &User{Email: "admin2@example.com", Password: "x", Role: RoleAdmin}
	member := &User{Email: "patient@example.com", Password: "x", Role: RolePatient}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(otherAdmin).Error)
	require.NoError(t, db.Create(member).Error)

	first := &NetworkMembership{
		AdminUserID:  admin.ID,
		MemberUserID: member.ID,
		MemberKind:   MemberKindPatient,
		JoinedAt:     time.Now(),
	}
	require.NoError(t, db.Create(first).Error)

	dup := &NetworkMembership{
		AdminUserID:  admin.ID,
		MemberUserID: member.ID,
		MemberKind:   MemberKindPatient,
		JoinedAt:     time.Now(),
	}
	require.Error(t, db.Create(dup).Error)

	// Unique on member_user_id alone: a second admin cannot enroll the same
	// member either.
	crossNetwork := &NetworkMembership{
		AdminUserID:  otherAdmin.ID,
		MemberUserID: member.ID,
		MemberKind:   MemberKindPatient,
		JoinedAt:     time.Now(),
	}
	require.Error(t, db.Create(crossNetwork).Error)
}

func TestUserSubscriptionExpired(t *testing.T) {
	now := time.Now()
	sub := &UserSubscription{
		StartDate: now.Add(-48 * time.Hour),
		EndDate:   now.Add(-time.Hour),
	}
	require.True(t, sub.Expired(now))

	sub.EndDate = now.Add(time.Hour)
	require.False(t, sub.Expired(now))
}
