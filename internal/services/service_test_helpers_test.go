package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carenethq/carenet/internal/models"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Network{},
		&models.NetworkMembership{},
		&models.PatientProfile{},
		&models.DoctorProfile{},
		&models.AttendantProfile{},
		&models.SubscriptionPlan{},
		&models.UserSubscription{},
		&models.Session{},
		&models.AuditLog{},
		&models.CacheEntry{},
	))
	return db
}

func intPtr(v int) *int { return &v }

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		Password: "hashed-password",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Model(user).Update("is_active", true).Error)
	return user
}

func seedMembership(t *testing.T, db *gorm.DB, admin, member *models.User, kind models.MemberKind) {
	t.Helper()

	membership := &models.NetworkMembership{
		AdminUserID:  admin.ID,
		MemberUserID: member.ID,
		MemberKind:   kind,
	}
	require.NoError(t, db.Create(membership).Error)
}
