package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	iauth "github.com/carenethq/carenet/internal/auth"
	"github.com/carenethq/carenet/internal/cache"
	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/internal/services"
)

func openMaintenanceTestDB(t *testing.T) *gorm.DB {
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
		&models.Session{},
		&models.AuditLog{},
		&models.CacheEntry{},
	))
	return db
}

func TestCleanerRunOnce(t *testing.T) {
	db := openMaintenanceTestDB(t)
	now := time.Now()

	user := &models.User{Email: "cleaner@maintenance.test", Password: "hashed", Role: models.RolePatient, IsActive: true}
	require.NoError(t, db.Create(user).Error)

	expired := &models.Session{
		UserID:       user.ID,
		RefreshToken: "expired-token",
		ExpiresAt:    now.Add(-time.Hour),
		LastUsedAt:   now.Add(-2 * time.Hour),
	}
	active := &models.Session{
		UserID:       user.ID,
		RefreshToken: "active-token",
		ExpiresAt:    now.Add(time.Hour),
		LastUsedAt:   now,
	}
	require.NoError(t, db.Create(expired).Error)
	require.NoError(t, db.Create(active).Error)

	stale := &models.AuditLog{Action: "auth.login", Resource: "auth", Result: "success"}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Model(stale).Update("created_at", now.AddDate(0, 0, -40)).Error)
	fresh := &models.AuditLog{Action: "auth.login", Resource: "auth", Result: "success"}
	require.NoError(t, db.Create(fresh).Error)

	deadEntry := &models.CacheEntry{Key: "cleaner:dead", Value: []byte("1"), Count: 1, ExpiresAt: now.Add(-time.Minute)}
	liveEntry := &models.CacheEntry{Key: "cleaner:live", Value: []byte("1"), Count: 1, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, db.Create(deadEntry).Error)
	require.NoError(t, db.Create(liveEntry).Error)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "maintenance-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	store, err := cache.NewDatabaseStore(db)
	require.NoError(t, err)

	cleaner := NewCleaner(sessions, audit, store, WithAuditRetentionDays(30))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var sessionCount int64
	require.NoError(t, db.Model(&models.Session{}).Count(&sessionCount).Error)
	require.Equal(t, int64(1), sessionCount)

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.Equal(t, int64(1), auditCount)

	var entryCount int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&entryCount).Error)
	require.Equal(t, int64(1), entryCount)
}

func TestCleanerStartRegistersJobs(t *testing.T) {
	db := openMaintenanceTestDB(t)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "maintenance-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	store, err := cache.NewDatabaseStore(db)
	require.NoError(t, err)

	cleaner := NewCleaner(sessions, audit, store)
	require.NoError(t, cleaner.Start())
	t.Cleanup(func() { <-cleaner.Stop().Done() })
}

func TestCleanerRejectsBadSchedule(t *testing.T) {
	db := openMaintenanceTestDB(t)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "maintenance-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	require.NoError(t, err)

	cleaner := NewCleaner(sessions, nil, nil, WithSessionSchedule("not-a-spec"))
	require.Error(t, cleaner.Start())
}
