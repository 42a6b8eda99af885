package handlers

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/pkg/crypto"
	"github.com/carenethq/carenet/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openHandlerTestDB(t *testing.T) *gorm.DB {
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

func seedActiveUser(t *testing.T, db *gorm.DB, email, password string, role models.Role) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Email:    email,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Model(user).Update("is_active", true).Error)
	return user
}

// decodeData unmarshals the envelope's data field into dest.
func decodeData(t *testing.T, body []byte, dest any) {
	t.Helper()

	var payload response.Response
	require.NoError(t, json.Unmarshal(body, &payload))
	require.True(t, payload.Success)

	raw, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func decodeErrorCode(t *testing.T, body []byte) string {
	t.Helper()

	var payload response.Response
	require.NoError(t, json.Unmarshal(body, &payload))
	require.False(t, payload.Success)
	require.NotNil(t, payload.Error)
	return payload.Error.Code
}
