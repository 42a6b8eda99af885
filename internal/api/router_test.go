package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	iauth "github.com/carenethq/carenet/internal/auth"
	"github.com/carenethq/carenet/internal/cache"
	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/pkg/crypto"
	"github.com/carenethq/carenet/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func newRouterFixture(t *testing.T) *routerFixture {
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

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-test-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	require.NoError(t, err)
	store, err := cache.NewDatabaseStore(db)
	require.NoError(t, err)
	limiter, err := iauth.NewAttemptLimiter(store, iauth.AttemptLimiterConfig{})
	require.NoError(t, err)
	login, err := iauth.NewLoginService(db, sessions, limiter)
	require.NoError(t, err)

	router, err := NewRouter(Deps{
		DB:       db,
		JWT:      jwtService,
		Sessions: sessions,
		Login:    login,
		Store:    store,
	})
	require.NoError(t, err)

	return &routerFixture{db: db, router: router}
}

func (fx *routerFixture) seedUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword("sup3r-secret")
	require.NoError(t, err)

	user := &models.User{Email: email, Password: hashed, Role: role, IsActive: true}
	require.NoError(t, fx.db.Create(user).Error)
	require.NoError(t, fx.db.Model(user).Update("is_active", true).Error)
	return user
}

func (fx *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	fx.router.ServeHTTP(recorder, req)
	return recorder
}

// loginToken signs the user in through the HTTP surface and returns the access token.
func (fx *routerFixture) loginToken(t *testing.T, email string) string {
	t.Helper()

	recorder := fx.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "sup3r-secret"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	data, ok := payload.Data.(map[string]any)
	require.True(t, ok)
	tokens, ok := data["tokens"].(map[string]any)
	require.True(t, ok)
	token, ok := tokens["access_token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestRouterHealthAndMetricsArePublic(t *testing.T) {
	fx := newRouterFixture(t)

	require.Equal(t, http.StatusOK, fx.do(t, http.MethodGet, "/api/health", "", nil).Code)
	require.Equal(t, http.StatusOK, fx.do(t, http.MethodGet, "/metrics", "", nil).Code)
}

func TestRouterRegisterLoginMeFlow(t *testing.T) {
	fx := newRouterFixture(t)

	recorder := fx.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "flow@router.test",
		"password": "sup3r-secret",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	token := fx.loginToken(t, "flow@router.test")

	me := fx.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &payload))
	data := payload.Data.(map[string]any)
	require.Equal(t, "flow@router.test", data["email"])
	require.Equal(t, "PATIENT", data["role"])
}

func TestRouterSuperAdminAuditMatrix(t *testing.T) {
	fx := newRouterFixture(t)
	fx.seedUser(t, "audit-admin@router.test", models.RoleAdmin)
	fx.seedUser(t, "audit-super@router.test", models.RoleSuperAdmin)

	// No token: API paths answer 401.
	require.Equal(t, http.StatusUnauthorized, fx.do(t, http.MethodGet, "/api/super-admin/audit", "", nil).Code)

	// Admin is stopped at the gateway's role restriction.
	adminToken := fx.loginToken(t, "audit-admin@router.test")
	require.Equal(t, http.StatusForbidden, fx.do(t, http.MethodGet, "/api/super-admin/audit", adminToken, nil).Code)

	superToken := fx.loginToken(t, "audit-super@router.test")
	require.Equal(t, http.StatusOK, fx.do(t, http.MethodGet, "/api/super-admin/audit", superToken, nil).Code)
}

func TestRouterAdminNetworkRequiresManageNetwork(t *testing.T) {
	fx := newRouterFixture(t)
	fx.seedUser(t, "network-admin@router.test", models.RoleAdmin)
	fx.seedUser(t, "network-patient@router.test", models.RolePatient)

	// Patients never reach the handler: the /api/admin prefix is role restricted.
	patientToken := fx.loginToken(t, "network-patient@router.test")
	require.Equal(t, http.StatusForbidden, fx.do(t, http.MethodPost, "/api/admin/network", patientToken, gin.H{"name": "Router Clinic"}).Code)

	adminToken := fx.loginToken(t, "network-admin@router.test")
	require.Equal(t, http.StatusCreated, fx.do(t, http.MethodPost, "/api/admin/network", adminToken, gin.H{"name": "Router Clinic"}).Code)
}

func TestRouterSubscriptionFlow(t *testing.T) {
	fx := newRouterFixture(t)
	fx.seedUser(t, "subs@router.test", models.RolePatient)

	plan := &models.SubscriptionPlan{
		Name:             "Router Plan",
		PriceCents:       1999,
		DurationDays:     30,
		MaxConsultations: intPtr(2),
		MaxFamilyMembers: intPtr(1),
		IsActive:         true,
	}
	require.NoError(t, fx.db.Create(plan).Error)

	token := fx.loginToken(t, "subs@router.test")

	require.Equal(t, http.StatusCreated, fx.do(t, http.MethodPost, "/api/subscriptions/purchase", token, gin.H{"plan_id": plan.ID}).Code)
	require.Equal(t, http.StatusOK, fx.do(t, http.MethodPost, "/api/subscriptions/consume", token, gin.H{"service": "consultation"}).Code)
	require.Equal(t, http.StatusOK, fx.do(t, http.MethodPost, "/api/subscriptions/consume", token, gin.H{"service": "consultation"}).Code)

	exhausted := fx.do(t, http.MethodPost, "/api/subscriptions/consume", token, gin.H{"service": "consultation"})
	require.Equal(t, http.StatusPaymentRequired, exhausted.Code)
}

func TestRouterUnknownRouteEnvelope(t *testing.T) {
	fx := newRouterFixture(t)
	fx.seedUser(t, "noroute@router.test", models.RolePatient)

	token := fx.loginToken(t, "noroute@router.test")
	recorder := fx.do(t, http.MethodGet, "/api/nope", token, nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.False(t, payload.Success)
}

func intPtr(v int) *int { return &v }
