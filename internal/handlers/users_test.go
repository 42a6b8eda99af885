package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/internal/services"
)

func newUserHandler(t *testing.T) (*UserHandler, *gorm.DB) {
	t.Helper()

	db := openHandlerTestDB(t)
	users, err := services.NewUserService(db)
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	return NewUserHandler(users, audit), db
}

func TestUserHandlerCreateRejectsInvalidRole(t *testing.T) {
	handler, _ := newUserHandler(t)

	c, recorder := jsonContext(t, gin.H{
		"email":    "badrole@handler.test",
		"password": "sup3r-secret",
		"role":     "WIZARD",
	})
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUserHandlerChangeRoleRequiresSuperAdmin(t *testing.T) {
	handler, db := newUserHandler(t)
	admin := seedActiveUser(t, db, "rolechange-admin@handler.test", "sup3r-secret", models.RoleAdmin)
	target := seedActiveUser(t, db, "rolechange-target@handler.test", "sup3r-secret", models.RolePatient)

	c, recorder := jsonContext(t, gin.H{"role": "DOCTOR"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: target.ID}}
	c.Set(middleware.CtxUserKey, admin)
	handler.ChangeRole(c)

	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Equal(t, "FORBIDDEN", decodeErrorCode(t, recorder.Body.Bytes()))
}

func TestUserHandlerChangeRoleAsSuperAdmin(t *testing.T) {
	handler, db := newUserHandler(t)
	super := seedActiveUser(t, db, "rolechange-super@handler.test", "sup3r-secret", models.RoleSuperAdmin)
	target := seedActiveUser(t, db, "rolechange-patient@handler.test", "sup3r-secret", models.RolePatient)

	c, recorder := jsonContext(t, gin.H{"role": "DOCTOR"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: target.ID}}
	c.Set(middleware.CtxUserKey, super)
	handler.ChangeRole(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var stored models.User
	require.NoError(t, db.Take(&stored, "id = ?", target.ID).Error)
	require.Equal(t, models.RoleDoctor, stored.Role)
}

func TestUserHandlerUpdateOverlayReturnsEffectiveSet(t *testing.T) {
	handler, db := newUserHandler(t)
	super := seedActiveUser(t, db, "overlay-super@handler.test", "sup3r-secret", models.RoleSuperAdmin)
	target := seedActiveUser(t, db, "overlay-target@handler.test", "sup3r-secret", models.RolePatient)

	c, recorder := jsonContext(t, gin.H{"permissions": []string{"view_schedule"}})
	c.Params = gin.Params{gin.Param{Key: "id", Value: target.ID}}
	c.Set(middleware.CtxUserKey, super)
	handler.UpdateOverlay(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var data struct {
		Permissions []string `json:"permissions"`
	}
	decodeData(t, recorder.Body.Bytes(), &data)
	require.Contains(t, data.Permissions, "view_schedule")
	require.Contains(t, data.Permissions, "view_own_records")
}

func TestUserHandlerSetActiveDeactivates(t *testing.T) {
	handler, db := newUserHandler(t)
	super := seedActiveUser(t, db, "active-super@handler.test", "sup3r-secret", models.RoleSuperAdmin)
	target := seedActiveUser(t, db, "active-target@handler.test", "sup3r-secret", models.RolePatient)

	c, recorder := jsonContext(t, gin.H{"active": false})
	c.Params = gin.Params{gin.Param{Key: "id", Value: target.ID}}
	c.Set(middleware.CtxUserKey, super)
	handler.SetActive(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var stored models.User
	require.NoError(t, db.Take(&stored, "id = ?", target.ID).Error)
	require.False(t, stored.IsActive)
}

func TestUserHandlerListScopedToNetworkForAdmin(t *testing.T) {
	handler, db := newUserHandler(t)
	admin := seedActiveUser(t, db, "list-admin@handler.test", "sup3r-secret", models.RoleAdmin)
	member := seedActiveUser(t, db, "list-member@handler.test", "sup3r-secret", models.RolePatient)
	seedActiveUser(t, db, "list-outsider@handler.test", "sup3r-secret", models.RolePatient)

	require.NoError(t, db.Create(&models.NetworkMembership{
		AdminUserID:  admin.ID,
		MemberUserID: member.ID,
		MemberKind:   models.MemberKindPatient,
	}).Error)

	c, recorder := jsonContext(t, gin.H{})
	c.Request.Method = http.MethodGet
	c.Set(middleware.CtxUserKey, admin)
	handler.List(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var listed []models.User
	decodeData(t, recorder.Body.Bytes(), &listed)
	require.Len(t, listed, 1)
	require.Equal(t, member.ID, listed[0].ID)
}
