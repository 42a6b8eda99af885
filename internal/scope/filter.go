package scope

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
)

// tableFor maps resource types onto their backing table names, used when
// composing list predicates.
func tableFor(resourceType ResourceType) (string, error) {
	switch resourceType {
	case ResourcePatient:
		return "patient_profiles", nil
	case ResourceDoctor:
		return "doctor_profiles", nil
	case ResourceAttendant:
		return "attendant_profiles", nil
	case ResourceNetwork:
		return "networks", nil
	default:
		return "", fmt.Errorf("scope filter: unknown resource type %q", resourceType)
	}
}

// AccessibleScope builds the filter predicate a listing query must apply for
// the principal. It returns a GORM scope, never a materialized list:
//   - super admin and control room queries pass through unfiltered (control
//     room listings are gated by permission strings instead);
//   - admins see rows whose owner holds a membership in their network;
//   - self-access roles see only rows they own.
//
// An incorrect predicate here is a silent cross-tenant data leak, which is why
// this construction is unit-tested independently of storage handlers.
func AccessibleScope(principal *models.User, resourceType ResourceType) (func(*gorm.DB) *gorm.DB, error) {
	table, err := tableFor(resourceType)
	if err != nil {
		return nil, err
	}

	if principal == nil {
		return nil, fmt.Errorf("scope filter: principal is required")
	}

	switch principal.Role {
	case models.RoleSuperAdmin, models.RoleControlRoom:
		return func(db *gorm.DB) *gorm.DB { return db }, nil

	case models.RoleAdmin:
		adminID := principal.ID
		if resourceType == ResourceNetwork {
			return func(db *gorm.DB) *gorm.DB {
				return db.Where("networks.admin_user_id = ?", adminID)
			}, nil
		}
		join := fmt.Sprintf(
			"JOIN network_memberships ON network_memberships.member_user_id = %s.user_id", table)
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins(join).Where("network_memberships.admin_user_id = ?", adminID)
		}, nil

	default:
		ownerColumn := fmt.Sprintf("%s.user_id", table)
		if resourceType == ResourceNetwork {
			ownerColumn = "networks.admin_user_id"
		}
		principalID := principal.ID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(fmt.Sprintf("%s = ?", ownerColumn), principalID)
		}, nil
	}
}
