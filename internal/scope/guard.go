package scope

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
)

// ResourceType names the resource kinds the guard can scope.
type ResourceType string

const (
	ResourcePatient   ResourceType = "patient"
	ResourceDoctor    ResourceType = "doctor"
	ResourceAttendant ResourceType = "attendant"
	ResourceNetwork   ResourceType = "network"
)

// Decision is the outcome of an access check. Not-found and forbidden denials
// stay distinguishable so callers can map them to 404 and 403 respectively.
type Decision int

const (
	DenyForbidden Decision = iota
	DenyNotFound
	Allow
)

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool { return d == Allow }

// Guard decides per-resource read/write eligibility from the tenancy model.
type Guard struct {
	db       *gorm.DB
	resolver *Resolver
}

// NewGuard constructs a resource scope guard.
func NewGuard(db *gorm.DB) (*Guard, error) {
	if db == nil {
		return nil, errors.New("scope guard: db is required")
	}
	resolver, err := NewResolver(db)
	if err != nil {
		return nil, err
	}
	return &Guard{db: db, resolver: resolver}, nil
}

// Resolver exposes the underlying network resolver.
func (g *Guard) Resolver() *Resolver { return g.resolver }

// CheckAccess decides whether the principal may touch the identified resource.
// An empty resourceID marks a list operation: admins are allowed through and
// are expected to additionally apply AccessibleScope to the query.
//
// Existence is checked before ownership so a missing resource is reported as
// not-found regardless of who asks.
func (g *Guard) CheckAccess(ctx context.Context, principal *models.User, resourceType ResourceType, resourceID string) (Decision, error) {
	ctx = ensureContext(ctx)

	if principal == nil {
		return DenyForbidden, errors.New("scope guard: principal is required")
	}

	switch principal.Role {
	case models.RoleSuperAdmin:
		return Allow, nil

	case models.RoleControlRoom:
		// No per-resource ownership model; handlers gate control room access
		// through permission strings instead.
		return Allow, nil

	case models.RoleAdmin:
		netCtx, err := g.resolver.ResolveNetwork(ctx, principal)
		if err != nil {
			return DenyForbidden, err
		}
		if resourceID == "" {
			return Allow, nil
		}

		ownerID, found, err := g.ownerOf(ctx, resourceType, resourceID)
		if err != nil {
			return DenyForbidden, err
		}
		if !found {
			return DenyNotFound, nil
		}

		return g.adminOwns(ctx, netCtx.AdminUserID, resourceType, ownerID)

	case models.RolePatient, models.RoleDoctor, models.RoleAttendant:
		if resourceID == "" {
			return Allow, nil
		}

		ownerID, found, err := g.ownerOf(ctx, resourceType, resourceID)
		if err != nil {
			return DenyForbidden, err
		}
		if !found {
			return DenyNotFound, nil
		}
		if ownerID == principal.ID {
			return Allow, nil
		}
		return DenyForbidden, nil

	default:
		return DenyForbidden, nil
	}
}

// adminOwns walks the ownership chain: resource owner -> NetworkMembership ->
// admin. Networks are owned directly by their admin.
func (g *Guard) adminOwns(ctx context.Context, adminID string, resourceType ResourceType, ownerID string) (Decision, error) {
	if resourceType == ResourceNetwork {
		if ownerID == adminID {
			return Allow, nil
		}
		return DenyForbidden, nil
	}

	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.NetworkMembership{}).
		Where("admin_user_id = ? AND member_user_id = ?", adminID, ownerID).
		Count(&count).Error
	if err != nil {
		return DenyForbidden, fmt.Errorf("scope guard: check membership: %w", err)
	}

	if count > 0 {
		return Allow, nil
	}
	return DenyForbidden, nil
}

// ownerOf resolves the owning principal id of a resource instance.
func (g *Guard) ownerOf(ctx context.Context, resourceType ResourceType, resourceID string) (string, bool, error) {
	type owned struct {
		OwnerID string
	}

	var (
		row owned
		err error
		tx  = g.db.WithContext(ctx)
	)

	switch resourceType {
	case ResourcePatient:
		err = tx.Model(&models.PatientProfile{}).
			Select("user_id AS owner_id").
			Take(&row, "id = ?", resourceID).Error
	case ResourceDoctor:
		err = tx.Model(&models.DoctorProfile{}).
			Select("user_id AS owner_id").
			Take(&row, "id = ?", resourceID).Error
	case ResourceAttendant:
		err = tx.Model(&models.AttendantProfile{}).
			Select("user_id AS owner_id").
			Take(&row, "id = ?", resourceID).Error
	case ResourceNetwork:
		err = tx.Model(&models.Network{}).
			Select("admin_user_id AS owner_id").
			Take(&row, "id = ?", resourceID).Error
	default:
		return "", false, fmt.Errorf("scope guard: unknown resource type %q", resourceType)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("scope guard: load %s owner: %w", resourceType, err)
	}
	return row.OwnerID, true, nil
}
