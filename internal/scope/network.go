package scope

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	apperrors "github.com/carenethq/carenet/pkg/errors"
)

// ContextKind classifies a principal's relationship to the network tenancy model.
type ContextKind int

const (
	// KindNone means the principal has no network and only ever reaches
	// self-owned resources.
	KindNone ContextKind = iota
	// KindGlobal is the super admin's unrestricted view.
	KindGlobal
	// KindOwned marks an admin who owns the network identified by AdminUserID.
	KindOwned
	// KindMember marks a patient/doctor/attendant enrolled in the network
	// owned by AdminUserID.
	KindMember
)

// NetworkContext is the resolved tenancy position of a principal.
type NetworkContext struct {
	Kind        ContextKind
	AdminUserID string
}

// ErrAdminNetworkMissing reports an admin principal with no network row. The
// account state is inconsistent, so it renders as a not-found condition,
// never as an unrestricted context.
var ErrAdminNetworkMissing = &apperrors.AppError{
	Code:       "NOT_FOUND",
	Message:    "Network not found",
	StatusCode: http.StatusNotFound,
	Internal:   errors.New("admin principal has no network"),
}

// Resolver determines the network context of principals.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a network membership resolver.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("scope resolver: db is required")
	}
	return &Resolver{db: db}, nil
}

// ResolveNetwork maps a principal onto its NetworkContext with a single read
// against membership/ownership storage.
func (r *Resolver) ResolveNetwork(ctx context.Context, principal *models.User) (NetworkContext, error) {
	ctx = ensureContext(ctx)

	if principal == nil {
		return NetworkContext{}, errors.New("scope resolver: principal is required")
	}

	switch principal.Role {
	case models.RoleSuperAdmin:
		return NetworkContext{Kind: KindGlobal}, nil

	case models.RoleAdmin:
		var network models.Network
		err := r.db.WithContext(ctx).
			Select("admin_user_id").
			Take(&network, "admin_user_id = ?", principal.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NetworkContext{}, ErrAdminNetworkMissing
		}
		if err != nil {
			return NetworkContext{}, fmt.Errorf("scope resolver: load network: %w", err)
		}
		return NetworkContext{Kind: KindOwned, AdminUserID: network.AdminUserID}, nil

	case models.RolePatient, models.RoleDoctor, models.RoleAttendant:
		var membership models.NetworkMembership
		err := r.db.WithContext(ctx).
			Select("admin_user_id").
			Take(&membership, "member_user_id = ?", principal.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NetworkContext{Kind: KindNone}, nil
		}
		if err != nil {
			return NetworkContext{}, fmt.Errorf("scope resolver: load membership: %w", err)
		}
		return NetworkContext{Kind: KindMember, AdminUserID: membership.AdminUserID}, nil

	default:
		return NetworkContext{Kind: KindNone}, nil
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
