package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	apperrors "github.com/carenethq/carenet/pkg/errors"
)

// NetworkService manages the admin-owned tenant boundary and its memberships.
type NetworkService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNetworkService constructs a NetworkService.
func NewNetworkService(db *gorm.DB) (*NetworkService, error) {
	if db == nil {
		return nil, errors.New("network service: db is required")
	}
	return &NetworkService{db: db, now: time.Now}, nil
}

// CreateNetwork provisions the network owned by the given admin. An admin
// owns at most one network.
func (s *NetworkService) CreateNetwork(ctx context.Context, admin *models.User, name, description string) (*models.Network, error) {
	ctx = ensureContext(ctx)

	if admin == nil || admin.Role != models.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrBadRequest.WithMessage("network name is required")
	}

	network := &models.Network{
		AdminUserID: admin.ID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}

	if err := s.db.WithContext(ctx).Create(network).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrBadRequest.WithMessage("admin already owns a network")
		}
		return nil, fmt.Errorf("network service: create network: %w", err)
	}

	return network, nil
}

// NetworkOf returns the network owned by the admin, or NotFound.
func (s *NetworkService) NetworkOf(ctx context.Context, adminID string) (*models.Network, error) {
	ctx = ensureContext(ctx)

	var network models.Network
	err := s.db.WithContext(ctx).Take(&network, "admin_user_id = ?", adminID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("network service: find network: %w", err)
	}
	return &network, nil
}

// AddMember places a non-admin principal inside the admin's network. A
// principal holds at most one membership, so joining a second network is
// rejected as well as rejoining the same one.
func (s *NetworkService) AddMember(ctx context.Context, admin *models.User, memberID string) (*models.NetworkMembership, error) {
	ctx = ensureContext(ctx)

	if admin == nil || admin.Role != models.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	if _, err := s.NetworkOf(ctx, admin.ID); err != nil {
		return nil, err
	}

	var member models.User
	err := s.db.WithContext(ctx).Take(&member, "id = ?", memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("network service: find member: %w", err)
	}

	kind, ok := memberKindFor(member.Role)
	if !ok {
		return nil, apperrors.ErrBadRequest.WithMessage("only patients, doctors and attendants can join a network")
	}

	// A principal belongs to at most one network. The unique index on
	// member_user_id backstops this check against concurrent inserts.
	var existing int64
	if err := s.db.WithContext(ctx).
		Model(&models.NetworkMembership{}).
		Where("member_user_id = ?", member.ID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("network service: check membership: %w", err)
	}
	if existing > 0 {
		return nil, apperrors.ErrBadRequest.WithMessage("principal already belongs to a network")
	}

	membership := &models.NetworkMembership{
		AdminUserID:  admin.ID,
		MemberUserID: member.ID,
		MemberKind:   kind,
		JoinedAt:     s.now(),
	}

	if err := s.db.WithContext(ctx).Create(membership).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrBadRequest.WithMessage("principal already belongs to a network")
		}
		return nil, fmt.Errorf("network service: add member: %w", err)
	}

	return membership, nil
}

// RemoveMember detaches a member from the admin's network.
func (s *NetworkService) RemoveMember(ctx context.Context, admin *models.User, memberID string) error {
	ctx = ensureContext(ctx)

	if admin == nil || admin.Role != models.RoleAdmin {
		return apperrors.ErrForbidden
	}

	result := s.db.WithContext(ctx).
		Where("admin_user_id = ? AND member_user_id = ?", admin.ID, memberID).
		Delete(&models.NetworkMembership{})
	if result.Error != nil {
		return fmt.Errorf("network service: remove member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListMembers returns the memberships of the admin's network.
func (s *NetworkService) ListMembers(ctx context.Context, adminID string, kind models.MemberKind) ([]models.NetworkMembership, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Where("admin_user_id = ?", adminID).
		Preload("Member")
	if kind != "" {
		query = query.Where("member_kind = ?", kind)
	}

	var memberships []models.NetworkMembership
	if err := query.Order("joined_at DESC").Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("network service: list members: %w", err)
	}
	return memberships, nil
}

func memberKindFor(role models.Role) (models.MemberKind, bool) {
	switch role {
	case models.RolePatient:
		return models.MemberKindPatient, true
	case models.RoleDoctor:
		return models.MemberKindDoctor, true
	case models.RoleAttendant:
		return models.MemberKindAttendant, true
	default:
		return "", false
	}
}
