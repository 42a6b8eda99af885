package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/pkg/crypto"
	apperrors "github.com/carenethq/carenet/pkg/errors"
)

// CreateUserInput carries the fields needed to register a principal.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      models.Role
}

// UserListOptions filters and paginates user listings.
type UserListOptions struct {
	Role     models.Role
	Page     int
	PageSize int
}

// UserService manages principal accounts.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Create registers a new principal with a fixed role.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.ErrBadRequest.WithMessage("email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.ErrBadRequest.WithMessage("password must be at least 8 characters")
	}
	if !input.Role.Valid() {
		return nil, apperrors.ErrBadRequest.WithMessage("invalid role")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Role:      input.Role,
		IsActive:  true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrBadRequest.WithMessage("email is already registered")
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// List returns users visible to the caller. Admins see only members of their
// own network (plus themselves); the super admin sees everyone.
func (s *UserService) List(ctx context.Context, principal *models.User, opts UserListOptions) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)

	if principal == nil {
		return nil, 0, apperrors.ErrUnauthorized
	}

	query := s.db.WithContext(ctx).Model(&models.User{})

	switch principal.Role {
	case models.RoleSuperAdmin, models.RoleControlRoom:
		// unrestricted
	case models.RoleAdmin:
		query = query.
			Joins("JOIN network_memberships ON network_memberships.member_user_id = users.id").
			Where("network_memberships.admin_user_id = ?", principal.ID)
	default:
		query = query.Where("users.id = ?", principal.ID)
	}

	if opts.Role != "" {
		if !opts.Role.Valid() {
			return nil, 0, apperrors.ErrBadRequest.WithMessage("invalid role filter")
		}
		query = query.Where("users.role = ?", opts.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count users: %w", err)
	}

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var users []models.User
	if err := query.
		Order("users.created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}

	return users, total, nil
}

// SetActive toggles the active flag for a principal.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("user service: set active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ChangeRole reassigns a principal's role. Role is immutable after creation
// except through this operation, which only the super admin may perform.
func (s *UserService) ChangeRole(ctx context.Context, actor *models.User, userID string, newRole models.Role) error {
	ctx = ensureContext(ctx)

	if actor == nil || actor.Role != models.RoleSuperAdmin {
		return apperrors.ErrForbidden
	}
	if !newRole.Valid() {
		return apperrors.ErrBadRequest.WithMessage("invalid role")
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("role", newRole)
	if result.Error != nil {
		return fmt.Errorf("user service: change role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateOverlay replaces an admin's custom permission overlay. Only admins
// carry overlays; for other roles the overlay is ignored by resolution.
func (s *UserService) UpdateOverlay(ctx context.Context, actor *models.User, userID string, overlay []byte) error {
	ctx = ensureContext(ctx)

	if actor == nil || actor.Role != models.RoleSuperAdmin {
		return apperrors.ErrForbidden
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("custom_permissions", overlay)
	if result.Error != nil {
		return fmt.Errorf("user service: update overlay: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
