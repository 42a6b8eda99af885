package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/internal/scope"
	apperrors "github.com/carenethq/carenet/pkg/errors"
)

// PatientProfileInput carries the mutable clinical directory fields.
type PatientProfileInput struct {
	DateOfBirth      *time.Time
	Gender           string
	BloodGroup       string
	Address          string
	EmergencyContact string
	MedicalHistory   string
}

// PatientService exposes the patient directory, with every read and write
// gated by the resource scope guard.
type PatientService struct {
	db    *gorm.DB
	guard *scope.Guard
}

// NewPatientService constructs a PatientService.
func NewPatientService(db *gorm.DB, guard *scope.Guard) (*PatientService, error) {
	if db == nil {
		return nil, errors.New("patient service: db is required")
	}
	if guard == nil {
		return nil, errors.New("patient service: scope guard is required")
	}
	return &PatientService{db: db, guard: guard}, nil
}

// CreateProfile provisions the directory record for a patient principal.
func (s *PatientService) CreateProfile(ctx context.Context, principal *models.User, patientUserID string, input PatientProfileInput) (*models.PatientProfile, error) {
	ctx = ensureContext(ctx)

	if principal == nil {
		return nil, apperrors.ErrUnauthorized
	}

	// Self-access patients may only create their own profile; admins create
	// profiles for members of their network; the super admin is unrestricted.
	if principal.Role.SelfAccess() && principal.ID != patientUserID {
		return nil, apperrors.ErrForbidden
	}

	var patient models.User
	err := s.db.WithContext(ctx).Take(&patient, "id = ?", patientUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient service: find user: %w", err)
	}
	if patient.Role != models.RolePatient {
		return nil, apperrors.ErrBadRequest.WithMessage("user is not a patient")
	}

	if principal.Role == models.RoleAdmin {
		var memberships int64
		if err := s.db.WithContext(ctx).
			Model(&models.NetworkMembership{}).
			Where("admin_user_id = ? AND member_user_id = ?", principal.ID, patientUserID).
			Count(&memberships).Error; err != nil {
			return nil, fmt.Errorf("patient service: check membership: %w", err)
		}
		if memberships == 0 {
			return nil, apperrors.ErrForbidden
		}
	}

	profile := &models.PatientProfile{
		UserID:           patientUserID,
		DateOfBirth:      input.DateOfBirth,
		Gender:           strings.TrimSpace(input.Gender),
		BloodGroup:       strings.TrimSpace(input.BloodGroup),
		Address:          strings.TrimSpace(input.Address),
		EmergencyContact: strings.TrimSpace(input.EmergencyContact),
		MedicalHistory:   strings.TrimSpace(input.MedicalHistory),
	}

	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrBadRequest.WithMessage("patient already has a profile")
		}
		return nil, fmt.Errorf("patient service: create profile: %w", err)
	}

	return profile, nil
}

// GetProfile returns a single patient profile after a scope check. Missing
// profiles surface as 404 before ownership is considered.
func (s *PatientService) GetProfile(ctx context.Context, principal *models.User, profileID string) (*models.PatientProfile, error) {
	ctx = ensureContext(ctx)

	decision, err := s.guard.CheckAccess(ctx, principal, scope.ResourcePatient, profileID)
	if err != nil {
		return nil, err
	}
	if decisionErr := decisionError(decision); decisionErr != nil {
		return nil, decisionErr
	}

	var profile models.PatientProfile
	err = s.db.WithContext(ctx).Preload("User").Take(&profile, "id = ?", profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient service: get profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile mutates a profile under the same scope rules as GetProfile.
func (s *PatientService) UpdateProfile(ctx context.Context, principal *models.User, profileID string, input PatientProfileInput) (*models.PatientProfile, error) {
	ctx = ensureContext(ctx)

	decision, err := s.guard.CheckAccess(ctx, principal, scope.ResourcePatient, profileID)
	if err != nil {
		return nil, err
	}
	if decisionErr := decisionError(decision); decisionErr != nil {
		return nil, decisionErr
	}

	updates := map[string]any{
		"gender":            strings.TrimSpace(input.Gender),
		"blood_group":       strings.TrimSpace(input.BloodGroup),
		"address":           strings.TrimSpace(input.Address),
		"emergency_contact": strings.TrimSpace(input.EmergencyContact),
		"medical_history":   strings.TrimSpace(input.MedicalHistory),
	}
	if input.DateOfBirth != nil {
		updates["date_of_birth"] = *input.DateOfBirth
	}

	if err := s.db.WithContext(ctx).
		Model(&models.PatientProfile{}).
		Where("id = ?", profileID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("patient service: update profile: %w", err)
	}

	return s.GetProfile(ctx, principal, profileID)
}

// ListProfiles returns the directory slice visible to the principal by
// applying the tenancy predicate to the query.
func (s *PatientService) ListProfiles(ctx context.Context, principal *models.User) ([]models.PatientProfile, error) {
	ctx = ensureContext(ctx)

	predicate, err := scope.AccessibleScope(principal, scope.ResourcePatient)
	if err != nil {
		return nil, err
	}

	var profiles []models.PatientProfile
	if err := s.db.WithContext(ctx).
		Scopes(predicate).
		Preload("User").
		Order("patient_profiles.created_at DESC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("patient service: list profiles: %w", err)
	}
	return profiles, nil
}

// DeleteProfile removes a profile; only admins over their own members and the
// super admin may delete.
func (s *PatientService) DeleteProfile(ctx context.Context, principal *models.User, profileID string) error {
	ctx = ensureContext(ctx)

	if principal == nil {
		return apperrors.ErrUnauthorized
	}
	if principal.Role.SelfAccess() || principal.Role == models.RoleControlRoom {
		return apperrors.ErrForbidden
	}

	decision, err := s.guard.CheckAccess(ctx, principal, scope.ResourcePatient, profileID)
	if err != nil {
		return err
	}
	if decisionErr := decisionError(decision); decisionErr != nil {
		return decisionErr
	}

	result := s.db.WithContext(ctx).Delete(&models.PatientProfile{}, "id = ?", profileID)
	if result.Error != nil {
		return fmt.Errorf("patient service: delete profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// decisionError maps a guard decision onto the error taxonomy.
func decisionError(decision scope.Decision) error {
	switch decision {
	case scope.Allow:
		return nil
	case scope.DenyNotFound:
		return apperrors.ErrNotFound
	default:
		return apperrors.ErrForbidden
	}
}
