package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/services"
	"github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/response"
)

// PatientHandler exposes the patient directory. Every operation delegates
// ownership and tenancy decisions to the scope guard inside the service.
type PatientHandler struct {
	patients *services.PatientService
}

func NewPatientHandler(patients *services.PatientService) *PatientHandler {
	return &PatientHandler{patients: patients}
}

type patientProfileRequest struct {
	UserID           string     `json:"user_id"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Gender           string     `json:"gender" validate:"max=20"`
	BloodGroup       string     `json:"blood_group" validate:"max=10"`
	Address          string     `json:"address" validate:"max=500"`
	EmergencyContact string     `json:"emergency_contact" validate:"max=120"`
	MedicalHistory   string     `json:"medical_history" validate:"max=4000"`
}

func (r patientProfileRequest) input() services.PatientProfileInput {
	return services.PatientProfileInput{
		DateOfBirth:      r.DateOfBirth,
		Gender:           strings.TrimSpace(r.Gender),
		BloodGroup:       strings.TrimSpace(r.BloodGroup),
		Address:          strings.TrimSpace(r.Address),
		EmergencyContact: strings.TrimSpace(r.EmergencyContact),
		MedicalHistory:   strings.TrimSpace(r.MedicalHistory),
	}
}

// POST /api/patients
//
// user_id defaults to the caller, which is how patients create their own
// profile. Admins pass the member's user id explicitly.
func (h *PatientHandler) Create(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req patientProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	targetID := strings.TrimSpace(req.UserID)
	if targetID == "" {
		targetID = principal.ID
	}

	profile, err := h.patients.CreateProfile(requestContext(c), principal, targetID, req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, profile)
}

// GET /api/patients
func (h *PatientHandler) List(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	profiles, err := h.patients.ListProfiles(requestContext(c), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profiles)
}

// GET /api/patients/:id
func (h *PatientHandler) Get(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	profile, err := h.patients.GetProfile(requestContext(c), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// PUT /api/patients/:id
func (h *PatientHandler) Update(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req patientProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.patients.UpdateProfile(requestContext(c), principal, c.Param("id"), req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// DELETE /api/patients/:id
func (h *PatientHandler) Delete(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.patients.DeleteProfile(requestContext(c), principal, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}
