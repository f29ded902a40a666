package handlers

import (
	"net/http"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// PatientHandlers serves the patient medical profile.
type PatientHandlers struct {
	svc   domain.PatientProfileService
	guard domain.AccessGuard
}

// NewPatientHandlers creates patient profile handlers
func NewPatientHandlers(svc domain.PatientProfileService, guard domain.AccessGuard) *PatientHandlers {
	return &PatientHandlers{svc: svc, guard: guard}
}

// PatientProfileRequest is a partial profile update. A weight or height of 0
// clears the value.
type PatientProfileRequest struct {
	BloodType         *string  `json:"blood_type"`
	WeightKg          *float64 `json:"weight_kg"`
	HeightCm          *float64 `json:"height_cm"`
	Allergies         *string  `json:"allergies"`
	MedicalConditions *string  `json:"medical_conditions"`
	Notes             *string  `json:"notes"`
	HealthInsurance   *string  `json:"health_insurance" binding:"omitempty,max=255"`
	MemberNumber      *string  `json:"member_number" binding:"omitempty,max=100"`
}

// patientParam resolves the :id path segment. "me" is the calling patient.
func (h *PatientHandlers) patientParam(c *gin.Context, a domain.Actor) (uint, bool) {
	if c.Param("id") == "me" {
		id, err := h.guard.ResolvePatientID(c.Request.Context(), a, nil)
		if err != nil {
			respondError(c, err)
			return 0, false
		}
		return id, true
	}
	return pathID(c, "id")
}

// GetProfile returns a patient's medical profile
func (h *PatientHandlers) GetProfile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	patientID, ok := h.patientParam(c, a)
	if !ok {
		return
	}

	p, err := h.svc.Get(c.Request.Context(), a, patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newProfileView(p))
}

// UpdateProfile edits a patient's medical profile
func (h *PatientHandlers) UpdateProfile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	patientID, ok := h.patientParam(c, a)
	if !ok {
		return
	}
	var req PatientProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.svc.Update(c.Request.Context(), a, patientID, domain.PatientProfileInput{
		BloodType:         req.BloodType,
		WeightKg:          req.WeightKg,
		HeightCm:          req.HeightCm,
		Allergies:         req.Allergies,
		MedicalConditions: req.MedicalConditions,
		Notes:             req.Notes,
		HealthInsurance:   req.HealthInsurance,
		MemberNumber:      req.MemberNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newProfileView(p))
}
