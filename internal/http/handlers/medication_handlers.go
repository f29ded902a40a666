package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// MedicationHandlers serves medications.
type MedicationHandlers struct {
	svc   domain.MedicationService
	guard domain.AccessGuard
	loc   *time.Location
}

// NewMedicationHandlers creates medication handlers. Calendar dates in
// requests are read in loc.
func NewMedicationHandlers(svc domain.MedicationService, guard domain.AccessGuard, loc *time.Location) *MedicationHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &MedicationHandlers{svc: svc, guard: guard, loc: loc}
}

// ScheduleRequest is one daily slot, optionally limited to weekday letters.
type ScheduleRequest struct {
	Time string   `json:"time" binding:"required"`
	Days []string `json:"days"`
}

// CreateMedicationRequest represents a new medication
type CreateMedicationRequest struct {
	PatientID uint              `json:"patient_id" binding:"required"`
	Name      string            `json:"name" binding:"required"`
	Dose      string            `json:"dose"`
	Frequency string            `json:"frequency"`
	Route     string            `json:"route"`
	StartDate string            `json:"start_date" binding:"required"`
	EndDate   string            `json:"end_date" binding:"required"`
	Notes     string            `json:"notes"`
	Schedules []ScheduleRequest `json:"schedules" binding:"required,min=1,dive"`
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, domain.NewValidationError("dates must be YYYY-MM-DD")
	}
	return d, nil
}

// Create handles medication creation
func (h *MedicationHandlers) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	start, err := parseDate(req.StartDate, h.loc)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseDate(req.EndDate, h.loc)
	if err != nil {
		respondError(c, err)
		return
	}

	in := domain.MedicationInput{
		PatientID: req.PatientID,
		Name:      req.Name,
		Dose:      req.Dose,
		Frequency: req.Frequency,
		Route:     req.Route,
		StartDate: start,
		EndDate:   end,
		Notes:     req.Notes,
	}
	for _, s := range req.Schedules {
		in.Schedules = append(in.Schedules, domain.ScheduleInput{Time: s.Time, Days: s.Days})
	}

	m, err := h.svc.Create(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, newMedicationView(m))
}

// List returns a patient's medications. Patients see their own; caregivers
// pass ?patient_id=. ?active=true hides deactivated ones.
func (h *MedicationHandlers) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	requested, ok := optionalPatientID(c)
	if !ok {
		return
	}
	patientID, err := h.guard.ResolvePatientID(c.Request.Context(), a, requested)
	if err != nil {
		respondError(c, err)
		return
	}
	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	meds, err := h.svc.ListByPatient(c.Request.Context(), a, patientID, onlyActive)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]medicationView, 0, len(meds))
	for i := range meds {
		out = append(out, newMedicationView(&meds[i]))
	}
	respondData(c, http.StatusOK, out)
}

// Get returns one medication
func (h *MedicationHandlers) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	m, err := h.svc.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newMedicationView(m))
}

// Deactivate stops a medication. Its reminders are kept.
func (h *MedicationHandlers) Deactivate(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	m, err := h.svc.Deactivate(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newMedicationView(m))
}

// Delete removes a medication with its schedule and reminders
func (h *MedicationHandlers) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
