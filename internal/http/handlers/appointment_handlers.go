package handlers

import (
	"net/http"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// AppointmentHandlers serves appointments.
type AppointmentHandlers struct {
	svc   domain.AppointmentService
	guard domain.AccessGuard
}

// NewAppointmentHandlers creates appointment handlers
func NewAppointmentHandlers(svc domain.AppointmentService, guard domain.AccessGuard) *AppointmentHandlers {
	return &AppointmentHandlers{svc: svc, guard: guard}
}

// CreateAppointmentRequest represents a new appointment. DateTime is RFC 3339.
type CreateAppointmentRequest struct {
	PatientID  uint      `json:"patient_id" binding:"required"`
	DateTime   time.Time `json:"date_time" binding:"required"`
	Location   string    `json:"location"`
	DoctorName string    `json:"doctor_name"`
	Specialty  string    `json:"specialty"`
	Reason     string    `json:"reason"`
	Notes      string    `json:"notes"`
}

// Create handles appointment creation
func (h *AppointmentHandlers) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	appt, err := h.svc.Create(c.Request.Context(), a, domain.AppointmentInput{
		PatientID:  req.PatientID,
		DateTime:   req.DateTime,
		Location:   req.Location,
		DoctorName: req.DoctorName,
		Specialty:  req.Specialty,
		Reason:     req.Reason,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, newAppointmentView(appt))
}

// List returns a patient's appointments
func (h *AppointmentHandlers) List(c *gin.Context) {
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

	appts, err := h.svc.ListByPatient(c.Request.Context(), a, patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]appointmentView, 0, len(appts))
	for i := range appts {
		out = append(out, newAppointmentView(&appts[i]))
	}
	respondData(c, http.StatusOK, out)
}

// Get returns one appointment
func (h *AppointmentHandlers) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	appt, err := h.svc.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newAppointmentView(appt))
}

// Complete marks an appointment as attended
func (h *AppointmentHandlers) Complete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	appt, err := h.svc.MarkCompleted(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newAppointmentView(appt))
}

// Delete removes an appointment and its reminder
func (h *AppointmentHandlers) Delete(c *gin.Context) {
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
