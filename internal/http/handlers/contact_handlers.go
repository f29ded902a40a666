package handlers

import (
	"net/http"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// ContactHandlers serves emergency contacts.
type ContactHandlers struct {
	svc   domain.EmergencyContactService
	guard domain.AccessGuard
}

// NewContactHandlers creates emergency contact handlers
func NewContactHandlers(svc domain.EmergencyContactService, guard domain.AccessGuard) *ContactHandlers {
	return &ContactHandlers{svc: svc, guard: guard}
}

// ContactRequest carries a new or edited emergency contact. On create a
// patient may omit patient_id; caregivers must send it.
type ContactRequest struct {
	PatientID uint   `json:"patient_id"`
	Name      string `json:"name" binding:"required,max=255"`
	Relation  string `json:"relation" binding:"max=64"`
	Phone     string `json:"phone" binding:"required,max=20"`
	Email     string `json:"email" binding:"omitempty,email"`
	Primary   bool   `json:"is_primary"`
}

func (r *ContactRequest) input(patientID uint) domain.ContactInput {
	return domain.ContactInput{
		PatientID: patientID,
		Name:      r.Name,
		Relation:  r.Relation,
		Phone:     r.Phone,
		Email:     r.Email,
		Primary:   r.Primary,
	}
}

// Create handles emergency contact creation
func (h *ContactHandlers) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var requested *uint
	if req.PatientID != 0 {
		requested = &req.PatientID
	}
	ctx := c.Request.Context()
	patientID, err := h.guard.ResolvePatientID(ctx, a, requested)
	if err != nil {
		respondError(c, err)
		return
	}

	contact, err := h.svc.Create(ctx, a, req.input(patientID))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, newContactView(contact))
}

// List returns a patient's emergency contacts, primary first
func (h *ContactHandlers) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	requested, ok := optionalPatientID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	patientID, err := h.guard.ResolvePatientID(ctx, a, requested)
	if err != nil {
		respondError(c, err)
		return
	}

	contacts, err := h.svc.List(ctx, a, patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]contactView, 0, len(contacts))
	for i := range contacts {
		out = append(out, newContactView(&contacts[i]))
	}
	respondData(c, http.StatusOK, out)
}

// Update edits an emergency contact
func (h *ContactHandlers) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	contact, err := h.svc.Update(c.Request.Context(), a, id, req.input(0))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newContactView(contact))
}

// Delete removes an emergency contact
func (h *ContactHandlers) Delete(c *gin.Context) {
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
