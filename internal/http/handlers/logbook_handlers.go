package handlers

import (
	"net/http"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// LogbookHandlers serves the care logbook.
type LogbookHandlers struct {
	svc   domain.LogbookService
	guard domain.AccessGuard
	loc   *time.Location
}

// NewLogbookHandlers creates logbook handlers
func NewLogbookHandlers(svc domain.LogbookService, guard domain.AccessGuard, loc *time.Location) *LogbookHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &LogbookHandlers{svc: svc, guard: guard, loc: loc}
}

// LogEntryRequest carries a new or edited logbook entry. Date is YYYY-MM-DD
// and defaults to today; an empty title is generated from the date.
type LogEntryRequest struct {
	PatientID    uint   `json:"patient_id"`
	Date         string `json:"date"`
	Title        string `json:"title" binding:"max=255"`
	Description  string `json:"description" binding:"required"`
	Symptoms     string `json:"symptoms"`
	Observations string `json:"observations"`
}

func (h *LogbookHandlers) input(req *LogEntryRequest) (domain.LogEntryInput, error) {
	in := domain.LogEntryInput{
		PatientID:    req.PatientID,
		Title:        req.Title,
		Description:  req.Description,
		Symptoms:     req.Symptoms,
		Observations: req.Observations,
	}
	if req.Date != "" {
		d, err := parseDate(req.Date, h.loc)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	return in, nil
}

// Create handles logbook entry creation
func (h *LogbookHandlers) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req LogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.PatientID == 0 {
		respondError(c, domain.NewValidationError("patient_id is required"))
		return
	}
	in, err := h.input(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	e, err := h.svc.Create(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, newLogEntryView(e, h.loc))
}

// List returns a patient's entries, newest first. ?from= and ?to= bound the
// entry date inclusively.
func (h *LogbookHandlers) List(c *gin.Context) {
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
	from, ok := optionalDate(c, "from", h.loc)
	if !ok {
		return
	}
	to, ok := optionalDate(c, "to", h.loc)
	if !ok {
		return
	}

	entries, err := h.svc.List(ctx, a, patientID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newLogEntryViews(entries, h.loc))
}

// Mine returns the entries written by the calling caregiver
func (h *LogbookHandlers) Mine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	entries, err := h.svc.ListMine(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newLogEntryViews(entries, h.loc))
}

// Get returns one entry
func (h *LogbookHandlers) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	e, err := h.svc.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newLogEntryView(e, h.loc))
}

// Update edits an entry
func (h *LogbookHandlers) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req LogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in, err := h.input(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	e, err := h.svc.Update(c.Request.Context(), a, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newLogEntryView(e, h.loc))
}

// Delete removes an entry
func (h *LogbookHandlers) Delete(c *gin.Context) {
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
