package handlers

import (
	"net/http"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// ReminderHandlers serves reminder queries and status changes.
type ReminderHandlers struct {
	svc   domain.ReminderService
	guard domain.AccessGuard
	loc   *time.Location
}

// NewReminderHandlers creates reminder handlers
func NewReminderHandlers(svc domain.ReminderService, guard domain.AccessGuard, loc *time.Location) *ReminderHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderHandlers{svc: svc, guard: guard, loc: loc}
}

// StatusRequest sets a reminder status by name
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// parseInstant accepts a calendar date (midnight in loc) or an RFC 3339 timestamp.
func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return parseDate(raw, loc)
}

// List returns a patient's reminders. Filters, checked in order:
// ?date=YYYY-MM-DD, ?from=&to=, ?status=. Without filters every reminder is
// returned.
func (h *ReminderHandlers) List(c *gin.Context) {
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

	var rows []domain.ReminderDetails
	switch {
	case c.Query("date") != "":
		day, perr := parseDate(c.Query("date"), h.loc)
		if perr != nil {
			respondError(c, perr)
			return
		}
		rows, err = h.svc.ListForDay(ctx, a, patientID, day)
	case c.Query("from") != "" || c.Query("to") != "":
		from, ferr := parseInstant(c.Query("from"), h.loc)
		to, terr := parseInstant(c.Query("to"), h.loc)
		if ferr != nil || terr != nil {
			respondError(c, domain.NewValidationError("from and to are both required"))
			return
		}
		rows, err = h.svc.ListInRange(ctx, a, patientID, from, to)
	case c.Query("status") != "":
		status, perr := domain.ParseReminderStatus(c.Query("status"))
		if perr != nil {
			respondError(c, perr)
			return
		}
		rows, err = h.svc.ListByStatus(ctx, a, patientID, status)
	default:
		rows, err = h.svc.ListByPatient(ctx, a, patientID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]reminderView, 0, len(rows))
	for i := range rows {
		out = append(out, newReminderView(&rows[i]))
	}
	respondData(c, http.StatusOK, out)
}

// Cycle advances a reminder to its next status
func (h *ReminderHandlers) Cycle(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.CycleStatus(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newReminderView(&domain.ReminderDetails{Reminder: *r}))
}

// SetStatus sets a reminder status by name
func (h *ReminderHandlers) SetStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.svc.SetStatus(c.Request.Context(), a, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newReminderView(&domain.ReminderDetails{Reminder: *r}))
}

// Delete removes a single reminder
func (h *ReminderHandlers) Delete(c *gin.Context) {
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
