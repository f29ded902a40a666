package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// TaskHandlers serves care tasks.
type TaskHandlers struct {
	svc   domain.TaskService
	guard domain.AccessGuard
	loc   *time.Location
}

// NewTaskHandlers creates task handlers. Due dates are calendar days in loc.
func NewTaskHandlers(svc domain.TaskService, guard domain.AccessGuard, loc *time.Location) *TaskHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskHandlers{svc: svc, guard: guard, loc: loc}
}

// TaskRequest carries the fields of a new or edited task. DueDate is
// YYYY-MM-DD; PatientID is ignored on update.
type TaskRequest struct {
	PatientID   uint   `json:"patient_id"`
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Completed   *bool  `json:"completed"`
}

// MoveTaskRequest names the direction of a reorder.
type MoveTaskRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

func (h *TaskHandlers) input(req *TaskRequest) (domain.TaskInput, error) {
	in := domain.TaskInput{
		PatientID:   req.PatientID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate, h.loc)
		if err != nil {
			return in, err
		}
		in.DueDate = &due
	}
	return in, nil
}

// Create handles task creation
func (h *TaskHandlers) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req TaskRequest
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

	t, err := h.svc.Create(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, newTaskView(t, h.now()))
}

// List returns a patient's tasks in manual order. Optional filters:
// ?completed=true|false, ?due_from=, ?due_to= (YYYY-MM-DD, inclusive).
func (h *TaskHandlers) List(c *gin.Context) {
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

	var filter domain.TaskFilter
	if raw := c.Query("completed"); raw != "" {
		done, perr := strconv.ParseBool(raw)
		if perr != nil {
			respondError(c, domain.NewValidationError("completed must be true or false"))
			return
		}
		filter.Completed = &done
	}
	if filter.DueFrom, ok = optionalDate(c, "due_from", h.loc); !ok {
		return
	}
	if filter.DueTo, ok = optionalDate(c, "due_to", h.loc); !ok {
		return
	}

	tasks, err := h.svc.List(ctx, a, patientID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newTaskViews(tasks, h.now()))
}

// Get returns one task
func (h *TaskHandlers) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.svc.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newTaskView(t, h.now()))
}

// Update edits a task
func (h *TaskHandlers) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in, err := h.input(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	t, err := h.svc.Update(c.Request.Context(), a, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newTaskView(t, h.now()))
}

// Toggle flips a task between open and done
func (h *TaskHandlers) Toggle(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.svc.ToggleCompleted(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newTaskView(t, h.now()))
}

// Move swaps a task with its neighbour and returns the reordered list
func (h *TaskHandlers) Move(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tasks, err := h.svc.Move(c.Request.Context(), a, id, req.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newTaskViews(tasks, h.now()))
}

// Delete removes a task
func (h *TaskHandlers) Delete(c *gin.Context) {
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

func (h *TaskHandlers) now() time.Time {
	return time.Now().In(h.loc)
}

// optionalDate reads a YYYY-MM-DD query parameter. Absent means nil; a
// malformed value writes a 400.
func optionalDate(c *gin.Context, key string, loc *time.Location) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	d, err := parseDate(raw, loc)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return &d, true
}
