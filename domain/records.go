package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskPriority ranks a care task.
type TaskPriority string

const (
	TaskLow    TaskPriority = "LOW"
	TaskMedium TaskPriority = "MEDIUM"
	TaskHigh   TaskPriority = "HIGH"
)

// ParseTaskPriority parses a priority name, case-insensitively. An empty
// string means MEDIUM.
func ParseTaskPriority(s string) (TaskPriority, error) {
	p := TaskPriority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case "":
		return TaskMedium, nil
	case TaskLow, TaskMedium, TaskHigh:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Task is a to-do item a caregiver keeps for a patient. Position is the
// manual ordering within the patient's list, starting at 1.
type Task struct {
	ID          uint
	PatientID   uint
	CaregiverID uint
	Title       string
	Description string
	DueDate     *time.Time
	Priority    TaskPriority
	Completed   bool
	CompletedAt *time.Time
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Overdue reports whether the task is open and its due date is a calendar
// day before now's.
func (t *Task) Overdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return DayStart(t.DueDate.In(now.Location())).Before(DayStart(now))
}

// SetCompleted flips completion and keeps CompletedAt in step.
func (t *Task) SetCompleted(done bool, now time.Time) {
	t.Completed = done
	if !done {
		t.CompletedAt = nil
		return
	}
	if t.CompletedAt == nil {
		at := now
		t.CompletedAt = &at
	}
}

// LogEntry is one care logbook entry written by a caregiver.
type LogEntry struct {
	ID           uint
	PatientID    uint
	CaregiverID  uint
	Date         time.Time
	Title        string
	Description  string
	Symptoms     string
	Observations string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LogEntryTitle is the default title of an entry on date. existing is the
// number of entries the patient already has on that date; from the second
// entry on, the ordinal is appended.
func LogEntryTitle(date time.Time, existing int64) string {
	title := "Bitácora del " + date.Format("02/01/2006")
	if existing > 0 {
		title += fmt.Sprintf(" %d", existing+1)
	}
	return title
}

// EmergencyContact is someone to call on a patient's behalf. A patient has at
// most one primary contact.
type EmergencyContact struct {
	ID        uint
	PatientID uint
	Name      string
	Relation  string
	Phone     string
	Email     string
	Primary   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
