package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

func taskTitles(list []domain.Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.Title
	}
	return out
}

func TestTaskServiceImpl_CreateAppendsAndDefaultsPriority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	env.link(t, caregiver, patient)
	actor := domain.ActorFor(caregiver)

	first, err := env.taskSvc.Create(ctx, actor, domain.TaskInput{PatientID: patient.ID, Title: "Bañar"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := env.taskSvc.Create(ctx, actor, domain.TaskInput{PatientID: patient.ID, Title: "Cocinar", Priority: "high"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.Position != 1 || second.Position != 2 {
		t.Errorf("expected positions 1 and 2, got %d and %d", first.Position, second.Position)
	}
	if first.Priority != domain.TaskMedium || second.Priority != domain.TaskHigh {
		t.Errorf("unexpected priorities %s, %s", first.Priority, second.Priority)
	}
	if first.CaregiverID != caregiver.ID {
		t.Errorf("expected caregiver %d to own the task, got %d", caregiver.ID, first.CaregiverID)
	}

	_, err = env.taskSvc.Create(ctx, actor, domain.TaskInput{PatientID: patient.ID, Title: "x", Priority: "URGENT"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for unknown priority, got %v", err)
	}
	_, err = env.taskSvc.Create(ctx, actor, domain.TaskInput{PatientID: patient.ID, Title: "  "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for blank title, got %v", err)
	}
}

func TestTaskServiceImpl_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	stranger := env.createUser(t, "s@example.com", domain.RoleCaregiver)
	env.link(t, caregiver, patient)

	task, err := env.taskSvc.Create(ctx, domain.ActorFor(caregiver), domain.TaskInput{PatientID: patient.ID, Title: "Bañar"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.taskSvc.Create(ctx, domain.ActorFor(patient), domain.TaskInput{PatientID: patient.ID, Title: "x"}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("patients must not create tasks, got %v", err)
	}
	if _, err := env.taskSvc.Get(ctx, domain.ActorFor(stranger), task.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("unlinked caregiver must not read tasks, got %v", err)
	}

	toggled, err := env.taskSvc.ToggleCompleted(ctx, domain.ActorFor(patient), task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed || toggled.CompletedAt == nil || !toggled.CompletedAt.Equal(fixedNow) {
		t.Errorf("expected completed at %s, got %+v", fixedNow, toggled)
	}

	toggled, _ = env.taskSvc.ToggleCompleted(ctx, domain.ActorFor(caregiver), task.ID)
	if toggled.Completed || toggled.CompletedAt != nil {
		t.Errorf("second toggle should reopen the task, got %+v", toggled)
	}

	if err := env.taskSvc.Delete(ctx, domain.ActorFor(patient), task.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("patients must not delete tasks, got %v", err)
	}
}

func TestTaskServiceImpl_MoveAndDeleteRenumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	env.link(t, caregiver, patient)
	actor := domain.ActorFor(caregiver)

	var ids []uint
	for _, title := range []string{"a", "b", "c"} {
		task, err := env.taskSvc.Create(ctx, actor, domain.TaskInput{PatientID: patient.ID, Title: title})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, task.ID)
	}

	list, err := env.taskSvc.Move(ctx, actor, ids[2], "up")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := taskTitles(list); got[0] != "a" || got[1] != "c" || got[2] != "b" {
		t.Fatalf("expected a c b, got %v", got)
	}

	list, err = env.taskSvc.Move(ctx, actor, ids[0], "up")
	if err != nil {
		t.Fatalf("move at top: %v", err)
	}
	if list[0].ID != ids[0] {
		t.Errorf("moving the first task up must be a no-op, got %v", taskTitles(list))
	}

	if _, err := env.taskSvc.Move(ctx, actor, ids[0], "sideways"); !errors.Is(err, domain.ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}

	if err := env.taskSvc.Delete(ctx, actor, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = env.taskSvc.List(ctx, actor, patient.ID, domain.TaskFilter{})
	if len(list) != 2 {
		t.Fatalf("expected 2 tasks left, got %d", len(list))
	}
	for i, task := range list {
		if task.Position != i+1 {
			t.Errorf("expected position %d for %q, got %d", i+1, task.Title, task.Position)
		}
	}
	if list[0].Title != "c" {
		t.Errorf("expected c first after delete, got %v", taskTitles(list))
	}
}

func TestTaskServiceImpl_UpdateKeepsCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	env.link(t, caregiver, patient)
	actor := domain.ActorFor(caregiver)

	task, _ := env.taskSvc.Create(ctx, actor, domain.TaskInput{PatientID: patient.ID, Title: "Bañar"})
	if _, err := env.taskSvc.ToggleCompleted(ctx, actor, task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	updated, err := env.taskSvc.Update(ctx, actor, task.ID, domain.TaskInput{Title: "Bañar y vestir", DueDate: &due, Priority: "LOW"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Bañar y vestir" || updated.Priority != domain.TaskLow || !updated.Completed {
		t.Errorf("unexpected task after update %+v", updated)
	}
	if updated.Position != 1 {
		t.Errorf("update must not move the task, got position %d", updated.Position)
	}
}

func TestTask_Overdue(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	today := domain.DayStart(now)

	tests := []struct {
		name string
		task domain.Task
		want bool
	}{
		{"no due date", domain.Task{}, false},
		{"due today", domain.Task{DueDate: &today}, false},
		{"due yesterday", domain.Task{DueDate: &yesterday}, true},
		{"done yesterday", domain.Task{DueDate: &yesterday, Completed: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Overdue(now); got != tt.want {
				t.Errorf("Overdue() = %v, want %v", got, tt.want)
			}
		})
	}
}
