package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// TaskServiceImpl implements domain.TaskService
type TaskServiceImpl struct {
	tasks domain.TaskRepository
	guard domain.AccessGuard
	tx    domain.Transactor
	clock domain.Clock
	log   *zap.Logger
}

// NewTaskService creates a new task service
func NewTaskService(tasks domain.TaskRepository, guard domain.AccessGuard, tx domain.Transactor, clock domain.Clock, log *zap.Logger) domain.TaskService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskServiceImpl{tasks: tasks, guard: guard, tx: tx, clock: clock, log: log.Named("tasks")}
}

// Create appends a task at the end of the patient's list.
func (s *TaskServiceImpl) Create(ctx context.Context, actor domain.Actor, in domain.TaskInput) (*domain.Task, error) {
	if err := s.guard.RequireCaregiver(ctx, actor, in.PatientID); err != nil {
		return nil, err
	}
	t := &domain.Task{PatientID: in.PatientID, CaregiverID: actor.ID}
	if err := s.apply(t, in); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		max, err := s.tasks.MaxPosition(ctx, in.PatientID)
		if err != nil {
			return err
		}
		t.Position = max + 1
		return s.tasks.Create(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return t, nil
}

// Get implements domain.TaskService
func (s *TaskServiceImpl) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAccess(ctx, actor, t.PatientID); err != nil {
		return nil, err
	}
	return t, nil
}

// List implements domain.TaskService
func (s *TaskServiceImpl) List(ctx context.Context, actor domain.Actor, patientID uint, filter domain.TaskFilter) ([]domain.Task, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.tasks.ListByPatient(ctx, patientID, filter)
}

// Update replaces the editable fields of a task. A nil Completed keeps the
// current completion state.
func (s *TaskServiceImpl) Update(ctx context.Context, actor domain.Actor, id uint, in domain.TaskInput) (*domain.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, t.PatientID); err != nil {
		return nil, err
	}
	if err := s.apply(t, in); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return s.tasks.FindByID(ctx, id)
}

// ToggleCompleted flips a task between open and done. Patients may tick off
// their own tasks.
func (s *TaskServiceImpl) ToggleCompleted(ctx context.Context, actor domain.Actor, id uint) (*domain.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAccess(ctx, actor, t.PatientID); err != nil {
		return nil, err
	}
	t.SetCompleted(!t.Completed, s.clock.Now())
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return t, nil
}

// Move swaps a task with its neighbour in the manual order and returns the
// reordered list. Moving past either end leaves the order unchanged.
func (s *TaskServiceImpl) Move(ctx context.Context, actor domain.Actor, id uint, direction string) ([]domain.Task, error) {
	var step int
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		step = -1
	case "down":
		step = 1
	default:
		return nil, domain.ErrInvalidDirection
	}

	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, t.PatientID); err != nil {
		return nil, err
	}

	var out []domain.Task
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		list, err := s.tasks.ListByPatient(ctx, t.PatientID, domain.TaskFilter{})
		if err != nil {
			return err
		}
		i := indexOfTask(list, id)
		j := i + step
		if i >= 0 && j >= 0 && j < len(list) {
			a, b := &list[i], &list[j]
			a.Position, b.Position = b.Position, a.Position
			if err := s.tasks.SetPosition(ctx, a.ID, a.Position); err != nil {
				return err
			}
			if err := s.tasks.SetPosition(ctx, b.ID, b.Position); err != nil {
				return err
			}
			list[i], list[j] = list[j], list[i]
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move task: %w", err)
	}
	return out, nil
}

// Delete removes a task and renumbers the rest of the list from 1.
func (s *TaskServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, t.PatientID); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tasks.Delete(ctx, id); err != nil {
			return err
		}
		rest, err := s.tasks.ListByPatient(ctx, t.PatientID, domain.TaskFilter{})
		if err != nil {
			return err
		}
		for i := range rest {
			if rest[i].Position == i+1 {
				continue
			}
			if err := s.tasks.SetPosition(ctx, rest[i].ID, i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TaskServiceImpl) apply(t *domain.Task, in domain.TaskInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.NewValidationError("task title is required")
	}
	priority, err := domain.ParseTaskPriority(in.Priority)
	if err != nil {
		return err
	}
	t.Title = title
	t.Description = in.Description
	t.DueDate = in.DueDate
	t.Priority = priority
	if in.Completed != nil {
		t.SetCompleted(*in.Completed, s.clock.Now())
	}
	return nil
}

func indexOfTask(list []domain.Task, id uint) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
