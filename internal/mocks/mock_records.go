package mocks

import (
	"context"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

// MockTaskService implements domain.TaskService. Without overrides it echoes
// the input back as a task with ID 1.
type MockTaskService struct {
	CreateFunc          func(ctx context.Context, actor domain.Actor, in domain.TaskInput) (*domain.Task, error)
	GetFunc             func(ctx context.Context, actor domain.Actor, id uint) (*domain.Task, error)
	ListFunc            func(ctx context.Context, actor domain.Actor, patientID uint, filter domain.TaskFilter) ([]domain.Task, error)
	UpdateFunc          func(ctx context.Context, actor domain.Actor, id uint, in domain.TaskInput) (*domain.Task, error)
	ToggleCompletedFunc func(ctx context.Context, actor domain.Actor, id uint) (*domain.Task, error)
	MoveFunc            func(ctx context.Context, actor domain.Actor, id uint, direction string) ([]domain.Task, error)
	DeleteFunc          func(ctx context.Context, actor domain.Actor, id uint) error
}

// NewMockTaskService creates a new MockTaskService
func NewMockTaskService() *MockTaskService {
	return &MockTaskService{}
}

func taskFromInput(id uint, in domain.TaskInput) *domain.Task {
	priority, _ := domain.ParseTaskPriority(in.Priority)
	t := &domain.Task{
		ID:          id,
		PatientID:   in.PatientID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		Position:    1,
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	return t
}

func (m *MockTaskService) Create(ctx context.Context, actor domain.Actor, in domain.TaskInput) (*domain.Task, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, actor, in)
	}
	t := taskFromInput(1, in)
	t.CaregiverID = actor.ID
	return t, nil
}

func (m *MockTaskService) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.Task, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, actor, id)
	}
	return &domain.Task{ID: id, Title: "Tarea", Priority: domain.TaskMedium, Position: 1}, nil
}

func (m *MockTaskService) List(ctx context.Context, actor domain.Actor, patientID uint, filter domain.TaskFilter) ([]domain.Task, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, actor, patientID, filter)
	}
	return []domain.Task{}, nil
}

func (m *MockTaskService) Update(ctx context.Context, actor domain.Actor, id uint, in domain.TaskInput) (*domain.Task, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, id, in)
	}
	return taskFromInput(id, in), nil
}

func (m *MockTaskService) ToggleCompleted(ctx context.Context, actor domain.Actor, id uint) (*domain.Task, error) {
	if m.ToggleCompletedFunc != nil {
		return m.ToggleCompletedFunc(ctx, actor, id)
	}
	return &domain.Task{ID: id, Title: "Tarea", Priority: domain.TaskMedium, Completed: true, Position: 1}, nil
}

func (m *MockTaskService) Move(ctx context.Context, actor domain.Actor, id uint, direction string) ([]domain.Task, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, actor, id, direction)
	}
	return []domain.Task{{ID: id, Position: 1}}, nil
}

func (m *MockTaskService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, id)
	}
	return nil
}

// MockLogbookService implements domain.LogbookService
type MockLogbookService struct {
	CreateFunc   func(ctx context.Context, actor domain.Actor, in domain.LogEntryInput) (*domain.LogEntry, error)
	GetFunc      func(ctx context.Context, actor domain.Actor, id uint) (*domain.LogEntry, error)
	ListFunc     func(ctx context.Context, actor domain.Actor, patientID uint, from, to *time.Time) ([]domain.LogEntry, error)
	ListMineFunc func(ctx context.Context, actor domain.Actor) ([]domain.LogEntry, error)
	UpdateFunc   func(ctx context.Context, actor domain.Actor, id uint, in domain.LogEntryInput) (*domain.LogEntry, error)
	DeleteFunc   func(ctx context.Context, actor domain.Actor, id uint) error
}

// NewMockLogbookService creates a new MockLogbookService
func NewMockLogbookService() *MockLogbookService {
	return &MockLogbookService{}
}

func logEntryFromInput(id uint, in domain.LogEntryInput) *domain.LogEntry {
	title := in.Title
	if title == "" {
		title = domain.LogEntryTitle(in.Date, 0)
	}
	return &domain.LogEntry{
		ID:           id,
		PatientID:    in.PatientID,
		Date:         in.Date,
		Title:        title,
		Description:  in.Description,
		Symptoms:     in.Symptoms,
		Observations: in.Observations,
	}
}

func (m *MockLogbookService) Create(ctx context.Context, actor domain.Actor, in domain.LogEntryInput) (*domain.LogEntry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, actor, in)
	}
	e := logEntryFromInput(1, in)
	e.CaregiverID = actor.ID
	return e, nil
}

func (m *MockLogbookService) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.LogEntry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, actor, id)
	}
	return nil, domain.ErrLogEntryNotFound
}

func (m *MockLogbookService) List(ctx context.Context, actor domain.Actor, patientID uint, from, to *time.Time) ([]domain.LogEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, actor, patientID, from, to)
	}
	return []domain.LogEntry{}, nil
}

func (m *MockLogbookService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.LogEntry, error) {
	if m.ListMineFunc != nil {
		return m.ListMineFunc(ctx, actor)
	}
	return []domain.LogEntry{}, nil
}

func (m *MockLogbookService) Update(ctx context.Context, actor domain.Actor, id uint, in domain.LogEntryInput) (*domain.LogEntry, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, id, in)
	}
	return logEntryFromInput(id, in), nil
}

func (m *MockLogbookService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, id)
	}
	return nil
}

// MockEmergencyContactService implements domain.EmergencyContactService
type MockEmergencyContactService struct {
	CreateFunc func(ctx context.Context, actor domain.Actor, in domain.ContactInput) (*domain.EmergencyContact, error)
	ListFunc   func(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.EmergencyContact, error)
	UpdateFunc func(ctx context.Context, actor domain.Actor, id uint, in domain.ContactInput) (*domain.EmergencyContact, error)
	DeleteFunc func(ctx context.Context, actor domain.Actor, id uint) error
}

// NewMockEmergencyContactService creates a new MockEmergencyContactService
func NewMockEmergencyContactService() *MockEmergencyContactService {
	return &MockEmergencyContactService{}
}

func contactFromInput(id uint, in domain.ContactInput) *domain.EmergencyContact {
	return &domain.EmergencyContact{
		ID:        id,
		PatientID: in.PatientID,
		Name:      in.Name,
		Relation:  in.Relation,
		Phone:     in.Phone,
		Email:     in.Email,
		Primary:   in.Primary,
	}
}

func (m *MockEmergencyContactService) Create(ctx context.Context, actor domain.Actor, in domain.ContactInput) (*domain.EmergencyContact, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, actor, in)
	}
	return contactFromInput(1, in), nil
}

func (m *MockEmergencyContactService) List(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.EmergencyContact, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, actor, patientID)
	}
	return []domain.EmergencyContact{}, nil
}

func (m *MockEmergencyContactService) Update(ctx context.Context, actor domain.Actor, id uint, in domain.ContactInput) (*domain.EmergencyContact, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, id, in)
	}
	return contactFromInput(id, in), nil
}

func (m *MockEmergencyContactService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, id)
	}
	return nil
}
