package mocks

import (
	"context"
	"io"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

// MockAccessGuard implements domain.AccessGuard. By default every check passes.
type MockAccessGuard struct {
	HasAccessFunc        func(ctx context.Context, actor domain.Actor, patientID uint) (bool, error)
	RequireAccessFunc    func(ctx context.Context, actor domain.Actor, patientID uint) error
	RequireCaregiverFunc func(ctx context.Context, actor domain.Actor, patientID uint) error
	RequirePatientFunc   func(ctx context.Context, actor domain.Actor, patientID uint) error
	ResolvePatientIDFunc func(ctx context.Context, actor domain.Actor, requested *uint) (uint, error)
}

// NewMockAccessGuard creates a new MockAccessGuard
func NewMockAccessGuard() *MockAccessGuard {
	return &MockAccessGuard{}
}

func (m *MockAccessGuard) HasAccess(ctx context.Context, actor domain.Actor, patientID uint) (bool, error) {
	if m.HasAccessFunc != nil {
		return m.HasAccessFunc(ctx, actor, patientID)
	}
	return true, nil
}

func (m *MockAccessGuard) RequireAccess(ctx context.Context, actor domain.Actor, patientID uint) error {
	if m.RequireAccessFunc != nil {
		return m.RequireAccessFunc(ctx, actor, patientID)
	}
	return nil
}

func (m *MockAccessGuard) RequireCaregiver(ctx context.Context, actor domain.Actor, patientID uint) error {
	if m.RequireCaregiverFunc != nil {
		return m.RequireCaregiverFunc(ctx, actor, patientID)
	}
	return nil
}

func (m *MockAccessGuard) RequirePatient(ctx context.Context, actor domain.Actor, patientID uint) error {
	if m.RequirePatientFunc != nil {
		return m.RequirePatientFunc(ctx, actor, patientID)
	}
	return nil
}

// ResolvePatientID returns the requested id, or the actor's own id when none is given.
func (m *MockAccessGuard) ResolvePatientID(ctx context.Context, actor domain.Actor, requested *uint) (uint, error) {
	if m.ResolvePatientIDFunc != nil {
		return m.ResolvePatientIDFunc(ctx, actor, requested)
	}
	if requested != nil {
		return *requested, nil
	}
	return actor.ID, nil
}

// MockRelationshipService implements domain.RelationshipService
type MockRelationshipService struct {
	InviteFunc                  func(ctx context.Context, patientID uint, caregiverEmail string) (*domain.Relationship, error)
	AcceptFunc                  func(ctx context.Context, actor domain.Actor, relationshipID uint) (*domain.Relationship, error)
	RejectFunc                  func(ctx context.Context, actor domain.Actor, relationshipID uint) (*domain.Relationship, error)
	UnlinkFunc                  func(ctx context.Context, patientID, caregiverID uint) error
	ListByCaregiverFunc         func(ctx context.Context, caregiverID uint) ([]domain.Relationship, error)
	ListByPatientFunc           func(ctx context.Context, patientID uint) ([]domain.Relationship, error)
	ListByPatientAndStateFunc   func(ctx context.Context, patientID uint, state domain.RelationshipState) ([]domain.Relationship, error)
	ListByCaregiverAndStateFunc func(ctx context.Context, caregiverID uint, state domain.RelationshipState) ([]domain.Relationship, error)
	CountAcceptedFunc           func(ctx context.Context, patientID uint) (int64, error)
	PendingInvitationsFunc      func(ctx context.Context, caregiverID uint) ([]domain.Relationship, error)
	LinkedPatientsFunc          func(ctx context.Context, caregiverID uint) ([]domain.Relationship, error)
}

// NewMockRelationshipService creates a new MockRelationshipService
func NewMockRelationshipService() *MockRelationshipService {
	return &MockRelationshipService{}
}

func (m *MockRelationshipService) Invite(ctx context.Context, patientID uint, caregiverEmail string) (*domain.Relationship, error) {
	if m.InviteFunc != nil {
		return m.InviteFunc(ctx, patientID, caregiverEmail)
	}
	return &domain.Relationship{ID: 1, CaregiverID: 2, PatientID: patientID, State: domain.RelationshipPending, InvitedAt: time.Now()}, nil
}

func (m *MockRelationshipService) Accept(ctx context.Context, actor domain.Actor, relationshipID uint) (*domain.Relationship, error) {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, actor, relationshipID)
	}
	now := time.Now()
	return &domain.Relationship{ID: relationshipID, CaregiverID: actor.ID, State: domain.RelationshipAccepted, InvitedAt: now, AcceptedAt: &now}, nil
}

func (m *MockRelationshipService) Reject(ctx context.Context, actor domain.Actor, relationshipID uint) (*domain.Relationship, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, actor, relationshipID)
	}
	return &domain.Relationship{ID: relationshipID, CaregiverID: actor.ID, State: domain.RelationshipRejected, InvitedAt: time.Now()}, nil
}

func (m *MockRelationshipService) Unlink(ctx context.Context, patientID, caregiverID uint) error {
	if m.UnlinkFunc != nil {
		return m.UnlinkFunc(ctx, patientID, caregiverID)
	}
	return nil
}

func (m *MockRelationshipService) ListByCaregiver(ctx context.Context, caregiverID uint) ([]domain.Relationship, error) {
	if m.ListByCaregiverFunc != nil {
		return m.ListByCaregiverFunc(ctx, caregiverID)
	}
	return nil, nil
}

func (m *MockRelationshipService) ListByPatient(ctx context.Context, patientID uint) ([]domain.Relationship, error) {
	if m.ListByPatientFunc != nil {
		return m.ListByPatientFunc(ctx, patientID)
	}
	return nil, nil
}

func (m *MockRelationshipService) ListByPatientAndState(ctx context.Context, patientID uint, state domain.RelationshipState) ([]domain.Relationship, error) {
	if m.ListByPatientAndStateFunc != nil {
		return m.ListByPatientAndStateFunc(ctx, patientID, state)
	}
	return nil, nil
}

func (m *MockRelationshipService) ListByCaregiverAndState(ctx context.Context, caregiverID uint, state domain.RelationshipState) ([]domain.Relationship, error) {
	if m.ListByCaregiverAndStateFunc != nil {
		return m.ListByCaregiverAndStateFunc(ctx, caregiverID, state)
	}
	return nil, nil
}

func (m *MockRelationshipService) CountAccepted(ctx context.Context, patientID uint) (int64, error) {
	if m.CountAcceptedFunc != nil {
		return m.CountAcceptedFunc(ctx, patientID)
	}
	return 0, nil
}

func (m *MockRelationshipService) PendingInvitations(ctx context.Context, caregiverID uint) ([]domain.Relationship, error) {
	if m.PendingInvitationsFunc != nil {
		return m.PendingInvitationsFunc(ctx, caregiverID)
	}
	return nil, nil
}

func (m *MockRelationshipService) LinkedPatients(ctx context.Context, caregiverID uint) ([]domain.Relationship, error) {
	if m.LinkedPatientsFunc != nil {
		return m.LinkedPatientsFunc(ctx, caregiverID)
	}
	return nil, nil
}

// MockReminderService implements domain.ReminderService
type MockReminderService struct {
	GenerateFromMedicationFunc  func(ctx context.Context, m *domain.Medication) ([]domain.Reminder, error)
	GenerateFromAppointmentFunc func(ctx context.Context, a *domain.Appointment) (*domain.Reminder, error)
	DeleteBySourceFunc          func(ctx context.Context, kind domain.ReminderKind, sourceID uint) (int64, error)
	ListByPatientFunc           func(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.ReminderDetails, error)
	ListForDayFunc              func(ctx context.Context, actor domain.Actor, patientID uint, day time.Time) ([]domain.ReminderDetails, error)
	ListInRangeFunc             func(ctx context.Context, actor domain.Actor, patientID uint, from, to time.Time) ([]domain.ReminderDetails, error)
	ListByStatusFunc            func(ctx context.Context, actor domain.Actor, patientID uint, status domain.ReminderStatus) ([]domain.ReminderDetails, error)
	ListPendingFunc             func(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.ReminderDetails, error)
	CycleStatusFunc             func(ctx context.Context, actor domain.Actor, reminderID uint) (*domain.Reminder, error)
	SetStatusFunc               func(ctx context.Context, actor domain.Actor, reminderID uint, status string) (*domain.Reminder, error)
	DeleteFunc                  func(ctx context.Context, actor domain.Actor, reminderID uint) error
}

// NewMockReminderService creates a new MockReminderService
func NewMockReminderService() *MockReminderService {
	return &MockReminderService{}
}

func (m *MockReminderService) GenerateFromMedication(ctx context.Context, med *domain.Medication) ([]domain.Reminder, error) {
	if m.GenerateFromMedicationFunc != nil {
		return m.GenerateFromMedicationFunc(ctx, med)
	}
	return domain.ExpandMedication(med)
}

func (m *MockReminderService) GenerateFromAppointment(ctx context.Context, a *domain.Appointment) (*domain.Reminder, error) {
	if m.GenerateFromAppointmentFunc != nil {
		return m.GenerateFromAppointmentFunc(ctx, a)
	}
	r := domain.AppointmentReminder(a)
	return &r, nil
}

func (m *MockReminderService) DeleteBySource(ctx context.Context, kind domain.ReminderKind, sourceID uint) (int64, error) {
	if m.DeleteBySourceFunc != nil {
		return m.DeleteBySourceFunc(ctx, kind, sourceID)
	}
	return 0, nil
}

func (m *MockReminderService) ListByPatient(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.ReminderDetails, error) {
	if m.ListByPatientFunc != nil {
		return m.ListByPatientFunc(ctx, actor, patientID)
	}
	return nil, nil
}

func (m *MockReminderService) ListForDay(ctx context.Context, actor domain.Actor, patientID uint, day time.Time) ([]domain.ReminderDetails, error) {
	if m.ListForDayFunc != nil {
		return m.ListForDayFunc(ctx, actor, patientID, day)
	}
	return nil, nil
}

func (m *MockReminderService) ListInRange(ctx context.Context, actor domain.Actor, patientID uint, from, to time.Time) ([]domain.ReminderDetails, error) {
	if m.ListInRangeFunc != nil {
		return m.ListInRangeFunc(ctx, actor, patientID, from, to)
	}
	return nil, nil
}

func (m *MockReminderService) ListByStatus(ctx context.Context, actor domain.Actor, patientID uint, status domain.ReminderStatus) ([]domain.ReminderDetails, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, actor, patientID, status)
	}
	return nil, nil
}

func (m *MockReminderService) ListPending(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.ReminderDetails, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, actor, patientID)
	}
	return m.ListByStatus(ctx, actor, patientID, domain.ReminderPending)
}

func (m *MockReminderService) CycleStatus(ctx context.Context, actor domain.Actor, reminderID uint) (*domain.Reminder, error) {
	if m.CycleStatusFunc != nil {
		return m.CycleStatusFunc(ctx, actor, reminderID)
	}
	return &domain.Reminder{ID: reminderID, Status: domain.ReminderCompleted}, nil
}

func (m *MockReminderService) SetStatus(ctx context.Context, actor domain.Actor, reminderID uint, status string) (*domain.Reminder, error) {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, actor, reminderID, status)
	}
	st, err := domain.ParseReminderStatus(status)
	if err != nil {
		return nil, err
	}
	return &domain.Reminder{ID: reminderID, Status: st}, nil
}

func (m *MockReminderService) Delete(ctx context.Context, actor domain.Actor, reminderID uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, reminderID)
	}
	return nil
}

// MockDocumentService implements domain.DocumentService
type MockDocumentService struct {
	UploadFunc   func(ctx context.Context, actor domain.Actor, doc *domain.Document, body io.Reader) (*domain.Document, error)
	ListFunc     func(ctx context.Context, actor domain.Actor, patientID uint, filter domain.DocumentFilter) ([]domain.Document, error)
	DownloadFunc func(ctx context.Context, actor domain.Actor, id uint) (*domain.Document, io.ReadCloser, error)
	DeleteFunc   func(ctx context.Context, actor domain.Actor, id uint) error
}

// NewMockDocumentService creates a new MockDocumentService
func NewMockDocumentService() *MockDocumentService {
	return &MockDocumentService{}
}

func (m *MockDocumentService) Upload(ctx context.Context, actor domain.Actor, doc *domain.Document, body io.Reader) (*domain.Document, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, actor, doc, body)
	}
	doc.ID = 1
	doc.UploadedBy = actor.ID
	return doc, nil
}

func (m *MockDocumentService) List(ctx context.Context, actor domain.Actor, patientID uint, filter domain.DocumentFilter) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, actor, patientID, filter)
	}
	return nil, nil
}

func (m *MockDocumentService) Download(ctx context.Context, actor domain.Actor, id uint) (*domain.Document, io.ReadCloser, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, actor, id)
	}
	return nil, nil, domain.ErrDocumentNotFound
}

func (m *MockDocumentService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, id)
	}
	return nil
}

// MockPatientProfileService implements domain.PatientProfileService
type MockPatientProfileService struct {
	GetFunc    func(ctx context.Context, actor domain.Actor, patientID uint) (*domain.PatientProfile, error)
	UpdateFunc func(ctx context.Context, actor domain.Actor, patientID uint, in domain.PatientProfileInput) (*domain.PatientProfile, error)
}

// NewMockPatientProfileService creates a new MockPatientProfileService
func NewMockPatientProfileService() *MockPatientProfileService {
	return &MockPatientProfileService{}
}

func (m *MockPatientProfileService) Get(ctx context.Context, actor domain.Actor, patientID uint) (*domain.PatientProfile, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, actor, patientID)
	}
	return &domain.PatientProfile{PatientID: patientID}, nil
}

func (m *MockPatientProfileService) Update(ctx context.Context, actor domain.Actor, patientID uint, in domain.PatientProfileInput) (*domain.PatientProfile, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, patientID, in)
	}
	p := &domain.PatientProfile{PatientID: patientID}
	if err := p.Apply(in); err != nil {
		return nil, err
	}
	return p, nil
}

var (
	_ domain.AccessGuard           = (*MockAccessGuard)(nil)
	_ domain.RelationshipService   = (*MockRelationshipService)(nil)
	_ domain.ReminderService       = (*MockReminderService)(nil)
	_ domain.DocumentService       = (*MockDocumentService)(nil)
	_ domain.PatientProfileService = (*MockPatientProfileService)(nil)
)
