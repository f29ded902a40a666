package services

import (
	"context"
	"fmt"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// AppointmentServiceImpl implements domain.AppointmentService
type AppointmentServiceImpl struct {
	appointments domain.AppointmentRepository
	reminders    domain.ReminderGenerator
	guard        domain.AccessGuard
	tx           domain.Transactor
	clock        domain.Clock
	log          *zap.Logger
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(
	appointments domain.AppointmentRepository,
	reminders domain.ReminderGenerator,
	guard domain.AccessGuard,
	tx domain.Transactor,
	clock domain.Clock,
	log *zap.Logger,
) domain.AppointmentService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AppointmentServiceImpl{
		appointments: appointments,
		reminders:    reminders,
		guard:        guard,
		tx:           tx,
		clock:        clock,
		log:          log.Named("appointments"),
	}
}

// Create stores an appointment together with its reminder.
func (s *AppointmentServiceImpl) Create(ctx context.Context, actor domain.Actor, in domain.AppointmentInput) (*domain.Appointment, error) {
	if err := s.guard.RequireCaregiver(ctx, actor, in.PatientID); err != nil {
		return nil, err
	}
	if in.DateTime.IsZero() {
		return nil, domain.NewValidationError("appointment date and time are required")
	}

	now := s.clock.Now()
	a := &domain.Appointment{
		PatientID:   in.PatientID,
		CaregiverID: actor.ID,
		DateTime:    in.DateTime,
		Location:    in.Location,
		DoctorName:  in.DoctorName,
		Specialty:   in.Specialty,
		Reason:      in.Reason,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Create(ctx, a); err != nil {
			return err
		}
		_, err := s.reminders.GenerateFromAppointment(ctx, a)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return a, nil
}

// Get implements domain.AppointmentService
func (s *AppointmentServiceImpl) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.Appointment, error) {
	a, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAccess(ctx, actor, a.PatientID); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByPatient implements domain.AppointmentService
func (s *AppointmentServiceImpl) ListByPatient(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.Appointment, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.appointments.ListByPatient(ctx, patientID)
}

// MarkCompleted flags an appointment as attended.
func (s *AppointmentServiceImpl) MarkCompleted(ctx context.Context, actor domain.Actor, id uint) (*domain.Appointment, error) {
	a, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, a.PatientID); err != nil {
		return nil, err
	}
	if err := s.appointments.SetCompleted(ctx, id, true); err != nil {
		return nil, err
	}
	a.Completed = true
	return a, nil
}

// Delete removes an appointment and its reminder.
func (s *AppointmentServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	a, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, a.PatientID); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.reminders.DeleteBySource(ctx, domain.ReminderAppointment, id); err != nil {
			return err
		}
		return s.appointments.Delete(ctx, id)
	})
}
