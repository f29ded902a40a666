package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// ReminderServiceImpl implements domain.ReminderService
type ReminderServiceImpl struct {
	reminders    domain.ReminderRepository
	medications  domain.MedicationRepository
	appointments domain.AppointmentRepository
	guard        domain.AccessGuard
	tx           domain.Transactor
	loc          *time.Location
	log          *zap.Logger
}

// NewReminderService creates a new reminder service. Day queries are
// evaluated in loc.
func NewReminderService(
	reminders domain.ReminderRepository,
	medications domain.MedicationRepository,
	appointments domain.AppointmentRepository,
	guard domain.AccessGuard,
	tx domain.Transactor,
	loc *time.Location,
	log *zap.Logger,
) domain.ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderServiceImpl{
		reminders:    reminders,
		medications:  medications,
		appointments: appointments,
		guard:        guard,
		tx:           tx,
		loc:          loc,
		log:          log.Named("reminders"),
	}
}

// GenerateFromMedication expands m into reminders and stores them in one
// transaction.
func (s *ReminderServiceImpl) GenerateFromMedication(ctx context.Context, m *domain.Medication) ([]domain.Reminder, error) {
	reminders, err := domain.ExpandMedication(m)
	if err != nil {
		return nil, err
	}
	if len(reminders) == 0 {
		return reminders, nil
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.reminders.CreateBatch(ctx, reminders)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store reminders: %w", err)
	}
	return reminders, nil
}

// GenerateFromAppointment stores the reminder of an appointment.
func (s *ReminderServiceImpl) GenerateFromAppointment(ctx context.Context, a *domain.Appointment) (*domain.Reminder, error) {
	reminder := domain.AppointmentReminder(a)
	batch := []domain.Reminder{reminder}
	if err := s.reminders.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to store reminder: %w", err)
	}
	return &batch[0], nil
}

// DeleteBySource removes every reminder produced by one medication or appointment.
func (s *ReminderServiceImpl) DeleteBySource(ctx context.Context, kind domain.ReminderKind, sourceID uint) (int64, error) {
	return s.reminders.DeleteBySource(ctx, kind, sourceID)
}

// ListByPatient implements domain.ReminderService
func (s *ReminderServiceImpl) ListByPatient(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.ReminderDetails, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	rows, err := s.reminders.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, rows)
}

// ListForDay returns the reminders on day's calendar date in the service's
// time zone.
func (s *ReminderServiceImpl) ListForDay(ctx context.Context, actor domain.Actor, patientID uint, day time.Time) ([]domain.ReminderDetails, error) {
	from, to := domain.DayWindow(day.In(s.loc))
	return s.ListInRange(ctx, actor, patientID, from, to)
}

// ListInRange returns reminders in [from, to).
func (s *ReminderServiceImpl) ListInRange(ctx context.Context, actor domain.Actor, patientID uint, from, to time.Time) ([]domain.ReminderDetails, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidDateRange
	}
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	rows, err := s.reminders.ListInRange(ctx, patientID, from, to)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, rows)
}

// ListByStatus implements domain.ReminderService
func (s *ReminderServiceImpl) ListByStatus(ctx context.Context, actor domain.Actor, patientID uint, status domain.ReminderStatus) ([]domain.ReminderDetails, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	rows, err := s.reminders.ListByStatus(ctx, patientID, status)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, rows)
}

// ListPending implements domain.ReminderService
func (s *ReminderServiceImpl) ListPending(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.ReminderDetails, error) {
	return s.ListByStatus(ctx, actor, patientID, domain.ReminderPending)
}

// CycleStatus moves a reminder to the next status in the cycle.
func (s *ReminderServiceImpl) CycleStatus(ctx context.Context, actor domain.Actor, reminderID uint) (*domain.Reminder, error) {
	rem, err := s.load(ctx, actor, reminderID)
	if err != nil {
		return nil, err
	}
	next := rem.Status.Next()
	if err := s.reminders.UpdateStatus(ctx, rem.ID, next); err != nil {
		return nil, err
	}
	rem.Status = next
	return rem, nil
}

// SetStatus assigns a status given by name.
func (s *ReminderServiceImpl) SetStatus(ctx context.Context, actor domain.Actor, reminderID uint, status string) (*domain.Reminder, error) {
	st, err := domain.ParseReminderStatus(status)
	if err != nil {
		return nil, err
	}
	rem, err := s.load(ctx, actor, reminderID)
	if err != nil {
		return nil, err
	}
	if err := s.reminders.UpdateStatus(ctx, rem.ID, st); err != nil {
		return nil, err
	}
	rem.Status = st
	return rem, nil
}

// Delete removes a single reminder.
func (s *ReminderServiceImpl) Delete(ctx context.Context, actor domain.Actor, reminderID uint) error {
	rem, err := s.load(ctx, actor, reminderID)
	if err != nil {
		return err
	}
	return s.reminders.Delete(ctx, rem.ID)
}

func (s *ReminderServiceImpl) load(ctx context.Context, actor domain.Actor, reminderID uint) (*domain.Reminder, error) {
	rem, err := s.reminders.FindByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAccess(ctx, actor, rem.PatientID); err != nil {
		return nil, err
	}
	return rem, nil
}

// enrich attaches source details to each reminder. A source that no longer
// exists leaves the details empty.
func (s *ReminderServiceImpl) enrich(ctx context.Context, rows []domain.Reminder) ([]domain.ReminderDetails, error) {
	meds := make(map[uint]*domain.Medication)
	appts := make(map[uint]*domain.Appointment)

	out := make([]domain.ReminderDetails, 0, len(rows))
	for _, r := range rows {
		d := domain.ReminderDetails{Reminder: r}
		switch r.Kind {
		case domain.ReminderMedication:
			m, ok := meds[r.SourceID]
			if !ok {
				found, err := s.medications.FindByID(ctx, r.SourceID)
				if err != nil && !errors.Is(err, domain.ErrNotFound) {
					return nil, err
				}
				m = found
				meds[r.SourceID] = m
			}
			if m != nil {
				d.MedicationName = m.Name
				d.Dose = m.Dose
			}
		case domain.ReminderAppointment:
			a, ok := appts[r.SourceID]
			if !ok {
				found, err := s.appointments.FindByID(ctx, r.SourceID)
				if err != nil && !errors.Is(err, domain.ErrNotFound) {
					return nil, err
				}
				a = found
				appts[r.SourceID] = a
			}
			if a != nil {
				d.Location = a.Location
				d.DoctorName = a.DoctorName
				d.Specialty = a.Specialty
				d.Reason = a.Reason
			}
		default:
			s.log.Warn("reminder with unknown kind", zap.Uint("reminder_id", r.ID), zap.String("kind", string(r.Kind)))
		}
		out = append(out, d)
	}
	return out, nil
}
