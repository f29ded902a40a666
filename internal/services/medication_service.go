package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// MedicationServiceImpl implements domain.MedicationService
type MedicationServiceImpl struct {
	medications domain.MedicationRepository
	reminders   domain.ReminderGenerator
	guard       domain.AccessGuard
	tx          domain.Transactor
	clock       domain.Clock
	log         *zap.Logger
}

// NewMedicationService creates a new medication service
func NewMedicationService(
	medications domain.MedicationRepository,
	reminders domain.ReminderGenerator,
	guard domain.AccessGuard,
	tx domain.Transactor,
	clock domain.Clock,
	log *zap.Logger,
) domain.MedicationService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MedicationServiceImpl{
		medications: medications,
		reminders:   reminders,
		guard:       guard,
		tx:          tx,
		clock:       clock,
		log:         log.Named("medications"),
	}
}

func buildSchedules(in []domain.ScheduleInput) ([]domain.ScheduleSlot, error) {
	slots := make([]domain.ScheduleSlot, 0, len(in))
	for _, s := range in {
		tod, err := domain.ParseTimeOfDay(s.Time)
		if err != nil {
			return nil, err
		}
		days, err := domain.ParseWeekdays(s.Days)
		if err != nil {
			return nil, err
		}
		slots = append(slots, domain.ScheduleSlot{TimeOfDay: tod, Days: days})
	}
	return slots, nil
}

// Create stores a medication with its schedule and generated reminders in a
// single transaction. Only a caregiver linked to the patient may create one.
func (s *MedicationServiceImpl) Create(ctx context.Context, actor domain.Actor, in domain.MedicationInput) (*domain.Medication, error) {
	if err := s.guard.RequireCaregiver(ctx, actor, in.PatientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError("medication name is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, domain.NewValidationError("start and end dates are required")
	}

	slots, err := buildSchedules(in.Schedules)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m := &domain.Medication{
		PatientID:   in.PatientID,
		CaregiverID: actor.ID,
		Name:        strings.TrimSpace(in.Name),
		Dose:        strings.TrimSpace(in.Dose),
		Frequency:   in.Frequency,
		Route:       in.Route,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Active:      true,
		Notes:       in.Notes,
		Schedules:   slots,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := domain.ValidateSchedule(m); err != nil {
		return nil, err
	}

	var generated int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.medications.Create(ctx, m); err != nil {
			return err
		}
		reminders, err := s.reminders.GenerateFromMedication(ctx, m)
		if err != nil {
			return err
		}
		generated = len(reminders)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	s.log.Info("medication created",
		zap.Uint("medication_id", m.ID),
		zap.Uint("patient_id", m.PatientID),
		zap.Int("reminders", generated))
	return m, nil
}

// Get implements domain.MedicationService
func (s *MedicationServiceImpl) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.Medication, error) {
	m, err := s.medications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAccess(ctx, actor, m.PatientID); err != nil {
		return nil, err
	}
	return m, nil
}

// ListByPatient implements domain.MedicationService
func (s *MedicationServiceImpl) ListByPatient(ctx context.Context, actor domain.Actor, patientID uint, onlyActive bool) ([]domain.Medication, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.medications.ListByPatient(ctx, patientID, onlyActive)
}

// Deactivate marks a medication inactive. Its reminders are kept.
func (s *MedicationServiceImpl) Deactivate(ctx context.Context, actor domain.Actor, id uint) (*domain.Medication, error) {
	m, err := s.medications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, m.PatientID); err != nil {
		return nil, err
	}
	if err := s.medications.SetActive(ctx, id, false); err != nil {
		return nil, err
	}
	m.Active = false
	return m, nil
}

// Delete removes a medication, its schedule and every reminder it produced.
func (s *MedicationServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	m, err := s.medications.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, m.PatientID); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.reminders.DeleteBySource(ctx, domain.ReminderMedication, id); err != nil {
			return err
		}
		return s.medications.Delete(ctx, id)
	})
}
