package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// LogbookServiceImpl implements domain.LogbookService
type LogbookServiceImpl struct {
	entries domain.LogEntryRepository
	guard   domain.AccessGuard
	loc     *time.Location
	clock   domain.Clock
	log     *zap.Logger
}

// NewLogbookService creates a new logbook service. Entry dates are calendar
// days in loc.
func NewLogbookService(entries domain.LogEntryRepository, guard domain.AccessGuard, loc *time.Location, clock domain.Clock, log *zap.Logger) domain.LogbookService {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LogbookServiceImpl{entries: entries, guard: guard, loc: loc, clock: clock, log: log.Named("logbook")}
}

// Create records an entry. Without a date the entry is for today; without a
// title it gets the default title for its date.
func (s *LogbookServiceImpl) Create(ctx context.Context, actor domain.Actor, in domain.LogEntryInput) (*domain.LogEntry, error) {
	if err := s.guard.RequireCaregiver(ctx, actor, in.PatientID); err != nil {
		return nil, err
	}
	e := &domain.LogEntry{PatientID: in.PatientID, CaregiverID: actor.ID}
	if err := s.apply(e, in); err != nil {
		return nil, err
	}

	if e.Title == "" {
		n, err := s.entries.CountOnDate(ctx, e.PatientID, e.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to count logbook entries: %w", err)
		}
		e.Title = domain.LogEntryTitle(e.Date, n)
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create logbook entry: %w", err)
	}
	s.log.Debug("logbook entry created", zap.Uint("patient_id", e.PatientID), zap.Uint("entry_id", e.ID))
	return e, nil
}

// Get implements domain.LogbookService
func (s *LogbookServiceImpl) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.LogEntry, error) {
	e, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAccess(ctx, actor, e.PatientID); err != nil {
		return nil, err
	}
	return e, nil
}

// List implements domain.LogbookService
func (s *LogbookServiceImpl) List(ctx context.Context, actor domain.Actor, patientID uint, from, to *time.Time) ([]domain.LogEntry, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, domain.ErrInvalidDateRange
	}
	return s.entries.ListByPatient(ctx, patientID, from, to)
}

// ListMine returns the entries the calling caregiver wrote.
func (s *LogbookServiceImpl) ListMine(ctx context.Context, actor domain.Actor) ([]domain.LogEntry, error) {
	if actor.Role != domain.RoleCaregiver {
		return nil, domain.ErrCaregiverOnly
	}
	return s.entries.ListByCaregiver(ctx, actor.ID)
}

// Update replaces the editable fields of an entry. An empty title or a zero
// date keeps the current value.
func (s *LogbookServiceImpl) Update(ctx context.Context, actor domain.Actor, id uint, in domain.LogEntryInput) (*domain.LogEntry, error) {
	e, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, e.PatientID); err != nil {
		return nil, err
	}
	title := e.Title
	if in.Date.IsZero() {
		in.Date = e.Date
	}
	if err := s.apply(e, in); err != nil {
		return nil, err
	}
	if e.Title == "" {
		e.Title = title
	}
	if err := s.entries.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update logbook entry: %w", err)
	}
	return s.entries.FindByID(ctx, id)
}

// Delete implements domain.LogbookService
func (s *LogbookServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	e, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.RequireCaregiver(ctx, actor, e.PatientID); err != nil {
		return err
	}
	return s.entries.Delete(ctx, id)
}

func (s *LogbookServiceImpl) apply(e *domain.LogEntry, in domain.LogEntryInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return domain.NewValidationError("logbook description is required")
	}
	date := in.Date
	if date.IsZero() {
		date = s.clock.Now()
	}
	e.Date = domain.DayStart(date.In(s.loc))
	e.Title = strings.TrimSpace(in.Title)
	e.Description = in.Description
	e.Symptoms = in.Symptoms
	e.Observations = in.Observations
	return nil
}
