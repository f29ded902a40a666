package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// PatientProfileServiceImpl implements domain.PatientProfileService
type PatientProfileServiceImpl struct {
	profiles domain.PatientProfileRepository
	guard    domain.AccessGuard
	clock    domain.Clock
	log      *zap.Logger
}

// NewPatientProfileService creates a new patient profile service
func NewPatientProfileService(profiles domain.PatientProfileRepository, guard domain.AccessGuard, clock domain.Clock, log *zap.Logger) domain.PatientProfileService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PatientProfileServiceImpl{profiles: profiles, guard: guard, clock: clock, log: log.Named("profiles")}
}

// Get returns the patient's profile. A patient who never filled one in gets
// an empty profile.
func (s *PatientProfileServiceImpl) Get(ctx context.Context, actor domain.Actor, patientID uint) (*domain.PatientProfile, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.load(ctx, patientID)
}

// Update applies a partial update, creating the profile on first use.
func (s *PatientProfileServiceImpl) Update(ctx context.Context, actor domain.Actor, patientID uint, in domain.PatientProfileInput) (*domain.PatientProfile, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save patient profile: %w", err)
	}
	s.log.Debug("patient profile updated", zap.Uint("patient_id", patientID), zap.Uint("actor_id", actor.ID))
	return p, nil
}

func (s *PatientProfileServiceImpl) load(ctx context.Context, patientID uint) (*domain.PatientProfile, error) {
	p, err := s.profiles.FindByPatient(ctx, patientID)
	if errors.Is(err, domain.ErrPatientProfileNotFound) {
		return &domain.PatientProfile{PatientID: patientID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient profile: %w", err)
	}
	return p, nil
}
