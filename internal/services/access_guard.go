package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// AccessGuardImpl implements domain.AccessGuard over accepted relationships.
type AccessGuardImpl struct {
	relationships domain.RelationshipRepository
	audit         domain.AuditLogger
	clock         domain.Clock
	log           *zap.Logger
}

// NewAccessGuard creates a new access guard
func NewAccessGuard(relationships domain.RelationshipRepository, audit domain.AuditLogger, clock domain.Clock, log *zap.Logger) domain.AccessGuard {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessGuardImpl{relationships: relationships, audit: audit, clock: clock, log: log.Named("access")}
}

// HasAccess reports whether actor is the patient, or a caregiver with an
// accepted relationship to the patient.
func (g *AccessGuardImpl) HasAccess(ctx context.Context, actor domain.Actor, patientID uint) (bool, error) {
	switch actor.Role {
	case domain.RolePatient:
		return actor.ID == patientID, nil
	case domain.RoleCaregiver:
		return g.isLinkedCaregiver(ctx, actor.ID, patientID)
	default:
		return false, nil
	}
}

func (g *AccessGuardImpl) isLinkedCaregiver(ctx context.Context, caregiverID, patientID uint) (bool, error) {
	rel, err := g.relationships.FindByPair(ctx, caregiverID, patientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load relationship: %w", err)
	}
	return rel.State == domain.RelationshipAccepted, nil
}

// RequireAccess fails with ErrPatientAccessDenied unless HasAccess holds.
func (g *AccessGuardImpl) RequireAccess(ctx context.Context, actor domain.Actor, patientID uint) error {
	ok, err := g.HasAccess(ctx, actor, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return g.deny(ctx, actor, patientID, domain.ErrPatientAccessDenied)
	}
	return nil
}

// RequireCaregiver fails unless actor is a caregiver linked to the patient.
func (g *AccessGuardImpl) RequireCaregiver(ctx context.Context, actor domain.Actor, patientID uint) error {
	if actor.Role != domain.RoleCaregiver {
		return g.deny(ctx, actor, patientID, domain.ErrCaregiverOnly)
	}
	ok, err := g.isLinkedCaregiver(ctx, actor.ID, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return g.deny(ctx, actor, patientID, domain.ErrCaregiverOnly)
	}
	return nil
}

// RequirePatient fails unless actor is the patient.
func (g *AccessGuardImpl) RequirePatient(ctx context.Context, actor domain.Actor, patientID uint) error {
	if actor.Role != domain.RolePatient || actor.ID != patientID {
		return g.deny(ctx, actor, patientID, domain.ErrPatientOnly)
	}
	return nil
}

// ResolvePatientID picks the patient an actor's request refers to. Patients
// always act on themselves; caregivers must name a patient they can access.
func (g *AccessGuardImpl) ResolvePatientID(ctx context.Context, actor domain.Actor, requested *uint) (uint, error) {
	switch actor.Role {
	case domain.RolePatient:
		return actor.ID, nil
	case domain.RoleCaregiver:
		if requested == nil || *requested == 0 {
			return 0, domain.ErrPatientIDRequired
		}
		if err := g.RequireAccess(ctx, actor, *requested); err != nil {
			return 0, err
		}
		return *requested, nil
	default:
		return 0, g.deny(ctx, actor, 0, domain.ErrRoleNotAuthorized)
	}
}

func (g *AccessGuardImpl) deny(ctx context.Context, actor domain.Actor, patientID uint, reason error) error {
	if g.audit != nil {
		event := domain.NewAuditEvent(domain.AccessDeniedEvent, actor.ID, g.clock.Now()).
			WithEmail(actor.Email).
			WithError(reason).
			WithMetadata("role", string(actor.Role)).
			WithMetadata("patient_id", patientID)
		if err := g.audit.LogEvent(ctx, event); err != nil {
			g.log.Warn("audit log failed", zap.Error(err))
		}
	}
	return reason
}
