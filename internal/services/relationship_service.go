package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// RelationshipServiceImpl implements domain.RelationshipService
type RelationshipServiceImpl struct {
	relationships domain.RelationshipRepository
	users         domain.UserRepository
	profiles      domain.PatientProfileRepository
	notifier      domain.Notifier
	audit         domain.AuditLogger
	clock         domain.Clock
	log           *zap.Logger
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(
	relationships domain.RelationshipRepository,
	users domain.UserRepository,
	profiles domain.PatientProfileRepository,
	notifier domain.Notifier,
	audit domain.AuditLogger,
	clock domain.Clock,
	log *zap.Logger,
) domain.RelationshipService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RelationshipServiceImpl{
		relationships: relationships,
		users:         users,
		profiles:      profiles,
		notifier:      notifier,
		audit:         audit,
		clock:         clock,
		log:           log.Named("relationships"),
	}
}

func (s *RelationshipServiceImpl) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.log.Warn("audit log failed", zap.Error(err))
	}
}

// Invite creates a pending relationship between the patient and the caregiver
// registered under caregiverEmail. Any existing row for the pair, whatever its
// state, blocks the invitation.
func (s *RelationshipServiceImpl) Invite(ctx context.Context, patientID uint, caregiverEmail string) (*domain.Relationship, error) {
	caregiver, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(caregiverEmail)))
	if err != nil {
		return nil, err
	}
	if caregiver.Role != domain.RoleCaregiver {
		return nil, domain.ErrNotACaregiver
	}

	if _, err := s.relationships.FindByPair(ctx, caregiver.ID, patientID); err == nil {
		return nil, domain.ErrRelationshipExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check relationship: %w", err)
	}

	now := s.clock.Now()
	rel := &domain.Relationship{
		CaregiverID: caregiver.ID,
		PatientID:   patientID,
		IsPrimary:   false,
		State:       domain.RelationshipPending,
	}
	rel.Normalize(now)
	if err := s.relationships.Create(ctx, rel); err != nil {
		return nil, err
	}
	rel.Caregiver = caregiver

	patient, err := s.users.FindByID(ctx, patientID)
	if err != nil {
		s.log.Warn("invitation sent without patient details", zap.Uint("patient_id", patientID), zap.Error(err))
		patient = &domain.User{ID: patientID}
	}
	rel.Patient = patient

	if s.notifier != nil {
		if err := s.notifier.SendInvitation(ctx, caregiver, patient); err != nil {
			s.log.Error("invitation delivery failed",
				zap.Uint("relationship_id", rel.ID),
				zap.Uint("caregiver_id", caregiver.ID),
				zap.Error(err))
		}
	}
	s.logEvent(ctx, domain.NewAuditEvent(domain.InvitationSentEvent, patientID, now).
		WithEmail(caregiver.Email).
		WithMetadata("relationship_id", rel.ID))

	return rel, nil
}

// Accept answers an invitation positively.
func (s *RelationshipServiceImpl) Accept(ctx context.Context, actor domain.Actor, relationshipID uint) (*domain.Relationship, error) {
	return s.answer(ctx, actor, relationshipID, domain.RelationshipAccepted)
}

// Reject answers an invitation negatively.
func (s *RelationshipServiceImpl) Reject(ctx context.Context, actor domain.Actor, relationshipID uint) (*domain.Relationship, error) {
	return s.answer(ctx, actor, relationshipID, domain.RelationshipRejected)
}

func (s *RelationshipServiceImpl) answer(ctx context.Context, actor domain.Actor, relationshipID uint, to domain.RelationshipState) (*domain.Relationship, error) {
	rel, err := s.relationships.FindByID(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleCaregiver || rel.CaregiverID != actor.ID {
		return nil, domain.ErrInvitationNotForUser
	}

	before := rel.State
	now := s.clock.Now()
	if err := rel.Transition(to, now); err != nil {
		return nil, err
	}
	if before == rel.State {
		return rel, nil
	}

	if err := s.relationships.Update(ctx, rel); err != nil {
		return nil, err
	}
	s.logEvent(ctx, domain.NewAuditEvent(domain.InvitationAnsweredEvent, actor.ID, now).
		WithEmail(actor.Email).
		WithMetadata("relationship_id", rel.ID).
		WithMetadata("state", string(rel.State)))
	return rel, nil
}

// Unlink removes the relationship between a patient and a caregiver.
func (s *RelationshipServiceImpl) Unlink(ctx context.Context, patientID, caregiverID uint) error {
	rel, err := s.relationships.FindByPair(ctx, caregiverID, patientID)
	if err != nil {
		return err
	}
	if err := s.relationships.Delete(ctx, rel.ID); err != nil {
		return err
	}
	s.logEvent(ctx, domain.NewAuditEvent(domain.CaregiverUnlinkedEvent, patientID, s.clock.Now()).
		WithMetadata("caregiver_id", caregiverID))
	return nil
}

// ListByCaregiver implements domain.RelationshipService
func (s *RelationshipServiceImpl) ListByCaregiver(ctx context.Context, caregiverID uint) ([]domain.Relationship, error) {
	return s.relationships.ListByCaregiver(ctx, caregiverID)
}

// ListByPatient implements domain.RelationshipService
func (s *RelationshipServiceImpl) ListByPatient(ctx context.Context, patientID uint) ([]domain.Relationship, error) {
	return s.relationships.ListByPatient(ctx, patientID)
}

// ListByPatientAndState implements domain.RelationshipService
func (s *RelationshipServiceImpl) ListByPatientAndState(ctx context.Context, patientID uint, state domain.RelationshipState) ([]domain.Relationship, error) {
	return s.relationships.ListByPatientAndState(ctx, patientID, state)
}

// ListByCaregiverAndState implements domain.RelationshipService
func (s *RelationshipServiceImpl) ListByCaregiverAndState(ctx context.Context, caregiverID uint, state domain.RelationshipState) ([]domain.Relationship, error) {
	return s.relationships.ListByCaregiverAndState(ctx, caregiverID, state)
}

// CountAccepted implements domain.RelationshipService
func (s *RelationshipServiceImpl) CountAccepted(ctx context.Context, patientID uint) (int64, error) {
	return s.relationships.CountAccepted(ctx, patientID)
}

// PendingInvitations lists the invitations a caregiver has not answered yet.
func (s *RelationshipServiceImpl) PendingInvitations(ctx context.Context, caregiverID uint) ([]domain.Relationship, error) {
	return s.relationships.ListByCaregiverAndState(ctx, caregiverID, domain.RelationshipPending)
}

// LinkedPatients lists the accepted relationships of a caregiver, each with
// the patient's medical profile when one has been filled in.
func (s *RelationshipServiceImpl) LinkedPatients(ctx context.Context, caregiverID uint) ([]domain.Relationship, error) {
	rels, err := s.relationships.ListByCaregiverAndState(ctx, caregiverID, domain.RelationshipAccepted)
	if err != nil || len(rels) == 0 || s.profiles == nil {
		return rels, err
	}

	ids := make([]uint, 0, len(rels))
	for _, r := range rels {
		ids = append(ids, r.PatientID)
	}
	profiles, err := s.profiles.ListByPatients(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient profiles: %w", err)
	}
	byPatient := make(map[uint]*domain.PatientProfile, len(profiles))
	for i := range profiles {
		byPatient[profiles[i].PatientID] = &profiles[i]
	}
	for i := range rels {
		rels[i].PatientProfile = byPatient[rels[i].PatientID]
	}
	return rels, nil
}
