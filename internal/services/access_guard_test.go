package services

import (
	"context"
	"errors"
	"testing"

	"github.com/cuido/cuidosvc/domain"
)

func TestAccessGuardImpl_HasAccess(t *testing.T) {
	tests := []struct {
		name     string
		state    domain.RelationshipState // empty means no row
		expected bool
	}{
		{name: "accepted relationship", state: domain.RelationshipAccepted, expected: true},
		{name: "pending relationship", state: domain.RelationshipPending, expected: false},
		{name: "rejected relationship", state: domain.RelationshipRejected, expected: false},
		{name: "no relationship", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			patient := env.createUser(t, "p@example.com", domain.RolePatient)
			caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)

			if tt.state != "" {
				rel := &domain.Relationship{CaregiverID: caregiver.ID, PatientID: patient.ID, State: tt.state}
				rel.Normalize(fixedNow)
				if err := env.relationships.Create(ctx, rel); err != nil {
					t.Fatalf("seed relationship: %v", err)
				}
			}

			got, err := env.guard.HasAccess(ctx, domain.ActorFor(caregiver), patient.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("caregiver access: expected %v, got %v", tt.expected, got)
			}

			self, err := env.guard.HasAccess(ctx, domain.ActorFor(patient), patient.ID)
			if err != nil || !self {
				t.Errorf("patient must always reach their own data, got %v (%v)", self, err)
			}

			if tt.expected {
				if err := env.guard.RequireAccess(ctx, domain.ActorFor(caregiver), patient.ID); err != nil {
					t.Errorf("RequireAccess: unexpected %v", err)
				}
			} else if err := env.guard.RequireAccess(ctx, domain.ActorFor(caregiver), patient.ID); !errors.Is(err, domain.ErrAccessDenied) {
				t.Errorf("RequireAccess: expected access denied, got %v", err)
			}
		})
	}
}

func TestAccessGuardImpl_RoleChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	otherPatient := env.createUser(t, "q@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	admin := domain.Actor{ID: 99, Role: domain.RoleAdmin}
	env.link(t, caregiver, patient)

	if err := env.guard.RequireCaregiver(ctx, domain.ActorFor(caregiver), patient.ID); err != nil {
		t.Errorf("linked caregiver: %v", err)
	}
	if err := env.guard.RequireCaregiver(ctx, domain.ActorFor(patient), patient.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("patient is not a caregiver: got %v", err)
	}
	if err := env.guard.RequireCaregiver(ctx, domain.ActorFor(caregiver), otherPatient.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("unlinked patient: got %v", err)
	}
	if err := env.guard.RequirePatient(ctx, domain.ActorFor(patient), patient.ID); err != nil {
		t.Errorf("patient on self: %v", err)
	}
	if err := env.guard.RequirePatient(ctx, domain.ActorFor(otherPatient), patient.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("other patient: got %v", err)
	}
	if ok, _ := env.guard.HasAccess(ctx, admin, patient.ID); ok {
		t.Error("admins do not read patient data")
	}

	denied := env.audit.Events(domain.AccessDeniedEvent)
	if len(denied) != 3 {
		t.Errorf("expected 3 access denied events, got %d", len(denied))
	}
}

func TestAccessGuardImpl_ResolvePatientID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	stranger := env.createUser(t, "s@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	env.link(t, caregiver, patient)

	id := func(v uint) *uint { return &v }

	tests := []struct {
		name          string
		actor         domain.Actor
		requested     *uint
		expected      uint
		expectedError error
	}{
		{name: "patient ignores requested id", actor: domain.ActorFor(patient), requested: id(stranger.ID), expected: patient.ID},
		{name: "patient without id", actor: domain.ActorFor(patient), expected: patient.ID},
		{name: "caregiver with linked patient", actor: domain.ActorFor(caregiver), requested: id(patient.ID), expected: patient.ID},
		{name: "caregiver must name a patient", actor: domain.ActorFor(caregiver), expectedError: domain.ErrPatientIDRequired},
		{name: "caregiver with unlinked patient", actor: domain.ActorFor(caregiver), requested: id(stranger.ID), expectedError: domain.ErrPatientAccessDenied},
		{name: "admin is rejected", actor: domain.Actor{ID: 50, Role: domain.RoleAdmin}, requested: id(patient.ID), expectedError: domain.ErrRoleNotAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.guard.ResolvePatientID(ctx, tt.actor, tt.requested)
			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("expected %v, got %v", tt.expectedError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected patient %d, got %d", tt.expected, got)
			}
		})
	}
}
