package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

func TestRelationshipRepositoryImpl_CreateUniquePair(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	patient := createTestUser(t, users, "p@example.com", domain.RolePatient)
	caregiver := createTestUser(t, users, "c@example.com", domain.RoleCaregiver)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	rel := &domain.Relationship{CaregiverID: caregiver.ID, PatientID: patient.ID}
	rel.Normalize(now)
	if err := repo.Create(ctx, rel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}

	dup := &domain.Relationship{CaregiverID: caregiver.ID, PatientID: patient.ID}
	dup.Normalize(now)
	if err := repo.Create(ctx, dup); !errors.Is(err, domain.ErrRelationshipExists) {
		t.Fatalf("expected ErrRelationshipExists, got %v", err)
	}

	got, err := repo.FindByPair(ctx, caregiver.ID, patient.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != domain.RelationshipPending {
		t.Errorf("expected pending, got %s", got.State)
	}
	if got.Caregiver == nil || got.Caregiver.Email != "c@example.com" {
		t.Errorf("expected caregiver to be loaded, got %+v", got.Caregiver)
	}
	if got.Patient == nil || got.Patient.Email != "p@example.com" {
		t.Errorf("expected patient to be loaded, got %+v", got.Patient)
	}
}

func TestRelationshipRepositoryImpl_UpdateListCount(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	patient := createTestUser(t, users, "p@example.com", domain.RolePatient)
	c1 := createTestUser(t, users, "c1@example.com", domain.RoleCaregiver)
	c2 := createTestUser(t, users, "c2@example.com", domain.RoleCaregiver)

	r1 := &domain.Relationship{CaregiverID: c1.ID, PatientID: patient.ID}
	r1.Normalize(now)
	r2 := &domain.Relationship{CaregiverID: c2.ID, PatientID: patient.ID}
	r2.Normalize(now)
	for _, r := range []*domain.Relationship{r1, r2} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := r1.Transition(domain.RelationshipAccepted, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Update(ctx, r1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := repo.CountAccepted(ctx, patient.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 accepted, got %d (%v)", n, err)
	}

	pending, err := repo.ListByPatientAndState(ctx, patient.ID, domain.RelationshipPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 || pending[0].CaregiverID != c2.ID {
		t.Errorf("unexpected pending list: %+v", pending)
	}

	all, _ := repo.ListByPatient(ctx, patient.ID)
	if len(all) != 2 {
		t.Errorf("expected 2 relationships, got %d", len(all))
	}

	mine, _ := repo.ListByCaregiverAndState(ctx, c1.ID, domain.RelationshipAccepted)
	if len(mine) != 1 || mine[0].AcceptedAt == nil {
		t.Errorf("expected accepted relationship with AcceptedAt, got %+v", mine)
	}
}

func TestRelationshipRepositoryImpl_DeleteAllowsReinvite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()
	now := time.Now()

	rel := &domain.Relationship{CaregiverID: 2, PatientID: 1}
	rel.Normalize(now)
	if err := repo.Create(ctx, rel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, rel.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, rel.ID); !errors.Is(err, domain.ErrRelationshipNotFound) {
		t.Errorf("expected ErrRelationshipNotFound on second delete, got %v", err)
	}

	again := &domain.Relationship{CaregiverID: 2, PatientID: 1}
	again.Normalize(now)
	if err := repo.Create(ctx, again); err != nil {
		t.Errorf("expected re-invite after delete to succeed, got %v", err)
	}
}
