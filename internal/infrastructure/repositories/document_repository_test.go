package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

func TestDocumentRepositoryImpl_CreateKeepsCreatedAt(t *testing.T) {
	repo := NewDocumentRepository(setupTestDB(t))
	ctx := context.Background()
	stamped := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	doc := &domain.Document{
		PatientID: 1, UploadedBy: 2, Name: "lab.pdf",
		Type: domain.DocumentStudy, Category: domain.FileDocument,
		ContentType: "application/pdf", Size: 10, StorageKey: "patients/1/a-lab.pdf",
		CreatedAt: stamped,
	}
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.CreatedAt.Equal(stamped) {
		t.Errorf("expected CreatedAt %v, got %v", stamped, doc.CreatedAt)
	}

	got, err := repo.FindByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.CreatedAt.Equal(stamped) {
		t.Errorf("stored CreatedAt = %v, want %v", got.CreatedAt, stamped)
	}
	if got.Type != domain.DocumentStudy || got.Category != domain.FileDocument {
		t.Errorf("unexpected classification: %+v", got)
	}
}

func TestDocumentRepositoryImpl_ListByPatientFilters(t *testing.T) {
	repo := NewDocumentRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	docs := []domain.Document{
		{PatientID: 1, Name: "record.pdf", Type: domain.DocumentMedicalRecord, Category: domain.FileDocument},
		{PatientID: 1, Name: "xray.png", Type: domain.DocumentStudy, Category: domain.FileImage},
		{PatientID: 1, Name: "rx.jpg", Type: domain.DocumentPrescription, Category: domain.FileImage},
		{PatientID: 2, Name: "other.pdf", Type: domain.DocumentMedicalRecord, Category: domain.FileDocument},
	}
	for i := range docs {
		docs[i].StorageKey = docs[i].Name
		docs[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, &docs[i]); err != nil {
			t.Fatalf("failed to create document: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter domain.DocumentFilter
		want   []string
	}{
		{"no filter newest first", domain.DocumentFilter{}, []string{"rx.jpg", "xray.png", "record.pdf"}},
		{"by type", domain.DocumentFilter{Type: domain.DocumentMedicalRecord}, []string{"record.pdf"}},
		{"by category", domain.DocumentFilter{Category: domain.FileImage}, []string{"rx.jpg", "xray.png"}},
		{"type and category", domain.DocumentFilter{Type: domain.DocumentStudy, Category: domain.FileImage}, []string{"xray.png"}},
		{"no match", domain.DocumentFilter{Type: domain.DocumentOther}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListByPatient(ctx, 1, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var names []string
			for _, d := range got {
				names = append(names, d.Name)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("got %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("got %v, want %v", names, tt.want)
					break
				}
			}
		})
	}
}

func TestDocumentRepositoryImpl_Delete(t *testing.T) {
	repo := NewDocumentRepository(setupTestDB(t))
	ctx := context.Background()

	doc := &domain.Document{PatientID: 1, Name: "a.pdf", Type: domain.DocumentOther, Category: domain.FileDocument, StorageKey: "k"}
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, doc.ID); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}
