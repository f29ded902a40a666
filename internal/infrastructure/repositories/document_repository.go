package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// DBDocument represents the database model for Document metadata
type DBDocument struct {
	ID          uint   `gorm:"primaryKey"`
	PatientID   uint   `gorm:"not null;index:idx_documents_patient_type,priority:1;index:idx_documents_patient_category,priority:1"`
	UploadedBy  uint   `gorm:"not null"`
	Name        string `gorm:"size:255;not null"`
	Type        string `gorm:"size:32;not null;index:idx_documents_patient_type,priority:2"`
	Category    string `gorm:"column:file_category;size:16;not null;index:idx_documents_patient_category,priority:2"`
	Description string `gorm:"type:text"`
	ContentType string `gorm:"size:128"`
	Size        int64
	StorageKey  string `gorm:"size:512;uniqueIndex"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (DBDocument) TableName() string {
	return "documents"
}

// DocumentRepositoryImpl implements domain.DocumentRepository using GORM
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) domain.DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

// Create implements domain.DocumentRepository
func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *domain.Document) error {
	row := &DBDocument{
		PatientID:   doc.PatientID,
		UploadedBy:  doc.UploadedBy,
		Name:        doc.Name,
		Type:        string(doc.Type),
		Category:    string(doc.Category),
		Description: doc.Description,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		StorageKey:  doc.StorageKey,
		CreatedAt:   doc.CreatedAt,
	}
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	doc.ID = row.ID
	doc.CreatedAt = row.CreatedAt
	return nil
}

// FindByID implements domain.DocumentRepository
func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Document, error) {
	var row DBDocument
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return documentToDomain(&row), nil
}

// ListByPatient implements domain.DocumentRepository. Newest first.
func (r *DocumentRepositoryImpl) ListByPatient(ctx context.Context, patientID uint, filter domain.DocumentFilter) ([]domain.Document, error) {
	q := dbFrom(ctx, r.db).Where("patient_id = ?", patientID)
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.Category != "" {
		q = q.Where("file_category = ?", string(filter.Category))
	}
	var rows []DBDocument
	if err := q.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Document, 0, len(rows))
	for i := range rows {
		out = append(out, *documentToDomain(&rows[i]))
	}
	return out, nil
}

// Delete implements domain.DocumentRepository
func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBDocument{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func documentToDomain(row *DBDocument) *domain.Document {
	return &domain.Document{
		ID:          row.ID,
		PatientID:   row.PatientID,
		UploadedBy:  row.UploadedBy,
		Name:        row.Name,
		Type:        domain.DocumentType(row.Type),
		Category:    domain.FileCategory(row.Category),
		Description: row.Description,
		ContentType: row.ContentType,
		Size:        row.Size,
		StorageKey:  row.StorageKey,
		CreatedAt:   row.CreatedAt,
	}
}
