package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// DBRelationship is the caregiver_patient row. The pair is unique so a second
// invitation for the same caregiver and patient fails at the storage layer too.
type DBRelationship struct {
	ID          uint    `gorm:"primaryKey"`
	CaregiverID uint    `gorm:"not null;uniqueIndex:idx_caregiver_patient"`
	PatientID   uint    `gorm:"not null;uniqueIndex:idx_caregiver_patient;index"`
	Caregiver   *DBUser `gorm:"foreignKey:CaregiverID"`
	Patient     *DBUser `gorm:"foreignKey:PatientID"`
	IsPrimary   bool
	State       string `gorm:"size:16;index;not null"`
	InvitedAt   time.Time
	AcceptedAt  *time.Time
}

// TableName returns the table name for GORM
func (DBRelationship) TableName() string {
	return "caregiver_patients"
}

// RelationshipRepositoryImpl implements domain.RelationshipRepository using GORM
type RelationshipRepositoryImpl struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *gorm.DB) domain.RelationshipRepository {
	return &RelationshipRepositoryImpl{db: db}
}

// Create implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) Create(ctx context.Context, rel *domain.Relationship) error {
	row := relationshipToDB(rel)
	if err := dbFrom(ctx, r.db).Omit("Caregiver", "Patient").Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrRelationshipExists
		}
		return err
	}
	rel.ID = row.ID
	return nil
}

// FindByID implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Relationship, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByPair implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) FindByPair(ctx context.Context, caregiverID, patientID uint) (*domain.Relationship, error) {
	return r.findOne(ctx, "caregiver_id = ? AND patient_id = ?", caregiverID, patientID)
}

func (r *RelationshipRepositoryImpl) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Relationship, error) {
	var row DBRelationship
	err := dbFrom(ctx, r.db).Preload("Caregiver").Preload("Patient").Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRelationshipNotFound
		}
		return nil, err
	}
	return relationshipToDomain(&row), nil
}

// Update implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) Update(ctx context.Context, rel *domain.Relationship) error {
	res := dbFrom(ctx, r.db).Model(&DBRelationship{}).Where("id = ?", rel.ID).Updates(map[string]interface{}{
		"state":       string(rel.State),
		"is_primary":  rel.IsPrimary,
		"accepted_at": rel.AcceptedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRelationshipNotFound
	}
	return nil
}

// Delete implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBRelationship{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRelationshipNotFound
	}
	return nil
}

// ListByCaregiver implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) ListByCaregiver(ctx context.Context, caregiverID uint) ([]domain.Relationship, error) {
	return r.list(ctx, "caregiver_id = ?", caregiverID)
}

// ListByPatient implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) ListByPatient(ctx context.Context, patientID uint) ([]domain.Relationship, error) {
	return r.list(ctx, "patient_id = ?", patientID)
}

// ListByCaregiverAndState implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) ListByCaregiverAndState(ctx context.Context, caregiverID uint, state domain.RelationshipState) ([]domain.Relationship, error) {
	return r.list(ctx, "caregiver_id = ? AND state = ?", caregiverID, string(state))
}

// ListByPatientAndState implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) ListByPatientAndState(ctx context.Context, patientID uint, state domain.RelationshipState) ([]domain.Relationship, error) {
	return r.list(ctx, "patient_id = ? AND state = ?", patientID, string(state))
}

// CountAccepted implements domain.RelationshipRepository
func (r *RelationshipRepositoryImpl) CountAccepted(ctx context.Context, patientID uint) (int64, error) {
	var n int64
	err := dbFrom(ctx, r.db).Model(&DBRelationship{}).
		Where("patient_id = ? AND state = ?", patientID, string(domain.RelationshipAccepted)).
		Count(&n).Error
	return n, err
}

func (r *RelationshipRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]domain.Relationship, error) {
	var rows []DBRelationship
	err := dbFrom(ctx, r.db).Preload("Caregiver").Preload("Patient").
		Where(query, args...).Order("invited_at DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Relationship, 0, len(rows))
	for i := range rows {
		out = append(out, *relationshipToDomain(&rows[i]))
	}
	return out, nil
}

func relationshipToDB(rel *domain.Relationship) *DBRelationship {
	return &DBRelationship{
		ID:          rel.ID,
		CaregiverID: rel.CaregiverID,
		PatientID:   rel.PatientID,
		IsPrimary:   rel.IsPrimary,
		State:       string(rel.State),
		InvitedAt:   rel.InvitedAt,
		AcceptedAt:  rel.AcceptedAt,
	}
}

func relationshipToDomain(row *DBRelationship) *domain.Relationship {
	return &domain.Relationship{
		ID:          row.ID,
		CaregiverID: row.CaregiverID,
		PatientID:   row.PatientID,
		IsPrimary:   row.IsPrimary,
		State:       domain.RelationshipState(row.State),
		InvitedAt:   row.InvitedAt,
		AcceptedAt:  row.AcceptedAt,
		Caregiver:   userToDomain(row.Caregiver),
		Patient:     userToDomain(row.Patient),
	}
}
