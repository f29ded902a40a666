package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBPatientProfile is the one-per-patient medical summary row.
type DBPatientProfile struct {
	ID                uint     `gorm:"primaryKey"`
	PatientID         uint     `gorm:"not null;uniqueIndex"`
	BloodType         string   `gorm:"size:3"`
	WeightKg          *float64 `gorm:"type:numeric(5,2)"`
	HeightCm          *float64 `gorm:"type:numeric(5,2)"`
	Allergies         string   `gorm:"type:text"`
	MedicalConditions string   `gorm:"type:text"`
	Notes             string   `gorm:"type:text"`
	HealthInsurance   string   `gorm:"size:255"`
	MemberNumber      string   `gorm:"size:100"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName returns the table name for GORM
func (DBPatientProfile) TableName() string {
	return "patient_profiles"
}

// PatientProfileRepositoryImpl implements domain.PatientProfileRepository using GORM
type PatientProfileRepositoryImpl struct {
	db *gorm.DB
}

// NewPatientProfileRepository creates a new patient profile repository
func NewPatientProfileRepository(db *gorm.DB) domain.PatientProfileRepository {
	return &PatientProfileRepositoryImpl{db: db}
}

// FindByPatient implements domain.PatientProfileRepository
func (r *PatientProfileRepositoryImpl) FindByPatient(ctx context.Context, patientID uint) (*domain.PatientProfile, error) {
	var row DBPatientProfile
	if err := dbFrom(ctx, r.db).Where("patient_id = ?", patientID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatientProfileNotFound
		}
		return nil, err
	}
	return patientProfileToDomain(&row), nil
}

// Save implements domain.PatientProfileRepository. It inserts the profile or
// overwrites the existing one, keeping the original creation time.
func (r *PatientProfileRepositoryImpl) Save(ctx context.Context, p *domain.PatientProfile) error {
	row := patientProfileToDB(p)
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "patient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"blood_type", "weight_kg", "height_cm", "allergies", "medical_conditions",
			"notes", "health_insurance", "member_number", "updated_at",
		}),
	}).Create(row).Error
}

// ListByPatients implements domain.PatientProfileRepository. Patients without
// a profile are absent from the result.
func (r *PatientProfileRepositoryImpl) ListByPatients(ctx context.Context, patientIDs []uint) ([]domain.PatientProfile, error) {
	if len(patientIDs) == 0 {
		return nil, nil
	}
	var rows []DBPatientProfile
	if err := dbFrom(ctx, r.db).Where("patient_id IN ?", patientIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PatientProfile, 0, len(rows))
	for i := range rows {
		out = append(out, *patientProfileToDomain(&rows[i]))
	}
	return out, nil
}

func patientProfileToDB(p *domain.PatientProfile) *DBPatientProfile {
	return &DBPatientProfile{
		PatientID:         p.PatientID,
		BloodType:         p.BloodType,
		WeightKg:          p.WeightKg,
		HeightCm:          p.HeightCm,
		Allergies:         p.Allergies,
		MedicalConditions: p.MedicalConditions,
		Notes:             p.Notes,
		HealthInsurance:   p.HealthInsurance,
		MemberNumber:      p.MemberNumber,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func patientProfileToDomain(row *DBPatientProfile) *domain.PatientProfile {
	return &domain.PatientProfile{
		PatientID:         row.PatientID,
		BloodType:         row.BloodType,
		WeightKg:          row.WeightKg,
		HeightCm:          row.HeightCm,
		Allergies:         row.Allergies,
		MedicalConditions: row.MedicalConditions,
		Notes:             row.Notes,
		HealthInsurance:   row.HealthInsurance,
		MemberNumber:      row.MemberNumber,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
