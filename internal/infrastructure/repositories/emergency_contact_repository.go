package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// DBEmergencyContact represents the database model for EmergencyContact
type DBEmergencyContact struct {
	ID        uint   `gorm:"primaryKey"`
	PatientID uint   `gorm:"index;not null"`
	Name      string `gorm:"size:255;not null"`
	Relation  string `gorm:"size:64"`
	Phone     string `gorm:"size:20;not null"`
	Email     string `gorm:"size:255"`
	IsPrimary bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (DBEmergencyContact) TableName() string {
	return "emergency_contacts"
}

// EmergencyContactRepositoryImpl implements domain.EmergencyContactRepository using GORM
type EmergencyContactRepositoryImpl struct {
	db *gorm.DB
}

// NewEmergencyContactRepository creates a new emergency contact repository
func NewEmergencyContactRepository(db *gorm.DB) domain.EmergencyContactRepository {
	return &EmergencyContactRepositoryImpl{db: db}
}

// Create implements domain.EmergencyContactRepository
func (r *EmergencyContactRepositoryImpl) Create(ctx context.Context, c *domain.EmergencyContact) error {
	row := &DBEmergencyContact{
		PatientID: c.PatientID,
		Name:      c.Name,
		Relation:  c.Relation,
		Phone:     c.Phone,
		Email:     c.Email,
		IsPrimary: c.Primary,
	}
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return nil
}

// FindByID implements domain.EmergencyContactRepository
func (r *EmergencyContactRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.EmergencyContact, error) {
	var row DBEmergencyContact
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrContactNotFound
		}
		return nil, err
	}
	return contactToDomain(&row), nil
}

// Update implements domain.EmergencyContactRepository
func (r *EmergencyContactRepositoryImpl) Update(ctx context.Context, c *domain.EmergencyContact) error {
	res := dbFrom(ctx, r.db).Model(&DBEmergencyContact{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":       c.Name,
		"relation":   c.Relation,
		"phone":      c.Phone,
		"email":      c.Email,
		"is_primary": c.Primary,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

// Delete implements domain.EmergencyContactRepository
func (r *EmergencyContactRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBEmergencyContact{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

// ListByPatient implements domain.EmergencyContactRepository
func (r *EmergencyContactRepositoryImpl) ListByPatient(ctx context.Context, patientID uint) ([]domain.EmergencyContact, error) {
	var rows []DBEmergencyContact
	err := dbFrom(ctx, r.db).Where("patient_id = ?", patientID).
		Order("is_primary DESC").Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.EmergencyContact, 0, len(rows))
	for i := range rows {
		out = append(out, *contactToDomain(&rows[i]))
	}
	return out, nil
}

// ClearPrimary implements domain.EmergencyContactRepository. It unmarks every
// primary contact of the patient except exceptID.
func (r *EmergencyContactRepositoryImpl) ClearPrimary(ctx context.Context, patientID, exceptID uint) error {
	return dbFrom(ctx, r.db).Model(&DBEmergencyContact{}).
		Where("patient_id = ? AND is_primary = ? AND id <> ?", patientID, true, exceptID).
		Update("is_primary", false).Error
}

func contactToDomain(row *DBEmergencyContact) *domain.EmergencyContact {
	return &domain.EmergencyContact{
		ID:        row.ID,
		PatientID: row.PatientID,
		Name:      row.Name,
		Relation:  row.Relation,
		Phone:     row.Phone,
		Email:     row.Email,
		Primary:   row.IsPrimary,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
