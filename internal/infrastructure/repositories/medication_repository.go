package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DBMedication represents the database model for Medication
type DBMedication struct {
	ID          uint   `gorm:"primaryKey"`
	PatientID   uint   `gorm:"index;not null"`
	CaregiverID uint   `gorm:"index"`
	Name        string `gorm:"size:255;not null"`
	Dose        string `gorm:"size:128"`
	Frequency   string `gorm:"size:128"`
	Route       string `gorm:"size:64"`
	StartDate   time.Time
	EndDate     time.Time
	Active      bool   `gorm:"index"`
	Notes       string `gorm:"type:text"`
	Schedules   []DBScheduleSlot `gorm:"foreignKey:MedicationID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (DBMedication) TableName() string {
	return "medications"
}

// DBScheduleSlot is one time-of-day slot of a medication. Days holds the
// weekday letters as a JSON array; an empty array means every day.
type DBScheduleSlot struct {
	ID           uint           `gorm:"primaryKey"`
	MedicationID uint           `gorm:"index;not null"`
	TimeOfDay    string         `gorm:"size:5;not null"`
	Days         datatypes.JSON `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DBScheduleSlot) TableName() string {
	return "medication_schedules"
}

// MedicationRepositoryImpl implements domain.MedicationRepository using GORM
type MedicationRepositoryImpl struct {
	db *gorm.DB
}

// NewMedicationRepository creates a new medication repository
func NewMedicationRepository(db *gorm.DB) domain.MedicationRepository {
	return &MedicationRepositoryImpl{db: db}
}

// Create implements domain.MedicationRepository. Schedule slots are inserted
// together with the medication.
func (r *MedicationRepositoryImpl) Create(ctx context.Context, m *domain.Medication) error {
	row, err := medicationToDB(m)
	if err != nil {
		return err
	}
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	m.ID = row.ID
	m.CreatedAt = row.CreatedAt
	m.UpdatedAt = row.UpdatedAt
	for i := range row.Schedules {
		m.Schedules[i].ID = row.Schedules[i].ID
		m.Schedules[i].MedicationID = row.ID
	}
	return nil
}

// FindByID implements domain.MedicationRepository
func (r *MedicationRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Medication, error) {
	var row DBMedication
	err := dbFrom(ctx, r.db).Preload("Schedules").Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMedicationNotFound
		}
		return nil, err
	}
	return medicationToDomain(&row)
}

// ListByPatient implements domain.MedicationRepository
func (r *MedicationRepositoryImpl) ListByPatient(ctx context.Context, patientID uint, onlyActive bool) ([]domain.Medication, error) {
	q := dbFrom(ctx, r.db).Preload("Schedules").Where("patient_id = ?", patientID)
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	var rows []DBMedication
	if err := q.Order("start_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Medication, 0, len(rows))
	for i := range rows {
		m, err := medicationToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// SetActive implements domain.MedicationRepository
func (r *MedicationRepositoryImpl) SetActive(ctx context.Context, id uint, active bool) error {
	res := dbFrom(ctx, r.db).Model(&DBMedication{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMedicationNotFound
	}
	return nil
}

// Delete implements domain.MedicationRepository. Slots are removed first so
// the delete does not depend on the driver enforcing the cascade.
func (r *MedicationRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db := dbFrom(ctx, r.db)
	if err := db.Where("medication_id = ?", id).Delete(&DBScheduleSlot{}).Error; err != nil {
		return fmt.Errorf("failed to delete schedules: %w", err)
	}
	res := db.Delete(&DBMedication{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMedicationNotFound
	}
	return nil
}

func medicationToDB(m *domain.Medication) (*DBMedication, error) {
	row := &DBMedication{
		ID:          m.ID,
		PatientID:   m.PatientID,
		CaregiverID: m.CaregiverID,
		Name:        m.Name,
		Dose:        m.Dose,
		Frequency:   m.Frequency,
		Route:       m.Route,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		Active:      m.Active,
		Notes:       m.Notes,
	}
	for _, s := range m.Schedules {
		days, err := json.Marshal(s.Days.Letters())
		if err != nil {
			return nil, fmt.Errorf("failed to encode weekdays: %w", err)
		}
		row.Schedules = append(row.Schedules, DBScheduleSlot{
			ID:        s.ID,
			TimeOfDay: s.TimeOfDay.String(),
			Days:      datatypes.JSON(days),
		})
	}
	return row, nil
}

func medicationToDomain(row *DBMedication) (*domain.Medication, error) {
	m := &domain.Medication{
		ID:          row.ID,
		PatientID:   row.PatientID,
		CaregiverID: row.CaregiverID,
		Name:        row.Name,
		Dose:        row.Dose,
		Frequency:   row.Frequency,
		Route:       row.Route,
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
		Active:      row.Active,
		Notes:       row.Notes,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	for _, s := range row.Schedules {
		tod, err := domain.ParseTimeOfDay(s.TimeOfDay)
		if err != nil {
			return nil, err
		}
		var letters []string
		if len(s.Days) > 0 {
			if err := json.Unmarshal(s.Days, &letters); err != nil {
				return nil, fmt.Errorf("failed to decode weekdays: %w", err)
			}
		}
		days, err := domain.ParseWeekdays(letters)
		if err != nil {
			return nil, err
		}
		m.Schedules = append(m.Schedules, domain.ScheduleSlot{
			ID:           s.ID,
			MedicationID: s.MedicationID,
			TimeOfDay:    tod,
			Days:         days,
		})
	}
	return m, nil
}
