package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// DBAppointment represents the database model for Appointment
type DBAppointment struct {
	ID          uint      `gorm:"primaryKey"`
	PatientID   uint      `gorm:"index;not null"`
	CaregiverID uint      `gorm:"index"`
	DateTime    time.Time `gorm:"index;not null"`
	Location    string    `gorm:"size:255"`
	DoctorName  string    `gorm:"size:255"`
	Specialty   string    `gorm:"size:128"`
	Reason      string    `gorm:"type:text"`
	Notes       string    `gorm:"type:text"`
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (DBAppointment) TableName() string {
	return "appointments"
}

// AppointmentRepositoryImpl implements domain.AppointmentRepository using GORM
type AppointmentRepositoryImpl struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *gorm.DB) domain.AppointmentRepository {
	return &AppointmentRepositoryImpl{db: db}
}

// Create implements domain.AppointmentRepository
func (r *AppointmentRepositoryImpl) Create(ctx context.Context, a *domain.Appointment) error {
	row := &DBAppointment{
		PatientID:   a.PatientID,
		CaregiverID: a.CaregiverID,
		DateTime:    a.DateTime,
		Location:    a.Location,
		DoctorName:  a.DoctorName,
		Specialty:   a.Specialty,
		Reason:      a.Reason,
		Notes:       a.Notes,
		Completed:   a.Completed,
	}
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	a.UpdatedAt = row.UpdatedAt
	return nil
}

// FindByID implements domain.AppointmentRepository
func (r *AppointmentRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Appointment, error) {
	var row DBAppointment
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return appointmentToDomain(&row), nil
}

// ListByPatient implements domain.AppointmentRepository
func (r *AppointmentRepositoryImpl) ListByPatient(ctx context.Context, patientID uint) ([]domain.Appointment, error) {
	var rows []DBAppointment
	if err := dbFrom(ctx, r.db).Where("patient_id = ?", patientID).Order("date_time ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Appointment, 0, len(rows))
	for i := range rows {
		out = append(out, *appointmentToDomain(&rows[i]))
	}
	return out, nil
}

// SetCompleted implements domain.AppointmentRepository
func (r *AppointmentRepositoryImpl) SetCompleted(ctx context.Context, id uint, completed bool) error {
	res := dbFrom(ctx, r.db).Model(&DBAppointment{}).Where("id = ?", id).Update("completed", completed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

// Delete implements domain.AppointmentRepository
func (r *AppointmentRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBAppointment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

func appointmentToDomain(row *DBAppointment) *domain.Appointment {
	return &domain.Appointment{
		ID:          row.ID,
		PatientID:   row.PatientID,
		CaregiverID: row.CaregiverID,
		DateTime:    row.DateTime,
		Location:    row.Location,
		DoctorName:  row.DoctorName,
		Specialty:   row.Specialty,
		Reason:      row.Reason,
		Notes:       row.Notes,
		Completed:   row.Completed,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
