package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// DBLogEntry represents the database model for LogEntry
type DBLogEntry struct {
	ID           uint      `gorm:"primaryKey"`
	PatientID    uint      `gorm:"index:idx_logbook_patient_date,priority:1;not null"`
	CaregiverID  uint      `gorm:"index;not null"`
	Date         time.Time `gorm:"index:idx_logbook_patient_date,priority:2;not null"`
	Title        string    `gorm:"size:255"`
	Description  string    `gorm:"type:text;not null"`
	Symptoms     string    `gorm:"type:text"`
	Observations string    `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (DBLogEntry) TableName() string {
	return "logbook_entries"
}

// LogEntryRepositoryImpl implements domain.LogEntryRepository using GORM
type LogEntryRepositoryImpl struct {
	db *gorm.DB
}

// NewLogEntryRepository creates a new logbook repository
func NewLogEntryRepository(db *gorm.DB) domain.LogEntryRepository {
	return &LogEntryRepositoryImpl{db: db}
}

// Create implements domain.LogEntryRepository
func (r *LogEntryRepositoryImpl) Create(ctx context.Context, e *domain.LogEntry) error {
	row := &DBLogEntry{
		PatientID:    e.PatientID,
		CaregiverID:  e.CaregiverID,
		Date:         e.Date,
		Title:        e.Title,
		Description:  e.Description,
		Symptoms:     e.Symptoms,
		Observations: e.Observations,
	}
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	e.UpdatedAt = row.UpdatedAt
	return nil
}

// FindByID implements domain.LogEntryRepository
func (r *LogEntryRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.LogEntry, error) {
	var row DBLogEntry
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLogEntryNotFound
		}
		return nil, err
	}
	return logEntryToDomain(&row), nil
}

// Update implements domain.LogEntryRepository
func (r *LogEntryRepositoryImpl) Update(ctx context.Context, e *domain.LogEntry) error {
	res := dbFrom(ctx, r.db).Model(&DBLogEntry{}).Where("id = ?", e.ID).Updates(map[string]interface{}{
		"date":         e.Date,
		"title":        e.Title,
		"description":  e.Description,
		"symptoms":     e.Symptoms,
		"observations": e.Observations,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrLogEntryNotFound
	}
	return nil
}

// Delete implements domain.LogEntryRepository
func (r *LogEntryRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBLogEntry{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrLogEntryNotFound
	}
	return nil
}

// ListByPatient implements domain.LogEntryRepository. from and to bound Date
// inclusively when set.
func (r *LogEntryRepositoryImpl) ListByPatient(ctx context.Context, patientID uint, from, to *time.Time) ([]domain.LogEntry, error) {
	q := dbFrom(ctx, r.db).Where("patient_id = ?", patientID)
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}
	return r.list(q)
}

// ListByCaregiver implements domain.LogEntryRepository
func (r *LogEntryRepositoryImpl) ListByCaregiver(ctx context.Context, caregiverID uint) ([]domain.LogEntry, error) {
	return r.list(dbFrom(ctx, r.db).Where("caregiver_id = ?", caregiverID))
}

// CountOnDate implements domain.LogEntryRepository
func (r *LogEntryRepositoryImpl) CountOnDate(ctx context.Context, patientID uint, date time.Time) (int64, error) {
	start, end := domain.DayWindow(date)
	var n int64
	err := dbFrom(ctx, r.db).Model(&DBLogEntry{}).
		Where("patient_id = ? AND date >= ? AND date < ?", patientID, start, end).
		Count(&n).Error
	return n, err
}

func (r *LogEntryRepositoryImpl) list(q *gorm.DB) ([]domain.LogEntry, error) {
	var rows []DBLogEntry
	if err := q.Order("date DESC").Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.LogEntry, 0, len(rows))
	for i := range rows {
		out = append(out, *logEntryToDomain(&rows[i]))
	}
	return out, nil
}

func logEntryToDomain(row *DBLogEntry) *domain.LogEntry {
	return &domain.LogEntry{
		ID:           row.ID,
		PatientID:    row.PatientID,
		CaregiverID:  row.CaregiverID,
		Date:         row.Date,
		Title:        row.Title,
		Description:  row.Description,
		Symptoms:     row.Symptoms,
		Observations: row.Observations,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
