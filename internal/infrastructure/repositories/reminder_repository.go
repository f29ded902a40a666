package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// DBReminder is one reminder instance. (Kind, SourceID) points at a medication
// or an appointment; there is no foreign key because the target table depends on Kind.
type DBReminder struct {
	ID          uint      `gorm:"primaryKey"`
	Kind        string    `gorm:"size:16;not null;index:idx_reminder_source"`
	SourceID    uint      `gorm:"not null;index:idx_reminder_source"`
	PatientID   uint      `gorm:"not null;index:idx_reminder_patient_time"`
	DateTime    time.Time `gorm:"not null;index:idx_reminder_patient_time"`
	Status      string    `gorm:"size:16;not null;index"`
	Description string    `gorm:"size:512"`
	Notes       string    `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (DBReminder) TableName() string {
	return "reminders"
}

// ReminderRepositoryImpl implements domain.ReminderRepository using GORM
type ReminderRepositoryImpl struct {
	db        *gorm.DB
	batchSize int
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *gorm.DB) domain.ReminderRepository {
	return &ReminderRepositoryImpl{db: db, batchSize: 200}
}

// CreateBatch implements domain.ReminderRepository. IDs are written back into reminders.
func (r *ReminderRepositoryImpl) CreateBatch(ctx context.Context, reminders []domain.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	rows := make([]DBReminder, len(reminders))
	for i := range reminders {
		rows[i] = reminderToDB(&reminders[i])
	}
	if err := dbFrom(ctx, r.db).CreateInBatches(rows, r.batchSize).Error; err != nil {
		return err
	}
	for i := range rows {
		reminders[i].ID = rows[i].ID
		reminders[i].CreatedAt = rows[i].CreatedAt
		reminders[i].UpdatedAt = rows[i].UpdatedAt
	}
	return nil
}

// FindByID implements domain.ReminderRepository
func (r *ReminderRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Reminder, error) {
	var row DBReminder
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, err
	}
	return reminderToDomain(&row), nil
}

// UpdateStatus implements domain.ReminderRepository
func (r *ReminderRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status domain.ReminderStatus) error {
	res := dbFrom(ctx, r.db).Model(&DBReminder{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

// Delete implements domain.ReminderRepository
func (r *ReminderRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBReminder{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

// DeleteBySource implements domain.ReminderRepository
func (r *ReminderRepositoryImpl) DeleteBySource(ctx context.Context, kind domain.ReminderKind, sourceID uint) (int64, error) {
	res := dbFrom(ctx, r.db).Where("kind = ? AND source_id = ?", string(kind), sourceID).Delete(&DBReminder{})
	return res.RowsAffected, res.Error
}

// ListByPatient implements domain.ReminderRepository
func (r *ReminderRepositoryImpl) ListByPatient(ctx context.Context, patientID uint) ([]domain.Reminder, error) {
	return r.list(ctx, "patient_id = ?", patientID)
}

// ListInRange implements domain.ReminderRepository
func (r *ReminderRepositoryImpl) ListInRange(ctx context.Context, patientID uint, from, to time.Time) ([]domain.Reminder, error) {
	return r.list(ctx, "patient_id = ? AND date_time >= ? AND date_time < ?", patientID, from.UTC(), to.UTC())
}

// ListByStatus implements domain.ReminderRepository
func (r *ReminderRepositoryImpl) ListByStatus(ctx context.Context, patientID uint, status domain.ReminderStatus) ([]domain.Reminder, error) {
	return r.list(ctx, "patient_id = ? AND status = ?", patientID, string(status))
}

func (r *ReminderRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]domain.Reminder, error) {
	var rows []DBReminder
	if err := dbFrom(ctx, r.db).Where(query, args...).Order("date_time ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Reminder, 0, len(rows))
	for i := range rows {
		out = append(out, *reminderToDomain(&rows[i]))
	}
	return out, nil
}

// Instants are stored in UTC so range comparisons hold on every driver.
func reminderToDB(rem *domain.Reminder) DBReminder {
	return DBReminder{
		ID:          rem.ID,
		Kind:        string(rem.Kind),
		SourceID:    rem.SourceID,
		PatientID:   rem.PatientID,
		DateTime:    rem.DateTime.UTC(),
		Status:      string(rem.Status),
		Description: rem.Description,
		Notes:       rem.Notes,
	}
}

func reminderToDomain(row *DBReminder) *domain.Reminder {
	return &domain.Reminder{
		ID:          row.ID,
		Kind:        domain.ReminderKind(row.Kind),
		SourceID:    row.SourceID,
		PatientID:   row.PatientID,
		DateTime:    row.DateTime,
		Status:      domain.ReminderStatus(row.Status),
		Description: row.Description,
		Notes:       row.Notes,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
