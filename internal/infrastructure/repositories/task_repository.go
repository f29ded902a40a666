package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// DBTask represents the database model for Task
type DBTask struct {
	ID          uint   `gorm:"primaryKey"`
	PatientID   uint   `gorm:"index:idx_tasks_patient_position,priority:1;not null"`
	CaregiverID uint   `gorm:"index"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	DueDate     *time.Time
	Priority    string `gorm:"size:16;not null;default:MEDIUM"`
	Completed   bool   `gorm:"index"`
	CompletedAt *time.Time
	Position    int `gorm:"index:idx_tasks_patient_position,priority:2"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (DBTask) TableName() string {
	return "tasks"
}

// TaskRepositoryImpl implements domain.TaskRepository using GORM
type TaskRepositoryImpl struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) domain.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

// Create implements domain.TaskRepository
func (r *TaskRepositoryImpl) Create(ctx context.Context, t *domain.Task) error {
	row := &DBTask{
		PatientID:   t.PatientID,
		CaregiverID: t.CaregiverID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		Position:    t.Position,
	}
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	t.ID = row.ID
	t.CreatedAt = row.CreatedAt
	t.UpdatedAt = row.UpdatedAt
	return nil
}

// FindByID implements domain.TaskRepository
func (r *TaskRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	var row DBTask
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return taskToDomain(&row), nil
}

// Update implements domain.TaskRepository. Position is left alone.
func (r *TaskRepositoryImpl) Update(ctx context.Context, t *domain.Task) error {
	res := dbFrom(ctx, r.db).Model(&DBTask{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"title":        t.Title,
		"description":  t.Description,
		"due_date":     t.DueDate,
		"priority":     string(t.Priority),
		"completed":    t.Completed,
		"completed_at": t.CompletedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete implements domain.TaskRepository
func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBTask{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// ListByPatient implements domain.TaskRepository
func (r *TaskRepositoryImpl) ListByPatient(ctx context.Context, patientID uint, filter domain.TaskFilter) ([]domain.Task, error) {
	q := dbFrom(ctx, r.db).Where("patient_id = ?", patientID)
	if filter.Completed != nil {
		q = q.Where("completed = ?", *filter.Completed)
	}
	if filter.DueFrom != nil {
		q = q.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		q = q.Where("due_date <= ?", *filter.DueTo)
	}

	var rows []DBTask
	if err := q.Order("position ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(rows))
	for i := range rows {
		out = append(out, *taskToDomain(&rows[i]))
	}
	return out, nil
}

// MaxPosition implements domain.TaskRepository. A patient without tasks
// yields 0.
func (r *TaskRepositoryImpl) MaxPosition(ctx context.Context, patientID uint) (int, error) {
	var max int
	err := dbFrom(ctx, r.db).Model(&DBTask{}).
		Where("patient_id = ?", patientID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	return max, err
}

// SetPosition implements domain.TaskRepository
func (r *TaskRepositoryImpl) SetPosition(ctx context.Context, id uint, position int) error {
	res := dbFrom(ctx, r.db).Model(&DBTask{}).Where("id = ?", id).Update("position", position)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func taskToDomain(row *DBTask) *domain.Task {
	return &domain.Task{
		ID:          row.ID,
		PatientID:   row.PatientID,
		CaregiverID: row.CaregiverID,
		Title:       row.Title,
		Description: row.Description,
		DueDate:     row.DueDate,
		Priority:    domain.TaskPriority(row.Priority),
		Completed:   row.Completed,
		CompletedAt: row.CompletedAt,
		Position:    row.Position,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
