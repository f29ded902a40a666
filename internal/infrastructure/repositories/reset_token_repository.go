package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// DBPasswordResetToken represents the database model for PasswordResetToken
type DBPasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Code      string    `gorm:"size:6;index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Used      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (DBPasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// ResetTokenRepositoryImpl implements domain.ResetTokenRepository using GORM
type ResetTokenRepositoryImpl struct {
	db *gorm.DB
}

// NewResetTokenRepository creates a new reset token repository
func NewResetTokenRepository(db *gorm.DB) domain.ResetTokenRepository {
	return &ResetTokenRepositoryImpl{db: db}
}

// Create implements domain.ResetTokenRepository
func (r *ResetTokenRepositoryImpl) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	row := &DBPasswordResetToken{
		UserID:    token.UserID,
		Code:      token.Code,
		ExpiresAt: token.ExpiresAt.UTC(),
		Used:      token.Used,
		CreatedAt: token.CreatedAt,
	}
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	token.ID = row.ID
	token.CreatedAt = row.CreatedAt
	return nil
}

// FindUnusedByCode implements domain.ResetTokenRepository. When several unused
// tokens share a code the newest wins.
func (r *ResetTokenRepositoryImpl) FindUnusedByCode(ctx context.Context, code string) (*domain.PasswordResetToken, error) {
	var row DBPasswordResetToken
	err := dbFrom(ctx, r.db).Where("code = ? AND used = ?", code, false).Order("id DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrResetCodeInvalid
		}
		return nil, err
	}
	return &domain.PasswordResetToken{
		ID:        row.ID,
		UserID:    row.UserID,
		Code:      row.Code,
		ExpiresAt: row.ExpiresAt,
		Used:      row.Used,
		CreatedAt: row.CreatedAt,
	}, nil
}

// InvalidateForUser implements domain.ResetTokenRepository
func (r *ResetTokenRepositoryImpl) InvalidateForUser(ctx context.Context, userID uint) (int64, error) {
	res := dbFrom(ctx, r.db).Model(&DBPasswordResetToken{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true)
	return res.RowsAffected, res.Error
}

// MarkUsed implements domain.ResetTokenRepository
func (r *ResetTokenRepositoryImpl) MarkUsed(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Model(&DBPasswordResetToken{}).Where("id = ? AND used = ?", id, false).Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrResetCodeInvalid
	}
	return nil
}

// DeleteExpired implements domain.ResetTokenRepository
func (r *ResetTokenRepositoryImpl) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := dbFrom(ctx, r.db).Where("expires_at < ?", before.UTC()).Delete(&DBPasswordResetToken{})
	return res.RowsAffected, res.Error
}
