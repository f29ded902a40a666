package repositories

import (
	"context"

	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactor implements domain.Transactor on a GORM connection
type GormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a transactor over db
func NewTransactor(db *gorm.DB) domain.Transactor {
	return &GormTransactor{db: db}
}

// WithinTx implements domain.Transactor. Nested calls join the outer transaction.
func (t *GormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom returns the transaction carried by ctx, or db bound to ctx.
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
