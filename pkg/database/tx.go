package database

import (
	"context"

	"gorm.io/gorm"
)

// TxManager runs a function inside a single database transaction. The engines
// depend on this interface rather than on *gorm.DB so they can be exercised
// against in-memory repositories in tests.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// GormTxManager is the production TxManager backed by gorm transactions.
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTransaction starts a transaction and stores the handle in the context.
// Repositories pick it up via FromContext, so every repository call made inside
// fn joins the same transaction.
func (m *GormTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// FromContext returns the transaction handle stored by WithinTransaction, or
// the fallback connection when called outside a transaction.
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
