package database

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey struct{}

// WithTx attaches the request transaction opened by middlewares.TenantTx.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, ctxKey{}, tx)
}

// Conn returns the request transaction carried by ctx, else fallback.
// Callers open db.Transaction on the result, which nests as a savepoint inside the request transaction.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(ctxKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}
