package txn

import (
	"context"

	"gorm.io/gorm"
)

// Runner executes a function inside a single database transaction. Repository
// calls made with the context the function receives share that transaction,
// so a failure anywhere rolls back every write.
type Runner interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ctxKey struct{}

type gormRunner struct {
	db *gorm.DB
}

// NewRunner creates a Runner over the given GORM connection.
func NewRunner(db *gorm.DB) Runner {
	return &gormRunner{db: db}
}

func (r *gormRunner) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, ctxKey{}, tx))
	})
}

// Conn returns the transaction bound to ctx, or fallback when the call is not
// running inside a Runner.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(ctxKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
