// Package txn provides the shared transaction boundary primitive for
// lifecycle writes.
package txn

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
)

// Runner executes fn inside a database transaction. The dbctx handed to fn
// carries the transaction, so any row locks taken through it hold until fn
// returns.
type Runner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormRunner struct {
	db *gorm.DB
}

// NewGormRunner returns a Runner backed by GORM transactions.
func NewGormRunner(db *gorm.DB) Runner {
	return &gormRunner{db: db}
}

func (r *gormRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return fmt.Errorf("transaction runner has nil db")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// Passthrough runs fn without opening a real transaction. Used by tests
// with in-memory repos, where there is nothing to commit or roll back.
type Passthrough struct{}

func (Passthrough) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}
