// Package txn carries a unit of work through context.Context so that
// repositories called inside WithinTx share one database transaction.
package txn

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type Manager interface {
	// WithinTx runs fn inside a transaction. A nested call joins the outer
	// transaction. Hooks registered with AfterCommit run only after the
	// outermost commit succeeds.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type dbKey struct{}
type hooksKey struct{}

type Hooks struct {
	mu  sync.Mutex
	fns []func()
}

// Begin marks ctx as being inside a unit of work.
func Begin(ctx context.Context) (context.Context, *Hooks) {
	h := &Hooks{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

// Run executes the registered hooks in registration order.
func (h *Hooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(hooksKey{}).(*Hooks)
	return ok
}

// AfterCommit defers fn until the surrounding transaction commits, or runs
// it right away when ctx carries no transaction.
func AfterCommit(ctx context.Context, fn func()) {
	if h, ok := ctx.Value(hooksKey{}).(*Hooks); ok {
		h.mu.Lock()
		h.fns = append(h.fns, fn)
		h.mu.Unlock()
		return
	}
	fn()
}

type GormManager struct {
	db *gorm.DB
}

func NewGormManager(db *gorm.DB) *GormManager {
	return &GormManager{db: db}
}

func (m *GormManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	txCtx, hooks := Begin(ctx)
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(txCtx, dbKey{}, tx))
	})
	if err != nil {
		return err
	}
	hooks.Run()
	return nil
}

// DB returns the transaction bound to ctx, or fallback scoped to ctx.
func DB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(dbKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
