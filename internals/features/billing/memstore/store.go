// Package memstore is an in-memory implementation of the billing
// repositories and transaction manager, used by service and handler tests.
// Transactions are serialized and roll back by restoring a snapshot.
package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"waterworks_backend/internals/databases/txn"
	authmodel "waterworks_backend/internals/features/billing/authcodes/model"
	billmodel "waterworks_backend/internals/features/billing/bills/model"
	gwmodel "waterworks_backend/internals/features/billing/gateway/model"
	paymodel "waterworks_backend/internals/features/billing/payments/model"
	"waterworks_backend/internals/helpers/apperr"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bills    map[uuid.UUID]billmodel.Bill
	payments map[uuid.UUID]paymodel.Payment
	codes    map[uuid.UUID]authmodel.AuthorizationCode
	events   map[uuid.UUID]gwmodel.PaymentGatewayEvent
	seq      int64
	order    map[uuid.UUID]int64

	failures map[string]error
}

func New() *Store {
	return &Store{
		bills:    map[uuid.UUID]billmodel.Bill{},
		payments: map[uuid.UUID]paymodel.Payment{},
		codes:    map[uuid.UUID]authmodel.AuthorizationCode{},
		events:   map[uuid.UUID]gwmodel.PaymentGatewayEvent{},
		order:    map[uuid.UUID]int64{},
		failures: map[string]error{},
	}
}

// FailOn makes the named operation (e.g. "bills.MarkPaid") return err until
// cleared with a nil err. The error is wrapped as a persistence failure.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// caller holds s.mu
func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		return apperr.Persistence(err)
	}
	return nil
}

func (s *Store) stamp(id uuid.UUID) {
	if _, ok := s.order[id]; !ok {
		s.seq++
		s.order[id] = s.seq
	}
}

type snapshot struct {
	bills    map[uuid.UUID]billmodel.Bill
	payments map[uuid.UUID]paymodel.Payment
	codes    map[uuid.UUID]authmodel.AuthorizationCode
	events   map[uuid.UUID]gwmodel.PaymentGatewayEvent
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		bills:    copyMap(s.bills),
		payments: copyMap(s.payments),
		codes:    copyMap(s.codes),
		events:   copyMap(s.events),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills = snap.bills
	s.payments = snap.payments
	s.codes = snap.codes
	s.events = snap.events
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// WithinTx implements txn.Manager.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txn.InTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	snap := s.snapshot()
	txCtx, hooks := txn.Begin(ctx)
	err := fn(txCtx)
	if err != nil {
		s.restore(snap)
	}
	s.txMu.Unlock()
	if err != nil {
		return err
	}
	hooks.Run()
	return nil
}

var _ txn.Manager = (*Store)(nil)

var errNotStored = errors.New("memstore: record not stored")

func (s *Store) Bills() *BillRepo                  { return &BillRepo{s: s} }
func (s *Store) Payments() *PaymentRepo            { return &PaymentRepo{s: s} }
func (s *Store) AuthorizationCodes() *AuthCodeRepo { return &AuthCodeRepo{s: s} }
func (s *Store) GatewayEvents() *GatewayEventRepo  { return &GatewayEventRepo{s: s} }
