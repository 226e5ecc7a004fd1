package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"waterworks_backend/internals/features/billing/payments/model"
	"waterworks_backend/internals/features/billing/payments/repository"
	"waterworks_backend/internals/helpers/apperr"
)

type PaymentRepo struct{ s *Store }

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("payments.Create"); err != nil {
		return err
	}
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	now := time.Now()
	p.PaymentCreatedAt, p.PaymentUpdatedAt = now, now
	r.s.payments[p.PaymentID] = *p
	r.s.stamp(p.PaymentID)
	return nil
}

func (r *PaymentRepo) Save(ctx context.Context, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("payments.Save"); err != nil {
		return err
	}
	p.PaymentUpdatedAt = time.Now()
	r.s.payments[p.PaymentID] = *p
	return nil
}

func (r *PaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("payments.FindByID"); err != nil {
		return nil, err
	}
	p, ok := r.s.payments[id]
	if !ok {
		return nil, apperr.NotFound("payment")
	}
	return &p, nil
}

func (r *PaymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *PaymentRepo) FindForUser(ctx context.Context, userID, id uuid.UUID) (*model.Payment, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PaymentUserID != userID {
		return nil, apperr.NotFound("payment")
	}
	return p, nil
}

func (r *PaymentRepo) FindByGatewayReference(ctx context.Context, ref string) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *model.Payment
	for _, p := range r.s.payments {
		if p.PaymentGatewayReference != nil && *p.PaymentGatewayReference == ref {
			cp := p
			if found == nil || r.s.order[cp.PaymentID] > r.s.order[found.PaymentID] {
				found = &cp
			}
		}
	}
	if found == nil {
		return nil, apperr.NotFound("payment")
	}
	return found, nil
}

func (r *PaymentRepo) sorted(keep func(model.Payment) bool) []model.Payment {
	var out []model.Payment
	for _, p := range r.s.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.After(out[j].PaymentDate)
		}
		return r.s.order[out[i].PaymentID] > r.s.order[out[j].PaymentID]
	})
	return out
}

func (r *PaymentRepo) List(ctx context.Context, f repository.ListFilter) ([]model.Payment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.sorted(func(p model.Payment) bool {
		if f.UserID != nil && p.PaymentUserID != *f.UserID {
			return false
		}
		if f.BillID != nil && p.PaymentBillID != *f.BillID {
			return false
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, s := range f.Statuses {
				if s == p.PaymentStatus {
					match = true
				}
			}
			if !match {
				return false
			}
		}
		if f.Method != nil && p.PaymentMethod != *f.Method {
			return false
		}
		if f.From != nil && p.PaymentDate.Before(*f.From) {
			return false
		}
		if f.To != nil && p.PaymentDate.After(*f.To) {
			return false
		}
		return true
	})
	total := int64(len(out))
	return page(out, f.Offset, f.Limit), total, nil
}

func (r *PaymentRepo) ListCompleted(ctx context.Context, from, to *time.Time) ([]model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("payments.ListCompleted"); err != nil {
		return nil, err
	}
	return r.sorted(func(p model.Payment) bool {
		if p.PaymentStatus != model.PaymentStatusCompleted && p.PaymentRecordStatus != model.RecordStatusCompleted {
			return false
		}
		if from != nil && p.PaymentDate.Before(*from) {
			return false
		}
		if to != nil && p.PaymentDate.After(*to) {
			return false
		}
		return true
	}), nil
}

func (r *PaymentRepo) ListAwaitingGateway(ctx context.Context, olderThan time.Time, limit int) ([]model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.sorted(func(p model.Payment) bool {
		return p.PaymentMethod == model.PaymentMethodOnline &&
			(p.PaymentStatus == model.PaymentStatusPending || p.PaymentStatus == model.PaymentStatusProcessing) &&
			p.Reference() != "" &&
			p.PaymentUpdatedAt.Before(olderThan)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
