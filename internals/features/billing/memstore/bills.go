package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/features/billing/bills/repository"
	"waterworks_backend/internals/helpers/apperr"
)

type BillRepo struct{ s *Store }

var _ repository.BillRepository = (*BillRepo)(nil)

func (r *BillRepo) Create(ctx context.Context, b *model.Bill) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bills.Create"); err != nil {
		return err
	}
	if b.BillID == uuid.Nil {
		b.BillID = uuid.New()
	}
	for _, other := range r.s.bills {
		if other.BillQRNumber == b.BillQRNumber {
			return apperr.Persistence(errNotStored)
		}
	}
	now := time.Now()
	b.BillCreatedAt, b.BillUpdatedAt = now, now
	r.s.bills[b.BillID] = *b
	r.s.stamp(b.BillID)
	return nil
}

func (r *BillRepo) Save(ctx context.Context, b *model.Bill) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bills.Save"); err != nil {
		return err
	}
	b.BillUpdatedAt = time.Now()
	r.s.bills[b.BillID] = *b
	r.s.stamp(b.BillID)
	return nil
}

func (r *BillRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bills[id]; !ok {
		return apperr.NotFound("bill")
	}
	delete(r.s.bills, id)
	return nil
}

func (r *BillRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bills.FindByID"); err != nil {
		return nil, err
	}
	b, ok := r.s.bills[id]
	if !ok {
		return nil, apperr.NotFound("bill")
	}
	return &b, nil
}

func (r *BillRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	return r.FindByID(ctx, id)
}

func (r *BillRepo) FindForUser(ctx context.Context, userID, id uuid.UUID) (*model.Bill, error) {
	b, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.BillUserID != userID {
		return nil, apperr.NotFound("bill")
	}
	return b, nil
}

func (r *BillRepo) all() []model.Bill {
	out := make([]model.Bill, 0, len(r.s.bills))
	for _, b := range r.s.bills {
		out = append(out, b)
	}
	return out
}

func (r *BillRepo) List(ctx context.Context, f repository.ListFilter) ([]model.Bill, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bills.List"); err != nil {
		return nil, 0, err
	}
	var out []model.Bill
	for _, b := range r.all() {
		if f.UserID != nil && b.BillUserID != *f.UserID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, b.BillStatus) {
			continue
		}
		if f.DueFrom != nil && b.BillDueDate.Before(*f.DueFrom) {
			continue
		}
		if f.DueTo != nil && b.BillDueDate.After(*f.DueTo) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].BillDueDate.Equal(out[j].BillDueDate) {
			if f.DueAscending {
				return out[i].BillDueDate.Before(out[j].BillDueDate)
			}
			return out[i].BillDueDate.After(out[j].BillDueDate)
		}
		return r.s.order[out[i].BillID] < r.s.order[out[j].BillID]
	})
	total := int64(len(out))
	out = page(out, f.Offset, f.Limit)
	return out, total, nil
}

func (r *BillRepo) ListOpenDueBy(ctx context.Context, asOf time.Time) ([]model.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bills.ListOpenDueBy"); err != nil {
		return nil, err
	}
	var out []model.Bill
	for _, b := range r.all() {
		if b.BillStatus != model.BillStatusPending && b.BillStatus != model.BillStatusOverdue {
			continue
		}
		if b.BillDueDate.After(asOf) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BillUserID != out[j].BillUserID {
			return out[i].BillUserID.String() < out[j].BillUserID.String()
		}
		return out[i].BillDueDate.Before(out[j].BillDueDate)
	})
	return out, nil
}

func (r *BillRepo) ListForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Bill
	for _, b := range r.all() {
		if b.BillUserID == userID && !b.BillReadingDate.Before(since) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BillReadingDate.Before(out[j].BillReadingDate) })
	return out, nil
}

func (r *BillRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bills.MarkPaid"); err != nil {
		return false, err
	}
	b, ok := r.s.bills[id]
	if !ok {
		return false, apperr.NotFound("bill")
	}
	if b.BillStatus == model.BillStatusPaid {
		return false, nil
	}
	b.BillStatus = model.BillStatusPaid
	if b.BillPaidAt == nil {
		b.BillPaidAt = &at
	}
	b.BillUpdatedAt = at
	r.s.bills[id] = b
	return true, nil
}

func containsStatus(xs []model.BillStatus, s model.BillStatus) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func page[T any](in []T, offset, limit int) []T {
	if limit <= 0 {
		return in
	}
	if offset >= len(in) {
		return nil
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}
