package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waterworks_backend/internals/databases/txn"
	"waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/helpers/apperr"
)

type ListFilter struct {
	UserID   *uuid.UUID
	Statuses []model.BillStatus
	DueFrom  *time.Time
	DueTo    *time.Time
	// DueAscending lists oldest due first (default newest first).
	DueAscending bool
	Limit        int
	Offset       int
}

type BillRepository interface {
	Create(ctx context.Context, b *model.Bill) error
	Save(ctx context.Context, b *model.Bill) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*model.Bill, error)
	List(ctx context.Context, f ListFilter) ([]model.Bill, int64, error)
	// ListOpenDueBy returns pending/overdue bills due on or before asOf.
	ListOpenDueBy(ctx context.Context, asOf time.Time) ([]model.Bill, error)
	// ListForUserSince returns the user's bills read on or after since, oldest first.
	ListForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Bill, error)
	// MarkPaid flips a non-paid bill to paid. Returns false when it was already paid.
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type GormBillRepository struct {
	db *gorm.DB
}

func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

var _ BillRepository = (*GormBillRepository)(nil)

func (r *GormBillRepository) Create(ctx context.Context, b *model.Bill) error {
	if b.BillID == uuid.Nil {
		b.BillID = uuid.New()
	}
	if err := txn.DB(ctx, r.db).Create(b).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

func (r *GormBillRepository) Save(ctx context.Context, b *model.Bill) error {
	if err := txn.DB(ctx, r.db).Save(b).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

func (r *GormBillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := txn.DB(ctx, r.db).Where("bill_id = ?", id).Delete(&model.Bill{})
	if res.Error != nil {
		return apperr.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("bill")
	}
	return nil
}

func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	return r.first(txn.DB(ctx, r.db).Where("bill_id = ?", id))
}

func (r *GormBillRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	q := txn.DB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("bill_id = ?", id)
	return r.first(q)
}

func (r *GormBillRepository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*model.Bill, error) {
	return r.first(txn.DB(ctx, r.db).Where("bill_id = ? AND bill_user_id = ?", id, userID))
}

func (r *GormBillRepository) first(q *gorm.DB) (*model.Bill, error) {
	var b model.Bill
	if err := q.First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bill")
		}
		return nil, apperr.Persistence(err)
	}
	return &b, nil
}

func (r *GormBillRepository) List(ctx context.Context, f ListFilter) ([]model.Bill, int64, error) {
	q := txn.DB(ctx, r.db).Model(&model.Bill{})
	if f.UserID != nil {
		q = q.Where("bill_user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("bill_status IN ?", f.Statuses)
	}
	if f.DueFrom != nil {
		q = q.Where("bill_due_date >= ?", *f.DueFrom)
	}
	if f.DueTo != nil {
		q = q.Where("bill_due_date <= ?", *f.DueTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Persistence(err)
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	order := "bill_due_date DESC, bill_created_at DESC"
	if f.DueAscending {
		order = "bill_due_date ASC, bill_created_at ASC"
	}
	var out []model.Bill
	if err := q.Order(order).Find(&out).Error; err != nil {
		return nil, 0, apperr.Persistence(err)
	}
	return out, total, nil
}

func (r *GormBillRepository) ListOpenDueBy(ctx context.Context, asOf time.Time) ([]model.Bill, error) {
	var out []model.Bill
	err := txn.DB(ctx, r.db).
		Where("bill_status IN ?", []model.BillStatus{model.BillStatusPending, model.BillStatusOverdue}).
		Where("bill_due_date <= ?", asOf).
		Order("bill_user_id, bill_due_date").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}

func (r *GormBillRepository) ListForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Bill, error) {
	var out []model.Bill
	err := txn.DB(ctx, r.db).
		Where("bill_user_id = ? AND bill_reading_date >= ?", userID, since).
		Order("bill_reading_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}

func (r *GormBillRepository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	db := txn.DB(ctx, r.db)
	res := db.Exec(`
		UPDATE bills
		   SET bill_status = ?, bill_paid_at = COALESCE(bill_paid_at, ?), bill_updated_at = ?
		 WHERE bill_id = ? AND bill_status <> ?`,
		model.BillStatusPaid, at, at, id, model.BillStatusPaid)
	if res.Error != nil {
		return false, apperr.Persistence(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var n int64
	if err := db.Model(&model.Bill{}).Where("bill_id = ?", id).Count(&n).Error; err != nil {
		return false, apperr.Persistence(err)
	}
	if n == 0 {
		return false, apperr.NotFound("bill")
	}
	return false, nil
}
