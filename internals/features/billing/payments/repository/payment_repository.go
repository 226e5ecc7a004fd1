package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waterworks_backend/internals/databases/txn"
	"waterworks_backend/internals/features/billing/payments/model"
	"waterworks_backend/internals/helpers/apperr"
)

type ListFilter struct {
	UserID   *uuid.UUID
	BillID   *uuid.UUID
	Statuses []model.PaymentStatus
	Method   *model.PaymentMethod
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	Save(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*model.Payment, error)
	FindByGatewayReference(ctx context.Context, ref string) (*model.Payment, error)
	List(ctx context.Context, f ListFilter) ([]model.Payment, int64, error)
	// ListCompleted returns payments counted as collected, by payment_date.
	ListCompleted(ctx context.Context, from, to *time.Time) ([]model.Payment, error)
	// ListAwaitingGateway returns online payments still pending/processing with a
	// gateway reference, last touched before olderThan.
	ListAwaitingGateway(ctx context.Context, olderThan time.Time, limit int) ([]model.Payment, error)
}

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

var _ PaymentRepository = (*GormPaymentRepository)(nil)

func (r *GormPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	if err := txn.DB(ctx, r.db).Create(p).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

func (r *GormPaymentRepository) Save(ctx context.Context, p *model.Payment) error {
	if err := txn.DB(ctx, r.db).Save(p).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return r.first(txn.DB(ctx, r.db).Where("payment_id = ?", id))
}

func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return r.first(txn.DB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("payment_id = ?", id))
}

func (r *GormPaymentRepository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*model.Payment, error) {
	return r.first(txn.DB(ctx, r.db).Where("payment_id = ? AND payment_user_id = ?", id, userID))
}

func (r *GormPaymentRepository) FindByGatewayReference(ctx context.Context, ref string) (*model.Payment, error) {
	return r.first(txn.DB(ctx, r.db).
		Where("payment_gateway_reference = ?", ref).
		Order("payment_created_at DESC"))
}

func (r *GormPaymentRepository) first(q *gorm.DB) (*model.Payment, error) {
	var p model.Payment
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment")
		}
		return nil, apperr.Persistence(err)
	}
	return &p, nil
}

func (r *GormPaymentRepository) List(ctx context.Context, f ListFilter) ([]model.Payment, int64, error) {
	q := txn.DB(ctx, r.db).Model(&model.Payment{})
	if f.UserID != nil {
		q = q.Where("payment_user_id = ?", *f.UserID)
	}
	if f.BillID != nil {
		q = q.Where("payment_bill_id = ?", *f.BillID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("payment_status IN ?", f.Statuses)
	}
	if f.Method != nil {
		q = q.Where("payment_method = ?", *f.Method)
	}
	if f.From != nil {
		q = q.Where("payment_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("payment_date <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Persistence(err)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []model.Payment
	if err := q.Order("payment_date DESC").Find(&out).Error; err != nil {
		return nil, 0, apperr.Persistence(err)
	}
	return out, total, nil
}

func (r *GormPaymentRepository) ListCompleted(ctx context.Context, from, to *time.Time) ([]model.Payment, error) {
	q := txn.DB(ctx, r.db).
		Where("(payment_status = ? OR payment_record_status = ?)", model.PaymentStatusCompleted, model.RecordStatusCompleted)
	if from != nil {
		q = q.Where("payment_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("payment_date <= ?", *to)
	}
	var out []model.Payment
	if err := q.Order("payment_date DESC").Find(&out).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}

func (r *GormPaymentRepository) ListAwaitingGateway(ctx context.Context, olderThan time.Time, limit int) ([]model.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []model.Payment
	err := txn.DB(ctx, r.db).
		Where("payment_method = ?", model.PaymentMethodOnline).
		Where("payment_status IN ?", []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusProcessing}).
		Where("payment_gateway_reference IS NOT NULL AND payment_gateway_reference <> ''").
		Where("payment_updated_at < ?", olderThan).
		Order("payment_updated_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}
