package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"waterworks_backend/internals/databases/txn"
	"waterworks_backend/internals/features/billing/gateway/model"
	"waterworks_backend/internals/helpers/apperr"
)

// Outcome closes a logged delivery. Nil descriptive fields are left as stored.
type Outcome struct {
	Status      model.GatewayEventStatus
	PaymentID   *uuid.UUID
	Error       *string
	At          time.Time
	Type        *string
	ExternalID  *string
	ExternalRef *string
	Signature   *string
}

type GatewayEventRepository interface {
	Create(ctx context.Context, e *model.PaymentGatewayEvent) error
	RecordOutcome(ctx context.Context, id uuid.UUID, o Outcome) error
	ListRecent(ctx context.Context, provider string, limit int) ([]model.PaymentGatewayEvent, error)
}

type GormGatewayEventRepository struct {
	db *gorm.DB
}

func NewGormGatewayEventRepository(db *gorm.DB) *GormGatewayEventRepository {
	return &GormGatewayEventRepository{db: db}
}

var _ GatewayEventRepository = (*GormGatewayEventRepository)(nil)

func (r *GormGatewayEventRepository) Create(ctx context.Context, e *model.PaymentGatewayEvent) error {
	if e.GatewayEventID == uuid.Nil {
		e.GatewayEventID = uuid.New()
	}
	if err := txn.DB(ctx, r.db).Create(e).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

func (r *GormGatewayEventRepository) RecordOutcome(ctx context.Context, id uuid.UUID, o Outcome) error {
	updates := map[string]any{
		"gateway_event_status":       o.Status,
		"gateway_event_error":        o.Error,
		"gateway_event_processed_at": o.At,
		"gateway_event_updated_at":   o.At,
	}
	if o.PaymentID != nil {
		updates["gateway_event_payment_id"] = *o.PaymentID
	}
	for col, v := range map[string]*string{
		"gateway_event_type":         o.Type,
		"gateway_event_external_id":  o.ExternalID,
		"gateway_event_external_ref": o.ExternalRef,
		"gateway_event_signature":    o.Signature,
	} {
		if v != nil {
			updates[col] = *v
		}
	}
	err := txn.DB(ctx, r.db).
		Model(&model.PaymentGatewayEvent{}).
		Where("gateway_event_id = ?", id).
		Updates(updates).Error
	if err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

func (r *GormGatewayEventRepository) ListRecent(ctx context.Context, provider string, limit int) ([]model.PaymentGatewayEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := txn.DB(ctx, r.db)
	if provider != "" {
		q = q.Where("gateway_event_provider = ?", provider)
	}
	var out []model.PaymentGatewayEvent
	if err := q.Order("gateway_event_received_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}
