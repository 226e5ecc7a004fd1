package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"waterworks_backend/internals/features/billing/gateway/model"
	"waterworks_backend/internals/features/billing/gateway/repository"
	"waterworks_backend/internals/helpers/apperr"
)

type GatewayEventRepo struct{ s *Store }

var _ repository.GatewayEventRepository = (*GatewayEventRepo)(nil)

func (r *GatewayEventRepo) Create(ctx context.Context, e *model.PaymentGatewayEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("events.Create"); err != nil {
		return err
	}
	if e.GatewayEventID == uuid.Nil {
		e.GatewayEventID = uuid.New()
	}
	r.s.events[e.GatewayEventID] = *e
	r.s.stamp(e.GatewayEventID)
	return nil
}

func (r *GatewayEventRepo) RecordOutcome(ctx context.Context, id uuid.UUID, o repository.Outcome) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return apperr.NotFound("gateway event")
	}
	e.GatewayEventStatus = o.Status
	e.GatewayEventError = o.Error
	at := o.At
	e.GatewayEventProcessedAt = &at
	if o.PaymentID != nil {
		pid := *o.PaymentID
		e.GatewayEventPaymentID = &pid
	}
	if o.Type != nil {
		e.GatewayEventType = o.Type
	}
	if o.ExternalID != nil {
		e.GatewayEventExternalID = o.ExternalID
	}
	if o.ExternalRef != nil {
		e.GatewayEventExternalRef = o.ExternalRef
	}
	if o.Signature != nil {
		e.GatewayEventSignature = o.Signature
	}
	r.s.events[id] = e
	return nil
}

func (r *GatewayEventRepo) ListRecent(ctx context.Context, provider string, limit int) ([]model.PaymentGatewayEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.PaymentGatewayEvent
	for _, e := range r.s.events {
		if provider == "" || e.GatewayEventProvider == provider {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return r.s.order[out[i].GatewayEventID] > r.s.order[out[j].GatewayEventID]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
