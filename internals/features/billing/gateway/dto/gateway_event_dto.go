package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"waterworks_backend/internals/features/billing/gateway/model"
)

type GatewayEventResponse struct {
	ID          uuid.UUID                `json:"gateway_event_id"`
	PaymentID   *uuid.UUID               `json:"payment_id,omitempty"`
	Provider    string                   `json:"provider"`
	Type        *string                  `json:"type,omitempty"`
	ExternalID  *string                  `json:"external_id,omitempty"`
	ExternalRef *string                  `json:"external_ref,omitempty"`
	Payload     datatypes.JSON           `json:"payload,omitempty"`
	Status      model.GatewayEventStatus `json:"status"`
	Error       *string                  `json:"error,omitempty"`
	ReceivedAt  time.Time                `json:"received_at"`
	ProcessedAt *time.Time               `json:"processed_at,omitempty"`
}

// FromModel leaves out headers and the signature.
func FromModel(m *model.PaymentGatewayEvent) GatewayEventResponse {
	return GatewayEventResponse{
		ID:          m.GatewayEventID,
		PaymentID:   m.GatewayEventPaymentID,
		Provider:    m.GatewayEventProvider,
		Type:        m.GatewayEventType,
		ExternalID:  m.GatewayEventExternalID,
		ExternalRef: m.GatewayEventExternalRef,
		Payload:     m.GatewayEventPayload,
		Status:      m.GatewayEventStatus,
		Error:       m.GatewayEventError,
		ReceivedAt:  m.GatewayEventReceivedAt,
		ProcessedAt: m.GatewayEventProcessedAt,
	}
}

func FromModels(ms []model.PaymentGatewayEvent) []GatewayEventResponse {
	out := make([]GatewayEventResponse, 0, len(ms))
	for i := range ms {
		out = append(out, FromModel(&ms[i]))
	}
	return out
}
