package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GatewayEventStatus string

const (
	GatewayEventReceived  GatewayEventStatus = "received"
	GatewayEventProcessed GatewayEventStatus = "processed"
	GatewayEventIgnored   GatewayEventStatus = "ignored"
	GatewayEventDuplicate GatewayEventStatus = "duplicate"
	GatewayEventRejected  GatewayEventStatus = "rejected"
	GatewayEventFailed    GatewayEventStatus = "failed"
)

/*
payment_gateway_events = log of every webhook delivery.
  - many rows per payment (one per delivery, replays included)
  - raw headers + payload kept for debugging and replay
*/
type PaymentGatewayEvent struct {
	GatewayEventID        uuid.UUID  `gorm:"column:gateway_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_event_id"`
	GatewayEventPaymentID *uuid.UUID `gorm:"column:gateway_event_payment_id;type:uuid;index" json:"gateway_event_payment_id,omitempty"`

	GatewayEventProvider    string  `gorm:"column:gateway_event_provider;type:varchar(30);not null;index" json:"gateway_event_provider"`
	GatewayEventType        *string `gorm:"column:gateway_event_type;type:varchar(100)" json:"gateway_event_type,omitempty"`
	GatewayEventExternalID  *string `gorm:"column:gateway_event_external_id;type:varchar(255);index" json:"gateway_event_external_id,omitempty"`
	GatewayEventExternalRef *string `gorm:"column:gateway_event_external_ref;type:varchar(255)" json:"gateway_event_external_ref,omitempty"`

	GatewayEventHeaders   datatypes.JSON `gorm:"column:gateway_event_headers;type:jsonb" json:"gateway_event_headers,omitempty"`
	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload,omitempty"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature;type:text" json:"gateway_event_signature,omitempty"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(20);not null;default:'received'" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error;type:text" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`

	GatewayEventCreatedAt time.Time `gorm:"column:gateway_event_created_at;autoCreateTime" json:"gateway_event_created_at"`
	GatewayEventUpdatedAt time.Time `gorm:"column:gateway_event_updated_at;autoUpdateTime" json:"gateway_event_updated_at"`
}

func (PaymentGatewayEvent) TableName() string { return "payment_gateway_events" }
