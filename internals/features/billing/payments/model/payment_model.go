package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// CanTransition encodes the payment state machine:
// pending/processing -> processing|completed|failed|cancelled, terminal states never move.
func CanTransition(from, to PaymentStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodOnline         PaymentMethod = "online"
	PaymentMethodOverTheCounter PaymentMethod = "over_the_counter"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodOverTheCounter
}

// Gateway labels accepted on payment creation.
const (
	GatewayDemo     = "demo"
	GatewayPayMongo = "paymongo"
	GatewayGCash    = "gcash"
	GatewayMidtrans = "midtrans"
)

func ValidGateway(g string) bool {
	switch g {
	case GatewayDemo, GatewayPayMongo, GatewayGCash, GatewayMidtrans:
		return true
	}
	return false
}

// RecordStatus is the coarse status mirrored for reporting.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusCompleted RecordStatus = "completed"
	RecordStatusFailed    RecordStatus = "failed"
	RecordStatusCancelled RecordStatus = "cancelled"
)

func RecordStatusFor(s PaymentStatus) RecordStatus {
	switch s {
	case PaymentStatusCompleted:
		return RecordStatusCompleted
	case PaymentStatusFailed:
		return RecordStatusFailed
	case PaymentStatusCancelled:
		return RecordStatusCancelled
	default:
		return RecordStatusPending
	}
}

/*
payments = one attempt to settle one bill.
  - amount_paid is pinned to the bill's effective total at creation
  - gateway_reference is the external id used for reconciliation
  - processed_at only on completed, failure_reason only on failed/cancelled
*/
type Payment struct {
	PaymentID     uuid.UUID `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`
	PaymentUserID uuid.UUID `gorm:"column:payment_user_id;type:uuid;not null;index" json:"payment_user_id"`
	PaymentBillID uuid.UUID `gorm:"column:payment_bill_id;type:uuid;not null;index" json:"payment_bill_id"`
	PaymentWWSID  *string   `gorm:"column:payment_wws_id;type:varchar(50)" json:"payment_wws_id,omitempty"`

	PaymentAmountPaid decimal.Decimal `gorm:"column:payment_amount_paid;type:numeric(10,2);not null" json:"payment_amount_paid"`
	PaymentBalance    decimal.Decimal `gorm:"column:payment_balance;type:numeric(10,2);not null;default:0" json:"payment_balance"`

	PaymentQRNumber string    `gorm:"column:payment_qr_number;type:varchar(60);not null" json:"payment_qr_number"`
	PaymentQRDate   time.Time `gorm:"column:payment_qr_date;not null" json:"payment_qr_date"`

	PaymentMethod             PaymentMethod       `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentElectronicQRNumber *string             `gorm:"column:payment_electronic_qr_number;type:varchar(60)" json:"payment_electronic_qr_number,omitempty"`
	PaymentElectronicAmount   decimal.NullDecimal `gorm:"column:payment_electronic_amount;type:numeric(10,2)" json:"payment_electronic_amount"`

	PaymentGateway              string         `gorm:"column:payment_gateway;type:varchar(30);not null;default:'demo'" json:"payment_gateway"`
	PaymentGatewayReference     *string        `gorm:"column:payment_gateway_reference;type:varchar(255);index" json:"payment_gateway_reference,omitempty"`
	PaymentGatewayTransactionID *string        `gorm:"column:payment_gateway_transaction_id;type:varchar(255)" json:"payment_gateway_transaction_id,omitempty"`
	PaymentGatewayResponse      datatypes.JSON `gorm:"column:payment_gateway_response;type:jsonb" json:"payment_gateway_response,omitempty"`

	PaymentStatus        PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentRecordStatus  RecordStatus  `gorm:"column:payment_record_status;type:varchar(20);not null;default:'pending'" json:"payment_record_status"`
	PaymentProcessedAt   *time.Time    `gorm:"column:payment_processed_at" json:"payment_processed_at,omitempty"`
	PaymentFailureReason *string       `gorm:"column:payment_failure_reason;type:text" json:"payment_failure_reason,omitempty"`

	PaymentCollectorName *string   `gorm:"column:payment_collector_name;type:varchar(255)" json:"payment_collector_name,omitempty"`
	PaymentDate          time.Time `gorm:"column:payment_date;not null;index" json:"payment_date"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) IsCompleted() bool { return p.PaymentStatus == PaymentStatusCompleted }

func (p *Payment) IsOnline() bool { return p.PaymentMethod == PaymentMethodOnline }

func (p *Payment) Reference() string {
	if p.PaymentGatewayReference == nil {
		return ""
	}
	return *p.PaymentGatewayReference
}
