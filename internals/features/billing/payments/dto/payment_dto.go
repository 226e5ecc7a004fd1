package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"waterworks_backend/internals/features/billing/payments/model"
	"waterworks_backend/internals/features/billing/payments/service"
	"waterworks_backend/internals/helpers/apperr"
)

/* =========================================================
   INITIATE
========================================================= */

type InitiatePaymentRequest struct {
	BillID         string          `json:"bill_id" validate:"required,uuid"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=online over_the_counter"`
	PaymentGateway string          `json:"payment_gateway" validate:"omitempty,oneof=demo paymongo gcash midtrans"`
	Amount         decimal.Decimal `json:"amount"`
	ReturnURL      string          `json:"return_url" validate:"omitempty,url,max=500"`
}

// ToCommand fills the gateway with defaultGateway when the payer sent none.
func (r *InitiatePaymentRequest) ToCommand(payer service.Payer, defaultGateway string) (service.InitiatePaymentCommand, error) {
	billID, err := uuid.Parse(strings.TrimSpace(r.BillID))
	if err != nil {
		return service.InitiatePaymentCommand{}, apperr.Field("bill_id", "The bill id must be a valid UUID.")
	}
	gateway := strings.ToLower(strings.TrimSpace(r.PaymentGateway))
	if gateway == "" {
		gateway = defaultGateway
	}
	return service.InitiatePaymentCommand{
		Payer:     payer,
		BillID:    billID,
		Method:    model.PaymentMethod(r.PaymentMethod),
		Gateway:   gateway,
		Amount:    r.Amount,
		ReturnURL: strings.TrimSpace(r.ReturnURL),
	}, nil
}

type InitiatePaymentResponse struct {
	Payment  PaymentResponse         `json:"payment"`
	Dispatch *service.DispatchResult `json:"dispatch,omitempty"`
}

/* =========================================================
   REFERENCE / STATUS
========================================================= */

type UpdateReferenceRequest struct {
	GatewayReference string `json:"gateway_reference" validate:"required,max=255"`
}

// ProcessPaymentRequest is the staff status override.
type ProcessPaymentRequest struct {
	PaymentStatus string  `json:"payment_status" validate:"required,oneof=pending processing completed failed cancelled"`
	CollectorName *string `json:"collector_name" validate:"omitempty,max=255"`
	FailureReason *string `json:"failure_reason" validate:"omitempty,max=500"`
}

func (r *ProcessPaymentRequest) ToCommand(id uuid.UUID) service.SetStatusCommand {
	return service.SetStatusCommand{
		PaymentID:     id,
		Status:        model.PaymentStatus(r.PaymentStatus),
		CollectorName: r.CollectorName,
		FailureReason: r.FailureReason,
		Source:        "staff",
	}
}

/* =========================================================
   RESPONSE
========================================================= */

type PaymentResponse struct {
	PaymentID uuid.UUID `json:"payment_id"`
	UserID    uuid.UUID `json:"user_id"`
	BillID    uuid.UUID `json:"bill_id"`
	WWSID     *string   `json:"wws_id,omitempty"`

	AmountPaid decimal.Decimal `json:"amount_paid"`
	Balance    decimal.Decimal `json:"balance"`

	QRNumber           string              `json:"qr_number"`
	QRDate             time.Time           `json:"qr_date"`
	PaymentMethod      model.PaymentMethod `json:"payment_method"`
	ElectronicQRNumber *string             `json:"electronic_qr_number,omitempty"`
	ElectronicAmount   decimal.NullDecimal `json:"electronic_amount"`

	Gateway              string         `json:"payment_gateway"`
	GatewayReference     *string        `json:"gateway_reference,omitempty"`
	GatewayTransactionID *string        `json:"gateway_transaction_id,omitempty"`
	GatewayResponse      datatypes.JSON `json:"gateway_response,omitempty"`

	Status        model.PaymentStatus `json:"status"`
	RecordStatus  model.RecordStatus  `json:"record_status"`
	ProcessedAt   *time.Time          `json:"processed_at,omitempty"`
	FailureReason *string             `json:"failure_reason,omitempty"`
	CollectorName *string             `json:"collector_name,omitempty"`
	PaymentDate   time.Time           `json:"payment_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel hides the raw gateway response unless withGatewayResponse is set.
func FromModel(p *model.Payment, withGatewayResponse bool) PaymentResponse {
	out := PaymentResponse{
		PaymentID: p.PaymentID,
		UserID:    p.PaymentUserID,
		BillID:    p.PaymentBillID,
		WWSID:     p.PaymentWWSID,

		AmountPaid: p.PaymentAmountPaid,
		Balance:    p.PaymentBalance,

		QRNumber:           p.PaymentQRNumber,
		QRDate:             p.PaymentQRDate,
		PaymentMethod:      p.PaymentMethod,
		ElectronicQRNumber: p.PaymentElectronicQRNumber,
		ElectronicAmount:   p.PaymentElectronicAmount,

		Gateway:              p.PaymentGateway,
		GatewayReference:     p.PaymentGatewayReference,
		GatewayTransactionID: p.PaymentGatewayTransactionID,

		Status:        p.PaymentStatus,
		RecordStatus:  p.PaymentRecordStatus,
		ProcessedAt:   p.PaymentProcessedAt,
		FailureReason: p.PaymentFailureReason,
		CollectorName: p.PaymentCollectorName,
		PaymentDate:   p.PaymentDate,

		CreatedAt: p.PaymentCreatedAt,
		UpdatedAt: p.PaymentUpdatedAt,
	}
	if withGatewayResponse {
		out.GatewayResponse = p.PaymentGatewayResponse
	}
	return out
}

func FromModels(ps []model.Payment, withGatewayResponse bool) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for i := range ps {
		out = append(out, FromModel(&ps[i], withGatewayResponse))
	}
	return out
}
