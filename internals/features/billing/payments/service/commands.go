package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"waterworks_backend/internals/features/billing/payments/model"
	"waterworks_backend/internals/helpers/apperr"
)

// Payer is the authenticated customer as seen by the payment flow.
type Payer struct {
	UserID uuid.UUID
	WWSID  *string
	Name   string
	Email  string
	Phone  string
}

type InitiatePaymentCommand struct {
	Payer     Payer
	BillID    uuid.UUID
	Method    model.PaymentMethod
	Gateway   string
	Amount    decimal.Decimal
	ReturnURL string
}

var minAmount = decimal.New(1, -2)

func (c InitiatePaymentCommand) Validate() error {
	errs := map[string][]string{}
	if c.Payer.UserID == uuid.Nil {
		errs["user_id"] = []string{"The user id field is required."}
	}
	if c.BillID == uuid.Nil {
		errs["bill_id"] = []string{"The bill id field is required."}
	}
	if !c.Method.Valid() {
		errs["payment_method"] = []string{"The selected payment method is invalid."}
	}
	if !model.ValidGateway(strings.ToLower(c.Gateway)) {
		errs["payment_gateway"] = []string{"The selected payment gateway is invalid."}
	}
	if c.Amount.LessThan(minAmount) {
		errs["amount"] = []string{"The amount must be at least 0.01."}
	}
	if len(errs) > 0 {
		return apperr.Validation("The given data was invalid.", errs)
	}
	return nil
}

type SetStatusCommand struct {
	PaymentID     uuid.UUID
	Status        model.PaymentStatus
	CollectorName *string
	FailureReason *string
	Source        string
}

func (c SetStatusCommand) Validate() error {
	if c.PaymentID == uuid.Nil {
		return apperr.Field("payment_id", "The payment id field is required.")
	}
	if !c.Status.Valid() {
		return apperr.Field("payment_status", "The selected payment status is invalid.")
	}
	if c.CollectorName != nil && len(*c.CollectorName) > 255 {
		return apperr.Field("collector_name", "The collector name may not be greater than 255 characters.")
	}
	return nil
}

// GatewayAttempt records what a gateway returned for an in-flight payment.
type GatewayAttempt struct {
	Gateway       string
	Reference     string
	TransactionID *string
	Response      []byte
	Status        model.PaymentStatus
}

// GatewayUpdate carries optional gateway fields stored on a transition.
type GatewayUpdate struct {
	TransactionID *string
	Response      []byte
	Source        string
}
