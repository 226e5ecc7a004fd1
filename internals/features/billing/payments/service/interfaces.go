package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billmodel "waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/features/billing/payments/model"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks -source=interfaces.go

type BillLedger interface {
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*billmodel.Bill, error)
	EffectiveTotalPayable(b *billmodel.Bill) decimal.Decimal
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
}

type DispatchMode string

const (
	// DispatchRedirect: the payer must finish at CheckoutURL.
	DispatchRedirect DispatchMode = "redirect"
	// DispatchManual: pay out of band (e.g. scan a QR) and attach the reference.
	DispatchManual DispatchMode = "manual"
	// DispatchCompleted: settled synchronously (demo gateway).
	DispatchCompleted DispatchMode = "completed"
	// DispatchFallback: the gateway failed; the payment stays open for the manual flow.
	DispatchFallback DispatchMode = "fallback"
)

type DispatchInput struct {
	Bill      *billmodel.Bill
	Payer     Payer
	ReturnURL string
}

type DispatchResult struct {
	Mode        DispatchMode `json:"mode"`
	CheckoutURL string       `json:"checkout_url,omitempty"`
	Reference   string       `json:"gateway_reference,omitempty"`
	QRCodeURL   string       `json:"qr_code_url,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// Dispatcher hands an online payment to its gateway. A returned error never
// fails the payment; the processor answers DispatchFallback instead.
type Dispatcher interface {
	Dispatch(ctx context.Context, p *model.Payment, in DispatchInput) (*DispatchResult, error)
}
