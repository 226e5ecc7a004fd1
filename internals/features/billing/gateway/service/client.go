package service

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go

import (
	"context"
	"strings"
)

// Outcome is a gateway status collapsed onto what the payment state machine cares about.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

// IntentRequest carries amounts in integer minor units.
type IntentRequest struct {
	Reference   string
	AmountMinor int64
	Currency    string
	Description string
	Customer    Customer
	Metadata    map[string]string
	ReturnURL   string
}

type MethodDetails struct {
	Type      string
	Customer  Customer
	ReturnURL string
}

type Intent struct {
	ID            string
	MethodID      string
	GatewayStatus string
	Outcome       Outcome
	CheckoutURL   string
	// Amount is the gateway-reported gross amount, "" when not reported.
	Amount string
	Raw    []byte
}

// Client is a hosted-checkout payment API.
type Client interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	AttachMethod(ctx context.Context, intentID string, m MethodDetails) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}

func MapPayMongoStatus(status string) Outcome {
	switch strings.ToLower(status) {
	case "succeeded", "paid":
		return OutcomeSucceeded
	case "failed", "canceled", "cancelled":
		return OutcomeFailed
	}
	return OutcomePending
}

// MapMidtransStatus follows Midtrans transaction_status/fraud_status semantics.
// Refunds are left pending; they have no effect on a bill.
func MapMidtransStatus(transactionStatus, fraudStatus string) Outcome {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "accept", "":
			return OutcomeSucceeded
		case "challenge":
			return OutcomePending
		}
		return OutcomeFailed
	case "settlement":
		return OutcomeSucceeded
	case "deny", "cancel", "expire", "failure":
		return OutcomeFailed
	}
	return OutcomePending
}
