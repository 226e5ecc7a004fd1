package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransClient uses Snap for checkout and the Core API for status checks.
// The Snap order id is the intent id.
type MidtransClient struct {
	snap snap.Client
	core coreapi.Client
}

func NewMidtransClient(serverKey string, useProduction bool) *MidtransClient {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	c := &MidtransClient{}
	c.snap.New(serverKey, env)
	c.core.New(serverKey, env)
	return c
}

var _ Client = (*MidtransClient)(nil)

// ErrFractionalAmount: Snap gross_amount is a whole number, so amounts with
// cents cannot be charged exactly.
var ErrFractionalAmount = errors.New("midtrans cannot charge fractional amounts")

func (c *MidtransClient) Name() string { return "midtrans" }

func (c *MidtransClient) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.AmountMinor%100 != 0 {
		return nil, ErrFractionalAmount
	}
	gross := req.AmountMinor / 100
	sr := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:       req.Reference,
			Price:    gross,
			Qty:      1,
			Name:     truncate(req.Description, 50),
			Category: "WATER",
		}},
	}
	if req.ReturnURL != "" {
		sr.Callbacks = &snap.Callbacks{Finish: req.ReturnURL}
	}

	resp, err := callWithContext(ctx, func() (*snap.Response, error) {
		r, merr := c.snap.CreateTransaction(sr)
		if merr != nil {
			return nil, merr
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("midtrans snap: %w", err)
	}
	raw, _ := sonic.Marshal(resp)
	return &Intent{
		ID:            req.Reference,
		GatewayStatus: "pending",
		Outcome:       OutcomePending,
		CheckoutURL:   resp.RedirectURL,
		Raw:           raw,
	}, nil
}

// AttachMethod is a no-op: Snap lets the customer choose the method.
func (c *MidtransClient) AttachMethod(ctx context.Context, intentID string, _ MethodDetails) (*Intent, error) {
	return &Intent{ID: intentID, GatewayStatus: "pending", Outcome: OutcomePending}, nil
}

func (c *MidtransClient) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	st, err := callWithContext(ctx, func() (*coreapi.TransactionStatusResponse, error) {
		r, merr := c.core.CheckTransaction(intentID)
		if merr != nil {
			return nil, merr
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("midtrans status: %w", err)
	}
	raw, _ := sonic.Marshal(st)
	return &Intent{
		ID:            intentID,
		MethodID:      st.TransactionID,
		GatewayStatus: st.TransactionStatus,
		Outcome:       MapMidtransStatus(st.TransactionStatus, st.FraudStatus),
		Amount:        st.GrossAmount,
		Raw:           raw,
	}, nil
}

// callWithContext bounds SDK calls that take no context; a late result is dropped.
func callWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
