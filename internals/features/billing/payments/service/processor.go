package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"waterworks_backend/internals/databases/txn"
	billmodel "waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/features/billing/events"
	"waterworks_backend/internals/features/billing/payments/model"
	"waterworks_backend/internals/features/billing/payments/repository"
	"waterworks_backend/internals/helpers/apperr"
	"waterworks_backend/internals/helpers/money"
	"waterworks_backend/internals/metrics"
)

type InitiateResult struct {
	Payment  *model.Payment
	Dispatch *DispatchResult
}

// Processor owns payment creation and the payment state machine, and
// reconciles completed payments into the bill ledger atomically.
type Processor struct {
	payments   repository.PaymentRepository
	ledger     BillLedger
	tx         txn.Manager
	dispatcher Dispatcher
	events     *events.Emitter
	metrics    *metrics.BillingMetrics
	now        func() time.Time
	log        *zap.Logger
}

func NewProcessor(
	payments repository.PaymentRepository,
	ledger BillLedger,
	tx txn.Manager,
	emitter *events.Emitter,
	m *metrics.BillingMetrics,
	log *zap.Logger,
) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		payments: payments,
		ledger:   ledger,
		tx:       tx,
		events:   emitter,
		metrics:  m,
		now:      time.Now,
		log:      log.Named("payments"),
	}
}

// UseDispatcher wires the gateway adapter; it depends on the processor too.
func (p *Processor) UseDispatcher(d Dispatcher) {
	p.dispatcher = d
}

func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

func (p *Processor) InitiatePayment(ctx context.Context, cmd InitiatePaymentCommand) (*InitiateResult, error) {
	cmd.Gateway = strings.ToLower(strings.TrimSpace(cmd.Gateway))
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		pay  *model.Payment
		bill *billmodel.Bill
	)
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := p.ledger.GetForUser(ctx, cmd.Payer.UserID, cmd.BillID)
		if err != nil {
			return err
		}
		if !b.IsPayable() {
			return apperr.Field("bill_id", "This bill is no longer payable.")
		}
		expected := p.ledger.EffectiveTotalPayable(b)
		if !money.Equal(cmd.Amount, expected) {
			p.log.Info("payment amount mismatch",
				zap.String("bill_id", b.BillID.String()),
				zap.String("expected", money.Format(expected)),
				zap.String("given", money.Format(cmd.Amount)))
			return apperr.AmountMismatch(expected)
		}

		now := p.now()
		np := &model.Payment{
			PaymentID:           uuid.New(),
			PaymentUserID:       cmd.Payer.UserID,
			PaymentBillID:       b.BillID,
			PaymentWWSID:        firstNonNil(cmd.Payer.WWSID, b.BillWWSID),
			PaymentAmountPaid:   money.Round2(expected),
			PaymentBalance:      decimal.Zero,
			PaymentQRDate:       now,
			PaymentMethod:       cmd.Method,
			PaymentGateway:      cmd.Gateway,
			PaymentStatus:       model.PaymentStatusPending,
			PaymentRecordStatus: model.RecordStatusPending,
			PaymentDate:         now,
		}
		stamp := now.Format("20060102150405")
		if cmd.Method == model.PaymentMethodOnline {
			np.PaymentQRNumber = "EQR" + stamp + shortID(cmd.Payer.UserID)
			elec := fmt.Sprintf("ELEC%08x%05x", now.Unix(), now.Nanosecond()/1000)
			np.PaymentElectronicQRNumber = &elec
			np.PaymentElectronicAmount = decimal.NewNullDecimal(np.PaymentAmountPaid)
		} else {
			np.PaymentQRNumber = "OTC" + stamp + shortID(cmd.Payer.UserID)
		}
		if err := p.payments.Create(ctx, np); err != nil {
			return err
		}
		pay, bill = np, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.metrics.PaymentInitiated(string(pay.PaymentMethod), pay.PaymentGateway)
	p.log.Info("payment initiated",
		zap.String("payment_id", pay.PaymentID.String()),
		zap.String("bill_id", pay.PaymentBillID.String()),
		zap.String("method", string(pay.PaymentMethod)),
		zap.String("gateway", pay.PaymentGateway),
		zap.String("amount", money.Format(pay.PaymentAmountPaid)))

	res := &InitiateResult{Payment: pay}
	if pay.PaymentMethod != model.PaymentMethodOnline || p.dispatcher == nil {
		return res, nil
	}

	d, err := p.dispatcher.Dispatch(ctx, pay, DispatchInput{Bill: bill, Payer: cmd.Payer, ReturnURL: cmd.ReturnURL})
	if err != nil {
		p.log.Error("dispatch failed, falling back to manual flow",
			zap.String("payment_id", pay.PaymentID.String()), zap.Error(err))
		d = &DispatchResult{
			Mode:    DispatchFallback,
			Message: "Online gateway is unavailable. Pay using the QR code and submit your reference number.",
		}
	}
	res.Dispatch = d

	if fresh, err := p.payments.FindByID(ctx, pay.PaymentID); err == nil {
		res.Payment = fresh
	}
	return res, nil
}

// SetStatus is the staff override. Completing also marks the bill paid in
// the same transaction.
func (p *Processor) SetStatus(ctx context.Context, cmd SetStatusCommand) (*model.Payment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	source := cmd.Source
	if source == "" {
		source = "staff"
	}
	out, _, err := p.transition(ctx, cmd.PaymentID, cmd.Status, transitionOpts{
		collector: cmd.CollectorName,
		reason:    cmd.FailureReason,
		source:    source,
	})
	return out, err
}

// Complete is the gateway completion path. Completing an already completed
// payment is a no-op; the bool reports whether this call completed it.
func (p *Processor) Complete(ctx context.Context, id uuid.UUID, u GatewayUpdate) (*model.Payment, bool, error) {
	return p.transition(ctx, id, model.PaymentStatusCompleted, transitionOpts{
		gatewayTxnID: u.TransactionID,
		response:     u.Response,
		source:       u.Source,
	})
}

func (p *Processor) Fail(ctx context.Context, id uuid.UUID, reason string, u GatewayUpdate) (*model.Payment, bool, error) {
	return p.transition(ctx, id, model.PaymentStatusFailed, transitionOpts{
		reason:       &reason,
		gatewayTxnID: u.TransactionID,
		response:     u.Response,
		source:       u.Source,
	})
}

type transitionOpts struct {
	collector    *string
	reason       *string
	gatewayTxnID *string
	response     []byte
	source       string
}

func (p *Processor) transition(ctx context.Context, id uuid.UUID, to model.PaymentStatus, o transitionOpts) (*model.Payment, bool, error) {
	var (
		out     *model.Payment
		changed bool
		from    model.PaymentStatus
	)
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		pay, err := p.payments.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = pay.PaymentStatus
		if from == to && to.IsTerminal() {
			out = pay
			return nil
		}
		if !model.CanTransition(from, to) {
			p.log.Warn("payment transition rejected, likely a double submission or race",
				zap.String("payment_id", id.String()),
				zap.String("from", string(from)),
				zap.String("to", string(to)),
				zap.String("source", o.source))
			return apperr.InvalidTransition(string(from), string(to))
		}

		now := p.now()
		pay.PaymentStatus = to
		pay.PaymentRecordStatus = model.RecordStatusFor(to)
		if o.collector != nil {
			pay.PaymentCollectorName = o.collector
		}
		if o.gatewayTxnID != nil {
			pay.PaymentGatewayTransactionID = o.gatewayTxnID
		}
		if len(o.response) > 0 {
			pay.PaymentGatewayResponse = datatypes.JSON(o.response)
		}
		switch to {
		case model.PaymentStatusCompleted:
			pay.PaymentProcessedAt = &now
			pay.PaymentFailureReason = nil
		case model.PaymentStatusFailed, model.PaymentStatusCancelled:
			reason := defaultReason(to)
			if o.reason != nil && strings.TrimSpace(*o.reason) != "" {
				reason = strings.TrimSpace(*o.reason)
			}
			pay.PaymentFailureReason = &reason
		}
		if err := p.payments.Save(ctx, pay); err != nil {
			return err
		}

		switch to {
		case model.PaymentStatusCompleted:
			if _, err := p.ledger.MarkPaid(ctx, pay.PaymentBillID); err != nil {
				return err
			}
			p.events.Emit(ctx, events.TopicPaymentCompleted, events.PaymentCompleted{
				PaymentID:   pay.PaymentID.String(),
				BillID:      pay.PaymentBillID.String(),
				UserID:      pay.PaymentUserID.String(),
				Amount:      money.Format(pay.PaymentAmountPaid),
				Method:      string(pay.PaymentMethod),
				Gateway:     pay.PaymentGateway,
				Reference:   pay.Reference(),
				ProcessedAt: now,
			})
		case model.PaymentStatusFailed, model.PaymentStatusCancelled:
			p.events.Emit(ctx, events.TopicPaymentFailed, events.PaymentFailed{
				PaymentID: pay.PaymentID.String(),
				BillID:    pay.PaymentBillID.String(),
				Status:    string(to),
				Reason:    *pay.PaymentFailureReason,
			})
		}
		out, changed = pay, true
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Persistence(err)
		}
		return nil, false, err
	}
	if changed {
		p.metrics.PaymentTransition(string(to), o.source)
		p.log.Info("payment status changed",
			zap.String("payment_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("source", o.source))
	}
	return out, changed, nil
}

func defaultReason(s model.PaymentStatus) string {
	if s == model.PaymentStatusCancelled {
		return "Payment cancelled"
	}
	return "Payment failed"
}

// RecordGatewayAttempt stores the gateway correlation fields. Terminal
// payments are returned untouched.
func (p *Processor) RecordGatewayAttempt(ctx context.Context, id uuid.UUID, a GatewayAttempt) (*model.Payment, error) {
	var out *model.Payment
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		pay, err := p.payments.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if pay.PaymentStatus.IsTerminal() {
			out = pay
			return nil
		}
		if a.Gateway != "" {
			pay.PaymentGateway = a.Gateway
		}
		if a.Reference != "" {
			ref := a.Reference
			pay.PaymentGatewayReference = &ref
		}
		if a.TransactionID != nil {
			pay.PaymentGatewayTransactionID = a.TransactionID
		}
		if len(a.Response) > 0 {
			pay.PaymentGatewayResponse = datatypes.JSON(a.Response)
		}
		if a.Status != "" && a.Status != pay.PaymentStatus && !a.Status.IsTerminal() && model.CanTransition(pay.PaymentStatus, a.Status) {
			pay.PaymentStatus = a.Status
			pay.PaymentRecordStatus = model.RecordStatusFor(a.Status)
		}
		if err := p.payments.Save(ctx, pay); err != nil {
			return err
		}
		out = pay
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateGatewayReference lets the payer attach an out-of-band reference.
// Allowed in any status; the status itself is not changed.
func (p *Processor) UpdateGatewayReference(ctx context.Context, userID, id uuid.UUID, ref string) (*model.Payment, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, apperr.Field("gateway_reference", "The gateway reference field is required.")
	case len(ref) > 255:
		return nil, apperr.Field("gateway_reference", "The gateway reference may not be greater than 255 characters.")
	}
	pay, err := p.payments.FindForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	pay.PaymentGatewayReference = &ref
	if err := p.payments.Save(ctx, pay); err != nil {
		return nil, err
	}
	p.log.Info("gateway reference attached",
		zap.String("payment_id", id.String()),
		zap.String("status", string(pay.PaymentStatus)))
	return pay, nil
}

func (p *Processor) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return p.payments.FindByID(ctx, id)
}

func (p *Processor) GetForUser(ctx context.Context, userID, id uuid.UUID) (*model.Payment, error) {
	return p.payments.FindForUser(ctx, userID, id)
}

func (p *Processor) List(ctx context.Context, f repository.ListFilter) ([]model.Payment, int64, error) {
	return p.payments.List(ctx, f)
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func firstNonNil(xs ...*string) *string {
	for _, x := range xs {
		if x != nil && *x != "" {
			return x
		}
	}
	return nil
}
