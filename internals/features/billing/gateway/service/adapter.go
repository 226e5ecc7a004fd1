package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	gwrepo "waterworks_backend/internals/features/billing/gateway/repository"
	paymodel "waterworks_backend/internals/features/billing/payments/model"
	payrepo "waterworks_backend/internals/features/billing/payments/repository"
	paysvc "waterworks_backend/internals/features/billing/payments/service"
	"waterworks_backend/internals/helpers/apperr"
	"waterworks_backend/internals/helpers/money"
	"waterworks_backend/internals/metrics"
)

// PaymentProcessor is the slice of the payment processor the adapter drives.
type PaymentProcessor interface {
	RecordGatewayAttempt(ctx context.Context, id uuid.UUID, a paysvc.GatewayAttempt) (*paymodel.Payment, error)
	Complete(ctx context.Context, id uuid.UUID, u paysvc.GatewayUpdate) (*paymodel.Payment, bool, error)
	Fail(ctx context.Context, id uuid.UUID, reason string, u paysvc.GatewayUpdate) (*paymodel.Payment, bool, error)
}

type Config struct {
	// Mode is "live" or "test". Hosted PayMongo checkout only runs live.
	Mode                  string
	Currency              string
	AppURL                string
	Timeout               time.Duration
	PayMongoWebhookSecret string
	MidtransServerKey     string
	ManualQRImage         string
}

func (c Config) Live() bool { return strings.EqualFold(c.Mode, "live") }

// Adapter is the gateway reconciliation adapter: it starts online payments
// at their gateway and folds gateway confirmations back into the processor.
type Adapter struct {
	cfg       Config
	payments  payrepo.PaymentRepository
	processor PaymentProcessor
	events    gwrepo.GatewayEventRepository
	paymongo  Client
	midtrans  Client
	dedupe    Deduper
	metrics   *metrics.BillingMetrics
	now       func() time.Time
	log       *zap.Logger
}

func NewAdapter(
	cfg Config,
	payments payrepo.PaymentRepository,
	processor PaymentProcessor,
	events gwrepo.GatewayEventRepository,
	m *metrics.BillingMetrics,
	log *zap.Logger,
) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "PHP"
	}
	if cfg.ManualQRImage == "" {
		cfg.ManualQRImage = "/assets/gcash_qrcode.jpg"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		cfg:       cfg,
		payments:  payments,
		processor: processor,
		events:    events,
		dedupe:    NopDeduper{},
		metrics:   m,
		now:       time.Now,
		log:       log.Named("gateway"),
	}
}

func (a *Adapter) WithPayMongo(c Client) *Adapter { a.paymongo = c; return a }
func (a *Adapter) WithMidtrans(c Client) *Adapter { a.midtrans = c; return a }

func (a *Adapter) WithDeduper(d Deduper) *Adapter {
	if d != nil {
		a.dedupe = d
	}
	return a
}

func (a *Adapter) WithClock(now func() time.Time) *Adapter {
	a.now = now
	return a
}

var _ paysvc.Dispatcher = (*Adapter)(nil)

// Dispatch starts the gateway side of an online payment. Errors leave the
// payment untouched.
func (a *Adapter) Dispatch(ctx context.Context, pay *paymodel.Payment, in paysvc.DispatchInput) (*paysvc.DispatchResult, error) {
	gw := strings.ToLower(pay.PaymentGateway)
	switch gw {
	case paymodel.GatewayDemo:
		return a.demo(ctx, pay, paymodel.GatewayDemo)

	case paymodel.GatewayGCash, paymodel.GatewayPayMongo:
		if a.cfg.Live() && a.paymongo != nil {
			return a.hosted(ctx, a.paymongo, paymodel.GatewayGCash, pay, in)
		}
		if gw == paymodel.GatewayGCash {
			return a.manualQR(ctx, pay)
		}
		a.log.Warn("paymongo not configured or in test mode, using demo flow",
			zap.String("payment_id", pay.PaymentID.String()))
		return a.demo(ctx, pay, paymodel.GatewayDemo)

	case paymodel.GatewayMidtrans:
		if a.midtrans != nil {
			if money.ToMinor(pay.PaymentAmountPaid)%100 != 0 {
				return nil, apperr.Gateway(paymodel.GatewayMidtrans, ErrFractionalAmount)
			}
			return a.hosted(ctx, a.midtrans, paymodel.GatewayMidtrans, pay, in)
		}
		a.log.Warn("midtrans not configured, using demo flow",
			zap.String("payment_id", pay.PaymentID.String()))
		return a.demo(ctx, pay, paymodel.GatewayDemo)
	}
	return nil, apperr.Gateway(gw, errors.New("unsupported gateway"))
}

// demo settles synchronously: pending -> processing -> completed.
func (a *Adapter) demo(ctx context.Context, pay *paymodel.Payment, label string) (*paysvc.DispatchResult, error) {
	ref := strings.ToUpper(label) + a.now().Format("20060102150405") + strings.ToUpper(pay.PaymentID.String()[:8])
	if _, err := a.processor.RecordGatewayAttempt(ctx, pay.PaymentID, paysvc.GatewayAttempt{
		Gateway:   label,
		Reference: ref,
		Status:    paymodel.PaymentStatusProcessing,
	}); err != nil {
		return nil, err
	}
	if _, _, err := a.processor.Complete(ctx, pay.PaymentID, paysvc.GatewayUpdate{Source: "demo"}); err != nil {
		return nil, err
	}
	return &paysvc.DispatchResult{
		Mode:      paysvc.DispatchCompleted,
		Reference: ref,
		Message:   "Demo payment processed successfully",
	}, nil
}

// manualQR leaves the payment pending; the customer attaches the GCash
// reference later and staff confirm it.
func (a *Adapter) manualQR(ctx context.Context, pay *paymodel.Payment) (*paysvc.DispatchResult, error) {
	if _, err := a.processor.RecordGatewayAttempt(ctx, pay.PaymentID, paysvc.GatewayAttempt{
		Gateway: paymodel.GatewayGCash,
	}); err != nil {
		return nil, err
	}
	return &paysvc.DispatchResult{
		Mode:      paysvc.DispatchManual,
		QRCodeURL: a.cfg.ManualQRImage,
		Message:   "Please scan the QR code and complete payment via GCash",
	}, nil
}

func (a *Adapter) hosted(ctx context.Context, c Client, label string, pay *paymodel.Payment, in paysvc.DispatchInput) (*paysvc.DispatchResult, error) {
	cctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	customer := Customer{Name: in.Payer.Name, Email: in.Payer.Email, Phone: in.Payer.Phone}
	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = strings.TrimRight(a.cfg.AppURL, "/") + "/payment/success/" + c.Name() + "?payment_id=" + pay.PaymentID.String()
	}
	req := IntentRequest{
		Reference:   pay.PaymentID.String(),
		AmountMinor: money.ToMinor(pay.PaymentAmountPaid),
		Currency:    a.cfg.Currency,
		Description: "Water Bill Payment - " + customer.Name,
		Customer:    customer,
		Metadata: map[string]string{
			"payment_id": pay.PaymentID.String(),
			"bill_id":    pay.PaymentBillID.String(),
			"user_id":    pay.PaymentUserID.String(),
		},
		ReturnURL: returnURL,
	}
	if in.Bill != nil {
		req.Description += " - " + in.Bill.BillReadingDate.Format("January 2006")
	}
	if pay.PaymentWWSID != nil {
		req.Metadata["wws_id"] = *pay.PaymentWWSID
	}

	intent, err := a.call(c, "create_intent", func() (*Intent, error) { return c.CreateIntent(cctx, req) })
	if err != nil {
		return nil, err
	}
	if intent.CheckoutURL == "" {
		attached, err := a.call(c, "attach_method", func() (*Intent, error) {
			return c.AttachMethod(cctx, intent.ID, MethodDetails{Type: "gcash", Customer: customer, ReturnURL: returnURL})
		})
		if err != nil {
			return nil, err
		}
		intent = attached
	}
	if intent.CheckoutURL == "" {
		a.log.Warn("checkout url missing after attach, retrieving intent",
			zap.String("payment_id", pay.PaymentID.String()),
			zap.String("intent_id", intent.ID))
		methodID := intent.MethodID
		again, err := a.call(c, "retrieve_intent", func() (*Intent, error) { return c.RetrieveIntent(cctx, intent.ID) })
		if err != nil {
			return nil, err
		}
		if again.MethodID == "" {
			again.MethodID = methodID
		}
		intent = again
	}
	if intent.CheckoutURL == "" {
		return nil, apperr.Gateway(c.Name(), errors.New("checkout url not available for intent "+intent.ID))
	}

	attempt := paysvc.GatewayAttempt{
		Gateway:   label,
		Reference: intent.ID,
		Response:  intent.Raw,
	}
	if intent.MethodID != "" {
		id := intent.MethodID
		attempt.TransactionID = &id
	}
	if _, err := a.processor.RecordGatewayAttempt(ctx, pay.PaymentID, attempt); err != nil {
		return nil, err
	}
	a.log.Info("hosted checkout created",
		zap.String("payment_id", pay.PaymentID.String()),
		zap.String("gateway", c.Name()),
		zap.String("intent_id", intent.ID))

	return &paysvc.DispatchResult{
		Mode:        paysvc.DispatchRedirect,
		CheckoutURL: intent.CheckoutURL,
		Reference:   intent.ID,
		Message:     "Payment link created. Please complete payment via the gateway checkout.",
	}, nil
}

// amountMatches compares a gateway-reported gross amount with amount_paid.
// An empty report is accepted.
func (a *Adapter) amountMatches(reported string, pay *paymodel.Payment) bool {
	if strings.TrimSpace(reported) == "" {
		return true
	}
	got, err := money.Parse(reported)
	if err == nil && money.Equal(got, pay.PaymentAmountPaid) {
		return true
	}
	a.log.Warn("gateway amount mismatch",
		zap.String("payment_id", pay.PaymentID.String()),
		zap.String("reported", reported),
		zap.String("amount_paid", pay.PaymentAmountPaid.StringFixed(2)))
	return false
}

func (a *Adapter) call(c Client, op string, fn func() (*Intent, error)) (*Intent, error) {
	start := a.now()
	in, err := fn()
	a.metrics.GatewayCall(c.Name(), op, err, time.Since(start))
	if err != nil {
		a.log.Error("gateway call failed", zap.String("gateway", c.Name()), zap.String("op", op), zap.Error(err))
		return nil, apperr.Gateway(c.Name(), err)
	}
	return in, nil
}

// clientFor resolves which API can be asked about a payment's status.
func (a *Adapter) clientFor(gateway string) Client {
	switch strings.ToLower(gateway) {
	case paymodel.GatewayGCash, paymodel.GatewayPayMongo:
		if a.cfg.Live() {
			return a.paymongo
		}
	case paymodel.GatewayMidtrans:
		return a.midtrans
	}
	return nil
}

type StatusResult struct {
	PaymentID     uuid.UUID              `json:"payment_id"`
	Status        paymodel.PaymentStatus `json:"status"`
	GatewayStatus string                 `json:"gateway_status,omitempty"`
	Gateway       string                 `json:"gateway"`
	Reference     *string                `json:"gateway_reference,omitempty"`
	Unknown       bool                   `json:"unknown,omitempty"`
	Message       string                 `json:"message,omitempty"`
}

func (a *Adapter) CheckStatus(ctx context.Context, id uuid.UUID) (*StatusResult, error) {
	pay, err := a.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.check(ctx, pay)
}

func (a *Adapter) CheckStatusForUser(ctx context.Context, userID, id uuid.UUID) (*StatusResult, error) {
	pay, err := a.payments.FindForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return a.check(ctx, pay)
}

// check asks the gateway about a payment and applies a newly observed final
// state. Gateway errors are reported as unknown, not returned.
func (a *Adapter) check(ctx context.Context, pay *paymodel.Payment) (*StatusResult, error) {
	res := &StatusResult{
		PaymentID: pay.PaymentID,
		Status:    pay.PaymentStatus,
		Gateway:   pay.PaymentGateway,
		Reference: pay.PaymentGatewayReference,
	}
	c := a.clientFor(pay.PaymentGateway)
	if c == nil || pay.Reference() == "" || pay.PaymentStatus.IsTerminal() {
		return res, nil
	}

	cctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	intent, err := a.call(c, "retrieve_intent", func() (*Intent, error) { return c.RetrieveIntent(cctx, pay.Reference()) })
	if err != nil {
		res.Unknown = true
		res.Message = "Gateway status is unknown, please retry later."
		return res, nil
	}
	res.GatewayStatus = intent.GatewayStatus

	update := paysvc.GatewayUpdate{Response: intent.Raw, Source: "status_check"}
	if intent.MethodID != "" {
		tx := intent.MethodID
		update.TransactionID = &tx
	}
	var out *paymodel.Payment
	switch intent.Outcome {
	case OutcomeSucceeded:
		if !a.amountMatches(intent.Amount, pay) {
			res.Message = "Gateway amount does not match the payment amount."
			return res, nil
		}
		out, _, err = a.processor.Complete(ctx, pay.PaymentID, update)
	case OutcomeFailed:
		out, _, err = a.processor.Fail(ctx, pay.PaymentID, "Payment failed or cancelled", update)
	default:
		return res, nil
	}
	if apperr.Is(err, apperr.KindInvalidTransition) {
		out, err = a.payments.FindByID(ctx, pay.PaymentID)
	}
	if err != nil {
		return nil, err
	}
	res.Status = out.PaymentStatus
	return res, nil
}
