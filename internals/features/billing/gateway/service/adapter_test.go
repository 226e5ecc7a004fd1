package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "waterworks_backend/internals/features/billing/authcodes/service"
	billmodel "waterworks_backend/internals/features/billing/bills/model"
	billsvc "waterworks_backend/internals/features/billing/bills/service"
	gwmodel "waterworks_backend/internals/features/billing/gateway/model"
	"waterworks_backend/internals/features/billing/gateway/service"
	"waterworks_backend/internals/features/billing/gateway/service/mocks"
	"waterworks_backend/internals/features/billing/memstore"
	paymodel "waterworks_backend/internals/features/billing/payments/model"
	paysvc "waterworks_backend/internals/features/billing/payments/service"
)

const webhookSecret = "whsk_test_secret"

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type env struct {
	store     *memstore.Store
	ledger    *billsvc.Ledger
	processor *paysvc.Processor
	adapter   *service.Adapter
	user      uuid.UUID
}

func newEnv(t *testing.T, cfg service.Config, paymongo, midtrans service.Client) *env {
	t.Helper()
	store := memstore.New()
	clock := func() time.Time { return now }
	guard := authsvc.NewGuard(store.AuthorizationCodes(), nil).WithClock(clock)
	ledger := billsvc.NewLedger(store.Bills(), guard, store, nil, nil, nil).WithClock(clock)
	proc := paysvc.NewProcessor(store.Payments(), ledger, store, nil, nil, nil).WithClock(clock)
	adapter := service.NewAdapter(cfg, store.Payments(), proc, store.GatewayEvents(), nil, nil).WithClock(clock)
	if paymongo != nil {
		adapter.WithPayMongo(paymongo)
	}
	if midtrans != nil {
		adapter.WithMidtrans(midtrans)
	}
	proc.UseDispatcher(adapter)
	return &env{store: store, ledger: ledger, processor: proc, adapter: adapter, user: uuid.New()}
}

func (e *env) pay(t *testing.T, gateway string) *paysvc.InitiateResult {
	t.Helper()
	return e.payAmount(t, gateway, "525.00")
}

func (e *env) payAmount(t *testing.T, gateway, amount string) *paysvc.InitiateResult {
	t.Helper()
	ctx := context.Background()
	due := decimal.RequireFromString(amount)
	b, err := e.ledger.CreateBill(ctx, billsvc.BillFields{
		UserID:          e.user,
		ReadingDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		DueDate:         time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		PreviousReading: decimal.NewFromInt(1000),
		PresentReading:  decimal.NewFromInt(1035),
		Amount:          due,
		MeterReader:     "reader",
	})
	require.NoError(t, err)
	res, err := e.processor.InitiatePayment(ctx, paysvc.InitiatePaymentCommand{
		Payer:   paysvc.Payer{UserID: e.user, Name: "Juan Dela Cruz", Email: "juan@example.com"},
		BillID:  b.BillID,
		Method:  paymodel.PaymentMethodOnline,
		Gateway: gateway,
		Amount:  due,
	})
	require.NoError(t, err)
	return res
}

func (e *env) billOf(t *testing.T, p *paymodel.Payment) *billmodel.Bill {
	t.Helper()
	b, err := e.ledger.Get(context.Background(), p.PaymentBillID)
	require.NoError(t, err)
	return b
}

func (e *env) payment(t *testing.T, id uuid.UUID) *paymodel.Payment {
	t.Helper()
	p, err := e.processor.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func liveConfig() service.Config {
	return service.Config{Mode: "live", AppURL: "https://water.example", Timeout: time.Second, PayMongoWebhookSecret: webhookSecret}
}

// hostedPayMongo expects one create + attach round trip yielding intent pi_1.
func hostedPayMongo(ctrl *gomock.Controller) *mocks.MockClient {
	c := mocks.NewMockClient(ctrl)
	c.EXPECT().Name().Return("paymongo").AnyTimes()
	c.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req service.IntentRequest) (*service.Intent, error) {
			if req.AmountMinor != 52500 || req.Currency != "PHP" {
				return nil, fmt.Errorf("unexpected request %+v", req)
			}
			return &service.Intent{ID: "pi_1", GatewayStatus: "awaiting_payment_method", Outcome: service.OutcomePending}, nil
		})
	c.EXPECT().AttachMethod(gomock.Any(), "pi_1", gomock.Any()).
		Return(&service.Intent{ID: "pi_1", MethodID: "pm_1", GatewayStatus: "awaiting_next_action", CheckoutURL: "https://pm.example/redirect/pi_1", Raw: []byte(`{"data":{"id":"pi_1"}}`)}, nil)
	return c
}

func payMongoEvent(eventID, eventType, intentID string) []byte {
	return []byte(fmt.Sprintf(`{"data":{"id":%q,"type":"event","attributes":{"type":%q,"livemode":false,"data":{"id":"pay_9","type":"payment","attributes":{"status":"paid","payment_intent_id":%q}}}}}`,
		eventID, eventType, intentID))
}

func payMongoSignature(body []byte, secret string) string {
	ts := "1700000000"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(body)))
	return "t=" + ts + ",te=" + hex.EncodeToString(mac.Sum(nil)) + ",li="
}

func signedPayMongo(body []byte) service.WebhookRequest {
	return service.WebhookRequest{
		Provider: "paymongo",
		Headers:  map[string]string{"Paymongo-Signature": payMongoSignature(body, webhookSecret)},
		Body:     body,
	}
}

func TestDemoGatewaySettlesSynchronously(t *testing.T) {
	e := newEnv(t, service.Config{Mode: "test"}, nil, nil)
	res := e.pay(t, "demo")

	require.NotNil(t, res.Dispatch)
	assert.Equal(t, paysvc.DispatchCompleted, res.Dispatch.Mode)
	assert.Regexp(t, `^DEMO20261019100000`, res.Dispatch.Reference)
	assert.Equal(t, paymodel.PaymentStatusCompleted, res.Payment.PaymentStatus)
	assert.Equal(t, res.Dispatch.Reference, res.Payment.Reference())
	assert.Equal(t, billmodel.BillStatusPaid, e.billOf(t, res.Payment).BillStatus)
}

func TestGCashInTestModeIsManual(t *testing.T) {
	e := newEnv(t, service.Config{Mode: "test"}, nil, nil)
	res := e.pay(t, "gcash")

	assert.Equal(t, paysvc.DispatchManual, res.Dispatch.Mode)
	assert.NotEmpty(t, res.Dispatch.QRCodeURL)
	assert.Equal(t, paymodel.PaymentStatusPending, res.Payment.PaymentStatus)
	assert.Empty(t, res.Payment.Reference())
	assert.Equal(t, billmodel.BillStatusPending, e.billOf(t, res.Payment).BillStatus)
}

func TestPayMongoLiveRedirects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := newEnv(t, liveConfig(), hostedPayMongo(ctrl), nil)
	res := e.pay(t, "gcash")

	assert.Equal(t, paysvc.DispatchRedirect, res.Dispatch.Mode)
	assert.Equal(t, "https://pm.example/redirect/pi_1", res.Dispatch.CheckoutURL)
	assert.Equal(t, "pi_1", res.Payment.Reference())
	require.NotNil(t, res.Payment.PaymentGatewayTransactionID)
	assert.Equal(t, "pm_1", *res.Payment.PaymentGatewayTransactionID)
	assert.Equal(t, paymodel.PaymentStatusPending, res.Payment.PaymentStatus)
}

func TestCheckoutURLFallsBackToRetrieve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := mocks.NewMockClient(ctrl)
	c.EXPECT().Name().Return("paymongo").AnyTimes()
	c.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).Return(&service.Intent{ID: "pi_2"}, nil)
	c.EXPECT().AttachMethod(gomock.Any(), "pi_2", gomock.Any()).Return(&service.Intent{ID: "pi_2", MethodID: "pm_2"}, nil)
	c.EXPECT().RetrieveIntent(gomock.Any(), "pi_2").Return(&service.Intent{ID: "pi_2", CheckoutURL: "https://pm.example/r/pi_2"}, nil)

	e := newEnv(t, liveConfig(), c, nil)
	res := e.pay(t, "paymongo")

	assert.Equal(t, "https://pm.example/r/pi_2", res.Dispatch.CheckoutURL)
	require.NotNil(t, res.Payment.PaymentGatewayTransactionID)
	assert.Equal(t, "pm_2", *res.Payment.PaymentGatewayTransactionID)
}

func TestGatewayErrorFallsBackWithoutTouchingPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := mocks.NewMockClient(ctrl)
	c.EXPECT().Name().Return("paymongo").AnyTimes()
	c.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).Return(nil, errors.New("502 bad gateway"))

	e := newEnv(t, liveConfig(), c, nil)
	res := e.pay(t, "gcash")

	assert.Equal(t, paysvc.DispatchFallback, res.Dispatch.Mode)
	assert.Equal(t, paymodel.PaymentStatusPending, res.Payment.PaymentStatus)
	assert.Empty(t, res.Payment.Reference())
	assert.Nil(t, res.Payment.PaymentFailureReason)
}

func TestGatewayTimeoutLeavesPaymentPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := mocks.NewMockClient(ctrl)
	c.EXPECT().Name().Return("paymongo").AnyTimes()
	c.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ service.IntentRequest) (*service.Intent, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	cfg := liveConfig()
	cfg.Timeout = 20 * time.Millisecond
	e := newEnv(t, cfg, c, nil)
	res := e.pay(t, "gcash")

	assert.Equal(t, paysvc.DispatchFallback, res.Dispatch.Mode)
	assert.Equal(t, paymodel.PaymentStatusPending, e.payment(t, res.Payment.PaymentID).PaymentStatus)
}

func TestWebhookReplayMarksBillPaidOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := newEnv(t, liveConfig(), hostedPayMongo(ctrl), nil)
	res := e.pay(t, "gcash")
	ctx := context.Background()

	body := payMongoEvent("evt_1", "payment.paid", "pi_1")
	first, err := e.adapter.HandleWebhook(ctx, signedPayMongo(body))
	require.NoError(t, err)
	assert.True(t, first.Handled)
	assert.Equal(t, gwmodel.GatewayEventProcessed, first.Status)

	p := e.payment(t, res.Payment.PaymentID)
	assert.Equal(t, paymodel.PaymentStatusCompleted, p.PaymentStatus)
	require.NotNil(t, p.PaymentGatewayTransactionID)
	assert.Equal(t, "pay_9", *p.PaymentGatewayTransactionID)
	bill := e.billOf(t, p)
	require.NotNil(t, bill.BillPaidAt)
	paidAt := *bill.BillPaidAt

	second, err := e.adapter.HandleWebhook(ctx, signedPayMongo(body))
	require.NoError(t, err)
	assert.False(t, second.Handled)
	assert.Equal(t, gwmodel.GatewayEventDuplicate, second.Status)

	bill = e.billOf(t, p)
	assert.Equal(t, billmodel.BillStatusPaid, bill.BillStatus)
	assert.True(t, paidAt.Equal(*bill.BillPaidAt))
	assert.True(t, p.PaymentProcessedAt.Equal(*e.payment(t, p.PaymentID).PaymentProcessedAt))

	logged, err := e.adapter.Events(ctx, "gcash", 10)
	require.NoError(t, err)
	assert.Len(t, logged, 2)
}

type memDeduper struct{ seen map[string]bool }

func (d *memDeduper) Claim(_ context.Context, key string) (bool, error) {
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memDeduper) Release(_ context.Context, key string) { delete(d.seen, key) }

func TestDeduperShortCircuitsRedelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := newEnv(t, liveConfig(), hostedPayMongo(ctrl), nil)
	d := &memDeduper{seen: map[string]bool{}}
	e.adapter.WithDeduper(d)
	e.pay(t, "gcash")

	body := payMongoEvent("evt_7", "payment.paid", "pi_1")
	_, err := e.adapter.HandleWebhook(context.Background(), signedPayMongo(body))
	require.NoError(t, err)
	again, err := e.adapter.HandleWebhook(context.Background(), signedPayMongo(body))
	require.NoError(t, err)
	assert.Equal(t, gwmodel.GatewayEventDuplicate, again.Status)
	assert.Equal(t, "delivery already seen", again.Reason)
}

func TestWebhookWithBadSignatureIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := newEnv(t, liveConfig(), hostedPayMongo(ctrl), nil)
	res := e.pay(t, "gcash")

	body := payMongoEvent("evt_1", "payment.paid", "pi_1")
	req := service.WebhookRequest{
		Provider: "paymongo",
		Headers:  map[string]string{"paymongo-signature": payMongoSignature(body, "wrong")},
		Body:     body,
	}
	out, err := e.adapter.HandleWebhook(context.Background(), req)
	assert.ErrorIs(t, err, service.ErrInvalidSignature)
	assert.Equal(t, gwmodel.GatewayEventRejected, out.Status)
	assert.Equal(t, paymodel.PaymentStatusPending, e.payment(t, res.Payment.PaymentID).PaymentStatus)
}

func TestWebhookIgnoresUnknownEventsAndReferences(t *testing.T) {
	e := newEnv(t, liveConfig(), nil, nil)
	ctx := context.Background()

	out, err := e.adapter.HandleWebhook(ctx, signedPayMongo(payMongoEvent("evt_2", "source.chargeable", "pi_x")))
	require.NoError(t, err)
	assert.Equal(t, gwmodel.GatewayEventIgnored, out.Status)

	out, err = e.adapter.HandleWebhook(ctx, signedPayMongo(payMongoEvent("evt_3", "payment.paid", "pi_unknown")))
	require.NoError(t, err)
	assert.Equal(t, gwmodel.GatewayEventIgnored, out.Status)
	assert.False(t, out.Handled)

	out, err = e.adapter.HandleWebhook(ctx, service.WebhookRequest{Provider: "paymongo", Body: []byte("not json")})
	require.NoError(t, err)
	assert.Equal(t, gwmodel.GatewayEventIgnored, out.Status)
}

func TestMidtransSettlementWebhook(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mt := mocks.NewMockClient(ctrl)
	mt.EXPECT().Name().Return("midtrans").AnyTimes()
	mt.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req service.IntentRequest) (*service.Intent, error) {
			return &service.Intent{ID: req.Reference, CheckoutURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/x"}, nil
		})

	cfg := service.Config{Mode: "test", MidtransServerKey: "SB-Mid-server-key"}
	e := newEnv(t, cfg, nil, mt)
	res := e.pay(t, "midtrans")
	require.Equal(t, paysvc.DispatchRedirect, res.Dispatch.Mode)

	body := midtransNotification(res.Payment.PaymentID.String(), "525.00", cfg.MidtransServerKey)

	out, err := e.adapter.HandleWebhook(context.Background(), service.WebhookRequest{Provider: "midtrans", Body: body})
	require.NoError(t, err)
	assert.Equal(t, gwmodel.GatewayEventProcessed, out.Status)
	assert.Equal(t, paymodel.PaymentStatusCompleted, e.payment(t, res.Payment.PaymentID).PaymentStatus)
}

func midtransNotification(orderID, gross, serverKey string) []byte {
	sum := sha512.Sum512([]byte(orderID + "200" + gross + serverKey))
	return []byte(fmt.Sprintf(`{"order_id":%q,"status_code":"200","gross_amount":%q,"transaction_status":"settlement","fraud_status":"accept","transaction_id":"tx-1","signature_key":%q}`,
		orderID, gross, hex.EncodeToString(sum[:])))
}

func TestMidtransFractionalAmountFallsBackToManual(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mt := mocks.NewMockClient(ctrl)
	mt.EXPECT().Name().Return("midtrans").AnyTimes()
	mt.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).Times(0)

	e := newEnv(t, service.Config{Mode: "test", MidtransServerKey: "SB-Mid-server-key"}, nil, mt)
	res := e.payAmount(t, "midtrans", "577.50")

	require.NotNil(t, res.Dispatch)
	assert.Equal(t, paysvc.DispatchFallback, res.Dispatch.Mode)
	p := e.payment(t, res.Payment.PaymentID)
	assert.Equal(t, paymodel.PaymentStatusPending, p.PaymentStatus)
	assert.True(t, p.PaymentAmountPaid.Equal(decimal.RequireFromString("577.50")))
}

func TestMidtransWebhookGrossMismatchDoesNotComplete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mt := mocks.NewMockClient(ctrl)
	mt.EXPECT().Name().Return("midtrans").AnyTimes()
	mt.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req service.IntentRequest) (*service.Intent, error) {
			return &service.Intent{ID: req.Reference, CheckoutURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/x"}, nil
		})

	cfg := service.Config{Mode: "test", MidtransServerKey: "SB-Mid-server-key"}
	e := newEnv(t, cfg, nil, mt)
	res := e.pay(t, "midtrans")

	body := midtransNotification(res.Payment.PaymentID.String(), "526.00", cfg.MidtransServerKey)
	out, err := e.adapter.HandleWebhook(context.Background(), service.WebhookRequest{Provider: "midtrans", Body: body})
	require.NoError(t, err)
	assert.Equal(t, gwmodel.GatewayEventIgnored, out.Status)
	assert.Contains(t, out.Reason, "does not match")
	assert.NotEqual(t, paymodel.PaymentStatusCompleted, e.payment(t, res.Payment.PaymentID).PaymentStatus)
	assert.Equal(t, billmodel.BillStatusPending, e.billOf(t, res.Payment).BillStatus)
}

func TestCheckStatusIgnoresMismatchedGatewayAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := hostedPayMongo(ctrl)
	e := newEnv(t, liveConfig(), c, nil)
	res := e.pay(t, "gcash")

	c.EXPECT().RetrieveIntent(gomock.Any(), "pi_1").
		Return(&service.Intent{ID: "pi_1", GatewayStatus: "succeeded", Outcome: service.OutcomeSucceeded, Amount: "500.00"}, nil)

	st, err := e.adapter.CheckStatusForUser(context.Background(), e.user, res.Payment.PaymentID)
	require.NoError(t, err)
	assert.NotEqual(t, paymodel.PaymentStatusCompleted, st.Status)
	assert.NotEmpty(t, st.Message)
}

func TestCheckStatusCompletesOnGatewaySuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := hostedPayMongo(ctrl)
	e := newEnv(t, liveConfig(), c, nil)
	res := e.pay(t, "gcash")

	c.EXPECT().RetrieveIntent(gomock.Any(), "pi_1").
		Return(&service.Intent{ID: "pi_1", GatewayStatus: "succeeded", Outcome: service.OutcomeSucceeded}, nil)

	st, err := e.adapter.CheckStatusForUser(context.Background(), e.user, res.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, paymodel.PaymentStatusCompleted, st.Status)
	assert.Equal(t, "succeeded", st.GatewayStatus)
	assert.Equal(t, billmodel.BillStatusPaid, e.billOf(t, res.Payment).BillStatus)

	// terminal payments are not sent to the gateway again
	st, err = e.adapter.CheckStatus(context.Background(), res.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, paymodel.PaymentStatusCompleted, st.Status)
}

func TestCheckStatusReportsUnknownOnGatewayError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := hostedPayMongo(ctrl)
	e := newEnv(t, liveConfig(), c, nil)
	res := e.pay(t, "gcash")

	c.EXPECT().RetrieveIntent(gomock.Any(), "pi_1").Return(nil, errors.New("connection reset"))

	st, err := e.adapter.CheckStatus(context.Background(), res.Payment.PaymentID)
	require.NoError(t, err)
	assert.True(t, st.Unknown)
	assert.Equal(t, paymodel.PaymentStatusPending, st.Status)

	_, err = e.adapter.CheckStatusForUser(context.Background(), uuid.New(), res.Payment.PaymentID)
	assert.Error(t, err)
}

func TestPollerSettlesStalePayments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := hostedPayMongo(ctrl)
	e := newEnv(t, liveConfig(), c, nil)
	res := e.pay(t, "gcash")

	c.EXPECT().RetrieveIntent(gomock.Any(), "pi_1").
		Return(&service.Intent{ID: "pi_1", GatewayStatus: "canceled", Outcome: service.OutcomeFailed}, nil)

	// the poller only picks up payments idle for a while
	e.adapter.WithClock(func() time.Time { return time.Now().Add(time.Hour) })
	n, err := service.NewPoller(e.adapter, time.Minute, nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p := e.payment(t, res.Payment.PaymentID)
	assert.Equal(t, paymodel.PaymentStatusFailed, p.PaymentStatus)
	assert.Equal(t, billmodel.BillStatusPending, e.billOf(t, p).BillStatus)
}
