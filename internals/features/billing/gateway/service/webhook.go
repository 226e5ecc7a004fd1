package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	gwmodel "waterworks_backend/internals/features/billing/gateway/model"
	gwrepo "waterworks_backend/internals/features/billing/gateway/repository"
	paymodel "waterworks_backend/internals/features/billing/payments/model"
	paysvc "waterworks_backend/internals/features/billing/payments/service"
	"waterworks_backend/internals/helpers/apperr"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

const (
	ProviderPayMongo = "paymongo"
	ProviderMidtrans = "midtrans"
)

type WebhookRequest struct {
	Provider string
	Headers  map[string]string
	Body     []byte
}

type WebhookResult struct {
	Status    gwmodel.GatewayEventStatus `json:"status"`
	Handled   bool                       `json:"handled"`
	EventID   *uuid.UUID                 `json:"event_id,omitempty"`
	PaymentID *uuid.UUID                 `json:"payment_id,omitempty"`
	Reason    string                     `json:"reason,omitempty"`
}

// notification is a webhook payload reduced to what reconciliation needs.
type notification struct {
	DeliveryKey string
	Type        string
	Reference   string
	TxnID       string
	Outcome     Outcome
	Signature   string
	Live        bool
	// midtrans signature input
	orderID, statusCode, grossAmount string
}

/* ---------- PayMongo ---------- */

type payMongoEvent struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Type     string `json:"type"`
			Livemode bool   `json:"livemode"`
			Data     struct {
				ID         string `json:"id"`
				Type       string `json:"type"`
				Attributes struct {
					Status          string `json:"status"`
					PaymentIntentID string `json:"payment_intent_id"`
				} `json:"attributes"`
			} `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

func parsePayMongo(body []byte, headers map[string]string) (*notification, error) {
	var ev payMongoEvent
	if err := sonic.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	attrs := ev.Data.Attributes
	n := &notification{
		Type:      attrs.Type,
		Signature: header(headers, "Paymongo-Signature"),
		Live:      attrs.Livemode,
	}

	// payment.* events carry the payment; the intent id sits in its attributes.
	n.Reference = attrs.Data.Attributes.PaymentIntentID
	if n.Reference == "" {
		n.Reference = attrs.Data.ID
	} else {
		n.TxnID = attrs.Data.ID
	}

	switch attrs.Type {
	case "payment.paid", "payment_intent.succeeded":
		n.Outcome = OutcomeSucceeded
	case "payment.failed", "payment_intent.payment_failed":
		n.Outcome = OutcomeFailed
	default:
		n.Outcome = OutcomePending
	}
	n.DeliveryKey = ev.Data.ID
	if n.DeliveryKey == "" {
		n.DeliveryKey = attrs.Type + ":" + n.Reference
	}
	return n, nil
}

// VerifyPayMongoSignature checks a "t=<ts>,te=<hex>,li=<hex>" header:
// HMAC-SHA256 of "<ts>.<body>" keyed by the webhook secret. te is used for
// test mode events, li for live ones.
func VerifyPayMongoSignature(headerValue string, body []byte, secret string, live bool) bool {
	parts := map[string]string{}
	for _, kv := range strings.Split(headerValue, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if ok {
			parts[k] = v
		}
	}
	ts := parts["t"]
	want := parts["te"]
	if live {
		want = parts["li"]
	}
	if ts == "" || want == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	got := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(got), []byte(strings.ToLower(want)))
}

/* ---------- Midtrans ---------- */

type midtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

func parseMidtrans(body []byte) (*notification, error) {
	var mn midtransNotification
	if err := sonic.Unmarshal(body, &mn); err != nil {
		return nil, err
	}
	return &notification{
		DeliveryKey: mn.OrderID + ":" + mn.TransactionStatus + ":" + mn.TransactionID,
		Type:        mn.TransactionStatus,
		Reference:   mn.OrderID,
		TxnID:       mn.TransactionID,
		Outcome:     MapMidtransStatus(mn.TransactionStatus, mn.FraudStatus),
		Signature:   mn.SignatureKey,
		orderID:     mn.OrderID,
		statusCode:  mn.StatusCode,
		grossAmount: mn.GrossAmount,
	}, nil
}

// VerifyMidtransSignature: signature_key = SHA512(order_id + status_code + gross_amount + server_key).
func VerifyMidtransSignature(orderID, statusCode, grossAmount, signature, serverKey string) bool {
	if signature == "" {
		return false
	}
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	got := hex.EncodeToString(sum[:])
	return hmac.Equal([]byte(got), []byte(strings.ToLower(signature)))
}

/* ---------- handling ---------- */

func NormalizeProvider(p string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case ProviderPayMongo, paymodel.GatewayGCash:
		return ProviderPayMongo, true
	case ProviderMidtrans:
		return ProviderMidtrans, true
	}
	return "", false
}

// HandleWebhook logs the delivery, verifies it and, for a recognised final
// event on a known payment, drives the payment to that state. Unrecognised
// events and unmatched references are ignored, not errors. The only errors are
// ErrInvalidSignature and storage failures the gateway should retry.
func (a *Adapter) HandleWebhook(ctx context.Context, req WebhookRequest) (*WebhookResult, error) {
	provider, ok := NormalizeProvider(req.Provider)
	if !ok {
		return nil, apperr.NotFound("webhook provider")
	}

	ev := a.logDelivery(ctx, provider, req)
	res := &WebhookResult{}
	if ev != nil {
		res.EventID = &ev.GatewayEventID
	}
	finish := func(status gwmodel.GatewayEventStatus, reason string) *WebhookResult {
		res.Status = status
		res.Handled = status == gwmodel.GatewayEventProcessed
		res.Reason = reason
		a.recordOutcome(ctx, ev, status, res.PaymentID, reason)
		a.metrics.Webhook(provider, string(status))
		a.log.Info("webhook handled",
			zap.String("provider", provider),
			zap.String("status", string(status)),
			zap.String("reason", reason))
		return res
	}

	var (
		n   *notification
		err error
	)
	if provider == ProviderPayMongo {
		n, err = parsePayMongo(req.Body, req.Headers)
	} else {
		n, err = parseMidtrans(req.Body)
	}
	if err != nil {
		return finish(gwmodel.GatewayEventIgnored, "unreadable payload"), nil
	}
	if ev != nil {
		a.describeDelivery(ev, n)
	}

	if !a.verify(provider, n, req.Body) {
		a.log.Warn("webhook signature rejected", zap.String("provider", provider), zap.String("reference", n.Reference))
		finish(gwmodel.GatewayEventRejected, "invalid signature")
		return res, ErrInvalidSignature
	}

	if n.Outcome == OutcomePending || n.Reference == "" {
		return finish(gwmodel.GatewayEventIgnored, "event not handled: "+n.Type), nil
	}

	key := provider + ":" + n.DeliveryKey
	claimed, _ := a.dedupe.Claim(ctx, key)
	if !claimed {
		return finish(gwmodel.GatewayEventDuplicate, "delivery already seen"), nil
	}

	pay, err := a.payments.FindByGatewayReference(ctx, n.Reference)
	if err != nil {
		a.dedupe.Release(ctx, key)
		if apperr.Is(err, apperr.KindNotFound) {
			return finish(gwmodel.GatewayEventIgnored, "payment not found for reference "+n.Reference), nil
		}
		finish(gwmodel.GatewayEventFailed, err.Error())
		return res, err
	}
	res.PaymentID = &pay.PaymentID

	update := paysvc.GatewayUpdate{Response: req.Body, Source: "webhook"}
	if n.TxnID != "" {
		tx := n.TxnID
		update.TransactionID = &tx
	}
	if n.Outcome == OutcomeSucceeded && !a.amountMatches(n.grossAmount, pay) {
		return finish(gwmodel.GatewayEventIgnored, "gross amount "+n.grossAmount+" does not match amount paid"), nil
	}

	var changed bool
	if n.Outcome == OutcomeSucceeded {
		_, changed, err = a.processor.Complete(ctx, pay.PaymentID, update)
	} else {
		_, changed, err = a.processor.Fail(ctx, pay.PaymentID, "Payment failed at gateway ("+n.Type+")", update)
	}
	switch {
	case apperr.Is(err, apperr.KindInvalidTransition):
		return finish(gwmodel.GatewayEventIgnored, "payment already final"), nil
	case err != nil:
		a.dedupe.Release(ctx, key)
		finish(gwmodel.GatewayEventFailed, err.Error())
		return res, err
	case !changed:
		return finish(gwmodel.GatewayEventDuplicate, "payment already "+string(pay.PaymentStatus)), nil
	}
	return finish(gwmodel.GatewayEventProcessed, ""), nil
}

func (a *Adapter) verify(provider string, n *notification, body []byte) bool {
	switch provider {
	case ProviderPayMongo:
		if a.cfg.PayMongoWebhookSecret == "" {
			a.log.Warn("paymongo webhook secret not set, trusting payload")
			return true
		}
		return VerifyPayMongoSignature(n.Signature, body, a.cfg.PayMongoWebhookSecret, n.Live)
	case ProviderMidtrans:
		if a.cfg.MidtransServerKey == "" {
			a.log.Warn("midtrans server key not set, trusting payload")
			return true
		}
		return VerifyMidtransSignature(n.orderID, n.statusCode, n.grossAmount, n.Signature, a.cfg.MidtransServerKey)
	}
	return false
}

// logDelivery writes the raw delivery to payment_gateway_events. A logging
// failure never blocks reconciliation.
func (a *Adapter) logDelivery(ctx context.Context, provider string, req WebhookRequest) *gwmodel.PaymentGatewayEvent {
	headers, _ := sonic.Marshal(req.Headers)
	payload := req.Body
	if !sonic.Valid(payload) {
		payload, _ = sonic.Marshal(string(req.Body))
	}
	ev := &gwmodel.PaymentGatewayEvent{
		GatewayEventID:         uuid.New(),
		GatewayEventProvider:   provider,
		GatewayEventHeaders:    datatypes.JSON(headers),
		GatewayEventPayload:    datatypes.JSON(payload),
		GatewayEventStatus:     gwmodel.GatewayEventReceived,
		GatewayEventReceivedAt: a.now(),
	}
	if err := a.events.Create(ctx, ev); err != nil {
		a.log.Error("gateway event log failed", zap.String("provider", provider), zap.Error(err))
		return nil
	}
	return ev
}

func (a *Adapter) describeDelivery(ev *gwmodel.PaymentGatewayEvent, n *notification) {
	ev.GatewayEventType = strPtr(n.Type)
	ev.GatewayEventExternalID = strPtr(n.Reference)
	ev.GatewayEventExternalRef = strPtr(n.TxnID)
	ev.GatewayEventSignature = strPtr(n.Signature)
}

func (a *Adapter) recordOutcome(ctx context.Context, ev *gwmodel.PaymentGatewayEvent, status gwmodel.GatewayEventStatus, paymentID *uuid.UUID, reason string) {
	if ev == nil {
		return
	}
	err := a.events.RecordOutcome(ctx, ev.GatewayEventID, gwrepo.Outcome{
		Status:      status,
		PaymentID:   paymentID,
		Error:       strPtr(reason),
		At:          a.now(),
		Type:        ev.GatewayEventType,
		ExternalID:  ev.GatewayEventExternalID,
		ExternalRef: ev.GatewayEventExternalRef,
		Signature:   ev.GatewayEventSignature,
	})
	if err != nil {
		a.log.Error("gateway event outcome not recorded", zap.String("event_id", ev.GatewayEventID.String()), zap.Error(err))
	}
}

func (a *Adapter) Events(ctx context.Context, provider string, limit int) ([]gwmodel.PaymentGatewayEvent, error) {
	if provider != "" {
		p, ok := NormalizeProvider(provider)
		if !ok {
			return nil, apperr.Field("provider", "The selected provider is invalid.")
		}
		provider = p
	}
	return a.events.ListRecent(ctx, provider, limit)
}

func header(h map[string]string, name string) string {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
