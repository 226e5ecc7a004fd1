package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	ServiceName string
	Environment string
}

type BillingMetrics struct {
	paymentsInitiated   *prometheus.CounterVec
	paymentTransitions  *prometheus.CounterVec
	gatewayCalls        *prometheus.HistogramVec
	webhooks            *prometheus.CounterVec
	restatements        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

// BillingWithConfig registers the collectors on the default registerer once.
func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = NewBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

func NewBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "waterworks"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "env": environment}

	m := &BillingMetrics{
		paymentsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "waterworks_payments_initiated_total",
			Help:        "Payment attempts created, by method and gateway.",
			ConstLabels: constLabels,
		}, []string{"method", "gateway"}),
		paymentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "waterworks_payment_transitions_total",
			Help:        "Payment status transitions, by target status and source (staff|gateway|poller).",
			ConstLabels: constLabels,
		}, []string{"status", "source"}),
		gatewayCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "waterworks_gateway_call_seconds",
			Help:        "Latency of outbound payment gateway calls.",
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
			ConstLabels: constLabels,
		}, []string{"gateway", "operation", "result"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "waterworks_gateway_webhooks_total",
			Help:        "Inbound gateway webhooks, by outcome (processed|ignored|duplicate|rejected|failed).",
			ConstLabels: constLabels,
		}, []string{"gateway", "outcome"}),
		restatements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "waterworks_bill_restatements_total",
			Help:        "Bill restatement attempts, by result (applied|rejected).",
			ConstLabels: constLabels,
		}, []string{"result"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "waterworks_http_request_duration_seconds",
			Help:        "HTTP request latency by route and status class.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
	}

	registerer.MustRegister(
		m.paymentsInitiated,
		m.paymentTransitions,
		m.gatewayCalls,
		m.webhooks,
		m.restatements,
		m.httpRequestDuration,
	)
	return m
}

// All recorders are no-ops on a nil receiver.

func (m *BillingMetrics) PaymentInitiated(method, gateway string) {
	if m == nil {
		return
	}
	m.paymentsInitiated.WithLabelValues(method, gateway).Inc()
}

func (m *BillingMetrics) PaymentTransition(status, source string) {
	if m == nil {
		return
	}
	m.paymentTransitions.WithLabelValues(status, source).Inc()
}

func (m *BillingMetrics) GatewayCall(gateway, operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.gatewayCalls.WithLabelValues(gateway, operation, result).Observe(d.Seconds())
}

func (m *BillingMetrics) Webhook(gateway, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(gateway, outcome).Inc()
}

func (m *BillingMetrics) Restatement(result string) {
	if m == nil {
		return
	}
	m.restatements.WithLabelValues(result).Inc()
}

func (m *BillingMetrics) HTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
