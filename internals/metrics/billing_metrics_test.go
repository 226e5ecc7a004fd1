package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBillingMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBillingMetrics(reg, Config{ServiceName: "test", Environment: "ci"})

	m.PaymentInitiated("online", "paymongo")
	m.PaymentInitiated("online", "paymongo")
	m.Webhook("paymongo", "duplicate")
	m.GatewayCall("paymongo", "create_intent", errors.New("timeout"), 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.paymentsInitiated.WithLabelValues("online", "paymongo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("paymongo", "duplicate")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.gatewayCalls))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *BillingMetrics
	assert.NotPanics(t, func() {
		m.PaymentInitiated("online", "demo")
		m.PaymentTransition("completed", "staff")
		m.GatewayCall("demo", "retrieve", nil, time.Millisecond)
		m.Webhook("demo", "ignored")
		m.Restatement("applied")
		m.HTTPRequest("GET", "/health", "2xx", time.Millisecond)
	})
}
