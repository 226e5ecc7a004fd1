package service_test

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"waterworks_backend/internals/features/billing/gateway/service"
)

func TestVerifyPayMongoSignature(t *testing.T) {
	body := []byte(`{"data":{"id":"evt_1"}}`)
	good := payMongoSignature(body, "secret")

	assert.True(t, service.VerifyPayMongoSignature(good, body, "secret", false))
	assert.False(t, service.VerifyPayMongoSignature(good, body, "secret", true), "live events are signed in li")
	assert.False(t, service.VerifyPayMongoSignature(good, []byte(`{"data":{"id":"evt_2"}}`), "secret", false))
	assert.False(t, service.VerifyPayMongoSignature("", body, "secret", false))
	assert.False(t, service.VerifyPayMongoSignature("t=1,te=", body, "secret", false))
}

func TestVerifyMidtransSignature(t *testing.T) {
	sum := sha512.Sum512([]byte("ORDER-1" + "200" + "10000.00" + "key"))
	sig := hex.EncodeToString(sum[:])

	assert.True(t, service.VerifyMidtransSignature("ORDER-1", "200", "10000.00", sig, "key"))
	assert.False(t, service.VerifyMidtransSignature("ORDER-1", "200", "10001.00", sig, "key"))
	assert.False(t, service.VerifyMidtransSignature("ORDER-1", "200", "10000.00", "", "key"))
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status, fraud string
		want          service.Outcome
	}{
		{"capture", "accept", service.OutcomeSucceeded},
		{"capture", "challenge", service.OutcomePending},
		{"capture", "deny", service.OutcomeFailed},
		{"settlement", "", service.OutcomeSucceeded},
		{"pending", "", service.OutcomePending},
		{"expire", "", service.OutcomeFailed},
		{"cancel", "", service.OutcomeFailed},
		{"refund", "", service.OutcomePending},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, service.MapMidtransStatus(c.status, c.fraud), c.status+"/"+c.fraud)
	}

	assert.Equal(t, service.OutcomeSucceeded, service.MapPayMongoStatus("succeeded"))
	assert.Equal(t, service.OutcomeSucceeded, service.MapPayMongoStatus("paid"))
	assert.Equal(t, service.OutcomeFailed, service.MapPayMongoStatus("canceled"))
	assert.Equal(t, service.OutcomePending, service.MapPayMongoStatus("awaiting_next_action"))
}

func TestNormalizeProvider(t *testing.T) {
	p, ok := service.NormalizeProvider("GCash")
	assert.True(t, ok)
	assert.Equal(t, service.ProviderPayMongo, p)
	_, ok = service.NormalizeProvider("stripe")
	assert.False(t, ok)
}
