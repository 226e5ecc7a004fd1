package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []PaymentStatus{
		PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled,
	}
	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			switch {
			case from.IsTerminal():
				assert.False(t, got, "%s -> %s", from, to)
			case to == PaymentStatusPending:
				assert.False(t, got, "%s -> %s", from, to)
			default:
				assert.True(t, got, "%s -> %s", from, to)
			}
		}
	}
}

func TestRecordStatusMirrorsTerminalStates(t *testing.T) {
	assert.Equal(t, RecordStatusCompleted, RecordStatusFor(PaymentStatusCompleted))
	assert.Equal(t, RecordStatusFailed, RecordStatusFor(PaymentStatusFailed))
	assert.Equal(t, RecordStatusCancelled, RecordStatusFor(PaymentStatusCancelled))
	assert.Equal(t, RecordStatusPending, RecordStatusFor(PaymentStatusProcessing))
}

func TestValidGateway(t *testing.T) {
	assert.True(t, ValidGateway("gcash"))
	assert.True(t, ValidGateway("midtrans"))
	assert.False(t, ValidGateway("stripe"))
}
