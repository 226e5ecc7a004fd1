// Package events publishes billing domain events to the message bus once
// the surrounding transaction has committed.
package events

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"waterworks_backend/internals/databases/txn"
	"waterworks_backend/internals/mq"
)

const (
	TopicPaymentCompleted = "billing.payment.completed"
	TopicPaymentFailed    = "billing.payment.failed"
	TopicBillPaid         = "billing.bill.paid"
	TopicBillRestated     = "billing.bill.restated"
)

type PaymentCompleted struct {
	PaymentID   string    `json:"payment_id"`
	BillID      string    `json:"bill_id"`
	UserID      string    `json:"user_id"`
	Amount      string    `json:"amount"`
	Method      string    `json:"payment_method"`
	Gateway     string    `json:"payment_gateway"`
	Reference   string    `json:"gateway_reference,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

type PaymentFailed struct {
	PaymentID string `json:"payment_id"`
	BillID    string `json:"bill_id"`
	Status    string `json:"payment_status"`
	Reason    string `json:"failure_reason"`
}

type BillPaid struct {
	BillID    string    `json:"bill_id"`
	UserID    string    `json:"user_id"`
	PaymentID string    `json:"payment_id,omitempty"`
	PaidAt    time.Time `json:"paid_at"`
}

type BillRestated struct {
	BillID         string    `json:"bill_id"`
	RestatedAmount string    `json:"restated_amount"`
	Reason         string    `json:"reason"`
	RestatedBy     string    `json:"restated_by,omitempty"`
	RestatedAt     time.Time `json:"restated_at"`
}

type Emitter struct {
	pub     mq.Publisher
	log     *zap.Logger
	timeout time.Duration
}

func NewEmitter(pub mq.Publisher, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{pub: pub, log: log.Named("events"), timeout: 5 * time.Second}
}

// Emit queues payload for topic. Delivery is best effort: failures are logged.
func (e *Emitter) Emit(ctx context.Context, topic string, payload any) {
	if e == nil || e.pub == nil {
		return
	}
	txn.AfterCommit(ctx, func() {
		body, err := sonic.Marshal(payload)
		if err != nil {
			e.log.Error("marshal event", zap.String("topic", topic), zap.Error(err))
			return
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		if err := e.pub.Publish(pctx, topic, body); err != nil {
			e.log.Warn("publish event", zap.String("topic", topic), zap.Error(err))
		}
	})
}
