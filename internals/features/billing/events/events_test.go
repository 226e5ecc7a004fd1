package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterworks_backend/internals/databases/txn"
	"waterworks_backend/internals/mq/mocks"
)

func TestEmitWaitsForCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mocks.NewMockPublisher(ctrl)
	em := NewEmitter(pub, nil)

	paidAt := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	ctx, hooks := txn.Begin(context.Background())
	em.Emit(ctx, TopicBillPaid, BillPaid{BillID: "b-1", PaidAt: paidAt})

	pub.EXPECT().
		Publish(gomock.Any(), TopicBillPaid, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, body []byte) error {
			assert.Contains(t, string(body), `"bill_id":"b-1"`)
			var got BillPaid
			require.NoError(t, sonic.Unmarshal(body, &got))
			assert.True(t, paidAt.Equal(got.PaidAt))
			return nil
		})
	hooks.Run()
}

func TestEmitOutsideTxPublishesNow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), TopicPaymentCompleted, gomock.Any()).Return(errors.New("broker down"))

	NewEmitter(pub, nil).Emit(context.Background(), TopicPaymentCompleted, PaymentCompleted{PaymentID: "p-1"})
}

func TestNilEmitterIsSafe(t *testing.T) {
	var em *Emitter
	assert.NotPanics(t, func() { em.Emit(context.Background(), TopicBillPaid, BillPaid{}) })
}
