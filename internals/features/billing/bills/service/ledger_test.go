package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmodel "waterworks_backend/internals/features/billing/authcodes/model"
	authsvc "waterworks_backend/internals/features/billing/authcodes/service"
	"waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/features/billing/memstore"
	"waterworks_backend/internals/helpers/apperr"
)

var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store  *memstore.Store
	ledger *Ledger
	clock  *time.Time
	user   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	clock := fixedNow
	guard := authsvc.NewGuard(store.AuthorizationCodes(), nil).WithClock(func() time.Time { return clock })
	f := &fixture{store: store, clock: &clock, user: uuid.New()}
	f.ledger = NewLedger(store.Bills(), guard, store, nil, nil, nil).WithClock(func() time.Time { return *f.clock })
	return f
}

func (f *fixture) fields(due time.Time) BillFields {
	return BillFields{
		UserID:          f.user,
		ReadingDate:     due.AddDate(0, 0, -15),
		DueDate:         due,
		PreviousReading: dec("100"),
		PresentReading:  dec("125"),
		Amount:          dec("525"),
		MeterReader:     "J. Dela Cruz",
	}
}

func (f *fixture) addCode(t *testing.T, code string, active bool, expires *time.Time, scopes ...string) {
	t.Helper()
	require.NoError(t, f.store.AuthorizationCodes().Create(context.Background(), &authmodel.AuthorizationCode{
		AuthorizationCode:          code,
		AuthorizationCodeIsActive:  active,
		AuthorizationCodeExpiresAt: expires,
		AuthorizationCodeScopes:    scopes,
		AuthorizationCodeCreatedBy: uuid.New(),
	}))
}

func TestCreateBillComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.ledger.CreateBill(ctx, f.fields(day(2026, 10, 20)))
	require.NoError(t, err)

	assert.Equal(t, model.BillStatusPending, b.BillStatus)
	assert.Equal(t, "25.00", b.BillConsumption.StringFixed(2))
	assert.Equal(t, "525.00", b.BillTotalPayable.StringFixed(2))
	assert.Regexp(t, `^BILL20261019[A-Z0-9]{6}$`, b.BillQRNumber)
	assert.Equal(t, "525.00", f.ledger.EffectiveTotalPayable(b).StringFixed(2))

	stored, err := f.ledger.Get(ctx, b.BillID)
	require.NoError(t, err)
	assert.Equal(t, b.BillQRNumber, stored.BillQRNumber)
}

func TestCreateBillWithPenalty(t *testing.T) {
	f := newFixture(t)
	in := f.fields(day(2026, 10, 20))
	p := dec("20")
	in.Penalty = &p

	b, err := f.ledger.CreateBill(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "545.00", b.BillTotalPayable.StringFixed(2))
}

func TestCreateBillValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		mut   func(*BillFields)
		field string
	}{
		{"due before reading", func(b *BillFields) { b.DueDate = b.ReadingDate }, "due_date"},
		{"present below previous", func(b *BillFields) { b.PresentReading = dec("99") }, "present_reading"},
		{"negative previous", func(b *BillFields) { b.PreviousReading = dec("-1"); b.PresentReading = dec("0") }, "previous_reading"},
		{"negative amount", func(b *BillFields) { b.Amount = dec("-0.01") }, "amount"},
		{"negative penalty", func(b *BillFields) { p := dec("-5"); b.Penalty = &p }, "penalty"},
		{"missing meter reader", func(b *BillFields) { b.MeterReader = "  " }, "meter_reader"},
		{"missing user", func(b *BillFields) { b.UserID = uuid.Nil }, "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.fields(day(2026, 10, 20))
			tt.mut(&in)
			_, err := f.ledger.CreateBill(context.Background(), in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))

			var ae *apperr.Error
			require.True(t, errors.As(err, &ae))
			assert.Contains(t, ae.Fields, tt.field)
		})
	}
}

func TestOverdueBillCarriesLivePenalty(t *testing.T) {
	f := newFixture(t)
	b, err := f.ledger.CreateBill(context.Background(), f.fields(day(2026, 10, 18)))
	require.NoError(t, err)

	assert.Equal(t, "525.00", b.BillTotalPayable.StringFixed(2), "stored total is not touched")
	v := f.ledger.View(b)
	assert.True(t, v.IsOverdue)
	assert.Equal(t, 1, v.DaysOverdue)
	assert.Equal(t, "52.50", v.AutomaticPenalty.StringFixed(2))
	assert.Equal(t, "577.50", v.EffectiveTotalPayable.StringFixed(2))
}

func TestRestateWithValidCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCode(t, "SUP-2026", true, nil)

	b, err := f.ledger.CreateBill(ctx, f.fields(day(2026, 10, 20)))
	require.NoError(t, err)

	restated, err := f.ledger.Restate(ctx, RestateBillCommand{
		BillID:         b.BillID,
		RestatedAmount: dec("400"),
		Reason:         "meter misread confirmed on site",
		Code:           "SUP-2026",
		RestatedBy:     uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, "400.00", restated.BillTotalPayable.StringFixed(2))
	assert.Equal(t, "SUP-2026", *restated.BillAuthorizationCode)

	*f.clock = day(2026, 11, 30)
	assert.Equal(t, "400.00", f.ledger.EffectiveTotalPayable(restated).StringFixed(2))

	// codes are reusable
	_, err = f.ledger.Restate(ctx, RestateBillCommand{
		BillID: b.BillID, RestatedAmount: dec("380"), Reason: "second review", Code: "SUP-2026",
	})
	require.NoError(t, err)
}

func TestRestateRejectsBadCodesWithoutMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := fixedNow.Add(-time.Hour)
	f.addCode(t, "OLD", true, &past)
	f.addCode(t, "OFF", false, nil)
	f.addCode(t, "OTHER-SCOPE", true, nil, "payment.refund")

	b, err := f.ledger.CreateBill(ctx, f.fields(day(2026, 10, 20)))
	require.NoError(t, err)

	for _, code := range []string{"NOPE", "OLD", "OFF", "OTHER-SCOPE"} {
		t.Run(code, func(t *testing.T) {
			_, err := f.ledger.Restate(ctx, RestateBillCommand{
				BillID: b.BillID, RestatedAmount: dec("1"), Reason: "x", Code: code,
			})
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindAuthorization))

			after, err := f.ledger.Get(ctx, b.BillID)
			require.NoError(t, err)
			assert.False(t, after.IsRestated())
			assert.Nil(t, after.BillAuthorizationCode)
			assert.Equal(t, "525.00", after.BillTotalPayable.StringFixed(2))
		})
	}
}

func TestRestateValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Restate(context.Background(), RestateBillCommand{
		BillID: uuid.New(), RestatedAmount: dec("-1"), Reason: "", Code: "",
	})
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "restated_amount")
	assert.Contains(t, ae.Fields, "restatement_reason")
	assert.Contains(t, ae.Fields, "authorization_code")
}

func TestRestateUnknownBill(t *testing.T) {
	f := newFixture(t)
	f.addCode(t, "SUP", true, nil)
	_, err := f.ledger.Restate(context.Background(), RestateBillCommand{
		BillID: uuid.New(), RestatedAmount: dec("1"), Reason: "x", Code: "SUP",
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.ledger.CreateBill(ctx, f.fields(day(2026, 10, 20)))
	require.NoError(t, err)

	changed, err := f.ledger.MarkPaid(ctx, b.BillID)
	require.NoError(t, err)
	assert.True(t, changed)

	first, _ := f.ledger.Get(ctx, b.BillID)
	require.NotNil(t, first.BillPaidAt)

	*f.clock = fixedNow.Add(time.Hour)
	changed, err = f.ledger.MarkPaid(ctx, b.BillID)
	require.NoError(t, err)
	assert.False(t, changed)

	second, _ := f.ledger.Get(ctx, b.BillID)
	assert.Equal(t, model.BillStatusPaid, second.BillStatus)
	assert.True(t, first.BillPaidAt.Equal(*second.BillPaidAt))

	_, err = f.ledger.MarkPaid(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateBillKeepsStatusAndRestatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCode(t, "SUP", true, nil)

	b, err := f.ledger.CreateBill(ctx, f.fields(day(2026, 10, 20)))
	require.NoError(t, err)
	_, err = f.ledger.Restate(ctx, RestateBillCommand{BillID: b.BillID, RestatedAmount: dec("400"), Reason: "x", Code: "SUP"})
	require.NoError(t, err)

	in := f.fields(day(2026, 10, 25))
	in.PresentReading = dec("140")
	in.Amount = dec("600")
	updated, err := f.ledger.UpdateBill(ctx, b.BillID, in)
	require.NoError(t, err)

	assert.Equal(t, "40.00", updated.BillConsumption.StringFixed(2))
	assert.Equal(t, "600.00", updated.BillAmount.StringFixed(2))
	assert.Equal(t, model.BillStatusPending, updated.BillStatus)
	assert.True(t, updated.IsRestated())
	assert.Equal(t, "400.00", updated.BillTotalPayable.StringFixed(2))

	_, err = f.ledger.UpdateBill(ctx, uuid.New(), in)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPendingForUserOrdersByDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	late, _ := f.ledger.CreateBill(ctx, f.fields(day(2026, 11, 20)))
	early, _ := f.ledger.CreateBill(ctx, f.fields(day(2026, 9, 20)))
	paid, _ := f.ledger.CreateBill(ctx, f.fields(day(2026, 8, 20)))
	_, err := f.ledger.MarkPaid(ctx, paid.BillID)
	require.NoError(t, err)

	other := f.fields(day(2026, 9, 1))
	other.UserID = uuid.New()
	_, _ = f.ledger.CreateBill(ctx, other)

	pending, err := f.ledger.PendingForUser(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, early.BillID, pending[0].BillID)
	assert.Equal(t, late.BillID, pending[1].BillID)
}
