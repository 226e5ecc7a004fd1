package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"waterworks_backend/internals/databases/txn"
	authmodel "waterworks_backend/internals/features/billing/authcodes/model"
	"waterworks_backend/internals/features/billing/bills/model"
	"waterworks_backend/internals/features/billing/bills/repository"
	"waterworks_backend/internals/features/billing/events"
	"waterworks_backend/internals/helpers/apperr"
	"waterworks_backend/internals/helpers/money"
	"waterworks_backend/internals/metrics"
)

type CodeValidator interface {
	ValidateFor(ctx context.Context, code, scope string) (bool, error)
}

// Ledger owns bills: creation, restatement, the paid transition and the
// live payable computation. Role checks happen in the caller.
type Ledger struct {
	bills   repository.BillRepository
	guard   CodeValidator
	tx      txn.Manager
	events  *events.Emitter
	metrics *metrics.BillingMetrics
	now     func() time.Time
	qr      func(time.Time) string
	log     *zap.Logger
}

func NewLedger(
	bills repository.BillRepository,
	guard CodeValidator,
	tx txn.Manager,
	emitter *events.Emitter,
	m *metrics.BillingMetrics,
	log *zap.Logger,
) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		bills:   bills,
		guard:   guard,
		tx:      tx,
		events:  emitter,
		metrics: m,
		now:     time.Now,
		qr:      NewBillQRNumber,
		log:     log.Named("ledger"),
	}
}

func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) Now() time.Time { return l.now() }

/* ============ live computations ============ */

func (l *Ledger) EffectiveTotalPayable(b *model.Bill) decimal.Decimal {
	return model.EffectiveTotalPayable(b, l.now())
}

func (l *Ledger) AutomaticPenalty(b *model.Bill) decimal.Decimal {
	return model.AutomaticPenalty(b, l.now())
}

// BillView is a bill plus the figures derived at read time.
type BillView struct {
	Bill                  *model.Bill
	IsOverdue             bool
	DaysOverdue           int
	AutomaticPenalty      decimal.Decimal
	AutomaticTotalPayable decimal.Decimal
	EffectiveTotalPayable decimal.Decimal
}

func (l *Ledger) View(b *model.Bill) BillView {
	now := l.now()
	return BillView{
		Bill:                  b,
		IsOverdue:             model.IsOverdue(b, now),
		DaysOverdue:           model.DaysOverdue(b, now),
		AutomaticPenalty:      model.AutomaticPenalty(b, now),
		AutomaticTotalPayable: model.AutomaticTotalPayable(b, now),
		EffectiveTotalPayable: model.EffectiveTotalPayable(b, now),
	}
}

func (l *Ledger) Views(bills []model.Bill) []BillView {
	out := make([]BillView, 0, len(bills))
	for i := range bills {
		out = append(out, l.View(&bills[i]))
	}
	return out
}

/* ============ commands ============ */

func (l *Ledger) CreateBill(ctx context.Context, f BillFields) (*model.Bill, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	now := l.now()
	b := &model.Bill{
		BillID:       uuid.New(),
		BillUserID:   f.UserID,
		BillStatus:   model.BillStatusPending,
		BillQRNumber: l.qr(now),
	}
	applyFields(b, f)

	if err := l.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	l.log.Info("bill created",
		zap.String("bill_id", b.BillID.String()),
		zap.String("user_id", b.BillUserID.String()),
		zap.String("total_payable", money.Format(b.BillTotalPayable)))
	return b, nil
}

// UpdateBill recomputes consumption and totals; status and restatement stay.
func (l *Ledger) UpdateBill(ctx context.Context, id uuid.UUID, f BillFields) (*model.Bill, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var out *model.Bill
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := l.bills.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		applyFields(b, f)
		if err := l.bills.Save(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyFields(b *model.Bill, f BillFields) {
	b.BillUserID = f.UserID
	b.BillWWSID = f.WWSID
	b.BillCustomerNameSnapshot = f.CustomerName
	if f.ServiceClass != nil {
		sc := strings.ToUpper(strings.TrimSpace(*f.ServiceClass))
		b.BillServiceClassSnapshot = &sc
	} else {
		b.BillServiceClassSnapshot = nil
	}
	b.BillReadingDate = f.ReadingDate
	b.BillDueDate = f.DueDate
	b.BillPreviousReading = money.Round2(f.PreviousReading)
	b.BillPresentReading = money.Round2(f.PresentReading)
	b.BillConsumption = model.ComputeConsumption(f.PreviousReading, f.PresentReading)
	b.BillAmount = money.Round2(f.Amount)
	b.BillPenalty = money.Round2(f.penalty())
	b.BillMeterReader = strings.TrimSpace(f.MeterReader)
	b.BillOnlineMeterUsed = f.OnlineMeterUsed
	if b.BillRestatedAmount.Valid {
		b.BillTotalPayable = money.Round2(b.BillRestatedAmount.Decimal)
	} else {
		b.BillTotalPayable = model.ComputeTotalPayable(b.BillAmount, b.BillPenalty)
	}
}

// Restate validates the authorization code before touching the bill, so a
// rejected code leaves the bill unchanged.
func (l *Ledger) Restate(ctx context.Context, cmd RestateBillCommand) (*model.Bill, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	ok, err := l.guard.ValidateFor(ctx, strings.TrimSpace(cmd.Code), authmodel.ScopeBillRestate)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.metrics.Restatement("rejected")
		l.log.Warn("restatement rejected",
			zap.String("bill_id", cmd.BillID.String()),
			zap.String("restated_by", cmd.RestatedBy.String()))
		return nil, apperr.Authorization("Invalid or expired authorization code")
	}

	var out *model.Bill
	err = l.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := l.bills.FindByIDForUpdate(ctx, cmd.BillID)
		if err != nil {
			return err
		}
		now := l.now()
		amount := money.Round2(cmd.RestatedAmount)
		reason := strings.TrimSpace(cmd.Reason)
		code := strings.TrimSpace(cmd.Code)

		b.BillRestatedAmount = decimal.NewNullDecimal(amount)
		b.BillRestatementReason = &reason
		b.BillAuthorizationCode = &code
		b.BillRestatedAt = &now
		b.BillTotalPayable = amount
		if err := l.bills.Save(ctx, b); err != nil {
			return err
		}

		l.events.Emit(ctx, events.TopicBillRestated, events.BillRestated{
			BillID:         b.BillID.String(),
			RestatedAmount: money.Format(amount),
			Reason:         reason,
			RestatedBy:     cmd.RestatedBy.String(),
			RestatedAt:     now,
		})
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.metrics.Restatement("applied")
	l.log.Info("bill restated",
		zap.String("bill_id", out.BillID.String()),
		zap.String("restated_amount", money.Format(out.BillTotalPayable)),
		zap.String("restated_by", cmd.RestatedBy.String()))
	return out, nil
}

// MarkPaid flips the bill to paid. Already paid is a no-op success; the
// returned bool reports whether this call changed it. Joins the caller's
// transaction when there is one.
func (l *Ledger) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	now := l.now()
	changed, err := l.bills.MarkPaid(ctx, id, now)
	if err != nil {
		return false, err
	}
	if changed {
		b, err := l.bills.FindByID(ctx, id)
		if err != nil {
			return false, err
		}
		l.events.Emit(ctx, events.TopicBillPaid, events.BillPaid{
			BillID: id.String(),
			UserID: b.BillUserID.String(),
			PaidAt: now,
		})
	}
	return changed, nil
}

// Settle is the staff "mark as paid" action.
func (l *Ledger) Settle(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var out *model.Bill
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := l.MarkPaid(ctx, id); err != nil {
			return err
		}
		b, err := l.bills.FindByID(ctx, id)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) Delete(ctx context.Context, id uuid.UUID) error {
	return l.bills.Delete(ctx, id)
}

/* ============ queries ============ */

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	return l.bills.FindByID(ctx, id)
}

func (l *Ledger) GetForUser(ctx context.Context, userID, id uuid.UUID) (*model.Bill, error) {
	return l.bills.FindForUser(ctx, userID, id)
}

func (l *Ledger) List(ctx context.Context, f repository.ListFilter) ([]model.Bill, int64, error) {
	return l.bills.List(ctx, f)
}

// PendingForUser lists the user's pending bills, oldest due first.
func (l *Ledger) PendingForUser(ctx context.Context, userID uuid.UUID) ([]model.Bill, error) {
	out, _, err := l.bills.List(ctx, repository.ListFilter{
		UserID:       &userID,
		Statuses:     []model.BillStatus{model.BillStatusPending},
		DueAscending: true,
	})
	return out, err
}
