package model

import (
	"time"

	"github.com/shopspring/decimal"

	"waterworks_backend/internals/helpers/money"
)

// OverduePenaltyRate is applied once to the base amount of an overdue bill.
var OverduePenaltyRate = decimal.NewFromFloat(0.10)

func ComputeConsumption(previous, present decimal.Decimal) decimal.Decimal {
	return money.Round2(present.Sub(previous))
}

func ComputeTotalPayable(amount, penalty decimal.Decimal) decimal.Decimal {
	return money.Round2(amount.Add(penalty))
}

// IsOverdue: still pending and the due date lies strictly before now.
// Due dates are stored at midnight, so a bill becomes overdue during its due day.
func IsOverdue(b *Bill, now time.Time) bool {
	return b.BillStatus == BillStatusPending && b.BillDueDate.Before(now)
}

// DaysOverdue counts whole days past the due date, 0 when not overdue.
func DaysOverdue(b *Bill, now time.Time) int {
	if !IsOverdue(b, now) {
		return 0
	}
	return int(now.Sub(b.BillDueDate).Hours() / 24)
}

func AutomaticPenalty(b *Bill, now time.Time) decimal.Decimal {
	if !IsOverdue(b, now) || !b.BillAmount.IsPositive() {
		return decimal.Zero
	}
	return money.Round2(b.BillAmount.Mul(OverduePenaltyRate))
}

// AutomaticTotalPayable ignores any stored penalty and restatement.
func AutomaticTotalPayable(b *Bill, now time.Time) decimal.Decimal {
	return money.Round2(b.BillAmount.Add(AutomaticPenalty(b, now)))
}

// EffectiveTotalPayable is the single figure a payment must match: the
// restated amount when a restatement exists, else the automatic total.
func EffectiveTotalPayable(b *Bill, now time.Time) decimal.Decimal {
	if b.BillRestatedAmount.Valid {
		return money.Round2(b.BillRestatedAmount.Decimal)
	}
	return AutomaticTotalPayable(b, now)
}
