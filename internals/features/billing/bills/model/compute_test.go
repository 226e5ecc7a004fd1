package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bill(amount string, due time.Time, status BillStatus) *Bill {
	return &Bill{
		BillAmount:       dec(amount),
		BillTotalPayable: dec(amount),
		BillDueDate:      due,
		BillStatus:       status,
	}
}

func TestComputeConsumptionAndTotal(t *testing.T) {
	assert.Equal(t, "25.00", ComputeConsumption(dec("100"), dec("125")).StringFixed(2))
	assert.Equal(t, "525.00", ComputeTotalPayable(dec("525"), decimal.Zero).StringFixed(2))
	assert.Equal(t, "550.25", ComputeTotalPayable(dec("525"), dec("25.25")).StringFixed(2))
}

func TestAutomaticPenalty(t *testing.T) {
	tests := []struct {
		name    string
		bill    *Bill
		penalty string
		total   string
		overdue bool
	}{
		{"due tomorrow", bill("525", day(2026, 10, 20), BillStatusPending), "0", "525.00", false},
		{"due yesterday", bill("525", day(2026, 10, 18), BillStatusPending), "52.50", "577.50", true},
		{"due today after midnight", bill("525", day(2026, 10, 19), BillStatusPending), "52.50", "577.50", true},
		{"paid and past due", bill("525", day(2026, 9, 1), BillStatusPaid), "0", "525.00", false},
		{"stored overdue status", bill("525", day(2026, 9, 1), BillStatusOverdue), "0", "525.00", false},
		{"zero amount", bill("0", day(2026, 9, 1), BillStatusPending), "0", "0.00", true},
		{"rounds half up", bill("100.05", day(2026, 9, 1), BillStatusPending), "10.01", "110.06", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overdue, IsOverdue(tt.bill, now))
			assert.True(t, dec(tt.penalty).Equal(AutomaticPenalty(tt.bill, now)), "penalty %s", AutomaticPenalty(tt.bill, now))
			assert.Equal(t, tt.total, EffectiveTotalPayable(tt.bill, now).StringFixed(2))
		})
	}
}

func TestEffectiveTotalIgnoresStoredPenaltyAndTotal(t *testing.T) {
	b := bill("525", day(2026, 10, 18), BillStatusPending)
	b.BillPenalty = dec("99")
	b.BillTotalPayable = dec("624")
	assert.Equal(t, "577.50", EffectiveTotalPayable(b, now).StringFixed(2))
}

func TestRestatedAmountWinsEvenWhenOverdue(t *testing.T) {
	b := bill("525", day(2026, 10, 1), BillStatusPending)
	b.BillRestatedAmount = decimal.NewNullDecimal(dec("400"))
	assert.True(t, IsOverdue(b, now))
	assert.Equal(t, "400.00", EffectiveTotalPayable(b, now).StringFixed(2))

	b.BillRestatedAmount = decimal.NewNullDecimal(decimal.Zero)
	assert.Equal(t, "0.00", EffectiveTotalPayable(b, now).StringFixed(2))
}

func TestDaysOverdue(t *testing.T) {
	assert.Equal(t, 0, DaysOverdue(bill("10", day(2026, 10, 20), BillStatusPending), now))
	assert.Equal(t, 1, DaysOverdue(bill("10", day(2026, 10, 18), BillStatusPending), now))
	assert.Equal(t, 18, DaysOverdue(bill("10", day(2026, 10, 1), BillStatusPending), now))
}

func TestServiceClassDefaults(t *testing.T) {
	b := &Bill{}
	assert.Equal(t, "RESIDENTIAL", b.ServiceClass())
	assert.Equal(t, "Unknown Customer", b.CustomerName())
}
