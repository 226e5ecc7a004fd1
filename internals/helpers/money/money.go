// Package money holds the fixed-point helpers used for every amount in the
// billing domain. Amounts carry two decimal places and are compared after
// rounding to cents.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const Places = 2

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Equal compares two amounts at cent precision.
func Equal(a, b decimal.Decimal) bool {
	return a.Round(Places).Equal(b.Round(Places))
}

// ToMinor converts an amount to integer minor units (cents).
func ToMinor(d decimal.Decimal) int64 {
	return d.Round(Places).Shift(Places).IntPart()
}

func FromMinor(n int64) decimal.Decimal {
	return decimal.New(n, -Places)
}

func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(Places)
}

// Parse accepts "525", "525.5" or "525.50".
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Sum adds amounts; an empty list sums to zero.
func Sum(xs ...decimal.Decimal) decimal.Decimal {
	out := decimal.Zero
	for _, x := range xs {
		out = out.Add(x)
	}
	return out
}
