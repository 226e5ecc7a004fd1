package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"52.505", "52.51"},
		{"52.504", "52.50"},
		{"0.005", "0.01"},
		{"525", "525.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(Round2(decimal.RequireFromString(tt.in))))
		})
	}
}

func TestEqualAtCentPrecision(t *testing.T) {
	assert.True(t, Equal(decimal.RequireFromString("577.5"), decimal.RequireFromString("577.50")))
	assert.True(t, Equal(decimal.RequireFromString("577.501"), decimal.RequireFromString("577.50")))
	assert.False(t, Equal(decimal.RequireFromString("525.00"), decimal.RequireFromString("577.50")))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(57750), ToMinor(decimal.RequireFromString("577.50")))
	assert.Equal(t, "577.50", Format(FromMinor(57750)))
	assert.Equal(t, int64(1), ToMinor(decimal.RequireFromString("0.005")))
}

func TestParse(t *testing.T) {
	d, err := Parse(" 525.5 ")
	require.NoError(t, err)
	assert.Equal(t, "525.50", Format(d))

	_, err = Parse("")
	assert.Error(t, err)

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.Equal(t, "10.75", Format(Sum(FromFloat(5.25), FromFloat(5.5))))
}
