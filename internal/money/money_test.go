package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"15", "15.00"},
		{"3.336333", "3.34"},
		{"4.4955", "4.50"},
		{"1.005", "1.01"},
		{"1.004999", "1.00"},
		{"2.675", "2.68"},
		{"-1.005", "-1.00"},
		{"-1.006", "-1.01"},
		{"1234567.891", "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round2(d(tt.in))
			assert.True(t, d(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestRound2_Idempotent(t *testing.T) {
	for _, v := range []string{"0.125", "99.995", "10.01", "33.333333", "0.005", "7"} {
		once := Round2(d(v))
		assert.True(t, once.Equal(Round2(once)), "round2 not idempotent for %s", v)
	}
}

func TestRound2Float(t *testing.T) {
	assert.Equal(t, 15.0, Round2Float(15))
	assert.Equal(t, 3.34, Round2Float(3.336333))
	assert.Equal(t, 0.0, Round2Float(math.NaN()))
	assert.Equal(t, 0.0, Round2Float(math.Inf(1)))
	assert.Equal(t, 0.0, Round2Float(math.Inf(-1)))
	assert.Equal(t, Round2Float(2.5), Round2Float(Round2Float(2.5)))
}

func TestPercentAndLine(t *testing.T) {
	assert.True(t, d("15").Equal(Percent(d("150"), d("10"))))
	assert.True(t, d("29.97").Equal(Line(d("9.99"), 3)))
	assert.True(t, decimal.Zero.Equal(FloorAtZero(d("-4"))))
	assert.True(t, d("4").Equal(FloorAtZero(d("4"))))
}
