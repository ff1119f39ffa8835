package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEqualWithinEpsilon(t *testing.T) {
	a := decimal.NewFromFloat(100.004)
	b := decimal.NewFromFloat(100.00)
	assert.True(t, Equal(a, b))

	c := decimal.NewFromFloat(100.02)
	assert.False(t, Equal(c, b))

	// Exactly one cent apart is not equal.
	d := decimal.NewFromFloat(100.01)
	assert.False(t, Equal(d, b))
}

func TestPercent(t *testing.T) {
	base := decimal.NewFromInt(270)
	rate := decimal.NewFromInt(20)
	assert.True(t, Percent(base, rate).Equal(decimal.NewFromInt(54)))
}

func TestRateOf(t *testing.T) {
	part := decimal.NewFromInt(30)
	whole := decimal.NewFromInt(300)
	assert.True(t, RateOf(part, whole).Equal(decimal.NewFromInt(10)))

	assert.True(t, RateOf(part, decimal.Zero).IsZero())
}

func TestDivOrZero(t *testing.T) {
	assert.True(t, DivOrZero(decimal.NewFromInt(270), decimal.NewFromInt(3)).Equal(decimal.NewFromInt(90)))
	assert.True(t, DivOrZero(decimal.NewFromInt(270), decimal.Zero).IsZero())
}
