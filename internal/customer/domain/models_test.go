package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCanUseCredit(t *testing.T) {
	customer := &Customer{
		Name:        "Acme Corp",
		CreditLimit: dec("1000"),
		CurrentDebt: dec("950"),
		IsActive:    true,
	}

	assert.False(t, customer.CanUseCredit(dec("60")))
	assert.True(t, customer.CanUseCredit(dec("50")))

	customer.IsActive = false
	assert.False(t, customer.CanUseCredit(dec("50")))

	customer.IsActive = true
	customer.IsDeleted = true
	assert.False(t, customer.CanUseCredit(dec("50")))
}

func TestAvailableCredit(t *testing.T) {
	customer := &Customer{CreditLimit: dec("1000"), CurrentDebt: dec("950")}
	assert.True(t, customer.AvailableCredit().Equal(dec("50")))
}

func TestAddDebtIgnoresNonPositive(t *testing.T) {
	customer := &Customer{CurrentDebt: dec("100")}

	customer.AddDebt(dec("-10"), testNow)
	assert.True(t, customer.CurrentDebt.Equal(dec("100")))

	customer.AddDebt(dec("0"), testNow)
	assert.True(t, customer.CurrentDebt.Equal(dec("100")))

	customer.AddDebt(dec("25"), testNow)
	assert.True(t, customer.CurrentDebt.Equal(dec("125")))
}

func TestPayDebtIgnoresOverpayment(t *testing.T) {
	customer := &Customer{CurrentDebt: dec("100")}

	customer.PayDebt(dec("150"), testNow)
	assert.True(t, customer.CurrentDebt.Equal(dec("100")))

	customer.PayDebt(dec("40"), testNow)
	assert.True(t, customer.CurrentDebt.Equal(dec("60")))
}

func TestCanBeInvoiced(t *testing.T) {
	customer := &Customer{IsActive: true}
	assert.True(t, customer.CanBeInvoiced())

	customer.Deactivate(testNow)
	assert.False(t, customer.CanBeInvoiced())
}

func TestIsOverCreditLimit(t *testing.T) {
	customer := &Customer{CreditLimit: dec("100"), CurrentDebt: dec("100")}
	assert.False(t, customer.IsOverCreditLimit())

	customer.CurrentDebt = dec("100.01")
	assert.True(t, customer.IsOverCreditLimit())
}
