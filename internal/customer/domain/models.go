// Package domain contains the customer aggregate. Debt is mutated only
// through AddDebt and PayDebt so the credit invariants hold everywhere.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/billwise/billwise/internal/entity"
)

// CustomerType distinguishes individuals from corporate customers.
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "INDIVIDUAL"
	CustomerTypeCorporate  CustomerType = "CORPORATE"
)

type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`
	Name      string       `gorm:"not null" json:"name"`

	TaxNumber      string `gorm:"type:text" json:"tax_number,omitempty"`
	IdentityNumber string `gorm:"type:text" json:"identity_number,omitempty"`

	Address string `gorm:"type:text" json:"address,omitempty"`
	Phone   string `gorm:"type:text" json:"phone,omitempty"`
	Email   string `gorm:"type:text" json:"email,omitempty"`

	Type CustomerType `gorm:"type:text;not null;default:'INDIVIDUAL'" json:"type"`

	CreditLimit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit_limit"`
	CurrentDebt decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"current_debt"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`
	IsVip    bool `gorm:"not null;default:false" json:"is_vip"`

	entity.Meta
}

func (Customer) TableName() string { return "customers" }

// AvailableCredit is the remaining credit headroom.
func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.CurrentDebt)
}

func (c *Customer) IsOverCreditLimit() bool {
	return c.CurrentDebt.GreaterThan(c.CreditLimit)
}

func (c *Customer) HasDebt() bool {
	return c.CurrentDebt.GreaterThan(decimal.Zero)
}

// AddDebt increases the debt. Non-positive amounts are ignored.
func (c *Customer) AddDebt(amount decimal.Decimal, now time.Time) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	c.CurrentDebt = c.CurrentDebt.Add(amount)
	entity.Touch(&c.Meta, now)
}

// PayDebt reduces the debt. The amount must be positive and must not
// exceed the current debt.
func (c *Customer) PayDebt(amount decimal.Decimal, now time.Time) {
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(c.CurrentDebt) {
		return
	}
	c.CurrentDebt = c.CurrentDebt.Sub(amount)
	entity.Touch(&c.Meta, now)
}

// CanUseCredit reports whether amount more debt fits under the limit.
func (c *Customer) CanUseCredit(amount decimal.Decimal) bool {
	return c.IsActive && !c.IsDeleted &&
		c.CurrentDebt.Add(amount).LessThanOrEqual(c.CreditLimit)
}

// CanBeInvoiced reports whether invoices may be issued to the customer.
func (c *Customer) CanBeInvoiced() bool {
	return c.IsActive && !c.IsDeleted
}

func (c *Customer) Activate(now time.Time)   { c.IsActive = true; entity.Touch(&c.Meta, now) }
func (c *Customer) Deactivate(now time.Time) { c.IsActive = false; entity.Touch(&c.Meta, now) }

func (c *Customer) MarkAsVip(now time.Time)       { c.IsVip = true; entity.Touch(&c.Meta, now) }
func (c *Customer) RemoveVipStatus(now time.Time) { c.IsVip = false; entity.Touch(&c.Meta, now) }

func (c *Customer) UpdateCreditLimit(limit decimal.Decimal, now time.Time) {
	c.CreditLimit = limit
	entity.Touch(&c.Meta, now)
}

func (c *Customer) UpdateContactInfo(phone, email, address string, now time.Time) {
	c.Phone = phone
	c.Email = email
	c.Address = address
	entity.Touch(&c.Meta, now)
}
