package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/billwise/billwise/internal/entity"
	"github.com/billwise/billwise/pkg/money"
)

// InvoiceItem is one line of an invoice. Product name, code, description
// and unit are snapshotted at the moment the line is added so later
// product edits never rewrite a historical invoice. Subtotal, tax and
// line total are always derived from the stored inputs, never stored
// stale.
type InvoiceItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	ProductID snowflake.ID `gorm:"not null;index" json:"product_id"`

	ProductName        string `gorm:"not null" json:"product_name"`
	ProductCode        string `gorm:"type:text" json:"product_code,omitempty"`
	ProductDescription string `gorm:"type:text" json:"product_description,omitempty"`

	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Unit           string          `gorm:"type:text;not null;default:'pcs'" json:"unit"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	DiscountRate   decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"discount_rate"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(9,4);not null;default:20" json:"tax_rate"`

	entity.Meta
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// Subtotal is quantity × unit price, before discount and tax.
func (i *InvoiceItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// AmountAfterDiscount is the subtotal minus the discount amount.
func (i *InvoiceItem) AmountAfterDiscount() decimal.Decimal {
	return i.Subtotal().Sub(i.DiscountAmount)
}

// TaxAmount applies the tax rate to the discounted amount.
func (i *InvoiceItem) TaxAmount() decimal.Decimal {
	return money.Percent(i.AmountAfterDiscount(), i.TaxRate)
}

// TotalAmount is the line total, tax included.
func (i *InvoiceItem) TotalAmount() decimal.Decimal {
	return i.AmountAfterDiscount().Add(i.TaxAmount())
}

// EffectiveUnitPrice is the per-unit price after discount, zero when the
// quantity is zero.
func (i *InvoiceItem) EffectiveUnitPrice() decimal.Decimal {
	return money.DivOrZero(i.AmountAfterDiscount(), i.Quantity)
}

func (i *InvoiceItem) HasDiscount() bool {
	return i.DiscountAmount.GreaterThan(decimal.Zero) || i.DiscountRate.GreaterThan(decimal.Zero)
}

func (i *InvoiceItem) HasTax() bool {
	return i.TaxRate.GreaterThan(decimal.Zero)
}

// The update operations below silently leave the item unchanged on
// out-of-range input; caller-facing errors are the guard layer's job.

// UpdateQuantity rejects non-positive quantities.
func (i *InvoiceItem) UpdateQuantity(quantity decimal.Decimal, now time.Time) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return
	}
	i.Quantity = quantity
	i.recalculateDiscountAmount()
	entity.Touch(&i.Meta, now)
}

// UpdateUnitPrice rejects negative prices.
func (i *InvoiceItem) UpdateUnitPrice(price decimal.Decimal, now time.Time) {
	if price.IsNegative() {
		return
	}
	i.UnitPrice = price
	i.recalculateDiscountAmount()
	entity.Touch(&i.Meta, now)
}

// UpdateDiscountRate rejects rates outside [0, 100].
func (i *InvoiceItem) UpdateDiscountRate(rate decimal.Decimal, now time.Time) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return
	}
	i.DiscountRate = rate
	i.recalculateDiscountAmount()
	entity.Touch(&i.Meta, now)
}

// UpdateDiscountAmount rejects negative amounts and amounts exceeding
// the subtotal, then back-derives the rate.
func (i *InvoiceItem) UpdateDiscountAmount(amount decimal.Decimal, now time.Time) {
	if amount.IsNegative() || amount.GreaterThan(i.Subtotal()) {
		return
	}
	i.DiscountAmount = amount
	i.DiscountRate = money.RateOf(amount, i.Subtotal())
	entity.Touch(&i.Meta, now)
}

// UpdateTaxRate rejects negative rates.
func (i *InvoiceItem) UpdateTaxRate(rate decimal.Decimal, now time.Time) {
	if rate.IsNegative() {
		return
	}
	i.TaxRate = rate
	entity.Touch(&i.Meta, now)
}

func (i *InvoiceItem) recalculateDiscountAmount() {
	i.DiscountAmount = money.Percent(i.Subtotal(), i.DiscountRate)
}

// Valid reports whether the line satisfies the item invariants.
func (i *InvoiceItem) Valid() bool {
	return i.Quantity.GreaterThan(decimal.Zero) &&
		!i.UnitPrice.IsNegative() &&
		!i.DiscountAmount.IsNegative() &&
		i.DiscountAmount.LessThanOrEqual(i.Subtotal()) &&
		!i.TaxRate.IsNegative() &&
		i.ProductName != ""
}
