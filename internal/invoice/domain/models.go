// Package domain contains the invoice aggregate: line items, derived
// totals and the lifecycle state machine.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	customerdomain "github.com/billwise/billwise/internal/customer/domain"
	"github.com/billwise/billwise/internal/entity"
	productdomain "github.com/billwise/billwise/internal/product/domain"
	"github.com/billwise/billwise/pkg/money"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// PaymentMethod is how an invoice was settled.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCheck    PaymentMethod = "CHECK"
)

// Invoice is the central aggregate. Customer contact fields are
// snapshotted at creation; totals are derived from the items and only
// ever written by RecalculateTotals.
type Invoice struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID  snowflake.ID `gorm:"not null;index" json:"company_id"`
	CustomerID snowflake.ID `gorm:"not null;index" json:"customer_id"`

	// InvoiceNumber is assigned once, at issuance, from the invoice
	// date and a system-wide sequence. Unique once set.
	InvoiceNumber string `gorm:"type:text;uniqueIndex:ux_invoices_number,where:invoice_number <> ''" json:"invoice_number"`
	InvoiceSeq    int64  `gorm:"not null;default:0;uniqueIndex:ux_invoices_seq,where:invoice_seq > 0" json:"-"`

	InvoiceDate time.Time     `gorm:"not null" json:"invoice_date"`
	DueDate     time.Time     `gorm:"not null" json:"due_date"`
	Status      InvoiceStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Description string        `gorm:"type:text" json:"description,omitempty"`

	CustomerName      string `gorm:"not null" json:"customer_name"`
	CustomerAddress   string `gorm:"type:text" json:"customer_address,omitempty"`
	CustomerPhone     string `gorm:"type:text" json:"customer_phone,omitempty"`
	CustomerEmail     string `gorm:"type:text" json:"customer_email,omitempty"`
	CustomerTaxNumber string `gorm:"type:text" json:"customer_tax_number,omitempty"`

	SubTotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	TotalDiscount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_discount"`
	TotalTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_tax"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"grand_total"`

	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	PaymentMethod *PaymentMethod  `gorm:"type:text" json:"payment_method,omitempty"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty"`

	SentBy string     `gorm:"type:text" json:"sent_by,omitempty"`
	SentAt *time.Time `json:"sent_at,omitempty"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`

	entity.Meta
}

func (Invoice) TableName() string { return "invoices" }

// RemainingAmount is what is still owed.
func (inv *Invoice) RemainingAmount() decimal.Decimal {
	return inv.GrandTotal.Sub(inv.PaidAmount)
}

// IsFullyPaid compares the remaining amount against the money epsilon.
func (inv *Invoice) IsFullyPaid() bool {
	return money.IsZero(inv.RemainingAmount())
}

func (inv *Invoice) IsPartiallyPaid() bool {
	return inv.PaidAmount.GreaterThan(decimal.Zero) && !inv.IsFullyPaid()
}

// IsOverdue reports whether the due date has passed without full payment.
func (inv *Invoice) IsOverdue(today time.Time) bool {
	return today.After(inv.DueDate) && !inv.IsFullyPaid()
}

// CanBeEdited allows item mutation only on live drafts.
func (inv *Invoice) CanBeEdited() bool {
	return inv.Status == InvoiceStatusDraft && !inv.IsDeleted
}

// CanBeSent requires a live draft with at least one line.
func (inv *Invoice) CanBeSent() bool {
	return inv.Status == InvoiceStatusDraft && len(inv.Items) > 0 && !inv.IsDeleted
}

// CanBeCancelled excludes the terminal states.
func (inv *Invoice) CanBeCancelled() bool {
	return inv.Status != InvoiceStatusPaid &&
		inv.Status != InvoiceStatusCancelled &&
		!inv.IsDeleted
}

// AssignNumber formats and stores the invoice number from the invoice
// date's year and the issuing sequence: INV-<year>-<6-digit sequence>.
func (inv *Invoice) AssignNumber(seq int64, now time.Time) {
	inv.InvoiceSeq = seq
	inv.InvoiceNumber = fmt.Sprintf("INV-%d-%06d", inv.InvoiceDate.Year(), seq)
	entity.Touch(&inv.Meta, now)
}

// SnapshotCustomer copies the customer contact fields onto the invoice
// so later customer edits never alter this record.
func (inv *Invoice) SnapshotCustomer(c *customerdomain.Customer, now time.Time) {
	inv.CustomerName = c.Name
	inv.CustomerAddress = c.Address
	inv.CustomerPhone = c.Phone
	inv.CustomerEmail = c.Email
	inv.CustomerTaxNumber = c.TaxNumber
	entity.Touch(&inv.Meta, now)
}

// MarkAsSent transitions Draft → Sent and records the sender.
func (inv *Invoice) MarkAsSent(by string, now time.Time) {
	inv.Status = InvoiceStatusSent
	inv.SentBy = by
	t := now.UTC()
	inv.SentAt = &t
	entity.TouchBy(&inv.Meta, now, by)
}

// MarkAsPaid records a payment. It intentionally does not validate the
// amount against the grand total: partial payments are recorded without
// a status change, and the status flips to Paid only once the invoice
// is fully paid within the epsilon.
func (inv *Invoice) MarkAsPaid(amount decimal.Decimal, method PaymentMethod, paymentDate *time.Time, now time.Time) {
	inv.PaidAmount = amount
	inv.PaymentMethod = &method
	if paymentDate != nil {
		d := paymentDate.UTC()
		inv.PaymentDate = &d
	} else {
		t := now.UTC()
		inv.PaymentDate = &t
	}
	if inv.IsFullyPaid() {
		inv.Status = InvoiceStatusPaid
	}
	entity.Touch(&inv.Meta, now)
}

// Cancel transitions to the terminal Cancelled state.
func (inv *Invoice) Cancel(by string, now time.Time) {
	inv.Status = InvoiceStatusCancelled
	entity.TouchBy(&inv.Meta, now, by)
}

// CheckOverdueStatus is an idempotent poll: Sent flips to Overdue once
// the due date has passed without full payment. Every other status is
// left untouched. Returns true when the status changed.
func (inv *Invoice) CheckOverdueStatus(now time.Time) bool {
	if inv.Status != InvoiceStatusSent || !inv.IsOverdue(now) {
		return false
	}
	inv.Status = InvoiceStatusOverdue
	entity.Touch(&inv.Meta, now)
	return true
}

// AddItem snapshots the product onto a new line and recomputes totals.
// The unit price defaults to the product's current price unless
// overridden.
func (inv *Invoice) AddItem(id snowflake.ID, p *productdomain.Product, quantity decimal.Decimal, unitPrice *decimal.Decimal, discountRate decimal.Decimal, now time.Time) *InvoiceItem {
	price := p.UnitPrice
	if unitPrice != nil {
		price = *unitPrice
	}

	item := InvoiceItem{
		ID:                 id,
		InvoiceID:          inv.ID,
		ProductID:          p.ID,
		ProductName:        p.Name,
		ProductCode:        p.ProductCode,
		ProductDescription: p.Description,
		Quantity:           quantity,
		Unit:               p.Unit,
		UnitPrice:          price,
		DiscountRate:       discountRate,
		TaxRate:            p.TaxRate,
		Meta:               entity.NewMeta(now, ""),
	}
	item.DiscountAmount = money.Percent(item.Subtotal(), discountRate)

	inv.Items = append(inv.Items, item)
	inv.RecalculateTotals(now)
	return &inv.Items[len(inv.Items)-1]
}

// RemoveItem drops the line with the given id, if present, and
// recomputes totals. Removing an unknown id is a no-op. The removed
// line is returned so callers can reverse its side effects.
func (inv *Invoice) RemoveItem(itemID snowflake.ID, now time.Time) *InvoiceItem {
	for idx := range inv.Items {
		if inv.Items[idx].ID == itemID {
			removed := inv.Items[idx]
			inv.Items = append(inv.Items[:idx], inv.Items[idx+1:]...)
			inv.RecalculateTotals(now)
			return &removed
		}
	}
	return nil
}

// RecalculateTotals sums the per-line amounts into the invoice totals.
// Idempotent: running it twice over an unchanged item set yields the
// same result.
func (inv *Invoice) RecalculateTotals(now time.Time) {
	subTotal := decimal.Zero
	totalDiscount := decimal.Zero
	totalTax := decimal.Zero
	grandTotal := decimal.Zero

	for idx := range inv.Items {
		item := &inv.Items[idx]
		totalDiscount = totalDiscount.Add(item.DiscountAmount)
		subTotal = subTotal.Add(item.AmountAfterDiscount())
		totalTax = totalTax.Add(item.TaxAmount())
		grandTotal = grandTotal.Add(item.TotalAmount())
	}

	inv.SubTotal = subTotal
	inv.TotalDiscount = totalDiscount
	inv.TotalTax = totalTax
	inv.GrandTotal = grandTotal
	entity.Touch(&inv.Meta, now)
}

// HasProduct reports whether any line references the product.
func (inv *Invoice) HasProduct(productID snowflake.ID) bool {
	for idx := range inv.Items {
		if inv.Items[idx].ProductID == productID {
			return true
		}
	}
	return false
}

// Valid checks the invoice invariants: number and customer snapshot
// present, at least one valid line, invoice date not in the future and
// due date not before the invoice date.
func (inv *Invoice) Valid(today time.Time) bool {
	if inv.InvoiceNumber == "" || inv.CustomerName == "" || len(inv.Items) == 0 {
		return false
	}
	for idx := range inv.Items {
		if !inv.Items[idx].Valid() {
			return false
		}
	}
	return !inv.InvoiceDate.After(today) && !inv.DueDate.Before(inv.InvoiceDate)
}
