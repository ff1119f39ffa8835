package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerdomain "github.com/billwise/billwise/internal/customer/domain"
	productdomain "github.com/billwise/billwise/internal/product/domain"
	"github.com/billwise/billwise/pkg/money"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testProduct(price, taxRate string) *productdomain.Product {
	return &productdomain.Product{
		ID:        1001,
		Name:      "Widget",
		UnitPrice: dec(price),
		TaxRate:   dec(taxRate),
		Unit:      "pcs",
	}
}

func TestItemCalculation(t *testing.T) {
	item := InvoiceItem{
		ProductName:  "Widget",
		Quantity:     dec("3"),
		UnitPrice:    dec("100"),
		DiscountRate: dec("10"),
		TaxRate:      dec("20"),
	}
	item.DiscountAmount = money.Percent(item.Subtotal(), item.DiscountRate)

	assert.True(t, item.Subtotal().Equal(dec("300")))
	assert.True(t, item.DiscountAmount.Equal(dec("30")))
	assert.True(t, item.AmountAfterDiscount().Equal(dec("270")))
	assert.True(t, item.TaxAmount().Equal(dec("54")))
	assert.True(t, item.TotalAmount().Equal(dec("324")))
	assert.True(t, item.EffectiveUnitPrice().Equal(dec("90")))
}

func TestItemDiscountAmountBackDerivesRate(t *testing.T) {
	item := InvoiceItem{
		ProductName: "Widget",
		Quantity:    dec("3"),
		UnitPrice:   dec("100"),
	}

	item.UpdateDiscountAmount(dec("30"), testNow)

	assert.True(t, item.DiscountRate.Equal(dec("10")))
	assert.True(t, item.DiscountAmount.Equal(dec("30")))

	// Exceeding the subtotal leaves the item unchanged.
	item.UpdateDiscountAmount(dec("500"), testNow)
	assert.True(t, item.DiscountAmount.Equal(dec("30")))
}

func TestItemUpdateRejectsOutOfRange(t *testing.T) {
	item := InvoiceItem{
		ProductName:  "Widget",
		Quantity:     dec("2"),
		UnitPrice:    dec("50"),
		DiscountRate: dec("10"),
	}
	item.recalculateDiscountAmount()

	item.UpdateQuantity(dec("0"), testNow)
	assert.True(t, item.Quantity.Equal(dec("2")))

	item.UpdateUnitPrice(dec("-1"), testNow)
	assert.True(t, item.UnitPrice.Equal(dec("50")))

	item.UpdateDiscountRate(dec("101"), testNow)
	assert.True(t, item.DiscountRate.Equal(dec("10")))

	item.UpdateTaxRate(dec("-5"), testNow)
	assert.True(t, item.TaxRate.IsZero())
}

func TestItemUpdateQuantityRecalculatesDiscount(t *testing.T) {
	item := InvoiceItem{
		ProductName:  "Widget",
		Quantity:     dec("2"),
		UnitPrice:    dec("100"),
		DiscountRate: dec("10"),
	}
	item.recalculateDiscountAmount()
	require.True(t, item.DiscountAmount.Equal(dec("20")))

	item.UpdateQuantity(dec("4"), testNow)
	assert.True(t, item.DiscountAmount.Equal(dec("40")))
}

func TestAddItemRecalculatesTotals(t *testing.T) {
	inv := &Invoice{ID: 1, InvoiceDate: testNow, DueDate: testNow.AddDate(0, 0, 30), Status: InvoiceStatusDraft}

	inv.AddItem(11, testProduct("50", "20"), dec("2"), nil, decimal.Zero, testNow)
	inv.AddItem(12, testProduct("10", "0"), dec("1"), nil, decimal.Zero, testNow)

	assert.True(t, inv.SubTotal.Equal(dec("110")), "subtotal: %s", inv.SubTotal)
	assert.True(t, inv.TotalTax.Equal(dec("20")), "tax: %s", inv.TotalTax)
	assert.True(t, inv.GrandTotal.Equal(dec("130")), "grand total: %s", inv.GrandTotal)
}

func TestAddItemDefaultsToProductPrice(t *testing.T) {
	inv := &Invoice{ID: 1, Status: InvoiceStatusDraft}
	p := testProduct("25", "0")

	item := inv.AddItem(11, p, dec("2"), nil, decimal.Zero, testNow)
	assert.True(t, item.UnitPrice.Equal(dec("25")))

	override := dec("30")
	item = inv.AddItem(12, p, dec("1"), &override, decimal.Zero, testNow)
	assert.True(t, item.UnitPrice.Equal(dec("30")))
}

func TestRemoveItem(t *testing.T) {
	inv := &Invoice{ID: 1, Status: InvoiceStatusDraft}
	inv.AddItem(11, testProduct("50", "20"), dec("2"), nil, decimal.Zero, testNow)
	inv.AddItem(12, testProduct("10", "0"), dec("1"), nil, decimal.Zero, testNow)

	removed := inv.RemoveItem(12, testNow)
	require.NotNil(t, removed)
	assert.True(t, removed.TotalAmount().Equal(dec("10")))
	assert.Len(t, inv.Items, 1)
	assert.True(t, inv.GrandTotal.Equal(dec("120")))

	// Removing an unknown id is a no-op.
	before := inv.GrandTotal
	assert.Nil(t, inv.RemoveItem(999, testNow))
	assert.Len(t, inv.Items, 1)
	assert.True(t, inv.GrandTotal.Equal(before))
}

func TestRecalculateTotalsIdempotent(t *testing.T) {
	inv := &Invoice{ID: 1, Status: InvoiceStatusDraft}
	inv.AddItem(11, testProduct("100", "20"), dec("3"), nil, dec("10"), testNow)

	first := inv.GrandTotal
	inv.RecalculateTotals(testNow)
	inv.RecalculateTotals(testNow)

	assert.True(t, inv.GrandTotal.Equal(first))
	assert.True(t, inv.GrandTotal.Equal(dec("324")))

	sum := decimal.Zero
	for idx := range inv.Items {
		sum = sum.Add(inv.Items[idx].TotalAmount())
	}
	assert.True(t, inv.GrandTotal.Equal(sum))
}

func TestAssignNumber(t *testing.T) {
	inv := &Invoice{ID: 1, InvoiceDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	inv.AssignNumber(7, testNow)

	assert.Equal(t, "INV-2025-000007", inv.InvoiceNumber)
	assert.Equal(t, int64(7), inv.InvoiceSeq)
}

func TestSnapshotCustomer(t *testing.T) {
	customer := &customerdomain.Customer{
		ID:        42,
		Name:      "Acme Corp",
		Address:   "1 Main St",
		Phone:     "555-0100",
		Email:     "billing@acme.test",
		TaxNumber: "TX-1",
	}

	inv := &Invoice{ID: 1}
	inv.SnapshotCustomer(customer, testNow)

	customer.Name = "Renamed Corp"
	assert.Equal(t, "Acme Corp", inv.CustomerName)
	assert.Equal(t, "TX-1", inv.CustomerTaxNumber)
}

func TestCanBeSent(t *testing.T) {
	inv := &Invoice{Status: InvoiceStatusDraft}
	assert.False(t, inv.CanBeSent(), "draft with no items cannot be sent")

	inv.AddItem(11, testProduct("10", "0"), dec("1"), nil, decimal.Zero, testNow)
	assert.True(t, inv.CanBeSent())

	inv.Status = InvoiceStatusSent
	assert.False(t, inv.CanBeSent())
}

func TestMarkAsSent(t *testing.T) {
	inv := &Invoice{Status: InvoiceStatusDraft}
	inv.AddItem(11, testProduct("10", "0"), dec("1"), nil, decimal.Zero, testNow)

	inv.MarkAsSent("alice", testNow)

	assert.Equal(t, InvoiceStatusSent, inv.Status)
	assert.Equal(t, "alice", inv.SentBy)
	require.NotNil(t, inv.SentAt)
	assert.Equal(t, testNow, *inv.SentAt)
}

func TestMarkAsPaidPartialAndFull(t *testing.T) {
	inv := &Invoice{Status: InvoiceStatusSent}
	inv.AddItem(11, testProduct("100", "0"), dec("1"), nil, decimal.Zero, testNow)
	require.True(t, inv.GrandTotal.Equal(dec("100")))

	inv.MarkAsPaid(dec("40"), PaymentMethodCash, nil, testNow)
	assert.Equal(t, InvoiceStatusSent, inv.Status, "partial payment keeps the status")
	assert.True(t, inv.IsPartiallyPaid())
	assert.True(t, inv.RemainingAmount().Equal(dec("60")))

	inv.MarkAsPaid(dec("100"), PaymentMethodTransfer, nil, testNow)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.IsFullyPaid())
}

func TestIsFullyPaidEpsilon(t *testing.T) {
	inv := &Invoice{GrandTotal: dec("100"), PaidAmount: dec("99.995")}
	assert.True(t, inv.IsFullyPaid())

	inv.PaidAmount = dec("99.98")
	assert.False(t, inv.IsFullyPaid())
}

func TestCancelRules(t *testing.T) {
	for _, status := range []InvoiceStatus{InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusOverdue} {
		inv := &Invoice{Status: status}
		assert.True(t, inv.CanBeCancelled(), "should cancel from %s", status)
	}
	for _, status := range []InvoiceStatus{InvoiceStatusPaid, InvoiceStatusCancelled} {
		inv := &Invoice{Status: status}
		assert.False(t, inv.CanBeCancelled(), "should not cancel from %s", status)
	}
}

func TestCheckOverdueStatus(t *testing.T) {
	due := testNow.AddDate(0, 0, -1)

	inv := &Invoice{Status: InvoiceStatusSent, DueDate: due, GrandTotal: dec("100")}
	assert.True(t, inv.CheckOverdueStatus(testNow))
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)

	// Idempotent: a second poll does nothing.
	assert.False(t, inv.CheckOverdueStatus(testNow))

	for _, status := range []InvoiceStatus{InvoiceStatusDraft, InvoiceStatusPaid, InvoiceStatusCancelled} {
		other := &Invoice{Status: status, DueDate: due, GrandTotal: dec("100")}
		assert.False(t, other.CheckOverdueStatus(testNow), "status %s must not flip", status)
		assert.Equal(t, status, other.Status)
	}

	// Fully paid invoices never go overdue.
	paid := &Invoice{Status: InvoiceStatusSent, DueDate: due, GrandTotal: dec("100"), PaidAmount: dec("100")}
	assert.False(t, paid.CheckOverdueStatus(testNow))
}

func TestInvoiceValid(t *testing.T) {
	inv := &Invoice{
		InvoiceNumber: "INV-2025-000001",
		CustomerName:  "Acme Corp",
		InvoiceDate:   testNow,
		DueDate:       testNow.AddDate(0, 0, 30),
	}
	assert.False(t, inv.Valid(testNow), "no items")

	inv.AddItem(11, testProduct("10", "0"), dec("1"), nil, decimal.Zero, testNow)
	assert.True(t, inv.Valid(testNow))

	inv.DueDate = inv.InvoiceDate.AddDate(0, 0, -1)
	assert.False(t, inv.Valid(testNow), "due before invoice date")
}
