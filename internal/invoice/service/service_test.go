package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/billwise/billwise/internal/clock"
	companydomain "github.com/billwise/billwise/internal/company/domain"
	customerdomain "github.com/billwise/billwise/internal/customer/domain"
	"github.com/billwise/billwise/internal/entity"
	invoicedomain "github.com/billwise/billwise/internal/invoice/domain"
	invoiceservice "github.com/billwise/billwise/internal/invoice/service"
	productdomain "github.com/billwise/billwise/internal/product/domain"
	"github.com/billwise/billwise/pkg/tenantctx"
)

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&companydomain.Company{},
		&customerdomain.Customer{},
		&productdomain.Product{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	))
	return db
}

type fixture struct {
	db  *gorm.DB
	svc invoicedomain.Service
	clk *clock.FakeClock
	ctx context.Context

	company  *companydomain.Company
	customer *customerdomain.Customer
	product  *productdomain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(testStart)

	company := &companydomain.Company{
		ID:        node.Generate(),
		Name:      "Acme Ltd",
		TaxNumber: "1234567890",
		IsActive:  true,
		Meta:      entity.NewMeta(testStart, "test"),
	}
	customer := &customerdomain.Customer{
		ID:          node.Generate(),
		CompanyID:   company.ID,
		Name:        "Jane Buyer",
		Email:       "jane@example.com",
		Address:     "1 Main St",
		Type:        customerdomain.CustomerTypeIndividual,
		CreditLimit: dec("1000"),
		CurrentDebt: decimal.Zero,
		IsActive:    true,
		Meta:        entity.NewMeta(testStart, "test"),
	}
	product := &productdomain.Product{
		ID:             node.Generate(),
		CompanyID:      company.ID,
		Name:           "Widget",
		Unit:           "pcs",
		UnitPrice:      dec("100"),
		TaxRate:        dec("20"),
		Type:           productdomain.ProductTypePhysical,
		IsActive:       true,
		IsForSale:      true,
		IsStockTracked: true,
		StockQuantity:  dec("10"),
		Meta:           entity.NewMeta(testStart, "test"),
	}
	require.NoError(t, db.Create(company).Error)
	require.NoError(t, db.Create(customer).Error)
	require.NoError(t, db.Create(product).Error)

	svc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
	})

	return &fixture{
		db:       db,
		svc:      svc,
		clk:      clk,
		ctx:      tenantctx.WithCompanyID(context.Background(), company.ID),
		company:  company,
		customer: customer,
		product:  product,
	}
}

func (f *fixture) createInvoice(t *testing.T) invoicedomain.Invoice {
	t.Helper()
	inv, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: f.customer.ID.String(),
		CreatedBy:  "test",
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) addItem(t *testing.T, invoiceID string, qty string) invoicedomain.InvoiceItem {
	t.Helper()
	item, err := f.svc.AddItem(f.ctx, invoicedomain.AddItemRequest{
		InvoiceID: invoiceID,
		ProductID: f.product.ID.String(),
		Quantity:  dec(qty),
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) reloadCustomer(t *testing.T) customerdomain.Customer {
	t.Helper()
	var c customerdomain.Customer
	require.NoError(t, f.db.First(&c, "id = ?", f.customer.ID).Error)
	return c
}

func (f *fixture) reloadProduct(t *testing.T) productdomain.Product {
	t.Helper()
	var p productdomain.Product
	require.NoError(t, f.db.First(&p, "id = ?", f.product.ID).Error)
	return p
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	f := newFixture(t)

	first := f.createInvoice(t)
	second := f.createInvoice(t)

	assert.Equal(t, "INV-2025-000001", first.InvoiceNumber)
	assert.Equal(t, "INV-2025-000002", second.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, first.Status)
	assert.Equal(t, "Jane Buyer", first.CustomerName)
	assert.True(t, first.DueDate.Equal(first.InvoiceDate.AddDate(0, 0, 30)))
}

func TestCreateNumbersStayUniqueAcrossCompanies(t *testing.T) {
	f := newFixture(t)
	first := f.createInvoice(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	other := &companydomain.Company{
		ID:        node.Generate(),
		Name:      "Beta GmbH",
		TaxNumber: "9876543210",
		IsActive:  true,
		Meta:      entity.NewMeta(testStart, "test"),
	}
	buyer := &customerdomain.Customer{
		ID:          node.Generate(),
		CompanyID:   other.ID,
		Name:        "Bob Buyer",
		Type:        customerdomain.CustomerTypeIndividual,
		CreditLimit: dec("500"),
		CurrentDebt: decimal.Zero,
		IsActive:    true,
		Meta:        entity.NewMeta(testStart, "test"),
	}
	require.NoError(t, f.db.Create(other).Error)
	require.NoError(t, f.db.Create(buyer).Error)

	otherCtx := tenantctx.WithCompanyID(context.Background(), other.ID)
	second, err := f.svc.Create(otherCtx, invoicedomain.CreateInvoiceRequest{
		CustomerID: buyer.ID.String(),
		CreatedBy:  "test",
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-000001", first.InvoiceNumber)
	assert.Equal(t, "INV-2025-000002", second.InvoiceNumber)
}

func TestCreateRejectsDueDateBeforeInvoiceDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:  f.customer.ID.String(),
		InvoiceDate: testStart,
		DueDate:     testStart.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidDueDate)
}

func TestCreateRejectsInactiveCustomer(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.customer).Update("is_active", false).Error)

	_, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: f.customer.ID.String(),
	})

	var guardErr *invoicedomain.GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, invoicedomain.GuardCustomerActive, guardErr.Guard)
}

func TestCreateRejectsInactiveCompany(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.company).Update("is_active", false).Error)

	_, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: f.customer.ID.String(),
	})

	var guardErr *invoicedomain.GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, invoicedomain.GuardCompanyActive, guardErr.Guard)
}

func TestAddItemAdjustsStockDebtAndTotals(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	item := f.addItem(t, inv.ID.String(), "2")

	// 2 × 100 = 200, no discount, 20% tax.
	assert.True(t, item.TotalAmount().Equal(dec("240")), item.TotalAmount().String())

	reloaded, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.True(t, reloaded.SubTotal.Equal(dec("200")), reloaded.SubTotal.String())
	assert.True(t, reloaded.TotalTax.Equal(dec("40")), reloaded.TotalTax.String())
	assert.True(t, reloaded.GrandTotal.Equal(dec("240")), reloaded.GrandTotal.String())

	assert.True(t, f.reloadProduct(t).StockQuantity.Equal(dec("8")))
	assert.True(t, f.reloadCustomer(t).CurrentDebt.Equal(dec("240")))
}

func TestAddItemStockGuardLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.AddItem(f.ctx, invoicedomain.AddItemRequest{
		InvoiceID: inv.ID.String(),
		ProductID: f.product.ID.String(),
		Quantity:  dec("11"),
	})

	var guardErr *invoicedomain.GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, invoicedomain.GuardProductSellable, guardErr.Guard)
	assert.True(t, guardErr.Requested.Equal(dec("11")))
	assert.True(t, guardErr.Available.Equal(dec("10")))

	reloaded, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items)
	assert.True(t, reloaded.GrandTotal.IsZero())
	assert.True(t, f.reloadProduct(t).StockQuantity.Equal(dec("10")))
	assert.True(t, f.reloadCustomer(t).CurrentDebt.IsZero())
}

func TestAddItemCreditGuardLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	f.addItem(t, inv.ID.String(), "2") // debt now 240, available 760

	// 7 × 100 + 20% tax = 840 > 760 remaining credit.
	_, err := f.svc.AddItem(f.ctx, invoicedomain.AddItemRequest{
		InvoiceID: inv.ID.String(),
		ProductID: f.product.ID.String(),
		Quantity:  dec("7"),
	})

	var guardErr *invoicedomain.GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, invoicedomain.GuardCustomerCredit, guardErr.Guard)
	assert.True(t, guardErr.Requested.Equal(dec("840")), guardErr.Requested.String())
	assert.True(t, guardErr.Available.Equal(dec("760")), guardErr.Available.String())

	assert.True(t, f.reloadProduct(t).StockQuantity.Equal(dec("8")))
	assert.True(t, f.reloadCustomer(t).CurrentDebt.Equal(dec("240")))
}

func TestAddItemRejectsNonDraftInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	f.addItem(t, inv.ID.String(), "1")

	_, err := f.svc.MarkAsSent(f.ctx, inv.ID.String(), "clerk")
	require.NoError(t, err)

	_, err = f.svc.AddItem(f.ctx, invoicedomain.AddItemRequest{
		InvoiceID: inv.ID.String(),
		ProductID: f.product.ID.String(),
		Quantity:  dec("1"),
	})

	var stateErr *invoicedomain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, stateErr.Status)
}

func TestRemoveItemRestoresStockAndDebt(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	item := f.addItem(t, inv.ID.String(), "2")

	require.NoError(t, f.svc.RemoveItem(f.ctx, inv.ID.String(), item.ID.String()))

	reloaded, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items)
	assert.True(t, reloaded.GrandTotal.IsZero())
	assert.True(t, f.reloadProduct(t).StockQuantity.Equal(dec("10")))
	assert.True(t, f.reloadCustomer(t).CurrentDebt.IsZero())
}

func TestRemoveItemWithDeletedProductSkipsStockRestore(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	item := f.addItem(t, inv.ID.String(), "2")

	require.NoError(t, f.db.Model(&productdomain.Product{}).
		Where("id = ?", f.product.ID).
		Update("is_deleted", true).Error)

	require.NoError(t, f.svc.RemoveItem(f.ctx, inv.ID.String(), item.ID.String()))

	reloaded, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items)
	assert.True(t, f.reloadCustomer(t).CurrentDebt.IsZero())
	assert.True(t, f.reloadProduct(t).StockQuantity.Equal(dec("8")))
}

func TestRemoveUnknownItemIsNoOp(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	f.addItem(t, inv.ID.String(), "2")

	unknown := snowflake.ID(424242).String()
	require.NoError(t, f.svc.RemoveItem(f.ctx, inv.ID.String(), unknown))

	reloaded, err := f.svc.GetByID(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, reloaded.Items, 1)
	assert.True(t, f.reloadProduct(t).StockQuantity.Equal(dec("8")))
}

func TestMarkAsSentRequiresItems(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.MarkAsSent(f.ctx, inv.ID.String(), "clerk")

	var stateErr *invoicedomain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "send", stateErr.Transition)
}

func TestMarkAsPaidFullPaymentClearsDebt(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	f.addItem(t, inv.ID.String(), "2")
	_, err := f.svc.MarkAsSent(f.ctx, inv.ID.String(), "clerk")
	require.NoError(t, err)

	paid, err := f.svc.MarkAsPaid(f.ctx, invoicedomain.MarkAsPaidRequest{
		InvoiceID: inv.ID.String(),
		Amount:    dec("240"),
		Method:    invoicedomain.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.InvoiceStatusPaid, paid.Status)
	assert.True(t, f.reloadCustomer(t).CurrentDebt.IsZero())
}

func TestMarkAsPaidPartialKeepsStatus(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	f.addItem(t, inv.ID.String(), "2")
	_, err := f.svc.MarkAsSent(f.ctx, inv.ID.String(), "clerk")
	require.NoError(t, err)

	paid, err := f.svc.MarkAsPaid(f.ctx, invoicedomain.MarkAsPaidRequest{
		InvoiceID: inv.ID.String(),
		Amount:    dec("100"),
		Method:    invoicedomain.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.InvoiceStatusSent, paid.Status)
	assert.True(t, paid.PaidAmount.Equal(dec("100")))
	assert.True(t, f.reloadCustomer(t).CurrentDebt.Equal(dec("140")))
}

func TestMarkAsPaidRejectsNegativeAmount(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.MarkAsPaid(f.ctx, invoicedomain.MarkAsPaidRequest{
		InvoiceID: inv.ID.String(),
		Amount:    dec("-1"),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidAmount)
}

func TestCheckOverdueStatusFlipsAfterDueDate(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	f.addItem(t, inv.ID.String(), "2")
	_, err := f.svc.MarkAsSent(f.ctx, inv.ID.String(), "clerk")
	require.NoError(t, err)

	checked, err := f.svc.CheckOverdueStatus(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, checked.Status)

	f.clk.Advance(31 * 24 * time.Hour)

	checked, err = f.svc.CheckOverdueStatus(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, checked.Status)

	// A second poll is a no-op.
	checked, err = f.svc.CheckOverdueStatus(f.ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, checked.Status)
}

func TestCancelPaidInvoiceFails(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	f.addItem(t, inv.ID.String(), "2")
	_, err := f.svc.MarkAsSent(f.ctx, inv.ID.String(), "clerk")
	require.NoError(t, err)
	_, err = f.svc.MarkAsPaid(f.ctx, invoicedomain.MarkAsPaidRequest{
		InvoiceID: inv.ID.String(),
		Amount:    dec("240"),
		Method:    invoicedomain.PaymentMethodCard,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, inv.ID.String(), "clerk")

	var stateErr *invoicedomain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, stateErr.Status)
}

func TestCancelOverdueInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	f.addItem(t, inv.ID.String(), "2")
	_, err := f.svc.MarkAsSent(f.ctx, inv.ID.String(), "clerk")
	require.NoError(t, err)

	f.clk.Advance(31 * 24 * time.Hour)
	_, err = f.svc.CheckOverdueStatus(f.ctx, inv.ID.String())
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(f.ctx, inv.ID.String(), "clerk")
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusCancelled, cancelled.Status)
}

func TestGetByIDScopedToTenant(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	otherCtx := tenantctx.WithCompanyID(context.Background(), snowflake.ID(999999))
	_, err := f.svc.GetByID(otherCtx, inv.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}
