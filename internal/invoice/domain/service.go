package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CreateInvoiceRequest struct {
	CustomerID  string
	InvoiceDate time.Time
	DueDate     time.Time
	Description string
	CreatedBy   string
}

type AddItemRequest struct {
	InvoiceID    string
	ProductID    string
	Quantity     decimal.Decimal
	UnitPrice    *decimal.Decimal
	DiscountRate decimal.Decimal
}

type MarkAsPaidRequest struct {
	InvoiceID   string
	Amount      decimal.Decimal
	Method      PaymentMethod
	PaymentDate *time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context) ([]Invoice, error)

	AddItem(ctx context.Context, req AddItemRequest) (InvoiceItem, error)
	RemoveItem(ctx context.Context, invoiceID, itemID string) error

	MarkAsSent(ctx context.Context, invoiceID, actor string) (Invoice, error)
	MarkAsPaid(ctx context.Context, req MarkAsPaidRequest) (Invoice, error)
	CheckOverdueStatus(ctx context.Context, invoiceID string) (Invoice, error)
	Cancel(ctx context.Context, invoiceID, actor string) (Invoice, error)
	RecalculateTotals(ctx context.Context, invoiceID string) (Invoice, error)
}
