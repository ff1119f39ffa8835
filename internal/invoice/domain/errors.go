package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidID       = errors.New("invalid_invoice_id")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidDueDate  = errors.New("invalid_due_date")
	ErrNotFound        = errors.New("invoice_not_found")
)

// Guard identifiers carried by GuardError.
const (
	GuardCompanyActive   = "company_active"
	GuardInvoiceEditable = "invoice_editable"
	GuardProductSellable = "product_sellable"
	GuardCustomerCredit  = "customer_credit"
	GuardCustomerActive  = "customer_active"
)

// GuardError is a business-rule violation detected before any mutation.
// It names the guard that failed and the offending values so the caller
// can build a user-facing message.
type GuardError struct {
	Guard     string
	Requested decimal.Decimal
	Available decimal.Decimal
	Detail    string
}

func (e *GuardError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("guard %s failed: %s", e.Guard, e.Detail)
	}
	return fmt.Sprintf("guard %s failed: requested %s, available %s",
		e.Guard, e.Requested.String(), e.Available.String())
}

// StateError is an illegal lifecycle transition. It carries the status
// the invoice was in and the transition that was attempted.
type StateError struct {
	Status     InvoiceStatus
	Transition string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s invoice in status %s", e.Transition, e.Status)
}

// ConcurrencyError is a conflicting concurrent mutation detected at
// commit time, typically via a unique-constraint violation.
type ConcurrencyError struct {
	Resource string
	Err      error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrent modification of %s: %v", e.Resource, e.Err)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }
