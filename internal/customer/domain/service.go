package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	Name           string
	TaxNumber      string
	IdentityNumber string
	Address        string
	Phone          string
	Email          string
	Type           CustomerType
	CreditLimit    decimal.Decimal
	CreatedBy      string
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context) ([]Customer, error)
	AddDebt(ctx context.Context, id string, amount decimal.Decimal) (Customer, error)
	PayDebt(ctx context.Context, id string, amount decimal.Decimal) (Customer, error)
	UpdateCreditLimit(ctx context.Context, id string, limit decimal.Decimal, by string) (Customer, error)
	Deactivate(ctx context.Context, id, by string) (Customer, error)
	Activate(ctx context.Context, id, by string) (Customer, error)
	Delete(ctx context.Context, id, by string) error
}

var (
	ErrInvalidID         = errors.New("invalid_customer_id")
	ErrInvalidName       = errors.New("invalid_customer_name")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrAmountExceedsDebt = errors.New("amount_exceeds_debt")
	ErrNotFound          = errors.New("customer_not_found")
)
