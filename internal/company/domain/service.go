package domain

import (
	"context"
	"errors"
)

type CreateCompanyRequest struct {
	Name      string
	TaxNumber string
	Address   string
	Phone     string
	Email     string
	CreatedBy string
}

type UpdateCompanyRequest struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Email     string
	UpdatedBy string
}

type Service interface {
	Create(ctx context.Context, req CreateCompanyRequest) (Company, error)
	GetByID(ctx context.Context, id string) (Company, error)
	List(ctx context.Context) ([]Company, error)
	Update(ctx context.Context, req UpdateCompanyRequest) (Company, error)
	Activate(ctx context.Context, id, by string) (Company, error)
	Deactivate(ctx context.Context, id, by string) (Company, error)
	Delete(ctx context.Context, id, by string) error
	Restore(ctx context.Context, id, by string) (Company, error)
}

var (
	ErrInvalidID        = errors.New("invalid_company_id")
	ErrInvalidName      = errors.New("invalid_company_name")
	ErrInvalidTaxNumber = errors.New("invalid_tax_number")
	ErrTaxNumberTaken   = errors.New("tax_number_taken")
	ErrNotFound         = errors.New("company_not_found")

	// ErrHasDependents blocks deletion while the company still owns
	// customers, products, users or invoices.
	ErrHasDependents = errors.New("company_has_dependents")
)
