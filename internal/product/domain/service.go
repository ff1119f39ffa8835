package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name           string
	Description    string
	ProductCode    string
	UnitPrice      decimal.Decimal
	CostPrice      decimal.Decimal
	TaxRate        decimal.Decimal
	Unit           string
	Type           ProductType
	IsStockTracked bool
	StockQuantity  decimal.Decimal
	MinimumStock   decimal.Decimal
	MaximumStock   decimal.Decimal
	CreatedBy      string
}

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
	AddStock(ctx context.Context, id string, quantity decimal.Decimal) (Product, error)
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal, by string) (Product, error)
	Deactivate(ctx context.Context, id, by string) (Product, error)
	Activate(ctx context.Context, id, by string) (Product, error)
	Delete(ctx context.Context, id, by string) error
}

var (
	ErrInvalidID       = errors.New("invalid_product_id")
	ErrInvalidName     = errors.New("invalid_product_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrStockUntracked  = errors.New("stock_not_tracked")
	ErrNotFound        = errors.New("product_not_found")
)
