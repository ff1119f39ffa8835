// Package domain contains the product aggregate. Stock quantity is only
// meaningful while stock tracking is enabled.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/billwise/billwise/internal/entity"
)

// ProductType distinguishes physical goods from services and digital items.
type ProductType string

const (
	ProductTypePhysical ProductType = "PHYSICAL"
	ProductTypeService  ProductType = "SERVICE"
	ProductTypeDigital  ProductType = "DIGITAL"
)

type Product struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`
	Name      string       `gorm:"not null" json:"name"`

	Description string `gorm:"type:text" json:"description,omitempty"`
	ProductCode string `gorm:"type:text;index" json:"product_code,omitempty"`

	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
	CostPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cost_price"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(9,4);not null;default:20" json:"tax_rate"`

	Unit   string           `gorm:"type:text;not null;default:'pcs'" json:"unit"`
	Weight *decimal.Decimal `gorm:"type:decimal(18,4)" json:"weight,omitempty"`

	IsStockTracked bool            `gorm:"not null;default:false" json:"is_stock_tracked"`
	StockQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"stock_quantity"`
	MinimumStock   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"minimum_stock"`
	MaximumStock   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"maximum_stock"`

	Type      ProductType `gorm:"type:text;not null;default:'PHYSICAL'" json:"type"`
	IsActive  bool        `gorm:"not null;default:true" json:"is_active"`
	IsForSale bool        `gorm:"not null;default:true" json:"is_for_sale"`

	entity.Meta
}

func (Product) TableName() string { return "products" }

// IsInStock is true for untracked products and for tracked products
// with positive stock.
func (p *Product) IsInStock() bool {
	return !p.IsStockTracked || p.StockQuantity.GreaterThan(decimal.Zero)
}

func (p *Product) IsStockCritical() bool {
	return p.IsStockTracked && p.StockQuantity.LessThanOrEqual(p.MinimumStock)
}

// CanBeSold reports general sellability independent of quantity.
func (p *Product) CanBeSold() bool {
	return p.IsActive && p.IsForSale && !p.IsDeleted && p.IsInStock()
}

// CanSell reports whether the requested quantity can be sold right now.
// Untracked products sell without limit.
func (p *Product) CanSell(quantity decimal.Decimal) bool {
	if !p.CanBeSold() {
		return false
	}
	if p.IsStockTracked {
		return p.StockQuantity.GreaterThanOrEqual(quantity)
	}
	return true
}

func (p *Product) Activate(now time.Time)     { p.IsActive = true; entity.Touch(&p.Meta, now) }
func (p *Product) Deactivate(now time.Time)   { p.IsActive = false; entity.Touch(&p.Meta, now) }
func (p *Product) StartSelling(now time.Time) { p.IsForSale = true; entity.Touch(&p.Meta, now) }
func (p *Product) StopSelling(now time.Time)  { p.IsForSale = false; entity.Touch(&p.Meta, now) }

func (p *Product) UpdatePrice(price decimal.Decimal, now time.Time) {
	p.UnitPrice = price
	entity.Touch(&p.Meta, now)
}

func (p *Product) UpdateTaxRate(rate decimal.Decimal, now time.Time) {
	if rate.IsNegative() {
		return
	}
	p.TaxRate = rate
	entity.Touch(&p.Meta, now)
}

// AddStock increases tracked stock by a positive quantity.
func (p *Product) AddStock(quantity decimal.Decimal, now time.Time) {
	if !p.IsStockTracked || quantity.LessThanOrEqual(decimal.Zero) {
		return
	}
	p.StockQuantity = p.StockQuantity.Add(quantity)
	entity.Touch(&p.Meta, now)
}

// ReduceStock decrements tracked stock; it never drives stock negative.
func (p *Product) ReduceStock(quantity decimal.Decimal, now time.Time) {
	if !p.IsStockTracked || quantity.LessThanOrEqual(decimal.Zero) ||
		p.StockQuantity.LessThan(quantity) {
		return
	}
	p.StockQuantity = p.StockQuantity.Sub(quantity)
	entity.Touch(&p.Meta, now)
}

func (p *Product) EnableStockTracking(initial decimal.Decimal, now time.Time) {
	p.IsStockTracked = true
	p.StockQuantity = initial
	entity.Touch(&p.Meta, now)
}

func (p *Product) DisableStockTracking(now time.Time) {
	p.IsStockTracked = false
	p.StockQuantity = decimal.Zero
	entity.Touch(&p.Meta, now)
}

// HasValidStockLevels verifies min ≤ max and non-negative stock for
// tracked products.
func (p *Product) HasValidStockLevels() bool {
	if !p.IsStockTracked {
		return true
	}
	return !p.MinimumStock.IsNegative() &&
		p.MaximumStock.GreaterThanOrEqual(p.MinimumStock) &&
		!p.StockQuantity.IsNegative()
}
