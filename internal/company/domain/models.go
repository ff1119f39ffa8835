// Package domain contains the company (tenant) aggregate. A company
// owns customers, products, users and invoices; nothing it owns may
// outlive it, so deletion is blocked while dependents exist.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/billwise/billwise/internal/entity"
)

type Company struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name string       `gorm:"not null" json:"name"`

	// TaxNumber is unique across the system and immutable once set.
	TaxNumber string `gorm:"not null;uniqueIndex:ux_companies_tax_number" json:"tax_number"`

	Address  string `gorm:"type:text" json:"address,omitempty"`
	Phone    string `gorm:"type:text" json:"phone,omitempty"`
	Email    string `gorm:"type:text" json:"email,omitempty"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	entity.Meta
}

func (Company) TableName() string { return "companies" }

func (c *Company) Activate(now time.Time, by string) {
	c.IsActive = true
	entity.TouchBy(&c.Meta, now, by)
}

func (c *Company) Deactivate(now time.Time, by string) {
	c.IsActive = false
	entity.TouchBy(&c.Meta, now, by)
}

// CanOwnRecords reports whether new customers, products or invoices may
// be created under this company.
func (c *Company) CanOwnRecords() bool {
	return c.IsActive && !c.IsDeleted
}
