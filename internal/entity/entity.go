// Package entity defines the audit and soft-delete envelope shared by
// every persisted aggregate.
package entity

import "time"

// Meta is embedded in each aggregate. CreatedAt is set once at
// construction and never mutated afterwards; UpdatedAt is stamped on
// every mutation. Deletion is logical only: IsDeleted flips, the row
// stays and can be restored.
type Meta struct {
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedBy string     `gorm:"type:text" json:"created_by,omitempty"`
	UpdatedBy string     `gorm:"type:text" json:"updated_by,omitempty"`
}

// NewMeta returns an envelope for a freshly created record.
func NewMeta(now time.Time, createdBy string) Meta {
	return Meta{CreatedAt: now.UTC(), CreatedBy: createdBy}
}

// Touch stamps the update time.
func Touch(m *Meta, now time.Time) {
	t := now.UTC()
	m.UpdatedAt = &t
}

// TouchBy stamps the update time and records the actor.
func TouchBy(m *Meta, now time.Time, by string) {
	Touch(m, now)
	m.UpdatedBy = by
}

// MarkDeleted flags the record as logically deleted.
func MarkDeleted(m *Meta, now time.Time, by string) {
	m.IsDeleted = true
	TouchBy(m, now, by)
}

// Restore clears the deleted flag.
func Restore(m *Meta, now time.Time, by string) {
	m.IsDeleted = false
	TouchBy(m, now, by)
}
