// Package repository provides the generic gorm-backed store shared by
// all aggregates. Every standard read carries an explicit not-deleted
// predicate so the soft-delete rule is visible and testable rather than
// hidden in a framework hook.
package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repository[T any] interface {
	WithTx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T) ([]*T, error)
	FindOne(ctx context.Context, query *T) (*T, error)
	Create(ctx context.Context, resource *T) error
	Save(ctx context.Context, resource *T) error
	Count(ctx context.Context, query *T) (int64, error)
	// FindOneDeleted looks up a record regardless of the deleted flag,
	// for restore flows.
	FindOneDeleted(ctx context.Context, query *T) (*T, error)
}
