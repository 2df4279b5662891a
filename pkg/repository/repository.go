// Package repository provides a typed gorm store shared by the
// table-level repositories.
package repository

import (
	"context"

	"github.com/smallbiznis/gstbook/pkg/db/option"
)

// Repository is a generic gorm-backed store bound to one model type.
// The zero-value fields of a query struct are ignored, as with gorm's
// struct conditions.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Exists(ctx context.Context, query *T, opts ...option.QueryOption) (bool, error)
	Create(ctx context.Context, resource *T) error
	BatchCreate(ctx context.Context, resources []*T) error
	DeleteWhere(ctx context.Context, query *T) (int64, error)
}
