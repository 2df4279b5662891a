package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/gstbook/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBatchSize bounds a single INSERT issued by BatchCreate.
const DefaultBatchSize = 100

type store[T any] struct {
	db        *gorm.DB
	batchSize int
}

type StoreOption func(*storeConfig)

type storeConfig struct {
	batchSize int
}

// WithBatchSize overrides DefaultBatchSize. Non-positive values are ignored.
func WithBatchSize(size int) StoreOption {
	return func(c *storeConfig) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// ProvideStore binds a store to db, which may be a transaction handle.
func ProvideStore[T any](db *gorm.DB, opts ...StoreOption) Repository[T] {
	cfg := storeConfig{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &store[T]{db: db, batchSize: cfg.batchSize}
}

func (s *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var result []*T
	if err := s.scoped(ctx, query, opts...).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// FindOne returns nil, nil when nothing matches.
func (s *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	var result T
	err := s.scoped(ctx, query, opts...).Take(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *store[T]) Exists(ctx context.Context, query *T, opts ...option.QueryOption) (bool, error) {
	var count int64
	err := s.scoped(ctx, query, opts...).
		Model(new(T)).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *store[T]) Create(ctx context.Context, resource *T) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(resource).Error
}

func (s *store[T]) BatchCreate(ctx context.Context, resources []*T) error {
	if len(resources) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Omit(clause.Associations).
		CreateInBatches(resources, s.batchSize).Error
}

// DeleteWhere refuses a nil or all-zero query: gorm then builds no WHERE
// clause and rejects the statement with ErrMissingWhereClause.
func (s *store[T]) DeleteWhere(ctx context.Context, query *T) (int64, error) {
	if query == nil {
		return 0, gorm.ErrMissingWhereClause
	}
	result := s.db.WithContext(ctx).Where(query).Delete(new(T))
	return result.RowsAffected, result.Error
}

func (s *store[T]) scoped(ctx context.Context, query *T, opts ...option.QueryOption) *gorm.DB {
	stmt := s.db.WithContext(ctx)
	if query != nil {
		stmt = stmt.Where(query)
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	return stmt
}
