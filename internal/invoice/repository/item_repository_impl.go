package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/pkg/db/option"
	"github.com/smallbiznis/gstbook/pkg/repository"
	"gorm.io/gorm"
)

type itemRepo struct{}

func ProvideItems() domain.ItemRepository {
	return &itemRepo{}
}

func (r *itemRepo) store(db *gorm.DB) repository.Repository[domain.InvoiceItem] {
	return repository.ProvideStore[domain.InvoiceItem](db)
}

func (r *itemRepo) InsertBatch(ctx context.Context, db *gorm.DB, items []*domain.InvoiceItem) error {
	return r.store(db).BatchCreate(ctx, items)
}

func (r *itemRepo) ListByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*domain.InvoiceItem, error) {
	return r.store(db).Find(ctx,
		&domain.InvoiceItem{InvoiceID: invoiceID},
		option.OrderBy("sort_order asc, id asc"),
	)
}

func (r *itemRepo) DeleteByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error {
	_, err := r.store(db).DeleteWhere(ctx, &domain.InvoiceItem{InvoiceID: invoiceID})
	return err
}
