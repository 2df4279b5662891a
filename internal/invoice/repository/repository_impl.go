package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/pkg/db/option"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"github.com/smallbiznis/gstbook/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[domain.Invoice] {
	return repository.ProvideStore[domain.Invoice](db)
}

// Insert writes the header row only; items go through ItemRepository.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return r.store(db).Create(ctx, invoice)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc, id asc")
		}).
		Where("business_id = ? AND id = ?", businessID, id).
		Take(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByIDForUpdate locks the header row only; lines are read separately
// through ItemRepository when they are needed. sqlite has no row locks and
// serializes writers on the database instead.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*domain.Invoice, error) {
	stmt := db.WithContext(ctx).Where("business_id = ? AND id = ?", businessID, id)
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var invoice domain.Invoice
	err := stmt.Take(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ExistsByNumber includes soft-deleted invoices: their numbers stay taken.
func (r *repo) ExistsByNumber(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType domain.InvoiceType, number string) (bool, error) {
	return r.store(db).Exists(ctx,
		&domain.Invoice{BusinessID: businessID, InvoiceType: invoiceType, InvoiceNumber: number},
		option.IncludeDeleted(),
	)
}

// FindLatest returns the most recently created invoice of the type,
// soft-deleted ones included, or nil when none exists.
func (r *repo) FindLatest(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType domain.InvoiceType) (*domain.Invoice, error) {
	return r.store(db).FindOne(ctx,
		&domain.Invoice{BusinessID: businessID, InvoiceType: invoiceType},
		option.IncludeDeleted(),
		option.OrderBy("created_at desc, id desc"),
	)
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("business_id = ?", businessID)
	if filter.InvoiceType != nil {
		stmt = stmt.Where("invoice_type = ?", *filter.InvoiceType)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		stmt = stmt.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.PartyID != nil {
		stmt = stmt.Where("party_id = ?", *filter.PartyID)
	}
	if filter.DateFrom != nil {
		stmt = option.ApplyOperator(option.Condition{
			Field:    "invoice_date",
			Operator: option.GTE,
			Value:    *filter.DateFrom,
		}).Apply(stmt)
	}
	if filter.DateTo != nil {
		stmt = option.ApplyOperator(option.Condition{
			Field:    "invoice_date",
			Operator: option.LTE,
			Value:    *filter.DateTo,
		}).Apply(stmt)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)

	var invoices []*domain.Invoice
	err := stmt.
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc, id asc")
		}).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("business_id = ? AND id = ?", businessID, id).
		Updates(patch).Error
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, id).
		Delete(&domain.Invoice{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
