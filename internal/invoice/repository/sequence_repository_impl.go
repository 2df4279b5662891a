package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/invoice/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sequenceRepo struct{}

func ProvideSequences() domain.SequenceRepository {
	return &sequenceRepo{}
}

// Increment holds the counter row lock until the surrounding transaction
// ends, serialising numbering per (business, type).
func (r *sequenceRepo) Increment(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType domain.InvoiceType, now time.Time) (int64, bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoice_sequences
		 SET last_value = last_value + 1, updated_at = ?
		 WHERE business_id = ? AND invoice_type = ?`,
		now,
		businessID,
		invoiceType,
	)
	if result.Error != nil {
		return 0, false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}

	value, ok, err := r.Current(ctx, db, businessID, invoiceType)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, gorm.ErrRecordNotFound
	}
	return value, true, nil
}

func (r *sequenceRepo) Current(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType domain.InvoiceType) (int64, bool, error) {
	var seq domain.InvoiceSequence
	err := db.WithContext(ctx).
		Where("business_id = ? AND invoice_type = ?", businessID, invoiceType).
		Take(&seq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seq.LastValue, true, nil
}

func (r *sequenceRepo) Seed(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType domain.InvoiceType, lastValue int64, now time.Time) error {
	seq := domain.InvoiceSequence{
		BusinessID:  businessID,
		InvoiceType: invoiceType,
		LastValue:   lastValue,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seq).Error
}
