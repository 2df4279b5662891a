// Package numbering assigns invoice numbers from a per (business, type)
// counter that is claimed inside the invoice transaction.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/config"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/internal/invoice/format"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errSequenceMissing = errors.New("invoice_sequence_missing_after_seed")

// Number is an assigned invoice number and the sequence value behind it.
type Number struct {
	Value    string
	Sequence int64
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Config    config.InvoicingConfigProvider
	Invoices  invoicedomain.Repository
	Sequences invoicedomain.SequenceRepository
}

type Sequencer struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	cfg       config.InvoicingConfigProvider
	invoices  invoicedomain.Repository
	sequences invoicedomain.SequenceRepository
}

func NewSequencer(p Params) *Sequencer {
	return &Sequencer{
		db:        p.DB,
		log:       p.Log.Named("invoice.numbering"),
		clock:     p.Clock,
		cfg:       p.Config,
		invoices:  p.Invoices,
		sequences: p.Sequences,
	}
}

// Next claims the next number in its own transaction.
func (s *Sequencer) Next(ctx context.Context, businessID snowflake.ID, invoiceType invoicedomain.InvoiceType, issuedAt time.Time) (Number, error) {
	var out Number
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.NextInTx(ctx, tx, businessID, invoiceType, issuedAt)
		if err != nil {
			return err
		}
		out = n
		return nil
	})
	return out, err
}

// NextInTx claims the next number on tx. The counter row stays locked until
// tx ends, so concurrent creators for the same pair wait instead of reading
// the same value.
func (s *Sequencer) NextInTx(ctx context.Context, tx *gorm.DB, businessID snowflake.ID, invoiceType invoicedomain.InvoiceType, issuedAt time.Time) (Number, error) {
	if businessID == 0 {
		return Number{}, invoicedomain.ErrInvalidBusiness
	}
	if !invoiceType.Valid() {
		return Number{}, invoicedomain.ErrInvalidInvoiceType
	}

	now := s.clock.Now()
	value, ok, err := s.sequences.Increment(ctx, tx, businessID, invoiceType, now)
	if err != nil {
		return Number{}, fmt.Errorf("increment invoice sequence: %w", err)
	}
	if !ok {
		last, err := s.lastIssued(ctx, tx, businessID, invoiceType)
		if err != nil {
			return Number{}, err
		}
		if err := s.sequences.Seed(ctx, tx, businessID, invoiceType, last, now); err != nil {
			return Number{}, fmt.Errorf("seed invoice sequence: %w", err)
		}
		value, ok, err = s.sequences.Increment(ctx, tx, businessID, invoiceType, now)
		if err != nil {
			return Number{}, fmt.Errorf("increment invoice sequence: %w", err)
		}
		if !ok {
			return Number{}, errSequenceMissing
		}
	}

	return s.format(invoiceType, issuedAt, value)
}

// Peek previews the number the next claim would produce without claiming it.
func (s *Sequencer) Peek(ctx context.Context, businessID snowflake.ID, invoiceType invoicedomain.InvoiceType, issuedAt time.Time) (Number, error) {
	if businessID == 0 {
		return Number{}, invoicedomain.ErrInvalidBusiness
	}
	if !invoiceType.Valid() {
		return Number{}, invoicedomain.ErrInvalidInvoiceType
	}

	db := s.db.WithContext(ctx)
	last, ok, err := s.sequences.Current(ctx, db, businessID, invoiceType)
	if err != nil {
		return Number{}, err
	}
	if !ok {
		last, err = s.lastIssued(ctx, db, businessID, invoiceType)
		if err != nil {
			return Number{}, err
		}
	}
	return s.format(invoiceType, issuedAt, last+1)
}

// lastIssued derives the starting point for a pair that has no counter yet
// from the newest existing invoice. Numbers without trailing digits restart
// the sequence at zero.
func (s *Sequencer) lastIssued(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType invoicedomain.InvoiceType) (int64, error) {
	latest, err := s.invoices.FindLatest(ctx, db, businessID, invoiceType)
	if err != nil {
		return 0, fmt.Errorf("find latest invoice: %w", err)
	}
	if latest == nil {
		return 0, nil
	}
	last, ok := format.ParseTrailingNumber(latest.InvoiceNumber)
	if !ok {
		s.log.Warn("latest invoice number has no trailing digits, restarting sequence",
			zap.String("business_id", businessID.String()),
			zap.String("invoice_type", string(invoiceType)),
			zap.String("invoice_number", latest.InvoiceNumber),
		)
		return 0, nil
	}
	return last, nil
}

func (s *Sequencer) format(invoiceType invoicedomain.InvoiceType, issuedAt time.Time, value int64) (Number, error) {
	template := s.cfg.Get().Numbering.Template
	number, err := format.FormatInvoiceNumber(template, format.PrefixFor(string(invoiceType)), issuedAt, value)
	if err != nil {
		return Number{}, err
	}
	return Number{Value: number, Sequence: value}, nil
}
