package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/config"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/internal/invoice/numbering"
	"github.com/smallbiznis/gstbook/internal/observability/logger"
	"github.com/smallbiznis/gstbook/internal/observability/metrics"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	taxservice "github.com/smallbiznis/gstbook/internal/tax/service"
	"github.com/smallbiznis/gstbook/pkg/db"
	"github.com/smallbiznis/gstbook/pkg/db/option"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    config.InvoicingConfigProvider
	Sequencer *numbering.Sequencer
	Invoices  invoicedomain.Repository
	Items     invoicedomain.ItemRepository
	Metrics   *metrics.InvoiceMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clock     clock.Clock
	cfg       config.InvoicingConfigProvider
	sequencer *numbering.Sequencer
	invoices  invoicedomain.Repository
	items     invoicedomain.ItemRepository
	metrics   *metrics.InvoiceMetrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("invoice.service"),

		genID:     p.GenID,
		clock:     p.Clock,
		cfg:       p.Config,
		sequencer: p.Sequencer,
		invoices:  p.Invoices,
		items:     p.Items,
		metrics:   p.Metrics,
	}
}

// resolvedItem pairs a trimmed request line with its validated numbers.
type resolvedItem struct {
	req   invoicedomain.ItemRequest
	input taxdomain.ResolvedInput
}

// CreateInvoice assigns a number, computes totals and persists the header
// with its items in a single transaction.
func (s *Service) CreateInvoice(ctx context.Context, businessID, userID snowflake.ID, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	if businessID == 0 {
		return nil, invoicedomain.ErrInvalidBusiness
	}
	if userID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}
	if !req.InvoiceType.Valid() {
		return nil, invoicedomain.ErrInvalidInvoiceType
	}
	if req.PartyID == 0 {
		return nil, invoicedomain.ErrInvalidParty
	}
	status := invoicedomain.InvoiceStatusDraft
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, invoicedomain.ErrInvalidStatus
		}
		status = *req.Status
	}
	items, err := resolveItems(req.Items)
	if err != nil {
		return nil, err
	}

	cfg := s.cfg.Get()
	now := s.clock.Now()
	invoiceDate := dateOnly(now)
	if req.InvoiceDate != nil {
		if req.InvoiceDate.IsZero() {
			return nil, invoicedomain.ErrInvalidInvoiceDate
		}
		invoiceDate = dateOnly(*req.InvoiceDate)
	}
	dueDate := invoiceDate.AddDate(0, 0, cfg.DefaultDueDays)
	if req.DueDate != nil {
		dueDate = dateOnly(*req.DueDate)
	}
	if dueDate.Before(invoiceDate) {
		return nil, invoicedomain.ErrInvalidDueDate
	}

	lines := resolveLines(items, req.IsInterstate, req.IsTaxInclusive)
	totals := taxservice.Aggregate(lines)

	log := logger.WithContext(ctx, s.log).With(
		zap.String("invoice_type", string(req.InvoiceType)),
	)

	start := time.Now()
	var created *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.claimNumber(ctx, tx, businessID, req.InvoiceType, invoiceDate, cfg.Numbering.MaxAttempts, log)
		if err != nil {
			return err
		}

		invoice := invoicedomain.Invoice{
			ID:             s.genID.Generate(),
			BusinessID:     businessID,
			PartyID:        req.PartyID,
			InvoiceType:    req.InvoiceType,
			InvoiceNumber:  number,
			InvoiceDate:    invoiceDate,
			DueDate:        dueDate,
			PlaceOfSupply:  strings.TrimSpace(req.PlaceOfSupply),
			IsInterstate:   req.IsInterstate,
			IsExport:       req.IsExport,
			IsRCM:          req.IsRCM,
			IsTaxInclusive: req.IsTaxInclusive,
			Status:         status,
			PaymentStatus:  invoicedomain.PaymentStatusUnpaid,
			Notes:          strings.TrimSpace(req.Notes),
			Terms:          strings.TrimSpace(req.Terms),
			CreatedBy:      userID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if len(req.Metadata) > 0 {
			invoice.Metadata = datatypes.JSONMap(req.Metadata)
		}
		invoice.ApplyTotals(totals)

		if err := s.invoices.Insert(ctx, tx, &invoice); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return invoicedomain.ErrInvoiceNumberConflict
			}
			return fmt.Errorf("insert invoice: %w", err)
		}

		rows := s.buildItems(invoice, items, lines, now)
		if err := s.items.InsertBatch(ctx, tx, rows); err != nil {
			return fmt.Errorf("insert invoice items: %w", err)
		}

		reloaded, err := s.invoices.FindByID(ctx, tx, businessID, invoice.ID)
		if err != nil {
			return err
		}
		if reloaded == nil {
			return invoicedomain.ErrInvoiceMissingAfterInsert
		}
		created = reloaded
		return nil
	})
	s.metrics.ObserveTx(metrics.OperationCreate, time.Since(start))
	if err != nil {
		s.metrics.RecordFailure(metrics.OperationCreate, err)
		if errors.Is(err, invoicedomain.ErrInvoiceMissingAfterInsert) {
			log.Error("invoice missing after insert", zap.Error(err))
		} else {
			log.Warn("create invoice failed", zap.Error(err))
		}
		return nil, err
	}

	s.metrics.RecordCreated(string(created.InvoiceType), created.TotalAmount.InexactFloat64())
	log.Info("invoice created",
		zap.String("invoice_id", created.ID.String()),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.Int("items", len(created.Items)),
	)
	return created, nil
}

// claimNumber draws numbers until one is free. Counter-issued numbers only
// collide with rows written outside the counter (legacy imports), so the
// loop is bounded.
func (s *Service) claimNumber(ctx context.Context, tx *gorm.DB, businessID snowflake.ID, invoiceType invoicedomain.InvoiceType, issuedAt time.Time, maxAttempts int, log *zap.Logger) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		number, err := s.sequencer.NextInTx(ctx, tx, businessID, invoiceType, issuedAt)
		if err != nil {
			return "", err
		}
		taken, err := s.invoices.ExistsByNumber(ctx, tx, businessID, invoiceType, number.Value)
		if err != nil {
			return "", err
		}
		if !taken {
			return number.Value, nil
		}
		s.metrics.IncNumberRetry(string(invoiceType))
		log.Warn("invoice number already taken",
			zap.String("invoice_number", number.Value),
			zap.Int("attempt", attempt),
		)
	}
	return "", invoicedomain.ErrInvoiceNumberConflict
}

// UpdateInvoice patches header fields and, when items are given or the tax
// regime flags change, replaces every line and recomputes totals.
func (s *Service) UpdateInvoice(ctx context.Context, businessID, id snowflake.ID, req invoicedomain.UpdateInvoiceRequest) (*invoicedomain.Invoice, error) {
	if businessID == 0 {
		return nil, invoicedomain.ErrInvalidBusiness
	}
	if id == 0 {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}
	if req.PartyID != nil && *req.PartyID == 0 {
		return nil, invoicedomain.ErrInvalidParty
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, invoicedomain.ErrInvalidStatus
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.Valid() {
		return nil, invoicedomain.ErrInvalidPaymentStatus
	}
	if req.InvoiceDate != nil && req.InvoiceDate.IsZero() {
		return nil, invoicedomain.ErrInvalidInvoiceDate
	}
	var replacement []resolvedItem
	if req.Items != nil {
		resolved, err := resolveItems(req.Items)
		if err != nil {
			return nil, err
		}
		replacement = resolved
	}

	log := logger.WithContext(ctx, s.log).With(zap.String("invoice_id", id.String()))

	start := time.Now()
	var updated *invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoices.FindByIDForUpdate(ctx, tx, businessID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		now := s.clock.Now()
		patch := map[string]any{}

		if req.PartyID != nil {
			patch["party_id"] = *req.PartyID
		}
		invoiceDate := invoice.InvoiceDate
		dueDate := invoice.DueDate
		if req.InvoiceDate != nil {
			invoiceDate = dateOnly(*req.InvoiceDate)
			patch["invoice_date"] = invoiceDate
		}
		if req.DueDate != nil {
			dueDate = dateOnly(*req.DueDate)
			patch["due_date"] = dueDate
		}
		if dueDate.Before(invoiceDate) {
			return invoicedomain.ErrInvalidDueDate
		}
		if req.PlaceOfSupply != nil {
			patch["place_of_supply"] = strings.TrimSpace(*req.PlaceOfSupply)
		}
		if req.IsExport != nil {
			patch["is_export"] = *req.IsExport
		}
		if req.IsRCM != nil {
			patch["is_rcm"] = *req.IsRCM
		}
		if req.Status != nil {
			patch["status"] = *req.Status
		}
		if req.PaymentStatus != nil {
			patch["payment_status"] = *req.PaymentStatus
		}
		if req.Notes != nil {
			patch["notes"] = strings.TrimSpace(*req.Notes)
		}
		if req.Terms != nil {
			patch["terms"] = strings.TrimSpace(*req.Terms)
		}

		isInterstate := invoice.IsInterstate
		isTaxInclusive := invoice.IsTaxInclusive
		regimeChanged := false
		if req.IsInterstate != nil && *req.IsInterstate != isInterstate {
			isInterstate = *req.IsInterstate
			patch["is_interstate"] = isInterstate
			regimeChanged = true
		}
		if req.IsTaxInclusive != nil && *req.IsTaxInclusive != isTaxInclusive {
			isTaxInclusive = *req.IsTaxInclusive
			patch["is_tax_inclusive"] = isTaxInclusive
			regimeChanged = true
		}

		if req.Items != nil || regimeChanged {
			items := replacement
			var stored []*invoicedomain.InvoiceItem
			if req.Items == nil {
				stored, err = s.items.ListByInvoiceID(ctx, tx, invoice.ID)
				if err != nil {
					return fmt.Errorf("list invoice items: %w", err)
				}
				items = itemsFromStored(stored)
			}
			lines := resolveLines(items, isInterstate, isTaxInclusive)

			rows := s.buildItems(*invoice, items, lines, now)
			// Recomputation keeps the stored line identities.
			for i := range stored {
				rows[i].ID = stored[i].ID
				rows[i].CreatedAt = stored[i].CreatedAt
			}
			if err := s.items.DeleteByInvoiceID(ctx, tx, invoice.ID); err != nil {
				return fmt.Errorf("delete invoice items: %w", err)
			}
			if err := s.items.InsertBatch(ctx, tx, rows); err != nil {
				return fmt.Errorf("insert invoice items: %w", err)
			}

			totals := taxservice.Aggregate(lines)
			patch["subtotal"] = totals.Subtotal
			patch["discount_amount"] = totals.DiscountAmount
			patch["taxable_amount"] = totals.TaxableAmount
			patch["cgst_amount"] = totals.CGSTAmount
			patch["sgst_amount"] = totals.SGSTAmount
			patch["igst_amount"] = totals.IGSTAmount
			patch["cess_amount"] = totals.CessAmount
			patch["total_amount"] = totals.TotalAmount
		}

		if len(patch) > 0 {
			patch["updated_at"] = now
			if err := s.invoices.Update(ctx, tx, businessID, invoice.ID, patch); err != nil {
				return fmt.Errorf("update invoice: %w", err)
			}
		}

		reloaded, err := s.invoices.FindByID(ctx, tx, businessID, invoice.ID)
		if err != nil {
			return err
		}
		if reloaded == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		updated = reloaded
		return nil
	})
	s.metrics.ObserveTx(metrics.OperationUpdate, time.Since(start))
	if err != nil {
		s.metrics.RecordFailure(metrics.OperationUpdate, err)
		log.Warn("update invoice failed", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordWritten(metrics.OperationUpdate, string(updated.InvoiceType))
	log.Info("invoice updated", zap.Bool("items_replaced", req.Items != nil))
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, businessID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	if businessID == 0 {
		return nil, invoicedomain.ErrInvalidBusiness
	}
	if id == 0 {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}

	invoice, err := s.invoices.FindByID(ctx, s.db, businessID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, businessID snowflake.ID, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	if businessID == 0 {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidBusiness
	}
	if req.InvoiceType != nil && !req.InvoiceType.Valid() {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidInvoiceType
	}
	if req.Status != nil && !req.Status.Valid() {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.Valid() {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidPaymentStatus
	}

	pageSize := option.NormalizePageSize(req.PageSize)
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize}

	invoices, err := s.invoices.List(ctx, s.db, businessID, req.ListInvoiceFilter, page)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(invoices, int32(pageSize), func(inv *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: inv.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})
	if len(invoices) > pageSize {
		invoices = invoices[:pageSize]
	}
	if invoices == nil {
		invoices = []*invoicedomain.Invoice{}
	}

	return invoicedomain.ListInvoiceResponse{
		PageInfo: *pageInfo,
		Invoices: invoices,
	}, nil
}

// Delete soft-deletes the invoice. Its number stays reserved.
func (s *Service) Delete(ctx context.Context, businessID, id snowflake.ID) error {
	if businessID == 0 {
		return invoicedomain.ErrInvalidBusiness
	}
	if id == 0 {
		return invoicedomain.ErrInvalidInvoiceID
	}

	deleted, err := s.invoices.SoftDelete(ctx, s.db, businessID, id)
	if err != nil {
		s.metrics.RecordFailure(metrics.OperationDelete, err)
		return err
	}
	if !deleted {
		return invoicedomain.ErrInvoiceNotFound
	}
	s.metrics.RecordWritten(metrics.OperationDelete, "")
	logger.WithContext(ctx, s.log).Info("invoice deleted", zap.String("invoice_id", id.String()))
	return nil
}

// Quote computes line breakdowns and totals without persisting anything.
func (s *Service) Quote(_ context.Context, req invoicedomain.QuoteRequest) (invoicedomain.QuoteResponse, error) {
	items, err := resolveItems(req.Items)
	if err != nil {
		return invoicedomain.QuoteResponse{}, err
	}

	lines := resolveLines(items, req.IsInterstate, req.IsTaxInclusive)
	out := make([]invoicedomain.QuoteLine, 0, len(lines))
	for i, line := range lines {
		out = append(out, invoicedomain.QuoteLine{
			ItemName: items[i].req.ItemName,
			HSNCode:  items[i].req.HSNCode,
			Line:     line,
		})
	}
	return invoicedomain.QuoteResponse{
		Items:  out,
		Totals: taxservice.Aggregate(lines),
	}, nil
}

// PreviewNumber returns the number the next invoice of the type would get.
func (s *Service) PreviewNumber(ctx context.Context, businessID snowflake.ID, invoiceType invoicedomain.InvoiceType) (string, error) {
	number, err := s.sequencer.Peek(ctx, businessID, invoiceType, dateOnly(s.clock.Now()))
	if err != nil {
		return "", err
	}
	return number.Value, nil
}

func (s *Service) buildItems(invoice invoicedomain.Invoice, items []resolvedItem, lines []taxdomain.Line, now time.Time) []*invoicedomain.InvoiceItem {
	rows := make([]*invoicedomain.InvoiceItem, 0, len(items))
	for i, item := range items {
		row := &invoicedomain.InvoiceItem{
			ID:              s.genID.Generate(),
			BusinessID:      invoice.BusinessID,
			InvoiceID:       invoice.ID,
			ItemID:          item.req.ItemID,
			ItemName:        item.req.ItemName,
			HSNCode:         item.req.HSNCode,
			Unit:            item.req.Unit,
			SortOrder:       i,
			Quantity:        item.input.Quantity,
			UnitPrice:       item.input.UnitPrice,
			DiscountPercent: item.input.DiscountPercent,
			TaxRate:         item.input.TaxRate,
			CessRate:        item.input.CessRate,
			CreatedAt:       now,
		}
		row.ApplyLine(lines[i])
		rows = append(rows, row)
	}
	return rows
}

func resolveItems(reqs []invoicedomain.ItemRequest) ([]resolvedItem, error) {
	if len(reqs) == 0 {
		return nil, invoicedomain.ErrEmptyItems
	}
	out := make([]resolvedItem, 0, len(reqs))
	for i, r := range reqs {
		trimmed, input, err := r.Resolve()
		if err != nil {
			return nil, &invoicedomain.LineError{Index: i, Err: err}
		}
		out = append(out, resolvedItem{req: trimmed, input: input})
	}
	return out, nil
}

func itemsFromStored(stored []*invoicedomain.InvoiceItem) []resolvedItem {
	out := make([]resolvedItem, 0, len(stored))
	for _, it := range stored {
		out = append(out, resolvedItem{
			req: invoicedomain.ItemRequest{
				ItemID:   it.ItemID,
				ItemName: it.ItemName,
				HSNCode:  it.HSNCode,
				Unit:     it.Unit,
			},
			input: it.LineInput(),
		})
	}
	return out
}

func resolveLines(items []resolvedItem, isInterstate, isTaxInclusive bool) []taxdomain.Line {
	inputs := make([]taxdomain.ResolvedInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, item.input)
	}
	return taxservice.ResolveLines(inputs, isInterstate, isTaxInclusive)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
