package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gstbook/internal/businesscontext"
	"github.com/smallbiznis/gstbook/internal/idempotency"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/internal/observability/logger"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey      = "Idempotency-Key"
	HeaderIdempotencyReplayed = "Idempotent-Replayed"
)

type createInvoiceRequest struct {
	PartyID        string                      `json:"party_id"`
	InvoiceType    string                      `json:"invoice_type"`
	InvoiceDate    string                      `json:"invoice_date"`
	DueDate        string                      `json:"due_date"`
	PlaceOfSupply  string                      `json:"place_of_supply"`
	IsInterstate   bool                        `json:"is_interstate"`
	IsExport       bool                        `json:"is_export"`
	IsRCM          bool                        `json:"is_rcm"`
	IsTaxInclusive bool                        `json:"is_tax_inclusive"`
	Status         string                      `json:"status"`
	Notes          string                      `json:"notes"`
	Terms          string                      `json:"terms"`
	Metadata       map[string]any              `json:"metadata"`
	Items          []invoicedomain.ItemRequest `json:"items"`
}

type updateInvoiceRequest struct {
	PartyID        *string                      `json:"party_id"`
	InvoiceDate    *string                      `json:"invoice_date"`
	DueDate        *string                      `json:"due_date"`
	PlaceOfSupply  *string                      `json:"place_of_supply"`
	IsInterstate   *bool                        `json:"is_interstate"`
	IsExport       *bool                        `json:"is_export"`
	IsRCM          *bool                        `json:"is_rcm"`
	IsTaxInclusive *bool                        `json:"is_tax_inclusive"`
	Status         *invoicedomain.InvoiceStatus `json:"status"`
	PaymentStatus  *invoicedomain.PaymentStatus `json:"payment_status"`
	Notes          *string                      `json:"notes"`
	Terms          *string                      `json:"terms"`
	Items          []invoicedomain.ItemRequest  `json:"items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	create, err := req.toDomain()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	businessID, _ := businesscontext.BusinessIDFromContext(ctx)
	userID, _ := businesscontext.UserIDFromContext(ctx)

	key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if key == "" || !s.idempotency.Enabled() {
		invoice, err := s.invoiceSvc.CreateInvoice(ctx, businessID, userID, create)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": invoice})
		return
	}

	claim, err := s.idempotency.Begin(ctx, businessID, key)
	if err != nil {
		if errors.Is(err, idempotency.ErrInvalidKey) {
			AbortWithError(c, err)
			return
		}
		logger.WithContext(ctx, s.log).Error("idempotency lookup failed", zap.Error(err))
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	switch claim.State {
	case idempotency.StateCompleted:
		invoice, err := s.invoiceSvc.GetByID(ctx, businessID, claim.InvoiceID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Header(HeaderIdempotencyReplayed, "true")
		c.JSON(http.StatusOK, gin.H{"data": invoice})
		return
	case idempotency.StateInFlight:
		AbortWithError(c, invoicedomain.ErrIdempotencyInFlight)
		return
	}

	invoice, err := s.invoiceSvc.CreateInvoice(ctx, businessID, userID, create)
	if err != nil {
		s.releaseClaim(ctx, claim)
		AbortWithError(c, err)
		return
	}

	if err := s.idempotency.Complete(ctx, claim, invoice.ID, s.invoicing.Get().IdempotencyTTL); err != nil {
		logger.WithContext(ctx, s.log).Warn("idempotency complete failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

func (s *Server) releaseClaim(ctx context.Context, claim idempotency.Claim) {
	if err := s.idempotency.Release(ctx, claim); err != nil {
		logger.WithContext(ctx, s.log).Warn("idempotency release failed", zap.Error(err))
	}
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, ok := businesscontext.ParseID(c.Param("id"))
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update, err := req.toDomain()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	businessID, _ := businesscontext.BusinessIDFromContext(c.Request.Context())
	invoice, err := s.invoiceSvc.UpdateInvoice(c.Request.Context(), businessID, id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := businesscontext.ParseID(c.Param("id"))
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	businessID, _ := businesscontext.BusinessIDFromContext(c.Request.Context())
	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), businessID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		InvoiceType   string `form:"invoice_type"`
		Status        string `form:"status"`
		PaymentStatus string `form:"payment_status"`
		PartyID       string `form:"party_id"`
		DateFrom      string `form:"date_from"`
		DateTo        string `form:"date_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var filter invoicedomain.ListInvoiceFilter
	var err error
	if filter.InvoiceType, err = parseOptionalEnum(query.InvoiceType, invoicedomain.InvoiceType.Valid); err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidInvoiceType)
		return
	}
	if filter.Status, err = parseOptionalEnum(query.Status, invoicedomain.InvoiceStatus.Valid); err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidStatus)
		return
	}
	if filter.PaymentStatus, err = parseOptionalEnum(query.PaymentStatus, invoicedomain.PaymentStatus.Valid); err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidPaymentStatus)
		return
	}
	if filter.PartyID, err = parseOptionalSnowflakeID(query.PartyID); err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidParty)
		return
	}
	if filter.DateFrom, err = parseOptionalDate(query.DateFrom); err != nil {
		AbortWithError(c, newValidationError("date_from", "invalid_date_from", "invalid date_from"))
		return
	}
	if filter.DateTo, err = parseOptionalDate(query.DateTo); err != nil {
		AbortWithError(c, newValidationError("date_to", "invalid_date_to", "invalid date_to"))
		return
	}

	businessID, _ := businesscontext.BusinessIDFromContext(c.Request.Context())
	resp, err := s.invoiceSvc.List(c.Request.Context(), businessID, invoicedomain.ListInvoiceRequest{
		ListInvoiceFilter: filter,
		Pagination:        query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      resp.Invoices,
		"page_info": resp.PageInfo,
	})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id, ok := businesscontext.ParseID(c.Param("id"))
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	businessID, _ := businesscontext.BusinessIDFromContext(c.Request.Context())
	if err := s.invoiceSvc.Delete(c.Request.Context(), businessID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) QuoteInvoice(c *gin.Context) {
	var req invoicedomain.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Quote(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PreviewInvoiceNumber(c *gin.Context) {
	invoiceType, err := parseOptionalEnum(c.Query("type"), invoicedomain.InvoiceType.Valid)
	if err != nil || invoiceType == nil {
		AbortWithError(c, invoicedomain.ErrInvalidInvoiceType)
		return
	}

	businessID, _ := businesscontext.BusinessIDFromContext(c.Request.Context())
	number, err := s.invoiceSvc.PreviewNumber(c.Request.Context(), businessID, *invoiceType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"invoice_type":   *invoiceType,
		"invoice_number": number,
	}})
}

func (r createInvoiceRequest) toDomain() (invoicedomain.CreateInvoiceRequest, error) {
	out := invoicedomain.CreateInvoiceRequest{
		InvoiceType:    invoicedomain.InvoiceType(strings.ToLower(strings.TrimSpace(r.InvoiceType))),
		PlaceOfSupply:  strings.TrimSpace(r.PlaceOfSupply),
		IsInterstate:   r.IsInterstate,
		IsExport:       r.IsExport,
		IsRCM:          r.IsRCM,
		IsTaxInclusive: r.IsTaxInclusive,
		Notes:          r.Notes,
		Terms:          r.Terms,
		Metadata:       r.Metadata,
		Items:          r.Items,
	}

	partyID, err := parseOptionalSnowflakeID(r.PartyID)
	if err != nil || partyID == nil {
		return out, invoicedomain.ErrInvalidParty
	}
	out.PartyID = *partyID

	if out.InvoiceDate, err = parseOptionalDate(r.InvoiceDate); err != nil {
		return out, invoicedomain.ErrInvalidInvoiceDate
	}
	if out.DueDate, err = parseOptionalDate(r.DueDate); err != nil {
		return out, invoicedomain.ErrInvalidDueDate
	}
	if out.Status, err = parseOptionalEnum(r.Status, invoicedomain.InvoiceStatus.Valid); err != nil {
		return out, invoicedomain.ErrInvalidStatus
	}
	return out, nil
}

func (r updateInvoiceRequest) toDomain() (invoicedomain.UpdateInvoiceRequest, error) {
	out := invoicedomain.UpdateInvoiceRequest{
		PlaceOfSupply:  r.PlaceOfSupply,
		IsInterstate:   r.IsInterstate,
		IsExport:       r.IsExport,
		IsRCM:          r.IsRCM,
		IsTaxInclusive: r.IsTaxInclusive,
		Status:         r.Status,
		PaymentStatus:  r.PaymentStatus,
		Notes:          r.Notes,
		Terms:          r.Terms,
		Items:          r.Items,
	}

	var err error
	if r.PartyID != nil {
		partyID, err := parseOptionalSnowflakeID(*r.PartyID)
		if err != nil || partyID == nil {
			return out, invoicedomain.ErrInvalidParty
		}
		out.PartyID = partyID
	}
	if r.InvoiceDate != nil {
		if out.InvoiceDate, err = parseOptionalDate(*r.InvoiceDate); err != nil || out.InvoiceDate == nil {
			return out, invoicedomain.ErrInvalidInvoiceDate
		}
	}
	if r.DueDate != nil {
		if out.DueDate, err = parseOptionalDate(*r.DueDate); err != nil || out.DueDate == nil {
			return out, invoicedomain.ErrInvalidDueDate
		}
	}
	return out, nil
}
