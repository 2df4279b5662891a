package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/smallbiznis/gstbook/pkg/db"
)

const (
	ReasonValidation           = "validation"
	ReasonNotFound             = "not_found"
	ReasonNumberingConflict    = "numbering_conflict"
	ReasonUniqueViolation      = "unique_violation"
	ReasonDBLockTimeout        = "db_lock_timeout"
	ReasonSerializationFailure = "serialization_failure"
	ReasonDeadlineExceeded     = "deadline_exceeded"
	ReasonUnknown              = "unknown"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// InvoiceMetrics tracks invoice write throughput, failures and numbering
// contention.
type InvoiceMetrics struct {
	written       *prometheus.CounterVec
	failures      *prometheus.CounterVec
	numberRetries *prometheus.CounterVec
	totalAmount   *prometheus.HistogramVec
	txDuration    *prometheus.HistogramVec
}

// NewInvoiceMetrics registers invoice metrics on the given registerer.
func NewInvoiceMetrics(registerer prometheus.Registerer, cfg Config) *InvoiceMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels(cfg.constLabels())

	written := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gstbook_invoices_written_total",
		Help:        "Invoices written by operation and invoice type.",
		ConstLabels: constLabels,
	}, []string{"operation", "invoice_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gstbook_invoice_failures_total",
		Help:        "Failed invoice writes by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"operation", "reason"})
	numberRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gstbook_invoice_number_retries_total",
		Help:        "Invoice numbers redrawn because the candidate was already taken.",
		ConstLabels: constLabels,
	}, []string{"invoice_type"})
	totalAmount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "gstbook_invoice_total_amount",
		Help:        "Grand total of created invoices.",
		Buckets:     []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000},
		ConstLabels: constLabels,
	}, []string{"invoice_type"})
	txDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "gstbook_invoice_tx_duration_seconds",
		Help:        "Invoice write transaction latency.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"operation"})

	registerer.MustRegister(written, failures, numberRetries, totalAmount, txDuration)

	return &InvoiceMetrics{
		written:       written,
		failures:      failures,
		numberRetries: numberRetries,
		totalAmount:   totalAmount,
		txDuration:    txDuration,
	}
}

// RecordCreated counts a created invoice and observes its grand total.
func (m *InvoiceMetrics) RecordCreated(invoiceType string, total float64) {
	if m == nil {
		return
	}
	invoiceType = strings.TrimSpace(invoiceType)
	m.written.WithLabelValues(OperationCreate, invoiceType).Inc()
	m.totalAmount.WithLabelValues(invoiceType).Observe(total)
}

func (m *InvoiceMetrics) RecordWritten(operation, invoiceType string) {
	if m == nil {
		return
	}
	m.written.WithLabelValues(operation, strings.TrimSpace(invoiceType)).Inc()
}

func (m *InvoiceMetrics) RecordFailure(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(operation, ClassifyInvoiceError(err)).Inc()
}

func (m *InvoiceMetrics) IncNumberRetry(invoiceType string) {
	if m == nil {
		return
	}
	m.numberRetries.WithLabelValues(strings.TrimSpace(invoiceType)).Inc()
}

func (m *InvoiceMetrics) ObserveTx(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.txDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ClassifyInvoiceError maps invoice write errors to low-cardinality reasons.
func ClassifyInvoiceError(err error) string {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonDeadlineExceeded
	}
	if errors.Is(err, invoicedomain.ErrInvoiceNumberConflict) {
		return ReasonNumberingConflict
	}
	if errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
		return ReasonNotFound
	}
	if isValidationError(err) {
		return ReasonValidation
	}
	if isDBLockTimeout(err) {
		return ReasonDBLockTimeout
	}
	if isSerializationFailure(err) {
		return ReasonSerializationFailure
	}
	if isUniqueViolation(err) {
		return ReasonUniqueViolation
	}
	return ReasonUnknown
}

var validationErrors = []error{
	invoicedomain.ErrInvalidBusiness,
	invoicedomain.ErrInvalidUser,
	invoicedomain.ErrInvalidInvoiceID,
	invoicedomain.ErrInvalidInvoiceType,
	invoicedomain.ErrInvalidParty,
	invoicedomain.ErrInvalidInvoiceDate,
	invoicedomain.ErrInvalidDueDate,
	invoicedomain.ErrInvalidStatus,
	invoicedomain.ErrInvalidPaymentStatus,
	invoicedomain.ErrInvalidItemName,
	invoicedomain.ErrEmptyItems,
	taxdomain.ErrInvalidQuantity,
	taxdomain.ErrInvalidUnitPrice,
	taxdomain.ErrInvalidDiscount,
	taxdomain.ErrInvalidTaxRate,
	taxdomain.ErrInvalidCessRate,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isDBLockTimeout(err error) bool {
	return db.IsLockTimeoutErr(err)
}

func isSerializationFailure(err error) bool {
	return db.IsSerializationErr(err)
}

func isUniqueViolation(err error) bool {
	return db.IsDuplicateKeyErr(err)
}
