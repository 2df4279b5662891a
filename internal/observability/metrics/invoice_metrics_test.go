package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyInvoiceError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ReasonUnknown},
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonDeadlineExceeded},
		{name: "numbering conflict", err: invoicedomain.ErrInvoiceNumberConflict, want: ReasonNumberingConflict},
		{name: "not found", err: invoicedomain.ErrInvoiceNotFound, want: ReasonNotFound},
		{name: "line validation", err: &invoicedomain.LineError{Index: 2, Err: taxdomain.ErrInvalidTaxRate}, want: ReasonValidation},
		{name: "wrapped validation", err: fmt.Errorf("create: %w", invoicedomain.ErrInvalidParty), want: ReasonValidation},
		{name: "lock timeout", err: &pgconn.PgError{Code: "55P03"}, want: ReasonDBLockTimeout},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: ReasonSerializationFailure},
		{name: "unique pg", err: &pgconn.PgError{Code: "23505"}, want: ReasonUniqueViolation},
		{name: "unique gorm", err: gorm.ErrDuplicatedKey, want: ReasonUniqueViolation},
		{name: "other", err: errors.New("boom"), want: ReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyInvoiceError(tc.err))
		})
	}
}

func TestInvoiceMetricsRecord(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewInvoiceMetrics(registry, Config{ServiceName: "gstbook", Environment: "test"})

	m.RecordCreated("sale", 1180)
	m.RecordCreated("sale", 590)
	m.RecordWritten(OperationUpdate, "purchase")
	m.IncNumberRetry("sale")
	m.RecordFailure(OperationCreate, invoicedomain.ErrInvoiceNumberConflict)
	m.RecordFailure(OperationCreate, nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.written.WithLabelValues(OperationCreate, "sale")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.written.WithLabelValues(OperationUpdate, "purchase")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.numberRetries.WithLabelValues("sale")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures.WithLabelValues(OperationCreate, ReasonNumberingConflict)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.totalAmount))
}

func TestNilInvoiceMetricsIsSafe(t *testing.T) {
	var m *InvoiceMetrics
	assert.NotPanics(t, func() {
		m.RecordCreated("sale", 1)
		m.RecordFailure(OperationCreate, errors.New("x"))
		m.IncNumberRetry("sale")
	})
}
