package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/smallbiznis/gstbook/internal/idempotency"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		field   string
		code    string
		message string
	}{
		{
			name:   "line error",
			err:    fmt.Errorf("create: %w", &invoicedomain.LineError{Index: 1, Err: taxdomain.ErrInvalidCessRate}),
			status: http.StatusBadRequest, kind: "validation_error",
			field: "items[1].cess_rate", code: "invalid_cess_rate", message: "invalid value",
		},
		{
			name:   "empty items",
			err:    invoicedomain.ErrEmptyItems,
			status: http.StatusBadRequest, kind: "validation_error",
			field: "items", code: "invalid_items", message: "at least one item is required",
		},
		{
			name:   "idempotency key",
			err:    idempotency.ErrInvalidKey,
			status: http.StatusBadRequest, kind: "validation_error",
			field: "idempotency_key", code: "invalid_idempotency_key", message: "invalid value",
		},
		{
			name:   "number conflict",
			err:    fmt.Errorf("insert: %w", invoicedomain.ErrInvoiceNumberConflict),
			status: http.StatusConflict, kind: "conflict",
			message: "invoice number already taken, retry the request",
		},
		{
			name:   "record not found",
			err:    gorm.ErrRecordNotFound,
			status: http.StatusNotFound, kind: "not_found", message: "not found",
		},
		{
			name:   "unavailable",
			err:    ErrServiceUnavailable,
			status: http.StatusServiceUnavailable, kind: "service_unavailable", message: "service unavailable",
		},
		{
			name:   "nil",
			status: http.StatusInternalServerError, kind: "internal_error", message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, payload.Type)
			if tt.code == "" {
				assert.Empty(t, payload.Errors)
				assert.Equal(t, tt.message, payload.Message)
				return
			}
			require.Len(t, payload.Errors, 1)
			assert.Equal(t, tt.field, payload.Errors[0].Field)
			assert.Equal(t, tt.code, payload.Errors[0].Code)
			assert.Equal(t, tt.message, payload.Errors[0].Message)
		})
	}
}
