package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gstbook/internal/idempotency"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	referencedomain "github.com/smallbiznis/gstbook/internal/reference/domain"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// validationSentinels become 400 responses. The field is derived from the
// sentinel's "invalid_<field>" text.
var validationSentinels = []error{
	ErrInvalidRequest,
	idempotency.ErrInvalidKey,

	taxdomain.ErrInvalidQuantity,
	taxdomain.ErrInvalidUnitPrice,
	taxdomain.ErrInvalidDiscount,
	taxdomain.ErrInvalidTaxRate,
	taxdomain.ErrInvalidCessRate,

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
}

type errorClass struct {
	status  int
	kind    string
	message string
	matches []error
}

var errorClasses = []errorClass{
	{http.StatusUnauthorized, "unauthorized", "unauthorized", []error{ErrUnauthorized}},
	{http.StatusConflict, "conflict", "conflict", []error{
		ErrConflict,
		invoicedomain.ErrInvoiceNumberConflict,
		invoicedomain.ErrIdempotencyInFlight,
	}},
	{http.StatusNotFound, "not_found", "not found", []error{
		ErrNotFound,
		invoicedomain.ErrInvoiceNotFound,
		referencedomain.ErrStateNotFound,
		gorm.ErrRecordNotFound,
	}},
	{http.StatusServiceUnavailable, "service_unavailable", "service unavailable", []error{ErrServiceUnavailable}},
}

var messages = map[error]string{
	invoicedomain.ErrInvoiceNumberConflict: "invoice number already taken, retry the request",
	invoicedomain.ErrIdempotencyInFlight:   "a request with this idempotency key is in progress",
	invoicedomain.ErrEmptyItems:            "at least one item is required",
	ErrInvalidRequest:                      "invalid request",
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}
	if sentinel := matchAny(err, validationSentinels); sentinel != nil {
		code := sentinel.Error()
		field := validationErrorField(code)
		var lineErr *invoicedomain.LineError
		if errors.As(err, &lineErr) {
			field = fmt.Sprintf("items[%d].%s", lineErr.Index, field)
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   field,
				Code:    code,
				Message: messageFor(sentinel, "invalid value"),
			}},
		}
	}
	for _, class := range errorClasses {
		if sentinel := matchAny(err, class.matches); sentinel != nil {
			return class.status, errorPayload{
				Type:    class.kind,
				Message: messageFor(sentinel, class.message),
			}
		}
	}
	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog reports the response type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if err != nil && payload.Type != "internal_error" {
		code = err.Error()
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func matchAny(err error, targets []error) error {
	if err == nil {
		return nil
	}
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

func messageFor(sentinel error, fallback string) string {
	if msg, ok := messages[sentinel]; ok {
		return msg
	}
	return fallback
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	return strings.TrimPrefix(code, "invalid_")
}
