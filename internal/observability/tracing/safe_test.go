package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributes(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/invoices"),
		attribute.String("idempotency_key", "secret"),
		attribute.String("note", strings.Repeat("x", 300)),
		attribute.Int("http.status_code", 201),
	)

	assert.Len(t, attrs, 3)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
	assert.Len(t, attrs[1].Value.AsString(), maxAttributeLength)
	assert.Equal(t, int64(201), attrs[2].Value.AsInt64())
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.Equal(t, "boom", SafeError(errors.New(" boom ")).Error())
}
