package server

import (
	"context"
	"net/http"
	"testing"

	referencedomain "github.com/smallbiznis/gstbook/internal/reference/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStates struct{}

func (fakeStates) ListStates(ctx context.Context) ([]referencedomain.State, error) {
	return []referencedomain.State{
		{Code: "27", Name: "Maharashtra"},
		{Code: "29", Name: "Karnataka"},
	}, nil
}

func (fakeStates) FindState(ctx context.Context, code string) (*referencedomain.State, error) {
	if code == "27" {
		return &referencedomain.State{Code: "27", Name: "Maharashtra"}, nil
	}
	return nil, referencedomain.ErrStateNotFound
}

func TestReferenceStates(t *testing.T) {
	s := newTestServer(t, new(mockInvoiceService))

	// No business header needed for reference data.
	rec := doRequest(t, s, http.MethodGet, "/api/reference/states", nil, map[string]string{HeaderBusiness: ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Karnataka")

	rec = doRequest(t, s, http.MethodGet, "/api/reference/states/27", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Maharashtra")

	rec = doRequest(t, s, http.MethodGet, "/api/reference/states/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassifyErrorForLog(t *testing.T) {
	typ, code := classifyErrorForLog(ErrUnauthorized)
	assert.Equal(t, "unauthorized", typ)
	assert.Equal(t, "unauthorized", code)

	typ, code = classifyErrorForLog(referencedomain.ErrStateNotFound)
	assert.Equal(t, "not_found", typ)
	assert.Equal(t, "state_not_found", code)

	typ, code = classifyErrorForLog(assert.AnError)
	assert.Equal(t, "internal_error", typ)
	assert.Equal(t, "internal_error", code)
}
