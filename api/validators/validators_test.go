package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
)

type createBody struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity"`
}

func TestDecodeJSONBody(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"customer_id":"`+id+`","quantity":0}`))
	var body createBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, id, body.CustomerID)
	assert.Equal(t, 0, body.Quantity)
}

func TestDecodeJSONBodyValidationDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"customer_id":"nope"}`))
	var body createBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid UUID", details["customer_id"])
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"unknown field": `{"customer_id":"` + uuid.NewString() + `","extra":1}`,
		"trailing data": `{"customer_id":"` + uuid.NewString() + `"} {}`,
		"not json":      `quantity=1`,
		"wrong type":    `{"customer_id":"` + uuid.NewString() + `","quantity":"1"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var body createBody
			err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)), &body)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	got, err := ParseUUIDParam(withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderID", id.String()), "orderID")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, raw := range []string{"", "abc", uuid.Nil.String()} {
		_, err := ParseUUIDParam(withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderID", raw), "orderID")
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "raw=%q", raw)
	}
}

func TestParseQueryUUID(t *testing.T) {
	_, ok, err := ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/orders", nil), "customer_id")
	require.NoError(t, err)
	assert.False(t, ok)

	id := uuid.New()
	got, ok, err := ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/orders?customer_id="+id.String(), nil), "customer_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, _, err = ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/orders?customer_id=bad", nil), "customer_id")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
