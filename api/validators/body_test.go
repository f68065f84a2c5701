package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/qyve/storefront/pkg/errors"
)

type testAddress struct {
	City       string `json:"city" validate:"required,max=60"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
}

type testItem struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=99"`
}

type testOrder struct {
	Address testAddress `json:"shipping_address" validate:"required"`
	Items   []testItem  `json:"items" validate:"dive"`
	Hex     string      `json:"hex,omitempty" validate:"omitempty,hexcolor"`
}

func decode(t *testing.T, body string) (*testOrder, *pkgerrors.Error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	var dest testOrder
	err := DecodeJSONBody(req, &dest)
	if err == nil {
		return &dest, nil
	}
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	return nil, typed
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	_, err := decode(t, `{"shipping_address":{"postal_code":"12345"},"items":[{"quantity":1},{"quantity":120}],"hex":"blue"}`)
	require.NotNil(t, err)

	details, ok := err.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "is required", details["shipping_address.city"])
	require.Equal(t, "must be at most 99", details["items[1].quantity"])
	require.Equal(t, "must be a hex color such as #1A2B3C", details["hex"])
	require.NotContains(t, details, "items[0].quantity")
}

func TestDecodeJSONBodyAcceptsValidOrder(t *testing.T) {
	dest, err := decode(t, `{"shipping_address":{"city":"Jakarta","postal_code":"12345"},"items":[{"quantity":2}],"hex":"#112233"}`)
	require.Nil(t, err)
	require.Equal(t, "Jakarta", dest.Address.City)
	require.Equal(t, 2, dest.Items[0].Quantity)
}

func TestDecodeJSONBodyRejectsMalformedBodies(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{name: "empty", body: "", message: "request body is required"},
		{name: "unknown field", body: `{"coupon":"X"}`, message: "invalid request body"},
		{name: "two objects", body: `{"items":[]} {"items":[]}`, message: "request body must contain a single JSON object"},
		{name: "too large", body: `{"hex":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, message: "request body too large"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decode(t, tc.body)
			require.NotNil(t, err)
			require.Equal(t, tc.message, err.Message())
		})
	}
}

func TestDecodeJSONBodyNamesMistypedField(t *testing.T) {
	_, err := decode(t, `{"items":[{"quantity":"two"}]}`)
	require.NotNil(t, err)
	details, ok := err.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be a int", details["items.quantity"])
}
