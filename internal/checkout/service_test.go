package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/qyve/storefront/internal/cart"
	"github.com/qyve/storefront/pkg/db/models"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
	qstripe "github.com/qyve/storefront/pkg/stripe"
	"github.com/qyve/storefront/pkg/types"
)

type fakeGateway struct {
	params   *stripe.CheckoutSessionParams
	calls    int
	promoID  string
	promoErr error
	err      error
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/pay/cs_test_123"}, nil
}

func (f *fakeGateway) FindActivePromotionCode(ctx context.Context, code string) (string, error) {
	if f.promoErr != nil {
		return "", f.promoErr
	}
	return f.promoID, nil
}

type fakeSizes struct {
	sizes map[uuid.UUID]models.ProductSize
	err   error
}

func (f fakeSizes) FindSize(ctx context.Context, id uuid.UUID) (*models.ProductSize, error) {
	if f.err != nil {
		return nil, f.err
	}
	size, ok := f.sizes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &size, nil
}

func newTestService(t *testing.T, gateway Gateway, sizes sizeFinder) Service {
	t.Helper()
	svc, err := NewService(gateway, sizes, Config{BaseURL: "https://qyve.id/"}, logger.New(logger.Options{Output: io.Discard}), nil)
	require.NoError(t, err)
	return svc
}

func baseInput() SessionInput {
	return SessionInput{
		Items: []ItemInput{
			{ID: uuid.NewString(), Name: "Home Jersey", Image: "https://cdn.qyve.id/a.jpg", Price: decimal.RequireFromString("12.995"), Quantity: 2, Size: "M"},
		},
		ShippingAddress: types.ShippingAddress{Line1: "Jl. Sudirman 1", City: "Jakarta", PostalCode: "10210", Country: "id"},
		ContactInfo:     types.ContactInfo{FullName: "Rina", Email: "Rina@Example.com"},
		ShippingPrice:   decimal.RequireFromString("1.50"),
	}
}

func TestCreateSessionEmptyCartSkipsProvider(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(t, gateway, fakeSizes{})

	input := baseInput()
	input.Items = nil
	_, err := svc.CreateSession(context.Background(), input)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	require.Zero(t, gateway.calls)
}

func TestCreateSessionBuyer(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(t, gateway, fakeSizes{})
	userID := uuid.New()
	input := baseInput()
	input.UserID = &userID

	res, err := svc.CreateSession(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "cs_test_123", res.SessionID)

	p := gateway.params
	require.Equal(t, "https://qyve.id/checkout/success?session_id={CHECKOUT_SESSION_ID}", *p.SuccessURL)
	require.Equal(t, "https://qyve.id/cart", *p.CancelURL)
	require.Equal(t, userID.String(), *p.ClientReferenceID)
	require.Equal(t, "rina@example.com", *p.CustomerEmail)
	require.Len(t, p.LineItems, 2)
	require.EqualValues(t, 1300, *p.LineItems[0].PriceData.UnitAmount)
	require.EqualValues(t, 2, *p.LineItems[0].Quantity)
	require.Equal(t, "idr", *p.LineItems[0].PriceData.Currency)
	require.Equal(t, "Shipping", *p.LineItems[1].PriceData.ProductData.Name)
	require.EqualValues(t, 150, *p.LineItems[1].PriceData.UnitAmount)

	require.Equal(t, userID.String(), p.Metadata[MetaUserID])
	require.NotContains(t, p.Metadata, MetaGuest)
	require.NotContains(t, p.Metadata, "guest_cart_chunks")

	var address types.ShippingAddress
	require.NoError(t, json.Unmarshal([]byte(p.Metadata[MetaShippingAddress]), &address))
	require.Equal(t, "ID", address.Country)
}

func TestCreateSessionGuestEnrichment(t *testing.T) {
	known := uuid.New()
	productID := uuid.New()
	sizes := fakeSizes{sizes: map[uuid.UUID]models.ProductSize{known: {ID: known, ProductID: productID}}}
	gateway := &fakeGateway{}
	svc := newTestService(t, gateway, sizes)

	input := baseInput()
	input.ShippingPrice = decimal.Zero
	input.Items = []ItemInput{
		{ID: known.String(), Name: "Home Jersey", Price: decimal.RequireFromString("13"), Quantity: 1, Size: "M"},
		{ID: uuid.NewString(), Name: "Retired Scarf", Price: decimal.RequireFromString("5"), Quantity: 1},
		{ID: "legacy-42", Name: "Sticker", Price: decimal.RequireFromString("0.5"), Quantity: 3},
	}

	_, err := svc.CreateSession(context.Background(), input)
	require.NoError(t, err)

	p := gateway.params
	require.Nil(t, p.ClientReferenceID)
	require.Len(t, p.LineItems, 3, "no shipping line when shipping is free")
	require.Equal(t, "true", p.Metadata[MetaGuest])

	lines, err := cart.DecodeGuestCart(p.Metadata)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.Equal(t, productID, *lines[0].ProductID)
	require.Nil(t, lines[1].ProductID)
	require.Nil(t, lines[2].ProductID)
	require.Equal(t, uuid.Nil, lines[2].ProductSizeID)
}

func TestCreateSessionGuestLookupErrorContinues(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(t, gateway, fakeSizes{err: errors.New("db down")})

	_, err := svc.CreateSession(context.Background(), baseInput())
	require.NoError(t, err)
	require.Equal(t, 1, gateway.calls)
}

func TestCreateSessionDiscount(t *testing.T) {
	gateway := &fakeGateway{promoID: "promo_123"}
	svc := newTestService(t, gateway, fakeSizes{})
	input := baseInput()
	input.DiscountCode = " QYVE10 "

	_, err := svc.CreateSession(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, gateway.params.Discounts, 1)
	require.Equal(t, "promo_123", *gateway.params.Discounts[0].PromotionCode)
	require.Equal(t, "QYVE10", gateway.params.Metadata[MetaDiscountCode])
}

func TestCreateSessionUnknownDiscountCreatesNothing(t *testing.T) {
	gateway := &fakeGateway{promoErr: qstripe.ErrPromotionCodeNotFound}
	svc := newTestService(t, gateway, fakeSizes{})
	input := baseInput()
	input.DiscountCode = "NOPE"

	_, err := svc.CreateSession(context.Background(), input)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	require.Zero(t, gateway.calls)

	gateway.promoErr = errors.New("stripe unavailable")
	_, err = svc.CreateSession(context.Background(), input)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodePayment))
	require.Zero(t, gateway.calls)
}

func TestCreateSessionProviderFailure(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("card_declined")}
	svc := newTestService(t, gateway, fakeSizes{})
	_, err := svc.CreateSession(context.Background(), baseInput())
	require.True(t, pkgerrors.Is(err, pkgerrors.CodePayment))
}

func TestCreateSessionItemValidation(t *testing.T) {
	svc := newTestService(t, &fakeGateway{}, fakeSizes{})

	input := baseInput()
	input.Items[0].Quantity = 0
	_, err := svc.CreateSession(context.Background(), input)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	input = baseInput()
	input.Items[0].Price = decimal.NewFromInt(-1)
	_, err = svc.CreateSession(context.Background(), input)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCreateSessionGuestCartTooLarge(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(t, gateway, fakeSizes{})
	input := baseInput()
	input.Items = nil
	for i := 0; i < 300; i++ {
		input.Items = append(input.Items, ItemInput{ID: uuid.NewString(), Name: strings.Repeat("n", 80), Price: decimal.NewFromInt(1), Quantity: 1})
	}
	_, err := svc.CreateSession(context.Background(), input)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	require.Zero(t, gateway.calls)
}

func TestToMinorUnits(t *testing.T) {
	require.EqualValues(t, 1300, ToMinorUnits(decimal.RequireFromString("12.995")))
	require.EqualValues(t, 1299, ToMinorUnits(decimal.RequireFromString("12.994")))
	require.EqualValues(t, 0, ToMinorUnits(decimal.Zero))
}

func TestParseSessionMetadata(t *testing.T) {
	userID := uuid.New()
	md := map[string]string{
		MetaShippingAddress: `{"line1":"Jl. Sudirman 1","city":"Jakarta","postal_code":"10210","country":"ID"}`,
		MetaContactInfo:     `{"full_name":"Rina","email":"rina@example.com"}`,
		MetaUserID:          userID.String(),
		MetaShippingPrice:   "1.50",
		MetaDiscountCode:    "QYVE10",
	}
	parsed, err := ParseSessionMetadata(md, "")
	require.NoError(t, err)
	require.Equal(t, userID, *parsed.UserID)
	require.False(t, parsed.Guest)
	require.Equal(t, "1.5", parsed.ShippingPrice.String())
	require.Equal(t, "QYVE10", *parsed.DiscountCode)

	other := uuid.New()
	parsed, err = ParseSessionMetadata(md, other.String())
	require.NoError(t, err)
	require.Equal(t, other, *parsed.UserID, "client reference wins")

	delete(md, MetaUserID)
	md[MetaGuest] = "true"
	parsed, err = ParseSessionMetadata(md, "")
	require.NoError(t, err)
	require.True(t, parsed.Guest)

	delete(md, MetaContactInfo)
	_, err = ParseSessionMetadata(md, "")
	require.Error(t, err)
}
