package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/qyve/storefront/internal/cart"
	"github.com/qyve/storefront/pkg/db/models"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/metrics"
	qstripe "github.com/qyve/storefront/pkg/stripe"
	"github.com/qyve/storefront/pkg/types"
)

// Gateway is the slice of the payment provider the session builder needs.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	FindActivePromotionCode(ctx context.Context, code string) (string, error)
}

type sizeFinder interface {
	FindSize(ctx context.Context, sizeID uuid.UUID) (*models.ProductSize, error)
}

// Service builds hosted payment sessions.
type Service interface {
	CreateSession(ctx context.Context, input SessionInput) (*SessionResult, error)
}

// Config carries the storefront settings used for every session.
type Config struct {
	BaseURL     string
	Currency    string
	SuccessPath string
	CancelPath  string
}

// SessionInput is a checkout request. UserID is nil for guests.
type SessionInput struct {
	UserID          *uuid.UUID
	Items           []ItemInput
	ShippingAddress types.ShippingAddress
	ContactInfo     types.ContactInfo
	ShippingPrice   decimal.Decimal
	DiscountCode    string
}

// ItemInput is one cart row as the storefront submitted it. ID is the size id.
type ItemInput struct {
	ID       string
	Name     string
	Image    string
	Price    decimal.Decimal
	Quantity int
	Size     string
}

type SessionResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type service struct {
	gateway Gateway
	sizes   sizeFinder
	cfg     Config
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics
}

// NewService builds the session builder.
func NewService(gateway Gateway, sizes sizeFinder, cfg Config, logg *logger.Logger, m *metrics.StorefrontMetrics) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if sizes == nil {
		return nil, fmt.Errorf("size finder required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("storefront base url required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Currency == "" {
		cfg.Currency = "idr"
	}
	if cfg.SuccessPath == "" {
		cfg.SuccessPath = "/checkout/success"
	}
	if cfg.CancelPath == "" {
		cfg.CancelPath = "/cart"
	}
	cfg.Currency = strings.ToLower(cfg.Currency)
	return &service{gateway: gateway, sizes: sizes, cfg: cfg, logg: logg, metrics: m}, nil
}

// CreateSession validates the cart, resolves the discount and asks the
// provider for a hosted session. Guests carry their cart in the metadata.
func (s *service) CreateSession(ctx context.Context, input SessionInput) (*SessionResult, error) {
	guest := input.UserID == nil
	result, err := s.createSession(ctx, input)
	if err != nil {
		s.metrics.CheckoutSession(metrics.ResultError, guest)
		return nil, err
	}
	s.metrics.CheckoutSession(metrics.ResultOK, guest)
	return result, nil
}

func (s *service) createSession(ctx context.Context, input SessionInput) (*SessionResult, error) {
	if err := validateItems(input); err != nil {
		return nil, err
	}
	address := input.ShippingAddress.Normalize()
	contact := input.ContactInfo.Normalize()

	metadata := map[string]string{
		MetaShippingPrice: input.ShippingPrice.StringFixed(2),
	}
	addressJSON, err := json.Marshal(address)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipping address")
	}
	contactJSON, err := json.Marshal(contact)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode contact info")
	}
	metadata[MetaShippingAddress] = string(addressJSON)
	metadata[MetaContactInfo] = string(contactJSON)

	if input.UserID != nil {
		metadata[MetaUserID] = input.UserID.String()
	} else {
		metadata[MetaGuest] = "true"
		chunks, err := cart.EncodeGuestCart(s.guestLines(ctx, input.Items))
		if err != nil {
			if errors.Is(err, cart.ErrGuestCartTooLarge) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is too large for guest checkout")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode guest cart")
		}
		for k, v := range chunks {
			metadata[k] = v
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  s.lineItems(input),
		SuccessURL: stripe.String(s.cfg.BaseURL + s.cfg.SuccessPath + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.cfg.BaseURL + s.cfg.CancelPath),
		Metadata:   metadata,
	}
	if contact.Email != "" {
		params.CustomerEmail = stripe.String(contact.Email)
	}
	if input.UserID != nil {
		params.ClientReferenceID = stripe.String(input.UserID.String())
	}

	if code := strings.TrimSpace(input.DiscountCode); code != "" {
		promoID, err := s.gateway.FindActivePromotionCode(ctx, code)
		if err != nil {
			if errors.Is(err, qstripe.ErrPromotionCodeNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is not valid").
					WithDetails(map[string]any{"discount_code": code})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodePayment, err, "look up discount code")
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{PromotionCode: stripe.String(promoID)}}
		metadata[MetaDiscountCode] = code
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePayment, err, "create payment session")
	}
	s.logg.Info(s.logg.WithSessionID(ctx, session.ID), "payment session created")
	return &SessionResult{SessionID: session.ID, URL: session.URL}, nil
}

func validateItems(input SessionInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].name is required", i))
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
		if item.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].price must be non-negative", i))
		}
	}
	if input.ShippingPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping_price must be non-negative")
	}
	return nil
}

// ToMinorUnits converts a price to the provider's smallest currency unit.
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *service) lineItems(input SessionInput) []*stripe.CheckoutSessionLineItemParams {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Items)+1)
	for _, item := range input.Items {
		name := strings.TrimSpace(item.Name)
		if size := strings.TrimSpace(item.Size); size != "" {
			name = fmt.Sprintf("%s (%s)", name, size)
		}
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(name),
		}
		if image := strings.TrimSpace(item.Image); image != "" {
			product.Images = []*string{stripe.String(image)}
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.cfg.Currency),
				UnitAmount:  stripe.Int64(ToMinorUnits(item.Price)),
				ProductData: product,
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	if input.ShippingPrice.IsPositive() {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.cfg.Currency),
				UnitAmount: stripe.Int64(ToMinorUnits(input.ShippingPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping"),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}
	return items
}

// guestLines turns submitted items into the guest cart. Each id is looked up as
// a size; a miss keeps the line with no product link.
func (s *service) guestLines(ctx context.Context, items []ItemInput) []cart.Line {
	lines := make([]cart.Line, 0, len(items))
	for _, item := range items {
		line := cart.Line{
			Name:      strings.TrimSpace(item.Name),
			Image:     item.Image,
			Size:      strings.TrimSpace(item.Size),
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		}
		sizeID, err := uuid.Parse(strings.TrimSpace(item.ID))
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "item_id", item.ID), "guest item id is not a size id")
			lines = append(lines, line)
			continue
		}
		line.ProductSizeID = sizeID

		size, err := s.sizes.FindSize(ctx, sizeID)
		switch {
		case err == nil:
			productID := size.ProductID
			line.ProductID = &productID
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.logg.Warn(s.logg.WithField(ctx, "product_size_id", sizeID.String()), "guest item size not found")
		default:
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"product_size_id": sizeID.String(),
				"error":           err.Error(),
			}), "guest item size lookup failed")
		}
		lines = append(lines, line)
	}
	return lines
}
