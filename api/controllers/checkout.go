package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qyve/storefront/api/middleware"
	"github.com/qyve/storefront/api/responses"
	"github.com/qyve/storefront/api/validators"
	checkoutsvc "github.com/qyve/storefront/internal/checkout"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/types"
)

type checkoutRequest struct {
	Items           []checkoutItemRequest `json:"items" validate:"dive"`
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	ContactInfo     types.ContactInfo     `json:"contact_info" validate:"required"`
	ShippingPrice   decimal.Decimal       `json:"shipping_price"`
	DiscountCode    string                `json:"discount_code,omitempty" validate:"max=64"`
}

type checkoutItemRequest struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name" validate:"required,max=200"`
	Image    string          `json:"image,omitempty" validate:"max=2048"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size,omitempty" validate:"max=20"`
}

// Checkout creates a hosted payment session. A bearer token makes it a buyer
// checkout; without one it is a guest checkout.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.SessionInput{
			ShippingAddress: payload.ShippingAddress,
			ContactInfo:     payload.ContactInfo,
			ShippingPrice:   payload.ShippingPrice,
			DiscountCode:    validators.SanitizeString(payload.DiscountCode, 64),
			Items:           make([]checkoutsvc.ItemInput, 0, len(payload.Items)),
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			input.UserID = &userID
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, checkoutsvc.ItemInput{
				ID:       item.ID,
				Name:     item.Name,
				Image:    item.Image,
				Price:    item.Price,
				Quantity: item.Quantity,
				Size:     item.Size,
			})
		}

		result, err := svc.CreateSession(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
