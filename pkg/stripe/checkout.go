package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/promotioncode"
)

// ErrPromotionCodeNotFound is returned when no active promotion code matches.
var ErrPromotionCodeNotFound = errors.New("promotion code not found")

// CreateCheckoutSession creates a hosted checkout session.
func (c *Client) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if c == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if params == nil {
		return nil, errors.New("checkout session params required")
	}
	params.Context = ctx
	return session.New(params)
}

// FindActivePromotionCode resolves a customer-facing code to its promotion
// code id. Codes are matched case-insensitively, as Stripe does at checkout.
func (c *Client) FindActivePromotionCode(ctx context.Context, code string) (string, error) {
	if c == nil {
		return "", errors.New("stripe client not initialized")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrPromotionCodeNotFound
	}

	params := &stripe.PromotionCodeListParams{
		Active: stripe.Bool(true),
		Code:   stripe.String(code),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(10)

	iter := promotioncode.List(params)
	for iter.Next() {
		promo := iter.PromotionCode()
		if promo != nil && promo.Active && strings.EqualFold(promo.Code, code) {
			return promo.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", err
	}
	return "", ErrPromotionCodeNotFound
}
