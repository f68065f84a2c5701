package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/qyve/storefront/internal/checkout"
	"github.com/qyve/storefront/internal/orders"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/metrics"
)

// Outcome labels what HandleEvent did with an event.
type Outcome string

const (
	OutcomeFulfilled Outcome = "fulfilled"
	OutcomeReplayed  Outcome = "replayed"
	OutcomeIgnored   Outcome = "ignored"
)

type Service struct {
	fulfiller orders.Fulfiller
	logg      *logger.Logger
}

func NewService(fulfiller orders.Fulfiller, logg *logger.Logger) (*Service, error) {
	if fulfiller == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order fulfiller required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{fulfiller: fulfiller, logg: logg}, nil
}

// HandleEvent fulfills completed checkout sessions. Every other event type is
// acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event == nil || event.Data == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
		if event.Type == stripe.EventTypeCheckoutSessionCompleted && session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			// Delayed payment methods complete the session before the money
			// arrives; async_payment_succeeded follows.
			s.logg.Info(s.logg.WithSessionID(ctx, session.ID), "checkout session completed unpaid, waiting for async payment")
			return OutcomeIgnored, nil
		}
		return s.fulfill(ctx, &session)
	default:
		return OutcomeIgnored, nil
	}
}

func (s *Service) fulfill(ctx context.Context, session *stripe.CheckoutSession) (Outcome, error) {
	input, err := FulfillInputFromSession(session)
	if err != nil {
		return "", err
	}

	result, err := s.fulfiller.Fulfill(ctx, input)
	if err != nil {
		// Coded errors (a missing cart is NOT_FOUND) keep their status.
		if pkgerrors.As(err) != nil {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fulfill checkout session")
	}
	if result.Replayed {
		return OutcomeReplayed, nil
	}
	return OutcomeFulfilled, nil
}

// FulfillInputFromSession maps a completed session onto the order writer input.
func FulfillInputFromSession(session *stripe.CheckoutSession) (orders.FulfillInput, error) {
	if session == nil || strings.TrimSpace(session.ID) == "" {
		return orders.FulfillInput{}, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	meta, err := checkout.ParseSessionMetadata(session.Metadata, session.ClientReferenceID)
	if err != nil {
		return orders.FulfillInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode session metadata").
			WithDetails(map[string]any{"session_id": session.ID})
	}

	contact := *meta.Contact
	if strings.TrimSpace(contact.Email) == "" && session.CustomerDetails != nil {
		contact.Email = session.CustomerDetails.Email
	}

	input := orders.FulfillInput{
		PaymentSessionID: session.ID,
		UserID:           meta.UserID,
		Metadata:         session.Metadata,
		Address:          *meta.Address,
		Contact:          contact,
		AmountPaidCents:  session.AmountTotal,
		Currency:         string(session.Currency),
		ShippingPrice:    meta.ShippingPrice,
		DiscountCode:     meta.DiscountCode,
	}
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		intent := session.PaymentIntent.ID
		input.PaymentIntentID = &intent
	}
	return input, nil
}

// MetricResult folds an outcome or error into the webhook counter label.
func MetricResult(outcome Outcome, err error) string {
	switch {
	case err != nil:
		return metrics.ResultError
	case outcome == OutcomeReplayed:
		return metrics.ResultDuplicate
	case outcome == OutcomeIgnored:
		return metrics.ResultIgnored
	default:
		return metrics.ResultOK
	}
}

func (o Outcome) String() string {
	return string(o)
}
