// Package consumers fans order-event messages out to the worker's handlers.
package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/multierr"

	"github.com/qyve/storefront/pkg/enums"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/outbox"
)

// Handler processes one decoded envelope. Handlers own their idempotency so a
// redelivered message only repeats the handlers that failed.
type Handler interface {
	Name() string
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Router receives from the orders subscription and dispatches each message to
// every handler. A message is nacked when any handler fails.
type Router struct {
	subscription receiver
	handlers     []Handler
	logg         *logger.Logger
}

func NewRouter(subscription receiver, logg *logger.Logger, handlers ...Handler) (*Router, error) {
	if subscription == nil {
		return nil, errors.New("orders subscription required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if len(handlers) == 0 {
		return nil, errors.New("at least one handler required")
	}
	for _, h := range handlers {
		if h == nil {
			return nil, errors.New("nil handler")
		}
	}
	return &Router{subscription: subscription, handlers: handlers, logg: logg}, nil
}

// Run blocks until the context is canceled or the subscription fails.
func (r *Router) Run(ctx context.Context) error {
	return r.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if r.Handle(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Handle reports whether the message should be acked. Messages that can never
// succeed (unknown type, malformed envelope) are acked and logged.
func (r *Router) Handle(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	rawType := attrs["event_type"]
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		r.logg.Warn(logCtx, "skipping unknown event type")
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		r.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	logCtx = r.logg.WithField(logCtx, "event_id", envelope.EventID)

	var errs error
	for _, h := range r.handlers {
		if err := h.Process(logCtx, eventType, envelope); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}
	if errs != nil {
		r.logg.Error(logCtx, "event handling failed", errs)
		return false
	}
	return true
}
