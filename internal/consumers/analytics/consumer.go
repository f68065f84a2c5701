package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	salesfacts "github.com/qyve/storefront/internal/analytics"
	"github.com/qyve/storefront/pkg/enums"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/outbox"
	"github.com/qyve/storefront/pkg/outbox/payloads"
	"github.com/qyve/storefront/pkg/outbox/registry"
)

const analyticsConsumerName = "analytics"

type rowWriter interface {
	Insert(ctx context.Context, row salesfacts.SalesFactRow) error
}

type idempotencyRunner interface {
	Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error)
}

// Consumer streams order_paid events into the sales_facts table.
type Consumer struct {
	writer   rowWriter
	manager  idempotencyRunner
	decoders *registry.DecoderRegistry
	logg     *logger.Logger
}

func NewConsumer(writer rowWriter, manager idempotencyRunner, logg *logger.Logger) (*Consumer, error) {
	if writer == nil {
		return nil, fmt.Errorf("sales writer required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		writer:   writer,
		manager:  manager,
		decoders: registry.NewConsumerDecoders(),
		logg:     logg,
	}, nil
}

func (c *Consumer) Name() string { return analyticsConsumerName }

// Process writes one sales row per order_paid event. Other events are ignored.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	if eventType != enums.EventOrderPaid {
		return nil
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", eventType, err)
	}
	event, ok := decoded.(*payloads.OrderPaidEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", decoded)
	}

	ran, err := c.manager.Once(ctx, analyticsConsumerName, eventID, func(ctx context.Context) error {
		row, err := salesfacts.BuildSalesRow(envelope.EventID, event)
		if err != nil {
			return err
		}
		return c.writer.Insert(ctx, row)
	})
	if err != nil {
		return err
	}
	if !ran {
		c.logg.Info(ctx, "event already processed")
		return nil
	}
	c.logg.Info(c.logg.WithOrderID(ctx, event.OrderID.String()), "sales fact written")
	return nil
}
