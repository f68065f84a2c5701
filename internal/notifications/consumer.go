package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/qyve/storefront/pkg/enums"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/mailer"
	"github.com/qyve/storefront/pkg/outbox"
	"github.com/qyve/storefront/pkg/outbox/payloads"
	"github.com/qyve/storefront/pkg/outbox/registry"
)

const notificationConsumer = "email-notifications"

type idempotencyRunner interface {
	Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error)
}

// Consumer turns order events into transactional email.
type Consumer struct {
	mailer      mailer.Mailer
	idempotency idempotencyRunner
	decoders    *registry.DecoderRegistry
	adminEmails []string
	baseURL     string
	logg        *logger.Logger
}

// NewConsumer builds the email notification consumer. adminEmails receive
// stock shortfall alerts; baseURL prefixes the links in buyer email.
func NewConsumer(m mailer.Mailer, manager idempotencyRunner, adminEmails []string, baseURL string, logg *logger.Logger) (*Consumer, error) {
	if m == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	admins := make([]string, 0, len(adminEmails))
	for _, email := range adminEmails {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			admins = append(admins, trimmed)
		}
	}
	return &Consumer{
		mailer:      m,
		idempotency: manager,
		decoders:    registry.NewConsumerDecoders(),
		adminEmails: admins,
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logg:        logg,
	}, nil
}

func (c *Consumer) Name() string { return notificationConsumer }

func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}
	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", eventType, err)
	}

	msg, ok := c.buildMessage(decoded)
	if !ok {
		return nil
	}

	sent, err := c.idempotency.Once(ctx, notificationConsumer, eventID, func(ctx context.Context) error {
		return c.mailer.Send(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("send %s email: %w", eventType, err)
	}
	if !sent {
		c.logg.Info(ctx, "event already processed")
		return nil
	}
	c.logg.Info(c.logg.WithField(ctx, "recipients", len(msg.To)), "notification sent")
	return nil
}

// buildMessage returns false when the event has nobody to notify.
func (c *Consumer) buildMessage(decoded any) (mailer.Message, bool) {
	switch event := decoded.(type) {
	case *payloads.OrderPaidEvent:
		return c.orderConfirmation(event)
	case *payloads.OrderStatusChangedEvent:
		return c.statusUpdate(event)
	case *payloads.StockShortfallEvent:
		return c.shortfallAlert(event)
	case *payloads.NewsletterSubscribedEvent:
		return c.welcome(event)
	default:
		return mailer.Message{}, false
	}
}

func (c *Consumer) orderConfirmation(event *payloads.OrderPaidEvent) (mailer.Message, bool) {
	to := strings.TrimSpace(event.CustomerEmail)
	if to == "" {
		return mailer.Message{}, false
	}
	var body strings.Builder
	name := strings.TrimSpace(event.CustomerName)
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&body, "Hi %s,\n\nThanks for your order %s.\n\n", name, shortID(event.OrderID))
	for _, item := range event.Items {
		fmt.Fprintf(&body, "- %s (%s) x%d @ %s", item.Name, item.Size, item.Quantity, item.UnitPrice)
		if item.Status == enums.OrderItemStatusBackordered {
			body.WriteString(" [backordered]")
		}
		body.WriteString("\n")
	}
	fmt.Fprintf(&body, "\nTotal: %s %s\n", strings.ToUpper(event.Currency), event.TotalAmount)
	if event.BackorderedCount > 0 {
		body.WriteString("\nSome items are backordered. We will email you when they ship.\n")
	}
	if c.baseURL != "" && event.UserID != nil {
		fmt.Fprintf(&body, "\nTrack your order: %s/orders/%s\n", c.baseURL, event.OrderID)
	}
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("QYVE order %s confirmed", shortID(event.OrderID)),
		Body:    body.String(),
	}, true
}

func (c *Consumer) statusUpdate(event *payloads.OrderStatusChangedEvent) (mailer.Message, bool) {
	to := strings.TrimSpace(event.CustomerEmail)
	if to == "" {
		return mailer.Message{}, false
	}
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("QYVE order %s is %s", shortID(event.OrderID), event.To),
		Body:    fmt.Sprintf("Your order %s moved from %s to %s.\n", shortID(event.OrderID), event.From, event.To),
	}, true
}

func (c *Consumer) shortfallAlert(event *payloads.StockShortfallEvent) (mailer.Message, bool) {
	if len(c.adminEmails) == 0 {
		return mailer.Message{}, false
	}
	return mailer.Message{
		To:      c.adminEmails,
		Subject: fmt.Sprintf("Stock shortfall: %s (%s)", event.Name, event.Size),
		Body: fmt.Sprintf(
			"Order %s requested %d of %s size %s but only %d were available.\nThe line was backordered.\n",
			event.OrderID, event.Requested, event.Name, event.Size, event.Available,
		),
	}, true
}

func (c *Consumer) welcome(event *payloads.NewsletterSubscribedEvent) (mailer.Message, bool) {
	to := strings.TrimSpace(event.Email)
	if to == "" {
		return mailer.Message{}, false
	}
	body := "Welcome to the QYVE newsletter. New drops and team kits land in your inbox first.\n"
	if c.baseURL != "" {
		body += fmt.Sprintf("\nUnsubscribe any time at %s/newsletter/unsubscribe\n", c.baseURL)
	}
	return mailer.Message{
		To:      []string{to},
		Subject: "Welcome to QYVE",
		Body:    body,
	}, true
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
