package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateProductSize OutboxAggregateType = "product_size"
	AggregateSubscriber  OutboxAggregateType = "newsletter_subscriber"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateProductSize,
	AggregateSubscriber,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType is the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderPaid            OutboxEventType = "order_paid"
	EventOrderStatusChanged   OutboxEventType = "order_status_changed"
	EventStockShortfall       OutboxEventType = "stock_shortfall"
	EventNewsletterSubscribed OutboxEventType = "newsletter_subscribed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPaid,
	EventOrderStatusChanged,
	EventStockShortfall,
	EventNewsletterSubscribed,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
