package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/qyve/storefront/pkg/enums"
)

// OrderPaidEvent is emitted once per order written from a completed checkout.
type OrderPaidEvent struct {
	OrderID          uuid.UUID       `json:"order_id"`
	PaymentSessionID string          `json:"payment_session_id"`
	UserID           *string         `json:"user_id,omitempty"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerName     string          `json:"customer_name"`
	Currency         string          `json:"currency"`
	TotalAmount      string          `json:"total_amount"`
	AmountPaidCents  int64           `json:"amount_paid_cents"`
	DiscountCode     *string         `json:"discount_code,omitempty"`
	Items            []OrderPaidItem `json:"items"`
	BackorderedCount int             `json:"backordered_count"`
	PaidAt           time.Time       `json:"paid_at"`
}

type OrderPaidItem struct {
	ProductID *uuid.UUID            `json:"product_id,omitempty"`
	Name      string                `json:"name"`
	Size      string                `json:"size"`
	Quantity  int                   `json:"quantity"`
	UnitPrice string                `json:"unit_price"`
	Status    enums.OrderItemStatus `json:"status"`
}

// OrderStatusChangedEvent follows an admin status update.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	From          enums.OrderStatus `json:"from"`
	To            enums.OrderStatus `json:"to"`
	CustomerEmail string            `json:"customer_email"`
	ChangedBy     string            `json:"changed_by"`
	ChangedAt     time.Time         `json:"changed_at"`
}

// StockShortfallEvent reports an order line that could not be decremented.
type StockShortfallEvent struct {
	OrderID       uuid.UUID  `json:"order_id"`
	ProductID     *uuid.UUID `json:"product_id,omitempty"`
	ProductSizeID *uuid.UUID `json:"product_size_id,omitempty"`
	Name          string     `json:"name"`
	Size          string     `json:"size"`
	Requested     int        `json:"requested"`
	Available     int        `json:"available"`
}

type NewsletterSubscribedEvent struct {
	SubscriberID uuid.UUID `json:"subscriber_id"`
	Email        string    `json:"email"`
	Source       string    `json:"source,omitempty"`
	SubscribedAt time.Time `json:"subscribed_at"`
}
