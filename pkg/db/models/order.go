package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qyve/storefront/pkg/enums"
)

// Order is written exactly once per completed payment session.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID           *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	TotalPrice       decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	ShippingPrice    decimal.Decimal   `gorm:"column:shipping_price;type:numeric(12,2);not null;default:0"`
	AmountPaidCents  int64             `gorm:"column:amount_paid_cents;not null;default:0"`
	Currency         string            `gorm:"column:currency;not null"`
	PaymentSessionID string            `gorm:"column:payment_session_id;not null;uniqueIndex:uq_orders_payment_session_id"`
	PaymentIntentID  *string           `gorm:"column:payment_intent_id"`
	DiscountCode     *string           `gorm:"column:discount_code"`
	CustomerEmail    string            `gorm:"column:customer_email;not null;default:''"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;index"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Address          *OrderAddress     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Contact          *OrderContactInfo `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots the purchased variant and its price at payment time.
type OrderItem struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	ProductSizeID *uuid.UUID            `gorm:"column:product_size_id;type:uuid"`
	Name          string                `gorm:"column:name;not null"`
	Size          string                `gorm:"column:size;not null;default:''"`
	UnitPrice     decimal.Decimal       `gorm:"column:unit_price;type:numeric(12,3);not null"`
	Quantity      int                   `gorm:"column:quantity;not null"`
	LineTotal     decimal.Decimal       `gorm:"column:line_total;type:numeric(12,2);not null"`
	Status        enums.OrderItemStatus `gorm:"column:status;type:text;not null"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}

type OrderAddress struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      string    `gorm:"column:line2;not null;default:''"`
	City       string    `gorm:"column:city;not null"`
	Province   string    `gorm:"column:province;not null;default:''"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null"`
}

func (OrderAddress) TableName() string {
	return "order_addresses"
}

type OrderContactInfo struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID  uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	FullName string    `gorm:"column:full_name;not null"`
	Email    string    `gorm:"column:email;not null"`
	Phone    string    `gorm:"column:phone;not null;default:''"`
}

func (OrderContactInfo) TableName() string {
	return "order_contact_info"
}
