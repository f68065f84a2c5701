package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qyve/storefront/pkg/enums"
)

// Cart is a signed-in buyer's persisted basket. Guest baskets never hit the
// database; they travel in the payment session metadata.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID    *uuid.UUID       `gorm:"column:user_id;type:uuid;index"`
	Status    enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

type CartItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID        uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID     *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	ProductSizeID uuid.UUID       `gorm:"column:product_size_id;type:uuid;not null"`
	Name          string          `gorm:"column:name;not null"`
	Image         string          `gorm:"column:image;not null;default:''"`
	Size          string          `gorm:"column:size;not null;default:''"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,3);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
