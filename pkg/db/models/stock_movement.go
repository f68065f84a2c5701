package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qyve/storefront/pkg/enums"
)

// StockMovement is an append-only stock ledger row. BalanceAfter is the size's
// stock as read inside the transaction that applied Delta.
type StockMovement struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	ProductSizeID uuid.UUID               `gorm:"column:product_size_id;type:uuid;not null;index"`
	Delta         int                     `gorm:"column:delta;not null"`
	Type          enums.StockMovementType `gorm:"column:type;type:text;not null"`
	BalanceAfter  int                     `gorm:"column:balance_after;not null"`
	Note          string                  `gorm:"column:note;not null;default:''"`
	Reference     *string                 `gorm:"column:reference"`
	ActorEmail    *string                 `gorm:"column:actor_email"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime;index"`
}
