package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
)

// MovementDTO is a stock movement as returned to admins.
type MovementDTO struct {
	ID            uuid.UUID               `json:"id"`
	ProductID     uuid.UUID               `json:"product_id"`
	ProductSizeID uuid.UUID               `json:"product_size_id"`
	Delta         int                     `json:"delta"`
	Type          enums.StockMovementType `json:"type"`
	BalanceAfter  int                     `json:"balance_after"`
	Note          string                  `json:"note,omitempty"`
	Reference     *string                 `json:"reference,omitempty"`
	ActorEmail    *string                 `json:"actor_email,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

func NewMovementDTO(m models.StockMovement) MovementDTO {
	return MovementDTO{
		ID:            m.ID,
		ProductID:     m.ProductID,
		ProductSizeID: m.ProductSizeID,
		Delta:         m.Delta,
		Type:          m.Type,
		BalanceAfter:  m.BalanceAfter,
		Note:          m.Note,
		Reference:     m.Reference,
		ActorEmail:    m.ActorEmail,
		CreatedAt:     m.CreatedAt,
	}
}
