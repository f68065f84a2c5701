package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qyve/storefront/pkg/db/models"
)

// Line is one purchasable row of a resolved cart, persisted or guest.
type Line struct {
	ProductID     *uuid.UUID
	ProductSizeID uuid.UUID
	Name          string
	Image         string
	Size          string
	UnitPrice     decimal.Decimal
	Quantity      int
}

// Resolved is the cart a fulfillment works from. CartID is nil for guests.
type Resolved struct {
	CartID *uuid.UUID
	UserID *uuid.UUID
	Lines  []Line
}

func linesFromItems(items []models.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			ProductID:     item.ProductID,
			ProductSizeID: item.ProductSizeID,
			Name:          item.Name,
			Image:         item.Image,
			Size:          item.Size,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
		})
	}
	return lines
}
