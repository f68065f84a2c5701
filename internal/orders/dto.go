package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
)

// OrderDTO is the order as returned to buyers and admins.
type OrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	UserID           *uuid.UUID        `json:"user_id,omitempty"`
	Status           enums.OrderStatus `json:"status"`
	TotalPrice       decimal.Decimal   `json:"total_price"`
	ShippingPrice    decimal.Decimal   `json:"shipping_price"`
	AmountPaidCents  int64             `json:"amount_paid_cents"`
	Currency         string            `json:"currency"`
	PaymentSessionID string            `json:"payment_session_id"`
	DiscountCode     *string           `json:"discount_code,omitempty"`
	CustomerEmail    string            `json:"customer_email"`
	Items            []ItemDTO         `json:"items"`
	Address          *AddressDTO       `json:"shipping_address,omitempty"`
	Contact          *ContactDTO       `json:"contact_info,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type ItemDTO struct {
	ID            uuid.UUID             `json:"id"`
	ProductID     *uuid.UUID            `json:"product_id,omitempty"`
	ProductSizeID *uuid.UUID            `json:"product_size_id,omitempty"`
	Name          string                `json:"name"`
	Size          string                `json:"size"`
	UnitPrice     decimal.Decimal       `json:"unit_price"`
	Quantity      int                   `json:"quantity"`
	LineTotal     decimal.Decimal       `json:"line_total"`
	Status        enums.OrderItemStatus `json:"status"`
}

type AddressDTO struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type ContactDTO struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:               order.ID,
		UserID:           order.UserID,
		Status:           order.Status,
		TotalPrice:       order.TotalPrice,
		ShippingPrice:    order.ShippingPrice,
		AmountPaidCents:  order.AmountPaidCents,
		Currency:         order.Currency,
		PaymentSessionID: order.PaymentSessionID,
		DiscountCode:     order.DiscountCode,
		CustomerEmail:    order.CustomerEmail,
		Items:            make([]ItemDTO, 0, len(order.Items)),
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductSizeID: item.ProductSizeID,
			Name:          item.Name,
			Size:          item.Size,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			LineTotal:     item.LineTotal,
			Status:        item.Status,
		})
	}
	if order.Address != nil {
		dto.Address = &AddressDTO{
			Line1:      order.Address.Line1,
			Line2:      order.Address.Line2,
			City:       order.Address.City,
			Province:   order.Address.Province,
			PostalCode: order.Address.PostalCode,
			Country:    order.Address.Country,
		}
	}
	if order.Contact != nil {
		dto.Contact = &ContactDTO{
			FullName: order.Contact.FullName,
			Email:    order.Contact.Email,
			Phone:    order.Contact.Phone,
		}
	}
	return dto
}
