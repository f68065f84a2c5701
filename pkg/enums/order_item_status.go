package enums

import "fmt"

// OrderItemStatus records whether stock was taken for the item at payment time.
type OrderItemStatus string

const (
	OrderItemStatusFulfilled   OrderItemStatus = "fulfilled"
	OrderItemStatusBackordered OrderItemStatus = "backordered"
)

var validOrderItemStatuses = []OrderItemStatus{
	OrderItemStatusFulfilled,
	OrderItemStatusBackordered,
}

func (s OrderItemStatus) IsValid() bool {
	for _, candidate := range validOrderItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseOrderItemStatus(value string) (OrderItemStatus, error) {
	for _, candidate := range validOrderItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order item status %q", value)
}
