package enums

import "fmt"

// CartStatus marks a buyer cart as open or already turned into an order.
// Only one active cart per buyer is allowed by a partial unique index.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
)

func (c CartStatus) IsValid() bool {
	return c == CartStatusActive || c == CartStatusConverted
}

func ParseCartStatus(value string) (CartStatus, error) {
	status := CartStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid cart status %q", value)
	}
	return status, nil
}
