package checkout

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qyve/storefront/pkg/types"
)

// Session metadata keys shared by the session builder and the webhook.
const (
	MetaShippingAddress = "shipping_address"
	MetaContactInfo     = "contact_info"
	MetaUserID          = "user_id"
	MetaGuest           = "guest"
	MetaShippingPrice   = "shipping_price"
	MetaDiscountCode    = "discount_code"
)

// SessionMetadata is the decoded metadata of a completed payment session.
type SessionMetadata struct {
	Address       *types.ShippingAddress
	Contact       *types.ContactInfo
	UserID        *uuid.UUID
	Guest         bool
	ShippingPrice decimal.Decimal
	DiscountCode  *string
}

// ParseSessionMetadata decodes what CreateSession stored. Address and contact
// are required; the buyer id falls back to clientReferenceID.
func ParseSessionMetadata(metadata map[string]string, clientReferenceID string) (*SessionMetadata, error) {
	out := &SessionMetadata{ShippingPrice: decimal.Zero}

	rawAddress := strings.TrimSpace(metadata[MetaShippingAddress])
	if rawAddress == "" {
		return nil, fmt.Errorf("metadata %s missing", MetaShippingAddress)
	}
	var address types.ShippingAddress
	if err := json.Unmarshal([]byte(rawAddress), &address); err != nil {
		return nil, fmt.Errorf("decode %s: %w", MetaShippingAddress, err)
	}
	out.Address = &address

	rawContact := strings.TrimSpace(metadata[MetaContactInfo])
	if rawContact == "" {
		return nil, fmt.Errorf("metadata %s missing", MetaContactInfo)
	}
	var contact types.ContactInfo
	if err := json.Unmarshal([]byte(rawContact), &contact); err != nil {
		return nil, fmt.Errorf("decode %s: %w", MetaContactInfo, err)
	}
	out.Contact = &contact

	buyer := strings.TrimSpace(clientReferenceID)
	if buyer == "" {
		buyer = strings.TrimSpace(metadata[MetaUserID])
	}
	if buyer != "" {
		id, err := uuid.Parse(buyer)
		if err != nil {
			return nil, fmt.Errorf("invalid buyer id %q: %w", buyer, err)
		}
		out.UserID = &id
	}
	out.Guest = out.UserID == nil

	if raw := strings.TrimSpace(metadata[MetaShippingPrice]); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", MetaShippingPrice, raw, err)
		}
		out.ShippingPrice = price
	}
	if code := strings.TrimSpace(metadata[MetaDiscountCode]); code != "" {
		out.DiscountCode = &code
	}
	return out, nil
}
