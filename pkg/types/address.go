package types

import "strings"

// ShippingAddress is the delivery address captured at checkout and carried in
// payment session metadata, so its JSON must stay under 500 characters.
type ShippingAddress struct {
	Line1      string `json:"line1" validate:"required,max=120"`
	Line2      string `json:"line2,omitempty" validate:"max=120"`
	City       string `json:"city" validate:"required,max=60"`
	Province   string `json:"province,omitempty" validate:"max=60"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2"`
}

// Normalize trims every field and upper-cases the country code.
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		Province:   strings.TrimSpace(a.Province),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
	}
}

// ContactInfo is who the order is for.
type ContactInfo struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Phone    string `json:"phone,omitempty" validate:"max=40"`
}

func (c ContactInfo) Normalize() ContactInfo {
	return ContactInfo{
		FullName: strings.TrimSpace(c.FullName),
		Email:    strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:    strings.TrimSpace(c.Phone),
	}
}
