package types

import "testing"

func TestShippingAddressNormalize(t *testing.T) {
	got := ShippingAddress{Line1: " Jl. Sudirman 1 ", City: " Jakarta", PostalCode: "10210 ", Country: "id"}.Normalize()
	if got.Line1 != "Jl. Sudirman 1" || got.City != "Jakarta" || got.PostalCode != "10210" {
		t.Fatalf("unexpected address %+v", got)
	}
	if got.Country != "ID" {
		t.Fatalf("expected upper-cased country, got %q", got.Country)
	}
}

func TestContactInfoNormalize(t *testing.T) {
	got := ContactInfo{FullName: " Rina ", Email: " Rina@Example.COM "}.Normalize()
	if got.Email != "rina@example.com" || got.FullName != "Rina" {
		t.Fatalf("unexpected contact %+v", got)
	}
}
