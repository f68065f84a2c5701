package enums

import "testing"

func TestParseOrderStatusIsCaseInsensitive(t *testing.T) {
	got, err := ParseOrderStatus(" Paid ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != OrderStatusPaid {
		t.Fatalf("expected paid, got %q", got)
	}
	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPaid, OrderStatusProcessing, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPaid, false},
		{OrderStatusPaid, OrderStatusDelivered, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestParseStockMovementType(t *testing.T) {
	for raw, want := range map[string]StockMovementType{
		"in":     StockMovementIn,
		"OUT":    StockMovementOut,
		"Adjust": StockMovementAdjust,
	} {
		got, err := ParseStockMovementType(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}
	if _, err := ParseStockMovementType("MOVE"); err == nil {
		t.Fatal("expected error for unknown movement type")
	}
}
