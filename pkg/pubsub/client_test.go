package pubsub

import (
	"testing"

	"github.com/qyve/storefront/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		kind, name, want string
	}{
		{"topics", "qyve-order-events", "projects/qyve-prod/topics/qyve-order-events"},
		{"subscriptions", " worker ", "projects/qyve-prod/subscriptions/worker"},
		{"topics", "projects/other/topics/t", "projects/other/topics/t"},
		{"topics", "", ""},
	}
	for _, tc := range cases {
		if got := resourceName("qyve-prod", tc.kind, tc.name); got != tc.want {
			t.Fatalf("resourceName(%q, %q) = %q, want %q", tc.kind, tc.name, got, tc.want)
		}
	}
	if got := resourceName("", "topics", "t"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{}); len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
	names := subscriptionNames(config.PubSubConfig{OrdersSubscription: "worker"})
	if len(names) != 1 || names[0] != "worker" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("t") != nil || c.Subscription("s") != nil {
		t.Fatal("expected nil handles from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
