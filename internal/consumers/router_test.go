package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/qyve/storefront/pkg/enums"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/outbox"
)

type stubSubscription struct{}

func (stubSubscription) Receive(context.Context, func(context.Context, *pubsub.Message)) error {
	return nil
}

type recordingHandler struct {
	name  string
	err   error
	calls []enums.OutboxEventType
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Process(_ context.Context, eventType enums.OutboxEventType, _ outbox.PayloadEnvelope) error {
	h.calls = append(h.calls, eventType)
	return h.err
}

func newRouter(t *testing.T, handlers ...Handler) *Router {
	t.Helper()
	r, err := NewRouter(stubSubscription{}, logger.New(logger.Options{Output: io.Discard}), handlers...)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func envelopeBytes(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(outbox.PayloadEnvelope{Version: outbox.CurrentVersion, EventID: uuid.NewString(), Data: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestHandleDispatchesToEveryHandler(t *testing.T) {
	a := &recordingHandler{name: "a"}
	b := &recordingHandler{name: "b"}
	r := newRouter(t, a, b)

	ack := r.Handle(context.Background(), "m1", map[string]string{"event_type": "order_paid"}, envelopeBytes(t))
	if !ack {
		t.Fatal("expected ack")
	}
	if len(a.calls) != 1 || len(b.calls) != 1 || a.calls[0] != enums.EventOrderPaid {
		t.Fatalf("unexpected calls a=%v b=%v", a.calls, b.calls)
	}
}

func TestHandleNacksWhenAnyHandlerFails(t *testing.T) {
	ok := &recordingHandler{name: "ok"}
	failing := &recordingHandler{name: "failing", err: errors.New("boom")}
	r := newRouter(t, failing, ok)

	if r.Handle(context.Background(), "m1", map[string]string{"event_type": "stock_shortfall"}, envelopeBytes(t)) {
		t.Fatal("expected nack")
	}
	if len(ok.calls) != 1 {
		t.Fatalf("later handlers still run, got %d calls", len(ok.calls))
	}
}

func TestHandleAcksPoisonMessages(t *testing.T) {
	h := &recordingHandler{name: "h"}
	r := newRouter(t, h)

	if !r.Handle(context.Background(), "m1", map[string]string{"event_type": "product_reviewed"}, envelopeBytes(t)) {
		t.Fatal("unknown type should be acked")
	}
	if !r.Handle(context.Background(), "m2", map[string]string{"event_type": "order_paid"}, []byte("{not json")) {
		t.Fatal("malformed envelope should be acked")
	}
	if len(h.calls) != 0 {
		t.Fatalf("handler should not run, got %v", h.calls)
	}
}

func TestNewRouterValidation(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard})
	if _, err := NewRouter(nil, logg, &recordingHandler{}); err == nil {
		t.Fatal("expected subscription error")
	}
	if _, err := NewRouter(stubSubscription{}, logg); err == nil {
		t.Fatal("expected handler error")
	}
}
