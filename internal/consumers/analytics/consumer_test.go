package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	salesfacts "github.com/qyve/storefront/internal/analytics"
	"github.com/qyve/storefront/pkg/enums"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/outbox"
	"github.com/qyve/storefront/pkg/outbox/payloads"
)

type fakeWriter struct {
	rows []salesfacts.SalesFactRow
	err  error
}

func (f *fakeWriter) Insert(_ context.Context, row salesfacts.SalesFactRow) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

type fakeOnce struct {
	done     map[uuid.UUID]bool
	released int
}

func (f *fakeOnce) Once(ctx context.Context, _ string, eventID uuid.UUID, fn func(context.Context) error) (bool, error) {
	if f.done[eventID] {
		return false, nil
	}
	f.done[eventID] = true
	if err := fn(ctx); err != nil {
		delete(f.done, eventID)
		f.released++
		return false, err
	}
	return true, nil
}

func mustConsumer(t *testing.T, w rowWriter, once *fakeOnce) *Consumer {
	t.Helper()
	c, err := NewConsumer(w, once, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return c
}

func paidEnvelope(t *testing.T) outbox.PayloadEnvelope {
	t.Helper()
	data, err := json.Marshal(payloads.OrderPaidEvent{
		OrderID:          uuid.New(),
		PaymentSessionID: "cs_test_1",
		CustomerEmail:    "buyer@example.com",
		Currency:         "IDR",
		TotalAmount:      "25.99",
		AmountPaidCents:  2599,
		Items:            []payloads.OrderPaidItem{{Name: "Jersey", Size: "M", Quantity: 2, UnitPrice: "12.995"}},
		PaidAt:           time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return outbox.PayloadEnvelope{Version: outbox.CurrentVersion, EventID: uuid.NewString(), Data: data}
}

func TestConsumerWritesSalesRowOnce(t *testing.T) {
	w := &fakeWriter{}
	c := mustConsumer(t, w, &fakeOnce{done: map[uuid.UUID]bool{}})
	env := paidEnvelope(t)

	if err := c.Process(context.Background(), enums.EventOrderPaid, env); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if err := c.Process(context.Background(), enums.EventOrderPaid, env); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(w.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(w.rows))
	}
	row := w.rows[0]
	if row.EventID != env.EventID || !row.Guest || row.Currency != "idr" || row.ItemCount != 2 {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestConsumerIgnoresOtherEvents(t *testing.T) {
	w := &fakeWriter{}
	c := mustConsumer(t, w, &fakeOnce{done: map[uuid.UUID]bool{}})

	if err := c.Process(context.Background(), enums.EventStockShortfall, outbox.PayloadEnvelope{EventID: uuid.NewString()}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(w.rows) != 0 {
		t.Fatalf("expected no rows")
	}
}

func TestConsumerReleasesOnInsertFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("bigquery unavailable")}
	once := &fakeOnce{done: map[uuid.UUID]bool{}}
	c := mustConsumer(t, w, once)

	if err := c.Process(context.Background(), enums.EventOrderPaid, paidEnvelope(t)); err == nil {
		t.Fatal("expected insert error")
	}
	if once.released != 1 {
		t.Fatalf("expected marker released, got %d", once.released)
	}
}

func TestConsumerRejectsUnknownVersion(t *testing.T) {
	c := mustConsumer(t, &fakeWriter{}, &fakeOnce{done: map[uuid.UUID]bool{}})
	env := paidEnvelope(t)
	env.Version = 99

	if err := c.Process(context.Background(), enums.EventOrderPaid, env); err == nil {
		t.Fatal("expected decode error for unknown version")
	}
}

func TestNewConsumerValidation(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard})
	if _, err := NewConsumer(nil, &fakeOnce{}, logg); err == nil {
		t.Fatal("expected writer error")
	}
	if _, err := NewConsumer(&fakeWriter{}, nil, logg); err == nil {
		t.Fatal("expected manager error")
	}
	if _, err := NewConsumer(&fakeWriter{}, &fakeOnce{}, nil); err == nil {
		t.Fatal("expected logger error")
	}
}
