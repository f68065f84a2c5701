package mailer

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/qyve/storefront/pkg/config"
)

func TestNewFallsBackToLogMailer(t *testing.T) {
	m, err := New(config.SMTPConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*LogMailer); !ok {
		t.Fatalf("expected log mailer, got %T", m)
	}
	if err := m.Send(context.Background(), Message{To: []string{"a@qyve.id"}, Subject: "hi"}); err != nil {
		t.Fatalf("log mailer send: %v", err)
	}
}

func TestSMTPMailerBuildsAndSends(t *testing.T) {
	m, err := NewSMTP(config.SMTPConfig{
		Host:     "smtp.qyve.id",
		Port:     587,
		Username: "mailer",
		Password: "pw",
		From:     "QYVE <no-reply@qyve.id>",
	})
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}
	m.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	var sent *mail.Msg
	var hadDeadline bool
	m.deliver = func(ctx context.Context, msg *mail.Msg) error {
		_, hadDeadline = ctx.Deadline()
		sent = msg
		return nil
	}

	err = m.Send(context.Background(), Message{
		To:      []string{"Buyer <buyer@example.com>"},
		Subject: "Pesanan kamu sudah dibayar",
		Body:    "line one\nline two",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !hadDeadline {
		t.Fatalf("expected send context to carry the configured timeout")
	}
	recipients, err := sent.GetRecipients()
	if err != nil {
		t.Fatalf("recipients: %v", err)
	}
	if len(recipients) != 1 || recipients[0] != "buyer@example.com" {
		t.Fatalf("unexpected recipients %v", recipients)
	}

	var buf bytes.Buffer
	if _, err := sent.WriteTo(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"no-reply@qyve.id", "buyer@example.com", "text/plain", "line one"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestSMTPMailerErrors(t *testing.T) {
	m, err := NewSMTP(config.SMTPConfig{Host: "smtp.qyve.id", Port: 25, From: "no-reply@qyve.id"})
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}
	m.deliver = func(context.Context, *mail.Msg) error { return errors.New("421 busy") }

	if err := m.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected missing recipient error")
	}
	if err := m.Send(context.Background(), Message{To: []string{"a@qyve.id"}}); err == nil {
		t.Fatal("expected relay error")
	}

	if _, err := NewSMTP(config.SMTPConfig{Host: "h", From: "not an address"}); err == nil {
		t.Fatal("expected from parse error")
	}
}

func TestSMTPMailerStopsAtContextDeadlineWhenRelayStalls(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	held := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// Accept and never send the 220 greeting.
		held <- conn
	}()
	defer func() {
		select {
		case conn := <-held:
			_ = conn.Close()
		default:
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	m, err := NewSMTP(config.SMTPConfig{
		Host:    "127.0.0.1",
		Port:    addr.Port,
		From:    "no-reply@qyve.id",
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.Send(ctx, Message{To: []string{"buyer@example.com"}, Subject: "hi", Body: "x"})
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected send to fail against a stalled relay")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("send still blocked after the context deadline")
	}
}
