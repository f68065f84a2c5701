// Package mailer sends transactional email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/qyve/storefront/pkg/config"
	"github.com/qyve/storefront/pkg/logger"
)

const defaultSendTimeout = 30 * time.Second

// Message is a plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through an authenticated SMTP relay. Every send is bounded
// by the caller's context and the configured timeout, greeting included.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
	deliver  func(ctx context.Context, msg *mail.Msg) error
	now      func() time.Time
}

// New returns an SMTP mailer when SMTP is configured and a logging mailer otherwise.
func New(cfg config.SMTPConfig, logg *logger.Logger) (Mailer, error) {
	if !cfg.Enabled() {
		return &LogMailer{logg: logg}, nil
	}
	return NewSMTP(cfg)
}

func NewSMTP(cfg config.SMTPConfig) (*SMTPMailer, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	from, err := netmail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("parse smtp from address: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	m := &SMTPMailer{
		host:     host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     from.String(),
		timeout:  timeout,
		now:      time.Now,
	}
	m.deliver = m.dialAndSend
	return m, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipients, err := normalizeRecipients(msg.To)
	if err != nil {
		return err
	}
	built, err := m.build(recipients, msg)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.deliver(sendCtx, built); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) build(recipients []string, msg Message) (*mail.Msg, error) {
	built := mail.NewMsg()
	if err := built.From(m.from); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := built.To(recipients...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	built.Subject(msg.Subject)
	built.SetDateWithValue(m.now().UTC())
	built.SetBodyString(mail.TypeTextPlain, msg.Body)
	return built, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTimeout(m.timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithDialContextFunc(m.dialer(ctx)),
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// dialer ties the connection deadline to sendCtx so a relay that stalls
// mid-conversation cannot hold the consumer past the context.
func (m *SMTPMailer) dialer(sendCtx context.Context) mail.DialContextFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		if deadline, ok := sendCtx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		context.AfterFunc(sendCtx, func() {
			_ = conn.SetDeadline(time.Now())
		})
		return conn, nil
	}
}

func normalizeRecipients(to []string) ([]string, error) {
	out := make([]string, 0, len(to))
	for _, raw := range to {
		addr, err := netmail.ParseAddress(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", raw, err)
		}
		out = append(out, addr.Address)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one recipient is required")
	}
	return out, nil
}

// LogMailer records messages instead of sending them. Used when SMTP is not configured.
type LogMailer struct {
	logg *logger.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if _, err := normalizeRecipients(msg.To); err != nil {
		return err
	}
	if m.logg != nil {
		m.logg.Info(m.logg.WithFields(ctx, map[string]any{
			"to":      strings.Join(msg.To, ","),
			"subject": msg.Subject,
		}), "smtp disabled, email not sent")
	}
	return nil
}
