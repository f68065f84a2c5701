package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qyve/storefront/pkg/outbox/payloads"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// SalesFactRow mirrors the sales_facts BigQuery schema. One row per paid order.
type SalesFactRow struct {
	EventID          string             `bigquery:"event_id"`
	OccurredAt       time.Time          `bigquery:"occurred_at"`
	OrderID          string             `bigquery:"order_id"`
	PaymentSessionID string             `bigquery:"payment_session_id"`
	UserID           *string            `bigquery:"user_id"`
	Guest            bool               `bigquery:"guest"`
	Currency         string             `bigquery:"currency"`
	TotalAmount      *big.Rat           `bigquery:"total_amount"`
	AmountPaidCents  int64              `bigquery:"amount_paid_cents"`
	ItemCount        int64              `bigquery:"item_count"`
	BackorderedCount int64              `bigquery:"backordered_count"`
	DiscountCode     *string            `bigquery:"discount_code"`
	Items            cbigquery.NullJSON `bigquery:"items"`
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// RetryPolicy controls how many times BigQuery inserts are attempted.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

// SalesWriter streams sales facts into BigQuery with retries on transient errors.
type SalesWriter struct {
	client tableInserter
	table  string
	retry  RetryPolicy
}

func NewSalesWriter(client tableInserter, table string, policy RetryPolicy) (*SalesWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("sales table is required")
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = defaultMaxAttempts
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = defaultInitialBackoff
	}
	if policy.MaximumBackoff < policy.InitialBackoff {
		policy.MaximumBackoff = defaultMaximumBackoff
	}
	return &SalesWriter{client: client, table: table, retry: policy}, nil
}

// BuildSalesRow flattens an order_paid payload into a sales fact.
func BuildSalesRow(eventID string, event *payloads.OrderPaidEvent) (SalesFactRow, error) {
	if event == nil {
		return SalesFactRow{}, errors.New("order paid payload required")
	}
	total, err := decimal.NewFromString(event.TotalAmount)
	if err != nil {
		return SalesFactRow{}, fmt.Errorf("parse total amount: %w", err)
	}
	items, err := json.Marshal(event.Items)
	if err != nil {
		return SalesFactRow{}, fmt.Errorf("marshal items: %w", err)
	}

	var quantity int64
	for _, item := range event.Items {
		quantity += int64(item.Quantity)
	}

	occurred := event.PaidAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	return SalesFactRow{
		EventID:          eventID,
		OccurredAt:       occurred,
		OrderID:          event.OrderID.String(),
		PaymentSessionID: event.PaymentSessionID,
		UserID:           event.UserID,
		Guest:            event.UserID == nil,
		Currency:         strings.ToLower(event.Currency),
		TotalAmount:      total.Rat(),
		AmountPaidCents:  event.AmountPaidCents,
		ItemCount:        quantity,
		BackorderedCount: int64(event.BackorderedCount),
		DiscountCode:     event.DiscountCode,
		Items:            cbigquery.NullJSON{Valid: true, JSONVal: string(items)},
	}, nil
}

// Insert writes one sales row, retrying errors BigQuery marks as transient.
func (w *SalesWriter) Insert(ctx context.Context, row SalesFactRow) error {
	backoff := retry.NewExponential(w.retry.InitialBackoff)
	backoff = retry.WithCappedDuration(w.retry.MaximumBackoff, backoff)
	backoff = retry.WithMaxRetries(uint64(w.retry.MaxAttempts-1), backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := w.client.InsertRows(ctx, w.table, []any{&row})
		if err != nil && isRetryableBigQueryError(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("insert %s row: %w", w.table, err)
	}
	return nil
}

func isRetryableBigQueryError(err error) bool {
	if err == nil {
		return false
	}

	var pme cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if len(pme) == 0 {
			return false
		}
		for _, rowErr := range pme {
			for _, inner := range rowErr.Errors {
				if !isRetryableBigQueryError(inner) {
					return false
				}
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableHTTPCode(apiErr.Code)
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			return isRetryableGRPCCode(st.Code())
		}
	}
	return false
}

func isRetryableHTTPCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isRetryableGRPCCode(code codes.Code) bool {
	switch code {
	case codes.Aborted,
		codes.DeadlineExceeded,
		codes.Internal,
		codes.ResourceExhausted,
		codes.Unavailable:
		return true
	default:
		return false
	}
}
