package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	maxFetchAttempts = 3
	maxPageBytes     = 2 << 20
)

type statusError struct {
	URL  string
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// Fetcher downloads listing pages, retrying 5xx responses and transport
// errors with exponential backoff.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	baseBackoff time.Duration
}

func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, userAgent: userAgent, baseBackoff: 500 * time.Millisecond}
}

func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	backoff := retry.NewExponential(f.baseBackoff)
	backoff = retry.WithMaxRetries(maxFetchAttempts-1, backoff)

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return err
		}
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}
		req.Header.Set("Accept", "text/html")

		resp, err := f.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(&statusError{URL: pageURL, Code: resp.StatusCode})
		}
		if resp.StatusCode != http.StatusOK {
			return &statusError{URL: pageURL, Code: resp.StatusCode}
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return retry.RetryableError(err)
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
