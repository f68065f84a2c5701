package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type countingLimiter struct {
	counts map[string]int64
	err    error
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if c.err != nil {
		return false, 0, c.err
	}
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	store := &countingLimiter{counts: map[string]int64{}}
	handler := RateLimit(NewRateLimitPolicy("newsletter", time.Minute, 2), store, nil)(okHandler())

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}

	other := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, other)
	if resp.Code != http.StatusOK {
		t.Fatalf("different client should pass, got %d", resp.Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	store := &countingLimiter{err: errors.New("redis down")}
	handler := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 1), store, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200 got %d", resp.Code)
	}
}

func TestRateLimitDisabledPolicy(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("off", 0, 0), nil, nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	store := &countingLimiter{counts: map[string]int64{}}
	handler := RateLimit(NewRateLimitPolicy("newsletter", time.Minute, 2), store, nil)(okHandler())

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("192.0.2.%d", i+1))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("rotating X-Forwarded-For must not reset the limit, got %v", codes)
	}
}

func TestRateLimitBehindProxyUsesRightmostUntrustedHop(t *testing.T) {
	store := &countingLimiter{counts: map[string]int64{}}
	handler := RateLimit(NewRateLimitPolicy("newsletter", time.Minute, 2).BehindProxies(1), store, nil)(okHandler())

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", nil)
		req.RemoteAddr = "10.0.0.254:4000"
		// The client forges the left entry; the proxy appends the real peer.
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("192.0.2.%d, 203.0.113.7", i+1))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("forged left-most hops must not reset the limit, got %v", codes)
	}

	other := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", nil)
	other.RemoteAddr = "10.0.0.254:4000"
	other.Header.Set("X-Forwarded-For", "203.0.113.8")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, other)
	if resp.Code != http.StatusOK {
		t.Fatalf("a different client behind the proxy should pass, got %d", resp.Code)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		xff     []string
		trusted int
		want    string
	}{
		{"no proxies ignores header", []string{"1.1.1.1"}, 0, "10.0.0.1"},
		{"one proxy takes last hop", []string{"1.1.1.1, 2.2.2.2"}, 1, "2.2.2.2"},
		{"two proxies", []string{"1.1.1.1, 2.2.2.2, 3.3.3.3"}, 2, "2.2.2.2"},
		{"repeated headers join", []string{"1.1.1.1", "2.2.2.2"}, 1, "2.2.2.2"},
		{"fewer hops than proxies", []string{"2.2.2.2"}, 3, "2.2.2.2"},
		{"missing header", nil, 1, "10.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:80"
			for _, v := range tc.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if got := clientIP(req, tc.trusted); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
