package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/qyve/storefront/internal/products"
	stripewebhook "github.com/qyve/storefront/internal/webhooks/stripe"
	"github.com/qyve/storefront/pkg/auth"
	"github.com/qyve/storefront/pkg/config"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type memoryRedis struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	default:
		m.values[key] = "1"
	}
	return true, nil
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := value.(string); ok {
		m.values[key] = v
	}
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

type stubProducts struct{}

func (stubProducts) ListProducts(ctx context.Context, input products.ListProductsInput) (pagination.Page[products.ProductDTO], error) {
	return pagination.Page[products.ProductDTO]{Items: []products.ProductDTO{{ID: uuid.New(), Name: "Home Jersey"}}}, nil
}

func (stubProducts) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: id}, nil
}

func (stubProducts) CreateProduct(ctx context.Context, actorEmail string, input products.ProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: uuid.New()}, nil
}

func (stubProducts) UpdateProduct(ctx context.Context, id uuid.UUID, input products.ProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: id}, nil
}

func (stubProducts) DeleteProduct(ctx context.Context, id uuid.UUID) error { return nil }

type stubWebhookService struct{}

func (stubWebhookService) HandleEvent(ctx context.Context, event *stripe.Event) (stripewebhook.Outcome, error) {
	return stripewebhook.OutcomeIgnored, nil
}

type stubSigner struct{}

func (stubSigner) SigningSecret() string { return "whsec_test" }

type stubGuard struct{}

func (stubGuard) Claim(context.Context, string) (bool, error) { return true, nil }
func (stubGuard) Release(context.Context, string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App:        config.AppConfig{Env: "test"},
		Auth:       config.AuthConfig{JWTSecret: "secret", Audience: "authenticated"},
		Admin:      config.AdminConfig{Emails: []string{"ops@qyve.id"}},
		Storefront: config.StorefrontConfig{BaseURL: "https://qyve.id"},
		RateLimit:  config.RateLimitConfig{Window: time.Minute, CheckoutLimit: 20, NewsletterLimit: 2},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	return NewRouter(cfg, logg, Dependencies{
		DB:       stubPinger{},
		Redis:    newMemoryRedis(),
		Products: stubProducts{},

		StripeClient:   stubSigner{},
		WebhookService: stubWebhookService{},
		WebhookGuard:   stubGuard{},
	})
}

func bearer(t *testing.T, cfg *config.Config, email string) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.Auth, time.Now(), time.Hour, auth.AccessTokenPayload{UserID: uuid.New(), Email: email})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestPublicCatalogNeedsNoAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Home Jersey") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestCartRequiresAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminRoutesCheckAllowList(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{name: "no token", want: http.StatusUnauthorized},
		{name: "buyer", token: bearer(t, cfg, "buyer@example.com"), want: http.StatusForbidden},
		{name: "admin", token: bearer(t, cfg, "OPS@qyve.id"), want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", tc.token)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestNewsletterRateLimited(t *testing.T) {
	router := newTestRouter(t, testConfig())
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", strings.NewReader(`{"email":"not-valid"}`))
		req.RemoteAddr = "203.0.113.7:1234"
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		last = resp.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request got %d", last)
	}
}

func TestCORSPreflightAllowsStorefront(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodOptions, "/api/checkout", nil)
	req.Header.Set("Origin", "https://qyve.id")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://qyve.id" {
		t.Fatalf("expected storefront origin, got %q", got)
	}
}

func TestWebhookRejectsUnsignedPayload(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
