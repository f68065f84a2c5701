package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/qyve/storefront/pkg/auth"
	"github.com/qyve/storefront/pkg/config"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "secret", Issuer: "https://auth.qyve.id", Audience: "authenticated"}

func mintTestToken(t *testing.T, cfg config.AuthConfig, email string) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := auth.MintAccessToken(cfg, time.Now(), time.Hour, auth.AccessTokenPayload{UserID: userID, Email: email})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, userID
}

func identityHandler(seen *string, email *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = UserIDFromContext(r.Context())
		if email != nil {
			*email = EmailFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	var seen string
	handler := Auth(testAuthConfig, nil)(identityHandler(&seen, nil))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	var seen string
	handler := Auth(testAuthConfig, nil)(identityHandler(&seen, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	token, userID := mintTestToken(t, testAuthConfig, "buyer@example.com")
	var seen, email string
	handler := Auth(testAuthConfig, nil)(identityHandler(&seen, &email))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seen != userID.String() || email != "buyer@example.com" {
		t.Fatalf("unexpected identity %q %q", seen, email)
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	other := testAuthConfig
	other.JWTSecret = "different"
	token, _ := mintTestToken(t, other, "buyer@example.com")
	var seen string
	handler := Auth(testAuthConfig, nil)(identityHandler(&seen, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOptionalAuthPassesGuests(t *testing.T) {
	seen := "unset"
	handler := OptionalAuth(testAuthConfig, nil)(identityHandler(&seen, nil))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	if resp.Code != http.StatusOK || seen != "" {
		t.Fatalf("expected guest pass-through, got %d %q", resp.Code, seen)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	req.Header.Set("Authorization", "Bearer broken")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected broken token to be rejected, got %d", resp.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	admins := config.AdminConfig{Emails: []string{"ops@qyve.id"}}
	chain := func() http.Handler {
		var seen string
		return Auth(testAuthConfig, nil)(RequireAdmin(admins, nil)(identityHandler(&seen, nil)))
	}

	adminToken, _ := mintTestToken(t, testAuthConfig, "OPS@qyve.id")
	buyerToken, _ := mintTestToken(t, testAuthConfig, "buyer@example.com")

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"not on allow-list", buyerToken, http.StatusForbidden},
		{"admin case-insensitive", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		resp := httptest.NewRecorder()
		chain().ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.want, resp.Code)
		}
	}
}
