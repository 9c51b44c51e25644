package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/xadn01/finnepal/pkg/config"
	"github.com/xadn01/finnepal/pkg/jwtutil"
	"github.com/xadn01/finnepal/prometheus"
)

func TestMain(m *testing.M) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "middleware-test-key", ExpirationHours: 1})
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "middlewaretest"}})
	os.Exit(m.Run())
}

func newContext(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	c, rec := newContext(t, "")
	if err := AuthMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	c, rec := newContext(t, "Bearer not-a-real-token")
	if err := AuthMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] != "invalid token" {
		t.Errorf("error = %q, want %q", body["error"], "invalid token")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token, err := jwtutil.GenerateToken("user@example.com", 7)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	c, rec := newContext(t, "Bearer "+token)
	if err := AuthMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got, ok := c.Get("user_id").(uint); !ok || got != 7 {
		t.Errorf("user_id in context = %v, want 7", c.Get("user_id"))
	}
	if got, ok := c.Get("email").(string); !ok || got != "user@example.com" {
		t.Errorf("email in context = %v, want user@example.com", c.Get("email"))
	}
	if c.Get("tenant_id") != nil {
		t.Errorf("tenant_id set without tenant context: %v", c.Get("tenant_id"))
	}
}

func TestAuthMiddleware_TenantToken(t *testing.T) {
	tenantID := uint(3)
	token, err := jwtutil.GenerateTokenWithTenant("owner@example.com", 9, &tenantID, "Acme Traders", "owner")
	if err != nil {
		t.Fatalf("GenerateTokenWithTenant: %v", err)
	}
	c, rec := newContext(t, "Bearer "+token)
	if err := AuthMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got, ok := c.Get("tenant_id").(uint); !ok || got != 3 {
		t.Errorf("tenant_id in context = %v, want 3", c.Get("tenant_id"))
	}
	if got, ok := c.Get("role").(string); !ok || got != "owner" {
		t.Errorf("role in context = %v, want owner", c.Get("role"))
	}
}

func TestRequireTenantContext(t *testing.T) {
	c, rec := newContext(t, "")
	if err := RequireTenantContext(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status without tenant = %d, want %d", rec.Code, http.StatusForbidden)
	}

	c, rec = newContext(t, "")
	c.Set("tenant_id", uint(5))
	if err := RequireTenantContext(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status with tenant = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	c, rec := newContext(t, "")
	if err := RequestIDMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	generated := rec.Header().Get(RequestIDKey)
	if generated == "" {
		t.Fatal("no request ID generated")
	}

	// An incoming request ID is propagated unchanged.
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "req-123")
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := RequestIDMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if got := rec.Header().Get(RequestIDKey); got != "req-123" {
		t.Errorf("request ID = %q, want req-123", got)
	}
}
