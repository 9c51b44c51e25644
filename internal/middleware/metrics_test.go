package middleware

import (
	"net/http"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xadn01/finnepal/prometheus"
)

func requestCount(method, route, status string) float64 {
	return testutil.ToFloat64(prometheus.HttpRequestsTotal.With(promclient.Labels{
		"method": method,
		"path":   route,
		"status": status,
	}))
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	before := requestCount(http.MethodGet, "/api/items/:id", "200")

	c, rec := newContext(t, "")
	c.SetPath("/api/items/:id")
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := MetricsMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	if got := requestCount(http.MethodGet, "/api/items/:id", "200"); got != before+1 {
		t.Errorf("request count for route pattern = %v, want %v", got, before+1)
	}
}

func TestMetricsMiddlewareCollapsesUnmatchedRoutes(t *testing.T) {
	before := requestCount(http.MethodGet, "unmatched", "200")

	// Requests that matched no registered route share one label
	for i := 0; i < 2; i++ {
		c, _ := newContext(t, "")
		if err := MetricsMiddleware(okHandler)(c); err != nil {
			t.Fatalf("middleware returned error: %v", err)
		}
	}

	if got := requestCount(http.MethodGet, "unmatched", "200"); got != before+2 {
		t.Errorf("request count for unmatched label = %v, want %v", got, before+2)
	}
}

func TestRouteLabel(t *testing.T) {
	c, _ := newContext(t, "")
	if got := routeLabel(c); got != "unmatched" {
		t.Errorf("routeLabel without route = %q, want unmatched", got)
	}

	c.SetPath("/*")
	if got := routeLabel(c); got != "unmatched" {
		t.Errorf("routeLabel for catch-all = %q, want unmatched", got)
	}

	c.SetPath("/api/invoices/:id/payments")
	if got := routeLabel(c); got != "/api/invoices/:id/payments" {
		t.Errorf("routeLabel = %q, want the route pattern", got)
	}
}
