package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xadn01/finnepal/prometheus"
)

// routeLabel returns the registered route pattern for the request, so
// /api/invoices/17 and /api/invoices/42 share the /api/invoices/:id series.
// Requests that matched no route collapse into a single label to keep the
// metric cardinality bounded.
func routeLabel(c echo.Context) string {
	path := c.Path()
	if path == "" || path == "/*" {
		return "unmatched"
	}
	return path
}

// MetricsMiddleware records a counter and a latency histogram per
// method/route/status combination
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		elapsed := time.Since(start).Seconds()

		method := c.Request().Method
		route := routeLabel(c)
		status := strconv.Itoa(c.Response().Status)

		prometheus.HttpRequestsTotal.WithLabelValues(method, route, status).Inc()
		prometheus.HttpRequestDuration.WithLabelValues(method, route, status).Observe(elapsed)

		return err
	}
}
