package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/prometheus"
)

// HealthCheck handles health check requests
func HealthCheck(c echo.Context) error {
	status := "ok"
	dbStatus := "ok"

	sqlDB, err := database.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"service":  "finnepal",
		"database": dbStatus,
	})
}

// MetricsHandler exposes prometheus metrics
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
