package handler

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xadn01/finnepal/internal/events"
	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/pkg/config"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/prometheus"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "handlertest"}})
	// No brokers configured, so events are dropped
	events.Init(&config.KafkaConfig{})
	os.Exit(m.Run())
}

// openTestDB swaps the package database handle for an in-memory store named
// after the calling test, so parallel packages do not share state.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Account{},
		&model.Customer{},
		&model.Vendor{},
		&model.Item{},
		&model.Invoice{},
		&model.InvoiceLine{},
		&model.Bill{},
		&model.BillLine{},
		&model.Payment{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	database.DB = db
	return db
}

// request builds an echo context carrying the auth values the middleware
// would normally set.
func request(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	httpReq := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httpReq, rec)
	c.Set("user_id", uint(1))
	c.Set("tenant_id", uint(1))
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}
