package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func queryContext(t *testing.T, target string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name   string
		target string
		page   int
		limit  int
		offset int
	}{
		{"defaults", "/", 1, 20, 0},
		{"explicit", "/?page=3&limit=10", 3, 10, 20},
		{"zero page", "/?page=0&limit=0", 1, 20, 0},
		{"negative values", "/?page=-2&limit=-5", 1, 20, 0},
		{"limit above cap", "/?limit=500", 1, 20, 0},
		{"garbage input", "/?page=abc&limit=xyz", 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, offset := parsePagination(queryContext(t, tt.target))
			if page != tt.page || limit != tt.limit || offset != tt.offset {
				t.Errorf("parsePagination = (%d, %d, %d), want (%d, %d, %d)",
					page, limit, offset, tt.page, tt.limit, tt.offset)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 25, 4},
	}
	for _, tt := range tests {
		if got := totalPages(tt.total, tt.limit); got != tt.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2025-04-30")
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	want := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseDate = %v, want %v", got, want)
	}

	got, err = parseDate("")
	if err != nil {
		t.Fatalf("empty date returned error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("empty date = %v, want zero time", got)
	}

	for _, bad := range []string{"30/04/2025", "2025-02-30", "yesterday"} {
		if _, err := parseDate(bad); err == nil {
			t.Errorf("parseDate(%q) accepted invalid input", bad)
		}
	}
}

func TestParseDateRange(t *testing.T) {
	from, to, err := parseDateRange(queryContext(t, "/?from=2025-01-01&to=2025-03-31"))
	if err != nil {
		t.Fatalf("parseDateRange: %v", err)
	}
	if from.IsZero() || to.IsZero() {
		t.Errorf("parseDateRange = (%v, %v), want both set", from, to)
	}
	if !from.Before(to) {
		t.Errorf("from %v is not before to %v", from, to)
	}

	from, to, err = parseDateRange(queryContext(t, "/"))
	if err != nil {
		t.Fatalf("empty range returned error: %v", err)
	}
	if !from.IsZero() || !to.IsZero() {
		t.Errorf("empty range = (%v, %v), want zero times", from, to)
	}

	if _, _, err := parseDateRange(queryContext(t, "/?from=nonsense")); err == nil {
		t.Error("invalid from accepted")
	}
}

func TestBuildInvoiceLinesDefaults(t *testing.T) {
	lines := buildInvoiceLines(1, []DocumentLineRequest{
		{Description: "Consulting", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(100)},
		{Description: "Setup fee", UnitPrice: decimal.NewFromInt(250)},
	})
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !lines[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("explicit quantity = %s, want 3", lines[0].Quantity)
	}
	// A missing quantity means one unit, not a zero-value line.
	if !lines[1].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("defaulted quantity = %s, want 1", lines[1].Quantity)
	}
	if lines[1].Description != "Setup fee" {
		t.Errorf("description = %q, want %q", lines[1].Description, "Setup fee")
	}
}

func TestDocumentLinesValidRejectsBadInput(t *testing.T) {
	if msg := documentLinesValid(1, nil); msg == "" {
		t.Error("empty line set accepted")
	}
	if msg := documentLinesValid(1, []DocumentLineRequest{
		{Description: "Refund", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-5)},
	}); msg == "" {
		t.Error("negative unit price accepted")
	}
}
