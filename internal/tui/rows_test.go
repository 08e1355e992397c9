package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/waabox/shopdeck/internal/domain"
)

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		350000:    "350,000",
		1234567.6: "1,234,568",
	}
	for in, want := range cases {
		if got := formatPrice(in); got != want {
			t.Errorf("formatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := formatDate(time.Time{}); got != "--" {
		t.Errorf("expected -- for zero time, got %q", got)
	}
	if got := formatDate(time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)); got != "2024-03-09" {
		t.Errorf("unexpected date %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("a very long product name", 10); got != "a very lo…" {
		t.Errorf("unexpected truncation %q", got)
	}
}

func TestStatusIcon(t *testing.T) {
	cases := map[domain.OrderStatus]string{
		domain.OrderDelivered: "✓",
		domain.OrderCancelled: "✗",
		domain.OrderShipping:  "●",
		domain.OrderPending:   "↷",
		"unknown":             "?",
	}
	for status, want := range cases {
		if got := statusIcon(status); got != want {
			t.Errorf("statusIcon(%q) = %q, want %q", status, got, want)
		}
	}
}

func TestProductRows_SoldOut(t *testing.T) {
	rows := productRows([]domain.Product{{Name: "Cap", Price: 90000, Stock: 0}})
	if len(rows) != 1 || !strings.Contains(rows[0], "sold out") {
		t.Errorf("expected sold out row, got %v", rows)
	}
}

func TestCartRows_ShowsSubtotal(t *testing.T) {
	rows := cartRows([]domain.CartItem{{Product: domain.Product{Name: "Sock", Price: 25000}, Size: "L", Quantity: 3}})
	if !strings.Contains(rows[0], "75,000") || !strings.Contains(rows[0], "L") {
		t.Errorf("expected subtotal and size in row, got %q", rows[0])
	}
}
