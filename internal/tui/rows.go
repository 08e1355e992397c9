package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/waabox/shopdeck/internal/domain"
)

func productRows(products []domain.Product) []string {
	rows := make([]string, len(products))
	for i, p := range products {
		stock := fmt.Sprintf("%d in stock", p.Stock)
		if p.Stock == 0 {
			stock = "sold out"
		}
		rows[i] = fmt.Sprintf("%-30s %12s  %-12s %s",
			truncate(p.Name, 30), formatPrice(p.Price), truncate(p.Category.Name, 12), stock)
	}
	return rows
}

func cartRows(items []domain.CartItem) []string {
	rows := make([]string, len(items))
	for i, c := range items {
		variant := strings.Trim(c.Size+" / "+c.Color, " /")
		rows[i] = fmt.Sprintf("%-30s %-12s x%-3d %12s",
			truncate(c.Product.Name, 30), truncate(variant, 12), c.Quantity, formatPrice(c.Subtotal()))
	}
	return rows
}

func orderRows(orders []domain.Order) []string {
	rows := make([]string, len(orders))
	for i, o := range orders {
		rows[i] = fmt.Sprintf("%s #%-12s %-10s %12s  %s",
			statusIcon(o.Status), truncate(o.ID, 12), o.Status, formatPrice(o.Total), formatDate(o.CreatedAt))
	}
	return rows
}

func orderItemRows(items []domain.OrderItem) []string {
	rows := make([]string, len(items))
	for i, it := range items {
		rows[i] = fmt.Sprintf("%-30s %-4s %-8s x%-3d %12s",
			truncate(it.ProductName, 30), it.Size, truncate(it.Color, 8), it.Quantity, formatPrice(it.Price))
	}
	return rows
}

func statusIcon(s domain.OrderStatus) string {
	switch s {
	case domain.OrderDelivered:
		return "✓"
	case domain.OrderCancelled:
		return "✗"
	case domain.OrderShipping:
		return "●"
	case domain.OrderPending, domain.OrderConfirmed:
		return "↷"
	default:
		return "?"
	}
}

// formatPrice renders an amount with thousands separators and no decimals.
func formatPrice(v float64) string {
	s := strconv.FormatInt(int64(v+0.5), 10)
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Format("2006-01-02")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
