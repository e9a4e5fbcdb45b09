package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

func snapshotItem(price string, quantity int) cart.SnapshotItem {
	p := decimal.RequireFromString(price)
	return cart.SnapshotItem{
		CartItem: cart.CartItem{
			Quantity:  quantity,
			UnitPrice: p,
		},
		Product: &product.Product{
			Price: p,
		},
	}
}

func TestCalculateSummary(t *testing.T) {
	items := []cart.SnapshotItem{
		snapshotItem("20.00", 3),
		snapshotItem("15.50", 2),
	}

	summary := CalculateSummary(items)

	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("91.00")),
		"subtotal = %s", summary.Subtotal)
	assert.True(t, summary.ShippingCost.Equal(decimal.RequireFromString("10")),
		"shipping = %s", summary.ShippingCost)
	// 91.00 * 0.0825, exact
	assert.True(t, summary.TaxAmount.Equal(decimal.RequireFromString("7.5075")),
		"tax = %s", summary.TaxAmount)
	assert.True(t, summary.TotalAmount.Equal(decimal.RequireFromString("108.5075")),
		"total = %s", summary.TotalAmount)
	assert.Equal(t, 5, summary.ItemCount)
}

func TestCalculateSummaryRoundsOnlyAtPersistence(t *testing.T) {
	items := []cart.SnapshotItem{
		snapshotItem("20.00", 3),
		snapshotItem("15.50", 2),
	}

	summary := CalculateSummary(items)

	assert.Equal(t, "7.51", summary.TaxAmount.Round(2).StringFixed(2))
}

func TestCalculateSummaryFreeShippingBoundary(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		shipping string
	}{
		{"at threshold", "100.00", "0"},
		{"above threshold", "150.00", "0"},
		{"just below threshold", "99.99", "10"},
		{"empty cart", "0", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items []cart.SnapshotItem
			if tt.subtotal != "0" {
				items = append(items, snapshotItem(tt.subtotal, 1))
			}

			summary := CalculateSummary(items)

			assert.True(t, summary.ShippingCost.Equal(decimal.RequireFromString(tt.shipping)),
				"shipping = %s, want %s", summary.ShippingCost, tt.shipping)
		})
	}
}

func TestCalculateSummaryUsesVariantPrice(t *testing.T) {
	variant := &product.ProductVariant{
		Price: decimal.RequireFromString("30.00"),
	}
	item := snapshotItem("25.50", 2)
	item.ProductVariant = variant

	summary := CalculateSummary([]cart.SnapshotItem{item})

	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("60.00")),
		"subtotal = %s", summary.Subtotal)
}

func TestCalculateSummaryUsesCurrentCatalogPrice(t *testing.T) {
	// The cart snapshotted 25.50 but the catalog price has since changed;
	// checkout pricing follows the catalog.
	item := snapshotItem("25.50", 1)
	item.Product.Price = decimal.RequireFromString("27.00")

	summary := CalculateSummary([]cart.SnapshotItem{item})

	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("27.00")),
		"subtotal = %s", summary.Subtotal)
}

func TestCalculateSummaryFallsBackToSnapshotPrice(t *testing.T) {
	item := snapshotItem("25.50", 1)
	item.Product = nil

	summary := CalculateSummary([]cart.SnapshotItem{item})

	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("25.50")),
		"subtotal = %s", summary.Subtotal)
}
