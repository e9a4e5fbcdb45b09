// internal/domain/order/pricing.go
package order

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/domain/cart"
)

// Pricing constants. Shipping is free at or above the threshold, otherwise a
// flat rate applies; tax is a fixed percentage of the subtotal.
var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingRate      = decimal.NewFromInt(10)
	taxRate               = decimal.RequireFromString("0.0825")
)

// Summary is the pricing breakdown for a cart. All amounts are exact decimal
// values; rounding to two places happens only when an order is persisted.
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ItemCount      int             `json:"item_count"`
}

// CalculateSummary is a pure function over the cart snapshot. The unit price
// for each line is the current variant price when a variant is selected, else
// the current product price, falling back to the snapshotted cart price when
// the catalog row is gone.
func CalculateSummary(items []cart.SnapshotItem) Summary {
	subtotal := decimal.Zero
	itemCount := 0

	for _, item := range items {
		unitPrice := lineUnitPrice(item)
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		itemCount += item.Quantity
	}

	shippingCost := flatShippingRate
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		shippingCost = decimal.Zero
	}

	taxAmount := subtotal.Mul(taxRate)
	discountAmount := decimal.Zero
	totalAmount := subtotal.Add(shippingCost).Add(taxAmount).Sub(discountAmount)

	return Summary{
		Subtotal:       subtotal,
		ShippingCost:   shippingCost,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		TotalAmount:    totalAmount,
		ItemCount:      itemCount,
	}
}

func lineUnitPrice(item cart.SnapshotItem) decimal.Decimal {
	if item.Product != nil {
		return item.Product.EffectivePrice(item.ProductVariant)
	}
	return item.UnitPrice
}
