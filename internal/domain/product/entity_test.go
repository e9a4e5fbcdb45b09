package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	p := &Product{Price: decimal.RequireFromString("19.99")}

	// No variant selected
	assert.True(t, p.EffectivePrice(nil).Equal(decimal.RequireFromString("19.99")))

	// Variant with a price override
	variant := &ProductVariant{Price: decimal.RequireFromString("24.99")}
	assert.True(t, p.EffectivePrice(variant).Equal(decimal.RequireFromString("24.99")))

	// Variant without an override falls back to the product price
	zeroVariant := &ProductVariant{Price: decimal.Zero}
	assert.True(t, p.EffectivePrice(zeroVariant).Equal(decimal.RequireFromString("19.99")))
}

func TestAvailableStock(t *testing.T) {
	p := &Product{StockQuantity: 10}

	assert.Equal(t, 10, p.AvailableStock(nil))

	variant := &ProductVariant{StockQuantity: 3}
	assert.Equal(t, 3, p.AvailableStock(variant))
}
