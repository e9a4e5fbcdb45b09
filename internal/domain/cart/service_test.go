package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func TestCalculateTotals(t *testing.T) {
	items := []SnapshotItem{
		{CartItem: CartItem{Quantity: 2, UnitPrice: decimal.RequireFromString("25.50")}},
		{CartItem: CartItem{Quantity: 1, UnitPrice: decimal.RequireFromString("40.00")}},
	}

	totals := CalculateTotals(items)

	assert.Equal(t, 2, totals.ItemCount)
	assert.Equal(t, 3, totals.TotalQuantity)
	assert.True(t, totals.SubTotal.Equal(decimal.RequireFromString("91.00")),
		"subtotal = %s", totals.SubTotal)
}

func TestCalculateTotalsEmpty(t *testing.T) {
	totals := CalculateTotals(nil)

	assert.Equal(t, 0, totals.ItemCount)
	assert.Equal(t, 0, totals.TotalQuantity)
	assert.True(t, totals.SubTotal.IsZero())
}

func TestClearCartFailsOnStaleVersion(t *testing.T) {
	// DryRun builds the statements without executing them, so the guarded
	// version update matches zero rows, the same outcome as a concurrent
	// writer bumping the version between the caller's read and the clear.
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)

	svc := NewService(db, nil, &config.Config{})
	c := &Cart{ID: 1, Version: 3}

	err = svc.ClearCart(db, c)
	assert.ErrorIs(t, err, ErrStaleCart)
}
