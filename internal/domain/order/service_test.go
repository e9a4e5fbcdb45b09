package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func TestGenerateOrderNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{8}-\d{3}$`)

	now := time.Now().UTC()
	for i := 0; i < 100; i++ {
		number := generateOrderNumber(now)
		assert.Regexp(t, pattern, number)
	}
}

func TestValidateStock(t *testing.T) {
	inStock := cart.SnapshotItem{
		CartItem: cart.CartItem{Quantity: 2},
		Product: &product.Product{
			Name:          "Widget",
			StockQuantity: 5,
		},
	}
	assert.NoError(t, validateStock([]cart.SnapshotItem{inStock}))

	outOfStock := cart.SnapshotItem{
		CartItem: cart.CartItem{Quantity: 6},
		Product: &product.Product{
			Name:          "Widget",
			StockQuantity: 5,
		},
	}
	err := validateStock([]cart.SnapshotItem{inStock, outOfStock})
	assert.Error(t, err)

	var stockErr *StockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Widget", stockErr.ProductName)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)
}

func TestValidateStockVariant(t *testing.T) {
	// Variant stock counts, not the parent product's
	item := cart.SnapshotItem{
		CartItem: cart.CartItem{Quantity: 3},
		Product: &product.Product{
			Name:          "Widget",
			StockQuantity: 100,
		},
		ProductVariant: &product.ProductVariant{
			StockQuantity: 2,
		},
	}

	err := validateStock([]cart.SnapshotItem{item})

	var stockErr *StockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
}

func TestConsumeStockFailsWhenGuardMatchesNoRows(t *testing.T) {
	// DryRun builds the conditional decrement without executing it, so the
	// guard matches zero rows, the same outcome as a concurrent checkout
	// draining the stock first.
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)

	svc := NewService(db, &config.Config{}, cart.NewService(db, nil, &config.Config{}))
	items := []cart.SnapshotItem{{
		CartItem: cart.CartItem{ProductID: 7, Quantity: 5},
		Product:  &product.Product{Name: "Widget", StockQuantity: 3},
	}}

	err = svc.consumeStock(db, 1, items, 1)

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Widget", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
}

func TestBuildOrderItem(t *testing.T) {
	item := cart.SnapshotItem{
		CartItem: cart.CartItem{
			ProductID: 7,
			Quantity:  3,
			UnitPrice: decimal.RequireFromString("10.00"),
		},
		Product: &product.Product{
			SKU:   "WIDGET-001",
			Name:  "Widget",
			Price: decimal.RequireFromString("12.00"),
		},
	}

	orderItem, err := buildOrderItem(42, item)
	assert.NoError(t, err)

	assert.Equal(t, uint(42), orderItem.OrderID)
	assert.Equal(t, "WIDGET-001", orderItem.SKU)
	assert.Equal(t, "Widget", orderItem.Name)
	// Current catalog price, not the cart snapshot
	assert.Equal(t, "12.00", orderItem.UnitPrice.StringFixed(2))
	assert.Equal(t, "36.00", orderItem.TotalPrice.StringFixed(2))
	assert.NotEmpty(t, orderItem.ProductSnapshot)
}

func TestOrderCanBeCancelled(t *testing.T) {
	assert.True(t, (&Order{OrderStatus: OrderStatusPending}).CanBeCancelled())
	assert.True(t, (&Order{OrderStatus: OrderStatusConfirmed}).CanBeCancelled())
	assert.False(t, (&Order{OrderStatus: OrderStatusProcessing}).CanBeCancelled())
	assert.False(t, (&Order{OrderStatus: OrderStatusShipped}).CanBeCancelled())
	assert.False(t, (&Order{OrderStatus: OrderStatusCancelled}).CanBeCancelled())
}
