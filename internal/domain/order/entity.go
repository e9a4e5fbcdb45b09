// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the order fulfillment status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus represents the payment status
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Order is the immutable record of a completed checkout. It is created once
// by the checkout transaction; afterwards only the status, tracking and
// lifecycle timestamp fields are mutated by status transitions.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID      *uint  `gorm:"index" json:"user_id"`

	// Customer contact snapshot
	CustomerName  string `gorm:"not null;size:255" json:"customer_name"`
	CustomerEmail string `gorm:"not null;size:255" json:"customer_email"`
	CustomerPhone string `gorm:"size:20" json:"customer_phone"`

	OrderStatus   OrderStatus   `gorm:"not null;default:'pending';size:20" json:"order_status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending';size:20" json:"payment_status"`
	PaymentMethod string        `gorm:"not null;size:50" json:"payment_method"`

	// Totals, rounded to 2dp at persistence
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_cost"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`

	// Address snapshots
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	// Shipping information
	TrackingNumber string `gorm:"size:100" json:"tracking_number"`
	CarrierName    string `gorm:"size:100" json:"carrier_name"`

	Notes string `gorm:"type:text" json:"notes"`

	// Lifecycle timestamps
	ShippedAt   *time.Time     `json:"shipped_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CancelledAt *time.Time     `json:"cancelled_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem snapshots one cart line item at order time. The product snapshot
// blob preserves the full product and variant records so later catalog edits
// cannot retroactively alter historical orders. Immutable after creation.
type OrderItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"not null;index" json:"order_id"`
	ProductID        uint            `gorm:"not null;index" json:"product_id"`
	ProductVariantID *uint           `gorm:"index" json:"product_variant_id"`
	SKU              string          `gorm:"not null;size:100" json:"sku"`
	Name             string          `gorm:"not null;size:255" json:"name"`
	VariantName      string          `gorm:"size:255" json:"variant_name"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	ProductSnapshot  string          `gorm:"type:jsonb" json:"product_snapshot"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderStatusHistory is the append-only ledger of order status changes. The
// order's live status field is a denormalized cache over this ledger: the
// latest entry's to_status always equals the order's order_status.
type OrderStatusHistory struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	OrderID    uint         `gorm:"not null;index" json:"order_id"`
	FromStatus *OrderStatus `gorm:"size:20" json:"from_status"`
	ToStatus   OrderStatus  `gorm:"not null;size:20" json:"to_status"`
	Notes      string       `gorm:"type:text" json:"notes"`
	ChangedBy  uint         `gorm:"index" json:"changed_by"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Address is a shipping/billing address snapshot embedded in the order
type Address struct {
	Street     string `gorm:"size:255" json:"street" binding:"required"`
	City       string `gorm:"size:100" json:"city" binding:"required"`
	State      string `gorm:"size:100" json:"state" binding:"required"`
	PostalCode string `gorm:"size:20" json:"postal_code" binding:"required"`
	Country    string `gorm:"size:100" json:"country" binding:"required"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// CanBeCancelled checks if the order can still be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.OrderStatus == OrderStatusPending || o.OrderStatus == OrderStatusConfirmed
}

// IsOwnedBy checks order ownership
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}
