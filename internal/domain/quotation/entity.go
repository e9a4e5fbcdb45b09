// internal/domain/quotation/entity.go
package quotation

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuotationStatus represents the quotation lifecycle status
type QuotationStatus string

const (
	StatusDraft    QuotationStatus = "draft"
	StatusPending  QuotationStatus = "pending"
	StatusApproved QuotationStatus = "approved"
	StatusRejected QuotationStatus = "rejected"
	StatusExpired  QuotationStatus = "expired"
)

// Quotation is a priced offer to a customer. Unlike an order it has no
// inventory effects: creating or approving a quotation never touches stock.
type Quotation struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	QuotationNumber string `gorm:"uniqueIndex;not null;size:50" json:"quotation_number"`
	UserID          uint   `gorm:"not null;index" json:"user_id"`

	CustomerName  string `gorm:"not null;size:255" json:"customer_name"`
	CustomerEmail string `gorm:"not null;size:255" json:"customer_email"`
	CustomerPhone string `gorm:"size:20" json:"customer_phone"`

	Status QuotationStatus `gorm:"not null;default:'draft';size:20" json:"status"`

	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`

	Notes      string    `gorm:"type:text" json:"notes"`
	ValidUntil time.Time `gorm:"not null" json:"valid_until"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []QuotationItem `gorm:"foreignKey:QuotationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// QuotationItem is one priced line of a quotation, snapshotted at creation
type QuotationItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	QuotationID      uint            `gorm:"not null;index" json:"quotation_id"`
	ProductID        uint            `gorm:"not null;index" json:"product_id"`
	ProductVariantID *uint           `gorm:"index" json:"product_variant_id"`
	SKU              string          `gorm:"not null;size:100" json:"sku"`
	Name             string          `gorm:"not null;size:255" json:"name"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName overrides
func (Quotation) TableName() string     { return "quotations" }
func (QuotationItem) TableName() string { return "quotation_items" }

// IsOwnedBy checks quotation ownership
func (q *Quotation) IsOwnedBy(userID uint) bool {
	return q.UserID == userID
}

// IsExpired reports whether the validity window has passed
func (q *Quotation) IsExpired(now time.Time) bool {
	return now.After(q.ValidUntil)
}
