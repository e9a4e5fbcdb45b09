// internal/domain/quotation/service.go
package quotation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

var (
	// ErrQuotationNotFound is returned when the referenced quotation does not exist
	ErrQuotationNotFound = errors.New("quotation not found")

	// ErrInvalidTransition is returned when a status change is not permitted
	ErrInvalidTransition = errors.New("invalid quotation status transition")

	// ErrNoItems is returned when a quotation is created without line items
	ErrNoItems = errors.New("quotation requires at least one item")

	// ErrNotDraft is returned when editing a quotation that already left draft
	ErrNotDraft = errors.New("quotation can only be edited while draft")
)

// quotationNumberAttempts bounds the retry loop on number collisions
const quotationNumberAttempts = 3

// taxRate matches the checkout pricing calculator
var taxRate = decimal.RequireFromString("0.0825")

// defaultValidityDays is how long a quotation stays open when the request
// does not say otherwise
const defaultValidityDays = 30

// statusTransitions lists the allowed successors per status. Approved,
// rejected and expired are terminal.
var statusTransitions = map[QuotationStatus][]QuotationStatus{
	StatusDraft:   {StatusPending, StatusExpired},
	StatusPending: {StatusApproved, StatusRejected, StatusExpired},
}

// CanTransition reports whether the status may move from one status to another
func CanTransition(from, to QuotationStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service handles quotation business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new quotation service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateRequest represents a quotation creation payload
type CreateRequest struct {
	CustomerName  string              `json:"customer_name" binding:"required"`
	CustomerEmail string              `json:"customer_email" binding:"required,email"`
	CustomerPhone string              `json:"customer_phone"`
	Notes         string              `json:"notes"`
	ValidityDays  int                 `json:"validity_days"`
	Items         []CreateItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateItemRequest represents one requested quotation line
type CreateItemRequest struct {
	ProductID        uint  `json:"product_id" binding:"required"`
	ProductVariantID *uint `json:"product_variant_id"`
	Quantity         int   `json:"quantity" binding:"required,min=1"`
}

// UpdateStatusRequest represents a quotation status change
type UpdateStatusRequest struct {
	Status QuotationStatus `json:"status" binding:"required,oneof=draft pending approved rejected expired"`
	Notes  string          `json:"notes"`
}

// ListRequest represents quotation list query parameters
type ListRequest struct {
	Page   int             `form:"page,default=1"`
	Limit  int             `form:"limit,default=20"`
	Status QuotationStatus `form:"status"`
	UserID uint            `form:"user_id"`
}

// ListResponse represents quotations with pagination
type ListResponse struct {
	Quotations []Quotation `json:"quotations"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
}

// Create prices the requested items against the current catalog and stores
// the quotation as a draft. Each line is inserted exactly once; stock is
// never touched.
func (s *Service) Create(userID uint, req *CreateRequest) (*Quotation, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}

	items, subtotal, err := s.priceItems(req.Items)
	if err != nil {
		return nil, err
	}

	validityDays := req.ValidityDays
	if validityDays <= 0 {
		validityDays = defaultValidityDays
	}

	taxAmount := subtotal.Mul(taxRate)

	var created *Quotation
	for attempt := 0; attempt < quotationNumberAttempts; attempt++ {
		q := Quotation{
			QuotationNumber: generateQuotationNumber(time.Now().UTC()),
			UserID:          userID,
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			CustomerPhone:   req.CustomerPhone,
			Status:          StatusDraft,
			Subtotal:        subtotal.Round(2),
			TaxAmount:       taxAmount.Round(2),
			TotalAmount:     subtotal.Add(taxAmount).Round(2),
			Notes:           req.Notes,
			ValidUntil:      time.Now().UTC().AddDate(0, 0, validityDays),
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&q).Error; err != nil {
				return fmt.Errorf("failed to create quotation: %w", err)
			}
			for i := range items {
				items[i].QuotationID = q.ID
				if err := tx.Create(&items[i]).Error; err != nil {
					return fmt.Errorf("failed to create quotation item: %w", err)
				}
			}
			return nil
		})

		if err == nil {
			created = &q
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, err
	}

	if created == nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	return s.GetQuotation(created.ID)
}

// UpdateDraft replaces the customer details and line items of a draft
// quotation, re-pricing every line against the current catalog. Quotations
// that have left draft are immutable.
func (s *Service) UpdateDraft(id uint, req *CreateRequest) (*Quotation, error) {
	q, err := s.GetQuotation(id)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusDraft {
		return nil, ErrNotDraft
	}
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}

	items, subtotal, err := s.priceItems(req.Items)
	if err != nil {
		return nil, err
	}

	validityDays := req.ValidityDays
	if validityDays <= 0 {
		validityDays = defaultValidityDays
	}
	taxAmount := subtotal.Mul(taxRate)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"customer_name":  req.CustomerName,
			"customer_email": req.CustomerEmail,
			"customer_phone": req.CustomerPhone,
			"notes":          req.Notes,
			"subtotal":       subtotal.Round(2),
			"tax_amount":     taxAmount.Round(2),
			"total_amount":   subtotal.Add(taxAmount).Round(2),
			"valid_until":    time.Now().UTC().AddDate(0, 0, validityDays),
		}
		if err := tx.Model(&Quotation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update quotation: %w", err)
		}
		if err := tx.Where("quotation_id = ?", id).Delete(&QuotationItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear quotation items: %w", err)
		}
		for i := range items {
			items[i].QuotationID = id
			if err := tx.Create(&items[i]).Error; err != nil {
				return fmt.Errorf("failed to create quotation item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetQuotation(id)
}

// GetQuotations retrieves quotations with filtering and pagination
func (s *Service) GetQuotations(req *ListRequest) (*ListResponse, error) {
	var quotations []Quotation
	var total int64

	query := s.db.Model(&Quotation{}).Preload("Items")

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count quotations: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&quotations).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve quotations: %w", err)
	}

	return &ListResponse{
		Quotations: quotations,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

// GetQuotation retrieves a single quotation by ID with items
func (s *Service) GetQuotation(id uint) (*Quotation, error) {
	var q Quotation
	result := s.db.Preload("Items").Where("id = ?", id).First(&q)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to retrieve quotation: %w", result.Error)
	}
	return &q, nil
}

// GetUserQuotations retrieves quotations for a specific user
func (s *Service) GetUserQuotations(userID uint, page, limit int) (*ListResponse, error) {
	return s.GetQuotations(&ListRequest{
		Page:   page,
		Limit:  limit,
		UserID: userID,
	})
}

// UpdateStatus moves the quotation through its lifecycle; the transition
// table rejects anything else
func (s *Service) UpdateStatus(id uint, req *UpdateStatusRequest) (*Quotation, error) {
	q, err := s.GetQuotation(id)
	if err != nil {
		return nil, err
	}

	if req.Status == q.Status {
		return q, nil
	}
	if !CanTransition(q.Status, req.Status) {
		return nil, fmt.Errorf("%w: %q cannot follow %q", ErrInvalidTransition, req.Status, q.Status)
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if err := s.db.Model(&Quotation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update quotation status: %w", err)
	}

	return s.GetQuotation(id)
}

// ExpireStale marks open quotations past their validity window as expired.
// Intended for a periodic sweep; returns the number of rows changed.
func (s *Service) ExpireStale(now time.Time) (int64, error) {
	result := s.db.Model(&Quotation{}).
		Where("status IN ? AND valid_until < ?",
			[]QuotationStatus{StatusDraft, StatusPending}, now).
		Update("status", StatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire quotations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// priceItems resolves each requested line against the current catalog and
// returns the priced items plus the exact subtotal
func (s *Service) priceItems(reqs []CreateItemRequest) ([]QuotationItem, decimal.Decimal, error) {
	items := make([]QuotationItem, 0, len(reqs))
	subtotal := decimal.Zero

	for _, req := range reqs {
		var p product.Product
		if err := s.db.Preload("Variants").Where("id = ?", req.ProductID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, product.ErrProductNotFound
			}
			return nil, decimal.Zero, fmt.Errorf("failed to retrieve product: %w", err)
		}

		var variant *product.ProductVariant
		sku := p.SKU
		name := p.Name
		if req.ProductVariantID != nil {
			for i := range p.Variants {
				if p.Variants[i].ID == *req.ProductVariantID {
					variant = &p.Variants[i]
					break
				}
			}
			if variant == nil {
				return nil, decimal.Zero, product.ErrProductNotFound
			}
			sku = variant.SKU
			name = fmt.Sprintf("%s (%s)", p.Name, variant.Name)
		}

		unitPrice := p.EffectivePrice(variant)
		totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
		subtotal = subtotal.Add(totalPrice)

		items = append(items, QuotationItem{
			ProductID:        req.ProductID,
			ProductVariantID: req.ProductVariantID,
			SKU:              sku,
			Name:             name,
			Quantity:         req.Quantity,
			UnitPrice:        unitPrice.Round(2),
			TotalPrice:       totalPrice.Round(2),
		})
	}

	return items, subtotal, nil
}

// generateQuotationNumber builds a "QUO-<epoch ms>-<4 char base36>" number;
// the unique index plus the retry loop in Create cover collisions
func generateQuotationNumber(now time.Time) string {
	suffix := strings.ToUpper(strconv.FormatUint(uint64(uuid.New().ID())%1679616, 36))
	for len(suffix) < 4 {
		suffix = "0" + suffix
	}
	return fmt.Sprintf("QUO-%d-%s", now.UnixMilli(), suffix)
}
