// internal/domain/product/service.go
package product

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when the referenced product does not exist
var ErrProductNotFound = errors.New("product not found")

// Service handles product business logic
type Service struct {
	db               *gorm.DB
	config           *config.Config
	inventoryService *inventory.Service
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:               db,
		config:           cfg,
		inventoryService: inventory.NewService(db, cfg),
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
	ActiveOnly bool   `form:"active_only,default=true"`
}

// ProductListResponse represents products with pagination
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	SKU               string          `json:"sku" binding:"required"`
	Name              string          `json:"name" binding:"required"`
	Slug              string          `json:"slug" binding:"required"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	CategoryID        uint            `json:"category_id" binding:"required"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	IsActive          *bool           `json:"is_active"`
	Variants          []VariantInput  `json:"variants"`
}

// VariantInput represents a variant in create/update payloads
type VariantInput struct {
	SKU           string          `json:"sku" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Options       string          `json:"options"`
}

// UpdateProductRequest represents product update data; nil fields are left unchanged
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *uint            `json:"category_id"`
	IsActive    *bool            `json:"is_active"`
}

// AdjustStockRequest represents a manual stock adjustment
type AdjustStockRequest struct {
	ProductVariantID *uint  `json:"product_variant_id"`
	Delta            int    `json:"delta" binding:"required"`
	Notes            string `json:"notes"`
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(req *ProductListRequest) (*ProductListResponse, error) {
	var products []Product
	var total int64

	query := s.db.Model(&Product{}).
		Preload("Category").
		Preload("Images").
		Preload("Variants")

	if req.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR sku ILIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	orderClause := buildOrderClause(req.SortBy, req.SortOrder)
	offset := (req.Page - 1) * req.Limit
	if err := query.Order(orderClause).Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductListResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// GetProduct retrieves a single product by ID with relations
func (s *Service) GetProduct(id uint) (*Product, error) {
	var prod Product
	result := s.db.
		Preload("Category").
		Preload("Images").
		Preload("Variants").
		Where("id = ?", id).
		First(&prod)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &prod, nil
}

// GetProductBySlug retrieves a single active product by slug
func (s *Service) GetProductBySlug(slug string) (*Product, error) {
	var prod Product
	result := s.db.
		Preload("Category").
		Preload("Images").
		Preload("Variants").
		Where("slug = ? AND is_active = ?", slug, true).
		First(&prod)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &prod, nil
}

// CreateProduct creates a new product with its variants
func (s *Service) CreateProduct(req *CreateProductRequest) (*Product, error) {
	prod := Product{
		SKU:               req.SKU,
		Name:              req.Name,
		Slug:              req.Slug,
		Description:       req.Description,
		Price:             req.Price,
		CategoryID:        req.CategoryID,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          true,
	}
	if req.IsActive != nil {
		prod.IsActive = *req.IsActive
	}
	if prod.LowStockThreshold == 0 {
		prod.LowStockThreshold = 5
	}

	for _, v := range req.Variants {
		prod.Variants = append(prod.Variants, ProductVariant{
			SKU:           v.SKU,
			Name:          v.Name,
			Price:         v.Price,
			StockQuantity: v.StockQuantity,
			Options:       v.Options,
			IsActive:      true,
		})
	}

	if err := s.db.Create(&prod).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.GetProduct(prod.ID)
}

// UpdateProduct updates an existing product
func (s *Service) UpdateProduct(id uint, req *UpdateProductRequest) (*Product, error) {
	prod, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(prod).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.GetProduct(id)
}

// DeleteProduct soft-deletes a product
func (s *Service) DeleteProduct(id uint) error {
	result := s.db.Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AdjustStock applies a manual stock adjustment on the product or one of its
// variants. Negative deltas are clamped at zero; the checkout path uses the
// conditional decrement in the order service instead.
func (s *Service) AdjustStock(productID uint, req *AdjustStockRequest, adjustedBy uint) (*Product, error) {
	prod, err := s.GetProduct(productID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var previous, next int

		if req.ProductVariantID != nil {
			var variant ProductVariant
			if err := tx.Where("id = ? AND product_id = ?", *req.ProductVariantID, productID).First(&variant).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}
			previous = variant.StockQuantity
			next = clampToZero(previous + req.Delta)
			if err := tx.Model(&variant).Update("stock_quantity", next).Error; err != nil {
				return fmt.Errorf("failed to adjust variant stock: %w", err)
			}
		} else {
			previous = prod.StockQuantity
			next = clampToZero(previous + req.Delta)
			if err := tx.Model(prod).Update("stock_quantity", next).Error; err != nil {
				return fmt.Errorf("failed to adjust product stock: %w", err)
			}
		}

		movementType := inventory.MovementTypeInbound
		if next < previous {
			movementType = inventory.MovementTypeOutbound
		}

		return s.inventoryService.RecordMovement(tx, &inventory.StockMovement{
			ProductID:        productID,
			ProductVariantID: req.ProductVariantID,
			MovementType:     movementType,
			Reason:           inventory.ReasonAdjustment,
			Quantity:         req.Delta,
			PreviousQuantity: previous,
			NewQuantity:      next,
			ReferenceType:    "adjustment",
			Notes:            req.Notes,
			CreatedBy:        adjustedBy,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(productID)
}

// GetLowStockProducts returns active products at or below their low stock threshold
func (s *Service) GetLowStockProducts() ([]Product, error) {
	var products []Product
	err := s.db.
		Where("is_active = ? AND stock_quantity <= low_stock_threshold", true).
		Order("stock_quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve low stock products: %w", err)
	}
	return products, nil
}

// clampToZero floors a stock counter at zero
func clampToZero(quantity int) int {
	if quantity < 0 {
		return 0
	}
	return quantity
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"price":      true,
		"sku":        true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
