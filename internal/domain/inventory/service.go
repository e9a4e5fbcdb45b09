// internal/domain/inventory/service.go
package inventory

import (
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles the stock movement ledger
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// MovementListRequest represents movement list query parameters
type MovementListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	ProductID uint   `form:"product_id"`
	Reason    string `form:"reason"`
}

// MovementListResponse represents movements with pagination
type MovementListResponse struct {
	Movements []StockMovement `json:"movements"`
	Total     int64           `json:"total"`
	Page      int             `json:"page"`
	Limit     int             `json:"limit"`
}

// RecordMovement appends a ledger row inside the caller's transaction.
// Callers supply previous/new quantities read within that transaction.
func (s *Service) RecordMovement(tx *gorm.DB, movement *StockMovement) error {
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	if err := tx.Create(movement).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

// GetMovements retrieves stock movements with filtering and pagination
func (s *Service) GetMovements(req *MovementListRequest) (*MovementListResponse, error) {
	var movements []StockMovement
	var total int64

	query := s.db.Model(&StockMovement{})

	if req.ProductID > 0 {
		query = query.Where("product_id = ?", req.ProductID)
	}
	if req.Reason != "" {
		query = query.Where("reason = ?", req.Reason)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count stock movements: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve stock movements: %w", err)
	}

	return &MovementListResponse{
		Movements: movements,
		Total:     total,
		Page:      req.Page,
		Limit:     req.Limit,
	}, nil
}
