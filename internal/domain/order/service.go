// internal/domain/order/service.go
package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrOrderNotFound is returned when the referenced order does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrEmptyCart is returned when checkout or totals are requested on an empty cart
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotCancellable is returned when the order status no longer permits cancellation
	ErrNotCancellable = errors.New("order cannot be cancelled in its current status")
)

// orderNumberAttempts bounds the retry loop on order number collisions
const orderNumberAttempts = 3

// StockError reports the first line item whose requested quantity exceeds
// available stock; the whole checkout is rejected, no partial fulfillment.
type StockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for '%s': available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// Service handles order business logic
type Service struct {
	db               *gorm.DB
	config           *config.Config
	cartService      *cart.Service
	inventoryService *inventory.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, cartService *cart.Service) *Service {
	return &Service{
		db:               db,
		config:           cfg,
		cartService:      cartService,
		inventoryService: inventory.NewService(db, cfg),
	}
}

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	CustomerName    string   `json:"customer_name" binding:"required"`
	CustomerEmail   string   `json:"customer_email" binding:"required,email"`
	CustomerPhone   string   `json:"customer_phone"`
	ShippingAddress Address  `json:"shipping_address" binding:"required"`
	BillingAddress  *Address `json:"billing_address"`
	PaymentMethod   string   `json:"payment_method" binding:"required,oneof=credit_card debit_card paypal bank_transfer cash_on_delivery"`
	Notes           string   `json:"notes"`
}

// UpdateStatusRequest represents an admin status update; every field is
// optional and only supplied fields are applied
type UpdateStatusRequest struct {
	OrderStatus    *OrderStatus   `json:"order_status"`
	PaymentStatus  *PaymentStatus `json:"payment_status"`
	TrackingNumber *string        `json:"tracking_number"`
	CarrierName    *string        `json:"carrier_name"`
	Notes          string         `json:"notes"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page      int         `form:"page,default=1"`
	Limit     int         `form:"limit,default=20"`
	Status    OrderStatus `form:"status"`
	UserID    uint        `form:"user_id"`
	SortBy    string      `form:"sort_by,default=created_at"`
	SortOrder string      `form:"sort_order,default=desc"`
}

// OrderListResponse represents orders with pagination
type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// CalculateTotals runs the pricing calculator over the user's current cart
func (s *Service) CalculateTotals(userID uint) (*Summary, error) {
	snapshot, err := s.cartService.GetSnapshot(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	summary := CalculateSummary(snapshot.Items)
	return &summary, nil
}

// Checkout places an order from the user's cart. Order insert, line item
// inserts, the initial history entry, stock decrements and the cart clear all
// happen in one transaction; any failure rolls back every prior step.
func (s *Service) Checkout(userID uint, req *CheckoutRequest) (*Order, error) {
	snapshot, err := s.cartService.GetSnapshot(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Reject before any mutation. The decrement inside the transaction is
	// still conditional, so a concurrent checkout that wins the race fails
	// there instead of driving stock negative.
	if err := validateStock(snapshot.Items); err != nil {
		return nil, err
	}

	summary := CalculateSummary(snapshot.Items)

	billingAddress := req.ShippingAddress
	if req.BillingAddress != nil {
		billingAddress = *req.BillingAddress
	}

	var placed *Order

	// Order numbers are time+random; a collision surfaces as a unique
	// violation and the whole transaction is retried with a fresh number.
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		newOrder := Order{
			OrderNumber:     generateOrderNumber(time.Now().UTC()),
			UserID:          &userID,
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			CustomerPhone:   req.CustomerPhone,
			OrderStatus:     OrderStatusPending,
			PaymentStatus:   PaymentStatusPending,
			PaymentMethod:   req.PaymentMethod,
			Subtotal:        summary.Subtotal.Round(2),
			ShippingCost:    summary.ShippingCost.Round(2),
			TaxAmount:       summary.TaxAmount.Round(2),
			DiscountAmount:  summary.DiscountAmount.Round(2),
			TotalAmount:     summary.TotalAmount.Round(2),
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  billingAddress,
			Notes:           req.Notes,
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&newOrder).Error; err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}

			for _, item := range snapshot.Items {
				orderItem, err := buildOrderItem(newOrder.ID, item)
				if err != nil {
					return err
				}
				if err := tx.Create(orderItem).Error; err != nil {
					return fmt.Errorf("failed to create order item: %w", err)
				}
			}

			history := OrderStatusHistory{
				OrderID:    newOrder.ID,
				FromStatus: nil,
				ToStatus:   OrderStatusPending,
				Notes:      "Order created",
				ChangedBy:  userID,
				CreatedAt:  time.Now().UTC(),
			}
			if err := tx.Create(&history).Error; err != nil {
				return fmt.Errorf("failed to create status history: %w", err)
			}

			if err := s.consumeStock(tx, newOrder.ID, snapshot.Items, userID); err != nil {
				return err
			}

			return s.cartService.ClearCart(tx, &snapshot.Cart)
		})

		if err == nil {
			placed = &newOrder
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, err
	}

	if placed == nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	return s.GetOrder(placed.ID)
}

// GetOrders retrieves orders with filtering and pagination
func (s *Service) GetOrders(req *OrderListRequest) (*OrderListResponse, error) {
	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		})

	if req.Status != "" {
		query = query.Where("order_status = ?", req.Status)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	orderClause := buildOrderClause(req.SortBy, req.SortOrder)
	offset := (req.Page - 1) * req.Limit
	if err := query.Order(orderClause).Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderListResponse{
		Orders: orders,
		Total:  total,
		Page:   req.Page,
		Limit:  req.Limit,
	}, nil
}

// GetOrder retrieves a single order by ID with items and status history
func (s *Service) GetOrder(id uint) (*Order, error) {
	var o Order
	result := s.db.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&o)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &o, nil
}

// GetUserOrders retrieves orders for a specific user
func (s *Service) GetUserOrders(userID uint, page, limit int) (*OrderListResponse, error) {
	return s.GetOrders(&OrderListRequest{
		Page:   page,
		Limit:  limit,
		UserID: userID,
	})
}

// UpdateStatus applies an admin status update. A history entry is appended
// only when the order status actually changes; tracking fields alone never
// write history.
func (s *Service) UpdateStatus(orderID uint, req *UpdateStatusRequest, changedBy uint) (*Order, error) {
	current, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	toOrder := current.OrderStatus
	if req.OrderStatus != nil {
		toOrder = *req.OrderStatus
	}
	toPayment := current.PaymentStatus
	if req.PaymentStatus != nil {
		toPayment = *req.PaymentStatus
	}

	if err := ValidateTransition(current, toOrder, toPayment); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	now := time.Now().UTC()

	orderStatusChanged := toOrder != current.OrderStatus
	if orderStatusChanged {
		updates["order_status"] = toOrder
		switch toOrder {
		case OrderStatusShipped:
			updates["shipped_at"] = now
		case OrderStatusDelivered:
			updates["delivered_at"] = now
		case OrderStatusCancelled:
			updates["cancelled_at"] = now
		}
	}
	if toPayment != current.PaymentStatus {
		updates["payment_status"] = toPayment
	}
	if req.TrackingNumber != nil {
		updates["tracking_number"] = *req.TrackingNumber
	}
	if req.CarrierName != nil {
		updates["carrier_name"] = *req.CarrierName
	}

	if len(updates) == 0 {
		return current, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Order{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		if orderStatusChanged {
			from := current.OrderStatus
			history := OrderStatusHistory{
				OrderID:    orderID,
				FromStatus: &from,
				ToStatus:   toOrder,
				Notes:      req.Notes,
				ChangedBy:  changedBy,
				CreatedAt:  now,
			}
			if err := tx.Create(&history).Error; err != nil {
				return fmt.Errorf("failed to create status history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(orderID)
}

// Cancel cancels an order and restores the consumed stock in the same
// transaction. The status flip is a conditional update so a concurrent
// second cancellation fails instead of double-restoring stock.
func (s *Service) Cancel(orderID uint, reason string, cancelledBy uint) (*Order, error) {
	current, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !current.CanBeCancelled() {
		return nil, ErrNotCancellable
	}

	now := time.Now().UTC()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND order_status IN ?", orderID,
				[]OrderStatus{OrderStatusPending, OrderStatusConfirmed}).
			Updates(map[string]interface{}{
				"order_status": OrderStatusCancelled,
				"cancelled_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to cancel order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotCancellable
		}

		if err := s.restoreStock(tx, current, cancelledBy); err != nil {
			return err
		}

		notes := "Order cancelled"
		if reason != "" {
			notes = fmt.Sprintf("Order cancelled: %s", reason)
		}
		from := current.OrderStatus
		history := OrderStatusHistory{
			OrderID:    orderID,
			FromStatus: &from,
			ToStatus:   OrderStatusCancelled,
			Notes:      notes,
			ChangedBy:  cancelledBy,
			CreatedAt:  now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(orderID)
}

// Private helpers

// validateStock checks every line item against available stock; nil or
// missing counters count as zero
func validateStock(items []cart.SnapshotItem) error {
	for _, item := range items {
		available := 0
		name := fmt.Sprintf("product %d", item.ProductID)
		if item.Product != nil {
			available = item.Product.AvailableStock(item.ProductVariant)
			name = item.Product.Name
		}
		if item.Quantity > available {
			return &StockError{ProductName: name, Available: available, Requested: item.Quantity}
		}
	}
	return nil
}

// consumeStock decrements stock for each line item with a conditional update
// (stock_quantity >= quantity) and fails the transaction when no row matched,
// then records the movement in the inventory ledger. RETURNING reads the
// counter the update actually produced, so the ledger stays accurate even
// when a concurrent writer changed the stock after the snapshot was taken.
func (s *Service) consumeStock(tx *gorm.DB, orderID uint, items []cart.SnapshotItem, userID uint) error {
	returning := clause.Returning{Columns: []clause.Column{{Name: "stock_quantity"}}}

	for _, item := range items {
		var result *gorm.DB
		var remaining int
		if item.ProductVariantID != nil {
			var variant product.ProductVariant
			result = tx.Model(&variant).Clauses(returning).
				Where("id = ? AND stock_quantity >= ?", *item.ProductVariantID, item.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			remaining = variant.StockQuantity
		} else {
			var prod product.Product
			result = tx.Model(&prod).Clauses(returning).
				Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			remaining = prod.StockQuantity
		}
		if result.Error != nil {
			return fmt.Errorf("failed to decrement stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			name := fmt.Sprintf("product %d", item.ProductID)
			available := 0
			if item.Product != nil {
				name = item.Product.Name
				available = item.Product.AvailableStock(item.ProductVariant)
			}
			return &StockError{ProductName: name, Available: available, Requested: item.Quantity}
		}

		movement := &inventory.StockMovement{
			ProductID:        item.ProductID,
			ProductVariantID: item.ProductVariantID,
			MovementType:     inventory.MovementTypeOutbound,
			Reason:           inventory.ReasonSale,
			Quantity:         item.Quantity,
			PreviousQuantity: remaining + item.Quantity,
			NewQuantity:      remaining,
			ReferenceType:    "order",
			ReferenceID:      orderID,
			CreatedBy:        userID,
		}
		if err := s.inventoryService.RecordMovement(tx, movement); err != nil {
			return err
		}
	}
	return nil
}

// restoreStock mirrors consumeStock for cancellation, incrementing the
// counters for every line item of the order
func (s *Service) restoreStock(tx *gorm.DB, o *Order, userID uint) error {
	var items []OrderItem
	if err := tx.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}

	returning := clause.Returning{Columns: []clause.Column{{Name: "stock_quantity"}}}

	for _, item := range items {
		var result *gorm.DB
		var restored int
		if item.ProductVariantID != nil {
			var variant product.ProductVariant
			result = tx.Model(&variant).Clauses(returning).
				Where("id = ?", *item.ProductVariantID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity))
			restored = variant.StockQuantity
		} else {
			var prod product.Product
			result = tx.Model(&prod).Clauses(returning).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity))
			restored = prod.StockQuantity
		}
		if result.Error != nil {
			return fmt.Errorf("failed to restore stock: %w", result.Error)
		}

		movement := &inventory.StockMovement{
			ProductID:        item.ProductID,
			ProductVariantID: item.ProductVariantID,
			MovementType:     inventory.MovementTypeInbound,
			Reason:           inventory.ReasonCancellation,
			Quantity:         item.Quantity,
			PreviousQuantity: restored - item.Quantity,
			NewQuantity:      restored,
			ReferenceType:    "order",
			ReferenceID:      o.ID,
			CreatedBy:        userID,
		}
		if err := s.inventoryService.RecordMovement(tx, movement); err != nil {
			return err
		}
	}
	return nil
}

// buildOrderItem snapshots one cart line item, including the full product
// and variant records as JSON
func buildOrderItem(orderID uint, item cart.SnapshotItem) (*OrderItem, error) {
	orderItem := &OrderItem{
		OrderID:          orderID,
		ProductID:        item.ProductID,
		ProductVariantID: item.ProductVariantID,
		Quantity:         item.Quantity,
	}

	unitPrice := item.UnitPrice
	if item.Product != nil {
		orderItem.SKU = item.Product.SKU
		orderItem.Name = item.Product.Name
		unitPrice = item.Product.EffectivePrice(item.ProductVariant)
	}
	if item.ProductVariant != nil {
		orderItem.SKU = item.ProductVariant.SKU
		orderItem.VariantName = item.ProductVariant.Name
	}

	orderItem.UnitPrice = unitPrice.Round(2)
	orderItem.TotalPrice = unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)

	snapshot, err := json.Marshal(map[string]interface{}{
		"product": item.Product,
		"variant": item.ProductVariant,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product snapshot: %w", err)
	}
	orderItem.ProductSnapshot = string(snapshot)

	return orderItem, nil
}

// generateOrderNumber builds a time+random order number; uniqueness is
// ultimately enforced by the unique index and the retry loop in Checkout
func generateOrderNumber(now time.Time) string {
	ms := now.UnixMilli() % 100000000 // last 8 digits
	return fmt.Sprintf("ORD-%08d-%03d", ms, uuid.New().ID()%1000)
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"order_status": true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
