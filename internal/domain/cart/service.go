// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

var (
	// ErrStaleCart is returned when a mutation lost the optimistic version race
	ErrStaleCart = errors.New("cart was modified concurrently, retry with a fresh read")

	// ErrItemNotFound is returned when the referenced cart item does not exist
	ErrItemNotFound = errors.New("item not found in cart")

	// ErrInsufficientStock is returned when the requested quantity exceeds available stock
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Service handles cart business logic
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

// SnapshotItem is a cart line item resolved against the current catalog:
// the stored price snapshot plus the live product/variant rows
type SnapshotItem struct {
	CartItem
	Product        *product.Product        `json:"product,omitempty"`
	ProductVariant *product.ProductVariant `json:"product_variant,omitempty"`
}

// Snapshot is the fully-joined view of a user's cart used by cart views and
// as the input to checkout
type Snapshot struct {
	Cart   Cart           `json:"cart"`
	Items  []SnapshotItem `json:"items"`
	Totals CartTotals     `json:"totals"`
}

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	ProductID        uint  `json:"product_id" binding:"required"`
	ProductVariantID *uint `json:"product_variant_id"`
	Quantity         int   `json:"quantity" binding:"required,min=1"`
	CartVersion      *int  `json:"cart_version"`
}

// UpdateItemRequest represents a cart item quantity update
type UpdateItemRequest struct {
	Quantity    int  `json:"quantity" binding:"min=0"`
	CartVersion *int `json:"cart_version"`
}

// GetOrCreateCart returns the user's cart, creating an empty one on first
// access. The create is a write inside a conceptual read; callers treat a
// failure here as a fatal precondition.
func (s *Service) GetOrCreateCart(userID uint) (*Cart, error) {
	var c Cart
	err := s.db.Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = Cart{UserID: &userID}
		if err := s.db.Create(&c).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		return &c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return &c, nil
}

// GetSnapshot loads the user's cart with all line items eagerly joined to
// their product (images, variants) and selected variant
func (s *Service) GetSnapshot(userID uint) (*Snapshot, error) {
	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var items []CartItem
	if err := s.db.Where("cart_id = ?", c.ID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}

	snapshot := &Snapshot{Cart: *c, Items: make([]SnapshotItem, len(items))}
	for i, item := range items {
		snapshot.Items[i] = SnapshotItem{CartItem: item}

		var prod product.Product
		err := s.db.Preload("Images").Preload("Variants").
			Where("id = ?", item.ProductID).First(&prod).Error
		if err == nil {
			snapshot.Items[i].Product = &prod
		}

		if item.ProductVariantID != nil {
			var variant product.ProductVariant
			if err := s.db.Where("id = ?", *item.ProductVariantID).First(&variant).Error; err == nil {
				snapshot.Items[i].ProductVariant = &variant
			}
		}
	}

	snapshot.Totals = CalculateTotals(snapshot.Items)
	return snapshot, nil
}

// AddItem adds an item to the user's cart, snapshotting the current price.
// When the item already exists the quantities are merged.
func (s *Service) AddItem(userID uint, req *AddItemRequest) (*Snapshot, error) {
	var prod product.Product
	if err := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod).Error; err != nil {
		return nil, product.ErrProductNotFound
	}

	var variant *product.ProductVariant
	if req.ProductVariantID != nil {
		var v product.ProductVariant
		err := s.db.Where("id = ? AND product_id = ? AND is_active = ?",
			*req.ProductVariantID, req.ProductID, true).First(&v).Error
		if err != nil {
			return nil, product.ErrProductNotFound
		}
		variant = &v
	}

	available := prod.AvailableStock(variant)
	if available < req.Quantity {
		return nil, fmt.Errorf("%w for '%s': available %d", ErrInsufficientStock, prod.Name, available)
	}

	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVersion(c, req.CartVersion); err != nil {
		return nil, err
	}

	unitPrice := prod.EffectivePrice(variant)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing CartItem
		query := tx.Where("cart_id = ? AND product_id = ?", c.ID, req.ProductID)
		if req.ProductVariantID != nil {
			query = query.Where("product_variant_id = ?", *req.ProductVariantID)
		} else {
			query = query.Where("product_variant_id IS NULL")
		}

		result := query.First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			item := CartItem{
				CartID:           c.ID,
				ProductID:        req.ProductID,
				ProductVariantID: req.ProductVariantID,
				Quantity:         req.Quantity,
				UnitPrice:        unitPrice,
				TotalPrice:       unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create cart item: %w", err)
			}
		} else if result.Error != nil {
			return result.Error
		} else {
			newQuantity := existing.Quantity + req.Quantity
			if available < newQuantity {
				return fmt.Errorf("%w for '%s': available %d", ErrInsufficientStock, prod.Name, available)
			}
			existing.Quantity = newQuantity
			existing.UnitPrice = unitPrice
			existing.TotalPrice = unitPrice.Mul(decimal.NewFromInt(int64(newQuantity)))
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		}

		return s.bumpVersion(tx, c)
	})
	if err != nil {
		return nil, err
	}

	return s.GetSnapshot(userID)
}

// UpdateItem updates the quantity of a cart item; quantity zero removes it
func (s *Service) UpdateItem(userID uint, itemID uint, req *UpdateItemRequest) (*Snapshot, error) {
	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVersion(c, req.CartVersion); err != nil {
		return nil, err
	}

	var item CartItem
	if err := s.db.Where("id = ? AND cart_id = ?", itemID, c.ID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}

	if req.Quantity > 0 {
		var prod product.Product
		if err := s.db.Where("id = ?", item.ProductID).First(&prod).Error; err != nil {
			return nil, product.ErrProductNotFound
		}
		var variant *product.ProductVariant
		if item.ProductVariantID != nil {
			var v product.ProductVariant
			if err := s.db.Where("id = ?", *item.ProductVariantID).First(&v).Error; err == nil {
				variant = &v
			}
		}
		if available := prod.AvailableStock(variant); available < req.Quantity {
			return nil, fmt.Errorf("%w for '%s': available %d", ErrInsufficientStock, prod.Name, available)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.Quantity == 0 {
			if err := tx.Delete(&item).Error; err != nil {
				return fmt.Errorf("failed to remove cart item: %w", err)
			}
		} else {
			item.Quantity = req.Quantity
			item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
			if err := tx.Save(&item).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		}
		return s.bumpVersion(tx, c)
	})
	if err != nil {
		return nil, err
	}

	return s.GetSnapshot(userID)
}

// RemoveItem removes an item from the cart
func (s *Service) RemoveItem(userID uint, itemID uint) (*Snapshot, error) {
	return s.UpdateItem(userID, itemID, &UpdateItemRequest{Quantity: 0})
}

// ClearCart removes all items from the cart inside the given transaction; the
// cart row itself is retained. The version bump is guarded against the version
// the caller read, so a cart mutated concurrently (an item added in another
// tab mid-checkout) fails with ErrStaleCart and rolls the transaction back.
func (s *Service) ClearCart(tx *gorm.DB, c *Cart) error {
	if err := tx.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return s.bumpVersion(tx, c)
}

// Clear removes all items from the user's cart
func (s *Service) Clear(userID uint) error {
	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.ClearCart(tx, c)
	})
}

// CalculateTotals computes the cart-level rollup over snapshot items
func CalculateTotals(items []SnapshotItem) CartTotals {
	totals := CartTotals{SubTotal: decimal.Zero}
	totals.ItemCount = len(items)
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal = totals.SubTotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return totals
}

// Guest carts (Redis-backed, keyed by session)

// GetGuestCart retrieves a guest cart, returning an empty one when none exists
func (s *Service) GetGuestCart(sessionID string) (*SessionCart, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required for guest cart")
	}

	ctx := context.Background()
	cartKey := guestCartKey(sessionID)

	cartData, err := s.redisClient.Get(ctx, cartKey).Result()
	if errors.Is(err, redis.Nil) {
		now := time.Now().UTC()
		return &SessionCart{
			SessionID: sessionID,
			Items:     []SessionCartItem{},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		}, nil
	} else if err != nil {
		return nil, err
	}

	var sessionCart SessionCart
	if err := json.Unmarshal([]byte(cartData), &sessionCart); err != nil {
		return nil, err
	}
	return &sessionCart, nil
}

// AddGuestItem adds an item to a guest cart
func (s *Service) AddGuestItem(sessionID string, req *AddItemRequest) (*SessionCart, error) {
	var prod product.Product
	if err := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod).Error; err != nil {
		return nil, product.ErrProductNotFound
	}

	var variant *product.ProductVariant
	if req.ProductVariantID != nil {
		var v product.ProductVariant
		err := s.db.Where("id = ? AND product_id = ? AND is_active = ?",
			*req.ProductVariantID, req.ProductID, true).First(&v).Error
		if err != nil {
			return nil, product.ErrProductNotFound
		}
		variant = &v
	}

	if available := prod.AvailableStock(variant); available < req.Quantity {
		return nil, fmt.Errorf("%w for '%s': available %d", ErrInsufficientStock, prod.Name, available)
	}

	sessionCart, err := s.GetGuestCart(sessionID)
	if err != nil {
		return nil, err
	}

	unitPrice := prod.EffectivePrice(variant)
	merged := false
	for i := range sessionCart.Items {
		if sessionCart.Items[i].ProductID == req.ProductID && sameVariant(sessionCart.Items[i].ProductVariantID, req.ProductVariantID) {
			sessionCart.Items[i].Quantity += req.Quantity
			sessionCart.Items[i].UnitPrice = unitPrice
			merged = true
			break
		}
	}
	if !merged {
		sessionCart.Items = append(sessionCart.Items, SessionCartItem{
			ProductID:        req.ProductID,
			ProductVariantID: req.ProductVariantID,
			Quantity:         req.Quantity,
			UnitPrice:        unitPrice,
			AddedAt:          time.Now().UTC(),
		})
	}

	sessionCart.UpdatedAt = time.Now().UTC()
	if err := s.saveGuestCart(sessionID, sessionCart); err != nil {
		return nil, err
	}
	return sessionCart, nil
}

// MergeGuestCart folds a guest cart into the user's cart at login and
// deletes the session copy
func (s *Service) MergeGuestCart(userID uint, sessionID string) error {
	guestCart, err := s.GetGuestCart(sessionID)
	if err != nil || len(guestCart.Items) == 0 {
		return nil // Nothing to merge
	}

	for _, guestItem := range guestCart.Items {
		_, err := s.AddItem(userID, &AddItemRequest{
			ProductID:        guestItem.ProductID,
			ProductVariantID: guestItem.ProductVariantID,
			Quantity:         guestItem.Quantity,
		})
		if err != nil {
			// Skip items that no longer exist or lack stock
			continue
		}
	}

	ctx := context.Background()
	return s.redisClient.Del(ctx, guestCartKey(sessionID)).Err()
}

// Private helpers

func (s *Service) checkVersion(c *Cart, expected *int) error {
	if expected != nil && *expected != c.Version {
		return ErrStaleCart
	}
	return nil
}

// bumpVersion increments the cart version with an optimistic guard; a zero
// row count means a concurrent writer got there first
func (s *Service) bumpVersion(tx *gorm.DB, c *Cart) error {
	result := tx.Model(&Cart{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Update("version", c.Version+1)
	if result.Error != nil {
		return fmt.Errorf("failed to bump cart version: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleCart
	}
	return nil
}

func (s *Service) saveGuestCart(sessionID string, sessionCart *SessionCart) error {
	ctx := context.Background()
	cartData, err := json.Marshal(sessionCart)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, guestCartKey(sessionID), cartData, 24*time.Hour).Err()
}

func guestCartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func sameVariant(a, b *uint) bool {
	if a == nil && b == nil {
		return true
	}
	return a != nil && b != nil && *a == *b
}
