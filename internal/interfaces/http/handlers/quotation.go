// internal/interfaces/http/handlers/quotation.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/quotation"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// QuotationHandler handles quotation endpoints
type QuotationHandler struct {
	quotationService *quotation.Service
	pdfService       *pdf.Service
	config           *config.Config
}

// NewQuotationHandler creates a new quotation handler
func NewQuotationHandler(db *gorm.DB, cfg *config.Config) *QuotationHandler {
	return &QuotationHandler{
		quotationService: quotation.NewService(db, cfg),
		pdfService:       pdf.NewService(cfg),
		config:           cfg,
	}
}

// Create handles POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req quotation.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	q, err := h.quotationService.Create(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, quotation.ErrNoItems):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Quotation requires at least one item",
			})
		case errors.Is(err, product.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create quotation",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Quotation created successfully",
		"data":    q,
	})
}

// List handles GET /quotations (user's own quotations)
func (h *QuotationHandler) List(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	page, limit := parsePagination(c)

	response, err := h.quotationService.GetUserQuotations(userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve quotations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quotations retrieved successfully",
		"data":    response,
	})
}

// ListAll handles GET /admin/quotations
func (h *QuotationHandler) ListAll(c *gin.Context) {
	var req quotation.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.quotationService.GetQuotations(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve quotations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quotations retrieved successfully",
		"data":    response,
	})
}

// Get handles GET /quotations/:id
func (h *QuotationHandler) Get(c *gin.Context) {
	q, ok := h.loadOwnedQuotation(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quotation retrieved successfully",
		"data":    q,
	})
}

// Update handles PUT /quotations/:id, editing a quotation still in draft
func (h *QuotationHandler) Update(c *gin.Context) {
	q, ok := h.loadOwnedQuotation(c)
	if !ok {
		return
	}

	var req quotation.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.quotationService.UpdateDraft(q.ID, &req)
	if err != nil {
		switch {
		case errors.Is(err, quotation.ErrNotDraft), errors.Is(err, quotation.ErrNoItems):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, product.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
		case errors.Is(err, quotation.ErrQuotationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Quotation not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update quotation",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quotation updated successfully",
		"data":    updated,
	})
}

// Submit handles POST /quotations/:id/submit, moving a draft to pending
func (h *QuotationHandler) Submit(c *gin.Context) {
	q, ok := h.loadOwnedQuotation(c)
	if !ok {
		return
	}

	updated, err := h.quotationService.UpdateStatus(q.ID, &quotation.UpdateStatusRequest{
		Status: quotation.StatusPending,
	})
	if err != nil {
		h.writeStatusError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quotation submitted successfully",
		"data":    updated,
	})
}

// UpdateStatus handles PATCH /admin/quotations/:id/status
func (h *QuotationHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req quotation.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.quotationService.UpdateStatus(id, &req)
	if err != nil {
		h.writeStatusError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quotation status updated successfully",
		"data":    updated,
	})
}

// ExpireStale handles POST /admin/quotations/expire, sweeping open
// quotations past their validity window
func (h *QuotationHandler) ExpireStale(c *gin.Context) {
	expired, err := h.quotationService.ExpireStale(time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to expire quotations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stale quotations expired",
		"data":    gin.H{"expired": expired},
	})
}

// ExportPDF handles GET /quotations/:id/pdf
func (h *QuotationHandler) ExportPDF(c *gin.Context) {
	q, ok := h.loadOwnedQuotation(c)
	if !ok {
		return
	}

	buf, err := h.pdfService.GenerateQuotation(q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate PDF",
		})
		return
	}

	filename := fmt.Sprintf("%s.pdf", q.QuotationNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// loadOwnedQuotation loads the :id quotation and enforces owner-or-admin
// access, writing the error response itself on failure
func (h *QuotationHandler) loadOwnedQuotation(c *gin.Context) (*quotation.Quotation, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return nil, false
	}

	id, ok := parseIDParam(c)
	if !ok {
		return nil, false
	}

	q, err := h.quotationService.GetQuotation(id)
	if err != nil {
		if errors.Is(err, quotation.ErrQuotationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Quotation not found",
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve quotation",
		})
		return nil, false
	}

	if !q.IsOwnedBy(userID) && !middleware.IsAdminFromContext(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied",
		})
		return nil, false
	}

	return q, true
}

func (h *QuotationHandler) writeStatusError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, quotation.ErrQuotationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Quotation not found",
		})
	case errors.Is(err, quotation.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update quotation",
		})
	}
}
