package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
)

// ProductTaxService is what ProductTaxHandler needs from the product tax service
type ProductTaxService interface {
	Save(ctx context.Context, tenantID, productID uuid.UUID, req taxapp.SaveProductTaxRequest) (*taxapp.ProductTaxResponse, error)
	Get(ctx context.Context, tenantID, productID uuid.UUID) (*taxapp.ProductTaxResponse, error)
}

var _ ProductTaxService = (*taxapp.ProductTaxService)(nil)

// ProductTaxHandler manages the fiscal configuration of products
type ProductTaxHandler struct {
	BaseHandler
	service ProductTaxService
}

// NewProductTaxHandler creates a new ProductTaxHandler
func NewProductTaxHandler(service ProductTaxService) *ProductTaxHandler {
	return &ProductTaxHandler{service: service}
}

// Save handles PUT /products/:id/tax
func (h *ProductTaxHandler) Save(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req taxapp.SaveProductTaxRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cfg, err := h.service.Save(c.Request.Context(), tenantID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// Get handles GET /products/:id/tax
func (h *ProductTaxHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	cfg, err := h.service.Get(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}
