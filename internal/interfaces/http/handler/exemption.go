package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
)

// ExemptionService is what ExemptionHandler needs from the exemption service
type ExemptionService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req taxapp.CreateExemptionRequest) (*taxapp.ExemptionResponse, error)
	Deactivate(ctx context.Context, tenantID, id uuid.UUID, req taxapp.DeactivateExemptionRequest) (*taxapp.ExemptionResponse, error)
	Extend(ctx context.Context, tenantID, id uuid.UUID, until time.Time) (*taxapp.ExemptionResponse, error)
	ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, activeAt *time.Time) ([]taxapp.ExemptionResponse, error)
}

var _ ExemptionService = (*taxapp.ExemptionService)(nil)

// ExemptionHandler manages customer tax exemptions
type ExemptionHandler struct {
	BaseHandler
	service ExemptionService
}

// NewExemptionHandler creates a new ExemptionHandler
func NewExemptionHandler(service ExemptionService) *ExemptionHandler {
	return &ExemptionHandler{service: service}
}

// Create handles POST /exemptions
func (h *ExemptionHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	var req taxapp.CreateExemptionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exemption, err := h.service.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, exemption)
}

// Deactivate handles POST /exemptions/:id/deactivate
func (h *ExemptionHandler) Deactivate(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req taxapp.DeactivateExemptionRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	exemption, err := h.service.Deactivate(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exemption)
}

// ExtendExemptionRequest moves the end of an exemption's validity
type ExtendExemptionRequest struct {
	ValidUntil time.Time `json:"valid_until" binding:"required"`
}

// Extend handles POST /exemptions/:id/extend
func (h *ExemptionHandler) Extend(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req ExtendExemptionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exemption, err := h.service.Extend(c.Request.Context(), tenantID, id, req.ValidUntil)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exemption)
}

// ListByCustomer handles GET /customers/:id/exemptions.
// ?active_at=YYYY-MM-DD (or RFC 3339) keeps only exemptions in force then.
func (h *ExemptionHandler) ListByCustomer(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var activeAt *time.Time
	if raw := c.Query("active_at"); raw != "" {
		at, _, err := parsePeriodBound(raw)
		if err != nil {
			h.BadRequest(c, "Invalid active_at: "+err.Error())
			return
		}
		activeAt = &at
	}

	exemptions, err := h.service.ListByCustomer(c.Request.Context(), tenantID, customerID, activeAt)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exemptions)
}
