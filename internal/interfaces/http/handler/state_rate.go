package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
)

// StateRateService is what StateRateHandler needs from the state rate service
type StateRateService interface {
	Save(ctx context.Context, tenantID uuid.UUID, req taxapp.SaveStateRateRequest) (*taxapp.StateRateResponse, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]taxapp.StateRateResponse, error)
}

var _ StateRateService = (*taxapp.StateRateService)(nil)

// StateRateHandler manages ICMS rates per state pair
type StateRateHandler struct {
	BaseHandler
	service StateRateService
}

// NewStateRateHandler creates a new StateRateHandler
func NewStateRateHandler(service StateRateService) *StateRateHandler {
	return &StateRateHandler{service: service}
}

// Save handles PUT /state-rates
func (h *StateRateHandler) Save(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	var req taxapp.SaveStateRateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rate, err := h.service.Save(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}

// List handles GET /state-rates
func (h *StateRateHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	rates, err := h.service.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}
