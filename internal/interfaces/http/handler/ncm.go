package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/interfaces/http/dto"
)

// NCMService is what NCMHandler needs from the NCM catalog service
type NCMService interface {
	Save(ctx context.Context, tenantID uuid.UUID, req taxapp.SaveNCMRequest) (*taxapp.NCMResponse, error)
	Get(ctx context.Context, tenantID uuid.UUID, code string) (*taxapp.NCMResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter taxapp.NCMListFilter) ([]taxapp.NCMResponse, int64, error)
}

var _ NCMService = (*taxapp.NCMService)(nil)

// NCMHandler manages the tenant's NCM catalog
type NCMHandler struct {
	BaseHandler
	service NCMService
}

// NewNCMHandler creates a new NCMHandler
func NewNCMHandler(service NCMService) *NCMHandler {
	return &NCMHandler{service: service}
}

// Save handles POST /ncm, creating or updating the entry for a code
func (h *NCMHandler) Save(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	var req taxapp.SaveNCMRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entry, err := h.service.Save(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Get handles GET /ncm/:code
func (h *NCMHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	entry, err := h.service.Get(c.Request.Context(), tenantID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// List handles GET /ncm?search=&page=&page_size=
func (h *NCMHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.Normalize()

	entries, total, err := h.service.List(c.Request.Context(), tenantID, taxapp.NCMListFilter{
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, req.Page, req.PageSize)
}
