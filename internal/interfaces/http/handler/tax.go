package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
)

// TaxCalculationService is what TaxHandler needs from the calculation service
type TaxCalculationService interface {
	CalculateOrderTaxes(ctx context.Context, tenantID, orderID uuid.UUID, req taxapp.CalculateOrderTaxesRequest) (*taxapp.OrderTaxesResponse, error)
	GetOrderTaxes(ctx context.Context, tenantID, orderID uuid.UUID) (*taxapp.OrderTaxesResponse, error)
	CheckCompliance(ctx context.Context, tenantID, orderID uuid.UUID) (*taxapp.ComplianceResponse, error)
	QuoteLine(ctx context.Context, tenantID uuid.UUID, req taxapp.QuoteRequest) (*taxapp.TaxCalculationResponse, error)
	TaxSummary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*taxapp.TaxSummaryResponse, error)
}

var _ TaxCalculationService = (*taxapp.TaxCalculationService)(nil)

// TaxHandler serves order tax calculation, quotes and reports
type TaxHandler struct {
	BaseHandler
	service TaxCalculationService
}

// NewTaxHandler creates a new TaxHandler
func NewTaxHandler(service TaxCalculationService) *TaxHandler {
	return &TaxHandler{service: service}
}

// CalculateOrder handles POST /orders/:id/taxes.
// The body is optional; it overrides the origin or destination state.
func (h *TaxHandler) CalculateOrder(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req taxapp.CalculateOrderTaxesRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.CalculateOrderTaxes(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetOrderTaxes handles GET /orders/:id/taxes
func (h *TaxHandler) GetOrderTaxes(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetOrderTaxes(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Compliance handles GET /orders/:id/compliance
func (h *TaxHandler) Compliance(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	report, err := h.service.CheckCompliance(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Quote handles POST /quote. Nothing is persisted.
func (h *TaxHandler) Quote(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	var req taxapp.QuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.QuoteLine(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SummaryQuery is the period of GET /summary. Both bounds accept RFC 3339 or
// a plain date; a plain date for "to" includes that whole day.
type SummaryQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// Summary handles GET /summary?from=&to=
func (h *TaxHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	var q SummaryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	from, _, err := parsePeriodBound(q.From)
	if err != nil {
		h.BadRequest(c, "Invalid from: "+err.Error())
		return
	}
	to, dateOnly, err := parsePeriodBound(q.To)
	if err != nil {
		h.BadRequest(c, "Invalid to: "+err.Error())
		return
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	}

	summary, err := h.service.TaxSummary(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// parsePeriodBound accepts RFC 3339 or YYYY-MM-DD (UTC midnight)
func parsePeriodBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
