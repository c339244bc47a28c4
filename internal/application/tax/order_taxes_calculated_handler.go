package tax

import (
	"context"

	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"go.uber.org/zap"
)

// OrderTaxesCalculatedHandler logs committed tax calculations
type OrderTaxesCalculatedHandler struct {
	logger *zap.Logger
}

// NewOrderTaxesCalculatedHandler creates a new OrderTaxesCalculatedHandler
func NewOrderTaxesCalculatedHandler(logger *zap.Logger) *OrderTaxesCalculatedHandler {
	return &OrderTaxesCalculatedHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderTaxesCalculatedHandler) EventTypes() []string {
	return []string{tax.EventTypeOrderTaxesCalculated}
}

// Handle processes the event
func (h *OrderTaxesCalculatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	calculated, ok := event.(*tax.OrderTaxesCalculatedEvent)
	if !ok {
		h.logger.Warn("Unexpected event type",
			zap.String("expected", tax.EventTypeOrderTaxesCalculated),
			zap.String("actual", event.EventType()),
		)
		return nil
	}
	h.logger.Info("Order taxes recorded",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("order_id", calculated.OrderID.String()),
		zap.String("destination_state", calculated.DestinationState.String()),
		zap.String("tax_amount", calculated.TaxAmount.Amount().StringFixed(2)),
		zap.String("total_amount", calculated.TotalAmount.Amount().StringFixed(2)),
		zap.Int("lines", calculated.LineCount),
	)
	return nil
}

var _ shared.EventHandler = (*OrderTaxesCalculatedHandler)(nil)
