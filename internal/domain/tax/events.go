package tax

import (
	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// Aggregate type constants for events
const (
	AggregateTypeOrder        = "Order"
	AggregateTypeTaxExemption = "TaxExemption"
)

// Event type constants
const (
	EventTypeOrderTaxesCalculated    = "OrderTaxesCalculated"
	EventTypeTaxExemptionCreated     = "TaxExemptionCreated"
	EventTypeTaxExemptionDeactivated = "TaxExemptionDeactivated"
)

// OrderTaxesCalculatedEvent is published after an order's taxes are committed
type OrderTaxesCalculatedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID         `json:"order_id"`
	DestinationState valueobject.UF    `json:"destination_state"`
	TaxAmount        valueobject.Money `json:"tax_amount"`
	TotalAmount      valueobject.Money `json:"total_amount"`
	LineCount        int               `json:"line_count"`
}

// NewOrderTaxesCalculatedEvent creates a new OrderTaxesCalculatedEvent
func NewOrderTaxesCalculatedEvent(tenantID, orderID uuid.UUID, destination valueobject.UF, taxAmount, totalAmount valueobject.Money, lines int) *OrderTaxesCalculatedEvent {
	return &OrderTaxesCalculatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderTaxesCalculated, AggregateTypeOrder, orderID, tenantID),
		OrderID:          orderID,
		DestinationState: destination,
		TaxAmount:        taxAmount,
		TotalAmount:      totalAmount,
		LineCount:        lines,
	}
}

// TaxExemptionCreatedEvent is raised when an exemption is granted
type TaxExemptionCreatedEvent struct {
	shared.BaseDomainEvent
	ExemptionID uuid.UUID     `json:"exemption_id"`
	CustomerID  uuid.UUID     `json:"customer_id"`
	TaxType     TaxType       `json:"tax_type"`
	Kind        ExemptionKind `json:"kind"`
}

// NewTaxExemptionCreatedEvent creates a new TaxExemptionCreatedEvent
func NewTaxExemptionCreatedEvent(e *TaxExemption) *TaxExemptionCreatedEvent {
	return &TaxExemptionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaxExemptionCreated, AggregateTypeTaxExemption, e.ID, e.TenantID),
		ExemptionID:     e.ID,
		CustomerID:      e.CustomerID,
		TaxType:         e.TaxType,
		Kind:            e.Kind,
	}
}

// TaxExemptionDeactivatedEvent is raised when an exemption is revoked
type TaxExemptionDeactivatedEvent struct {
	shared.BaseDomainEvent
	ExemptionID uuid.UUID `json:"exemption_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	TaxType     TaxType   `json:"tax_type"`
	Reason      string    `json:"reason"`
}

// NewTaxExemptionDeactivatedEvent creates a new TaxExemptionDeactivatedEvent
func NewTaxExemptionDeactivatedEvent(e *TaxExemption) *TaxExemptionDeactivatedEvent {
	return &TaxExemptionDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaxExemptionDeactivated, AggregateTypeTaxExemption, e.ID, e.TenantID),
		ExemptionID:     e.ID,
		CustomerID:      e.CustomerID,
		TaxType:         e.TaxType,
		Reason:          e.DeactivateReason,
	}
}
