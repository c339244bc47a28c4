package sales

import (
	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// Customer is the buyer of an order. AddressJSON is the raw address document
// stored by the storefront.
type Customer struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Document    string
	AddressJSON string
}

// DestinationState resolves the customer's state for tax purposes.
// Missing or unparseable addresses resolve to fallback.
func (c *Customer) DestinationState(fallback valueobject.UF) valueobject.UF {
	if c == nil {
		return fallback
	}
	return valueobject.StateFromAddressJSON(c.AddressJSON, fallback)
}
