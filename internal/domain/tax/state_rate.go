package tax

import (
	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// StateTaxRate is the ICMS rate charged for goods moving between two states
type StateTaxRate struct {
	shared.TenantAggregateRoot
	OriginState      valueobject.UF
	DestinationState valueobject.UF
	ICMSRate         valueobject.Percentage
	// FCPRate is the poverty fund surcharge some destinations add to ICMS
	FCPRate *valueobject.Percentage
	Active  bool
}

// NewStateTaxRate creates an active rate for a state pair
func NewStateTaxRate(tenantID uuid.UUID, origin, destination valueobject.UF, rate valueobject.Percentage) (*StateTaxRate, error) {
	if !origin.IsValid() || !destination.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATE_CODE", "Origin and destination must be valid state codes")
	}
	return &StateTaxRate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OriginState:         origin,
		DestinationState:    destination,
		ICMSRate:            rate,
		Active:              true,
	}, nil
}

// UpdateRate changes the ICMS and FCP rates and reactivates the pair
func (r *StateTaxRate) UpdateRate(rate valueobject.Percentage, fcp *valueobject.Percentage) {
	r.ICMSRate = rate
	r.FCPRate = fcp
	r.Active = true
	r.Touch()
}

// Deactivate makes the pair fall back to the static defaults
func (r *StateTaxRate) Deactivate() {
	r.Active = false
	r.Touch()
}

// IsInterstate reports whether origin and destination differ
func (r *StateTaxRate) IsInterstate() bool {
	return r.OriginState != r.DestinationState
}

// RateTable resolves ICMS rates by exact state pair
type RateTable interface {
	ICMSRate(origin, destination valueobject.UF) (valueobject.Percentage, bool)
}

type statePair struct {
	origin, destination valueobject.UF
}

// StateRateTable is an immutable snapshot of a tenant's active state rates
type StateRateTable struct {
	rates map[statePair]valueobject.Percentage
}

// NewStateRateTable builds a table from the active rates given
func NewStateRateTable(rates []StateTaxRate) *StateRateTable {
	t := &StateRateTable{rates: make(map[statePair]valueobject.Percentage, len(rates))}
	for _, r := range rates {
		if !r.Active {
			continue
		}
		t.rates[statePair{r.OriginState, r.DestinationState}] = r.ICMSRate
	}
	return t
}

// ICMSRate implements RateTable
func (t *StateRateTable) ICMSRate(origin, destination valueobject.UF) (valueobject.Percentage, bool) {
	if t == nil {
		return valueobject.Percentage{}, false
	}
	rate, ok := t.rates[statePair{origin, destination}]
	return rate, ok
}

// Len returns the number of pairs in the table
func (t *StateRateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rates)
}

// DefaultICMSRate returns the static fallback: 18% within a state, 12% across states
func DefaultICMSRate(origin, destination valueobject.UF) valueobject.Percentage {
	if origin == destination {
		return DefaultIntraStateICMSRate
	}
	return DefaultInterStateICMSRate
}
