package tax

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// ExemptionKind distinguishes full exemption from a reduced rate
type ExemptionKind string

const (
	ExemptionTotal       ExemptionKind = "total"
	ExemptionReducedRate ExemptionKind = "reduced_rate"
)

// IsValid checks if the kind is known
func (k ExemptionKind) IsValid() bool {
	return k == ExemptionTotal || k == ExemptionReducedRate
}

// TaxExemption grants a customer relief from one tax, optionally limited to
// some destination states, a validity window and a JSONLogic condition
type TaxExemption struct {
	shared.TenantAggregateRoot
	CustomerID       uuid.UUID
	TaxType          TaxType
	Kind             ExemptionKind
	ReducedRate      *valueobject.Percentage
	ApplicableStates []valueobject.UF
	ValidFrom        time.Time
	ValidUntil       *time.Time
	LegalBasis       string
	Condition        string
	Active           bool
	DeactivatedAt    *time.Time
	DeactivateReason string
}

// NewTaxExemptionInput carries the fields of a new exemption
type NewTaxExemptionInput struct {
	TenantID         uuid.UUID
	CustomerID       uuid.UUID
	TaxType          TaxType
	Kind             ExemptionKind
	ReducedRate      *valueobject.Percentage
	ApplicableStates []valueobject.UF
	ValidFrom        time.Time
	ValidUntil       *time.Time
	LegalBasis       string
	Condition        string
}

// NewTaxExemption validates and creates an active exemption
func NewTaxExemption(in NewTaxExemptionInput) (*TaxExemption, error) {
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !in.TaxType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TAX_TYPE", "Tax type must be ICMS, PIS, COFINS or IPI")
	}
	if !in.Kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_EXEMPTION_KIND", "Exemption kind must be total or reduced_rate")
	}
	switch in.Kind {
	case ExemptionReducedRate:
		if in.ReducedRate == nil {
			return nil, shared.NewDomainError("INVALID_REDUCED_RATE", "Reduced rate exemptions require a rate")
		}
	case ExemptionTotal:
		if in.ReducedRate != nil {
			return nil, shared.NewDomainError("INVALID_REDUCED_RATE", "Total exemptions cannot carry a rate")
		}
	}
	if in.ValidFrom.IsZero() {
		in.ValidFrom = time.Now()
	}
	if in.ValidUntil != nil && !in.ValidUntil.After(in.ValidFrom) {
		return nil, shared.NewDomainError("INVALID_VALIDITY", "Valid until must be after valid from")
	}
	states, err := dedupeStates(in.ApplicableStates)
	if err != nil {
		return nil, err
	}

	return &TaxExemption{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(in.TenantID),
		CustomerID:          in.CustomerID,
		TaxType:             in.TaxType,
		Kind:                in.Kind,
		ReducedRate:         in.ReducedRate,
		ApplicableStates:    states,
		ValidFrom:           in.ValidFrom,
		ValidUntil:          in.ValidUntil,
		LegalBasis:          strings.TrimSpace(in.LegalBasis),
		Condition:           strings.TrimSpace(in.Condition),
		Active:              true,
	}, nil
}

func dedupeStates(states []valueobject.UF) ([]valueobject.UF, error) {
	seen := make(map[valueobject.UF]bool, len(states))
	out := make([]valueobject.UF, 0, len(states))
	for _, s := range states {
		if !s.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATE_CODE", "Unknown state code: "+string(s))
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// IsTotal reports whether the exemption zeroes the tax
func (e *TaxExemption) IsTotal() bool {
	return e.Kind == ExemptionTotal
}

// HasCondition reports whether a JSONLogic condition must also hold
func (e *TaxExemption) HasCondition() bool {
	return e.Condition != ""
}

// CoversState reports whether the exemption covers a destination state
func (e *TaxExemption) CoversState(state valueobject.UF) bool {
	if len(e.ApplicableStates) == 0 {
		return true
	}
	for _, s := range e.ApplicableStates {
		if s == state {
			return true
		}
	}
	return false
}

// IsValidAt reports whether the date falls inside the validity window (inclusive)
func (e *TaxExemption) IsValidAt(at time.Time) bool {
	if at.Before(e.ValidFrom) {
		return false
	}
	return e.ValidUntil == nil || !at.After(*e.ValidUntil)
}

// AppliesTo reports whether the exemption is active for a destination at a date.
// The condition, if any, is evaluated separately.
func (e *TaxExemption) AppliesTo(state valueobject.UF, at time.Time) bool {
	return e.Active && e.CoversState(state) && e.IsValidAt(at)
}

// Deactivate revokes the exemption
func (e *TaxExemption) Deactivate(reason string) error {
	if !e.Active {
		return shared.NewDomainError("INVALID_STATE", "Exemption is already inactive")
	}
	now := time.Now()
	e.Active = false
	e.DeactivatedAt = &now
	e.DeactivateReason = strings.TrimSpace(reason)
	e.Touch()
	e.AddDomainEvent(NewTaxExemptionDeactivatedEvent(e))
	return nil
}

// Extend moves the end of the validity window
func (e *TaxExemption) Extend(until time.Time) error {
	if !e.Active {
		return shared.NewDomainError("INVALID_STATE", "Cannot extend an inactive exemption")
	}
	if !until.After(e.ValidFrom) {
		return shared.NewDomainError("INVALID_VALIDITY", "Valid until must be after valid from")
	}
	e.ValidUntil = &until
	e.Touch()
	return nil
}
