package tax

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// NCMCodeLength is the number of digits in a full Mercosur classification code
const NCMCodeLength = 8

// NCMCode is a Mercosur customs classification carrying default federal rates.
// Coffee, for instance, is classified under 0901.xx.xx; an entry for the
// heading 0901 covers every code below it.
type NCMCode struct {
	shared.TenantAggregateRoot
	Code        string
	Description string
	IPIRate     *valueobject.Percentage
	PISRate     *valueobject.Percentage
	COFINSRate  *valueobject.Percentage
	Active      bool
}

// NormalizeNCM strips separators and validates the code has eight digits
func NormalizeNCM(code string) (string, error) {
	normalized, err := stripNCM(code)
	if err != nil {
		return "", err
	}
	if len(normalized) != NCMCodeLength {
		return "", shared.NewDomainError("INVALID_NCM", "NCM code must have 8 digits")
	}
	return normalized, nil
}

// NormalizeNCMEntry accepts a full code or a 4/6 digit heading, which
// catalog entries use to give defaults to every code below them
func NormalizeNCMEntry(code string) (string, error) {
	normalized, err := stripNCM(code)
	if err != nil {
		return "", err
	}
	switch len(normalized) {
	case 4, 6, NCMCodeLength:
		return normalized, nil
	}
	return "", shared.NewDomainError("INVALID_NCM", "NCM code must have 4, 6 or 8 digits")
}

func stripNCM(code string) (string, error) {
	var b strings.Builder
	for _, r := range code {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == ' ' || r == '-':
		default:
			return "", shared.NewDomainError("INVALID_NCM", "NCM code must contain only digits")
		}
	}
	return b.String(), nil
}

// NCMLookupKeys returns the code followed by its 6 and 4 digit chapters,
// most specific first
func NCMLookupKeys(code string) []string {
	keys := []string{code}
	for _, prefixLen := range []int{6, 4} {
		if len(code) > prefixLen {
			keys = append(keys, code[:prefixLen])
		}
	}
	return keys
}

// NewNCMCode creates a new active NCM classification
func NewNCMCode(tenantID uuid.UUID, code, description string) (*NCMCode, error) {
	normalized, err := NormalizeNCMEntry(code)
	if err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "NCM description cannot be empty")
	}
	return &NCMCode{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                normalized,
		Description:         description,
		Active:              true,
	}, nil
}

// SetRates replaces the default federal rates (nil clears a rate)
func (n *NCMCode) SetRates(ipi, pis, cofins *valueobject.Percentage) {
	n.IPIRate = ipi
	n.PISRate = pis
	n.COFINSRate = cofins
	n.Touch()
}

// UpdateDescription changes the description
func (n *NCMCode) UpdateDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "NCM description cannot be empty")
	}
	n.Description = description
	n.Touch()
	return nil
}

// Deactivate stops the code from being used for rate resolution
func (n *NCMCode) Deactivate() {
	n.Active = false
	n.Touch()
}

// Activate re-enables the code
func (n *NCMCode) Activate() {
	n.Active = true
	n.Touch()
}

// DefaultRate returns the NCM default for a federal tax, nil when unset.
// ICMS is never carried by the NCM.
func (n *NCMCode) DefaultRate(taxType TaxType) *valueobject.Percentage {
	if n == nil || !n.Active {
		return nil
	}
	switch taxType {
	case TaxTypeIPI:
		return n.IPIRate
	case TaxTypePIS:
		return n.PISRate
	case TaxTypeCOFINS:
		return n.COFINSRate
	}
	return nil
}

// MostSpecificNCM picks, among candidates, the active entry with the longest
// code that is a prefix of code. Nil when none matches.
func MostSpecificNCM(code string, candidates []NCMCode) *NCMCode {
	var best *NCMCode
	for i := range candidates {
		c := &candidates[i]
		if !c.Active || !strings.HasPrefix(code, c.Code) {
			continue
		}
		if best == nil || len(c.Code) > len(best.Code) {
			best = c
		}
	}
	return best
}
