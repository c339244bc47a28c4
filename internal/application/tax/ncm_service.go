package tax

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/tax"
)

// NCMService manages the NCM catalog of a tenant
type NCMService struct {
	ncmRepo   tax.NCMRepository
	reference *ReferenceData
}

// NewNCMService creates a new NCMService
func NewNCMService(ncmRepo tax.NCMRepository, reference *ReferenceData) *NCMService {
	return &NCMService{ncmRepo: ncmRepo, reference: reference}
}

// Save creates an entry or updates the existing one with the same code
func (s *NCMService) Save(ctx context.Context, tenantID uuid.UUID, req SaveNCMRequest) (*NCMResponse, error) {
	code, err := tax.NormalizeNCMEntry(req.Code)
	if err != nil {
		return nil, err
	}
	ipi, err := toPercentage("ipi_rate", req.IPIRate)
	if err != nil {
		return nil, err
	}
	pis, err := toPercentage("pis_rate", req.PISRate)
	if err != nil {
		return nil, err
	}
	cofins, err := toPercentage("cofins_rate", req.COFINSRate)
	if err != nil {
		return nil, err
	}

	ncm, err := s.ncmRepo.FindByCode(ctx, tenantID, code)
	switch {
	case err == nil:
		if err := ncm.UpdateDescription(req.Description); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		if ncm, err = tax.NewNCMCode(tenantID, code, req.Description); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	ncm.SetRates(ipi, pis, cofins)
	if req.Active != nil {
		if *req.Active {
			ncm.Activate()
		} else {
			ncm.Deactivate()
		}
	}

	if err := s.ncmRepo.Save(ctx, ncm); err != nil {
		return nil, err
	}
	s.reference.InvalidateNCM(ctx, tenantID)

	response := ToNCMResponse(ncm)
	return &response, nil
}

// Get returns the entry that applies to a code: the exact entry if present,
// otherwise its 6 or 4 digit heading
func (s *NCMService) Get(ctx context.Context, tenantID uuid.UUID, code string) (*NCMResponse, error) {
	normalized, err := tax.NormalizeNCMEntry(code)
	if err != nil {
		return nil, err
	}
	ncm, err := s.reference.ResolveNCM(ctx, tenantID, normalized)
	if err != nil {
		return nil, err
	}
	if ncm == nil {
		return nil, shared.ErrNotFound
	}
	response := ToNCMResponse(ncm)
	return &response, nil
}

// List returns a page of NCM entries
func (s *NCMService) List(ctx context.Context, tenantID uuid.UUID, filter NCMListFilter) ([]NCMResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "code"
	domainFilter.OrderDir = "asc"
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}

	entries, err := s.ncmRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ncmRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]NCMResponse, len(entries))
	for i := range entries {
		responses[i] = ToNCMResponse(&entries[i])
	}
	return responses, total, nil
}
