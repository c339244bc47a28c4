package tax

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/tax"
)

// StateRateService manages ICMS rates per state pair
type StateRateService struct {
	rateRepo  tax.StateTaxRateRepository
	reference *ReferenceData
}

// NewStateRateService creates a new StateRateService
func NewStateRateService(rateRepo tax.StateTaxRateRepository, reference *ReferenceData) *StateRateService {
	return &StateRateService{rateRepo: rateRepo, reference: reference}
}

// Save creates or updates the rate of a state pair
func (s *StateRateService) Save(ctx context.Context, tenantID uuid.UUID, req SaveStateRateRequest) (*StateRateResponse, error) {
	origin, err := parseState("origin_state", req.OriginState, "")
	if err != nil {
		return nil, err
	}
	destination, err := parseState("destination_state", req.DestinationState, "")
	if err != nil {
		return nil, err
	}
	rate, err := toPercentage("icms_rate", &req.ICMSRate)
	if err != nil {
		return nil, err
	}
	fcp, err := toPercentage("fcp_rate", req.FCPRate)
	if err != nil {
		return nil, err
	}

	stateRate, err := s.rateRepo.FindByPair(ctx, tenantID, origin, destination)
	switch {
	case err == nil:
		stateRate.UpdateRate(*rate, fcp)
	case errors.Is(err, shared.ErrNotFound):
		if stateRate, err = tax.NewStateTaxRate(tenantID, origin, destination, *rate); err != nil {
			return nil, err
		}
		stateRate.FCPRate = fcp
	default:
		return nil, err
	}
	if req.Active != nil && !*req.Active {
		stateRate.Deactivate()
	}

	if err := s.rateRepo.Save(ctx, stateRate); err != nil {
		return nil, err
	}
	s.reference.InvalidateStateRates(ctx, tenantID)

	response := ToStateRateResponse(stateRate)
	return &response, nil
}

// List returns every configured pair of the tenant
func (s *StateRateService) List(ctx context.Context, tenantID uuid.UUID) ([]StateRateResponse, error) {
	rates, err := s.rateRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	responses := make([]StateRateResponse, len(rates))
	for i := range rates {
		responses[i] = ToStateRateResponse(&rates[i])
	}
	return responses, nil
}
