package tax

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaxTable is a batch of reference data loaded into a tenant
type TaxTable struct {
	StateRates []SaveStateRateRequest
	NCMCodes   []SaveNCMRequest
}

// SeedResult counts what a seed wrote
type SeedResult struct {
	StateRates int `json:"state_rates"`
	NCMCodes   int `json:"ncm_codes"`
}

// SeedService loads tax tables through the configuration services, so every
// row goes through the same validation as the API
type SeedService struct {
	stateRates *StateRateService
	ncm        *NCMService
	logger     *zap.Logger
}

// NewSeedService creates a new SeedService
func NewSeedService(stateRates *StateRateService, ncm *NCMService, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{stateRates: stateRates, ncm: ncm, logger: logger}
}

// Apply upserts every row of the table, stopping at the first invalid one
func (s *SeedService) Apply(ctx context.Context, tenantID uuid.UUID, table TaxTable) (*SeedResult, error) {
	result := &SeedResult{}
	for i, row := range table.NCMCodes {
		if _, err := s.ncm.Save(ctx, tenantID, row); err != nil {
			return result, fmt.Errorf("ncm_codes[%d] %s: %w", i, row.Code, err)
		}
		result.NCMCodes++
	}
	for i, row := range table.StateRates {
		if _, err := s.stateRates.Save(ctx, tenantID, row); err != nil {
			return result, fmt.Errorf("state_rates[%d] %s->%s: %w", i, row.OriginState, row.DestinationState, err)
		}
		result.StateRates++
	}
	s.logger.Info("Tax tables seeded",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("ncm_codes", result.NCMCodes),
		zap.Int("state_rates", result.StateRates),
	)
	return result, nil
}
