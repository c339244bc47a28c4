package tax

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"go.uber.org/zap"
)

// ConditionValidator checks that an exemption condition is well formed
type ConditionValidator interface {
	Validate(condition string) error
}

// ExemptionService manages customer tax exemptions
type ExemptionService struct {
	exemptionRepo  tax.TaxExemptionRepository
	validator      ConditionValidator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewExemptionService creates a new ExemptionService
func NewExemptionService(exemptionRepo tax.TaxExemptionRepository) *ExemptionService {
	return &ExemptionService{exemptionRepo: exemptionRepo, logger: zap.NewNop()}
}

// SetLogger sets the logger
func (s *ExemptionService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetConditionValidator enables validation of JSONLogic conditions on create
func (s *ExemptionService) SetConditionValidator(validator ConditionValidator) {
	s.validator = validator
}

// SetEventPublisher sets the event publisher
func (s *ExemptionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create grants a new exemption
func (s *ExemptionService) Create(ctx context.Context, tenantID uuid.UUID, req CreateExemptionRequest) (*ExemptionResponse, error) {
	rate, err := toPercentage("reduced_rate", req.ReducedRate)
	if err != nil {
		return nil, err
	}
	states := make([]valueobject.UF, 0, len(req.ApplicableStates))
	for _, raw := range req.ApplicableStates {
		uf, err := parseState("applicable_states", raw, "")
		if err != nil {
			return nil, err
		}
		states = append(states, uf)
	}
	if req.Condition != "" && s.validator != nil {
		if err := s.validator.Validate(req.Condition); err != nil {
			return nil, shared.NewDomainError("INVALID_EXEMPTION_CONDITION", err.Error())
		}
	}

	in := tax.NewTaxExemptionInput{
		TenantID:         tenantID,
		CustomerID:       req.CustomerID,
		TaxType:          tax.TaxType(req.TaxType),
		Kind:             tax.ExemptionKind(req.Kind),
		ReducedRate:      rate,
		ApplicableStates: states,
		ValidUntil:       req.ValidUntil,
		LegalBasis:       req.LegalBasis,
		Condition:        req.Condition,
	}
	if req.ValidFrom != nil {
		in.ValidFrom = *req.ValidFrom
	}
	exemption, err := tax.NewTaxExemption(in)
	if err != nil {
		return nil, err
	}
	exemption.AddDomainEvent(tax.NewTaxExemptionCreatedEvent(exemption))

	if err := s.exemptionRepo.Save(ctx, exemption); err != nil {
		return nil, err
	}
	s.publish(ctx, exemption)

	response := ToExemptionResponse(exemption)
	return &response, nil
}

// Deactivate revokes an exemption
func (s *ExemptionService) Deactivate(ctx context.Context, tenantID, id uuid.UUID, req DeactivateExemptionRequest) (*ExemptionResponse, error) {
	exemption, err := s.exemptionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := exemption.Deactivate(req.Reason); err != nil {
		return nil, err
	}
	if err := s.exemptionRepo.Save(ctx, exemption); err != nil {
		return nil, err
	}
	s.publish(ctx, exemption)

	response := ToExemptionResponse(exemption)
	return &response, nil
}

// Extend moves the end of an exemption's validity window
func (s *ExemptionService) Extend(ctx context.Context, tenantID, id uuid.UUID, until time.Time) (*ExemptionResponse, error) {
	exemption, err := s.exemptionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := exemption.Extend(until); err != nil {
		return nil, err
	}
	if err := s.exemptionRepo.Save(ctx, exemption); err != nil {
		return nil, err
	}
	response := ToExemptionResponse(exemption)
	return &response, nil
}

// ListByCustomer returns every exemption of a customer. With activeAt set,
// only the exemptions in force at that date are returned.
func (s *ExemptionService) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, activeAt *time.Time) ([]ExemptionResponse, error) {
	var (
		exemptions []tax.TaxExemption
		err        error
	)
	if activeAt != nil {
		exemptions, err = s.exemptionRepo.FindActiveByCustomer(ctx, tenantID, customerID, *activeAt)
	} else {
		exemptions, err = s.exemptionRepo.FindByCustomer(ctx, tenantID, customerID)
	}
	if err != nil {
		return nil, err
	}
	return ToExemptionResponses(exemptions), nil
}

func (s *ExemptionService) publish(ctx context.Context, exemption *tax.TaxExemption) {
	events := exemption.GetDomainEvents()
	exemption.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Exemption changes are already stored, so a publish failure is only logged
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish exemption events",
			zap.String("exemption_id", exemption.ID.String()),
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
}
