package tax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/mestresdocafe/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CalculationMetrics records tax engine activity
type CalculationMetrics interface {
	RecordOrderCalculation(ctx context.Context, tenantID uuid.UUID, totals tax.TaxTotals, duration time.Duration, err error)
	RecordQuote(ctx context.Context, tenantID uuid.UUID, err error)
}

// CalculationConfig holds the store-wide defaults of the engine
type CalculationConfig struct {
	// OriginState is the state goods ship from
	OriginState valueobject.UF
	// DefaultDestination is used when no customer state can be resolved
	DefaultDestination valueobject.UF
}

// DefaultCalculationConfig ships from and defaults to São Paulo
func DefaultCalculationConfig() CalculationConfig {
	return CalculationConfig{
		OriginState:        valueobject.DefaultUF,
		DefaultDestination: valueobject.DefaultUF,
	}
}

// CalculationRepositories groups the read repositories the engine needs
type CalculationRepositories struct {
	Orders       sales.OrderRepository
	Customers    sales.CustomerRepository
	Products     sales.ProductRepository
	ProductTaxes tax.ProductTaxRepository
	Exemptions   tax.TaxExemptionRepository
	Calculations tax.TaxCalculationRepository
}

// TaxCalculationService calculates, stores and reports order taxes
type TaxCalculationService struct {
	repos          CalculationRepositories
	reference      *ReferenceData
	txScope        TransactionScope
	cfg            CalculationConfig
	conditions     tax.ConditionEvaluator
	eventPublisher shared.EventPublisher
	metrics        CalculationMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewTaxCalculationService creates a new TaxCalculationService
func NewTaxCalculationService(
	repos CalculationRepositories,
	reference *ReferenceData,
	txScope TransactionScope,
	cfg CalculationConfig,
) *TaxCalculationService {
	if !cfg.OriginState.IsValid() {
		cfg.OriginState = valueobject.DefaultUF
	}
	if !cfg.DefaultDestination.IsValid() {
		cfg.DefaultDestination = valueobject.DefaultUF
	}
	return &TaxCalculationService{
		repos:     repos,
		reference: reference,
		txScope:   txScope,
		cfg:       cfg,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
}

// SetConditionEvaluator enables JSONLogic exemption conditions
func (s *TaxCalculationService) SetConditionEvaluator(evaluator tax.ConditionEvaluator) {
	s.conditions = evaluator
}

// SetEventPublisher sets the publisher for OrderTaxesCalculated events
func (s *TaxCalculationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *TaxCalculationService) SetMetrics(metrics CalculationMetrics) {
	s.metrics = metrics
}

// SetLogger sets the logger
func (s *TaxCalculationService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetClock overrides the reference time, for tests
func (s *TaxCalculationService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TaxCalculationService) calculator(ctx context.Context, tenantID uuid.UUID) (*tax.Calculator, error) {
	table, err := s.reference.RateTable(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	opts := []tax.CalculatorOption{tax.WithClock(s.now)}
	if s.conditions != nil {
		opts = append(opts, tax.WithConditionEvaluator(s.conditions))
	}
	return tax.NewCalculator(table, opts...), nil
}

// resolveDestination prefers the explicit state, then the customer address,
// then the configured default
func (s *TaxCalculationService) resolveDestination(ctx context.Context, tenantID uuid.UUID, explicit string, customerID *uuid.UUID) (valueobject.UF, error) {
	if explicit != "" {
		return parseState("destination_state", explicit, s.cfg.DefaultDestination)
	}
	if customerID == nil || *customerID == uuid.Nil {
		return s.cfg.DefaultDestination, nil
	}
	customer, err := s.repos.Customers.FindByIDForTenant(ctx, tenantID, *customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return s.cfg.DefaultDestination, nil
		}
		return "", fmt.Errorf("failed to load customer: %w", err)
	}
	return customer.DestinationState(s.cfg.DefaultDestination), nil
}

// CalculateOrderTaxes computes the taxes of every line of an order and stores
// them together with the new order totals in one transaction
func (s *TaxCalculationService) CalculateOrderTaxes(ctx context.Context, tenantID, orderID uuid.UUID, req CalculateOrderTaxesRequest) (*OrderTaxesResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tax", "calculate_order")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrOrderID, orderID.String(),
	)

	start := s.now()
	resp, totals, err := s.calculateOrderTaxes(ctx, tenantID, orderID, req)
	if s.metrics != nil {
		s.metrics.RecordOrderCalculation(ctx, tenantID, totals, time.Since(start), err)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrItemCount, len(resp.Lines),
		telemetry.SpanAttrTaxAmount, resp.TaxAmount.String(),
	)
	return resp, nil
}

func (s *TaxCalculationService) calculateOrderTaxes(ctx context.Context, tenantID, orderID uuid.UUID, req CalculateOrderTaxesRequest) (*OrderTaxesResponse, tax.TaxTotals, error) {
	var totals tax.TaxTotals

	order, err := s.repos.Orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, totals, err
	}
	if !order.Status.CanRecalculateTaxes() {
		return nil, totals, shared.NewDomainError("INVALID_STATE", "Cannot calculate taxes for a cancelled order")
	}
	if order.ItemCount() == 0 {
		return nil, totals, shared.NewDomainError("EMPTY_ORDER", "Order has no items")
	}

	origin, err := parseState("origin_state", req.OriginState, s.cfg.OriginState)
	if err != nil {
		return nil, totals, err
	}
	destination, err := s.resolveDestination(ctx, tenantID, req.DestinationState, &order.CustomerID)
	if err != nil {
		return nil, totals, err
	}
	telemetry.SetAttributes(telemetry.SpanFromContext(ctx),
		telemetry.SpanAttrOrderNumber, order.OrderNumber,
		telemetry.SpanAttrCustomerID, order.CustomerID.String(),
		telemetry.SpanAttrOriginState, origin.String(),
		telemetry.SpanAttrDestinationState, destination.String(),
	)

	at := s.now()
	exemptions, err := s.repos.Exemptions.FindActiveByCustomer(ctx, tenantID, order.CustomerID, at)
	if err != nil {
		return nil, totals, fmt.Errorf("failed to load exemptions: %w", err)
	}

	productIDs := order.ProductIDs()
	products, err := s.repos.Products.FindByIDs(ctx, tenantID, productIDs)
	if err != nil {
		return nil, totals, fmt.Errorf("failed to load products: %w", err)
	}
	known := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	for _, id := range productIDs {
		if !known[id] {
			return nil, totals, shared.NewDomainError("PRODUCT_NOT_FOUND", fmt.Sprintf("Product %s not found", id))
		}
	}

	configs, err := s.repos.ProductTaxes.FindByProducts(ctx, tenantID, productIDs)
	if err != nil {
		return nil, totals, fmt.Errorf("failed to load product tax configuration: %w", err)
	}
	configByProduct := make(map[uuid.UUID]*tax.ProductTax, len(configs))
	for i := range configs {
		configByProduct[configs[i].ProductID] = &configs[i]
	}

	calculator, err := s.calculator(ctx, tenantID)
	if err != nil {
		return nil, totals, err
	}

	calcs := make([]tax.TaxCalculation, 0, len(order.Items))
	for _, item := range order.Items {
		config := configByProduct[item.ProductID]
		var ncm *tax.NCMCode
		if config != nil {
			if ncm, err = s.reference.ResolveNCM(ctx, tenantID, config.NCMCode); err != nil {
				return nil, totals, err
			}
		}
		calc, err := calculator.Calculate(tax.LineInput{
			TenantID:    tenantID,
			OrderID:     order.ID,
			OrderItemID: item.ID,
			ProductID:   item.ProductID,
			UnitPrice:   valueobject.NewMoneyBRL(item.UnitPrice),
			Quantity:    item.Quantity,
			Origin:      origin,
			Destination: destination,
			ProductTax:  config,
			NCM:         ncm,
			Exemptions:  exemptions,
			At:          at,
		})
		if err != nil {
			return nil, totals, err
		}
		calcs = append(calcs, *calc)
	}

	totals = tax.SummarizeCalculations(calcs)
	if err := order.ApplyTaxes(totals.Total); err != nil {
		return nil, totals, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.CalculationRepo().DeleteByOrder(ctx, tenantID, order.ID); err != nil {
			return fmt.Errorf("failed to clear previous calculations: %w", err)
		}
		if err := repos.CalculationRepo().SaveBatch(ctx, calcs); err != nil {
			return fmt.Errorf("failed to save calculations: %w", err)
		}
		if err := repos.OrderRepo().SaveTaxTotals(ctx, order); err != nil {
			return fmt.Errorf("failed to update order totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, totals, err
	}

	s.publishCalculated(ctx, order, destination, len(calcs))
	s.logger.Info("Order taxes calculated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("origin", origin.String()),
		zap.String("destination", destination.String()),
		zap.Int("lines", len(calcs)),
		zap.String("tax_amount", order.TaxAmount.String()),
	)

	return &OrderTaxesResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TaxAmount:   order.TaxAmount,
		TotalAmount: order.TotalAmount,
		Summary:     ToTaxTotalsResponse(totals),
		Lines:       ToTaxCalculationResponses(calcs),
	}, totals, nil
}

func (s *TaxCalculationService) publishCalculated(ctx context.Context, order *sales.Order, destination valueobject.UF, lines int) {
	if s.eventPublisher == nil {
		return
	}
	event := tax.NewOrderTaxesCalculatedEvent(
		order.TenantID,
		order.ID,
		destination,
		valueobject.NewMoneyBRL(order.TaxAmount),
		valueobject.NewMoneyBRL(order.TotalAmount),
		lines,
	)
	// The calculation is already committed, so a publish failure is only logged
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish OrderTaxesCalculated",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

// QuoteLine calculates taxes for an ad-hoc line without storing anything
func (s *TaxCalculationService) QuoteLine(ctx context.Context, tenantID uuid.UUID, req QuoteRequest) (*TaxCalculationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tax", "quote")
	defer span.End()

	resp, err := s.quoteLine(ctx, tenantID, req)
	if s.metrics != nil {
		s.metrics.RecordQuote(ctx, tenantID, err)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (s *TaxCalculationService) quoteLine(ctx context.Context, tenantID uuid.UUID, req QuoteRequest) (*TaxCalculationResponse, error) {
	in := tax.LineInput{
		TenantID: tenantID,
		Quantity: req.Quantity,
		At:       s.now(),
	}
	if req.UnitPrice != nil {
		in.UnitPrice = valueobject.NewMoneyBRL(*req.UnitPrice)
	}

	var err error
	if in.Origin, err = parseState("origin_state", req.OriginState, s.cfg.OriginState); err != nil {
		return nil, err
	}
	if in.Destination, err = s.resolveDestination(ctx, tenantID, req.DestinationState, req.CustomerID); err != nil {
		return nil, err
	}

	ncmCode := ""
	if req.ProductID != nil {
		product, err := s.repos.Products.FindByIDForTenant(ctx, tenantID, *req.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", fmt.Sprintf("Product %s not found", *req.ProductID))
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		in.ProductID = product.ID
		if req.UnitPrice == nil {
			in.UnitPrice = valueobject.NewMoneyBRL(product.Price)
		}
		config, err := s.repos.ProductTaxes.FindByProduct(ctx, tenantID, product.ID)
		switch {
		case err == nil:
			in.ProductTax = config
			ncmCode = config.NCMCode
		case errors.Is(err, shared.ErrNotFound):
		default:
			return nil, fmt.Errorf("failed to load product tax configuration: %w", err)
		}
	}
	if req.UnitPrice == nil && req.ProductID == nil {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price is required when no product is given")
	}
	if ncmCode == "" && req.NCMCode != "" {
		if ncmCode, err = tax.NormalizeNCM(req.NCMCode); err != nil {
			return nil, err
		}
	}
	if in.NCM, err = s.reference.ResolveNCM(ctx, tenantID, ncmCode); err != nil {
		return nil, err
	}

	if req.CustomerID != nil {
		if in.Exemptions, err = s.repos.Exemptions.FindActiveByCustomer(ctx, tenantID, *req.CustomerID, in.At); err != nil {
			return nil, fmt.Errorf("failed to load exemptions: %w", err)
		}
	}

	calculator, err := s.calculator(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	calc, err := calculator.Calculate(in)
	if err != nil {
		return nil, err
	}
	if calc.NCMCode == "" {
		calc.NCMCode = ncmCode
	}
	resp := ToTaxCalculationResponse(calc)
	return &resp, nil
}

// GetOrderTaxes returns the stored calculations of an order
func (s *TaxCalculationService) GetOrderTaxes(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderTaxesResponse, error) {
	order, err := s.repos.Orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	calcs, err := s.repos.Calculations.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderTaxesResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TaxAmount:   order.TaxAmount,
		TotalAmount: order.TotalAmount,
		Summary:     ToTaxTotalsResponse(tax.SummarizeCalculations(calcs)),
		Lines:       ToTaxCalculationResponses(calcs),
	}, nil
}

// CheckCompliance scores the stored calculations of an order
func (s *TaxCalculationService) CheckCompliance(ctx context.Context, tenantID, orderID uuid.UUID) (*ComplianceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tax", "check_compliance")
	defer span.End()

	if _, err := s.repos.Orders.FindByIDForTenant(ctx, tenantID, orderID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	calcs, err := s.repos.Calculations.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(calcs) == 0 {
		return nil, shared.NewDomainError("TAXES_NOT_CALCULATED", "Order taxes have not been calculated")
	}

	report := tax.EvaluateCompliance(calcs)
	telemetry.SetAttributes(span,
		"compliance.score", report.Score.String(),
		"compliance.level", string(report.Level),
	)
	if report.Level != tax.ComplianceCompliant {
		s.logger.Warn("Order tax compliance below threshold",
			zap.String("order_id", orderID.String()),
			zap.String("score", report.Score.String()),
			zap.Int("issues", len(report.Issues)),
		)
	}
	return &ComplianceResponse{OrderID: orderID, ComplianceReport: report}, nil
}

// TaxSummary totals the taxes calculated in [from, to)
func (s *TaxCalculationService) TaxSummary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*TaxSummaryResponse, error) {
	if !from.Before(to) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period start must be before its end")
	}
	totals, err := s.repos.Calculations.SumBetween(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return &TaxSummaryResponse{
		From:              from,
		To:                to,
		TaxTotalsResponse: ToTaxTotalsResponse(totals),
	}, nil
}
