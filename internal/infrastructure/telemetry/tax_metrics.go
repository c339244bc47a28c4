package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics set is created without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

var centavos = decimal.NewFromInt(100)

// ExemptionMetricsProvider reports exemption state for periodic collection.
type ExemptionMetricsProvider interface {
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
	CountActiveExemptions(ctx context.Context, tenantID uuid.UUID, at time.Time) (int64, error)
}

// TaxMetricsConfig holds configuration for tax metrics.
type TaxMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	ExemptionProvider ExemptionMetricsProvider
}

// TaxMetrics records tax engine activity.
type TaxMetrics struct {
	logger *zap.Logger

	calculationsTotal   *Counter
	taxAmountTotal      *Counter
	quotesTotal         *Counter
	calculationDuration *Histogram
	activeExemptions    *Gauge

	exemptionProvider ExemptionMetricsProvider
	stopChan          chan struct{}
	stopOnce          sync.Once
	collectOnce       sync.Once
}

// NewTaxMetrics creates the tax metric instruments.
func NewTaxMetrics(cfg TaxMetricsConfig) (*TaxMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &TaxMetrics{
		logger:            logger,
		exemptionProvider: cfg.ExemptionProvider,
		stopChan:          make(chan struct{}),
	}

	var err error
	if m.calculationsTotal, err = NewCounter(cfg.Meter,
		"mdc_tax_order_calculations_total",
		"Total number of order tax calculations",
		"{calculations}",
	); err != nil {
		return nil, err
	}
	if m.taxAmountTotal, err = NewCounter(cfg.Meter,
		"mdc_tax_amount_total",
		"Total tax calculated, in centavos",
		"{centavos}",
	); err != nil {
		return nil, err
	}
	if m.quotesTotal, err = NewCounter(cfg.Meter,
		"mdc_tax_quotes_total",
		"Total number of ad-hoc tax quotes",
		"{quotes}",
	); err != nil {
		return nil, err
	}
	if m.calculationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "mdc_tax_calculation_duration_seconds",
		Description: "Duration of order tax calculations",
		Unit:        "s",
		Boundaries:  CalculationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.activeExemptions, err = NewGauge(cfg.Meter,
		"mdc_tax_active_exemptions",
		"Number of exemptions in force",
		"{exemptions}",
	); err != nil {
		return nil, err
	}
	return m, nil
}

func statusOf(err error) string {
	if err != nil {
		return statusFailed
	}
	return statusSuccess
}

// RecordOrderCalculation records one order calculation and, on success, the
// amount of each tax.
func (m *TaxMetrics) RecordOrderCalculation(ctx context.Context, tenantID uuid.UUID, totals tax.TaxTotals, duration time.Duration, err error) {
	tenant := AttrTenantID.String(tenantID.String())
	m.calculationsTotal.Inc(ctx, tenant, AttrStatus.String(statusOf(err)))
	m.calculationDuration.RecordDuration(ctx, duration, tenant)
	if err != nil {
		return
	}
	amounts := map[tax.TaxType]decimal.Decimal{
		tax.TaxTypeICMS:   totals.ICMS.Amount(),
		tax.TaxTypePIS:    totals.PIS.Amount(),
		tax.TaxTypeCOFINS: totals.COFINS.Amount(),
		tax.TaxTypeIPI:    totals.IPI.Amount(),
	}
	for taxType, amount := range amounts {
		if amount.IsZero() {
			continue
		}
		m.taxAmountTotal.Add(ctx, amount.Mul(centavos).IntPart(), tenant, AttrTaxType.String(string(taxType)))
	}
}

// RecordQuote records one ad-hoc quote.
func (m *TaxMetrics) RecordQuote(ctx context.Context, tenantID uuid.UUID, err error) {
	m.quotesTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrStatus.String(statusOf(err)),
	)
}

// StartPeriodicCollection refreshes the exemption gauge every interval
// (default 5 minutes) until Stop is called or ctx is done.
func (m *TaxMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go m.runPeriodicCollection(ctx, interval)
	})
}

func (m *TaxMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collectExemptions(ctx)
	for {
		select {
		case <-m.stopChan:
			m.logger.Info("Stopping periodic tax metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectExemptions(ctx)
		}
	}
}

func (m *TaxMetrics) collectExemptions(ctx context.Context) {
	if m.exemptionProvider == nil {
		return
	}
	tenantIDs, err := m.exemptionProvider.ActiveTenantIDs(ctx)
	if err != nil {
		m.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}
	now := time.Now()
	for _, tenantID := range tenantIDs {
		count, err := m.exemptionProvider.CountActiveExemptions(ctx, tenantID, now)
		if err != nil {
			m.logger.Warn("Failed to count active exemptions",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		m.activeExemptions.Record(ctx, count, AttrTenantID.String(tenantID.String()))
	}
}

// Stop stops the periodic collection.
func (m *TaxMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}
