package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTaxExemptionRepository(t *testing.T) {
	repo := NewGormTaxExemptionRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	customerID := uuid.New()

	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	reduced := valueobject.MustPercentage("1.3")

	newExemption := func(in tax.NewTaxExemptionInput) *tax.TaxExemption {
		in.TenantID = tenantID
		in.CustomerID = customerID
		e, err := tax.NewTaxExemption(in)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, e))
		return e
	}

	open := newExemption(tax.NewTaxExemptionInput{
		TaxType:          tax.TaxTypeICMS,
		Kind:             tax.ExemptionTotal,
		ApplicableStates: []valueobject.UF{"MG", "BA"},
		ValidFrom:        jan,
		LegalBasis:       "Convênio ICMS 52/91",
		Condition:        `{">": [{"var": "order_total"}, 1000]}`,
	})
	bounded := newExemption(tax.NewTaxExemptionInput{
		TaxType:     tax.TaxTypePIS,
		Kind:        tax.ExemptionReducedRate,
		ReducedRate: &reduced,
		ValidFrom:   jan,
		ValidUntil:  &jun,
	})
	revoked := newExemption(tax.NewTaxExemptionInput{
		TaxType:   tax.TaxTypeCOFINS,
		Kind:      tax.ExemptionTotal,
		ValidFrom: jan,
	})
	require.NoError(t, revoked.Deactivate("customer lost certification"))
	require.NoError(t, repo.Save(ctx, revoked))

	t.Run("round trips every field", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, open.ID)
		require.NoError(t, err)
		assert.Equal(t, tax.TaxTypeICMS, found.TaxType)
		assert.Equal(t, tax.ExemptionTotal, found.Kind)
		assert.Nil(t, found.ReducedRate)
		assert.Equal(t, []valueobject.UF{"MG", "BA"}, found.ApplicableStates)
		assert.Nil(t, found.ValidUntil)
		assert.Equal(t, "Convênio ICMS 52/91", found.LegalBasis)
		assert.Equal(t, open.Condition, found.Condition)
		assert.True(t, found.Active)

		pis, err := repo.FindByIDForTenant(ctx, tenantID, bounded.ID)
		require.NoError(t, err)
		require.NotNil(t, pis.ReducedRate)
		assert.Equal(t, "1.3", pis.ReducedRate.Decimal().String())
		assert.Empty(t, pis.ApplicableStates)
		require.NotNil(t, pis.ValidUntil)
		assert.True(t, jun.Equal(*pis.ValidUntil))
	})

	t.Run("deactivation is persisted", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, revoked.ID)
		require.NoError(t, err)
		assert.False(t, found.Active)
		assert.NotNil(t, found.DeactivatedAt)
		assert.Equal(t, "customer lost certification", found.DeactivateReason)
	})

	t.Run("lists every exemption of the customer", func(t *testing.T) {
		all, err := repo.FindByCustomer(ctx, tenantID, customerID)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("active lookup honors the validity window", func(t *testing.T) {
		tests := []struct {
			name string
			at   time.Time
			want []tax.TaxType
		}{
			{"before any window", jan.Add(-time.Hour), nil},
			{"inside both windows", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), []tax.TaxType{tax.TaxTypeICMS, tax.TaxTypePIS}},
			{"on the last valid day", jun, []tax.TaxType{tax.TaxTypeICMS, tax.TaxTypePIS}},
			{"after the bounded window", jun.Add(24 * time.Hour), []tax.TaxType{tax.TaxTypeICMS}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				active, err := repo.FindActiveByCustomer(ctx, tenantID, customerID, tt.at)
				require.NoError(t, err)
				var types []tax.TaxType
				for _, e := range active {
					types = append(types, e.TaxType)
				}
				assert.ElementsMatch(t, tt.want, types)
			})
		}
	})

	t.Run("scoped to the tenant", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), open.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		other, err := repo.FindByCustomer(ctx, uuid.New(), customerID)
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}
