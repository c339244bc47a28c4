package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStateTaxRateRepository(t *testing.T) {
	repo := NewGormStateTaxRateRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	save := func(origin, dest valueobject.UF, rate string) *tax.StateTaxRate {
		r, err := tax.NewStateTaxRate(tenantID, origin, dest, valueobject.MustPercentage(rate))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, r))
		return r
	}

	save("SP", "SP", "18")
	spRJ := save("SP", "RJ", "12")
	save("SP", "BA", "7")

	t.Run("finds a pair", func(t *testing.T) {
		found, err := repo.FindByPair(ctx, tenantID, "SP", "RJ")
		require.NoError(t, err)
		assert.Equal(t, spRJ.ID, found.ID)
		assert.Equal(t, "12", found.ICMSRate.Decimal().String())
		assert.Nil(t, found.FCPRate)
	})

	t.Run("missing pair returns ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByPair(ctx, tenantID, "RJ", "SP")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update with FCP and deactivation", func(t *testing.T) {
		fcp := valueobject.MustPercentage("2")
		spRJ.UpdateRate(valueobject.MustPercentage("12"), &fcp)
		spRJ.Deactivate()
		require.NoError(t, repo.Save(ctx, spRJ))

		found, err := repo.FindByPair(ctx, tenantID, "SP", "RJ")
		require.NoError(t, err)
		require.NotNil(t, found.FCPRate)
		assert.Equal(t, "2", found.FCPRate.Decimal().String())
		assert.False(t, found.Active)
	})

	t.Run("lists all pairs ordered, inactive included", func(t *testing.T) {
		all, err := repo.FindAllForTenant(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, valueobject.UF("BA"), all[0].DestinationState)
		assert.Equal(t, valueobject.UF("RJ"), all[1].DestinationState)
		assert.Equal(t, valueobject.UF("SP"), all[2].DestinationState)

		table := tax.NewStateRateTable(all)
		assert.Equal(t, 2, table.Len())
		_, ok := table.ICMSRate("SP", "RJ")
		assert.False(t, ok)
	})
}
