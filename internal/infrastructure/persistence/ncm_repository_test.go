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

func seedNCM(t *testing.T, repo *GormNCMRepository, tenantID uuid.UUID, code, description string, ipi *valueobject.Percentage) *tax.NCMCode {
	t.Helper()
	ncm, err := tax.NewNCMCode(tenantID, code, description)
	require.NoError(t, err)
	pis := valueobject.MustPercentage("1.65")
	cofins := valueobject.MustPercentage("7.6")
	ncm.SetRates(ipi, &pis, &cofins)
	require.NoError(t, repo.Save(context.Background(), ncm))
	return ncm
}

func TestGormNCMRepository_SaveAndFind(t *testing.T) {
	repo := NewGormNCMRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	ipi := valueobject.MustPercentage("6.5")
	saved := seedNCM(t, repo, tenantID, "0901.21.00", "Café torrado, não descafeinado", &ipi)

	t.Run("finds by exact code", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, tenantID, "09012100")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, found.ID)
		assert.Equal(t, tenantID, found.TenantID)
		require.NotNil(t, found.IPIRate)
		assert.Equal(t, "6.5", found.IPIRate.Decimal().String())
		require.NotNil(t, found.COFINSRate)
		assert.Equal(t, "7.6", found.COFINSRate.Decimal().String())
		assert.True(t, found.Active)
	})

	t.Run("nil rate survives the round trip", func(t *testing.T) {
		noIPI := seedNCM(t, repo, tenantID, "0901", "Café", nil)
		found, err := repo.FindByCode(ctx, tenantID, noIPI.Code)
		require.NoError(t, err)
		assert.Nil(t, found.IPIRate)
		assert.NotNil(t, found.PISRate)
	})

	t.Run("unknown code returns ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, tenantID, "21069090")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("other tenants do not see the code", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, uuid.New(), "09012100")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update keeps a single row", func(t *testing.T) {
		require.NoError(t, saved.UpdateDescription("Café torrado em grão"))
		require.NoError(t, repo.Save(ctx, saved))

		found, err := repo.FindByCode(ctx, tenantID, "09012100")
		require.NoError(t, err)
		assert.Equal(t, "Café torrado em grão", found.Description)
		assert.Equal(t, saved.Version, found.Version)
	})
}

func TestGormNCMRepository_FindByCodes(t *testing.T) {
	repo := NewGormNCMRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	seedNCM(t, repo, tenantID, "0901", "Café", nil)
	seedNCM(t, repo, tenantID, "090121", "Café torrado", nil)
	inactive := seedNCM(t, repo, tenantID, "09012100", "Café torrado em grão", nil)
	inactive.Deactivate()
	require.NoError(t, repo.Save(ctx, inactive))

	found, err := repo.FindByCodes(ctx, tenantID, tax.NCMLookupKeys("09012100"))
	require.NoError(t, err)

	codes := make([]string, len(found))
	for i := range found {
		codes[i] = found[i].Code
	}
	assert.ElementsMatch(t, []string{"0901", "090121"}, codes)

	best := tax.MostSpecificNCM("09012100", found)
	require.NotNil(t, best)
	assert.Equal(t, "090121", best.Code)

	empty, err := repo.FindByCodes(ctx, tenantID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormNCMRepository_FindAllForTenant(t *testing.T) {
	repo := NewGormNCMRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	seedNCM(t, repo, tenantID, "09012100", "Café torrado", nil)
	seedNCM(t, repo, tenantID, "09011100", "Café cru", nil)
	seedNCM(t, repo, tenantID, "84198100", "Cafeteira elétrica", nil)
	seedNCM(t, repo, uuid.New(), "09012200", "Café descafeinado", nil)

	tests := []struct {
		name      string
		filter    shared.Filter
		wantCodes []string
		wantCount int64
	}{
		{
			name:      "sorted by code",
			filter:    shared.Filter{OrderBy: "code", OrderDir: "asc"},
			wantCodes: []string{"09011100", "09012100", "84198100"},
			wantCount: 3,
		},
		{
			name:      "search matches description case insensitively",
			filter:    shared.Filter{Search: "TORRADO", OrderBy: "code", OrderDir: "asc"},
			wantCodes: []string{"09012100"},
			wantCount: 1,
		},
		{
			name:      "search matches code",
			filter:    shared.Filter{Search: "8419", OrderBy: "code", OrderDir: "asc"},
			wantCodes: []string{"84198100"},
			wantCount: 1,
		},
		{
			name:      "paginates",
			filter:    shared.Filter{Page: 2, PageSize: 2, OrderBy: "code", OrderDir: "asc"},
			wantCodes: []string{"84198100"},
			wantCount: 3,
		},
		{
			name:      "invalid sort field falls back to code",
			filter:    shared.Filter{OrderBy: "code; DROP TABLE ncm_codes", OrderDir: "desc"},
			wantCodes: []string{"84198100", "09012100", "09011100"},
			wantCount: 3,
		},
		{
			name: "code prefix filter",
			filter: shared.Filter{
				OrderBy: "code", OrderDir: "asc",
				Filters: map[string]interface{}{"code_prefix": "0901"},
			},
			wantCodes: []string{"09011100", "09012100"},
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.FindAllForTenant(ctx, tenantID, tt.filter)
			require.NoError(t, err)
			codes := make([]string, len(entries))
			for i := range entries {
				codes[i] = entries[i].Code
			}
			assert.Equal(t, tt.wantCodes, codes)

			count, err := repo.CountForTenant(ctx, tenantID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}
