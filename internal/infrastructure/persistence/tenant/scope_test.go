package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ncmRow struct {
	ID       uuid.UUID `gorm:"primaryKey"`
	TenantID uuid.UUID `gorm:"index"`
	Code     string
}

func (ncmRow) TableName() string { return "ncm_rows" }

// seededDB holds two NCM rows for storeA and one for storeB
func seededDB(t *testing.T) (db *gorm.DB, storeA, storeB uuid.UUID) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // one :memory: database per connection
	require.NoError(t, db.AutoMigrate(&ncmRow{}))

	storeA, storeB = uuid.New(), uuid.New()
	rows := []ncmRow{
		{ID: uuid.New(), TenantID: storeA, Code: "0901.21.00"},
		{ID: uuid.New(), TenantID: storeA, Code: "1905.90.90"},
		{ID: uuid.New(), TenantID: storeB, Code: "0901.21.00"},
	}
	require.NoError(t, db.Create(&rows).Error)
	return db, storeA, storeB
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	db, storeA, storeB := seededDB(t)

	tests := []struct {
		name   string
		tenant uuid.UUID
		code   string
		want   int
	}{
		{"all rows of store A", storeA, "", 2},
		{"all rows of store B", storeB, "", 1},
		{"extra condition stays inside the tenant", storeB, "1905.90.90", 0},
		{"unknown tenant sees nothing", uuid.New(), "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := Scoped(ctx, db, tt.tenant)
			if tt.code != "" {
				query = query.Where("code = ?", tt.code)
			}
			var got []ncmRow
			require.NoError(t, query.Find(&got).Error)
			require.Len(t, got, tt.want)
			for _, row := range got {
				assert.Equal(t, tt.tenant, row.TenantID)
			}
		})
	}
}

func TestScoped_NilTenant(t *testing.T) {
	db, _, _ := seededDB(t)

	var got []ncmRow
	err := Scoped(context.Background(), db, uuid.Nil).Find(&got).Error
	assert.ErrorIs(t, err, ErrTenantIDRequired)
	assert.Empty(t, got)
}

func TestByTenant_SQL(t *testing.T) {
	db, storeA, _ := seededDB(t)

	stmt := db.Session(&gorm.Session{DryRun: true}).Scopes(ByTenant(storeA)).Find(&[]ncmRow{}).Statement
	assert.Contains(t, stmt.SQL.String(), Column+" = ?")
	assert.Equal(t, []any{storeA}, stmt.Vars)
}
