// Package tenant provides row-level tenant scoping for GORM.
//
// Every fiscal table carries a tenant_id column. Repositories never build that
// condition by hand; they go through Scoped so a missing tenant is an error
// instead of a cross-store read.
//
// Usage:
//
//	tenant.Scoped(ctx, db, tenantID).Where("code = ?", code).First(&ncm)
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a query is attempted without a tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Column is the tenant column present on every tenant-owned table
const Column = "tenant_id"

// ByTenant is a gorm scope restricting a query to one tenant's rows
func ByTenant(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(Column+" = ?", tenantID)
	}
}

// Scoped binds db to ctx and filters it to tenantID.
// A nil tenant returns a DB that fails on execution.
func Scoped(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) *gorm.DB {
	scoped := db.WithContext(ctx)
	if tenantID == uuid.Nil {
		_ = scoped.AddError(ErrTenantIDRequired)
		return scoped
	}
	return scoped.Scopes(ByTenant(tenantID))
}
