package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/models"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormNCMRepository implements tax.NCMRepository using GORM
type GormNCMRepository struct {
	db *gorm.DB
}

// NewGormNCMRepository creates a new GormNCMRepository
func NewGormNCMRepository(db *gorm.DB) *GormNCMRepository {
	return &GormNCMRepository{db: db}
}

// FindByCode finds an entry by its exact code within a tenant
func (r *GormNCMRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*tax.NCMCode, error) {
	var model models.NCMCodeModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("code = ?", code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCodes returns the active entries among the given codes
func (r *GormNCMRepository) FindByCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]tax.NCMCode, error) {
	if len(codes) == 0 {
		return []tax.NCMCode{}, nil
	}
	var rows []models.NCMCodeModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("code IN ? AND active = ?", codes, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ncmToDomain(rows), nil
}

// FindAllForTenant lists entries matching the filter
func (r *GormNCMRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]tax.NCMCode, error) {
	var rows []models.NCMCodeModel
	query := r.applyFilter(tenant.Scoped(ctx, r.db, tenantID).Model(&models.NCMCodeModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return ncmToDomain(rows), nil
}

// CountForTenant counts entries matching the filter
func (r *GormNCMRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(tenant.Scoped(ctx, r.db, tenantID).Model(&models.NCMCodeModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an entry
func (r *GormNCMRepository) Save(ctx context.Context, ncm *tax.NCMCode) error {
	return r.db.WithContext(ctx).Save(models.NCMCodeModelFromDomain(ncm)).Error
}

func (r *GormNCMRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	return orderBy(query, filter.OrderBy, filter.OrderDir, ncmOrderColumns, "code")
}

func (r *GormNCMRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("code LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "active":
			if active, ok := value.(bool); ok {
				query = query.Where("active = ?", active)
			}
		case "code_prefix":
			if prefix, ok := value.(string); ok && prefix != "" {
				query = query.Where("code LIKE ?", prefix+"%")
			}
		}
	}
	return query
}

func ncmToDomain(rows []models.NCMCodeModel) []tax.NCMCode {
	out := make([]tax.NCMCode, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ tax.NCMRepository = (*GormNCMRepository)(nil)
