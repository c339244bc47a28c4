package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BaseModel holds the id and timestamps every table has
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) setEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// TenantAggregateModel is the row shape of a tenant-owned aggregate:
// BaseModel plus the optimistic version and the owning store.
type TenantAggregateModel struct {
	BaseModel
	Version  int       `gorm:"not null;default:1"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// root rebuilds the aggregate header. Pending domain events are never
// stored, so a loaded aggregate starts with none.
func (m *TenantAggregateModel) root() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.entity(), Version: m.Version},
		TenantID:          m.TenantID,
	}
}

func (m *TenantAggregateModel) setRoot(r shared.TenantAggregateRoot) {
	m.setEntity(r.BaseEntity)
	m.Version = r.Version
	m.TenantID = r.TenantID
}

// Rates are stored as NUMERIC(5,2) percentages. Stored values passed the
// CHECK constraints on the way in, so an out of range value read back is
// treated as absent (or zero) instead of failing the whole query.

func nullableRate(p *valueobject.Percentage) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(p.Decimal())
}

func rateFromNullable(d decimal.NullDecimal) *valueobject.Percentage {
	if !d.Valid {
		return nil
	}
	p, err := valueobject.NewPercentage(d.Decimal)
	if err != nil {
		return nil
	}
	return &p
}

func rateFromDecimal(d decimal.Decimal) valueobject.Percentage {
	p, err := valueobject.NewPercentage(d)
	if err != nil {
		return valueobject.ZeroPercent()
	}
	return p
}
