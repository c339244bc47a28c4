package persistence

import (
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ncmOrderColumns are the columns an NCM listing may be ordered by
var ncmOrderColumns = []string{"code", "description", "active", "created_at", "updated_at"}

// orderBy applies a client chosen ordering. Unknown columns fall back to
// fallback and anything but "asc" sorts descending, so the request never
// reaches the SQL text.
func orderBy(query *gorm.DB, column, dir string, allowed []string, fallback string) *gorm.DB {
	column = strings.TrimSpace(column)
	if !slices.Contains(allowed, column) {
		column = fallback
	}
	desc := !strings.EqualFold(strings.TrimSpace(dir), "asc")
	return query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
}
