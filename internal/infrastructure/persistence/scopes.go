package persistence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tenantScope restricts a query to one tenant's rows
func tenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// orderedLaunches preloads launches in ledger order
func orderedLaunches(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
