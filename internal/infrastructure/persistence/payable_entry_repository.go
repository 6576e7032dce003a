package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entryNumberPrefix = "DES-"

// settledCondition mirrors the domain rule: positive net fully covered by paid
const settledCondition = "(net_amount > 0 AND paid_amount >= net_amount)"

// GormPayableEntryRepository implements PayableEntryRepository using GORM
type GormPayableEntryRepository struct {
	db *gorm.DB
}

// NewGormPayableEntryRepository creates a new GormPayableEntryRepository
func NewGormPayableEntryRepository(db *gorm.DB) *GormPayableEntryRepository {
	return &GormPayableEntryRepository{db: db}
}

// FindByIDForTenant loads an entry and its launches in ledger order
func (r *GormPayableEntryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.PayableEntry, error) {
	var model models.PayableEntryModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Preload("Launches", orderedLaunches).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists entries with filtering, ordering and pagination
func (r *GormPayableEntryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.PayableEntryFilter) ([]finance.PayableEntry, error) {
	var entryModels []models.PayableEntryModel
	query := r.db.WithContext(ctx).
		Model(&models.PayableEntryModel{}).
		Scopes(tenantScope(tenantID), entryFilterScope(filter)).
		Preload("Launches", orderedLaunches)

	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "asc"
	}
	orderBy := ValidateSortField(filter.OrderBy, PayableEntrySortFields, "due_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(orderDir)).Order("id ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]finance.PayableEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries, nil
}

// CountForTenant counts entries matching filter, ignoring pagination
func (r *GormPayableEntryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.PayableEntryFilter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PayableEntryModel{}).
		Scopes(tenantScope(tenantID), entryFilterScope(filter)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListByRecurrenceID returns a group's members by due date, then position
func (r *GormPayableEntryRepository) ListByRecurrenceID(ctx context.Context, tenantID, recurrenceID uuid.UUID) ([]finance.PayableEntry, error) {
	var entryModels []models.PayableEntryModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Preload("Launches", orderedLaunches).
		Where("recurrence_id = ?", recurrenceID).
		Order("due_date ASC").
		Order("recurrence_current ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]finance.PayableEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries, nil
}

// Create inserts an entry and its launches. An existing ID is left untouched
// so replaying a plan step cannot duplicate rows.
func (r *GormPayableEntryRepository) Create(ctx context.Context, entry *finance.PayableEntry) (uuid.UUID, error) {
	model := models.PayableEntryModelFromDomain(entry)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 || len(model.Launches) == 0 {
			return nil
		}
		return tx.Create(&model.Launches).Error
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create payable entry: %w", err)
	}
	return entry.ID, nil
}

// Update writes an installment patch and bumps the row version. Amounts and launches are untouched.
func (r *GormPayableEntryRepository) Update(ctx context.Context, tenantID, id uuid.UUID, patch finance.InstallmentPatch) error {
	var cols models.PayableEntryModel
	cols.ApplyRecurrence(patch.Recurrence)

	result := r.db.WithContext(ctx).
		Model(&models.PayableEntryModel{}).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Updates(map[string]any{
			"installment_label":  patch.InstallmentLabel,
			"recurrence_id":      cols.RecurrenceID,
			"recurrence_current": cols.RecurrenceCurrent,
			"recurrence_total":   cols.RecurrenceTotal,
			"recurrence_period":  cols.RecurrencePeriod,
			"weekend_rule":       cols.WeekendRule,
			"repeat_day":         cols.RepeatDay,
			"updated_at":         time.Now(),
			"version":            gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an entry and its launches. Deleting a missing entry succeeds.
func (r *GormPayableEntryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.PayableEntryModel{}).
			Select("id").
			Where("tenant_id = ? AND id = ?", tenantID, id)
		if err := tx.Where("entry_id IN (?)", owned).Delete(&models.PayableLaunchModel{}).Error; err != nil {
			return err
		}
		return tx.Scopes(tenantScope(tenantID)).
			Where("id = ?", id).
			Delete(&models.PayableEntryModel{}).Error
	})
}

// Save creates or fully replaces an entry and its launches
func (r *GormPayableEntryRepository) Save(ctx context.Context, entry *finance.PayableEntry) error {
	model := models.PayableEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return replaceLaunches(tx, model)
	})
}

// SaveWithLock saves only if the stored version is entry.Version-1.
// Callers bump the version on the aggregate before saving.
func (r *GormPayableEntryRepository) SaveWithLock(ctx context.Context, entry *finance.PayableEntry) error {
	model := models.PayableEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).
			Select("*").
			Omit("created_at", clause.Associations).
			Where("tenant_id = ? AND version = ?", entry.TenantID, entry.Version-1).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return replaceLaunches(tx, model)
	})
}

func replaceLaunches(tx *gorm.DB, model *models.PayableEntryModel) error {
	if err := tx.Where("entry_id = ?", model.ID).Delete(&models.PayableLaunchModel{}).Error; err != nil {
		return err
	}
	if len(model.Launches) == 0 {
		return nil
	}
	return tx.Create(&model.Launches).Error
}

// GenerateEntryNumber returns the next DES-NNNNNN number for a tenant
func (r *GormPayableEntryRepository) GenerateEntryNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).
		Model(&models.PayableEntryModel{}).
		Scopes(tenantScope(tenantID)).
		Where("entry_number LIKE ?", entryNumberPrefix+"%").
		Pluck("entry_number", &numbers).Error; err != nil {
		return "", err
	}

	// Suffixes compare numerically; non-numeric manual numbers are skipped
	highest := 0
	for _, number := range numbers {
		n, err := strconv.Atoi(strings.TrimPrefix(number, entryNumberPrefix))
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	next := highest + 1
	return fmt.Sprintf("%s%06d", entryNumberPrefix, next), nil
}

// entryFilterScope applies every filter field except pagination and ordering
func entryFilterScope(filter finance.PayableEntryFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			pattern := "%" + strings.ToLower(filter.Search) + "%"
			db = db.Where("LOWER(description) LIKE ? OR LOWER(entry_number) LIKE ? OR installment_label LIKE ?",
				pattern, pattern, pattern)
		}
		if filter.Status != nil {
			db = statusScope(*filter.Status, filter.Today)(db)
		}
		if filter.CustomerID != nil {
			db = db.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.CategoryID != nil {
			db = db.Where("category_id = ?", *filter.CategoryID)
		}
		if filter.BankAccountID != nil {
			db = db.Where("bank_account_id = ?", *filter.BankAccountID)
		}
		if filter.RecurrenceID != nil {
			db = db.Where("recurrence_id = ?", *filter.RecurrenceID)
		}
		if filter.DueFrom != nil {
			db = db.Where("due_date >= ?", finance.DateOnly(*filter.DueFrom))
		}
		if filter.DueTo != nil {
			db = db.Where("due_date <= ?", finance.DateOnly(*filter.DueTo))
		}
		if filter.MinAmount != nil {
			db = db.Where("net_amount >= ?", *filter.MinAmount)
		}
		if filter.MaxAmount != nil {
			db = db.Where("net_amount <= ?", *filter.MaxAmount)
		}
		return db
	}
}

// statusScope translates a derived status into SQL. Status is never stored,
// so OVERDUE and PENDING are split on due_date against today.
func statusScope(status finance.PayableStatus, today time.Time) func(db *gorm.DB) *gorm.DB {
	if today.IsZero() {
		today = time.Now()
	}
	day := finance.DateOnly(today)
	return func(db *gorm.DB) *gorm.DB {
		switch status {
		case finance.PayableStatusCancelled:
			return db.Where("cancelled = ?", true)
		case finance.PayableStatusPaid:
			return db.Where("cancelled = ? AND "+settledCondition, false)
		case finance.PayableStatusOverdue:
			return db.Where("cancelled = ? AND NOT "+settledCondition+" AND due_date < ?", false, day)
		case finance.PayableStatusPending:
			return db.Where("cancelled = ? AND NOT "+settledCondition+" AND due_date >= ?", false, day)
		default:
			return db
		}
	}
}

var _ finance.PayableEntryRepository = (*GormPayableEntryRepository)(nil)
