package finance

import (
	"context"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableEntryStore is the narrow persistence contract used by group operations
type PayableEntryStore interface {
	// Create inserts entry and returns its ID. Re-inserting an existing ID is a no-op.
	Create(ctx context.Context, entry *PayableEntry) (uuid.UUID, error)

	// Update applies an installment patch to one entry
	Update(ctx context.Context, tenantID, id uuid.UUID, patch InstallmentPatch) error

	// Delete removes one entry together with its launches
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// ListByRecurrenceID returns the members of a group ordered by due date
	ListByRecurrenceID(ctx context.Context, tenantID, recurrenceID uuid.UUID) ([]PayableEntry, error)
}

// PayableEntryFilter defines filtering options for payable queries
type PayableEntryFilter struct {
	shared.Filter
	// Status filters by derived status. PENDING and OVERDUE are evaluated against Today.
	Status        *PayableStatus
	Today         time.Time
	CustomerID    *uuid.UUID
	CategoryID    *uuid.UUID
	BankAccountID *uuid.UUID
	RecurrenceID  *uuid.UUID
	DueFrom       *time.Time
	DueTo         *time.Time
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
}

// PayableEntryRepository defines the interface for payable entry persistence
type PayableEntryRepository interface {
	PayableEntryStore

	// FindByIDForTenant loads an entry with its launches
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PayableEntry, error)

	// FindAllForTenant lists entries with filtering and pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PayableEntryFilter) ([]PayableEntry, error)

	// CountForTenant counts entries matching filter, ignoring pagination
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PayableEntryFilter) (int64, error)

	// Save creates or fully replaces an entry and its launches
	Save(ctx context.Context, entry *PayableEntry) error

	// SaveWithLock saves only if the stored version matches entry.Version
	SaveWithLock(ctx context.Context, entry *PayableEntry) error

	// GenerateEntryNumber returns the next DES-<n> number for a tenant
	GenerateEntryNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
