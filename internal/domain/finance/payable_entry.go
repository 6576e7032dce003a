package finance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StandaloneInstallmentLabel is the label of an entry that belongs to no group
const StandaloneInstallmentLabel = "001/001"

// FormatInstallmentLabel renders current/total as zero-padded 3-digit integers
func FormatInstallmentLabel(current, total int) string {
	return fmt.Sprintf("%03d/%03d", current, total)
}

// ParseInstallmentLabel splits a "XXX/YYY" label
func ParseInstallmentLabel(label string) (current, total int, err error) {
	parts := strings.Split(label, "/")
	if len(parts) != 2 {
		return 0, 0, NewValidationError("installment_label", fmt.Sprintf("malformed installment label %q", label))
	}
	current, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, NewValidationError("installment_label", fmt.Sprintf("malformed installment label %q", label))
	}
	total, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, NewValidationError("installment_label", fmt.Sprintf("malformed installment label %q", label))
	}
	if current < 1 || total < 1 || current > total {
		return 0, 0, NewValidationError("installment_label", fmt.Sprintf("installment label %q out of range", label))
	}
	return current, total, nil
}

// RecurrenceInfo places an entry inside a recurrence group
type RecurrenceInfo struct {
	RecurrenceID uuid.UUID        `json:"recurrence_id"`
	Current      int              `json:"current"`
	Total        int              `json:"total"`
	Period       RecurrencePeriod `json:"period"`
	WeekendRule  WeekendRule      `json:"weekend_rule"`
	RepeatDay    int              `json:"repeat_day"`
}

// Label returns the installment label matching the position
func (r RecurrenceInfo) Label() string {
	return FormatInstallmentLabel(r.Current, r.Total)
}

// InstallmentPatch is the only mutation group operations apply to existing entries
type InstallmentPatch struct {
	InstallmentLabel string
	Recurrence       *RecurrenceInfo
}

// PayableEntry is one scheduled obligation with its own ledger of launches
type PayableEntry struct {
	shared.TenantAggregateRoot
	EntryNumber      string
	CustomerID       uuid.UUID
	CategoryID       *uuid.UUID
	DocumentTypeID   *uuid.UUID
	DocumentID       string
	BankAccountID    *uuid.UUID
	Description      string
	Remark           string
	GrossAmount      decimal.Decimal
	NetAmount        decimal.Decimal
	PaidAmount       decimal.Decimal
	DueDate          time.Time
	IssueDate        time.Time
	PaymentDate      *time.Time
	InstallmentLabel string
	Recurrence       *RecurrenceInfo
	Launches         []Launch
	Cancelled        bool
	CancelledAt      *time.Time
	CancelReason     string
}

// PayableEntryFields are the user-editable attributes of an entry
type PayableEntryFields struct {
	EntryNumber    string
	CustomerID     uuid.UUID
	CategoryID     *uuid.UUID
	DocumentTypeID *uuid.UUID
	DocumentID     string
	BankAccountID  *uuid.UUID
	Description    string
	Remark         string
	GrossAmount    decimal.Decimal
	DueDate        time.Time
	IssueDate      time.Time
}

func (f PayableEntryFields) validate() error {
	if f.CustomerID == uuid.Nil {
		return NewValidationError("customer_id", "customer is required")
	}
	if !f.GrossAmount.IsPositive() {
		return NewValidationError("gross_amount", "gross amount must be positive")
	}
	if err := checkMoneyScale("gross_amount", f.GrossAmount); err != nil {
		return err
	}
	if f.DueDate.IsZero() {
		return NewValidationError("due_date", "due date is required")
	}
	if len(f.EntryNumber) > 50 {
		return NewValidationError("entry_number", "entry number cannot exceed 50 characters")
	}
	return nil
}

// NewPayableEntry creates a standalone entry with an empty ledger
func NewPayableEntry(tenantID uuid.UUID, fields PayableEntryFields) (*PayableEntry, error) {
	if err := fields.validate(); err != nil {
		return nil, err
	}
	if fields.IssueDate.IsZero() {
		fields.IssueDate = time.Now()
	}

	e := &PayableEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InstallmentLabel:    StandaloneInstallmentLabel,
		Launches:            make([]Launch, 0),
	}
	e.assign(fields)
	e.refold()

	e.AddDomainEvent(NewPayableEntryCreatedEvent(e))
	return e, nil
}

func (e *PayableEntry) assign(f PayableEntryFields) {
	e.EntryNumber = f.EntryNumber
	e.CustomerID = f.CustomerID
	e.CategoryID = f.CategoryID
	e.DocumentTypeID = f.DocumentTypeID
	e.DocumentID = f.DocumentID
	e.BankAccountID = f.BankAccountID
	e.Description = f.Description
	e.Remark = f.Remark
	e.GrossAmount = f.GrossAmount
	e.DueDate = DateOnly(f.DueDate)
	e.IssueDate = DateOnly(f.IssueDate)
}

// Fields returns the editable attributes of the entry
func (e *PayableEntry) Fields() PayableEntryFields {
	return PayableEntryFields{
		EntryNumber:    e.EntryNumber,
		CustomerID:     e.CustomerID,
		CategoryID:     e.CategoryID,
		DocumentTypeID: e.DocumentTypeID,
		DocumentID:     e.DocumentID,
		BankAccountID:  e.BankAccountID,
		Description:    e.Description,
		Remark:         e.Remark,
		GrossAmount:    e.GrossAmount,
		DueDate:        e.DueDate,
		IssueDate:      e.IssueDate,
	}
}

// Update replaces the editable attributes and refolds the ledger
func (e *PayableEntry) Update(fields PayableEntryFields) error {
	if e.Cancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit a cancelled payable")
	}
	if err := fields.validate(); err != nil {
		return err
	}
	if fields.IssueDate.IsZero() {
		fields.IssueDate = e.IssueDate
	}
	e.assign(fields)
	e.refold()
	e.Touch()
	return nil
}

// Balance folds the launches over the gross amount
func (e *PayableEntry) Balance() LedgerBalance {
	return Fold(e.GrossAmount, e.Launches)
}

// Status resolves the entry's status as of today
func (e *PayableEntry) Status(today time.Time) PayableStatus {
	return ResolveStatus(e.Balance(), e.DueDate, e.Cancelled, today)
}

// IsSettled reports whether nothing remains to be paid on a positive net
func (e *PayableEntry) IsSettled() bool {
	b := e.Balance()
	return !b.Remaining.IsPositive() && b.Net.IsPositive()
}

// InGroup reports whether the entry belongs to a group of more than one installment
func (e *PayableEntry) InGroup() bool {
	return e.Recurrence != nil && e.Recurrence.Total > 1
}

// AddLaunch resolves req against the current balance and appends it.
// Nothing is appended when resolution fails.
func (e *PayableEntry) AddLaunch(engine *LedgerEngine, req LaunchRequest) (Launch, error) {
	if e.Cancelled {
		return Launch{}, shared.NewDomainError("INVALID_STATE", "Cannot add launches to a cancelled payable")
	}
	launch, err := engine.Resolve(e.Balance(), req)
	if err != nil {
		return Launch{}, err
	}

	wasSettled := e.IsSettled()
	e.Launches = append(e.Launches, launch)
	e.refold()
	e.Touch()

	e.AddDomainEvent(NewPayableLaunchAddedEvent(e, launch))
	if !wasSettled && e.IsSettled() {
		e.AddDomainEvent(NewPayableEntrySettledEvent(e))
	}
	return launch, nil
}

// RemoveLaunch drops a launch and refolds the remaining list from scratch
func (e *PayableEntry) RemoveLaunch(launchID uuid.UUID) error {
	if e.Cancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove launches from a cancelled payable")
	}
	idx := -1
	for i, l := range e.Launches {
		if l.ID == launchID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NewDomainError("LAUNCH_NOT_FOUND", fmt.Sprintf("Launch %s not found on payable", launchID))
	}

	removed := e.Launches[idx]
	e.Launches = append(e.Launches[:idx:idx], e.Launches[idx+1:]...)
	e.refold()
	e.Touch()

	e.AddDomainEvent(NewPayableLaunchRemovedEvent(e, removed))
	return nil
}

// Cancel marks the entry as cancelled. Cancellation is terminal.
func (e *PayableEntry) Cancel(reason string) error {
	if e.Cancelled {
		return shared.NewDomainError("INVALID_STATE", "Payable is already cancelled")
	}
	now := time.Now()
	e.Cancelled = true
	e.CancelledAt = &now
	e.CancelReason = reason
	e.Touch()

	e.AddDomainEvent(NewPayableEntryCancelledEvent(e))
	return nil
}

// ApplyInstallmentPatch rewrites the entry's position in its group
func (e *PayableEntry) ApplyInstallmentPatch(p InstallmentPatch) {
	e.InstallmentLabel = p.InstallmentLabel
	if p.Recurrence == nil {
		e.Recurrence = nil
	} else {
		r := *p.Recurrence
		e.Recurrence = &r
	}
	e.Touch()
}

// refold recomputes the stored net/paid and the payment date.
// PaymentDate is the date of the last settlement launch once the entry is settled.
func (e *PayableEntry) refold() {
	b := e.Balance()
	e.NetAmount = b.Net
	e.PaidAmount = b.Paid

	if b.Remaining.IsPositive() || !b.Net.IsPositive() {
		e.PaymentDate = nil
		return
	}
	for i := len(e.Launches) - 1; i >= 0; i-- {
		if e.Launches[i].IsSettlement {
			d := e.Launches[i].Date
			e.PaymentDate = &d
			return
		}
	}
	e.PaymentDate = nil
}
