package finance

import (
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate and event type names
const (
	AggregateTypePayableEntry    = "PayableEntry"
	AggregateTypeRecurrenceGroup = "RecurrenceGroup"

	EventTypePayableEntryCreated       = "PayableEntryCreated"
	EventTypePayableLaunchAdded        = "PayableLaunchAdded"
	EventTypePayableLaunchRemoved      = "PayableLaunchRemoved"
	EventTypePayableEntrySettled       = "PayableEntrySettled"
	EventTypePayableEntryCancelled     = "PayableEntryCancelled"
	EventTypeRecurrenceGroupCreated    = "RecurrenceGroupCreated"
	EventTypeRecurrenceGroupRebalanced = "RecurrenceGroupRebalanced"
	EventTypeRecurrenceGroupCollapsed  = "RecurrenceGroupCollapsed"
)

// PayableEntryCreatedEvent is raised when a standalone entry is created
type PayableEntryCreatedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID       `json:"entry_id"`
	EntryNumber string          `json:"entry_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	DueDate     time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *PayableEntryCreatedEvent) EventType() string {
	return EventTypePayableEntryCreated
}

// NewPayableEntryCreatedEvent creates a new PayableEntryCreatedEvent
func NewPayableEntryCreatedEvent(p *PayableEntry) *PayableEntryCreatedEvent {
	return &PayableEntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayableEntryCreated, AggregateTypePayableEntry, p.ID, p.TenantID),
		EntryID:         p.ID,
		EntryNumber:     p.EntryNumber,
		CustomerID:      p.CustomerID,
		GrossAmount:     p.GrossAmount,
		DueDate:         p.DueDate,
	}
}

// PayableLaunchAddedEvent is raised when a launch is appended to an entry's ledger
type PayableLaunchAddedEvent struct {
	shared.BaseDomainEvent
	EntryID   uuid.UUID       `json:"entry_id"`
	Launch    Launch          `json:"launch"`
	Net       decimal.Decimal `json:"net"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

// EventType returns the event type name
func (e *PayableLaunchAddedEvent) EventType() string {
	return EventTypePayableLaunchAdded
}

// NewPayableLaunchAddedEvent creates a new PayableLaunchAddedEvent
func NewPayableLaunchAddedEvent(p *PayableEntry, l Launch) *PayableLaunchAddedEvent {
	b := p.Balance()
	return &PayableLaunchAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayableLaunchAdded, AggregateTypePayableEntry, p.ID, p.TenantID),
		EntryID:         p.ID,
		Launch:          l,
		Net:             b.Net,
		Paid:            b.Paid,
		Remaining:       b.Remaining,
	}
}

// PayableLaunchRemovedEvent is raised when a launch is removed and the ledger refolded
type PayableLaunchRemovedEvent struct {
	shared.BaseDomainEvent
	EntryID   uuid.UUID       `json:"entry_id"`
	LaunchID  uuid.UUID       `json:"launch_id"`
	Remaining decimal.Decimal `json:"remaining"`
}

// EventType returns the event type name
func (e *PayableLaunchRemovedEvent) EventType() string {
	return EventTypePayableLaunchRemoved
}

// NewPayableLaunchRemovedEvent creates a new PayableLaunchRemovedEvent
func NewPayableLaunchRemovedEvent(p *PayableEntry, l Launch) *PayableLaunchRemovedEvent {
	return &PayableLaunchRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayableLaunchRemoved, AggregateTypePayableEntry, p.ID, p.TenantID),
		EntryID:         p.ID,
		LaunchID:        l.ID,
		Remaining:       p.Balance().Remaining,
	}
}

// PayableEntrySettledEvent is raised when an entry's remaining balance reaches zero
type PayableEntrySettledEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID       `json:"entry_id"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
}

// EventType returns the event type name
func (e *PayableEntrySettledEvent) EventType() string {
	return EventTypePayableEntrySettled
}

// NewPayableEntrySettledEvent creates a new PayableEntrySettledEvent
func NewPayableEntrySettledEvent(p *PayableEntry) *PayableEntrySettledEvent {
	return &PayableEntrySettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayableEntrySettled, AggregateTypePayableEntry, p.ID, p.TenantID),
		EntryID:         p.ID,
		NetAmount:       p.NetAmount,
		PaidAmount:      p.PaidAmount,
		PaymentDate:     p.PaymentDate,
	}
}

// PayableEntryCancelledEvent is raised when an entry is cancelled
type PayableEntryCancelledEvent struct {
	shared.BaseDomainEvent
	EntryID uuid.UUID `json:"entry_id"`
	Reason  string    `json:"reason"`
}

// EventType returns the event type name
func (e *PayableEntryCancelledEvent) EventType() string {
	return EventTypePayableEntryCancelled
}

// NewPayableEntryCancelledEvent creates a new PayableEntryCancelledEvent
func NewPayableEntryCancelledEvent(p *PayableEntry) *PayableEntryCancelledEvent {
	return &PayableEntryCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayableEntryCancelled, AggregateTypePayableEntry, p.ID, p.TenantID),
		EntryID:         p.ID,
		Reason:          p.CancelReason,
	}
}

// RecurrenceGroupEvent reports a change of group membership.
// The event type distinguishes creation, rebalance and collapse.
type RecurrenceGroupEvent struct {
	shared.BaseDomainEvent
	RecurrenceID uuid.UUID   `json:"recurrence_id"`
	PlanID       uuid.UUID   `json:"plan_id"`
	EntryIDs     []uuid.UUID `json:"entry_ids"`
	Total        int         `json:"total"`
}

// NewRecurrenceGroupEvent creates a group event for a fully executed plan
func NewRecurrenceGroupEvent(eventType string, plan *GroupPlan) *RecurrenceGroupEvent {
	ids := make([]uuid.UUID, 0, len(plan.Survivors))
	for _, s := range plan.Survivors {
		ids = append(ids, s.EntryID)
	}
	return &RecurrenceGroupEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeRecurrenceGroup, plan.RecurrenceID, plan.TenantID),
		RecurrenceID:    plan.RecurrenceID,
		PlanID:          plan.ID,
		EntryIDs:        ids,
		Total:           len(plan.Survivors),
	}
}
