package finance

import (
	"time"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableResponse represents a payable entry in API responses
type PayableResponse struct {
	ID               uuid.UUID           `json:"id"`
	TenantID         uuid.UUID           `json:"tenant_id"`
	EntryNumber      string              `json:"entry_number"`
	CustomerID       uuid.UUID           `json:"customer_id"`
	CategoryID       *uuid.UUID          `json:"category_id,omitempty"`
	DocumentTypeID   *uuid.UUID          `json:"document_type_id,omitempty"`
	DocumentID       string              `json:"document_id,omitempty"`
	BankAccountID    *uuid.UUID          `json:"bank_account_id,omitempty"`
	Description      string              `json:"description,omitempty"`
	Remark           string              `json:"remark,omitempty"`
	GrossAmount      decimal.Decimal     `json:"gross_amount"`
	NetAmount        decimal.Decimal     `json:"net_amount"`
	PaidAmount       decimal.Decimal     `json:"paid_amount"`
	RemainingAmount  decimal.Decimal     `json:"remaining_amount"`
	Status           string              `json:"status"`
	DueDate          time.Time           `json:"due_date"`
	IssueDate        time.Time           `json:"issue_date"`
	PaymentDate      *time.Time          `json:"payment_date,omitempty"`
	InstallmentLabel string              `json:"installment_label"`
	Recurrence       *RecurrenceResponse `json:"recurrence,omitempty"`
	Launches         []LaunchResponse    `json:"launches"`
	Cancelled        bool                `json:"cancelled"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason     string              `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Version          int                 `json:"version"`
}

// RecurrenceResponse places an entry in its recurrence group
type RecurrenceResponse struct {
	RecurrenceID uuid.UUID `json:"recurrence_id"`
	Current      int       `json:"current"`
	Total        int       `json:"total"`
	Period       string    `json:"period,omitempty"`
	WeekendRule  string    `json:"weekend_rule,omitempty"`
	RepeatDay    int       `json:"repeat_day,omitempty"`
}

// LaunchResponse represents one ledger launch
type LaunchResponse struct {
	ID           uuid.UUID       `json:"id"`
	TypeID       string          `json:"type_id"`
	Operation    string          `json:"operation"`
	IsSettlement bool            `json:"is_settlement"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description,omitempty"`
}

// LaunchTypeResponse represents a launch type of the catalogue
type LaunchTypeResponse struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Operation    string `json:"operation"`
	IsSettlement bool   `json:"is_settlement"`
}

// CreatePayableRequest holds the attributes of a new standalone entry.
// An empty EntryNumber is replaced with the next DES number of the tenant.
type CreatePayableRequest struct {
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
	IssueDate      *time.Time
}

func (r CreatePayableRequest) fields() finance.PayableEntryFields {
	f := finance.PayableEntryFields{
		EntryNumber:    r.EntryNumber,
		CustomerID:     r.CustomerID,
		CategoryID:     r.CategoryID,
		DocumentTypeID: r.DocumentTypeID,
		DocumentID:     r.DocumentID,
		BankAccountID:  r.BankAccountID,
		Description:    r.Description,
		Remark:         r.Remark,
		GrossAmount:    r.GrossAmount,
		DueDate:        r.DueDate,
	}
	if r.IssueDate != nil {
		f.IssueDate = *r.IssueDate
	}
	return f
}

// UpdatePayableRequest replaces the editable attributes of an entry.
// A non-zero Version must match the stored version.
type UpdatePayableRequest struct {
	CreatePayableRequest
	Version int
}

// ListPayablesRequest holds list filters. Status accepts PENDING, OVERDUE, PAID or CANCELLED.
type ListPayablesRequest struct {
	Search        string
	Status        string
	CustomerID    *uuid.UUID
	CategoryID    *uuid.UUID
	BankAccountID *uuid.UUID
	RecurrenceID  *uuid.UUID
	DueFrom       *time.Time
	DueTo         *time.Time
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	Page          int
	PageSize      int
	OrderBy       string
	OrderDir      string
}

// AddLaunchRequest is an unresolved launch. Mode defaults to FIXED.
type AddLaunchRequest struct {
	TypeID      string
	Mode        string
	Value       decimal.Decimal
	Date        time.Time
	Description string
}

// RecurrenceRequest describes the installments to project after an entry
type RecurrenceRequest struct {
	Period      string
	Count       int
	WeekendRule string
	RepeatDay   int
}

func (r RecurrenceRequest) rule() finance.RecurrenceRule {
	return finance.RecurrenceRule{
		Period:      finance.RecurrencePeriod(r.Period),
		Count:       r.Count,
		WeekendRule: finance.WeekendRule(r.WeekendRule),
		RepeatDay:   r.RepeatDay,
	}
}

// CreateRecurrencesRequest repeats the simulation server-side and merges the
// client's overrides by installment label
type CreateRecurrencesRequest struct {
	RecurrenceRequest
	Overrides map[string]finance.SimulationOverrides
}

// SimulationResponse is a preview of the installments a rule would create
type SimulationResponse struct {
	SourceID    uuid.UUID                `json:"source_id"`
	Period      string                   `json:"period"`
	WeekendRule string                   `json:"weekend_rule"`
	Items       []finance.SimulationItem `json:"items"`
	TotalAmount decimal.Decimal          `json:"total_amount"`
}

// RecurrenceGroupResponse lists a group's members in installment order
type RecurrenceGroupResponse struct {
	RecurrenceID   uuid.UUID         `json:"recurrence_id"`
	Total          int               `json:"total"`
	Period         string            `json:"period,omitempty"`
	WeekendRule    string            `json:"weekend_rule,omitempty"`
	GrossTotal     decimal.Decimal   `json:"gross_total"`
	RemainingTotal decimal.Decimal   `json:"remaining_total"`
	Members        []PayableResponse `json:"members"`
}

// GroupPlanResponse reports the result of a group operation
type GroupPlanResponse struct {
	PlanID       uuid.UUID             `json:"plan_id"`
	RecurrenceID uuid.UUID             `json:"recurrence_id"`
	Kind         string                `json:"kind"`
	Outcome      string                `json:"outcome"`
	Survivors    []finance.GroupMember `json:"survivors"`
}

// PendingPlanResponse describes a plan that stopped midway and can be resumed
type PendingPlanResponse struct {
	PlanID       uuid.UUID `json:"plan_id"`
	RecurrenceID uuid.UUID `json:"recurrence_id"`
	Kind         string    `json:"kind"`
	Completed    int       `json:"completed_steps"`
	Pending      int       `json:"pending_steps"`
	Cause        string    `json:"cause"`
	FailedAt     time.Time `json:"failed_at"`
}

func toPayableResponse(e *finance.PayableEntry, today time.Time) *PayableResponse {
	b := e.Balance()
	resp := &PayableResponse{
		ID:               e.ID,
		TenantID:         e.TenantID,
		EntryNumber:      e.EntryNumber,
		CustomerID:       e.CustomerID,
		CategoryID:       e.CategoryID,
		DocumentTypeID:   e.DocumentTypeID,
		DocumentID:       e.DocumentID,
		BankAccountID:    e.BankAccountID,
		Description:      e.Description,
		Remark:           e.Remark,
		GrossAmount:      e.GrossAmount,
		NetAmount:        b.Net,
		PaidAmount:       b.Paid,
		RemainingAmount:  b.Remaining,
		Status:           string(e.Status(today)),
		DueDate:          e.DueDate,
		IssueDate:        e.IssueDate,
		PaymentDate:      e.PaymentDate,
		InstallmentLabel: e.InstallmentLabel,
		Launches:         make([]LaunchResponse, len(e.Launches)),
		Cancelled:        e.Cancelled,
		CancelledAt:      e.CancelledAt,
		CancelReason:     e.CancelReason,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
		Version:          e.Version,
	}
	if r := e.Recurrence; r != nil {
		resp.Recurrence = &RecurrenceResponse{
			RecurrenceID: r.RecurrenceID,
			Current:      r.Current,
			Total:        r.Total,
			Period:       string(r.Period),
			WeekendRule:  string(r.WeekendRule),
			RepeatDay:    r.RepeatDay,
		}
	}
	for i, l := range e.Launches {
		resp.Launches[i] = LaunchResponse{
			ID:           l.ID,
			TypeID:       l.TypeID,
			Operation:    string(l.Operation),
			IsSettlement: l.IsSettlement,
			Amount:       l.Amount,
			Date:         l.Date,
			Description:  l.Description,
		}
	}
	return resp
}

func toGroupPlanResponse(plan *finance.GroupPlan) *GroupPlanResponse {
	return &GroupPlanResponse{
		PlanID:       plan.ID,
		RecurrenceID: plan.RecurrenceID,
		Kind:         string(plan.Kind),
		Outcome:      string(plan.Outcome),
		Survivors:    plan.Survivors,
	}
}
