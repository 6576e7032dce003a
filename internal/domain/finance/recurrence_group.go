package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
)

// GroupStepKind is the persistence action of one plan step
type GroupStepKind string

const (
	StepCreate GroupStepKind = "CREATE"
	StepUpdate GroupStepKind = "UPDATE"
	StepDelete GroupStepKind = "DELETE"
)

// GroupPlanKind distinguishes expansion from deletion plans
type GroupPlanKind string

const (
	PlanCreateRecurrences GroupPlanKind = "CREATE_RECURRENCES"
	PlanDeleteRecurrences GroupPlanKind = "DELETE_RECURRENCES"
)

// GroupOutcome is the shape of the group once a plan has fully run
type GroupOutcome string

const (
	OutcomeCreated    GroupOutcome = "CREATED"
	OutcomeRebalanced GroupOutcome = "REBALANCED"
	OutcomeCollapsed  GroupOutcome = "COLLAPSED"
	OutcomeDissolved  GroupOutcome = "DISSOLVED"
)

// GroupStep is one write of a plan. Index is stable across retries.
type GroupStep struct {
	Index   int               `json:"index"`
	Kind    GroupStepKind     `json:"kind"`
	EntryID uuid.UUID         `json:"entry_id"`
	Entry   *PayableEntry     `json:"-"`
	Patch   *InstallmentPatch `json:"patch,omitempty"`
}

// GroupMember is an entry of the target group state
type GroupMember struct {
	EntryID          uuid.UUID `json:"entry_id"`
	InstallmentLabel string    `json:"installment_label"`
	DueDate          time.Time `json:"due_date"`
}

// GroupPlan is an ordered list of writes plus the group state they lead to
type GroupPlan struct {
	ID           uuid.UUID     `json:"id"`
	TenantID     uuid.UUID     `json:"tenant_id"`
	RecurrenceID uuid.UUID     `json:"recurrence_id"`
	Kind         GroupPlanKind `json:"kind"`
	Outcome      GroupOutcome  `json:"outcome"`
	Steps        []GroupStep   `json:"steps"`
	Survivors    []GroupMember `json:"survivors"`
}

// StepKey identifies a step in the step tracker
func (p *GroupPlan) StepKey(s GroupStep) string {
	return fmt.Sprintf("recurrence-plan:%s:%d", p.ID, s.Index)
}

// CreatedEntries returns the entries inserted by the plan's CREATE steps
func (p *GroupPlan) CreatedEntries() []*PayableEntry {
	var out []*PayableEntry
	for _, s := range p.Steps {
		if s.Kind == StepCreate && s.Entry != nil {
			out = append(out, s.Entry)
		}
	}
	return out
}

// EventType maps the plan outcome to the group event it produces
func (p *GroupPlan) EventType() string {
	switch p.Outcome {
	case OutcomeCreated:
		return EventTypeRecurrenceGroupCreated
	case OutcomeRebalanced:
		return EventTypeRecurrenceGroupRebalanced
	default:
		return EventTypeRecurrenceGroupCollapsed
	}
}

// RecurrenceGroupManager is the only component that changes group membership
type RecurrenceGroupManager struct {
	store      PayableEntryStore
	tracker    shared.StepTracker
	trackerTTL time.Duration
}

// GroupManagerOption configures a RecurrenceGroupManager
type GroupManagerOption func(*RecurrenceGroupManager)

// WithStepTracker records completed steps so a resumed plan skips them
func WithStepTracker(tracker shared.StepTracker, ttl time.Duration) GroupManagerOption {
	return func(m *RecurrenceGroupManager) {
		m.tracker = tracker
		if ttl <= 0 {
			ttl = shared.DefaultStepTrackerTTL
		}
		m.trackerTTL = ttl
	}
}

// NewRecurrenceGroupManager creates a manager writing through store
func NewRecurrenceGroupManager(store PayableEntryStore, opts ...GroupManagerOption) *RecurrenceGroupManager {
	m := &RecurrenceGroupManager{store: store, trackerTTL: shared.DefaultStepTrackerTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PlanCreateRecurrences expands a standalone source entry into a group made of
// the source plus one new entry per simulation item. The source update is the
// first step so readers never see new members with a stale total.
func (m *RecurrenceGroupManager) PlanCreateRecurrences(source *PayableEntry, rule RecurrenceRule, items []SimulationItem) (*GroupPlan, error) {
	if len(items) == 0 {
		return nil, NewValidationError("items", "at least one installment is required")
	}
	if source.InGroup() {
		return nil, shared.NewDomainError("INVALID_STATE", "Payable already belongs to a recurrence group")
	}
	if source.Cancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot repeat a cancelled payable")
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	template := source.Fields()
	created := make([]*PayableEntry, 0, len(items))
	for _, it := range items {
		fields, err := it.Resolve(template)
		if err != nil {
			return nil, err
		}
		entry, err := NewPayableEntry(source.TenantID, fields)
		if err != nil {
			return nil, err
		}
		created = append(created, entry)
	}

	// source first, so it wins due-date ties
	members := append([]*PayableEntry{source}, created...)
	sort.SliceStable(members, func(i, j int) bool { return members[i].DueDate.Before(members[j].DueDate) })

	plan := &GroupPlan{
		ID:           uuid.New(),
		TenantID:     source.TenantID,
		RecurrenceID: uuid.New(),
		Kind:         PlanCreateRecurrences,
		Outcome:      OutcomeCreated,
	}
	total := len(members)
	var sourcePatch InstallmentPatch
	for i, e := range members {
		info := RecurrenceInfo{
			RecurrenceID: plan.RecurrenceID,
			Current:      i + 1,
			Total:        total,
			Period:       rule.Period,
			WeekendRule:  rule.WeekendRule,
			RepeatDay:    rule.RepeatDay,
		}
		if e == source {
			sourcePatch = InstallmentPatch{InstallmentLabel: info.Label(), Recurrence: &info}
		} else {
			e.ApplyInstallmentPatch(InstallmentPatch{InstallmentLabel: info.Label(), Recurrence: &info})
		}
		plan.Survivors = append(plan.Survivors, GroupMember{EntryID: e.ID, InstallmentLabel: info.Label(), DueDate: e.DueDate})
	}

	plan.Steps = append(plan.Steps, GroupStep{Kind: StepUpdate, EntryID: source.ID, Patch: &sourcePatch})
	for _, e := range members {
		if e != source {
			plan.Steps = append(plan.Steps, GroupStep{Kind: StepCreate, EntryID: e.ID, Entry: e})
		}
	}
	indexSteps(plan.Steps)
	return plan, nil
}

// PlanDeleteRecurrences removes ids from group and renumbers the survivors.
// One survivor collapses to a standalone entry; none dissolves the group.
// PAID members are not checked here, see CheckDeletePreconditions.
func (m *RecurrenceGroupManager) PlanDeleteRecurrences(group []PayableEntry, ids []uuid.UUID) (*GroupPlan, error) {
	if len(group) == 0 {
		return nil, shared.ErrNotFound
	}
	if len(ids) == 0 {
		return nil, NewValidationError("ids", "at least one entry must be selected")
	}

	members := make(map[uuid.UUID]bool, len(group))
	for _, e := range group {
		members[e.ID] = true
	}
	doomed := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !members[id] {
			return nil, NewValidationError("ids", fmt.Sprintf("entry %s is not part of the recurrence group", id))
		}
		doomed[id] = true
	}

	plan := &GroupPlan{
		ID:       uuid.New(),
		TenantID: group[0].TenantID,
		Kind:     PlanDeleteRecurrences,
	}
	if group[0].Recurrence != nil {
		plan.RecurrenceID = group[0].Recurrence.RecurrenceID
	}

	survivors := make([]PayableEntry, 0, len(group))
	for _, e := range group {
		if doomed[e.ID] {
			plan.Steps = append(plan.Steps, GroupStep{Kind: StepDelete, EntryID: e.ID})
		} else {
			survivors = append(survivors, e)
		}
	}
	sort.SliceStable(survivors, func(i, j int) bool { return survivors[i].DueDate.Before(survivors[j].DueDate) })

	switch len(survivors) {
	case 0:
		plan.Outcome = OutcomeDissolved
	case 1:
		plan.Outcome = OutcomeCollapsed
		patch := InstallmentPatch{InstallmentLabel: StandaloneInstallmentLabel}
		plan.Steps = append(plan.Steps, GroupStep{Kind: StepUpdate, EntryID: survivors[0].ID, Patch: &patch})
		plan.Survivors = []GroupMember{{EntryID: survivors[0].ID, InstallmentLabel: StandaloneInstallmentLabel, DueDate: survivors[0].DueDate}}
	default:
		plan.Outcome = OutcomeRebalanced
		total := len(survivors)
		for i, e := range survivors {
			info := RecurrenceInfo{RecurrenceID: plan.RecurrenceID}
			if e.Recurrence != nil {
				info = *e.Recurrence
			}
			info.Current = i + 1
			info.Total = total
			patch := InstallmentPatch{InstallmentLabel: info.Label(), Recurrence: &info}
			plan.Steps = append(plan.Steps, GroupStep{Kind: StepUpdate, EntryID: e.ID, Patch: &patch})
			plan.Survivors = append(plan.Survivors, GroupMember{EntryID: e.ID, InstallmentLabel: info.Label(), DueDate: e.DueDate})
		}
	}
	indexSteps(plan.Steps)
	return plan, nil
}

// CheckDeletePreconditions reports the selected entries that are already PAID
func (m *RecurrenceGroupManager) CheckDeletePreconditions(group []PayableEntry, ids []uuid.UUID, today time.Time) error {
	selected := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	var paid []uuid.UUID
	for i := range group {
		if selected[group[i].ID] && group[i].Status(today) == PayableStatusPaid {
			paid = append(paid, group[i].ID)
		}
	}
	if len(paid) > 0 {
		return &PreconditionViolation{Reason: "paid installments cannot be deleted", EntryIDs: paid}
	}
	return nil
}

// Execute runs the plan's steps in order. Steps already recorded by the step
// tracker are skipped. On failure it returns a *PartialFailureError whose
// RemainingPlan can be passed back to Execute.
func (m *RecurrenceGroupManager) Execute(ctx context.Context, plan *GroupPlan) error {
	for i := range plan.Steps {
		step := plan.Steps[i]
		key := plan.StepKey(step)

		if m.tracker != nil {
			done, err := m.tracker.IsCompleted(ctx, key)
			if err != nil {
				return m.partialFailure(plan, i, fmt.Errorf("check step %d: %w", step.Index, err))
			}
			if done {
				continue
			}
		}

		if err := m.apply(ctx, plan, i); err != nil {
			return m.partialFailure(plan, i, fmt.Errorf("%s entry %s: %w", step.Kind, step.EntryID, err))
		}

		if m.tracker != nil {
			if _, err := m.tracker.MarkCompleted(ctx, key, m.trackerTTL); err != nil {
				return m.partialFailure(plan, i+1, fmt.Errorf("record step %d: %w", step.Index, err))
			}
		}
	}
	return nil
}

func (m *RecurrenceGroupManager) apply(ctx context.Context, plan *GroupPlan, i int) error {
	step := plan.Steps[i]
	switch step.Kind {
	case StepCreate:
		id, err := m.store.Create(ctx, step.Entry)
		if err != nil {
			return err
		}
		if id != step.EntryID {
			plan.renameMember(step.EntryID, id)
			plan.Steps[i].EntryID = id
		}
		return nil
	case StepUpdate:
		return m.store.Update(ctx, plan.TenantID, step.EntryID, *step.Patch)
	case StepDelete:
		return m.store.Delete(ctx, plan.TenantID, step.EntryID)
	}
	return fmt.Errorf("unknown step kind %q", step.Kind)
}

func (m *RecurrenceGroupManager) partialFailure(plan *GroupPlan, failedAt int, cause error) *PartialFailureError {
	return &PartialFailureError{
		Plan:      plan,
		Completed: append([]GroupStep(nil), plan.Steps[:failedAt]...),
		Pending:   append([]GroupStep(nil), plan.Steps[failedAt:]...),
		Cause:     cause,
	}
}

// LoadGroup returns the members of a recurrence group
func (m *RecurrenceGroupManager) LoadGroup(ctx context.Context, tenantID, recurrenceID uuid.UUID) ([]PayableEntry, error) {
	group, err := m.store.ListByRecurrenceID(ctx, tenantID, recurrenceID)
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, shared.ErrNotFound
	}
	return group, nil
}

// CreateRecurrences plans and executes a group expansion
func (m *RecurrenceGroupManager) CreateRecurrences(ctx context.Context, source *PayableEntry, rule RecurrenceRule, items []SimulationItem) (*GroupPlan, error) {
	plan, err := m.PlanCreateRecurrences(source, rule, items)
	if err != nil {
		return nil, err
	}
	if err := m.Execute(ctx, plan); err != nil {
		return plan, err
	}
	if sp := plan.Steps[0].Patch; sp != nil {
		source.ApplyInstallmentPatch(*sp)
		source.IncrementVersion()
	}
	return plan, nil
}

// DeleteRecurrences loads a group, then plans and executes the deletion of ids
func (m *RecurrenceGroupManager) DeleteRecurrences(ctx context.Context, tenantID, recurrenceID uuid.UUID, ids []uuid.UUID) (*GroupPlan, error) {
	group, err := m.LoadGroup(ctx, tenantID, recurrenceID)
	if err != nil {
		return nil, err
	}
	plan, err := m.PlanDeleteRecurrences(group, ids)
	if err != nil {
		return nil, err
	}
	if err := m.Execute(ctx, plan); err != nil {
		return plan, err
	}
	return plan, nil
}

func (p *GroupPlan) renameMember(from, to uuid.UUID) {
	for i := range p.Survivors {
		if p.Survivors[i].EntryID == from {
			p.Survivors[i].EntryID = to
		}
	}
}

func indexSteps(steps []GroupStep) {
	for i := range steps {
		steps[i].Index = i
	}
}
