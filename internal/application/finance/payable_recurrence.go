package finance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SimulateRecurrences previews the installments that would follow an entry.
// Nothing is persisted.
func (s *PayableService) SimulateRecurrences(ctx context.Context, tenantID, entryID uuid.UUID, req RecurrenceRequest) (*SimulationResponse, error) {
	source, err := s.repo.FindByIDForTenant(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	items, err := s.simulate(source, req)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	rule := req.rule()
	return &SimulationResponse{
		SourceID:    source.ID,
		Period:      string(rule.Period),
		WeekendRule: string(rule.WeekendRule),
		Items:       items,
		TotalAmount: total,
	}, nil
}

// CreateRecurrences recomputes the simulation, applies the client's overrides
// by installment label and expands the entry into a recurrence group.
// When the plan stops midway the returned *finance.PartialFailureError names
// a plan that ResumeGroupPlan can finish.
func (s *PayableService) CreateRecurrences(ctx context.Context, tenantID, entryID uuid.UUID, req CreateRecurrencesRequest) (*GroupPlanResponse, error) {
	source, err := s.repo.FindByIDForTenant(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	items, err := s.simulate(source, req.RecurrenceRequest)
	if err != nil {
		return nil, err
	}
	if len(req.Overrides) > 0 {
		if items, err = finance.AttachOverrides(items, req.Overrides); err != nil {
			return nil, err
		}
	}

	started := time.Now()
	plan, err := s.groups.CreateRecurrences(ctx, source, req.rule(), items)
	if err != nil {
		return nil, s.planFailed(ctx, plan, err)
	}
	s.planSucceeded(ctx, plan, plan, time.Since(started))
	return toGroupPlanResponse(plan), nil
}

// GetRecurrenceGroup returns every member of a group in installment order
func (s *PayableService) GetRecurrenceGroup(ctx context.Context, tenantID, recurrenceID uuid.UUID) (*RecurrenceGroupResponse, error) {
	group, err := s.groups.LoadGroup(ctx, tenantID, recurrenceID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(group, func(i, j int) bool { return installmentOf(&group[i]) < installmentOf(&group[j]) })

	today := s.Today()
	resp := &RecurrenceGroupResponse{
		RecurrenceID:   recurrenceID,
		Total:          len(group),
		GrossTotal:     decimal.Zero,
		RemainingTotal: decimal.Zero,
		Members:        make([]PayableResponse, len(group)),
	}
	for i := range group {
		e := &group[i]
		if r := e.Recurrence; r != nil && resp.Period == "" {
			resp.Period = string(r.Period)
			resp.WeekendRule = string(r.WeekendRule)
		}
		resp.GrossTotal = resp.GrossTotal.Add(e.GrossAmount)
		if !e.Cancelled {
			resp.RemainingTotal = resp.RemainingTotal.Add(e.Balance().Remaining)
		}
		resp.Members[i] = *toPayableResponse(e, today)
	}
	return resp, nil
}

// DeleteRecurrences removes ids from a group and renumbers the survivors.
// PAID installments are rejected before anything is written.
func (s *PayableService) DeleteRecurrences(ctx context.Context, tenantID, recurrenceID uuid.UUID, ids []uuid.UUID) (*GroupPlanResponse, error) {
	group, err := s.groups.LoadGroup(ctx, tenantID, recurrenceID)
	if err != nil {
		return nil, err
	}
	if err := s.groups.CheckDeletePreconditions(group, ids, s.Today()); err != nil {
		return nil, err
	}
	plan, err := s.groups.PlanDeleteRecurrences(group, ids)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	if err := s.groups.Execute(ctx, plan); err != nil {
		return nil, s.planFailed(ctx, plan, err)
	}
	s.planSucceeded(ctx, plan, plan, time.Since(started))
	return toGroupPlanResponse(plan), nil
}

// ResumeGroupPlan retries the pending steps of a plan that stopped midway.
// Steps recorded as completed by the step tracker are skipped.
func (s *PayableService) ResumeGroupPlan(ctx context.Context, tenantID, planID uuid.UUID) (*GroupPlanResponse, error) {
	pending, ok := s.plans.get(planID)
	if !ok || pending.full.TenantID != tenantID {
		return nil, shared.NewDomainError("NOT_FOUND", "No resumable recurrence plan with this id")
	}

	started := time.Now()
	remaining := pending.failure.RemainingPlan()
	if err := s.groups.Execute(ctx, remaining); err != nil {
		return nil, s.planFailed(ctx, pending.full, err)
	}
	s.plans.remove(planID)
	s.planSucceeded(ctx, pending.full, remaining, time.Since(started))
	return toGroupPlanResponse(pending.full), nil
}

// ListPendingPlans returns the tenant's plans that stopped midway
func (s *PayableService) ListPendingPlans(ctx context.Context, tenantID uuid.UUID) []PendingPlanResponse {
	var out []PendingPlanResponse
	for _, p := range s.plans.list() {
		if p.full.TenantID != tenantID {
			continue
		}
		out = append(out, PendingPlanResponse{
			PlanID:       p.full.ID,
			RecurrenceID: p.full.RecurrenceID,
			Kind:         string(p.full.Kind),
			Completed:    len(p.full.Steps) - len(p.failure.Pending),
			Pending:      len(p.failure.Pending),
			Cause:        p.failure.Cause.Error(),
			FailedAt:     p.failedAt,
		})
	}
	return out
}

func (s *PayableService) simulate(source *finance.PayableEntry, req RecurrenceRequest) ([]finance.SimulationItem, error) {
	if req.Count > s.maxInstallments {
		return nil, finance.NewValidationError("count", fmt.Sprintf("at most %d installments can be generated at once", s.maxInstallments))
	}
	dates, err := finance.ProjectDates(source.DueDate, req.rule())
	if err != nil {
		return nil, err
	}
	return finance.Simulate(source.Fields(), dates), nil
}

// planFailed keeps a partially executed plan for ResumeGroupPlan and returns
// the error to report. Errors raised before any step ran are returned as-is.
func (s *PayableService) planFailed(ctx context.Context, full *finance.GroupPlan, err error) error {
	var pf *finance.PartialFailureError
	if !errors.As(err, &pf) {
		return err
	}

	// a resumed plan reports steps relative to the remainder; re-anchor on the full plan
	failure := &finance.PartialFailureError{
		Plan:      full,
		Completed: completedBefore(full, pf.Pending),
		Pending:   pf.Pending,
		Cause:     pf.Cause,
	}
	s.plans.put(full.ID, &pendingPlan{full: full, failure: failure, failedAt: s.now()})

	s.log(ctx).Error("recurrence plan stopped midway",
		zap.String("plan_id", full.ID.String()),
		zap.String("recurrence_id", full.RecurrenceID.String()),
		zap.String("kind", string(full.Kind)),
		zap.Int("completed_steps", len(failure.Completed)),
		zap.Int("pending_steps", len(failure.Pending)),
		zap.Error(pf.Cause),
	)
	s.payableMetrics.RecordPartialFailure(ctx, full.TenantID, string(full.Kind))
	return failure
}

// planSucceeded publishes the events of a fully executed plan. ran holds the
// steps executed by this call, which is the full plan unless it was resumed.
func (s *PayableService) planSucceeded(ctx context.Context, full, ran *finance.GroupPlan, took time.Duration) {
	s.log(ctx).Info("recurrence plan completed",
		zap.String("plan_id", full.ID.String()),
		zap.String("recurrence_id", full.RecurrenceID.String()),
		zap.String("kind", string(full.Kind)),
		zap.String("outcome", string(full.Outcome)),
		zap.Int("steps", len(ran.Steps)),
		zap.Duration("took", took),
	)
	s.payableMetrics.RecordGroupPlan(ctx, full.TenantID, string(full.Kind), string(full.Outcome), took)

	created := full.CreatedEntries()
	if len(created) > 0 {
		s.payableMetrics.RecordEntryCreated(ctx, full.TenantID, len(created))
	}
	for _, e := range created {
		s.publishEvents(ctx, e)
	}
	if full.Outcome != finance.OutcomeDissolved {
		s.publish(ctx, finance.NewRecurrenceGroupEvent(full.EventType(), full))
	}
}

func completedBefore(full *finance.GroupPlan, pending []finance.GroupStep) []finance.GroupStep {
	if len(pending) == 0 {
		return append([]finance.GroupStep(nil), full.Steps...)
	}
	first := pending[0].Index
	out := make([]finance.GroupStep, 0, first)
	for _, st := range full.Steps {
		if st.Index < first {
			out = append(out, st)
		}
	}
	return out
}

func installmentOf(e *finance.PayableEntry) int {
	if e.Recurrence == nil {
		return 0
	}
	return e.Recurrence.Current
}

type pendingPlan struct {
	full     *finance.GroupPlan
	failure  *finance.PartialFailureError
	failedAt time.Time
}

// pendingPlans holds plans that stopped midway, keyed by plan id
type pendingPlans struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]*pendingPlan
}

func newPendingPlans() *pendingPlans {
	return &pendingPlans{plans: make(map[uuid.UUID]*pendingPlan)}
}

func (p *pendingPlans) put(id uuid.UUID, plan *pendingPlan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plans[id] = plan
}

func (p *pendingPlans) get(id uuid.UUID) (*pendingPlan, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[id]
	return plan, ok
}

func (p *pendingPlans) remove(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.plans, id)
}

func (p *pendingPlans) list() []*pendingPlan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*pendingPlan, 0, len(p.plans))
	for _, plan := range p.plans {
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].failedAt.Before(out[j].failedAt) })
	return out
}
