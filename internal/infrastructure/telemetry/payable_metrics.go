package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
)

// PayableMetrics records payables activity. A nil *PayableMetrics is a no-op.
type PayableMetrics struct {
	entriesCreated  *Counter
	launchesAdded   *Counter
	groupPlans      *Counter
	partialFailures *Counter
	planDuration    *Histogram
}

// NewPayableMetrics registers the payables instruments on meter.
func NewPayableMetrics(meter metric.Meter) (*PayableMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	pm := &PayableMetrics{}
	var err error
	if pm.entriesCreated, err = NewCounter(meter, "payables_entry_created_total",
		"Payable entries created", "{entries}"); err != nil {
		return nil, err
	}
	if pm.launchesAdded, err = NewCounter(meter, "payables_launch_added_total",
		"Ledger launches appended to payable entries", "{launches}"); err != nil {
		return nil, err
	}
	if pm.groupPlans, err = NewCounter(meter, "payables_recurrence_plan_total",
		"Recurrence group plans executed to completion", "{plans}"); err != nil {
		return nil, err
	}
	if pm.partialFailures, err = NewCounter(meter, "payables_recurrence_partial_failure_total",
		"Recurrence group plans that stopped part way", "{plans}"); err != nil {
		return nil, err
	}
	if pm.planDuration, err = NewHistogram(meter, "payables_recurrence_plan_duration_seconds",
		"Recurrence group plan execution time", "s", PlanDurationBuckets...); err != nil {
		return nil, err
	}
	return pm, nil
}

// RecordEntryCreated counts n new entries for a tenant.
func (pm *PayableMetrics) RecordEntryCreated(ctx context.Context, tenantID uuid.UUID, n int) {
	if pm == nil || n <= 0 {
		return
	}
	pm.entriesCreated.Add(ctx, int64(n), AttrTenantID.String(tenantID.String()))
}

// RecordLaunch counts a launch appended to an entry.
func (pm *PayableMetrics) RecordLaunch(ctx context.Context, tenantID uuid.UUID, typeID string, settlement bool) {
	if pm == nil {
		return
	}
	pm.launchesAdded.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrLaunchType.String(typeID),
		AttrSettlement.Bool(settlement),
	)
}

// RecordGroupPlan records a fully executed recurrence plan.
func (pm *PayableMetrics) RecordGroupPlan(ctx context.Context, tenantID uuid.UUID, kind, outcome string, took time.Duration) {
	if pm == nil {
		return
	}
	pm.groupPlans.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPlanKind.String(kind),
		AttrGroupOutcome.String(outcome),
	)
	pm.planDuration.RecordDuration(ctx, took, AttrPlanKind.String(kind))
}

// RecordPartialFailure counts a recurrence plan that stopped with pending steps.
func (pm *PayableMetrics) RecordPartialFailure(ctx context.Context, tenantID uuid.UUID, kind string) {
	if pm == nil {
		return
	}
	pm.partialFailures.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPlanKind.String(kind),
	)
}
