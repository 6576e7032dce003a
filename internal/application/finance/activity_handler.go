package finance

import (
	"context"
	"fmt"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/domain/shared"
	"go.uber.org/zap"
)

// PayableActivityHandler logs settlements, cancellations and group changes
// as they leave the event bus
type PayableActivityHandler struct {
	logger *zap.Logger
}

// NewPayableActivityHandler creates a new handler for payable activity events
func NewPayableActivityHandler(logger *zap.Logger) *PayableActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayableActivityHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PayableActivityHandler) EventTypes() []string {
	return []string{
		finance.EventTypePayableEntrySettled,
		finance.EventTypePayableEntryCancelled,
		finance.EventTypeRecurrenceGroupCreated,
		finance.EventTypeRecurrenceGroupRebalanced,
		finance.EventTypeRecurrenceGroupCollapsed,
	}
}

// Handle logs one activity event
func (h *PayableActivityHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	log := h.logger.With(
		zap.String("event_id", event.EventID().String()),
		zap.String("tenant_id", event.TenantID().String()),
	)

	switch e := event.(type) {
	case *finance.PayableEntrySettledEvent:
		fields := []zap.Field{
			zap.String("entry_id", e.EntryID.String()),
			zap.String("net_amount", e.NetAmount.StringFixed(2)),
			zap.String("paid_amount", e.PaidAmount.StringFixed(2)),
		}
		if e.PaymentDate != nil {
			fields = append(fields, zap.Time("payment_date", *e.PaymentDate))
		}
		log.Info("payable settled", fields...)
	case *finance.PayableEntryCancelledEvent:
		log.Info("payable cancelled",
			zap.String("entry_id", e.EntryID.String()),
			zap.String("reason", e.Reason),
		)
	case *finance.RecurrenceGroupEvent:
		log.Info("recurrence group changed",
			zap.String("event_type", e.EventType()),
			zap.String("recurrence_id", e.RecurrenceID.String()),
			zap.String("plan_id", e.PlanID.String()),
			zap.Int("total", e.Total),
		)
	default:
		log.Error("unexpected event type", zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}
