package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/infrastructure/logger"
	"github.com/erp/payables/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxInstallments caps a single simulation when no limit is configured
const DefaultMaxInstallments = 120

// PayableService provides the payable use cases consumed by the HTTP layer and the CLI
type PayableService struct {
	repo            finance.PayableEntryRepository
	ledger          *finance.LedgerEngine
	groups          *finance.RecurrenceGroupManager
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	payableMetrics  *telemetry.PayableMetrics
	location        *time.Location
	now             func() time.Time
	maxInstallments int
	plans           *pendingPlans
}

// PayableServiceConfig holds the collaborators of a PayableService
type PayableServiceConfig struct {
	Repo            finance.PayableEntryRepository
	Ledger          *finance.LedgerEngine
	StepTracker     shared.StepTracker
	StepTrackerTTL  time.Duration
	EventPublisher  shared.EventPublisher
	Logger          *zap.Logger
	Location        *time.Location // calendar that decides "today"; UTC when nil
	MaxInstallments int
	Now             func() time.Time
}

// NewPayableService creates a new PayableService
func NewPayableService(cfg PayableServiceConfig) *PayableService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	maxInst := cfg.MaxInstallments
	if maxInst <= 0 {
		maxInst = DefaultMaxInstallments
	}
	ledger := cfg.Ledger
	if ledger == nil {
		registry, _ := finance.NewLaunchTypeRegistry(finance.DefaultLaunchTypes())
		ledger = finance.NewLedgerEngine(registry)
	}

	var opts []finance.GroupManagerOption
	if cfg.StepTracker != nil {
		opts = append(opts, finance.WithStepTracker(cfg.StepTracker, cfg.StepTrackerTTL))
	}

	return &PayableService{
		repo:            cfg.Repo,
		ledger:          ledger,
		groups:          finance.NewRecurrenceGroupManager(cfg.Repo, opts...),
		eventPublisher:  cfg.EventPublisher,
		logger:          log,
		location:        loc,
		now:             now,
		maxInstallments: maxInst,
		plans:           newPendingPlans(),
	}
}

// SetPayableMetrics sets the payable metrics collector
func (s *PayableService) SetPayableMetrics(pm *telemetry.PayableMetrics) {
	s.payableMetrics = pm
}

// Today returns the current calendar date in the configured location
func (s *PayableService) Today() time.Time {
	return finance.DateOnly(s.now().In(s.location))
}

// CreatePayable creates a standalone entry with an empty ledger
func (s *PayableService) CreatePayable(ctx context.Context, tenantID uuid.UUID, req CreatePayableRequest) (*PayableResponse, error) {
	fields := req.fields()
	if strings.TrimSpace(fields.EntryNumber) == "" {
		number, err := s.repo.GenerateEntryNumber(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to generate entry number: %w", err)
		}
		fields.EntryNumber = number
	}

	entry, err := finance.NewPayableEntry(tenantID, fields)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.log(ctx).Info("payable created",
		zap.String("entry_id", entry.ID.String()),
		zap.String("entry_number", entry.EntryNumber),
		zap.String("gross_amount", entry.GrossAmount.StringFixed(2)),
	)
	s.payableMetrics.RecordEntryCreated(ctx, tenantID, 1)
	s.publishEvents(ctx, entry)
	return toPayableResponse(entry, s.Today()), nil
}

// GetPayable gets a payable by ID
func (s *PayableService) GetPayable(ctx context.Context, tenantID, id uuid.UUID) (*PayableResponse, error) {
	entry, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toPayableResponse(entry, s.Today()), nil
}

// ListPayables lists payables with filtering. OVERDUE is evaluated against today.
func (s *PayableService) ListPayables(ctx context.Context, tenantID uuid.UUID, req ListPayablesRequest) ([]PayableResponse, int64, error) {
	today := s.Today()
	filter := finance.PayableEntryFilter{
		Filter:        shared.DefaultFilter(),
		Today:         today,
		CustomerID:    req.CustomerID,
		CategoryID:    req.CategoryID,
		BankAccountID: req.BankAccountID,
		RecurrenceID:  req.RecurrenceID,
		DueFrom:       req.DueFrom,
		DueTo:         req.DueTo,
		MinAmount:     req.MinAmount,
		MaxAmount:     req.MaxAmount,
	}
	filter.Search = req.Search
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.Status != "" {
		status := finance.PayableStatus(strings.ToUpper(req.Status))
		if !status.IsValid() {
			return nil, 0, finance.NewValidationError("status", fmt.Sprintf("unknown status %q", req.Status))
		}
		filter.Status = &status
	}
	if req.DueFrom != nil && req.DueTo != nil && req.DueTo.Before(*req.DueFrom) {
		return nil, 0, finance.NewValidationError("due_to", "due_to must not be before due_from")
	}

	entries, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PayableResponse, len(entries))
	for i := range entries {
		responses[i] = *toPayableResponse(&entries[i], today)
	}
	return responses, total, nil
}

// UpdatePayable replaces the editable attributes of an entry and refolds its ledger
func (s *PayableService) UpdatePayable(ctx context.Context, tenantID, id uuid.UUID, req UpdatePayableRequest) (*PayableResponse, error) {
	entry, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Version > 0 && req.Version != entry.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	fields := req.fields()
	if strings.TrimSpace(fields.EntryNumber) == "" {
		fields.EntryNumber = entry.EntryNumber
	}
	if err := entry.Update(fields); err != nil {
		return nil, err
	}
	if err := s.saveWithLock(ctx, entry); err != nil {
		return nil, err
	}

	s.log(ctx).Info("payable updated", zap.String("entry_id", entry.ID.String()))
	return toPayableResponse(entry, s.Today()), nil
}

// CancelPayable cancels an entry. A cancelled entry keeps its slot in its group.
func (s *PayableService) CancelPayable(ctx context.Context, tenantID, id uuid.UUID, reason string) (*PayableResponse, error) {
	entry, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := entry.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.saveWithLock(ctx, entry); err != nil {
		return nil, err
	}

	s.log(ctx).Info("payable cancelled",
		zap.String("entry_id", entry.ID.String()),
		zap.String("reason", reason),
	)
	s.publishEvents(ctx, entry)
	return toPayableResponse(entry, s.Today()), nil
}

// DeletePayable deletes an entry. Group members are removed through
// DeleteRecurrences so the remaining installments are renumbered.
func (s *PayableService) DeletePayable(ctx context.Context, tenantID, id uuid.UUID) error {
	entry, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if entry.Recurrence != nil {
		_, err := s.DeleteRecurrences(ctx, tenantID, entry.Recurrence.RecurrenceID, []uuid.UUID{id})
		return err
	}

	if err := s.groups.CheckDeletePreconditions([]finance.PayableEntry{*entry}, []uuid.UUID{id}, s.Today()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.log(ctx).Info("payable deleted", zap.String("entry_id", id.String()))
	return nil
}

// AddLaunch resolves a launch against the entry's current balance and appends it
func (s *PayableService) AddLaunch(ctx context.Context, tenantID, entryID uuid.UUID, req AddLaunchRequest) (*PayableResponse, error) {
	entry, err := s.repo.FindByIDForTenant(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	mode := finance.LaunchMode(strings.ToUpper(req.Mode))
	if mode == "" {
		mode = finance.LaunchModeFixed
	}
	date := req.Date
	if date.IsZero() {
		date = s.Today()
	}
	launch, err := entry.AddLaunch(s.ledger, finance.LaunchRequest{
		TypeID:      req.TypeID,
		Mode:        mode,
		Value:       req.Value,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}
	if err := s.saveWithLock(ctx, entry); err != nil {
		return nil, err
	}

	s.log(ctx).Info("launch added",
		zap.String("entry_id", entry.ID.String()),
		zap.String("launch_id", launch.ID.String()),
		zap.String("type_id", launch.TypeID),
		zap.String("amount", launch.Amount.StringFixed(2)),
	)
	s.payableMetrics.RecordLaunch(ctx, tenantID, launch.TypeID, launch.IsSettlement)
	s.publishEvents(ctx, entry)
	return toPayableResponse(entry, s.Today()), nil
}

// RemoveLaunch drops a launch and refolds the ledger
func (s *PayableService) RemoveLaunch(ctx context.Context, tenantID, entryID, launchID uuid.UUID) (*PayableResponse, error) {
	entry, err := s.repo.FindByIDForTenant(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if err := entry.RemoveLaunch(launchID); err != nil {
		return nil, err
	}
	if err := s.saveWithLock(ctx, entry); err != nil {
		return nil, err
	}

	s.log(ctx).Info("launch removed",
		zap.String("entry_id", entry.ID.String()),
		zap.String("launch_id", launchID.String()),
	)
	s.publishEvents(ctx, entry)
	return toPayableResponse(entry, s.Today()), nil
}

// ListLaunchTypes returns the launch type catalogue
func (s *PayableService) ListLaunchTypes() []LaunchTypeResponse {
	types := s.ledger.Registry().All()
	out := make([]LaunchTypeResponse, len(types))
	for i, t := range types {
		out[i] = LaunchTypeResponse{
			ID:           t.ID,
			Label:        t.Label,
			Operation:    string(t.Operation),
			IsSettlement: t.IsSettlement,
		}
	}
	return out
}

// saveWithLock bumps the version and saves, failing on a concurrent write
func (s *PayableService) saveWithLock(ctx context.Context, entry *finance.PayableEntry) error {
	entry.IncrementVersion()
	if err := s.repo.SaveWithLock(ctx, entry); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.log(ctx).Warn("concurrent payable modification",
				zap.String("entry_id", entry.ID.String()),
				zap.Int("version", entry.Version),
			)
		}
		return err
	}
	return nil
}

// publishEvents publishes and clears the aggregate's queued events.
// Publishing failures are logged and never fail the operation.
func (s *PayableService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		agg.ClearDomainEvents()
		if s.eventPublisher == nil || len(events) == 0 {
			continue
		}
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.log(ctx).Warn("failed to publish payable events",
				zap.String("aggregate_id", agg.GetID().String()),
				zap.Int("events", len(events)),
				zap.Error(err),
			)
		}
	}
}

func (s *PayableService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.log(ctx).Warn("failed to publish recurrence events", zap.Error(err))
	}
}

func (s *PayableService) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, s.logger)
}
