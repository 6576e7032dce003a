package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LaunchOperation is the direction of a ledger adjustment
type LaunchOperation string

const (
	OperationDebit  LaunchOperation = "DEBIT"
	OperationCredit LaunchOperation = "CREDIT"
)

// IsValid checks if the operation is DEBIT or CREDIT
func (o LaunchOperation) IsValid() bool {
	return o == OperationDebit || o == OperationCredit
}

// LaunchType classifies launches: interest, fine, discount, payment and so on
type LaunchType struct {
	ID           string          `json:"id" mapstructure:"id"`
	Label        string          `json:"label" mapstructure:"label"`
	Operation    LaunchOperation `json:"operation" mapstructure:"operation"`
	IsSettlement bool            `json:"is_settlement" mapstructure:"is_settlement"`
}

// LaunchTypeRegistry is a read-only lookup of launch types
type LaunchTypeRegistry struct {
	types map[string]LaunchType
}

// NewLaunchTypeRegistry builds a registry, rejecting duplicates and invalid operations
func NewLaunchTypeRegistry(types []LaunchType) (*LaunchTypeRegistry, error) {
	r := &LaunchTypeRegistry{types: make(map[string]LaunchType, len(types))}
	for _, t := range types {
		if t.ID == "" {
			return nil, NewValidationError("launch_types", "launch type id cannot be empty")
		}
		if !t.Operation.IsValid() {
			return nil, NewValidationError("launch_types", fmt.Sprintf("launch type %q has invalid operation %q", t.ID, t.Operation))
		}
		if _, dup := r.types[t.ID]; dup {
			return nil, NewValidationError("launch_types", fmt.Sprintf("duplicate launch type %q", t.ID))
		}
		r.types[t.ID] = t
	}
	return r, nil
}

// Lookup returns the launch type registered under id
func (r *LaunchTypeRegistry) Lookup(id string) (LaunchType, bool) {
	t, ok := r.types[id]
	return t, ok
}

// All returns every registered type ordered by id
func (r *LaunchTypeRegistry) All() []LaunchType {
	out := make([]LaunchType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultLaunchTypes is the catalogue used when configuration supplies none
func DefaultLaunchTypes() []LaunchType {
	return []LaunchType{
		{ID: "INTEREST", Label: "Interest", Operation: OperationCredit},
		{ID: "FINE", Label: "Fine", Operation: OperationCredit},
		{ID: "DISCOUNT", Label: "Discount", Operation: OperationDebit},
		{ID: "ABATEMENT", Label: "Abatement", Operation: OperationDebit},
		{ID: "PAYMENT", Label: "Payment", Operation: OperationDebit, IsSettlement: true},
		{ID: "REVERSAL", Label: "Payment reversal", Operation: OperationCredit, IsSettlement: true},
	}
}

// Launch is one resolved ledger adjustment. Operation and IsSettlement are
// captured from the registry when the launch is created.
type Launch struct {
	ID           uuid.UUID       `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	TypeID       string          `json:"type_id"`
	Operation    LaunchOperation `json:"operation"`
	IsSettlement bool            `json:"is_settlement"`
	Description  string          `json:"description"`
}

// LaunchMode says how a launch request expresses its value
type LaunchMode string

const (
	LaunchModeFixed      LaunchMode = "FIXED"
	LaunchModePercentage LaunchMode = "PERCENTAGE"
)

// LaunchRequest is an unresolved launch as submitted by a caller
type LaunchRequest struct {
	TypeID      string
	Mode        LaunchMode
	Value       decimal.Decimal
	Date        time.Time
	Description string
}

// LedgerBalance is the result of folding launches over a gross amount
type LedgerBalance struct {
	Net       decimal.Decimal `json:"net"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Fold applies launches in order starting from net = gross, paid = 0.
// Settlement launches move paid; the rest move net.
func Fold(gross decimal.Decimal, launches []Launch) LedgerBalance {
	net := gross
	paid := decimal.Zero
	for _, l := range launches {
		switch {
		case l.IsSettlement && l.Operation == OperationDebit:
			paid = paid.Add(l.Amount)
		case l.IsSettlement && l.Operation == OperationCredit:
			paid = paid.Sub(l.Amount)
		case l.Operation == OperationDebit:
			net = net.Sub(l.Amount)
		case l.Operation == OperationCredit:
			net = net.Add(l.Amount)
		}
	}
	return LedgerBalance{Net: net, Paid: paid, Remaining: remainingOf(net, paid)}
}

// MoneyScale is the number of decimal places every stored amount carries
const MoneyScale = 2

// checkMoneyScale rejects an amount that storage would have to round
func checkMoneyScale(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return NewValidationError(field, fmt.Sprintf("amount %s has more than %d decimal places", amount, MoneyScale))
	}
	return nil
}

func remainingOf(net, paid decimal.Decimal) decimal.Decimal {
	r := net.Sub(paid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// LedgerEngine resolves launch requests against an injected type registry
type LedgerEngine struct {
	registry *LaunchTypeRegistry
}

// NewLedgerEngine creates a ledger engine bound to registry
func NewLedgerEngine(registry *LaunchTypeRegistry) *LedgerEngine {
	return &LedgerEngine{registry: registry}
}

// Registry returns the engine's launch type registry
func (e *LedgerEngine) Registry() *LaunchTypeRegistry {
	return e.registry
}

// Resolve turns req into an absolute launch. Percentages are taken of the
// remaining balance in before, i.e. the fold state just before this launch.
func (e *LedgerEngine) Resolve(before LedgerBalance, req LaunchRequest) (Launch, error) {
	lt, ok := e.registry.Lookup(req.TypeID)
	if !ok {
		return Launch{}, NewValidationError("type_id", fmt.Sprintf("unknown launch type %q", req.TypeID))
	}
	if req.Date.IsZero() {
		return Launch{}, NewValidationError("date", "launch date is required")
	}

	var amount decimal.Decimal
	switch req.Mode {
	case LaunchModeFixed, "":
		if err := checkMoneyScale("value", req.Value); err != nil {
			return Launch{}, err
		}
		amount = req.Value
	case LaunchModePercentage:
		if req.Value.IsNegative() || req.Value.GreaterThan(decimal.NewFromInt(100)) {
			return Launch{}, NewValidationError("value", "percentage must be between 0 and 100")
		}
		amount = req.Value.Mul(before.Remaining).Div(decimal.NewFromInt(100)).Round(2)
	default:
		return Launch{}, NewValidationError("mode", fmt.Sprintf("unsupported launch mode %q", req.Mode))
	}
	if !amount.IsPositive() {
		return Launch{}, NewValidationError("value", "launch amount must be positive")
	}

	return Launch{
		ID:           uuid.New(),
		Amount:       amount,
		Date:         DateOnly(req.Date),
		TypeID:       lt.ID,
		Operation:    lt.Operation,
		IsSettlement: lt.IsSettlement,
		Description:  req.Description,
	}, nil
}
