package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulationOverrides are optional per-item replacements for template fields.
// A nil field means "keep the template value".
type SimulationOverrides struct {
	CustomAmount        *decimal.Decimal `json:"custom_amount,omitempty"`
	CustomDueDate       *time.Time       `json:"custom_due_date,omitempty"`
	CustomCustomerID    *uuid.UUID       `json:"custom_customer_id,omitempty"`
	CustomCategoryID    *uuid.UUID       `json:"custom_category_id,omitempty"`
	CustomBankAccountID *uuid.UUID       `json:"custom_bank_account_id,omitempty"`
	CustomEntryNumber   *string          `json:"custom_entry_number,omitempty"`
	CustomDocumentID    *string          `json:"custom_document_id,omitempty"`
}

// IsEmpty reports whether no override is set
func (o SimulationOverrides) IsEmpty() bool {
	return o == SimulationOverrides{}
}

// SimulationItem is one previewed installment. It is never persisted as-is.
type SimulationItem struct {
	InstallmentLabel string              `json:"installment_label"`
	Current          int                 `json:"current"`
	Total            int                 `json:"total"`
	DueDate          time.Time           `json:"due_date"`
	ForecastDate     time.Time           `json:"forecast_date"`
	Amount           decimal.Decimal     `json:"amount"`
	Overrides        SimulationOverrides `json:"overrides"`
}

// Simulate previews the installments generated from template for the given
// projected dates. The template's own entry occupies slot 1, so the items are
// numbered 2..len(dates)+1 in ascending due-date order.
func Simulate(template PayableEntryFields, dates []time.Time) []SimulationItem {
	ordered := make([]time.Time, len(dates))
	copy(ordered, dates)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	total := len(ordered) + 1
	items := make([]SimulationItem, 0, len(ordered))
	for i, d := range ordered {
		d = DateOnly(d)
		items = append(items, SimulationItem{
			InstallmentLabel: FormatInstallmentLabel(i+2, total),
			Current:          i + 2,
			Total:            total,
			DueDate:          d,
			ForecastDate:     d,
			Amount:           template.GrossAmount,
		})
	}
	return items
}

// Resolve merges the item's overrides over template, field by field, and
// validates the result.
func (it SimulationItem) Resolve(template PayableEntryFields) (PayableEntryFields, error) {
	f := template
	f.DueDate = it.DueDate
	f.GrossAmount = it.Amount

	o := it.Overrides
	if o.CustomAmount != nil {
		if !o.CustomAmount.IsPositive() {
			return PayableEntryFields{}, NewValidationError("custom_amount", fmt.Sprintf("installment %s: amount must be positive", it.InstallmentLabel))
		}
		if err := checkMoneyScale("custom_amount", *o.CustomAmount); err != nil {
			return PayableEntryFields{}, err
		}
		f.GrossAmount = *o.CustomAmount
	}
	if o.CustomDueDate != nil {
		f.DueDate = DateOnly(*o.CustomDueDate)
	}
	if o.CustomCustomerID != nil {
		f.CustomerID = *o.CustomCustomerID
	}
	if o.CustomCategoryID != nil {
		id := *o.CustomCategoryID
		f.CategoryID = &id
	}
	if o.CustomBankAccountID != nil {
		id := *o.CustomBankAccountID
		f.BankAccountID = &id
	}
	if o.CustomEntryNumber != nil {
		f.EntryNumber = *o.CustomEntryNumber
	}
	if o.CustomDocumentID != nil {
		f.DocumentID = *o.CustomDocumentID
	}

	if err := f.validate(); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.Message = fmt.Sprintf("installment %s: %s", it.InstallmentLabel, ve.Message)
		}
		return PayableEntryFields{}, err
	}
	return f, nil
}

// AttachOverrides sets overrides on the items whose label matches a key of
// byLabel. An unknown label is a validation error and leaves items untouched.
func AttachOverrides(items []SimulationItem, byLabel map[string]SimulationOverrides) ([]SimulationItem, error) {
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.InstallmentLabel] = i
	}
	for label := range byLabel {
		if _, ok := index[label]; !ok {
			return nil, NewValidationError("overrides", fmt.Sprintf("no simulated installment with label %q", label))
		}
	}

	out := make([]SimulationItem, len(items))
	copy(out, items)
	for label, o := range byLabel {
		out[index[label]].Overrides = o
	}
	return out, nil
}
