package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields() PayableEntryFields {
	category := uuid.New()
	return PayableEntryFields{
		EntryNumber: "DES-1",
		CustomerID:  uuid.New(),
		CategoryID:  &category,
		Description: "Office rent",
		GrossAmount: d(100),
		DueDate:     date(2024, 1, 10),
		IssueDate:   date(2024, 1, 1),
	}
}

func TestSimulate(t *testing.T) {
	tpl := testFields()
	dates := []time.Time{date(2024, 3, 10), date(2024, 2, 12), date(2024, 4, 10)}

	items := Simulate(tpl, dates)

	require.Len(t, items, 3)
	assert.Equal(t, "002/004", items[0].InstallmentLabel)
	assert.Equal(t, date(2024, 2, 12), items[0].DueDate)
	assert.Equal(t, "003/004", items[1].InstallmentLabel)
	assert.Equal(t, "004/004", items[2].InstallmentLabel)
	for _, it := range items {
		assert.Equal(t, 4, it.Total)
		assert.Equal(t, it.DueDate, it.ForecastDate)
		assert.True(t, it.Amount.Equal(d(100)))
		assert.True(t, it.Overrides.IsEmpty())
	}
	// caller slice untouched
	assert.Equal(t, date(2024, 3, 10), dates[0])
}

func TestSimulate_Empty(t *testing.T) {
	assert.Empty(t, Simulate(testFields(), nil))
}

func TestSimulationItem_Resolve(t *testing.T) {
	tpl := testFields()
	item := Simulate(tpl, []time.Time{date(2024, 2, 10)})[0]

	t.Run("defaults from template", func(t *testing.T) {
		f, err := item.Resolve(tpl)
		require.NoError(t, err)
		assert.Equal(t, date(2024, 2, 10), f.DueDate)
		assert.Equal(t, tpl.CustomerID, f.CustomerID)
		assert.Equal(t, tpl.CategoryID, f.CategoryID)
		assert.Equal(t, "Office rent", f.Description)
	})

	t.Run("overrides win field by field", func(t *testing.T) {
		amount := decimal.RequireFromString("120.50")
		customer := uuid.New()
		bank := uuid.New()
		number := "DES-99"
		due := date(2024, 2, 20)
		it := item
		it.Overrides = SimulationOverrides{
			CustomAmount:        &amount,
			CustomCustomerID:    &customer,
			CustomBankAccountID: &bank,
			CustomEntryNumber:   &number,
			CustomDueDate:       &due,
		}

		f, err := it.Resolve(tpl)
		require.NoError(t, err)
		assert.True(t, f.GrossAmount.Equal(amount))
		assert.Equal(t, customer, f.CustomerID)
		assert.Equal(t, bank, *f.BankAccountID)
		assert.Equal(t, "DES-99", f.EntryNumber)
		assert.Equal(t, due, f.DueDate)
		assert.Equal(t, tpl.CategoryID, f.CategoryID)
		assert.Equal(t, tpl.DocumentID, f.DocumentID)
	})

	t.Run("missing customer", func(t *testing.T) {
		noCustomer := tpl
		noCustomer.CustomerID = uuid.Nil
		_, err := item.Resolve(noCustomer)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "customer_id", ve.Field)
		assert.Contains(t, ve.Error(), "002/002")
	})

	t.Run("non-positive custom amount", func(t *testing.T) {
		zero := decimal.Zero
		it := item
		it.Overrides.CustomAmount = &zero
		_, err := it.Resolve(tpl)
		assert.Error(t, err)
	})

	t.Run("custom amount finer than cents", func(t *testing.T) {
		amount := decimal.RequireFromString("1.005")
		it := item
		it.Overrides.CustomAmount = &amount
		_, err := it.Resolve(tpl)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "custom_amount", ve.Field)
	})
}

func TestAttachOverrides(t *testing.T) {
	items := Simulate(testFields(), []time.Time{date(2024, 2, 10), date(2024, 3, 10)})
	amount := d(1)

	out, err := AttachOverrides(items, map[string]SimulationOverrides{"003/003": {CustomAmount: &amount}})
	require.NoError(t, err)
	assert.True(t, out[0].Overrides.IsEmpty())
	assert.True(t, out[1].Overrides.CustomAmount.Equal(d(1)))
	assert.True(t, items[1].Overrides.IsEmpty())

	_, err = AttachOverrides(items, map[string]SimulationOverrides{"009/009": {}})
	assert.Error(t, err)
}
