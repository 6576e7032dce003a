package finance

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *LaunchTypeRegistry {
	t.Helper()
	r, err := NewLaunchTypeRegistry(DefaultLaunchTypes())
	require.NoError(t, err)
	return r
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestFold(t *testing.T) {
	interest := Launch{ID: uuid.New(), Amount: d(50), Operation: OperationCredit}
	payment := Launch{ID: uuid.New(), Amount: d(1050), Operation: OperationDebit, IsSettlement: true}

	b := Fold(d(1000), []Launch{interest})
	assert.True(t, b.Net.Equal(d(1050)))
	assert.True(t, b.Paid.IsZero())
	assert.True(t, b.Remaining.Equal(d(1050)))

	b = Fold(d(1000), []Launch{interest, payment})
	assert.True(t, b.Paid.Equal(d(1050)))
	assert.True(t, b.Remaining.IsZero())
	assert.Equal(t, PayableStatusPaid, ResolveStatus(b, date(2030, 1, 1), false, date(2024, 1, 1)))
}

func TestFold_SignConvention(t *testing.T) {
	tests := []struct {
		name     string
		launch   Launch
		wantNet  int64
		wantPaid int64
	}{
		{"adjustment debit lowers net", Launch{Amount: d(100), Operation: OperationDebit}, 900, 0},
		{"adjustment credit raises net", Launch{Amount: d(100), Operation: OperationCredit}, 1100, 0},
		{"settlement debit raises paid", Launch{Amount: d(100), Operation: OperationDebit, IsSettlement: true}, 1000, 100},
		{"settlement credit lowers paid", Launch{Amount: d(100), Operation: OperationCredit, IsSettlement: true}, 1000, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Fold(d(1000), []Launch{tt.launch})
			assert.True(t, b.Net.Equal(d(tt.wantNet)), "net %s", b.Net)
			assert.True(t, b.Paid.Equal(d(tt.wantPaid)), "paid %s", b.Paid)
		})
	}
}

func TestFold_RemainingNeverNegative(t *testing.T) {
	b := Fold(d(100), []Launch{{Amount: d(150), Operation: OperationDebit, IsSettlement: true}})
	assert.True(t, b.Remaining.IsZero())
	assert.True(t, b.Paid.Equal(d(150)))
}

func TestFold_Idempotent(t *testing.T) {
	launches := []Launch{
		{Amount: decimal.RequireFromString("12.34"), Operation: OperationCredit},
		{Amount: decimal.RequireFromString("0.10"), Operation: OperationDebit},
		{Amount: decimal.RequireFromString("500.01"), Operation: OperationDebit, IsSettlement: true},
	}
	first := Fold(decimal.RequireFromString("999.99"), launches)
	second := Fold(decimal.RequireFromString("999.99"), launches)
	assert.True(t, first.Net.Equal(second.Net))
	assert.True(t, first.Paid.Equal(second.Paid))
	assert.True(t, first.Net.Equal(decimal.RequireFromString("1012.23")))
}

func TestLedgerEngine_Resolve(t *testing.T) {
	engine := NewLedgerEngine(testRegistry(t))
	before := Fold(d(1000), nil)

	t.Run("percentage settlement of remaining", func(t *testing.T) {
		l, err := engine.Resolve(before, LaunchRequest{TypeID: "PAYMENT", Mode: LaunchModePercentage, Value: d(10), Date: date(2024, 1, 5)})
		require.NoError(t, err)
		assert.True(t, l.Amount.Equal(d(100)))
		assert.True(t, l.IsSettlement)
		assert.True(t, Fold(d(1000), []Launch{l}).Remaining.Equal(d(900)))
	})

	t.Run("percentage credit adjustment raises remaining", func(t *testing.T) {
		l, err := engine.Resolve(before, LaunchRequest{TypeID: "INTEREST", Mode: LaunchModePercentage, Value: d(10), Date: date(2024, 1, 5)})
		require.NoError(t, err)
		assert.True(t, l.Amount.Equal(d(100)))
		assert.True(t, Fold(d(1000), []Launch{l}).Remaining.Equal(d(1100)))
	})

	t.Run("percentage uses remaining not gross", func(t *testing.T) {
		paid := Launch{Amount: d(600), Operation: OperationDebit, IsSettlement: true}
		l, err := engine.Resolve(Fold(d(1000), []Launch{paid}), LaunchRequest{TypeID: "FINE", Mode: LaunchModePercentage, Value: d(2), Date: date(2024, 1, 5)})
		require.NoError(t, err)
		assert.True(t, l.Amount.Equal(d(8)))
	})

	t.Run("fixed amount", func(t *testing.T) {
		l, err := engine.Resolve(before, LaunchRequest{TypeID: "DISCOUNT", Mode: LaunchModeFixed, Value: decimal.RequireFromString("25.50"), Date: date(2024, 1, 5), Description: "early"})
		require.NoError(t, err)
		assert.Equal(t, OperationDebit, l.Operation)
		assert.False(t, l.IsSettlement)
		assert.Equal(t, "early", l.Description)
		assert.NotEqual(t, uuid.Nil, l.ID)
	})

	t.Run("rejections", func(t *testing.T) {
		cases := []LaunchRequest{
			{TypeID: "UNKNOWN", Value: d(10), Date: date(2024, 1, 5)},
			{TypeID: "PAYMENT", Value: d(0), Date: date(2024, 1, 5)},
			{TypeID: "PAYMENT", Value: d(-5), Date: date(2024, 1, 5)},
			{TypeID: "PAYMENT", Value: d(10)},
			{TypeID: "PAYMENT", Mode: LaunchModePercentage, Value: d(101), Date: date(2024, 1, 5)},
			{TypeID: "PAYMENT", Mode: "RATIO", Value: d(1), Date: date(2024, 1, 5)},
		}
		for _, req := range cases {
			_, err := engine.Resolve(before, req)
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve), "request %+v", req)
		}
	})

	t.Run("fixed amount finer than cents is rejected", func(t *testing.T) {
		_, err := engine.Resolve(before, LaunchRequest{TypeID: "PAYMENT", Mode: LaunchModeFixed, Value: decimal.RequireFromString("9.999"), Date: date(2024, 1, 5)})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "value", ve.Field)

		l, err := engine.Resolve(before, LaunchRequest{TypeID: "PAYMENT", Mode: LaunchModeFixed, Value: decimal.RequireFromString("10.000"), Date: date(2024, 1, 5)})
		require.NoError(t, err)
		assert.True(t, l.Amount.Equal(d(10)))
	})

	t.Run("percentage of settled entry is rejected", func(t *testing.T) {
		settled := Fold(d(100), []Launch{{Amount: d(100), Operation: OperationDebit, IsSettlement: true}})
		_, err := engine.Resolve(settled, LaunchRequest{TypeID: "FINE", Mode: LaunchModePercentage, Value: d(10), Date: date(2024, 1, 5)})
		assert.Error(t, err)
	})
}

func TestNewLaunchTypeRegistry(t *testing.T) {
	_, err := NewLaunchTypeRegistry([]LaunchType{{ID: "A", Operation: OperationDebit}, {ID: "A", Operation: OperationCredit}})
	assert.Error(t, err)

	_, err = NewLaunchTypeRegistry([]LaunchType{{ID: "A", Operation: "SIDEWAYS"}})
	assert.Error(t, err)

	_, err = NewLaunchTypeRegistry([]LaunchType{{Operation: OperationDebit}})
	assert.Error(t, err)

	r := testRegistry(t)
	all := r.All()
	require.Len(t, all, len(DefaultLaunchTypes()))
	assert.Equal(t, "ABATEMENT", all[0].ID)
	_, ok := r.Lookup("PAYMENT")
	assert.True(t, ok)
}
