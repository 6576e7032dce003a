package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatus(t *testing.T) {
	today := date(2024, 6, 15)
	open := Fold(d(100), nil)
	settled := Fold(d(100), []Launch{{Amount: d(100), Operation: OperationDebit, IsSettlement: true}})
	zeroNet := Fold(d(100), []Launch{{Amount: d(100), Operation: OperationDebit}})

	tests := []struct {
		name      string
		balance   LedgerBalance
		due       time.Time
		cancelled bool
		want      PayableStatus
	}{
		{"cancelled wins over paid", settled, today, true, PayableStatusCancelled},
		{"cancelled wins over overdue", open, date(2024, 1, 1), true, PayableStatusCancelled},
		{"paid", settled, date(2024, 1, 1), false, PayableStatusPaid},
		{"overdue", open, date(2024, 6, 14), false, PayableStatusOverdue},
		{"due today is pending", open, today, false, PayableStatusPending},
		{"future is pending", open, date(2024, 7, 1), false, PayableStatusPending},
		{"zero net is not paid", zeroNet, date(2024, 7, 1), false, PayableStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStatus(tt.balance, tt.due, tt.cancelled, today))
		})
	}
}

func TestResolveStatus_IgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	lateToday := time.Date(2024, 6, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, PayableStatusPending, ResolveStatus(Fold(d(10), nil), due, false, lateToday))
}

func TestPayableStatus_IsValid(t *testing.T) {
	assert.True(t, PayableStatusOverdue.IsValid())
	assert.False(t, PayableStatus("PARTIAL").IsValid())
}
