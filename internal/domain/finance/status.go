package finance

import (
	"time"
)

// PayableStatus is the derived state of a payable entry
type PayableStatus string

const (
	PayableStatusPending   PayableStatus = "PENDING"
	PayableStatusOverdue   PayableStatus = "OVERDUE"
	PayableStatusPaid      PayableStatus = "PAID"
	PayableStatusCancelled PayableStatus = "CANCELLED"
)

// IsValid checks if the status is known
func (s PayableStatus) IsValid() bool {
	switch s {
	case PayableStatusPending, PayableStatusOverdue, PayableStatusPaid, PayableStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PayableStatus
func (s PayableStatus) String() string {
	return string(s)
}

// ResolveStatus labels an entry at read time. OVERDUE depends on today and is never stored.
func ResolveStatus(balance LedgerBalance, dueDate time.Time, cancelled bool, today time.Time) PayableStatus {
	switch {
	case cancelled:
		return PayableStatusCancelled
	case !balance.Remaining.IsPositive() && balance.Net.IsPositive():
		return PayableStatusPaid
	case DateOnly(dueDate).Before(DateOnly(today)):
		return PayableStatusOverdue
	default:
		return PayableStatusPending
	}
}
