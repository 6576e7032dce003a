package finance

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// RecurrencePeriod is the spacing between installments of a group
type RecurrencePeriod string

const (
	PeriodWeekly     RecurrencePeriod = "WEEKLY"
	PeriodMonthly    RecurrencePeriod = "MONTHLY"
	PeriodSemiannual RecurrencePeriod = "SEMIANNUAL"
	PeriodAnnual     RecurrencePeriod = "ANNUAL"
)

// IsValid checks if the period is supported
func (p RecurrencePeriod) IsValid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodSemiannual, PeriodAnnual:
		return true
	}
	return false
}

// WeekendRule decides what happens to a projected date that falls on Saturday or Sunday
type WeekendRule string

const (
	WeekendKeep       WeekendRule = "KEEP"       // leave weekend dates untouched
	WeekendAnticipate WeekendRule = "ANTICIPATE" // move back to the previous weekday
	WeekendPostpone   WeekendRule = "POSTPONE"   // move forward to the next weekday
)

// IsValid checks if the weekend rule is supported
func (r WeekendRule) IsValid() bool {
	switch r {
	case WeekendKeep, WeekendAnticipate, WeekendPostpone:
		return true
	}
	return false
}

// RecurrenceRule is the input of a projection
type RecurrenceRule struct {
	Period      RecurrencePeriod
	Count       int
	WeekendRule WeekendRule
	// RepeatDay pins the day of month for MONTHLY and SEMIANNUAL periods.
	// Zero means "use the anchor's day".
	RepeatDay int
}

// Validate checks the rule without projecting
func (r RecurrenceRule) Validate() error {
	if !r.Period.IsValid() {
		return NewValidationError("period", fmt.Sprintf("unsupported recurrence period %q", r.Period))
	}
	if r.WeekendRule != "" && !r.WeekendRule.IsValid() {
		return NewValidationError("weekend_rule", fmt.Sprintf("unsupported weekend rule %q", r.WeekendRule))
	}
	if r.RepeatDay < 0 || r.RepeatDay > 31 {
		return NewValidationError("repeat_day", "repeat day must be between 1 and 31")
	}
	return nil
}

// ProjectDates returns the due dates of the installments that follow anchor.
// The anchor itself is not included. A non-positive count yields an empty slice.
func ProjectDates(anchor time.Time, rule RecurrenceRule) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if rule.Count <= 0 {
		return []time.Time{}, nil
	}

	anchor = DateOnly(anchor)
	day := rule.RepeatDay
	if day == 0 {
		day = anchor.Day()
	}

	dates := make([]time.Time, 0, rule.Count)
	for i := 1; i <= rule.Count; i++ {
		var next time.Time
		switch rule.Period {
		case PeriodWeekly:
			next = anchor.AddDate(0, 0, 7*i)
		case PeriodMonthly:
			next = addMonthsClamped(anchor, i, day)
		case PeriodSemiannual:
			next = addMonthsClamped(anchor, 6*i, day)
		case PeriodAnnual:
			next = addMonthsClamped(anchor, 12*i, anchor.Day())
		}
		dates = append(dates, ApplyWeekendRule(next, rule.WeekendRule))
	}
	return dates, nil
}

// ApplyWeekendRule shifts d off Saturday/Sunday according to rule
func ApplyWeekendRule(d time.Time, rule WeekendRule) time.Time {
	step := 0
	switch rule {
	case WeekendAnticipate:
		step = -1
	case WeekendPostpone:
		step = 1
	default:
		return d
	}
	for isWeekend(d) {
		d = d.AddDate(0, 0, step)
	}
	return d
}

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// addMonthsClamped moves to the first of the target month, then sets day,
// clamped to that month's length. time.AddDate would overflow into the next month instead.
func addMonthsClamped(anchor time.Time, months, day int) time.Time {
	first := now.With(anchor).BeginningOfMonth().AddDate(0, months, 0)
	if last := now.With(first).EndOfMonth().Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
