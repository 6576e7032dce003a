package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProjectDates(t *testing.T) {
	tests := []struct {
		name   string
		anchor time.Time
		rule   RecurrenceRule
		want   []time.Time
	}{
		{
			name:   "monthly end of month clamps in leap year",
			anchor: date(2024, 1, 31),
			rule:   RecurrenceRule{Period: PeriodMonthly, Count: 2, WeekendRule: WeekendKeep, RepeatDay: 31},
			want:   []time.Time{date(2024, 2, 29), date(2024, 3, 31)},
		},
		{
			name:   "monthly defaults to anchor day",
			anchor: date(2024, 1, 15),
			rule:   RecurrenceRule{Period: PeriodMonthly, Count: 3, WeekendRule: WeekendKeep},
			want:   []time.Time{date(2024, 2, 15), date(2024, 3, 15), date(2024, 4, 15)},
		},
		{
			name:   "monthly repeat day differs from anchor",
			anchor: date(2024, 1, 5),
			rule:   RecurrenceRule{Period: PeriodMonthly, Count: 2, WeekendRule: WeekendKeep, RepeatDay: 30},
			want:   []time.Time{date(2024, 2, 29), date(2024, 3, 30)},
		},
		{
			name:   "weekly",
			anchor: date(2024, 1, 1),
			rule:   RecurrenceRule{Period: PeriodWeekly, Count: 3, WeekendRule: WeekendKeep},
			want:   []time.Time{date(2024, 1, 8), date(2024, 1, 15), date(2024, 1, 22)},
		},
		{
			name:   "semiannual clamps february",
			anchor: date(2024, 8, 31),
			rule:   RecurrenceRule{Period: PeriodSemiannual, Count: 2, WeekendRule: WeekendKeep},
			want:   []time.Time{date(2025, 2, 28), date(2025, 8, 31)},
		},
		{
			name:   "annual from leap day",
			anchor: date(2024, 2, 29),
			rule:   RecurrenceRule{Period: PeriodAnnual, Count: 2, WeekendRule: WeekendKeep},
			want:   []time.Time{date(2025, 2, 28), date(2026, 2, 28)},
		},
		{
			name:   "anticipate moves sunday to friday",
			anchor: date(2024, 2, 29),
			rule:   RecurrenceRule{Period: PeriodMonthly, Count: 1, WeekendRule: WeekendAnticipate, RepeatDay: 31},
			want:   []time.Time{date(2024, 3, 29)},
		},
		{
			name:   "postpone moves sunday to monday",
			anchor: date(2024, 2, 29),
			rule:   RecurrenceRule{Period: PeriodMonthly, Count: 1, WeekendRule: WeekendPostpone, RepeatDay: 31},
			want:   []time.Time{date(2024, 4, 1)},
		},
		{
			name:   "zero count",
			anchor: date(2024, 1, 1),
			rule:   RecurrenceRule{Period: PeriodMonthly, Count: 0, WeekendRule: WeekendKeep},
			want:   []time.Time{},
		},
		{
			name:   "negative count",
			anchor: date(2024, 1, 1),
			rule:   RecurrenceRule{Period: PeriodWeekly, Count: -2},
			want:   []time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProjectDates(tt.anchor, tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectDates_StrictlyOrdered(t *testing.T) {
	for _, period := range []RecurrencePeriod{PeriodWeekly, PeriodMonthly, PeriodSemiannual, PeriodAnnual} {
		t.Run(string(period), func(t *testing.T) {
			got, err := ProjectDates(date(2023, 12, 30), RecurrenceRule{Period: period, Count: 24, WeekendRule: WeekendAnticipate})
			require.NoError(t, err)
			require.Len(t, got, 24)
			for i := 1; i < len(got); i++ {
				assert.True(t, got[i].After(got[i-1]), "date %d not after previous", i)
			}
		})
	}
}

func TestProjectDates_InvalidRule(t *testing.T) {
	tests := []struct {
		name string
		rule RecurrenceRule
	}{
		{"unknown period", RecurrenceRule{Period: "DAILY", Count: 1}},
		{"unknown weekend rule", RecurrenceRule{Period: PeriodMonthly, Count: 1, WeekendRule: "SKIP"}},
		{"repeat day too large", RecurrenceRule{Period: PeriodMonthly, Count: 1, RepeatDay: 32}},
		{"negative repeat day", RecurrenceRule{Period: PeriodMonthly, Count: 1, RepeatDay: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProjectDates(date(2024, 1, 1), tt.rule)
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestApplyWeekendRule(t *testing.T) {
	start := date(2024, 1, 1)
	for i := 0; i < 366; i++ {
		d := start.AddDate(0, 0, i)

		anticipated := ApplyWeekendRule(d, WeekendAnticipate)
		assert.False(t, isWeekend(anticipated))
		assert.False(t, anticipated.After(d))

		postponed := ApplyWeekendRule(d, WeekendPostpone)
		assert.False(t, isWeekend(postponed))
		assert.False(t, postponed.Before(d))

		assert.Equal(t, d, ApplyWeekendRule(d, WeekendKeep))
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	got := DateOnly(time.Date(2024, 5, 10, 23, 30, 0, 0, loc))
	assert.Equal(t, date(2024, 5, 10), got)
}
