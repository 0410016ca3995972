package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurrenceRule_ZeroValueIsNone(t *testing.T) {
	var r RecurrenceRule

	assert.Equal(t, RecurrenceNone, r.Kind())
	assert.False(t, r.IsRecurring())
	assert.Nil(t, r.Weekdays())
	assert.Equal(t, RecurrenceOnce(), r)
}

func TestRecurrenceOnWeekdays_DropsOutOfRange(t *testing.T) {
	r := RecurrenceOnWeekdays(7, 1, 0, 8, 3, 3)

	assert.Equal(t, RecurrenceWeekly, r.Kind())
	assert.Equal(t, []int{1, 3, 7}, r.Weekdays())
	assert.True(t, r.HasWeekday(1))
	assert.False(t, r.HasWeekday(2))
	assert.False(t, r.HasWeekday(0))
}

func TestRecurrenceRule_Comparable(t *testing.T) {
	assert.True(t, RecurrenceOnWeekdays(2, 4) == RecurrenceOnWeekdays(4, 2))
	assert.False(t, RecurrenceOnWeekdays(2) == RecurrenceOnWeekdays(3))
	assert.False(t, RecurrenceEveryDay() == RecurrenceWorkdays())
}

func TestRecurrenceRule_String(t *testing.T) {
	assert.Equal(t, "None", RecurrenceOnce().String())
	assert.Equal(t, "Daily", RecurrenceEveryDay().String())
	assert.Equal(t, "Weekdays", RecurrenceWorkdays().String())
	assert.Equal(t, "Weekly (2 days)", RecurrenceOnWeekdays(1, 7).String())
	assert.Equal(t, "Every day", RecurrenceOnWeekdays(1, 2, 3, 4, 5, 6, 7).String())
}

func TestParseRecurrence(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		weekdays []int
		want     RecurrenceRule
	}{
		{"none", "none", nil, RecurrenceOnce()},
		{"daily", "daily", nil, RecurrenceEveryDay()},
		{"weekdays ignores set", "weekdays", []int{1}, RecurrenceWorkdays()},
		{"weekly", "weekly", []int{2, 6}, RecurrenceOnWeekdays(2, 6)},
		{"weekly without set", "weekly", nil, RecurrenceOnWeekdays()},
		{"unknown kind defaults to none", "fortnightly", []int{1}, RecurrenceOnce()},
		{"empty kind", "", nil, RecurrenceOnce()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRecurrence(tt.kind, tt.weekdays))
		})
	}
}

func TestNewRecurrenceRule_Strict(t *testing.T) {
	r, err := NewRecurrenceRule("Weekly", []int{1, 7})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 7}, r.Weekdays())

	_, err = NewRecurrenceRule("weekly", nil)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	_, err = NewRecurrenceRule("weekly", []int{0})
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	_, err = NewRecurrenceRule("monthly", nil)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)
}

func TestWeekdayNumber(t *testing.T) {
	// 2025-03-09 is a Sunday
	sunday := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		assert.Equal(t, i+1, WeekdayNumber(sunday.AddDate(0, 0, i)))
	}
}
