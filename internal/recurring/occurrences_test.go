package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stackit/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccurrences_NoneOnlyAnchor(t *testing.T) {
	item := domain.NewScheduleItem("once", day(2025, 3, 10))

	got, err := Occurrences(item, day(2025, 3, 1), day(2025, 3, 31), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2025, 3, 10)}, got)

	got, err = Occurrences(item, day(2025, 3, 11), day(2025, 3, 31), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOccurrences_DailyRespectsAnchorFloor(t *testing.T) {
	item := domain.NewScheduleItem("daily", day(2025, 3, 10), domain.WithRecurrence(domain.RecurrenceEveryDay()))

	got, err := Occurrences(item, day(2025, 3, 8), day(2025, 3, 12), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2025, 3, 10), day(2025, 3, 11), day(2025, 3, 12)}, got)
}

func TestOccurrences_AnchorAfterRange(t *testing.T) {
	item := domain.NewScheduleItem("later", day(2025, 4, 1), domain.WithRecurrence(domain.RecurrenceEveryDay()))

	got, err := Occurrences(item, day(2025, 3, 1), day(2025, 3, 31), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOccurrences_WeeklyIncludesOffPatternAnchor(t *testing.T) {
	// Anchored on a Monday, repeating on Sundays only.
	item := domain.NewScheduleItem("sundays", day(2025, 3, 10), domain.WithRecurrence(domain.RecurrenceOnWeekdays(1)))

	got, err := Occurrences(item, day(2025, 3, 1), day(2025, 3, 31), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		day(2025, 3, 10),
		day(2025, 3, 16),
		day(2025, 3, 23),
		day(2025, 3, 30),
	}, got)
}

func TestOccurrences_AgreesWithAppliesTo(t *testing.T) {
	rules := []domain.RecurrenceRule{
		domain.RecurrenceEveryDay(),
		domain.RecurrenceWorkdays(),
		domain.RecurrenceOnWeekdays(1),
		domain.RecurrenceOnWeekdays(3, 5, 7),
	}
	anchor := day(2025, 2, 26)
	from, to := day(2025, 2, 20), day(2025, 4, 10)

	for _, rule := range rules {
		t.Run(rule.String(), func(t *testing.T) {
			item := domain.NewScheduleItem("r", anchor, domain.WithRecurrence(rule))

			got, err := Occurrences(item, from, to, time.UTC)
			require.NoError(t, err)

			var want []time.Time
			for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
				if d.Equal(anchor) || (!d.Before(anchor) && AppliesTo(rule, d)) {
					want = append(want, d)
				}
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestOccurrences_NonUTCLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	anchor := time.Date(2025, 3, 10, 0, 0, 0, 0, loc) // Monday
	item := domain.NewScheduleItem("work", anchor, domain.WithRecurrence(domain.RecurrenceWorkdays()))

	got, err := Occurrences(item, anchor, anchor.AddDate(0, 0, 6), loc)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, d := range got {
		assert.Equal(t, loc, d.Location())
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
}

func TestOccurrences_InvalidRange(t *testing.T) {
	item := domain.NewScheduleItem("x", day(2025, 3, 10))

	_, err := Occurrences(item, day(2025, 3, 12), day(2025, 3, 11), time.UTC)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
