package main

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stackit/internal/domain"
)

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestParseDay(t *testing.T) {
	now := monday.Add(22 * time.Hour)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", monday, false},
		{"today", monday, false},
		{" Tomorrow ", monday.AddDate(0, 0, 1), false},
		{"yesterday", monday.AddDate(0, 0, -1), false},
		{"2025-12-24", time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), false},
		{"24.12.2025", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDay(tt.in, now, time.UTC)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRepeat(t *testing.T) {
	tests := []struct {
		in   string
		want domain.RecurrenceRule
	}{
		{"", domain.RecurrenceOnce()},
		{"none", domain.RecurrenceOnce()},
		{"Daily", domain.RecurrenceEveryDay()},
		{"weekdays", domain.RecurrenceWorkdays()},
		{"weekly:mon,wed", domain.RecurrenceOnWeekdays(2, 4)},
		{"weekly:Sunday, 7", domain.RecurrenceOnWeekdays(1, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRepeat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"hourly", "daily:mon", "weekly:", "weekly:funday", "weekly:8"} {
		_, err := parseRepeat(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidRecurrence, bad)
	}
}

func TestParseClock(t *testing.T) {
	got, err := parseClock("09:30", monday)
	require.NoError(t, err)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), got)

	_, err = parseClock("9.30", monday)
	assert.Error(t, err)
}

func TestItemFlagsBuild(t *testing.T) {
	now := monday.Add(8 * time.Hour)

	t.Run("timed block from start and duration", func(t *testing.T) {
		f := itemFlags{date: "2025-03-10", priority: "high", itemType: "event", repeat: "weekdays", start: "10:00", duration: 45 * time.Minute}
		item, err := f.build("review", now, time.UTC)
		require.NoError(t, err)

		assert.Equal(t, "review", item.Title)
		assert.Equal(t, monday, item.ScheduleDate)
		assert.Equal(t, domain.PriorityHigh, item.Priority)
		assert.Equal(t, domain.ItemTypeEvent, item.ItemType)
		assert.Equal(t, domain.RecurrenceWorkdays(), item.RecurrenceRule)
		require.NotNil(t, item.ScheduledStart)
		require.NotNil(t, item.ScheduledEnd)
		assert.Equal(t, monday.Add(10*time.Hour), *item.ScheduledStart)
		assert.Equal(t, monday.Add(10*time.Hour+45*time.Minute), *item.ScheduledEnd)
		assert.Nil(t, item.EstimatedDurationMinutes)
	})

	t.Run("duration without start is an estimate", func(t *testing.T) {
		f := itemFlags{duration: 90 * time.Minute}
		item, err := f.build("deep work", now, time.UTC)
		require.NoError(t, err)

		assert.Nil(t, item.ScheduledStart)
		require.NotNil(t, item.EstimatedDurationMinutes)
		assert.Equal(t, 90, *item.EstimatedDurationMinutes)
		assert.Equal(t, domain.PriorityMedium, item.Priority)
		assert.Equal(t, domain.ItemTypeTask, item.ItemType)
	})

	t.Run("invalid input", func(t *testing.T) {
		for name, f := range map[string]itemFlags{
			"priority":       {priority: "urgent"},
			"type":           {itemType: "meeting"},
			"repeat":         {repeat: "yearly"},
			"start":          {start: "25:00"},
			"event no start": {itemType: "event"},
			"negative":       {duration: -time.Minute},
			"date":           {date: "soon"},
		} {
			_, err := f.build("x", now, time.UTC)
			assert.Error(t, err, name)
		}
	})
}

// runCLI executes one stackit command against the sqlite database at dbPath.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STACKIT_STORAGE_DRIVER", "sqlite")
	t.Setenv("STACKIT_SQLITE_PATH", dbPath)
	t.Setenv("STACKIT_TIMEZONE", "UTC")
	t.Setenv("STACKIT_OTEL_ENABLED", "false")
	t.Setenv("STACKIT_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

var addedID = regexp.MustCompile(`Added ([0-9a-f-]{36})`)

func TestCLI_EndToEnd(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stackit.db")

	out, err := runCLI(t, db, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated sqlite storage")

	out, err = runCLI(t, db, "add", "Write", "report", "--date", "2025-03-10", "--priority", "high")
	require.NoError(t, err)
	m := addedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	reportID := m[1]

	_, err = runCLI(t, db, "add", "Standup", "--date", "2025-03-10", "--type", "event",
		"--start", "09:00", "--duration", "15m", "--repeat", "weekdays", "--priority", "low")
	require.NoError(t, err)

	out, err = runCLI(t, db, "day", "2025-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Mon 2025-03-10 | Priority | 0/2 done")
	assert.Contains(t, out, "Now: Write report")
	assert.Contains(t, out, "09:00-09:15")

	// The workday event repeats on Tuesday, the one-off task does not.
	out, err = runCLI(t, db, "day", "2025-03-11")
	require.NoError(t, err)
	assert.Contains(t, out, "Standup")
	assert.NotContains(t, out, "Write report")

	out, err = runCLI(t, db, "complete", reportID, "--date", "2025-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "1/2 done")

	out, err = runCLI(t, db, "day", "2025-03-10", "--mode", "reverse_priority")
	require.NoError(t, err)
	assert.Contains(t, out, "Low First")
	assert.Contains(t, out, "[x]")
	assert.NotContains(t, out, "Now:", "only an event is left open")

	out, err = runCLI(t, db, "suggest", "--date", "2025-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing left to do.")

	out, err = runCLI(t, db, "export", "2025-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Write report")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY")

	_, err = runCLI(t, db, "reopen", reportID, "--date", "2025-03-10")
	require.NoError(t, err)
	out, err = runCLI(t, db, "suggest", "--date", "2025-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Write report")

	out, err = runCLI(t, db, "delete", reportID, "--date", "2025-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted "Write report"`)

	out, err = runCLI(t, db, "day", "2025-03-10")
	require.NoError(t, err)
	assert.NotContains(t, out, "Write report")
	assert.Contains(t, out, "0/1 done")
}

func TestCLI_Errors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stackit.db")

	_, err := runCLI(t, db, "complete", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid id")

	_, err = runCLI(t, db, "complete", "0190a5d2-0000-7000-8000-000000000000", "--date", "2025-03-10")
	assert.ErrorContains(t, err, "no item")

	_, err = runCLI(t, db, "mode", "alphabetical")
	assert.ErrorIs(t, err, domain.ErrInvalidScheduleMode)

	_, err = runCLI(t, db, "day", "--mode", "sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidScheduleMode)
}

func TestCLI_ModeList(t *testing.T) {
	out, err := runCLI(t, filepath.Join(t.TempDir(), "unused.db"), "mode")
	require.NoError(t, err)
	for _, m := range domain.ScheduleModes {
		assert.Contains(t, out, string(m))
	}
	assert.True(t, strings.Contains(out, "High priority first"))
}
