package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rezkam/stackit/internal/domain"
)

// parseDay accepts "", "today", "tomorrow", "yesterday" or yyyy-mm-dd.
func parseDay(s string, now time.Time, loc *time.Location) (time.Time, error) {
	today := domain.StartOfDay(now, loc)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	day, err := domain.ParseDate(strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd: %w", s, err)
	}
	return day, nil
}

var weekdayNames = map[string]int{
	"sun": 1, "mon": 2, "tue": 3, "wed": 4, "thu": 5, "fri": 6, "sat": 7,
}

// parseRepeat accepts none, daily, weekdays, or weekly:<days> where days is a
// comma separated list of names (mon,wed) or numbers (1 = Sunday).
func parseRepeat(s string) (domain.RecurrenceRule, error) {
	kind, days, hasDays := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	if !hasDays {
		return domain.NewRecurrenceRule(kind, nil)
	}
	if domain.RecurrenceKind(kind) != domain.RecurrenceWeekly {
		return domain.RecurrenceRule{}, fmt.Errorf("%w: only weekly takes days, got %q", domain.ErrInvalidRecurrence, s)
	}

	var weekdays []int
	for _, part := range strings.Split(days, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, ok := weekdayNames[part[:min(3, len(part))]]; ok {
			weekdays = append(weekdays, n)
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return domain.RecurrenceRule{}, fmt.Errorf("%w: unknown weekday %q", domain.ErrInvalidRecurrence, part)
		}
		weekdays = append(weekdays, n)
	}
	return domain.NewRecurrenceRule(kind, weekdays)
}

// parseClock returns day at the wall clock time HH:MM.
func parseClock(s string, day time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM: %w", s, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// itemFlags are the flags describing a new item.
type itemFlags struct {
	date     string
	notes    string
	priority string
	itemType string
	repeat   string
	start    string
	duration time.Duration
}

func (f itemFlags) build(title string, now time.Time, loc *time.Location) (domain.ScheduleItem, error) {
	day, err := parseDay(f.date, now, loc)
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	priority, err := domain.ParsePriority(f.priority)
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	itemType, err := domain.ParseItemType(f.itemType)
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	rule, err := parseRepeat(f.repeat)
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	if itemType == domain.ItemTypeEvent && f.start == "" {
		return domain.ScheduleItem{}, errors.New("an event needs --start")
	}
	if f.duration < 0 {
		return domain.ScheduleItem{}, fmt.Errorf("duration must not be negative, got %s", f.duration)
	}

	opts := []domain.ItemOption{
		domain.WithPriority(priority),
		domain.WithType(itemType),
		domain.WithRecurrence(rule),
	}
	if f.notes != "" {
		opts = append(opts, domain.WithNotes(f.notes))
	}

	minutes := int(f.duration / time.Minute)
	switch {
	case f.start != "":
		start, err := parseClock(f.start, day)
		if err != nil {
			return domain.ScheduleItem{}, err
		}
		if minutes > 0 {
			opts = append(opts, domain.WithTimeBlock(start, start.Add(time.Duration(minutes)*time.Minute)))
		} else {
			opts = append(opts, domain.WithStart(start))
		}
	case minutes > 0:
		opts = append(opts, domain.WithEstimate(minutes))
	}

	return domain.NewScheduleItem(title, day, opts...), nil
}
