package domain

import (
	"fmt"
	"math/bits"
	"strings"
	"time"
)

// RecurrenceKind is the wire name of a recurrence rule variant.
type RecurrenceKind string

const (
	RecurrenceNone     RecurrenceKind = "none"
	RecurrenceDaily    RecurrenceKind = "daily"
	RecurrenceWeekdays RecurrenceKind = "weekdays"
	RecurrenceWeekly   RecurrenceKind = "weekly"
)

// RecurrenceRule is a closed variant: none, daily, weekdays (Mon-Fri) or
// weekly on a set of weekday numbers (1 = Sunday ... 7 = Saturday).
//
// The zero value is the none rule. The weekday set is kept as a bitmask so
// rules compare with == and reflect.DeepEqual.
type RecurrenceRule struct {
	kind RecurrenceKind
	days uint8 // bit n set = weekday number n (1..7)
}

// RecurrenceOnce returns the rule that never repeats.
func RecurrenceOnce() RecurrenceRule {
	return RecurrenceRule{}
}

// RecurrenceEveryDay returns the daily rule.
func RecurrenceEveryDay() RecurrenceRule {
	return RecurrenceRule{kind: RecurrenceDaily}
}

// RecurrenceWorkdays returns the Monday-Friday rule.
func RecurrenceWorkdays() RecurrenceRule {
	return RecurrenceRule{kind: RecurrenceWeekdays}
}

// RecurrenceOnWeekdays returns a weekly rule for the given weekday numbers
// (1 = Sunday ... 7 = Saturday). Numbers outside 1..7 are dropped.
func RecurrenceOnWeekdays(days ...int) RecurrenceRule {
	r := RecurrenceRule{kind: RecurrenceWeekly}
	for _, d := range days {
		if d >= 1 && d <= 7 {
			r.days |= 1 << d
		}
	}
	return r
}

// Kind returns the wire name of the rule.
func (r RecurrenceRule) Kind() RecurrenceKind {
	if r.kind == "" {
		return RecurrenceNone
	}
	return r.kind
}

// IsRecurring reports whether the rule can place occurrences beyond its anchor day.
func (r RecurrenceRule) IsRecurring() bool {
	return r.Kind() != RecurrenceNone
}

// Weekdays returns the sorted weekday numbers of a weekly rule, nil otherwise.
func (r RecurrenceRule) Weekdays() []int {
	if r.kind != RecurrenceWeekly || r.days == 0 {
		return nil
	}
	out := make([]int, 0, bits.OnesCount8(r.days))
	for d := 1; d <= 7; d++ {
		if r.days&(1<<d) != 0 {
			out = append(out, d)
		}
	}
	return out
}

// HasWeekday reports whether weekday number n is in the weekly set.
func (r RecurrenceRule) HasWeekday(n int) bool {
	if n < 1 || n > 7 {
		return false
	}
	return r.days&(1<<n) != 0
}

// String returns the human-readable rule label.
func (r RecurrenceRule) String() string {
	switch r.Kind() {
	case RecurrenceDaily:
		return "Daily"
	case RecurrenceWeekdays:
		return "Weekdays"
	case RecurrenceWeekly:
		n := bits.OnesCount8(r.days)
		if n == 7 {
			return "Every day"
		}
		return fmt.Sprintf("Weekly (%d days)", n)
	default:
		return "None"
	}
}

// ParseRecurrence decodes a wire (kind, weekdays) pair.
// Unknown kinds decode as none; weekdays only matter for "weekly".
func ParseRecurrence(kind string, weekdays []int) RecurrenceRule {
	switch RecurrenceKind(kind) {
	case RecurrenceDaily:
		return RecurrenceEveryDay()
	case RecurrenceWeekdays:
		return RecurrenceWorkdays()
	case RecurrenceWeekly:
		return RecurrenceOnWeekdays(weekdays...)
	default:
		return RecurrenceOnce()
	}
}

// NewRecurrenceRule validates and creates a RecurrenceRule.
// Unlike ParseRecurrence it rejects unknown kinds and out-of-range weekdays.
func NewRecurrenceRule(kind string, weekdays []int) (RecurrenceRule, error) {
	k := RecurrenceKind(strings.ToLower(strings.TrimSpace(kind)))

	switch k {
	case "", RecurrenceNone:
		return RecurrenceOnce(), nil
	case RecurrenceDaily, RecurrenceWeekdays:
		return ParseRecurrence(string(k), nil), nil
	case RecurrenceWeekly:
		if len(weekdays) == 0 {
			return RecurrenceRule{}, fmt.Errorf("%w: weekly rule needs at least one weekday", ErrInvalidRecurrence)
		}
		for _, d := range weekdays {
			if d < 1 || d > 7 {
				return RecurrenceRule{}, fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidRecurrence, d)
			}
		}
		return RecurrenceOnWeekdays(weekdays...), nil
	default:
		return RecurrenceRule{}, fmt.Errorf("%w: %s", ErrInvalidRecurrence, kind)
	}
}

// WeekdayNumber returns the wire weekday number of t: 1 = Sunday ... 7 = Saturday.
// Fixed regardless of locale or first-day-of-week settings.
func WeekdayNumber(t time.Time) int {
	return int(t.Weekday()) + 1
}
