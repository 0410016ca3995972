package recurring

import (
	"time"

	"github.com/rezkam/stackit/internal/domain"
)

// Matcher decides whether a recurrence pattern places an occurrence on a day.
type Matcher interface {
	// Matches reports whether day (any instant within it, in its own
	// location) carries an occurrence.
	Matches(day time.Time) bool

	// RRule returns the RFC 5545 recurrence rule for the pattern.
	RRule() string
}

// GetMatcher returns the matcher for the given rule.
// Returns nil for the none rule, which never matches beyond its anchor day.
func GetMatcher(rule domain.RecurrenceRule) Matcher {
	switch rule.Kind() {
	case domain.RecurrenceDaily:
		return DailyMatcher{}
	case domain.RecurrenceWeekdays:
		return WeekdaysMatcher{}
	case domain.RecurrenceWeekly:
		return WeeklyMatcher{rule: rule}
	default:
		return nil
	}
}

// AppliesTo reports whether rule places an occurrence on date.
//
// The none rule always returns false: the anchor day itself is matched by the
// caller's exact-day check, not here. The anchor-day floor (no occurrences
// before ScheduleDate) is also the caller's responsibility.
func AppliesTo(rule domain.RecurrenceRule, date time.Time) bool {
	m := GetMatcher(rule)
	if m == nil {
		return false
	}
	return m.Matches(date)
}

// RRule returns the RFC 5545 RRULE value for rule, or "" if the rule cannot
// produce occurrences beyond its anchor (none, or weekly with an empty set).
func RRule(rule domain.RecurrenceRule) string {
	m := GetMatcher(rule)
	if m == nil {
		return ""
	}
	return m.RRule()
}
