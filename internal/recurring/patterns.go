package recurring

import (
	"strings"
	"time"

	"github.com/rezkam/stackit/internal/domain"
)

// byDay maps wire weekday numbers (1 = Sunday) to RFC 5545 BYDAY codes.
var byDay = [8]string{"", "SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// DailyMatcher matches every day.
type DailyMatcher struct{}

func (DailyMatcher) Matches(time.Time) bool { return true }

func (DailyMatcher) RRule() string { return "FREQ=DAILY" }

// WeekdaysMatcher matches Monday through Friday.
type WeekdaysMatcher struct{}

func (WeekdaysMatcher) Matches(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (WeekdaysMatcher) RRule() string { return "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR" }

// WeeklyMatcher matches days whose weekday number is in the rule's set.
type WeeklyMatcher struct {
	rule domain.RecurrenceRule
}

func (m WeeklyMatcher) Matches(day time.Time) bool {
	return m.rule.HasWeekday(domain.WeekdayNumber(day))
}

func (m WeeklyMatcher) RRule() string {
	days := m.rule.Weekdays()
	if len(days) == 0 {
		return ""
	}
	codes := make([]string, len(days))
	for i, d := range days {
		codes[i] = byDay[d]
	}
	return "FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ",")
}
