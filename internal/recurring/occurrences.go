package recurring

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/rezkam/stackit/internal/domain"
)

// DefaultMaxOccurrences caps a single expansion to avoid unbounded ranges.
const DefaultMaxOccurrences = 5000

// ErrInvalidRange is returned when the range end is before its start.
var ErrInvalidRange = errors.New("recurring: range end is before range start")

// Occurrences returns every local-midnight day in [from, to] (inclusive, by
// calendar day in loc) on which item occurs: its anchor day, plus each day its
// rule matches on or after the anchor.
//
// Expansion compiles the rule to an RRULE and walks it with rrule-go, so the
// result always agrees with AppliesTo day by day.
func Occurrences(item domain.ScheduleItem, from, to time.Time, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	from = domain.StartOfDay(from, loc)
	to = domain.StartOfDay(to, loc)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	anchor := domain.StartOfDay(item.ScheduleDate, loc)
	if anchor.After(to) {
		return nil, nil
	}

	var out []time.Time
	if !anchor.Before(from) {
		out = append(out, anchor)
	}

	rule := RRule(item.RecurrenceRule)
	if rule == "" {
		return out, nil
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rrule %q: %w", rule, err)
	}
	r.DTStart(anchor)

	var set rrule.Set
	set.RRule(r)

	// Never expand before the anchor.
	start := from
	if anchor.After(start) {
		start = anchor
	}

	for _, occ := range set.Between(start, to, true) {
		day := domain.StartOfDay(occ, loc)
		if day.Equal(anchor) {
			continue // already included
		}
		if len(out) >= DefaultMaxOccurrences {
			slog.Warn("recurring: truncated occurrences due to cap",
				"item_id", item.ID.String(),
				"cap", DefaultMaxOccurrences)
			break
		}
		out = append(out, day)
	}

	return out, nil
}
