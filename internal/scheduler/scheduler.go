// Package scheduler orders a day's items under a ScheduleMode and picks the
// task to act on next. Every function is pure: the input slice is never
// modified and a fresh slice is returned.
package scheduler

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/rezkam/stackit/internal/domain"
)

// Priority orders most urgent first. Ties keep their input order.
func Priority(items []domain.ScheduleItem) []domain.ScheduleItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.ScheduleItem) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return out
}

// ReversePriority orders least urgent first. Ties keep their input order.
func ReversePriority(items []domain.ScheduleItem) []domain.ScheduleItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.ScheduleItem) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return out
}

// FIFO orders oldest created first.
func FIFO(items []domain.ScheduleItem) []domain.ScheduleItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.ScheduleItem) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// LIFO orders newest created first.
func LIFO(items []domain.ScheduleItem) []domain.ScheduleItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.ScheduleItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Shuffle returns a uniformly random permutation.
func Shuffle(items []domain.ScheduleItem) []domain.ScheduleItem {
	out := slices.Clone(items)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Apply orders items under mode. It panics on a value outside the
// ScheduleMode enum; callers parse user input with domain.ParseScheduleMode.
func Apply(mode domain.ScheduleMode, items []domain.ScheduleItem) []domain.ScheduleItem {
	switch mode {
	case domain.ModePriority:
		return Priority(items)
	case domain.ModeReversePriority:
		return ReversePriority(items)
	case domain.ModeFIFO:
		return FIFO(items)
	case domain.ModeLIFO:
		return LIFO(items)
	case domain.ModeShuffle:
		return Shuffle(items)
	default:
		panic(fmt.Sprintf("scheduler: unhandled schedule mode %q", string(mode)))
	}
}

// CurrentTask returns the first incomplete task of an already ordered slice.
// Events and completed items are skipped.
func CurrentTask(ordered []domain.ScheduleItem) (domain.ScheduleItem, bool) {
	for _, item := range ordered {
		if !item.IsCompleted && item.ItemType == domain.ItemTypeTask {
			return item, true
		}
	}
	return domain.ScheduleItem{}, false
}

// Suggest picks a next task without a mode: highest priority first, then the
// earliest start, with a missing start counting as earliest. Events and
// completed items are never suggested.
func Suggest(items []domain.ScheduleItem) (domain.ScheduleItem, bool) {
	var (
		best  domain.ScheduleItem
		found bool
	)
	for _, item := range items {
		if item.IsCompleted || item.ItemType != domain.ItemTypeTask {
			continue
		}
		if !found || suggestBefore(item, best) {
			best, found = item, true
		}
	}
	return best, found
}

func suggestBefore(a, b domain.ScheduleItem) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return startOrZero(a).Before(startOrZero(b))
}

func startOrZero(item domain.ScheduleItem) time.Time {
	if item.ScheduledStart == nil {
		return time.Time{}
	}
	return *item.ScheduledStart
}
