package domain

import (
	"time"

	"github.com/google/uuid"
)

// DailyProgress counts completed items over all items of a day.
type DailyProgress struct {
	CompletedCount int
	TotalCount     int
}

// CompletionRate returns CompletedCount / TotalCount, or 0 for an empty day.
func (p DailyProgress) CompletionRate() float64 {
	if p.TotalCount <= 0 {
		return 0
	}
	return float64(p.CompletedCount) / float64(p.TotalCount)
}

// ProgressOf computes the progress over a day's items.
func ProgressOf(items []ScheduleItem) DailyProgress {
	p := DailyProgress{TotalCount: len(items)}
	for _, item := range items {
		if item.IsCompleted {
			p.CompletedCount++
		}
	}
	return p
}

// TaskSummary is the lightweight projection of the current task used for display.
type TaskSummary struct {
	ID             uuid.UUID
	Title          string
	Notes          string
	Priority       Priority
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	IsCompleted    bool
	CompletedAt    *time.Time
}

// SummaryOf projects an item into a TaskSummary.
func SummaryOf(item ScheduleItem) TaskSummary {
	c := item.Clone()
	return TaskSummary{
		ID:             c.ID,
		Title:          c.Title,
		Notes:          c.Notes,
		Priority:       c.Priority,
		ScheduledStart: c.ScheduledStart,
		ScheduledEnd:   c.ScheduledEnd,
		IsCompleted:    c.IsCompleted,
		CompletedAt:    c.CompletedAt,
	}
}
