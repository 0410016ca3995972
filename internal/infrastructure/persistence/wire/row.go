// Package wire defines the row schema exchanged with remote stores.
//
// Field names are snake_case on the wire. schedule_date is a civil date
// ("2006-01-02") rendered from, and parsed back into, the local calendar day.
package wire

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/ptr"
)

// Table is the remote table holding schedule items.
const Table = "schedule_items"

// Row is one schedule item as stored remotely.
type Row struct {
	ID                       string     `json:"id"`
	UserID                   *string    `json:"user_id"`
	Title                    string     `json:"title"`
	Notes                    string     `json:"notes"`
	Priority                 int        `json:"priority"`
	ScheduleDate             string     `json:"schedule_date"`
	ScheduledStart           *time.Time `json:"scheduled_start"`
	ScheduledEnd             *time.Time `json:"scheduled_end"`
	EstimatedDurationMinutes *int       `json:"estimated_duration_minutes"`
	ItemType                 string     `json:"item_type"`
	RecurrenceKind           string     `json:"recurrence_kind"`
	RecurrenceWeekdays       []int      `json:"recurrence_weekdays"`
	IsCompleted              bool       `json:"is_completed"`
	CompletedAt              *time.Time `json:"completed_at"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// Completion is the partial row written when only completion state changes.
type Completion struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	IsCompleted bool
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// FromItem encodes item, rendering its anchor day in loc.
// Weekdays are only carried for the weekly rule.
func FromItem(item domain.ScheduleItem, loc *time.Location) Row {
	row := Row{
		ID:                       item.ID.String(),
		Title:                    item.Title,
		Notes:                    item.Notes,
		Priority:                 int(item.Priority),
		ScheduleDate:             domain.FormatDate(item.ScheduleDate, loc),
		ScheduledStart:           utcPtr(item.ScheduledStart),
		ScheduledEnd:             utcPtr(item.ScheduledEnd),
		EstimatedDurationMinutes: item.EstimatedDurationMinutes,
		ItemType:                 string(item.ItemType),
		RecurrenceKind:           string(item.RecurrenceRule.Kind()),
		IsCompleted:              item.IsCompleted,
		CompletedAt:              utcPtr(item.CompletedAt),
		CreatedAt:                item.CreatedAt.UTC(),
		UpdatedAt:                item.UpdatedAt.UTC(),
	}
	if row.ItemType == "" {
		row.ItemType = string(domain.ItemTypeTask)
	}
	if item.UserID != nil {
		s := item.UserID.String()
		row.UserID = &s
	}
	if item.RecurrenceRule.Kind() == domain.RecurrenceWeekly {
		row.RecurrenceWeekdays = item.RecurrenceRule.Weekdays()
		if row.RecurrenceWeekdays == nil {
			row.RecurrenceWeekdays = []int{}
		}
	}
	return row
}

// ToItem decodes the row, parsing schedule_date as local midnight in loc.
//
// Only an unparseable id, user id or schedule date fails the row (wrapping
// domain.ErrInvalidRow). An unknown recurrence kind decodes as none, an
// unknown item type as task, an out-of-range priority as medium.
func (r Row) ToItem(loc *time.Location) (domain.ScheduleItem, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.ScheduleItem{}, fmt.Errorf("%w: id %q: %w", domain.ErrInvalidRow, r.ID, err)
	}

	var userID *uuid.UUID
	if r.UserID != nil {
		u, err := uuid.Parse(*r.UserID)
		if err != nil {
			return domain.ScheduleItem{}, fmt.Errorf("%w: user_id %q: %w", domain.ErrInvalidRow, *r.UserID, err)
		}
		userID = &u
	}

	date, err := domain.ParseDate(r.ScheduleDate, loc)
	if err != nil {
		return domain.ScheduleItem{}, fmt.Errorf("%w: schedule_date %q: %w", domain.ErrInvalidRow, r.ScheduleDate, err)
	}

	itemType, err := domain.ParseItemType(r.ItemType)
	if err != nil {
		itemType = domain.ItemTypeTask
	}

	item := domain.ScheduleItem{
		ID:                       id,
		UserID:                   userID,
		Title:                    r.Title,
		Notes:                    r.Notes,
		Priority:                 domain.PriorityFromInt(r.Priority),
		ScheduleDate:             date,
		ScheduledStart:           ptr.Clone(r.ScheduledStart),
		ScheduledEnd:             ptr.Clone(r.ScheduledEnd),
		EstimatedDurationMinutes: ptr.Clone(r.EstimatedDurationMinutes),
		ItemType:                 itemType,
		RecurrenceRule:           domain.ParseRecurrence(r.RecurrenceKind, r.RecurrenceWeekdays),
		IsCompleted:              r.IsCompleted,
		CompletedAt:              ptr.Clone(r.CompletedAt),
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}

	// completed_at is set iff is_completed. Rows written by older clients
	// may carry is_completed without a timestamp.
	switch {
	case !item.IsCompleted:
		item.CompletedAt = nil
	case item.CompletedAt == nil:
		at := item.UpdatedAt
		item.CompletedAt = &at
	}

	return item, nil
}

// CompletionOf builds the partial completion row for item owned by userID.
func CompletionOf(item domain.ScheduleItem, userID uuid.UUID) Completion {
	return Completion{
		ID:          item.ID,
		UserID:      userID,
		IsCompleted: item.IsCompleted,
		CompletedAt: utcPtr(item.CompletedAt),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
