package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/ptr"
)

// ScheduleItem is the unit of schedulable work (task) or fixed time (event).
//
// ScheduleDate is the local calendar day (midnight) the item is anchored to.
// Recurring items expand from this anchor and never occur before it.
type ScheduleItem struct {
	ID     uuid.UUID
	UserID *uuid.UUID // nil for anonymous/local-only items

	Title    string
	Notes    string
	Priority Priority

	ScheduleDate time.Time

	// ScheduledStart and ScheduledEnd together form a fixed block.
	// Events conventionally always set ScheduledStart.
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time

	// EstimatedDurationMinutes is used when there is no explicit end time.
	EstimatedDurationMinutes *int

	ItemType       ItemType
	RecurrenceRule RecurrenceRule

	// CompletedAt is non-nil iff IsCompleted is true.
	IsCompleted bool
	CompletedAt *time.Time

	// Bookkeeping timestamps (UTC). CreatedAt is the FIFO/LIFO sort key.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveDurationMinutes returns end - start in whole minutes when both are
// set and end is after start, otherwise the estimate. ok is false when the
// item has no duration at all.
func (item ScheduleItem) EffectiveDurationMinutes() (minutes int, ok bool) {
	if item.ScheduledStart != nil && item.ScheduledEnd != nil && item.ScheduledEnd.After(*item.ScheduledStart) {
		return int(item.ScheduledEnd.Sub(*item.ScheduledStart) / time.Minute), true
	}
	if item.EstimatedDurationMinutes != nil {
		return *item.EstimatedDurationMinutes, true
	}
	return 0, false
}

// IsEvent reports whether the item is a fixed-time event.
func (item ScheduleItem) IsEvent() bool {
	return item.ItemType == ItemTypeEvent
}

// Clone returns a deep copy so callers never share pointer fields with a cache.
func (item ScheduleItem) Clone() ScheduleItem {
	out := item
	out.UserID = ptr.Clone(item.UserID)
	out.ScheduledStart = ptr.Clone(item.ScheduledStart)
	out.ScheduledEnd = ptr.Clone(item.ScheduledEnd)
	out.EstimatedDurationMinutes = ptr.Clone(item.EstimatedDurationMinutes)
	out.CompletedAt = ptr.Clone(item.CompletedAt)
	return out
}

// ItemOption customises a ScheduleItem built by NewScheduleItem.
type ItemOption func(*ScheduleItem)

// WithID sets an explicit id instead of a generated one.
func WithID(id uuid.UUID) ItemOption {
	return func(item *ScheduleItem) { item.ID = id }
}

// WithUser sets the owning user.
func WithUser(userID uuid.UUID) ItemOption {
	return func(item *ScheduleItem) { item.UserID = &userID }
}

// WithNotes sets free-text notes.
func WithNotes(notes string) ItemOption {
	return func(item *ScheduleItem) { item.Notes = notes }
}

// WithPriority sets the priority.
func WithPriority(p Priority) ItemOption {
	return func(item *ScheduleItem) { item.Priority = p }
}

// WithType sets the item type.
func WithType(t ItemType) ItemOption {
	return func(item *ScheduleItem) { item.ItemType = t }
}

// WithRecurrence sets the recurrence rule.
func WithRecurrence(rule RecurrenceRule) ItemOption {
	return func(item *ScheduleItem) { item.RecurrenceRule = rule }
}

// WithTimeBlock sets a fixed start/end block.
func WithTimeBlock(start, end time.Time) ItemOption {
	return func(item *ScheduleItem) {
		item.ScheduledStart = &start
		item.ScheduledEnd = &end
	}
}

// WithStart sets only the start time.
func WithStart(start time.Time) ItemOption {
	return func(item *ScheduleItem) { item.ScheduledStart = &start }
}

// WithEstimate sets the estimated duration in minutes.
func WithEstimate(minutes int) ItemOption {
	return func(item *ScheduleItem) { item.EstimatedDurationMinutes = &minutes }
}

// WithCreatedAt overrides the creation (and update) timestamp.
func WithCreatedAt(t time.Time) ItemOption {
	return func(item *ScheduleItem) {
		item.CreatedAt = t.UTC()
		item.UpdatedAt = t.UTC()
	}
}

// NewScheduleItem builds an incomplete medium-priority task anchored to the
// local day of scheduleDate, with a fresh UUIDv7 id unless WithID is given.
// Title is not validated here; that belongs to the creating collaborator.
func NewScheduleItem(title string, scheduleDate time.Time, opts ...ItemOption) ScheduleItem {
	now := time.Now().UTC()
	item := ScheduleItem{
		Title:        title,
		Priority:     PriorityMedium,
		ScheduleDate: StartOfDay(scheduleDate, scheduleDate.Location()),
		ItemType:     ItemTypeTask,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(&item)
	}
	if item.ID == uuid.Nil {
		// NewV7 only fails when the random source does; fall back to v4.
		if id, err := uuid.NewV7(); err == nil {
			item.ID = id
		} else {
			item.ID = uuid.New()
		}
	}
	return item
}
