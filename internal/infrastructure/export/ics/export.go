// Package ics renders schedule items as an iCalendar (RFC 5545) document.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/recurring"
)

// Default configuration values
const (
	DefaultProductID = "-//stackit//schedule export//EN"
	DefaultName      = "stackit"
)

// Non-standard properties carrying fields iCalendar has no slot for.
const (
	PropertyItemType ical.ComponentProperty = "X-STACKIT-ITEM-TYPE"
	PropertyEstimate ical.ComponentProperty = "X-STACKIT-ESTIMATE-MINUTES"
)

// ErrInvalidItem is returned for an item that cannot be represented.
var ErrInvalidItem = errors.New("item cannot be exported")

// Options configure an export.
type Options struct {
	ProductID string           // PRODID (default: DefaultProductID)
	Name      string           // Calendar display name (default: DefaultName)
	Location  *time.Location   // Zone all-day dates are taken in (nil: time.Local)
	Now       func() time.Time // DTSTAMP clock (nil: time.Now)
}

func (o Options) withDefaults() Options {
	if o.ProductID == "" {
		o.ProductID = DefaultProductID
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Export renders items as one VEVENT each.
//
// An item with ScheduledStart becomes a timed event ending at ScheduledEnd,
// or after its estimated duration; an item without one becomes an all-day
// event on its ScheduleDate. Recurring items carry an RRULE, and completed
// items have STATUS:COMPLETED.
func Export(items []domain.ScheduleItem, opts Options) (string, error) {
	cal, err := build(items, opts.withDefaults())
	if err != nil {
		return "", err
	}
	return cal.Serialize(), nil
}

// Write renders items like Export and writes the document to w.
func Write(w io.Writer, items []domain.ScheduleItem, opts Options) error {
	cal, err := build(items, opts.withDefaults())
	if err != nil {
		return err
	}
	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

func build(items []domain.ScheduleItem, opts Options) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)
	cal.SetName(opts.Name)
	cal.SetXWRCalName(opts.Name)

	stamp := opts.Now().UTC()
	for _, item := range items {
		if item.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: %q has no id", ErrInvalidItem, item.Title)
		}
		if item.ScheduleDate.IsZero() && item.ScheduledStart == nil {
			return nil, fmt.Errorf("%w: %s has no date", ErrInvalidItem, item.ID)
		}
		addEvent(cal, item, stamp, opts.Location)
	}
	return cal, nil
}

func addEvent(cal *ical.Calendar, item domain.ScheduleItem, stamp time.Time, loc *time.Location) {
	ev := cal.AddEvent(item.ID.String())
	ev.SetDtStampTime(stamp)
	if !item.CreatedAt.IsZero() {
		ev.SetCreatedTime(item.CreatedAt)
	}
	if !item.UpdatedAt.IsZero() {
		ev.SetModifiedAt(item.UpdatedAt)
	}
	ev.SetSummary(item.Title)
	if item.Notes != "" {
		ev.SetDescription(item.Notes)
	}

	if item.ScheduledStart != nil {
		start := *item.ScheduledStart
		ev.SetStartAt(start)
		if minutes, ok := item.EffectiveDurationMinutes(); ok && minutes > 0 {
			ev.SetEndAt(start.Add(time.Duration(minutes) * time.Minute))
		}
	} else {
		day := domain.StartOfDay(item.ScheduleDate, loc)
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}

	if rule := recurring.RRule(item.RecurrenceRule); rule != "" {
		ev.AddRrule(rule)
	}

	if item.IsCompleted {
		ev.SetStatus(ical.ObjectStatusCompleted)
	} else {
		ev.SetStatus(ical.ObjectStatusConfirmed)
	}
	ev.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(icalPriority(item.Priority)))

	itemType := item.ItemType
	if itemType == "" {
		itemType = domain.ItemTypeTask
	}
	ev.SetProperty(PropertyItemType, string(itemType))
	if item.EstimatedDurationMinutes != nil {
		ev.SetProperty(PropertyEstimate, strconv.Itoa(*item.EstimatedDurationMinutes))
	}
}

// icalPriority maps to the RFC 5545 scale, where 1 is highest and 9 lowest.
func icalPriority(p domain.Priority) int {
	switch p {
	case domain.PriorityHigh:
		return 1
	case domain.PriorityLow:
		return 9
	default:
		return 5
	}
}
