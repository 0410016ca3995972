package domain

import (
	"fmt"
	"strings"
)

// Priority represents how urgent an item is. Higher value = more urgent.
// Value object - ordered int enum, wire values 0-2.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityMedium Priority = 1
	PriorityHigh   Priority = 2
)

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// PriorityFromInt maps a wire value to a Priority.
// Out-of-range values decode as medium.
func PriorityFromInt(v int) Priority {
	p := Priority(v)
	if !p.Valid() {
		return PriorityMedium
	}
	return p
}

// ParsePriority validates and creates a Priority from its name.
// Empty input yields the default (medium).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidPriority, s)
	}
}

// ItemType distinguishes a flexible task from a fixed-time event.
// Events are never reordered by the scheduler and never selected as current.
type ItemType string

const (
	ItemTypeTask  ItemType = "task"
	ItemTypeEvent ItemType = "event"
)

// ParseItemType validates and creates an ItemType.
// Empty input yields task.
func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return ItemTypeTask, nil
	case ItemTypeTask, ItemTypeEvent:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidItemType, s)
	}
}

// ScheduleMode selects which ordering the scheduler applies to a day's tasks.
// Pure configuration, not a queue implementation.
type ScheduleMode string

const (
	ModePriority        ScheduleMode = "priority"
	ModeReversePriority ScheduleMode = "reverse_priority"
	ModeFIFO            ScheduleMode = "fifo"
	ModeLIFO            ScheduleMode = "lifo"
	ModeShuffle         ScheduleMode = "shuffle"
)

// ScheduleModes lists every mode in picker order.
var ScheduleModes = []ScheduleMode{
	ModePriority,
	ModeReversePriority,
	ModeFIFO,
	ModeLIFO,
	ModeShuffle,
}

// Valid reports whether m is one of the defined modes.
func (m ScheduleMode) Valid() bool {
	switch m {
	case ModePriority, ModeReversePriority, ModeFIFO, ModeLIFO, ModeShuffle:
		return true
	default:
		return false
	}
}

// ParseScheduleMode validates and creates a ScheduleMode.
func ParseScheduleMode(s string) (ScheduleMode, error) {
	mode := ScheduleMode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidScheduleMode, s)
	}
	return mode, nil
}

// DisplayName returns the short label shown in mode pickers.
func (m ScheduleMode) DisplayName() string {
	switch m {
	case ModePriority:
		return "Priority"
	case ModeReversePriority:
		return "Low First"
	case ModeFIFO:
		return "FIFO"
	case ModeLIFO:
		return "LIFO"
	case ModeShuffle:
		return "Shuffle"
	default:
		return string(m)
	}
}

// Subtitle returns a one-line description of the ordering.
func (m ScheduleMode) Subtitle() string {
	switch m {
	case ModePriority:
		return "High priority first"
	case ModeReversePriority:
		return "Low priority first"
	case ModeFIFO:
		return "Oldest task first"
	case ModeLIFO:
		return "Newest task first"
	case ModeShuffle:
		return "Random order"
	default:
		return ""
	}
}

// MergePolicy decides how fetched remote rows are merged into a local cache.
type MergePolicy string

const (
	// MergeOverwrite upserts every fetched row by id.
	MergeOverwrite MergePolicy = "overwrite"
	// MergeNewerWins skips fetched rows whose UpdatedAt is older than the
	// cached copy's.
	MergeNewerWins MergePolicy = "newer_wins"
)

// ParseMergePolicy validates and creates a MergePolicy.
// Empty input yields MergeOverwrite.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch p := MergePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MergeOverwrite, nil
	case MergeOverwrite, MergeNewerWins:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidMergePolicy, s)
	}
}
