package domain

import "errors"

// Domain errors returned by repository and store implementations.

var (
	// ErrNetwork indicates the remote store could not be reached or rejected the request.
	ErrNetwork = errors.New("network error")

	// ErrInvalidRow indicates a remote row could not be decoded into a ScheduleItem.
	ErrInvalidRow = errors.New("invalid schedule item row")

	// ErrInvalidScheduleMode indicates an unknown schedule mode name.
	ErrInvalidScheduleMode = errors.New("invalid schedule mode")

	// ErrInvalidPriority indicates an unknown priority name or value.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidItemType indicates an unknown item type name.
	ErrInvalidItemType = errors.New("invalid item type")

	// ErrInvalidRecurrence indicates an unknown recurrence kind or weekday number.
	ErrInvalidRecurrence = errors.New("invalid recurrence rule")

	// ErrInvalidMergePolicy indicates an unknown merge policy name.
	ErrInvalidMergePolicy = errors.New("invalid merge policy")
)
