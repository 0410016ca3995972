package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/domain"
)

// Repository stores schedule items. Every method is safe for concurrent use
// and completes without I/O; implementations guard their own storage.
type Repository interface {
	// Items returns every item on date's calendar day: items anchored to that
	// day, plus recurring items anchored on or before it whose rule matches.
	// Sorted by ScheduledStart, unscheduled items first.
	Items(date time.Time) []domain.ScheduleItem

	// Item returns the item with id.
	Item(id uuid.UUID) (domain.ScheduleItem, bool)

	// Add inserts item or overwrites the item with the same id.
	Add(item domain.ScheduleItem)

	// Update overwrites the item with the same id. No-op if absent.
	Update(item domain.ScheduleItem)

	// Delete removes the item with id. No-op if absent.
	Delete(id uuid.UUID)

	// SetCompleted sets completion, sets or clears CompletedAt to at, and
	// stamps UpdatedAt. No-op if absent.
	SetCompleted(id uuid.UUID, completed bool, at time.Time)
}

// RemoteFetcher is the optional capability of loading a day from a remote
// store into the repository's cache.
type RemoteFetcher interface {
	// FetchItems merges the remote rows for date's calendar day into the
	// cache. Failures wrap domain.ErrNetwork.
	FetchItems(ctx context.Context, date time.Time) error
}
