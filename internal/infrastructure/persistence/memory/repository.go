// Package memory provides the in-memory schedule item repository. It is used
// on its own for local-only schedules and as the cache behind the
// remote-backed repository.
package memory

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/recurring"
)

// Repository is a goroutine-safe map of schedule items keyed by id.
// Every read returns copies, so callers never share state with the cache.
type Repository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.ScheduleItem
	loc   *time.Location
}

// New creates a repository whose calendar days are evaluated in loc
// (nil means time.Local), seeded with initial items.
func New(loc *time.Location, initial ...domain.ScheduleItem) *Repository {
	if loc == nil {
		loc = time.Local
	}
	r := &Repository{
		items: make(map[uuid.UUID]domain.ScheduleItem, len(initial)),
		loc:   loc,
	}
	for _, item := range initial {
		r.items[item.ID] = item.Clone()
	}
	return r
}

// Location returns the time zone calendar days are evaluated in.
func (r *Repository) Location() *time.Location {
	return r.loc
}

// Items returns every item on date's calendar day: items anchored to that day,
// plus recurring items anchored on or before it whose rule matches it.
// The result is sorted by ScheduledStart with unscheduled items first.
func (r *Repository) Items(date time.Time) []domain.ScheduleItem {
	day := domain.StartOfDay(date, r.loc)

	r.mu.RLock()
	out := make([]domain.ScheduleItem, 0, len(r.items))
	for _, item := range r.items {
		if OccursOn(item, day, r.loc) {
			out = append(out, item.Clone())
		}
	}
	r.mu.RUnlock()

	SortByStart(out)
	return out
}

// Item returns a copy of the item with id.
func (r *Repository) Item(id uuid.UUID) (domain.ScheduleItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.ScheduleItem{}, false
	}
	return item.Clone(), true
}

// Add inserts item, overwriting any item with the same id.
func (r *Repository) Add(item domain.ScheduleItem) {
	r.Put(item)
}

// Put is Add, reporting whether an existing item was overwritten.
func (r *Repository) Put(item domain.ScheduleItem) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced = r.items[item.ID]
	r.items[item.ID] = item.Clone()
	return replaced
}

// Update overwrites the item with the same id. Unknown ids are ignored.
func (r *Repository) Update(item domain.ScheduleItem) {
	r.UpdateIfExists(item)
}

// UpdateIfExists is Update, reporting whether an item was replaced.
func (r *Repository) UpdateIfExists(item domain.ScheduleItem) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return false
	}
	r.items[item.ID] = item.Clone()
	return true
}

// Delete removes the item with id. Unknown ids are ignored.
func (r *Repository) Delete(id uuid.UUID) {
	r.DeleteIfExists(id)
}

// DeleteIfExists is Delete, reporting whether an item was removed.
func (r *Repository) DeleteIfExists(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	return true
}

// SetCompleted sets the completion state of the item with id, setting
// CompletedAt to at (or clearing it) and stamping UpdatedAt with at.
// Unknown ids are ignored.
func (r *Repository) SetCompleted(id uuid.UUID, completed bool, at time.Time) {
	r.SetCompletedIfExists(id, completed, at)
}

// SetCompletedIfExists is SetCompleted, returning the updated item when one
// was found.
func (r *Repository) SetCompletedIfExists(id uuid.UUID, completed bool, at time.Time) (domain.ScheduleItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return domain.ScheduleItem{}, false
	}
	item.IsCompleted = completed
	if completed {
		item.CompletedAt = &at
	} else {
		item.CompletedAt = nil
	}
	item.UpdatedAt = at
	r.items[id] = item
	return item.Clone(), true
}

// Merge upserts fetched items by id and returns how many were written.
// Cached items missing from items are kept. Under domain.MergeNewerWins an
// item whose UpdatedAt is older than the cached copy's is skipped.
func (r *Repository) Merge(items []domain.ScheduleItem, policy domain.MergePolicy) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := 0
	for _, item := range items {
		if policy == domain.MergeNewerWins {
			if cached, ok := r.items[item.ID]; ok && item.UpdatedAt.Before(cached.UpdatedAt) {
				continue
			}
		}
		r.items[item.ID] = item.Clone()
		merged++
	}
	return merged
}

// Snapshot returns copies of all cached items ordered by ScheduleDate, then
// ScheduledStart.
func (r *Repository) Snapshot() []domain.ScheduleItem {
	r.mu.RLock()
	out := make([]domain.ScheduleItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.ScheduleItem) int {
		if c := a.ScheduleDate.Compare(b.ScheduleDate); c != 0 {
			return c
		}
		return compareByStart(a, b)
	})
	return out
}

// Len returns the number of cached items.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// OccursOn reports whether item belongs on day: it is anchored to that
// calendar day, or it recurs on it and its anchor is not after it.
func OccursOn(item domain.ScheduleItem, day time.Time, loc *time.Location) bool {
	day = domain.StartOfDay(day, loc)
	anchor := domain.StartOfDay(item.ScheduleDate, loc)
	if anchor.Equal(day) {
		return true
	}
	if anchor.After(day) {
		return false
	}
	return recurring.AppliesTo(item.RecurrenceRule, day)
}

// SortByStart sorts items ascending by ScheduledStart in place; items without
// a start sort first. Ties fall back to CreatedAt, then id, so the result
// does not depend on map iteration order.
func SortByStart(items []domain.ScheduleItem) {
	slices.SortFunc(items, compareByStart)
}

func compareByStart(a, b domain.ScheduleItem) int {
	if c := startKey(a).Compare(startKey(b)); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

func startKey(item domain.ScheduleItem) time.Time {
	if item.ScheduledStart == nil {
		return time.Time{}
	}
	return *item.ScheduledStart
}
