// Package schedule owns the selected day of a schedule: it routes mutations
// to a Repository, keeps the cache in step with an optional remote fetcher,
// and publishes an ordered View of the day to subscribers.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/domain"
)

// Config holds configuration for the Store.
type Config struct {
	Fetcher      RemoteFetcher       // Remote loader; nil for a local-only store
	Location     *time.Location      // Zone calendar days are evaluated in (nil: time.Local)
	InitialDate  time.Time           // First selected day (zero: today)
	Mode         domain.ScheduleMode // Initial ordering (empty: priority)
	Now          func() time.Time    // Clock for completion timestamps (nil: time.Now)
	FetchTimeout time.Duration       // Timeout per remote fetch (0: none)
}

// Store is the schedule orchestrator. All methods are safe for concurrent use.
//
// Every SelectDate starts a new generation. A background fetch only affects
// the view while its generation is current; a fetch for a day the caller has
// since left is discarded on completion.
type Store struct {
	repo         Repository
	fetcher      RemoteFetcher
	loc          *time.Location
	now          func() time.Time
	fetchTimeout time.Duration

	ctx    context.Context // cancelled by Close
	cancel context.CancelFunc
	wg     sync.WaitGroup // in-flight fetches

	mu         sync.Mutex
	selected   time.Time
	mode       domain.ScheduleMode
	items      []domain.ScheduleItem
	generation uint64
	pending    int // fetches in flight for the current generation
	version    uint64
	view       View
	closed     bool

	notifier *notifier
}

// NewStore creates a store over repo and selects cfg.InitialDate, which
// loads the cache and starts the first remote fetch. ctx bounds every
// background fetch; Close cancels it.
func NewStore(ctx context.Context, repo Repository, cfg Config) *Store {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if !cfg.Mode.Valid() {
		if cfg.Mode != "" {
			slog.WarnContext(ctx, "Unknown schedule mode, using priority", slog.String("mode", string(cfg.Mode)))
		}
		cfg.Mode = domain.ModePriority
	}
	if cfg.InitialDate.IsZero() {
		cfg.InitialDate = cfg.Now()
	}

	storeCtx, cancel := context.WithCancel(ctx)
	s := &Store{
		repo:         repo,
		fetcher:      cfg.Fetcher,
		loc:          cfg.Location,
		now:          cfg.Now,
		fetchTimeout: cfg.FetchTimeout,
		ctx:          storeCtx,
		cancel:       cancel,
		mode:         cfg.Mode,
		notifier:     newNotifier(),
	}

	s.SelectDate(cfg.InitialDate)
	return s
}

// View returns the current snapshot.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Subscribe registers fn to receive every new view. fn runs on a dedicated
// goroutine and may call back into the store, except Close.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn func(View)) (cancel func()) {
	return s.notifier.subscribe(fn)
}

// SelectDate switches to date's calendar day, reloads it from the cache and,
// when the store has a fetcher, fetches it remotely in the background.
func (s *Store) SelectDate(date time.Time) {
	day := domain.StartOfDay(date, s.loc)

	s.mu.Lock()
	s.selected = day
	s.generation++
	s.pending = 0
	s.reloadLocked()

	if s.fetcher != nil && !s.closed {
		gen := s.generation
		s.pending++
		s.wg.Add(1)
		go s.fetchInBackground(gen, day)
	}

	v := s.publishLocked()
	s.mu.Unlock()

	s.notifier.publish(v)
}

// SetMode changes the ordering of the loaded day without touching the
// repository. Unknown modes return domain.ErrInvalidScheduleMode.
func (s *Store) SetMode(mode domain.ScheduleMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidScheduleMode, mode)
	}

	s.mu.Lock()
	s.mode = mode
	v := s.publishLocked()
	s.mu.Unlock()

	s.notifier.publish(v)
	return nil
}

// Add stores item and reloads the day.
func (s *Store) Add(item domain.ScheduleItem) {
	s.repo.Add(item)
	s.reload()
}

// Update replaces the stored item and reloads the day.
func (s *Store) Update(item domain.ScheduleItem) {
	s.repo.Update(item)
	s.reload()
}

// Delete removes the item with id and reloads the day.
func (s *Store) Delete(id uuid.UUID) {
	s.repo.Delete(id)
	s.reload()
}

// SetCompleted marks the item with id (in)complete at the store's clock and
// reloads the day.
func (s *Store) SetCompleted(id uuid.UUID, completed bool) {
	s.repo.SetCompleted(id, completed, s.now())
	s.reload()
}

// Item returns the stored item with id.
func (s *Store) Item(id uuid.UUID) (domain.ScheduleItem, bool) {
	return s.repo.Item(id)
}

// Refresh fetches the selected day synchronously and reloads it if the
// selection has not changed meanwhile. Without a fetcher it only reloads.
func (s *Store) Refresh(ctx context.Context) error {
	if s.fetcher == nil {
		s.reload()
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	gen, day := s.generation, s.selected
	s.pending++
	v := s.publishLocked()
	s.mu.Unlock()
	s.notifier.publish(v)

	err := s.fetch(ctx, day)
	s.finishFetch(ctx, gen, day, err)
	if err != nil {
		return fmt.Errorf("failed to refresh %s: %w", domain.FormatDate(day, s.loc), err)
	}
	return nil
}

// Wait blocks until every background fetch started so far has finished, or
// ctx is done.
func (s *Store) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for fetches: %w", ctx.Err())
	}
}

// Close cancels in-flight fetches, waits for them and stops notifications.
// It must not be called from a subscriber. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.notifier.stop()
}

func (s *Store) fetchInBackground(gen uint64, day time.Time) {
	defer s.wg.Done()

	err := s.fetch(s.ctx, day)
	s.finishFetch(s.ctx, gen, day, err)
}

func (s *Store) fetch(ctx context.Context, day time.Time) error {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	return s.fetcher.FetchItems(ctx, day)
}

// finishFetch applies a completed fetch of generation gen. A stale
// generation is dropped; a failure leaves the loaded items as they are.
func (s *Store) finishFetch(ctx context.Context, gen uint64, day time.Time, err error) {
	if err != nil {
		slog.WarnContext(ctx, "Failed to fetch schedule items, using cached data",
			slog.String("date", domain.FormatDate(day, s.loc)),
			slog.String("error", err.Error()))
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		slog.DebugContext(ctx, "Discarded fetch for a date no longer selected",
			slog.String("date", domain.FormatDate(day, s.loc)))
		return
	}
	if s.pending > 0 {
		s.pending--
	}
	if err == nil {
		s.reloadLocked()
	}
	v := s.publishLocked()
	s.mu.Unlock()

	s.notifier.publish(v)
}

// reload reads the selected day from the repository and publishes it.
func (s *Store) reload() {
	s.mu.Lock()
	s.reloadLocked()
	v := s.publishLocked()
	s.mu.Unlock()

	s.notifier.publish(v)
}

func (s *Store) reloadLocked() {
	s.items = s.repo.Items(s.selected)
}

// publishLocked recomputes the view under a new version and returns it for
// publishing once the lock is released.
func (s *Store) publishLocked() View {
	s.version++
	s.view = buildView(s.version, s.selected, s.mode, s.pending > 0, s.items)
	return s.view
}
