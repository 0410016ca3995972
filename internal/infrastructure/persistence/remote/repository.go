// Package remote provides the remote-backed schedule item repository: an
// in-memory cache that applies mutations optimistically, writes them through
// to a remote Store in the background, and merges fetched rows back in.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/memory"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/wire"
)

const instrumentationName = "github.com/rezkam/stackit/internal/infrastructure/persistence/remote"

// Default configuration values.
const (
	DefaultOperationTimeout = 10 * time.Second
	DefaultWriteQueueSize   = 256
)

// Config holds configuration for the Repository.
type Config struct {
	UserID           uuid.UUID          // Owner stamped on every written row
	Location         *time.Location     // Zone calendar days are evaluated in (nil: time.Local)
	OperationTimeout time.Duration      // Timeout per background write (0: none)
	WriteQueueSize   int                // Buffer size for pending writes
	MergePolicy      domain.MergePolicy // How fetched rows merge into the cache
}

type repositoryMetrics struct {
	written metric.Int64Counter
	failed  metric.Int64Counter
	dropped metric.Int64Counter
	fetched metric.Int64Counter
	skipped metric.Int64Counter
}

// Repository is the remote-backed schedule item repository.
type Repository struct {
	cache  *memory.Repository
	store  Store
	userID uuid.UUID
	loc    *time.Location
	policy domain.MergePolicy

	appCtx           context.Context // Application context, cancelled on shutdown
	operationTimeout time.Duration
	writes           chan pendingWrite
	shutdownChan     chan struct{}
	shutdownOnce     sync.Once
	wg               sync.WaitGroup

	stateMu sync.RWMutex // guards closed against concurrent enqueue
	closed  bool

	fetches singleflight.Group

	tracer  trace.Tracer
	metrics repositoryMetrics
}

// New creates a remote-backed repository over store and starts the
// background write worker. ctx is the application context; cancelling it
// stops in-flight writes, and Shutdown drains what remains.
//
// Negative OperationTimeout gets the default; zero means no timeout.
// Non-positive WriteQueueSize gets the default.
func New(ctx context.Context, store Store, cfg Config) *Repository {
	if cfg.OperationTimeout < 0 {
		cfg.OperationTimeout = DefaultOperationTimeout
	}
	if cfg.WriteQueueSize <= 0 {
		cfg.WriteQueueSize = DefaultWriteQueueSize
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MergePolicy == "" {
		cfg.MergePolicy = domain.MergeOverwrite
	}

	r := &Repository{
		cache:            memory.New(cfg.Location),
		store:            store,
		userID:           cfg.UserID,
		loc:              cfg.Location,
		policy:           cfg.MergePolicy,
		appCtx:           ctx,
		operationTimeout: cfg.OperationTimeout,
		writes:           make(chan pendingWrite, cfg.WriteQueueSize),
		shutdownChan:     make(chan struct{}),
		tracer:           otel.Tracer(instrumentationName),
		metrics:          newRepositoryMetrics(otel.Meter(instrumentationName)),
	}

	r.wg.Add(1)
	go r.processWrites()

	return r
}

func newRepositoryMetrics(meter metric.Meter) repositoryMetrics {
	// Instrument creation only fails on invalid names; the returned
	// instrument is a usable no-op in that case.
	written, err := meter.Int64Counter("stackit.remote.writes",
		metric.WithDescription("Remote writes applied"))
	logInstrumentError(err)
	failed, err := meter.Int64Counter("stackit.remote.write_failures",
		metric.WithDescription("Remote writes that failed and were dropped"))
	logInstrumentError(err)
	dropped, err := meter.Int64Counter("stackit.remote.writes_dropped",
		metric.WithDescription("Remote writes dropped before reaching the store"))
	logInstrumentError(err)
	fetched, err := meter.Int64Counter("stackit.remote.rows_fetched",
		metric.WithDescription("Rows merged into the cache by fetches"))
	logInstrumentError(err)
	skipped, err := meter.Int64Counter("stackit.remote.rows_skipped",
		metric.WithDescription("Fetched rows skipped because they failed to decode"))
	logInstrumentError(err)

	return repositoryMetrics{
		written: written,
		failed:  failed,
		dropped: dropped,
		fetched: fetched,
		skipped: skipped,
	}
}

func logInstrumentError(err error) {
	if err != nil {
		slog.Warn("Failed to create remote repository instrument", slog.String("error", err.Error()))
	}
}

// UserID returns the owner stamped on written rows.
func (r *Repository) UserID() uuid.UUID {
	return r.userID
}

// Items returns the cached items on date's calendar day.
func (r *Repository) Items(date time.Time) []domain.ScheduleItem {
	return r.cache.Items(date)
}

// Item returns the cached item with id.
func (r *Repository) Item(id uuid.UUID) (domain.ScheduleItem, bool) {
	return r.cache.Item(id)
}

// Add caches item owned by this repository's user and queues a remote
// insert, or an upsert when it overwrote a cached item with the same id.
func (r *Repository) Add(item domain.ScheduleItem) {
	owner := r.userID
	item.UserID = &owner

	op := opInsert
	if r.cache.Put(item) {
		op = opUpsert
	}
	r.enqueue(r.appCtx, pendingWrite{op: op, id: item.ID, row: wire.FromItem(item, r.loc)})
}

// Update replaces the cached item and queues a remote upsert.
// Unknown ids are ignored and never reach the remote store.
func (r *Repository) Update(item domain.ScheduleItem) {
	if !r.cache.UpdateIfExists(item) {
		return
	}
	r.enqueue(r.appCtx, pendingWrite{op: opUpsert, id: item.ID, row: r.ownedRow(item)})
}

// Delete removes the cached item and queues a remote delete.
// Unknown ids are ignored and never reach the remote store.
func (r *Repository) Delete(id uuid.UUID) {
	if !r.cache.DeleteIfExists(id) {
		return
	}
	r.enqueue(r.appCtx, pendingWrite{op: opDelete, id: id})
}

// SetCompleted updates the cached completion state and queues a remote
// completion write. Unknown ids are ignored and never reach the remote store.
func (r *Repository) SetCompleted(id uuid.UUID, completed bool, at time.Time) {
	item, ok := r.cache.SetCompletedIfExists(id, completed, at)
	if !ok {
		return
	}
	r.enqueue(r.appCtx, pendingWrite{op: opComplete, id: id, completion: wire.CompletionOf(item, r.userID)})
}

// ownedRow encodes item with the repository's user as owner.
func (r *Repository) ownedRow(item domain.ScheduleItem) wire.Row {
	row := wire.FromItem(item, r.loc)
	owner := r.userID.String()
	row.UserID = &owner
	return row
}

// FetchItems loads the user's rows for date's calendar day from the remote
// store and merges them into the cache. Cached items absent from the result
// are kept. Rows that fail to decode are skipped.
//
// Concurrent fetches of the same day share one remote query.
// Transport failures are returned wrapped with domain.ErrNetwork.
func (r *Repository) FetchItems(ctx context.Context, date time.Time) error {
	day := domain.FormatDate(date, r.loc)

	_, err, shared := r.fetches.Do(day, func() (any, error) {
		return nil, r.fetchDay(ctx, day)
	})
	if shared {
		slog.DebugContext(ctx, "Joined in-flight remote fetch", slog.String("day", day))
	}
	return err
}

func (r *Repository) fetchDay(ctx context.Context, day string) error {
	ctx, span := r.tracer.Start(ctx, "remote.fetch",
		trace.WithAttributes(attribute.String("day", day)))
	defer span.End()

	rows, err := r.store.FetchDay(ctx, r.userID, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if errors.Is(err, domain.ErrNetwork) {
			return fmt.Errorf("failed to fetch %s: %w", day, err)
		}
		return fmt.Errorf("%w: failed to fetch %s: %w", domain.ErrNetwork, day, err)
	}

	items := make([]domain.ScheduleItem, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		item, err := row.ToItem(r.loc)
		if err != nil {
			skipped++
			slog.WarnContext(ctx, "Skipped undecodable schedule item row",
				slog.String("row_id", row.ID),
				slog.String("error", err.Error()))
			continue
		}
		items = append(items, item)
	}

	merged := r.cache.Merge(items, r.policy)

	r.metrics.fetched.Add(ctx, int64(merged))
	if skipped > 0 {
		r.metrics.skipped.Add(ctx, int64(skipped))
	}
	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("merged", merged),
		attribute.Int("skipped", skipped),
	)
	slog.DebugContext(ctx, "Fetched schedule items from remote store",
		slog.String("day", day),
		slog.Int("rows", len(rows)),
		slog.Int("merged", merged),
		slog.Int("skipped", skipped))

	return nil
}

// Snapshot returns copies of every cached item.
func (r *Repository) Snapshot() []domain.ScheduleItem {
	return r.cache.Snapshot()
}

// Shutdown stops accepting writes and waits for queued writes to reach the
// store, bounded by ctx. It is idempotent.
func (r *Repository) Shutdown(ctx context.Context) error {
	var shutdownErr error
	r.shutdownOnce.Do(func() {
		r.stateMu.Lock()
		r.closed = true
		r.stateMu.Unlock()

		close(r.shutdownChan)

		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = fmt.Errorf("shutdown timeout: %w", ctx.Err())
		}
	})
	return shutdownErr
}

// operationContext derives the context for one background write.
func (r *Repository) operationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if r.operationTimeout > 0 {
		return context.WithTimeout(parent, r.operationTimeout)
	}
	return context.WithCancel(parent)
}
