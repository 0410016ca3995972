package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/remote"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/sqlite"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/wire"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.DBConfig{
		Path: filepath.Join(t.TempDir(), "stackit.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func rowOf(userID uuid.UUID, title string, date time.Time, opts ...domain.ItemOption) wire.Row {
	opts = append([]domain.ItemOption{
		domain.WithUser(userID),
		domain.WithCreatedAt(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)),
	}, opts...)
	return wire.FromItem(domain.NewScheduleItem(title, date, opts...), time.UTC)
}

func titles(rows []wire.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), sqlite.DBConfig{})
	assert.Error(t, err)
}

func TestOpen_InMemoryAndReopen(t *testing.T) {
	store, err := sqlite.Open(context.Background(), sqlite.DBConfig{Path: sqlite.MemoryPath})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Migrations are idempotent on an existing file.
	path := filepath.Join(t.TempDir(), "nested", "stackit.db")
	for i := 0; i < 2; i++ {
		s, err := sqlite.Open(context.Background(), sqlite.DBConfig{Path: path})
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
}

func TestFetchDay_Predicate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := uuid.New()

	for _, row := range []wire.Row{
		rowOf(user, "today", day),
		rowOf(user, "yesterday once", day.AddDate(0, 0, -1)),
		rowOf(user, "daily from before", day.AddDate(0, 0, -9), domain.WithRecurrence(domain.RecurrenceEveryDay())),
		rowOf(user, "weekly from before", day.AddDate(0, 0, -9), domain.WithRecurrence(domain.RecurrenceOnWeekdays(4))),
		rowOf(user, "daily from later", day.AddDate(0, 0, 1), domain.WithRecurrence(domain.RecurrenceEveryDay())),
		rowOf(uuid.New(), "someone else", day),
	} {
		require.NoError(t, store.Insert(ctx, row))
	}

	rows, err := store.FetchDay(ctx, user, "2025-03-10")
	require.NoError(t, err)
	// The store selects candidates; the weekday filter runs in the cache.
	assert.ElementsMatch(t, []string{"today", "daily from before", "weekly from before"}, titles(rows))
}

func TestRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := uuid.New()

	start := day.Add(18 * time.Hour)
	row := rowOf(user, "gym", day,
		domain.WithType(domain.ItemTypeEvent),
		domain.WithTimeBlock(start, start.Add(90*time.Minute)),
		domain.WithEstimate(90),
		domain.WithRecurrence(domain.RecurrenceOnWeekdays(2, 4)),
	)
	require.NoError(t, store.Insert(ctx, row))

	rows, err := store.FetchDay(ctx, user, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row, rows[0])
}

func TestInsert_DuplicateIDFails(t *testing.T) {
	store := setupStore(t)
	row := rowOf(uuid.New(), "once", day)

	require.NoError(t, store.Insert(context.Background(), row))
	assert.Error(t, store.Insert(context.Background(), row))
}

func TestUpsert_SetCompletion_Delete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := uuid.New()

	row := rowOf(user, "draft", day)
	require.NoError(t, store.Upsert(ctx, row))
	row.Title = "final"
	require.NoError(t, store.Upsert(ctx, row))

	// A different owner cannot take the row over.
	hijack := row
	other := uuid.NewString()
	hijack.UserID = &other
	hijack.Title = "hijacked"
	require.NoError(t, store.Upsert(ctx, hijack))

	id := uuid.MustParse(row.ID)
	at := day.Add(12 * time.Hour)
	require.NoError(t, store.SetCompletion(ctx, wire.Completion{
		ID: id, UserID: user, IsCompleted: true, CompletedAt: &at, UpdatedAt: at,
	}))

	rows, err := store.FetchDay(ctx, user, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "final", rows[0].Title)
	assert.True(t, rows[0].IsCompleted)
	require.NotNil(t, rows[0].CompletedAt)
	assert.True(t, rows[0].CompletedAt.Equal(at))

	require.NoError(t, store.Delete(ctx, id, uuid.New()))
	rows, err = store.FetchDay(ctx, user, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, store.Delete(ctx, id, user))
	rows, err = store.FetchDay(ctx, user, "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchDay_SkipsCorruptRows(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := uuid.New()

	good := rowOf(user, "good", day)
	bad := rowOf(user, "bad", day)
	require.NoError(t, store.Insert(ctx, good))
	require.NoError(t, store.Insert(ctx, bad))

	_, err := store.DB().ExecContext(ctx,
		`UPDATE schedule_items SET created_at = 'yesterday-ish' WHERE id = ?`, bad.ID)
	require.NoError(t, err)

	rows, err := store.FetchDay(ctx, user, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, titles(rows))
}

// The remote-backed repository against a real database: writes made by one
// repository instance are visible to a fresh instance after a fetch.
func TestRemoteRepository_WriteThroughAndFetch(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := uuid.New()
	cfg := remote.Config{UserID: user, Location: time.UTC}

	writer := remote.New(ctx, store, cfg)
	recurring := domain.NewScheduleItem("standup", day.AddDate(0, 0, -7), domain.WithRecurrence(domain.RecurrenceWorkdays()))
	today := domain.NewScheduleItem("ship", day, domain.WithPriority(domain.PriorityHigh))
	gone := domain.NewScheduleItem("cancelled", day)

	writer.Add(recurring)
	writer.Add(today)
	writer.Add(gone)
	writer.SetCompleted(today.ID, true, day.Add(16*time.Hour))
	writer.Delete(gone.ID)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, writer.Shutdown(shutdownCtx))

	reader := remote.New(ctx, store, cfg)
	t.Cleanup(func() { _ = reader.Shutdown(context.Background()) })

	require.Empty(t, reader.Items(day))
	require.NoError(t, reader.FetchItems(ctx, day))

	items := reader.Items(day)
	require.Len(t, items, 2)

	got, ok := reader.Item(today.ID)
	require.True(t, ok)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(day.Add(16*time.Hour)))
	require.NotNil(t, got.UserID)
	assert.Equal(t, user, *got.UserID)

	// 2025-03-15 is a Saturday: the weekday rule is fetched but filtered out.
	saturday := day.AddDate(0, 0, 5)
	require.NoError(t, reader.FetchItems(ctx, saturday))
	assert.Empty(t, reader.Items(saturday))
}
