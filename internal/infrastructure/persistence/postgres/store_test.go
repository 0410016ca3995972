package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/wire"
)

// setupStore connects to STACKIT_TEST_DB_DSN, skipping when it is unset.
// Each test uses a fresh user id, so rows never collide between tests.
func setupStore(t *testing.T) (*postgres.Store, uuid.UUID) {
	t.Helper()

	dsn := os.Getenv("STACKIT_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("STACKIT_TEST_DB_DSN not set")
	}

	ctx := context.Background()
	store, err := postgres.NewPostgresStore(ctx, dsn)
	require.NoError(t, err)

	userID := uuid.New()
	t.Cleanup(func() {
		_, _ = store.Pool().Exec(context.Background(), "DELETE FROM schedule_items WHERE user_id = $1", userID)
		_ = store.Close()
	})
	return store, userID
}

func rowOf(t *testing.T, userID uuid.UUID, title, date string, rule domain.RecurrenceRule) wire.Row {
	t.Helper()
	day, err := domain.ParseDate(date, time.UTC)
	require.NoError(t, err)

	item := domain.NewScheduleItem(title, day,
		domain.WithUser(userID),
		domain.WithRecurrence(rule),
		domain.WithCreatedAt(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)),
	)
	return wire.FromItem(item, time.UTC)
}

func titles(rows []wire.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

func TestFetchDay_Predicate(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	for _, row := range []wire.Row{
		rowOf(t, userID, "today", "2025-03-10", domain.RecurrenceOnce()),
		rowOf(t, userID, "yesterday once", "2025-03-09", domain.RecurrenceOnce()),
		rowOf(t, userID, "daily from before", "2025-03-01", domain.RecurrenceEveryDay()),
		rowOf(t, userID, "daily from later", "2025-03-11", domain.RecurrenceEveryDay()),
		rowOf(t, uuid.New(), "someone else", "2025-03-10", domain.RecurrenceOnce()),
	} {
		require.NoError(t, store.Insert(ctx, row))
	}

	rows, err := store.FetchDay(ctx, userID, "2025-03-10")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"today", "daily from before"}, titles(rows))
}

func TestRoundTrip(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	row := rowOf(t, userID, "gym", "2025-03-10", domain.RecurrenceOnWeekdays(2, 4))
	start := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	minutes := 60
	row.ScheduledStart, row.ScheduledEnd, row.EstimatedDurationMinutes = &start, &end, &minutes
	row.ItemType = "event"
	require.NoError(t, store.Insert(ctx, row))

	rows, err := store.FetchDay(ctx, userID, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, row.ID, got.ID)
	assert.Equal(t, "2025-03-10", got.ScheduleDate)
	assert.Equal(t, []int{2, 4}, got.RecurrenceWeekdays)
	assert.Equal(t, "event", got.ItemType)
	require.NotNil(t, got.ScheduledStart)
	assert.True(t, got.ScheduledStart.Equal(start))
	assert.Equal(t, &minutes, got.EstimatedDurationMinutes)
	assert.Nil(t, got.CompletedAt)
}

func TestUpsert_SetCompletion_Delete(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()

	row := rowOf(t, userID, "draft", "2025-03-10", domain.RecurrenceOnce())
	require.NoError(t, store.Upsert(ctx, row))

	row.Title = "final"
	require.NoError(t, store.Upsert(ctx, row))

	id := uuid.MustParse(row.ID)
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetCompletion(ctx, wire.Completion{
		ID: id, UserID: userID, IsCompleted: true, CompletedAt: &at, UpdatedAt: at,
	}))

	rows, err := store.FetchDay(ctx, userID, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "final", rows[0].Title)
	assert.True(t, rows[0].IsCompleted)
	require.NotNil(t, rows[0].CompletedAt)
	assert.True(t, rows[0].CompletedAt.Equal(at))

	// Another user's id cannot delete the row.
	require.NoError(t, store.Delete(ctx, id, uuid.New()))
	rows, err = store.FetchDay(ctx, userID, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, store.Delete(ctx, id, userID))
	rows, err = store.FetchDay(ctx, userID, "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsert_RejectsInvalidRow(t *testing.T) {
	store, userID := setupStore(t)

	row := rowOf(t, userID, "bad", "2025-03-10", domain.RecurrenceOnce())
	row.ScheduleDate = "tomorrow"
	err := store.Insert(context.Background(), row)
	assert.ErrorIs(t, err, domain.ErrInvalidRow)
}
