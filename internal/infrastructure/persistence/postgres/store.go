// Package postgres implements the remote schedule item store on PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezkam/stackit/internal/infrastructure/persistence/remote"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/wire"
)

// Store is the PostgreSQL implementation of remote.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Compile-time verification that Store implements remote.Store.
var _ remote.Store = (*Store)(nil)

// NewStore creates a new PostgreSQL store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const selectColumns = `id, user_id, title, notes, priority, schedule_date,
	scheduled_start, scheduled_end, estimated_duration_minutes, item_type,
	recurrence_kind, recurrence_weekdays, is_completed, completed_at,
	created_at, updated_at`

const fetchDayQuery = `SELECT ` + selectColumns + `
FROM schedule_items
WHERE user_id = $1
  AND (schedule_date = $2 OR (recurrence_kind <> 'none' AND schedule_date <= $2))
ORDER BY schedule_date, scheduled_start NULLS FIRST, id`

const insertQuery = `INSERT INTO schedule_items (` + selectColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// Upserts never move a row to another owner.
const upsertQuery = insertQuery + `
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	notes = EXCLUDED.notes,
	priority = EXCLUDED.priority,
	schedule_date = EXCLUDED.schedule_date,
	scheduled_start = EXCLUDED.scheduled_start,
	scheduled_end = EXCLUDED.scheduled_end,
	estimated_duration_minutes = EXCLUDED.estimated_duration_minutes,
	item_type = EXCLUDED.item_type,
	recurrence_kind = EXCLUDED.recurrence_kind,
	recurrence_weekdays = EXCLUDED.recurrence_weekdays,
	is_completed = EXCLUDED.is_completed,
	completed_at = EXCLUDED.completed_at,
	updated_at = EXCLUDED.updated_at
WHERE schedule_items.user_id = EXCLUDED.user_id`

const deleteQuery = `DELETE FROM schedule_items WHERE id = $1 AND user_id = $2`

const setCompletionQuery = `UPDATE schedule_items
SET is_completed = $3, completed_at = $4, updated_at = $5
WHERE id = $1 AND user_id = $2`

// FetchDay returns the user's rows anchored to day, plus recurring rows
// anchored on or before it.
func (s *Store) FetchDay(ctx context.Context, userID uuid.UUID, day string) ([]wire.Row, error) {
	date, err := wireDateToPgtype(day)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fetchDayQuery, uuidToPgtype(userID), date)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule items: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule items: %w", err)
	}
	return out, nil
}

// Insert creates a row.
func (s *Store) Insert(ctx context.Context, row wire.Row) error {
	args, err := rowArgs(row)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, insertQuery, args...); err != nil {
		return fmt.Errorf("failed to insert schedule item: %w", err)
	}
	return nil
}

// Upsert creates or replaces a row by id.
func (s *Store) Upsert(ctx context.Context, row wire.Row) error {
	args, err := rowArgs(row)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, upsertQuery, args...); err != nil {
		return fmt.Errorf("failed to upsert schedule item: %w", err)
	}
	return nil
}

// Delete removes the user's row with id.
func (s *Store) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, deleteQuery, uuidToPgtype(id), uuidToPgtype(userID)); err != nil {
		return fmt.Errorf("failed to delete schedule item: %w", err)
	}
	return nil
}

// SetCompletion writes the completion columns of the user's row.
func (s *Store) SetCompletion(ctx context.Context, c wire.Completion) error {
	_, err := s.pool.Exec(ctx, setCompletionQuery,
		uuidToPgtype(c.ID),
		uuidToPgtype(c.UserID),
		c.IsCompleted,
		timePtrToPgtype(c.CompletedAt),
		timeToPgtype(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule item completion: %w", err)
	}
	return nil
}

// rowArgs returns the insert parameters of row in selectColumns order.
func rowArgs(row wire.Row) ([]any, error) {
	id, err := uuidStringToPgtype(row.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuidStringPtrToPgtype(row.UserID)
	if err != nil {
		return nil, err
	}
	date, err := wireDateToPgtype(row.ScheduleDate)
	if err != nil {
		return nil, err
	}

	return []any{
		id,
		userID,
		row.Title,
		row.Notes,
		int16(row.Priority),
		date,
		timePtrToPgtype(row.ScheduledStart),
		timePtrToPgtype(row.ScheduledEnd),
		intPtrToPgtype(row.EstimatedDurationMinutes),
		row.ItemType,
		row.RecurrenceKind,
		weekdaysToDB(row.RecurrenceWeekdays),
		row.IsCompleted,
		timePtrToPgtype(row.CompletedAt),
		timeToPgtype(row.CreatedAt),
		timeToPgtype(row.UpdatedAt),
	}, nil
}

func scanRow(rows pgx.CollectableRow) (wire.Row, error) {
	var (
		id, userID           pgtype.UUID
		title, notes         string
		priority             int16
		scheduleDate         pgtype.Date
		start, end           pgtype.Timestamptz
		estimate             pgtype.Int4
		itemType, kind       string
		weekdays             []int32
		isCompleted          bool
		completedAt          pgtype.Timestamptz
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := rows.Scan(
		&id, &userID, &title, &notes, &priority, &scheduleDate,
		&start, &end, &estimate, &itemType,
		&kind, &weekdays, &isCompleted, &completedAt,
		&createdAt, &updatedAt,
	); err != nil {
		return wire.Row{}, err
	}

	return wire.Row{
		ID:                       pgtypeToUUIDString(id),
		UserID:                   pgtypeToUUIDStringPtr(userID),
		Title:                    title,
		Notes:                    notes,
		Priority:                 int(priority),
		ScheduleDate:             pgtypeToWireDate(scheduleDate),
		ScheduledStart:           pgtypeToTimePtr(start),
		ScheduledEnd:             pgtypeToTimePtr(end),
		EstimatedDurationMinutes: pgtypeToIntPtr(estimate),
		ItemType:                 itemType,
		RecurrenceKind:           kind,
		RecurrenceWeekdays:       dbToWeekdays(weekdays),
		IsCompleted:              isCompleted,
		CompletedAt:              pgtypeToTimePtr(completedAt),
		CreatedAt:                pgtypeToTime(createdAt),
		UpdatedAt:                pgtypeToTime(updatedAt),
	}, nil
}
