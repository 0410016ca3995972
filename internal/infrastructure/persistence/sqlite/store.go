// Package sqlite implements the remote schedule item store on SQLite, for
// local development and single-machine deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/remote"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/wire"
)

// Store is the SQLite implementation of remote.Store.
//
// Timestamps are stored as UTC RFC 3339 text, weekdays as a JSON array and
// schedule_date as "2006-01-02" text, which orders correctly as a string.
type Store struct {
	db *sql.DB
}

// Compile-time verification that Store implements remote.Store.
var _ remote.Store = (*Store)(nil)

// NewStore wraps an already migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const columns = `id, user_id, title, notes, priority, schedule_date,
	scheduled_start, scheduled_end, estimated_duration_minutes, item_type,
	recurrence_kind, recurrence_weekdays, is_completed, completed_at,
	created_at, updated_at`

const fetchDayQuery = `SELECT ` + columns + `
FROM schedule_items
WHERE user_id = ?1
  AND (schedule_date = ?2 OR (recurrence_kind <> 'none' AND schedule_date <= ?2))
ORDER BY schedule_date, scheduled_start IS NOT NULL, scheduled_start, id`

const insertQuery = `INSERT INTO schedule_items (` + columns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const upsertQuery = insertQuery + `
ON CONFLICT (id) DO UPDATE SET
	title = excluded.title,
	notes = excluded.notes,
	priority = excluded.priority,
	schedule_date = excluded.schedule_date,
	scheduled_start = excluded.scheduled_start,
	scheduled_end = excluded.scheduled_end,
	estimated_duration_minutes = excluded.estimated_duration_minutes,
	item_type = excluded.item_type,
	recurrence_kind = excluded.recurrence_kind,
	recurrence_weekdays = excluded.recurrence_weekdays,
	is_completed = excluded.is_completed,
	completed_at = excluded.completed_at,
	updated_at = excluded.updated_at
WHERE schedule_items.user_id = excluded.user_id`

// FetchDay returns the user's rows anchored to day, plus recurring rows
// anchored on or before it.
func (s *Store) FetchDay(ctx context.Context, userID uuid.UUID, day string) ([]wire.Row, error) {
	rows, err := s.db.QueryContext(ctx, fetchDayQuery, userID.String(), day)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule items: %w", err)
	}
	defer rows.Close()

	var out []wire.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if errors.Is(err, domain.ErrInvalidRow) {
			// One corrupt row must not hide the rest of the day.
			slog.WarnContext(ctx, "Skipped corrupt schedule item row",
				slog.String("row_id", row.ID),
				slog.String("error", err.Error()))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule item: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedule items: %w", err)
	}
	return out, nil
}

// Insert creates a row.
func (s *Store) Insert(ctx context.Context, row wire.Row) error {
	args, err := rowArgs(row)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertQuery, args...); err != nil {
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
	if _, err := s.db.ExecContext(ctx, upsertQuery, args...); err != nil {
		return fmt.Errorf("failed to upsert schedule item: %w", err)
	}
	return nil
}

// Delete removes the user's row with id.
func (s *Store) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM schedule_items WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete schedule item: %w", err)
	}
	return nil
}

// SetCompletion writes the completion columns of the user's row.
func (s *Store) SetCompletion(ctx context.Context, c wire.Completion) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE schedule_items SET is_completed = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		c.IsCompleted, formatTimePtr(c.CompletedAt), formatTime(c.UpdatedAt),
		c.ID.String(), c.UserID.String())
	if err != nil {
		return fmt.Errorf("failed to update schedule item completion: %w", err)
	}
	return nil
}

func rowArgs(row wire.Row) ([]any, error) {
	var weekdays sql.NullString
	if row.RecurrenceWeekdays != nil {
		b, err := json.Marshal(row.RecurrenceWeekdays)
		if err != nil {
			return nil, fmt.Errorf("failed to encode weekdays: %w", err)
		}
		weekdays = sql.NullString{String: string(b), Valid: true}
	}

	var userID sql.NullString
	if row.UserID != nil {
		userID = sql.NullString{String: *row.UserID, Valid: true}
	}

	var estimate sql.NullInt64
	if row.EstimatedDurationMinutes != nil {
		estimate = sql.NullInt64{Int64: int64(*row.EstimatedDurationMinutes), Valid: true}
	}

	return []any{
		row.ID,
		userID,
		row.Title,
		row.Notes,
		row.Priority,
		row.ScheduleDate,
		formatTimePtr(row.ScheduledStart),
		formatTimePtr(row.ScheduledEnd),
		estimate,
		row.ItemType,
		row.RecurrenceKind,
		weekdays,
		row.IsCompleted,
		formatTimePtr(row.CompletedAt),
		formatTime(row.CreatedAt),
		formatTime(row.UpdatedAt),
	}, nil
}

func scanRow(rows *sql.Rows) (wire.Row, error) {
	var (
		row                  wire.Row
		userID               sql.NullString
		start, end           sql.NullString
		estimate             sql.NullInt64
		weekdays             sql.NullString
		completedAt          sql.NullString
		createdAt, updatedAt string
	)
	if err := rows.Scan(
		&row.ID, &userID, &row.Title, &row.Notes, &row.Priority, &row.ScheduleDate,
		&start, &end, &estimate, &row.ItemType,
		&row.RecurrenceKind, &weekdays, &row.IsCompleted, &completedAt,
		&createdAt, &updatedAt,
	); err != nil {
		return wire.Row{}, err
	}

	if userID.Valid {
		row.UserID = &userID.String
	}
	if estimate.Valid {
		n := int(estimate.Int64)
		row.EstimatedDurationMinutes = &n
	}
	if weekdays.Valid {
		if err := json.Unmarshal([]byte(weekdays.String), &row.RecurrenceWeekdays); err != nil {
			return row, fmt.Errorf("%w: recurrence_weekdays: %w", domain.ErrInvalidRow, err)
		}
	}

	var err error
	if row.ScheduledStart, err = parseTimePtr(start); err != nil {
		return row, err
	}
	if row.ScheduledEnd, err = parseTimePtr(end); err != nil {
		return row, err
	}
	if row.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return row, err
	}
	if row.CreatedAt, err = parseTime(createdAt); err != nil {
		return row, err
	}
	if row.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return row, err
	}
	return row, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", domain.ErrInvalidRow, s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
