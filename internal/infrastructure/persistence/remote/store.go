package remote

import (
	"context"

	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/infrastructure/persistence/wire"
)

// Store is the wire-level client of the authoritative remote table.
// Implementations live in the postgres and sqlite packages.
type Store interface {
	// FetchDay returns the user's rows where schedule_date = day, or
	// recurrence_kind != 'none' and schedule_date <= day. day is "2006-01-02".
	FetchDay(ctx context.Context, userID uuid.UUID, day string) ([]wire.Row, error)

	// Insert creates a row. Inserting an existing id is an error.
	Insert(ctx context.Context, row wire.Row) error

	// Upsert creates or replaces a row by id.
	Upsert(ctx context.Context, row wire.Row) error

	// Delete removes the row with id owned by userID. Missing rows are not an error.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// SetCompletion writes is_completed, completed_at and updated_at of a row.
	SetCompletion(ctx context.Context, c wire.Completion) error
}
