package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/stackit/internal/domain"
)

// === pgtype Conversion Helpers ===

// uuidToPgtype converts google/uuid.UUID to pgtype.UUID.
func uuidToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// uuidStringToPgtype parses a wire id into pgtype.UUID.
func uuidStringToPgtype(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%w: %q: %w", domain.ErrInvalidRow, s, err)
	}
	return uuidToPgtype(id), nil
}

// uuidStringPtrToPgtype parses an optional wire id; nil becomes NULL.
func uuidStringPtrToPgtype(s *string) (pgtype.UUID, error) {
	if s == nil {
		return pgtype.UUID{Valid: false}, nil
	}
	return uuidStringToPgtype(*s)
}

// pgtypeToUUIDString converts pgtype.UUID to string (empty if invalid).
func pgtypeToUUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// pgtypeToUUIDStringPtr converts pgtype.UUID to *string (nil if invalid).
func pgtypeToUUIDStringPtr(id pgtype.UUID) *string {
	if !id.Valid {
		return nil
	}
	s := uuid.UUID(id.Bytes).String()
	return &s
}

// timeToPgtype converts time.Time to pgtype.Timestamptz.
func timeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// pgtypeToTime converts pgtype.Timestamptz to time.Time (zero if invalid).
// Always returns time in UTC location for consistent timezone handling.
func pgtypeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// pgtypeToTimePtr converts pgtype.Timestamptz to *time.Time (nil if invalid).
// Always returns time in UTC location for consistent timezone handling.
func pgtypeToTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	utcTime := t.Time.UTC()
	return &utcTime
}

// timePtrToPgtype converts *time.Time to pgtype.Timestamptz.
// For nil pointers, returns NULL (Valid: false) to store NULL in the database.
func timePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// wireDateToPgtype converts a "2006-01-02" wire date to pgtype.Date.
func wireDateToPgtype(s string) (pgtype.Date, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("%w: schedule_date %q: %w", domain.ErrInvalidRow, s, err)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

// pgtypeToWireDate converts pgtype.Date to a "2006-01-02" wire date (empty if invalid).
func pgtypeToWireDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(domain.DateLayout)
}

// intPtrToPgtype converts *int to pgtype.Int4 (NULL for nil).
func intPtrToPgtype(n *int) pgtype.Int4 {
	if n == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(*n), Valid: true}
}

// pgtypeToIntPtr converts pgtype.Int4 to *int (nil if invalid).
func pgtypeToIntPtr(n pgtype.Int4) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

// weekdaysToDB converts wire weekdays to an int[] parameter.
// A nil slice is stored as NULL.
func weekdaysToDB(days []int) []int32 {
	if days == nil {
		return nil
	}
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

// dbToWeekdays converts a scanned int[] column back to wire weekdays.
func dbToWeekdays(days []int32) []int {
	if days == nil {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}
