package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/ptr"
)

func TestWireDateConversion(t *testing.T) {
	d, err := wireDateToPgtype("2025-03-10")
	require.NoError(t, err)
	assert.True(t, d.Valid)
	assert.Equal(t, "2025-03-10", pgtypeToWireDate(d))

	_, err = wireDateToPgtype("03/10/2025")
	assert.ErrorIs(t, err, domain.ErrInvalidRow)

	assert.Empty(t, pgtypeToWireDate(pgtype.Date{}))
}

func TestUUIDConversion(t *testing.T) {
	id := uuid.New()

	pg, err := uuidStringToPgtype(id.String())
	require.NoError(t, err)
	assert.Equal(t, id.String(), pgtypeToUUIDString(pg))

	_, err = uuidStringToPgtype("nope")
	assert.ErrorIs(t, err, domain.ErrInvalidRow)

	null, err := uuidStringPtrToPgtype(nil)
	require.NoError(t, err)
	assert.False(t, null.Valid)
	assert.Nil(t, pgtypeToUUIDStringPtr(null))
	assert.Empty(t, pgtypeToUUIDString(null))
}

func TestTimeConversion(t *testing.T) {
	local := time.Date(2025, 3, 10, 9, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))

	got := pgtypeToTimePtr(timePtrToPgtype(&local))
	require.NotNil(t, got)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(local))

	assert.Nil(t, pgtypeToTimePtr(timePtrToPgtype(nil)))
	assert.True(t, pgtypeToTime(pgtype.Timestamptz{}).IsZero())
	assert.True(t, pgtypeToTime(timeToPgtype(local)).Equal(local))
}

func TestIntConversion(t *testing.T) {
	assert.Nil(t, pgtypeToIntPtr(intPtrToPgtype(nil)))
	assert.Equal(t, ptr.To(45), pgtypeToIntPtr(intPtrToPgtype(ptr.To(45))))
}

func TestWeekdaysConversion(t *testing.T) {
	assert.Nil(t, weekdaysToDB(nil))
	assert.Nil(t, dbToWeekdays(nil))
	assert.Equal(t, []int32{}, weekdaysToDB([]int{}))
	assert.Equal(t, []int{1, 7}, dbToWeekdays(weekdaysToDB([]int{1, 7})))
}
