package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDay_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on Mar 9 is already Mar 10 in Tokyo
	utc := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, tokyo), StartOfDay(utc, tokyo))
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), StartOfDay(utc, time.UTC))
}

func TestSameDay(t *testing.T) {
	loc := time.UTC
	a := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	b := time.Date(2025, 3, 10, 23, 59, 59, 0, loc)
	c := time.Date(2025, 3, 11, 0, 0, 0, 0, loc)

	assert.True(t, SameDay(a, b, loc))
	assert.False(t, SameDay(b, c, loc))
}

func TestFormatAndParseDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	s := FormatDate(day, loc)
	assert.Equal(t, "2025-03-10", s)

	parsed, err := ParseDate(s, loc)
	require.NoError(t, err)
	assert.True(t, day.Equal(parsed))

	_, err = ParseDate("10/03/2025", loc)
	assert.Error(t, err)
}
