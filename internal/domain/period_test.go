package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2026-07")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2026, Month: time.July}, m)
	assert.Equal(t, "2026-07", m.String())

	for _, bad := range []string{"", "2026", "2026-13", "07-2026", "2026-07-01"} {
		_, err := ParseMonth(bad)
		require.ErrorIs(t, err, ErrInvalidRequest, "input %q", bad)
	}
}

func TestMonthBounds(t *testing.T) {
	m := Month{Year: 2026, Month: time.February}

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), m.Start())
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), m.End())
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), m.LastDay())

	assert.True(t, m.Contains(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.Contains(time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)))
}

func TestMonthOfUsesCalendarFields(t *testing.T) {
	ts := time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, Month{Year: 2026, Month: time.August}, MonthOf(ts))
}
