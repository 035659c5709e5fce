package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock pins "now" to 2024-01-20 10:00 UTC for date math tests.
func fixedClock() time.Time {
	return time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
}

func TestValidStartBeforeWindowUnchanged(t *testing.T) {
	cursor := NewDateWindowCursor(14, fixedClock)

	got, err := cursor.ValidStart("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", got)
}

func TestValidStartClampsIntoWindow(t *testing.T) {
	cursor := NewDateWindowCursor(14, fixedClock)

	// Window edge is 2024-01-06; anything at or past it clamps to it.
	for _, date := range []string{"2024-01-06", "2024-01-10", "2024-01-20", "2024-02-01"} {
		got, err := cursor.ValidStart(date)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-06", got, "date %s", date)
	}
}

func TestValidStartIdempotent(t *testing.T) {
	for _, window := range []int{0, 1, 7, 14, 30} {
		cursor := NewDateWindowCursor(window, fixedClock)

		for _, date := range []string{"2023-11-01", "2024-01-05", "2024-01-19", "2024-01-20"} {
			once, err := cursor.ValidStart(date)
			require.NoError(t, err)

			twice, err := cursor.ValidStart(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice, "window %d date %s", window, date)
		}
	}
}

func TestValidStartNeverInsideWindow(t *testing.T) {
	for _, window := range []int{0, 3, 14} {
		cursor := NewDateWindowCursor(window, fixedClock)
		edge := fixedClock().Truncate(24 * time.Hour).AddDate(0, 0, -window).Format("2006-01-02")

		for _, date := range []string{"2023-06-15", "2024-01-01", "2024-01-15", "2024-03-01"} {
			got, err := cursor.ValidStart(date)
			require.NoError(t, err)
			assert.LessOrEqual(t, got, edge, "window %d date %s", window, date)
		}
	}
}

func TestValidStartRejectsMalformedDate(t *testing.T) {
	cursor := NewDateWindowCursor(14, fixedClock)

	_, err := cursor.ValidStart("01/02/2024")
	assert.Error(t, err)
}

func TestAdvanceWalksDayByDay(t *testing.T) {
	cursor := NewDateWindowCursor(14, fixedClock)

	next, done, err := cursor.Advance("2024-01-01", "2024-01-01")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "2024-01-02", next)
}

func TestAdvanceDoneOnToday(t *testing.T) {
	cursor := NewDateWindowCursor(14, fixedClock)

	_, done, err := cursor.Advance("2024-01-20", "2024-01-20")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestAdvanceAcceptsBookmarkWithTimeSuffix(t *testing.T) {
	cursor := NewDateWindowCursor(14, fixedClock)

	_, done, err := cursor.Advance("2024-01-20", "2024-01-20 00:00:00")
	require.NoError(t, err)
	assert.True(t, done)
}

// The walk from any seed date reaches done in exactly today-seed+1 steps.
func TestAdvanceTerminationStepCount(t *testing.T) {
	cursor := NewDateWindowCursor(14, fixedClock)

	cases := []struct {
		seed  string
		steps int
	}{
		{"2024-01-20", 1},
		{"2024-01-19", 2},
		{"2024-01-01", 20},
		{"2023-12-22", 30},
	}

	for _, tc := range cases {
		date := tc.seed
		steps := 0
		for {
			steps++
			require.Less(t, steps, 1000, "walk from %s did not terminate", tc.seed)

			// Empty day: the queried day itself is the observed value.
			next, done, err := cursor.Advance(date, date)
			require.NoError(t, err)
			if done {
				break
			}
			date = next
		}
		assert.Equal(t, tc.steps, steps, "seed %s", tc.seed)
	}
}

func TestAdvanceBookmarkNeverDecreasesWalk(t *testing.T) {
	cursor := NewDateWindowCursor(14, fixedClock)

	prev := "2024-01-01"
	date := "2024-01-01"
	for {
		next, done, err := cursor.Advance(date, date)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, next, prev)
		if done {
			break
		}
		prev = next
		date = next
	}
}
