package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d, hour int) time.Time {
	return time.Date(2025, time.March, d, hour, 0, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		times []time.Time
		want  int
	}{
		{"empty log", nil, 0},
		{"lone day", []time.Time{day(3, 9)}, 1},
		{"same day twice", []time.Time{day(3, 9), day(3, 21)}, 1},
		{"three consecutive days", []time.Time{day(1, 9), day(2, 9), day(3, 9)}, 3},
		{"gap resets the run", []time.Time{day(1, 9), day(2, 9), day(3, 9), day(5, 9)}, 1},
		{"run after a gap", []time.Time{day(1, 9), day(5, 9), day(6, 9)}, 2},
		{"descending input", []time.Time{day(3, 9), day(2, 9), day(1, 9)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.times, time.UTC))
		})
	}
}

func TestCalculateAppendNextDayIncrements(t *testing.T) {
	log := []time.Time{day(1, 9), day(2, 9)}
	before := Calculate(log, time.UTC)

	assert.Equal(t, before+1, Calculate(append(log, day(3, 10)), time.UTC))
	assert.Equal(t, 1, Calculate(append(log, day(4, 10)), time.UTC))
}

func TestCalculateUsesLocalCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on the 1st is already the 2nd in Tokyo.
	log := []time.Time{
		time.Date(2025, time.March, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 1, 20, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, 1, Calculate(log, time.UTC))
	assert.Equal(t, 2, Calculate(log, tokyo))
}

func TestCalculateIsNotAnchoredToToday(t *testing.T) {
	log := []time.Time{day(1, 9), day(2, 9), day(3, 9)}
	now := day(28, 12)

	assert.Equal(t, 3, Calculate(log, time.UTC))
	assert.Equal(t, 0, Current(log, time.UTC, now))
	assert.Equal(t, 3, Current(log, time.UTC, day(4, 8)))
}

func TestSummarize(t *testing.T) {
	log := []time.Time{day(1, 9), day(2, 9), day(3, 9), day(4, 9), day(10, 9), day(11, 9)}
	s := Summarize(log, time.UTC, day(12, 7))

	assert.Equal(t, 2, s.Run)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 4, s.LongestStreak)
	if assert.NotNil(t, s.LastActiveDay) {
		assert.Equal(t, "2025-03-11", s.LastActiveDay.Format("2006-01-02"))
	}
}

func TestConsecutiveWeekends(t *testing.T) {
	// 2025-03-01 is a Saturday.
	log := []time.Time{
		day(1, 10),  // Sat
		day(9, 10),  // Sun, next weekend
		day(12, 10), // Wed, ignored
		day(15, 10), // Sat, third weekend
	}
	assert.Equal(t, 3, ConsecutiveWeekends(log, time.UTC))

	gap := []time.Time{day(1, 10), day(15, 10)}
	assert.Equal(t, 1, ConsecutiveWeekends(gap, time.UTC))
	assert.Equal(t, 0, ConsecutiveWeekends([]time.Time{day(12, 10)}, time.UTC))
}
