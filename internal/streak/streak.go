package streak

import (
	"sort"
	"time"
)

// Summary mirrors the streak columns exposed on the stats view.
type Summary struct {
	Run           int        `json:"run"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastActiveDay *time.Time `json:"last_active_day,omitempty"`
}

// Day is a calendar date, independent of time zone once computed.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func DayOf(t time.Time, loc *time.Location) Day {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// Ordinal counts days since 1970-01-01. Consecutive days differ by exactly 1.
func (d Day) Ordinal() int {
	return int(d.Time().Unix() / 86400)
}

func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n), time.UTC)
}

func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

// Calculate walks the activity instants in chronological order and returns the
// length of the final run of consecutive calendar days. A record on the day
// after the previous one extends the run, a second record on the same day
// leaves it unchanged, and any gap restarts it at 1. A lone day is a run of 1;
// an empty log is 0. The result is not anchored to today.
func Calculate(times []time.Time, loc *time.Location) int {
	return runs(ordinals(times, loc)).last
}

// Longest returns the longest run of consecutive days anywhere in the log.
func Longest(times []time.Time, loc *time.Location) int {
	return runs(ordinals(times, loc)).longest
}

// Current is Calculate anchored to today: a run whose last day is before
// yesterday has lapsed and counts as 0.
func Current(times []time.Time, loc *time.Location, now time.Time) int {
	days := ordinals(times, loc)
	if len(days) == 0 {
		return 0
	}
	today := DayOf(now, loc).Ordinal()
	if days[len(days)-1] < today-1 {
		return 0
	}
	return runs(days).last
}

func Summarize(times []time.Time, loc *time.Location, now time.Time) Summary {
	days := ordinals(times, loc)
	r := runs(days)
	s := Summary{
		Run:           r.last,
		CurrentStreak: Current(times, loc, now),
		LongestStreak: r.longest,
	}
	if len(days) > 0 {
		last := time.Unix(int64(days[len(days)-1])*86400, 0).UTC()
		s.LastActiveDay = &last
	}
	return s
}

// ConsecutiveWeekends counts the final run of weekends (Saturday or Sunday)
// with at least one record, walking week by week.
func ConsecutiveWeekends(times []time.Time, loc *time.Location) int {
	var weeks []int
	for _, t := range times {
		if loc != nil {
			t = t.In(loc)
		}
		wd := t.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			continue
		}
		d := DayOf(t, loc)
		// Sunday belongs to the weekend that started the day before.
		if wd == time.Sunday {
			d = d.AddDays(-1)
		}
		weeks = append(weeks, d.Ordinal()/7)
	}
	sort.Ints(weeks)
	return runs(weeks).last
}

type result struct {
	last    int
	longest int
}

// runs expects sorted ordinals and tolerates duplicates.
func runs(sorted []int) result {
	var r result
	for i, v := range sorted {
		switch {
		case i == 0:
			r.last = 1
		case v == sorted[i-1]:
		case v == sorted[i-1]+1:
			r.last++
		default:
			r.last = 1
		}
		if r.last > r.longest {
			r.longest = r.last
		}
	}
	return r
}

func ordinals(times []time.Time, loc *time.Location) []int {
	out := make([]int, 0, len(times))
	for _, t := range times {
		out = append(out, DayOf(t, loc).Ordinal())
	}
	sort.Ints(out)
	return out
}
