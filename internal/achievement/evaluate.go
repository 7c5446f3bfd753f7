package achievement

import (
	"time"

	"adaptlyAPI/internal/streak"
)

// Snapshot is the derived state a condition is checked against: ledger
// counters plus the activity instants of each log.
type Snapshot struct {
	XP                     int64
	Level                  int
	TasksCompleted         int
	FocusSessionsCompleted int

	TaskCompletions []time.Time
	FocusSessions   []time.Time
	MoodEntries     []time.Time
	Logins          []time.Time

	Location *time.Location
}

// Satisfied reports whether d's condition holds. Malformed and unknown
// conditions never hold.
func (s *Snapshot) Satisfied(d Definition) bool {
	c := d.Condition
	if c.Value <= 0 {
		return false
	}

	switch c.Type {
	case ConditionTasksCompleted:
		return s.count(s.TasksCompleted, s.TaskCompletions, c.Timeframe) >= c.Value
	case ConditionFocusSessions:
		return s.count(s.FocusSessionsCompleted, s.FocusSessions, c.Timeframe) >= c.Value
	case ConditionLevelReached:
		return s.Level >= c.Value
	case ConditionXPEarned:
		return s.XP >= int64(c.Value)
	case ConditionTaskStreak:
		return streak.Calculate(s.TaskCompletions, s.Location) >= c.Value
	case ConditionMoodStreak:
		return streak.Calculate(s.MoodEntries, s.Location) >= c.Value
	case ConditionLoginStreak:
		return streak.Calculate(s.Logins, s.Location) >= c.Value
	case ConditionSpecial:
		fn, ok := specialFor(d.ID)
		return ok && fn(s, c.Value)
	}
	return false
}

// count applies a timeframe to a counted activity. Without one the ledger
// counter is authoritative; with one the log is bucketed and the best bucket
// wins.
func (s *Snapshot) count(total int, times []time.Time, tf Timeframe) int {
	switch tf {
	case TimeframeNone:
		return total
	case TimeframeDaily:
		return maxBucket(times, func(t time.Time) int {
			return streak.DayOf(t, s.Location).Ordinal()
		})
	case TimeframeWeekly:
		return maxBucket(times, func(t time.Time) int {
			y, w := s.local(t).ISOWeek()
			return y*100 + w
		})
	case TimeframeMonthly:
		return maxBucket(times, func(t time.Time) int {
			lt := s.local(t)
			return lt.Year()*100 + int(lt.Month())
		})
	case TimeframeConsecutive:
		return streak.Calculate(times, s.Location)
	}
	return 0
}

func (s *Snapshot) local(t time.Time) time.Time {
	if s.Location == nil {
		return t
	}
	return t.In(s.Location)
}

func maxBucket(times []time.Time, key func(time.Time) int) int {
	counts := make(map[int]int)
	best := 0
	for _, t := range times {
		k := key(t)
		counts[k]++
		if counts[k] > best {
			best = counts[k]
		}
	}
	return best
}

// Evaluate returns the catalog entries that hold for s and are not in
// unlocked. Entries are checked independently of each other.
func (c *Catalog) Evaluate(s *Snapshot, unlocked func(id string) bool) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if unlocked(d.ID) {
			continue
		}
		if s.Satisfied(d) {
			out = append(out, d)
		}
	}
	return out
}
