package achievement

import (
	"strconv"
	"strings"
	"time"

	"adaptlyAPI/internal/streak"
)

type specialFunc func(s *Snapshot, value int) bool

var namedSpecials = map[string]specialFunc{
	"night_owl":       nightOwl,
	"early_bird":      earlyBird,
	"weekend_warrior": weekendWarrior,
}

// specialFor resolves the predicate behind a special achievement id.
func specialFor(id string) (specialFunc, bool) {
	if fn, ok := namedSpecials[id]; ok {
		return fn, true
	}
	if n, ok := seriesIndex(id, "special_combo_"); ok && n >= 1 {
		return combo, true
	}
	if n, ok := seriesIndex(id, "seasonal_"); ok && n >= 1 {
		return seasonal(time.Month(seasonStart[(n-1)%4]), (n-1)/4+1), true
	}
	return nil, false
}

func seriesIndex(id, prefix string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// combo: at least value distinct activity kinds on one calendar day.
func combo(s *Snapshot, value int) bool {
	kinds := make(map[int]map[int]struct{})
	mark := func(times []time.Time, kind int) {
		for _, t := range times {
			d := streak.DayOf(t, s.Location).Ordinal()
			if kinds[d] == nil {
				kinds[d] = make(map[int]struct{})
			}
			kinds[d][kind] = struct{}{}
		}
	}
	mark(s.TaskCompletions, 0)
	mark(s.FocusSessions, 1)
	mark(s.MoodEntries, 2)

	for _, set := range kinds {
		if len(set) >= value {
			return true
		}
	}
	return false
}

// First month of spring, summer, autumn and winter.
var seasonStart = [4]int{3, 6, 9, 12}

// seasonal: at least value activities inside the season, in at least rounds
// different years. December counts toward the next year's winter.
func seasonal(start time.Month, rounds int) specialFunc {
	return func(s *Snapshot, value int) bool {
		perYear := make(map[int]int)
		count := func(times []time.Time) {
			for _, t := range times {
				lt := s.local(t)
				year, ok := seasonYear(lt, start)
				if ok {
					perYear[year]++
				}
			}
		}
		count(s.TaskCompletions)
		count(s.FocusSessions)
		count(s.MoodEntries)

		years := 0
		for _, n := range perYear {
			if n >= value {
				years++
			}
		}
		return years >= rounds
	}
}

func seasonYear(t time.Time, start time.Month) (int, bool) {
	m := t.Month()
	for i := 0; i < 3; i++ {
		month := (int(start)-1+i)%12 + 1
		if int(m) != month {
			continue
		}
		if start == time.December && m == time.December {
			return t.Year() + 1, true
		}
		return t.Year(), true
	}
	return 0, false
}

func nightOwl(s *Snapshot, value int) bool {
	n := 0
	for _, t := range s.FocusSessions {
		if s.local(t).Hour() >= 22 {
			n++
		}
	}
	return n >= value
}

func earlyBird(s *Snapshot, value int) bool {
	n := 0
	for _, t := range s.TaskCompletions {
		if s.local(t).Hour() < 8 {
			n++
		}
	}
	return n >= value
}

func weekendWarrior(s *Snapshot, value int) bool {
	return streak.ConsecutiveWeekends(s.TaskCompletions, s.Location) >= value
}
