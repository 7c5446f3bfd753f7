package stats

import (
	"math"
	"time"

	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/streak"
)

const XPPerLevel = 1000

type Counter string

const (
	CounterTasks         Counter = "tasks_completed"
	CounterFocusSessions Counter = "focus_sessions_completed"
)

// LevelFor is the only source of a ledger's level.
func LevelFor(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(xp/XPPerLevel) + 1
}

type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Ledger is the per-identity aggregate persisted under userStats_<id>.
type Ledger struct {
	XP                     int64                 `json:"xp"`
	Level                  int                   `json:"level"`
	TasksCompleted         int                   `json:"tasks_completed"`
	FocusSessionsCompleted int                   `json:"focus_sessions_completed"`
	Achievements           []UnlockedAchievement `json:"achievements"`
	AppliedActivities      []string              `json:"applied_activities,omitempty"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

func NewLedger() *Ledger {
	return &Ledger{Level: 1, Achievements: []UnlockedAchievement{}}
}

func (l *Ledger) AddXP(amount int64) error {
	if amount < 0 {
		return apperr.InvalidArgument("xp amount must be non-negative, got %d", amount)
	}
	if amount > math.MaxInt64-l.XP {
		return apperr.InvalidArgument("xp amount %d would overflow the ledger total %d", amount, l.XP)
	}
	l.XP += amount
	l.Level = LevelFor(l.XP)
	return nil
}

// Increment bumps a counter once per activity id. It reports false when the
// activity was already applied.
func (l *Ledger) Increment(c Counter, activityID string) (bool, error) {
	if activityID == "" {
		return false, apperr.InvalidArgument("activity id is required")
	}
	if l.HasApplied(activityID) {
		return false, nil
	}
	switch c {
	case CounterTasks:
		l.TasksCompleted++
	case CounterFocusSessions:
		l.FocusSessionsCompleted++
	default:
		return false, apperr.InvalidArgument("unknown counter %q", c)
	}
	l.AppliedActivities = append(l.AppliedActivities, activityID)
	return true, nil
}

// MarkApplied records an activity that credits XP without a counter, such as a
// mood entry.
func (l *Ledger) MarkApplied(activityID string) bool {
	if activityID == "" || l.HasApplied(activityID) {
		return false
	}
	l.AppliedActivities = append(l.AppliedActivities, activityID)
	return true
}

func (l *Ledger) HasApplied(activityID string) bool {
	for _, id := range l.AppliedActivities {
		if id == activityID {
			return true
		}
	}
	return false
}

// Unlock inserts an achievement id once. It reports false for a repeat.
func (l *Ledger) Unlock(id string, at time.Time) bool {
	if l.HasUnlocked(id) {
		return false
	}
	l.Achievements = append(l.Achievements, UnlockedAchievement{ID: id, UnlockedAt: at})
	return true
}

func (l *Ledger) HasUnlocked(id string) bool {
	for _, a := range l.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (l *Ledger) UnlockedAt(id string) (time.Time, bool) {
	for _, a := range l.Achievements {
		if a.ID == id {
			return a.UnlockedAt, true
		}
	}
	return time.Time{}, false
}

// Normalize repairs a decoded ledger: level is recomputed from xp and nil
// slices become empty.
func (l *Ledger) Normalize() {
	if l.XP < 0 {
		l.XP = 0
	}
	l.Level = LevelFor(l.XP)
	if l.Achievements == nil {
		l.Achievements = []UnlockedAchievement{}
	}
}

func (l *Ledger) Clone() *Ledger {
	c := *l
	c.Achievements = append([]UnlockedAchievement(nil), l.Achievements...)
	c.AppliedActivities = append([]string(nil), l.AppliedActivities...)
	return &c
}

// UserStats is the stats view returned to the UI.
type UserStats struct {
	XP                     int64          `json:"xp"`
	Level                  int            `json:"level"`
	XPIntoLevel            int64          `json:"xp_into_level"`
	XPToNextLevel          int64          `json:"xp_to_next_level"`
	TasksCompleted         int            `json:"tasks_completed"`
	FocusSessionsCompleted int            `json:"focus_sessions_completed"`
	MoodEntries            int            `json:"mood_entries"`
	TaskStreak             streak.Summary `json:"task_streak"`
	MoodStreak             streak.Summary `json:"mood_streak"`
	LoginStreak            streak.Summary `json:"login_streak"`
	AchievementsCount      int            `json:"achievements_count"`
	AchievementsTotal      int            `json:"achievements_total"`
}

func NewUserStats(l *Ledger) *UserStats {
	into := l.XP % XPPerLevel
	return &UserStats{
		XP:                     l.XP,
		Level:                  LevelFor(l.XP),
		XPIntoLevel:            into,
		XPToNextLevel:          XPPerLevel - into,
		TasksCompleted:         l.TasksCompleted,
		FocusSessionsCompleted: l.FocusSessionsCompleted,
		AchievementsCount:      len(l.Achievements),
	}
}
