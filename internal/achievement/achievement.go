package achievement

import (
	"time"
)

type Category string

const (
	CategoryTasks   Category = "tasks"
	CategoryFocus   Category = "focus"
	CategoryMood    Category = "mood"
	CategoryStreak  Category = "streak"
	CategoryLevel   Category = "level"
	CategoryTime    Category = "time"
	CategorySpecial Category = "special"
)

type Tier string

const (
	TierBronze    Tier = "bronze"
	TierSilver    Tier = "silver"
	TierGold      Tier = "gold"
	TierPlatinum  Tier = "platinum"
	TierDiamond   Tier = "diamond"
	TierLegendary Tier = "legendary"
)

type ConditionType string

const (
	ConditionTasksCompleted ConditionType = "tasks_completed"
	ConditionFocusSessions  ConditionType = "focus_sessions"
	ConditionMoodStreak     ConditionType = "mood_streak"
	ConditionTaskStreak     ConditionType = "task_streak"
	ConditionLevelReached   ConditionType = "level_reached"
	ConditionXPEarned       ConditionType = "xp_earned"
	ConditionLoginStreak    ConditionType = "login_streak"
	ConditionSpecial        ConditionType = "special"
)

type Timeframe string

const (
	TimeframeNone        Timeframe = ""
	TimeframeDaily       Timeframe = "daily"
	TimeframeWeekly      Timeframe = "weekly"
	TimeframeMonthly     Timeframe = "monthly"
	TimeframeConsecutive Timeframe = "consecutive"
)

type Condition struct {
	Type      ConditionType `json:"type"`
	Value     int           `json:"value"`
	Timeframe Timeframe     `json:"timeframe,omitempty"`
}

// Definition is one immutable catalog entry. ID doubles as the unlock
// idempotency key.
type Definition struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Tier        Tier      `json:"tier"`
	Animal      string    `json:"animal"`
	Condition   Condition `json:"condition"`
	XPReward    int64     `json:"xp_reward"`
}

type AchievementWithStatus struct {
	Definition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Unlock is one entry of an evaluation result.
type Unlock struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   Category  `json:"category"`
	Tier       Tier      `json:"tier"`
	XPReward   int64     `json:"xp_reward"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

func NewUnlock(d Definition, at time.Time) Unlock {
	return Unlock{
		ID:         d.ID,
		Title:      d.Title,
		Category:   d.Category,
		Tier:       d.Tier,
		XPReward:   d.XPReward,
		UnlockedAt: at,
	}
}
