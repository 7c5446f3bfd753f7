package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationFocusComplete NotificationType = "focus_complete"
	NotificationAchievement   NotificationType = "achievement_unlocked"
	NotificationLevelUp       NotificationType = "level_up"
)

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	OwnerID   string           `json:"owner_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Data      map[string]any   `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
}

func FocusComplete(ownerID string, minutes int, xp int64, at time.Time) *Notification {
	return &Notification{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Type:    NotificationFocusComplete,
		Title:   "Focus session complete",
		Body:    fmt.Sprintf("%d minutes of focus. +%d XP. Time for a break!", minutes, xp),
		Data: map[string]any{
			"duration": minutes,
			"xp":       xp,
		},
		CreatedAt: at,
	}
}

func AchievementUnlocked(ownerID, achievementID, title string, xp int64, at time.Time) *Notification {
	return &Notification{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Type:    NotificationAchievement,
		Title:   "Achievement unlocked",
		Body:    fmt.Sprintf("%s (+%d XP)", title, xp),
		Data: map[string]any{
			"achievement_id": achievementID,
			"xp":             xp,
		},
		CreatedAt: at,
	}
}

func LevelUp(ownerID string, level int, at time.Time) *Notification {
	return &Notification{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Type:      NotificationLevelUp,
		Title:     "Level up!",
		Body:      fmt.Sprintf("You reached level %d", level),
		Data:      map[string]any{"level": level},
		CreatedAt: at,
	}
}
