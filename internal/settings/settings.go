package settings

import (
	"strings"
	"unicode/utf8"

	"adaptlyAPI/internal/apperr"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

const (
	DefaultFocusDuration = 25
	DefaultBreakDuration = 5
	MaxDuration          = 180
	MaxUsernameLength    = 40
)

type UserSettings struct {
	Username             string `json:"username"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	FocusDuration        int    `json:"focus_duration"`
	BreakDuration        int    `json:"break_duration"`
	ThemePreference      Theme  `json:"theme_preference"`
	PushToken            string `json:"push_token,omitempty"`
	PushPlatform         string `json:"push_platform,omitempty"`
}

func Default() *UserSettings {
	return &UserSettings{
		NotificationsEnabled: true,
		FocusDuration:        DefaultFocusDuration,
		BreakDuration:        DefaultBreakDuration,
		ThemePreference:      ThemeSystem,
	}
}

func (s *UserSettings) Validate() error {
	s.Username = strings.TrimSpace(s.Username)
	if utf8.RuneCountInString(s.Username) > MaxUsernameLength {
		return apperr.InvalidArgument("username must be at most %d characters", MaxUsernameLength)
	}
	if s.FocusDuration < 1 || s.FocusDuration > MaxDuration {
		return apperr.InvalidArgument("focus_duration must be between 1 and %d", MaxDuration)
	}
	if s.BreakDuration < 1 || s.BreakDuration > MaxDuration {
		return apperr.InvalidArgument("break_duration must be between 1 and %d", MaxDuration)
	}
	switch s.ThemePreference {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return apperr.InvalidArgument("unknown theme %q", s.ThemePreference)
	}
	return nil
}

// UpdateSettingsRequest carries a partial update; nil fields are left alone.
type UpdateSettingsRequest struct {
	Username             *string `json:"username,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	FocusDuration        *int    `json:"focus_duration,omitempty"`
	BreakDuration        *int    `json:"break_duration,omitempty"`
	ThemePreference      *Theme  `json:"theme_preference,omitempty"`
	PushToken            *string `json:"push_token,omitempty"`
	PushPlatform         *string `json:"push_platform,omitempty"`
}

func (r *UpdateSettingsRequest) Apply(s *UserSettings) {
	if r.Username != nil {
		s.Username = *r.Username
	}
	if r.NotificationsEnabled != nil {
		s.NotificationsEnabled = *r.NotificationsEnabled
	}
	if r.FocusDuration != nil {
		s.FocusDuration = *r.FocusDuration
	}
	if r.BreakDuration != nil {
		s.BreakDuration = *r.BreakDuration
	}
	if r.ThemePreference != nil {
		s.ThemePreference = *r.ThemePreference
	}
	if r.PushToken != nil {
		s.PushToken = *r.PushToken
	}
	if r.PushPlatform != nil {
		s.PushPlatform = *r.PushPlatform
	}
}
