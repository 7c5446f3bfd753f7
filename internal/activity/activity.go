package activity

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"adaptlyAPI/internal/apperr"
)

const (
	MaxTitleLength = 100
	MaxNoteLength  = 280

	DefaultTaskXP        = 100
	MaxTaskXP            = 10_000
	FocusSessionXP       = 200
	MoodEntryXP          = 50
	DefaultFocusDuration = 25
	MaxFocusDuration     = 180

	MinMood = 0
	MaxMood = 10
)

type Kind string

const (
	KindTask         Kind = "task"
	KindFocusSession Kind = "focus_session"
	KindMood         Kind = "mood"
	KindLogin        Kind = "login"
)

// Key names one activity in a ledger's applied set. Ids are only unique
// within a kind.
func (k Kind) Key(id string) string {
	return string(k) + ":" + id
}

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusSkipped   TaskStatus = "skipped"
	StatusPostponed TaskStatus = "postponed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusSkipped, StatusPostponed:
		return true
	}
	return false
}

func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped || s == StatusPostponed
}

type Schedule string

const (
	ScheduleToday    Schedule = "today"
	ScheduleTomorrow Schedule = "tomorrow"
)

type Task struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"-"`
	Title        string     `json:"title"`
	Status       TaskStatus `json:"status"`
	ScheduledFor string     `json:"scheduled_for"`
	XP           int64      `json:"xp"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Completed is a projection of Status and is never stored on its own.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return json.Marshal(struct {
		plain
		Completed bool `json:"completed"`
	}{plain(t), t.Completed()})
}

// Transition moves a pending task to a terminal status exactly once.
func (t *Task) Transition(to TaskStatus, at time.Time) error {
	if !to.Terminal() {
		return apperr.InvalidArgument("cannot move task to status %q", to)
	}
	if t.Status != StatusPending {
		return apperr.InvalidArgument("task %s is already %s", t.ID, t.Status)
	}
	t.Status = to
	t.UpdatedAt = &at
	if to == StatusCompleted {
		t.CompletedAt = &at
	}
	return nil
}

type FocusSession struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Duration    int       `json:"duration"`
	XP          int64     `json:"xp"`
	CompletedAt time.Time `json:"completed_at"`
}

type MoodEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Value     int       `json:"value"`
	Note      string    `json:"note,omitempty"`
	XP        int64     `json:"xp"`
	CreatedAt time.Time `json:"created_at"`
}

type Login struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

type CreateTaskRequest struct {
	Title        string   `json:"title"`
	ScheduledFor Schedule `json:"scheduled_for"`
	XP           *int64   `json:"xp,omitempty"`
}

func (r *CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return apperr.InvalidArgument("title is required")
	}
	if utf8.RuneCountInString(r.Title) > MaxTitleLength {
		return apperr.InvalidArgument("title must be at most %d characters", MaxTitleLength)
	}
	switch r.ScheduledFor {
	case "":
		r.ScheduledFor = ScheduleToday
	case ScheduleToday, ScheduleTomorrow:
	default:
		return apperr.InvalidArgument("scheduled_for must be today or tomorrow")
	}
	if r.XP != nil && (*r.XP < 0 || *r.XP > MaxTaskXP) {
		return apperr.InvalidArgument("xp must be between 0 and %d", MaxTaskXP)
	}
	return nil
}

// ScheduledDay resolves the request's schedule to a local calendar date.
func (r *CreateTaskRequest) ScheduledDay(now time.Time) string {
	if r.ScheduledFor == ScheduleTomorrow {
		now = now.AddDate(0, 0, 1)
	}
	return now.Format("2006-01-02")
}

// MaxClientIDLength bounds the optional client-supplied record id used to
// make retried submissions idempotent.
const MaxClientIDLength = 64

func validateClientID(id string) error {
	if len(id) > MaxClientIDLength {
		return apperr.InvalidArgument("id must be at most %d characters", MaxClientIDLength)
	}
	return nil
}

type CompleteFocusRequest struct {
	ID       string `json:"id,omitempty"`
	Duration int    `json:"duration"`
}

func (r *CompleteFocusRequest) Validate() error {
	if err := validateClientID(r.ID); err != nil {
		return err
	}
	if r.Duration == 0 {
		r.Duration = DefaultFocusDuration
	}
	if r.Duration < 1 || r.Duration > MaxFocusDuration {
		return apperr.InvalidArgument("duration must be between 1 and %d minutes", MaxFocusDuration)
	}
	return nil
}

type LogMoodRequest struct {
	ID    string `json:"id,omitempty"`
	Value *int   `json:"value"`
	Note  string `json:"note,omitempty"`
}

func (r *LogMoodRequest) Validate() error {
	if err := validateClientID(r.ID); err != nil {
		return err
	}
	if r.Value == nil {
		return apperr.InvalidArgument("value is required")
	}
	if *r.Value < MinMood || *r.Value > MaxMood {
		return apperr.InvalidArgument("mood value must be between %d and %d", MinMood, MaxMood)
	}
	r.Note = strings.TrimSpace(r.Note)
	if utf8.RuneCountInString(r.Note) > MaxNoteLength {
		return apperr.InvalidArgument("note must be at most %d characters", MaxNoteLength)
	}
	return nil
}
