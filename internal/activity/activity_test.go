package activity

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptlyAPI/internal/apperr"
)

func TestTaskTransitionIsTerminal(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	task := &Task{ID: "t1", Status: StatusPending}

	require.NoError(t, task.Transition(StatusCompleted, now))
	assert.True(t, task.Completed())
	assert.Equal(t, now, *task.CompletedAt)

	err := task.Transition(StatusSkipped, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.Equal(t, StatusCompleted, task.Status)
}

func TestTaskTransitionRejectsPending(t *testing.T) {
	task := &Task{ID: "t1", Status: StatusPending}
	assert.ErrorIs(t, task.Transition(StatusPending, time.Now()), apperr.ErrInvalidArgument)
}

func TestSkippedTaskIsNotCompleted(t *testing.T) {
	task := &Task{ID: "t1", Status: StatusPending}
	require.NoError(t, task.Transition(StatusPostponed, time.Now()))

	assert.False(t, task.Completed())
	assert.Nil(t, task.CompletedAt)
}

func TestTaskJSONCompletedFollowsStatus(t *testing.T) {
	task := Task{ID: "t1", Title: "write report", Status: StatusCompleted}
	raw, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"completed":true`)

	// A stale completed flag in stored JSON is ignored on decode.
	var decoded Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t2","status":"pending","completed":true}`), &decoded))
	assert.False(t, decoded.Completed())
}

func TestCreateTaskRequestValidate(t *testing.T) {
	req := &CreateTaskRequest{Title: "  plan sprint  "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "plan sprint", req.Title)
	assert.Equal(t, ScheduleToday, req.ScheduledFor)

	long := &CreateTaskRequest{Title: strings.Repeat("é", MaxTitleLength+1)}
	assert.ErrorIs(t, long.Validate(), apperr.ErrInvalidArgument)

	exact := &CreateTaskRequest{Title: strings.Repeat("é", MaxTitleLength)}
	assert.NoError(t, exact.Validate())

	assert.ErrorIs(t, (&CreateTaskRequest{Title: "   "}).Validate(), apperr.ErrInvalidArgument)
	assert.ErrorIs(t, (&CreateTaskRequest{Title: "x", ScheduledFor: "next week"}).Validate(), apperr.ErrInvalidArgument)

	neg := int64(-5)
	assert.ErrorIs(t, (&CreateTaskRequest{Title: "x", XP: &neg}).Validate(), apperr.ErrInvalidArgument)

	huge := int64(math.MaxInt64)
	assert.ErrorIs(t, (&CreateTaskRequest{Title: "x", XP: &huge}).Validate(), apperr.ErrInvalidArgument)
	top := int64(MaxTaskXP)
	assert.NoError(t, (&CreateTaskRequest{Title: "x", XP: &top}).Validate())
}

func TestScheduledDay(t *testing.T) {
	now := time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)

	today := &CreateTaskRequest{ScheduledFor: ScheduleToday}
	tomorrow := &CreateTaskRequest{ScheduledFor: ScheduleTomorrow}

	assert.Equal(t, "2025-12-31", today.ScheduledDay(now))
	assert.Equal(t, "2026-01-01", tomorrow.ScheduledDay(now))
}

func TestFocusAndMoodValidation(t *testing.T) {
	focus := &CompleteFocusRequest{}
	require.NoError(t, focus.Validate())
	assert.Equal(t, DefaultFocusDuration, focus.Duration)
	assert.Error(t, (&CompleteFocusRequest{Duration: 500}).Validate())

	assert.ErrorIs(t, (&LogMoodRequest{}).Validate(), apperr.ErrInvalidArgument)
	eleven := 11
	assert.ErrorIs(t, (&LogMoodRequest{Value: &eleven}).Validate(), apperr.ErrInvalidArgument)
	zero := 0
	assert.NoError(t, (&LogMoodRequest{Value: &zero}).Validate())
}
