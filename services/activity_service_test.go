package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptlyAPI/internal/achievement"
	"adaptlyAPI/internal/activity"
	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/notification"
	"adaptlyAPI/internal/storage"
)

func createTask(t *testing.T, h *harness, id identity.Identity, title string) *activity.Task {
	t.Helper()
	task, err := h.activities.CreateTask(context.Background(), id, &activity.CreateTaskRequest{Title: title})
	require.NoError(t, err)
	return task
}

func rewardOf(unlocked []achievement.Unlock) int64 {
	var sum int64
	for _, u := range unlocked {
		sum += u.XPReward
	}
	return sum
}

func TestCompletingFiveTasksUnlocksNoviceOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := h.guest(t)

	before, err := h.ledger.Get(ctx, id)
	require.NoError(t, err)

	var unlocked []achievement.Unlock
	for i := 0; i < 5; i++ {
		task := createTask(t, h, id, "task")
		h.clock.Advance(time.Minute)
		res, err := h.activities.CompleteTask(ctx, id, task.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(activity.DefaultTaskXP), res.XPAwarded)
		unlocked = append(unlocked, res.Unlocked...)
	}

	novice := 0
	for _, u := range unlocked {
		if u.ID == "task_novice_1" {
			novice++
		}
	}
	assert.Equal(t, 1, novice)

	l, err := h.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, l.TasksCompleted)
	assert.Equal(t, before.XP+5*activity.DefaultTaskXP+rewardOf(unlocked), l.XP)
	assert.True(t, l.HasUnlocked("task_novice_1"))

	again, err := h.achievements.Evaluate(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestCompleteTaskTwiceCreditsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := h.guest(t)
	task := createTask(t, h, id, "write report")

	first, err := h.activities.CompleteTask(ctx, id, task.ID)
	require.NoError(t, err)
	second, err := h.activities.CompleteTask(ctx, id, task.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(0), second.XPAwarded)
	assert.Empty(t, second.Unlocked)
	assert.Equal(t, first.Stats.XP, second.Stats.XP)
	assert.Equal(t, 1, second.Stats.TasksCompleted)
	assert.True(t, second.Task.Completed())
}

func TestSkippedAndPostponedTasksDoNotCount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := h.guest(t)

	done := createTask(t, h, id, "done")
	skipped := createTask(t, h, id, "skipped")
	postponed := createTask(t, h, id, "postponed")

	_, err := h.activities.CompleteTask(ctx, id, done.ID)
	require.NoError(t, err)
	_, err = h.activities.SkipTask(ctx, id, skipped.ID)
	require.NoError(t, err)
	_, err = h.activities.PostponeTask(ctx, id, postponed.ID)
	require.NoError(t, err)

	_, err = h.activities.CompleteTask(ctx, id, skipped.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	view, err := h.stats.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TasksCompleted)

	tasks, err := h.activities.ListTasks(ctx, id)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, activity.StatusCompleted, tasks[0].Status)
	assert.Equal(t, activity.StatusSkipped, tasks[1].Status)
	assert.Equal(t, activity.StatusPostponed, tasks[2].Status)
}

func TestCompleteUnknownTask(t *testing.T) {
	h := newHarness(t, false)
	id := h.guest(t)

	_, err := h.activities.CompleteTask(context.Background(), id, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateTaskSchedulesTomorrow(t *testing.T) {
	h := newHarness(t, false)
	id := h.guest(t)

	task, err := h.activities.CreateTask(context.Background(), id, &activity.CreateTaskRequest{Title: "plan", ScheduledFor: activity.ScheduleTomorrow})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-06", task.ScheduledFor)
	assert.Equal(t, int64(activity.DefaultTaskXP), task.XP)
}

func TestActivitiesRequireIdentity(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.activities.CreateTask(context.Background(), identity.Anonymous, &activity.CreateTaskRequest{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestFocusSessionRetryWithClientID(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := h.guest(t)

	req := &activity.CompleteFocusRequest{ID: "focus-1", Duration: 30}
	first, err := h.activities.CompleteFocusSession(ctx, id, req)
	require.NoError(t, err)
	assert.Equal(t, int64(activity.FocusSessionXP), first.XPAwarded)

	retry, err := h.activities.CompleteFocusSession(ctx, id, &activity.CompleteFocusRequest{ID: "focus-1", Duration: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(0), retry.XPAwarded)

	sessions, err := h.activities.ListFocusSessions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, 1, retry.Stats.FocusSessionsCompleted)
	assert.Equal(t, 1, h.notifier.ofType(notification.NotificationFocusComplete))
}

func TestFocusSessionDefaultsDuration(t *testing.T) {
	h := newHarness(t, false)
	id := h.guest(t)

	res, err := h.activities.CompleteFocusSession(context.Background(), id, &activity.CompleteFocusRequest{})
	require.NoError(t, err)
	assert.Equal(t, activity.DefaultFocusDuration, res.FocusSession.Duration)
}

func TestLogMood(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := h.guest(t)

	for _, v := range []int{-1, 11} {
		value := v
		_, err := h.activities.LogMood(ctx, id, &activity.LogMoodRequest{Value: &value})
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	}
	_, err := h.activities.LogMood(ctx, id, &activity.LogMoodRequest{})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	value := 7
	res, err := h.activities.LogMood(ctx, id, &activity.LogMoodRequest{Value: &value, Note: "  calm  "})
	require.NoError(t, err)
	assert.Equal(t, "calm", res.MoodEntry.Note)
	assert.Equal(t, int64(activity.MoodEntryXP), res.XPAwarded)
	assert.Equal(t, 1, res.Stats.MoodEntries)
	assert.Equal(t, 1, res.Stats.MoodStreak.CurrentStreak)
}

func TestFailedTaskRewriteCannotBeSkipped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	account, _, err := h.sessions.SignIn(ctx, "user_20")
	require.NoError(t, err)

	skipped := createTask(t, h, account, "skip after failure")
	retried := createTask(t, h, account, "complete after failure")
	tasks := storage.Bucket(storage.KindTasks, account.ID)

	h.remote.failReplaceOn(tasks, true)
	_, err = h.activities.CompleteTask(ctx, account, skipped.ID)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	_, err = h.activities.CompleteTask(ctx, account, retried.ID)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)

	credited, err := h.ledger.Get(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, 2, credited.TasksCompleted)

	h.remote.failReplaceOn(tasks, false)

	_, err = h.activities.SkipTask(ctx, account, skipped.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = h.activities.PostponeTask(ctx, account, skipped.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	res, err := h.activities.CompleteTask(ctx, account, retried.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.XPAwarded)
	assert.Equal(t, activity.StatusCompleted, res.Task.Status)

	list, err := h.activities.ListTasks(ctx, account)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, task := range list {
		assert.Equal(t, activity.StatusCompleted, task.Status, task.Title)
	}

	l, err := h.ledger.Get(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, 2, l.TasksCompleted)
	assert.Equal(t, credited.XP+rewardOf(res.Unlocked), l.XP)
}

func TestActivityIDsAreScopedByKind(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := h.guest(t)

	focus, err := h.activities.CompleteFocusSession(ctx, id, &activity.CompleteFocusRequest{ID: "shared-1", Duration: 25})
	require.NoError(t, err)
	assert.Equal(t, int64(activity.FocusSessionXP), focus.XPAwarded)

	value := 8
	mood, err := h.activities.LogMood(ctx, id, &activity.LogMoodRequest{ID: "shared-1", Value: &value})
	require.NoError(t, err)
	assert.Equal(t, int64(activity.MoodEntryXP), mood.XPAwarded)
	assert.Equal(t, 1, mood.Stats.MoodEntries)

	l, err := h.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, l.HasApplied(activity.KindFocusSession.Key("shared-1")))
	assert.True(t, l.HasApplied(activity.KindMood.Key("shared-1")))
}
