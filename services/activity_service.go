package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"adaptlyAPI/internal/achievement"
	"adaptlyAPI/internal/activity"
	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/metrics"
	"adaptlyAPI/internal/notification"
	"adaptlyAPI/internal/stats"
	"adaptlyAPI/internal/storage"

	"github.com/google/uuid"
)

// ActivityResult is what a recorded activity produced: the record, the ledger
// after crediting it and any achievements it unlocked.
type ActivityResult struct {
	Task         *activity.Task         `json:"task,omitempty"`
	FocusSession *activity.FocusSession `json:"focus_session,omitempty"`
	MoodEntry    *activity.MoodEntry    `json:"mood_entry,omitempty"`
	XPAwarded    int64                  `json:"xp_awarded"`
	Stats        *stats.UserStats       `json:"stats"`
	Unlocked     []achievement.Unlock   `json:"unlocked"`
}

type ActivityService struct {
	stores       StoreResolver
	ledger       *LedgerService
	achievements *AchievementService
	stats        *StatsService
	clock        clock.Clock
	notifier     Notifier
}

func NewActivityService(stores StoreResolver, ledger *LedgerService, achievements *AchievementService, statsService *StatsService, clk clock.Clock, notifier Notifier) *ActivityService {
	return &ActivityService{
		stores:       stores,
		ledger:       ledger,
		achievements: achievements,
		stats:        statsService,
		clock:        clk,
		notifier:     notifier,
	}
}

func requireIdentity(id identity.Identity) error {
	if id.IsAnonymous() {
		return apperr.InvalidArgument("no active identity")
	}
	return nil
}

// requireWritable also settles a pending guest migration into id.
func requireWritable(ctx context.Context, stores StoreResolver, id identity.Identity) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	return stores.Settle(ctx, id)
}

func (s *ActivityService) CreateTask(ctx context.Context, id identity.Identity, req *activity.CreateTaskRequest) (*activity.Task, error) {
	if err := requireWritable(ctx, s.stores, id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	xp := int64(activity.DefaultTaskXP)
	if req.XP != nil {
		xp = *req.XP
	}
	task := &activity.Task{
		ID:           uuid.NewString(),
		OwnerID:      id.ID,
		Title:        req.Title,
		Status:       activity.StatusPending,
		ScheduledFor: req.ScheduledDay(s.localNow()),
		XP:           xp,
		CreatedAt:    now,
	}

	rec, err := storage.NewRecord(task.ID, task, now)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task: %w", err)
	}
	if err := s.stores.StoreFor(id).Append(ctx, storage.Bucket(storage.KindTasks, id.ID), rec); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *ActivityService) localNow() time.Time {
	return s.clock.Now().In(s.achievements.location)
}

func (s *ActivityService) ListTasks(ctx context.Context, id identity.Identity) ([]activity.Task, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	tasks, err := listRecords[activity.Task](ctx, s.stores.StoreFor(id), storage.Bucket(storage.KindTasks, id.ID))
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].OwnerID = id.ID
	}
	return tasks, nil
}

func (s *ActivityService) findTask(ctx context.Context, id identity.Identity, taskID string) (*activity.Task, error) {
	tasks, err := s.ListTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == taskID {
			return &tasks[i], nil
		}
	}
	return nil, apperr.NotFound("task %s not found", taskID)
}

func (s *ActivityService) saveTask(ctx context.Context, id identity.Identity, task *activity.Task) error {
	rec, err := storage.NewRecord(task.ID, task, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}
	return s.stores.StoreFor(id).Replace(ctx, storage.Bucket(storage.KindTasks, id.ID), rec)
}

// CompleteTask credits the task's xp and the task counter exactly once, then
// evaluates achievements. Completing an already completed task changes
// nothing.
func (s *ActivityService) CompleteTask(ctx context.Context, id identity.Identity, taskID string) (*ActivityResult, error) {
	if err := requireWritable(ctx, s.stores, id); err != nil {
		return nil, err
	}
	task, err := s.findTask(ctx, id, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status == activity.StatusCompleted {
		view, err := s.stats.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &ActivityResult{Task: task, Stats: view, Unlocked: []achievement.Unlock{}}, nil
	}
	if err := task.Transition(activity.StatusCompleted, s.clock.Now()); err != nil {
		return nil, err
	}

	// The ledger is credited before the task is rewritten. After a failed
	// rewrite the task is still pending with its credit applied: completing
	// again only rewrites it, and closeTask refuses to skip it.
	_, applied, err := s.ledger.Credit(ctx, id, activity.KindTask.Key(task.ID), task.XP, stats.CounterTasks)
	if err != nil {
		return nil, err
	}
	if err := s.saveTask(ctx, id, task); err != nil {
		return nil, err
	}

	res := &ActivityResult{Task: task}
	if applied {
		res.XPAwarded = task.XP
		metrics.ActivitiesRecorded.WithLabelValues(string(activity.KindTask)).Inc()
	}
	return s.finish(ctx, id, res)
}

func (s *ActivityService) SkipTask(ctx context.Context, id identity.Identity, taskID string) (*activity.Task, error) {
	return s.closeTask(ctx, id, taskID, activity.StatusSkipped)
}

func (s *ActivityService) PostponeTask(ctx context.Context, id identity.Identity, taskID string) (*activity.Task, error) {
	return s.closeTask(ctx, id, taskID, activity.StatusPostponed)
}

// closeTask ends a task without credit. A pending task whose credit was
// already applied was completed, not skipped; its rewrite is finished and the
// transition refused.
func (s *ActivityService) closeTask(ctx context.Context, id identity.Identity, taskID string, to activity.TaskStatus) (*activity.Task, error) {
	if err := requireWritable(ctx, s.stores, id); err != nil {
		return nil, err
	}
	task, err := s.findTask(ctx, id, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == to {
		return task, nil
	}

	if task.Status == activity.StatusPending {
		l, err := s.ledger.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if l.HasApplied(activity.KindTask.Key(task.ID)) {
			if err := task.Transition(activity.StatusCompleted, s.clock.Now()); err != nil {
				return nil, err
			}
			if err := s.saveTask(ctx, id, task); err != nil {
				return nil, err
			}
			return nil, apperr.InvalidArgument("task %s is already completed", task.ID)
		}
	}

	if err := task.Transition(to, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.saveTask(ctx, id, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *ActivityService) CompleteFocusSession(ctx context.Context, id identity.Identity, req *activity.CompleteFocusRequest) (*ActivityResult, error) {
	if err := requireWritable(ctx, s.stores, id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &activity.FocusSession{
		ID:          req.ID,
		OwnerID:     id.ID,
		Duration:    req.Duration,
		XP:          activity.FocusSessionXP,
		CompletedAt: now,
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	rec, err := storage.NewRecord(session.ID, session, now)
	if err != nil {
		return nil, fmt.Errorf("failed to encode focus session: %w", err)
	}
	if err := s.stores.StoreFor(id).Append(ctx, storage.Bucket(storage.KindFocusSessions, id.ID), rec); err != nil {
		return nil, err
	}

	_, applied, err := s.ledger.Credit(ctx, id, activity.KindFocusSession.Key(session.ID), session.XP, stats.CounterFocusSessions)
	if err != nil {
		return nil, err
	}

	res := &ActivityResult{FocusSession: session}
	if applied {
		res.XPAwarded = session.XP
		metrics.ActivitiesRecorded.WithLabelValues(string(activity.KindFocusSession)).Inc()
		if s.notifier != nil {
			s.notifier.Notify(ctx, id, notification.FocusComplete(id.ID, session.Duration, session.XP, now))
		}
	}
	return s.finish(ctx, id, res)
}

func (s *ActivityService) ListFocusSessions(ctx context.Context, id identity.Identity) ([]activity.FocusSession, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	sessions, err := listRecords[activity.FocusSession](ctx, s.stores.StoreFor(id), storage.Bucket(storage.KindFocusSessions, id.ID))
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].OwnerID = id.ID
	}
	return sessions, nil
}

func (s *ActivityService) LogMood(ctx context.Context, id identity.Identity, req *activity.LogMoodRequest) (*ActivityResult, error) {
	if err := requireWritable(ctx, s.stores, id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entry := &activity.MoodEntry{
		ID:        req.ID,
		OwnerID:   id.ID,
		Value:     *req.Value,
		Note:      req.Note,
		XP:        activity.MoodEntryXP,
		CreatedAt: now,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	rec, err := storage.NewRecord(entry.ID, entry, now)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mood entry: %w", err)
	}
	if err := s.stores.StoreFor(id).Append(ctx, storage.Bucket(storage.KindMoodEntries, id.ID), rec); err != nil {
		return nil, err
	}

	_, applied, err := s.ledger.Credit(ctx, id, activity.KindMood.Key(entry.ID), entry.XP, "")
	if err != nil {
		return nil, err
	}

	res := &ActivityResult{MoodEntry: entry}
	if applied {
		res.XPAwarded = entry.XP
		metrics.ActivitiesRecorded.WithLabelValues(string(activity.KindMood)).Inc()
	}
	return s.finish(ctx, id, res)
}

func (s *ActivityService) ListMoods(ctx context.Context, id identity.Identity) ([]activity.MoodEntry, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	entries, err := listRecords[activity.MoodEntry](ctx, s.stores.StoreFor(id), storage.Bucket(storage.KindMoodEntries, id.ID))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].OwnerID = id.ID
	}
	return entries, nil
}

// finish evaluates achievements after a recorded activity. The activity is
// already durable, so an evaluation failure is logged and retried by the
// next evaluation rather than failing the request.
func (s *ActivityService) finish(ctx context.Context, id identity.Identity, res *ActivityResult) (*ActivityResult, error) {
	unlocked, err := s.achievements.Evaluate(ctx, id)
	if err != nil {
		if !errors.Is(err, apperr.ErrStorageUnavailable) {
			return nil, err
		}
		log.Printf("Evaluate: failed for %s after activity: %v", id.ID, err)
		unlocked = []achievement.Unlock{}
	}
	res.Unlocked = unlocked

	view, err := s.stats.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Stats = view
	return res, nil
}
