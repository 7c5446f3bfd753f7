package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adaptlyAPI/internal/activity"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/storage"
)

func listRecords[T any](ctx context.Context, store storage.Store, bucket storage.Key) ([]T, error) {
	recs, err := store.List(ctx, bucket)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s record %s: %w", bucket, rec.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// activityLog is every log of one identity, loaded together.
type activityLog struct {
	Tasks         []activity.Task
	FocusSessions []activity.FocusSession
	MoodEntries   []activity.MoodEntry
	Logins        []activity.Login
}

func loadActivityLog(ctx context.Context, store storage.Store, id identity.Identity) (*activityLog, error) {
	var (
		out activityLog
		err error
	)
	if out.Tasks, err = listRecords[activity.Task](ctx, store, storage.Bucket(storage.KindTasks, id.ID)); err != nil {
		return nil, err
	}
	if out.FocusSessions, err = listRecords[activity.FocusSession](ctx, store, storage.Bucket(storage.KindFocusSessions, id.ID)); err != nil {
		return nil, err
	}
	if out.MoodEntries, err = listRecords[activity.MoodEntry](ctx, store, storage.Bucket(storage.KindMoodEntries, id.ID)); err != nil {
		return nil, err
	}
	if out.Logins, err = listRecords[activity.Login](ctx, store, storage.Bucket(storage.KindLogins, id.ID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *activityLog) taskCompletions() []time.Time {
	var out []time.Time
	for _, t := range l.Tasks {
		if t.Completed() && t.CompletedAt != nil {
			out = append(out, *t.CompletedAt)
		}
	}
	return out
}

func (l *activityLog) focusTimes() []time.Time {
	out := make([]time.Time, 0, len(l.FocusSessions))
	for _, f := range l.FocusSessions {
		out = append(out, f.CompletedAt)
	}
	return out
}

func (l *activityLog) moodTimes() []time.Time {
	out := make([]time.Time, 0, len(l.MoodEntries))
	for _, m := range l.MoodEntries {
		out = append(out, m.CreatedAt)
	}
	return out
}

func (l *activityLog) loginTimes() []time.Time {
	out := make([]time.Time, 0, len(l.Logins))
	for _, in := range l.Logins {
		out = append(out, in.At)
	}
	return out
}
