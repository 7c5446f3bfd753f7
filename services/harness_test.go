package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adaptlyAPI/internal/achievement"
	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/notification"
	"adaptlyAPI/internal/storage"
)

var start = time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC)

type harness struct {
	clock        *clock.Manual
	local        storage.Store
	remote       *failingStore
	sessions     *SessionManager
	ledger       *LedgerService
	achievements *AchievementService
	stats        *StatsService
	activities   *ActivityService
	settings     *SettingsService
	leaderboard  *LeaderboardService
	notifier     *recordingNotifier
}

func openStore(t *testing.T, name string) *storage.LocalStore {
	t.Helper()
	s, err := storage.OpenLocal(context.Background(), storage.LocalConfig{Path: filepath.Join(t.TempDir(), name)})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newHarness wires the services over a device store and, when online, a
// second store standing in for the remote backend.
func newHarness(t *testing.T, online bool) *harness {
	t.Helper()
	device := openStore(t, "device.db")
	h := &harness{
		clock:    clock.NewManual(start),
		local:    device,
		notifier: &recordingNotifier{},
	}

	var remote storage.Store
	var ranker storage.Ranker
	if online {
		backend := openStore(t, "remote.db")
		h.remote = &failingStore{Store: backend, failAppend: map[string]bool{}, failReplace: map[string]bool{}}
		remote = h.remote
		ranker = backend
	}

	h.sessions = NewSessionManager(h.local, remote, h.clock)
	h.ledger = NewLedgerService(h.sessions, h.clock)
	h.achievements = NewAchievementService(achievement.MustDefault(), h.ledger, h.sessions, h.clock, time.UTC, h.notifier)
	h.stats = NewStatsService(h.ledger, h.sessions, h.clock, time.UTC, achievement.MustDefault().Len())
	h.activities = NewActivityService(h.sessions, h.ledger, h.achievements, h.stats, h.clock, h.notifier)
	h.settings = NewSettingsService(h.sessions)
	h.leaderboard = NewLeaderboardService(device, ranker, h.ledger, h.settings, 10)
	return h
}

func (h *harness) guest(t *testing.T) identity.Identity {
	t.Helper()
	id, err := h.sessions.BeginGuestSession(context.Background())
	require.NoError(t, err)
	return id
}

// failingStore fails AppendAll or Replace for chosen buckets.
type failingStore struct {
	storage.Store

	mu          sync.Mutex
	failAppend  map[string]bool
	failReplace map[string]bool
}

func (f *failingStore) failOn(bucket storage.Key, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAppend[bucket.String()] = fail
}

func (f *failingStore) failReplaceOn(bucket storage.Key, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReplace[bucket.String()] = fail
}

func (f *failingStore) Replace(ctx context.Context, bucket storage.Key, rec storage.Record) error {
	f.mu.Lock()
	fail := f.failReplace[bucket.String()]
	f.mu.Unlock()
	if fail {
		return apperr.Unavailable("replace record", context.DeadlineExceeded)
	}
	return f.Store.Replace(ctx, bucket, rec)
}

func (f *failingStore) AppendAll(ctx context.Context, bucket storage.Key, recs []storage.Record) error {
	f.mu.Lock()
	fail := f.failAppend[bucket.String()]
	f.mu.Unlock()
	if fail {
		return apperr.Unavailable("append records", context.DeadlineExceeded)
	}
	return f.Store.AppendAll(ctx, bucket, recs)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notification.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, id identity.Identity, n *notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) ofType(typ notification.NotificationType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s.Type == typ {
			n++
		}
	}
	return n
}
