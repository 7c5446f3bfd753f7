package services

import (
	"context"
	"log"
	"time"

	"adaptlyAPI/internal/achievement"
	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/metrics"
	"adaptlyAPI/internal/notification"
	"adaptlyAPI/internal/stats"
)

// Notifier delivers a notification to an identity's devices. Delivery is best
// effort and must not block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, id identity.Identity, n *notification.Notification)
}

type AchievementService struct {
	catalog  *achievement.Catalog
	ledger   *LedgerService
	stores   StoreResolver
	clock    clock.Clock
	location *time.Location
	notifier Notifier
}

func NewAchievementService(catalog *achievement.Catalog, ledger *LedgerService, stores StoreResolver, clk clock.Clock, loc *time.Location, notifier Notifier) *AchievementService {
	if loc == nil {
		loc = time.Local
	}
	return &AchievementService{
		catalog:  catalog,
		ledger:   ledger,
		stores:   stores,
		clock:    clk,
		location: loc,
		notifier: notifier,
	}
}

func (s *AchievementService) Catalog() *achievement.Catalog { return s.catalog }

func (s *AchievementService) snapshot(l *stats.Ledger, logs *activityLog) *achievement.Snapshot {
	return &achievement.Snapshot{
		XP:                     l.XP,
		Level:                  l.Level,
		TasksCompleted:         l.TasksCompleted,
		FocusSessionsCompleted: l.FocusSessionsCompleted,
		TaskCompletions:        logs.taskCompletions(),
		FocusSessions:          logs.focusTimes(),
		MoodEntries:            logs.moodTimes(),
		Logins:                 logs.loginTimes(),
		Location:               s.location,
	}
}

// Evaluate unlocks every catalog entry whose condition now holds and credits
// its reward. Rewards can satisfy further xp and level entries, so checking
// repeats until nothing new unlocks; a second call with no new activity
// returns nothing.
func (s *AchievementService) Evaluate(ctx context.Context, id identity.Identity) ([]achievement.Unlock, error) {
	if id.IsAnonymous() {
		return nil, apperr.InvalidArgument("no active identity")
	}
	// The log read below must already include any migrated guest data.
	if err := s.stores.Settle(ctx, id); err != nil {
		return nil, err
	}

	logs, err := loadActivityLog(ctx, s.stores.StoreFor(id), id)
	if err != nil {
		return nil, err
	}

	var (
		unlocked  []achievement.Unlock
		levelFrom int
	)
	after, err := s.ledger.Update(ctx, id, func(l *stats.Ledger) (bool, error) {
		unlocked = unlocked[:0]
		levelFrom = l.Level
		now := s.clock.Now()

		for {
			fresh := s.catalog.Evaluate(s.snapshot(l, logs), l.HasUnlocked)
			if len(fresh) == 0 {
				break
			}
			for _, d := range fresh {
				l.Unlock(d.ID, now)
				if err := l.AddXP(d.XPReward); err != nil {
					return false, err
				}
				unlocked = append(unlocked, achievement.NewUnlock(d, now))
			}
		}
		return len(unlocked) > 0, nil
	})
	if err != nil {
		return nil, err
	}

	for _, u := range unlocked {
		metrics.AchievementsUnlocked.WithLabelValues(string(u.Category)).Inc()
		metrics.XPAwarded.Add(float64(u.XPReward))
		s.notify(ctx, id, notification.AchievementUnlocked(id.ID, u.ID, u.Title, u.XPReward, u.UnlockedAt))
	}
	if len(unlocked) > 0 {
		log.Printf("Evaluate: %s unlocked %d achievements", id.ID, len(unlocked))
	}
	if after.Level > levelFrom {
		s.notify(ctx, id, notification.LevelUp(id.ID, after.Level, s.clock.Now()))
	}

	if unlocked == nil {
		unlocked = []achievement.Unlock{}
	}
	return unlocked, nil
}

func (s *AchievementService) notify(ctx context.Context, id identity.Identity, n *notification.Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, id, n)
}

// List returns the catalog joined with the identity's unlocks, optionally
// restricted to one category.
func (s *AchievementService) List(ctx context.Context, id identity.Identity, category achievement.Category) ([]achievement.AchievementWithStatus, error) {
	var defs []achievement.Definition
	if category == "" {
		defs = s.catalog.All()
	} else {
		if !category.Valid() {
			return nil, apperr.InvalidArgument("unknown category %q", category)
		}
		defs = s.catalog.ByCategory(category)
	}

	l, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]achievement.AchievementWithStatus, 0, len(defs))
	for _, d := range defs {
		item := achievement.AchievementWithStatus{Definition: d}
		if at, ok := l.UnlockedAt(d.ID); ok {
			item.Unlocked = true
			item.UnlockedAt = &at
		}
		out = append(out, item)
	}
	return out, nil
}
