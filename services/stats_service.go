package services

import (
	"context"
	"time"

	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/stats"
	"adaptlyAPI/internal/streak"
)

type StatsService struct {
	ledger   *LedgerService
	stores   StoreResolver
	clock    clock.Clock
	location *time.Location
	total    int
}

// NewStatsService builds the stats view source. catalogSize is reported as
// the achievements total.
func NewStatsService(ledger *LedgerService, stores StoreResolver, clk clock.Clock, loc *time.Location, catalogSize int) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{
		ledger:   ledger,
		stores:   stores,
		clock:    clk,
		location: loc,
		total:    catalogSize,
	}
}

// Get returns the ledger enriched with streaks and log-derived counts.
func (s *StatsService) Get(ctx context.Context, id identity.Identity) (*stats.UserStats, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	l, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	logs, err := loadActivityLog(ctx, s.stores.StoreFor(id), id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	view := stats.NewUserStats(l)
	view.MoodEntries = len(logs.MoodEntries)
	view.TaskStreak = streak.Summarize(logs.taskCompletions(), s.location, now)
	view.MoodStreak = streak.Summarize(logs.moodTimes(), s.location, now)
	view.LoginStreak = streak.Summarize(logs.loginTimes(), s.location, now)
	view.AchievementsTotal = s.total
	return view, nil
}
