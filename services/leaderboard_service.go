package services

import (
	"context"
	"errors"
	"log"

	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/leaderboard"
	"adaptlyAPI/internal/storage"
)

const DefaultLeaderboardSize = 10

type LeaderboardService struct {
	local    storage.Ranker
	remote   storage.Ranker
	ledger   *LedgerService
	settings *SettingsService
	size     int
}

// NewLeaderboardService ranks guests over the device store and accounts over
// the remote store. Either ranker may be nil; without one the caller's own
// entry is all that is shown.
func NewLeaderboardService(local, remote storage.Ranker, ledger *LedgerService, settingsService *SettingsService, size int) *LeaderboardService {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &LeaderboardService{
		local:    local,
		remote:   remote,
		ledger:   ledger,
		settings: settingsService,
		size:     size,
	}
}

func (s *LeaderboardService) rankerFor(id identity.Identity) (storage.Ranker, bool) {
	if id.IsAccount() && s.remote != nil {
		return s.remote, false
	}
	return s.local, true
}

func (s *LeaderboardService) Get(ctx context.Context, id identity.Identity, limit int) (*leaderboard.Leaderboard, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.size {
		limit = s.size
	}

	ranker, offline := s.rankerFor(id)
	if ranker == nil {
		return s.ownOnly(ctx, id)
	}

	rows, total, err := ranker.TopByXP(ctx, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrStorageUnavailable) {
			log.Printf("Leaderboard: ranking unavailable, serving own entry: %v", err)
			return s.ownOnly(ctx, id)
		}
		return nil, err
	}

	board := &leaderboard.Leaderboard{
		Entries:    make([]*leaderboard.LeaderboardEntry, 0, len(rows)),
		TotalUsers: total,
		Offline:    offline,
	}
	for i, row := range rows {
		entry := &leaderboard.LeaderboardEntry{
			UserID:   row.OwnerID,
			Username: row.Username,
			XP:       row.XP,
			Level:    row.Level,
			Rank:     i + 1,
			IsYou:    row.OwnerID == id.ID,
		}
		board.Entries = append(board.Entries, entry)
		if entry.IsYou {
			board.UserPosition = entry
		}
	}
	if board.UserPosition == nil {
		own, err := s.ownEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		board.UserPosition = own
	}
	return board, nil
}

func (s *LeaderboardService) ownOnly(ctx context.Context, id identity.Identity) (*leaderboard.Leaderboard, error) {
	own, err := s.ownEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	own.Rank = 1
	return &leaderboard.Leaderboard{
		Entries:      []*leaderboard.LeaderboardEntry{own},
		UserPosition: own,
		TotalUsers:   1,
		Offline:      true,
	}, nil
}

// ownEntry has no rank when the caller sits outside the listed rows.
func (s *LeaderboardService) ownEntry(ctx context.Context, id identity.Identity) (*leaderboard.LeaderboardEntry, error) {
	l, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prefs, err := s.settings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &leaderboard.LeaderboardEntry{
		UserID:   id.ID,
		Username: prefs.Username,
		XP:       l.XP,
		Level:    l.Level,
		IsYou:    true,
	}, nil
}
