package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/metrics"
	"adaptlyAPI/internal/stats"
	"adaptlyAPI/internal/storage"
)

// StoreResolver picks the store that holds an identity's namespace.
type StoreResolver interface {
	StoreFor(id identity.Identity) storage.Store
	// Settle must succeed before anything is written for id.
	Settle(ctx context.Context, id identity.Identity) error
}

// LedgerService owns every read-modify-write of a stats ledger. Mutations for
// one identity run one at a time.
type LedgerService struct {
	stores StoreResolver
	clock  clock.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedgerService(stores StoreResolver, clk clock.Clock) *LedgerService {
	return &LedgerService{
		stores: stores,
		clock:  clk,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *LedgerService) lockFor(ownerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ownerID] = l
	}
	return l
}

// Get returns the stored ledger, or a fresh one if the identity has none yet.
func (s *LedgerService) Get(ctx context.Context, id identity.Identity) (*stats.Ledger, error) {
	l, _, err := s.load(ctx, id)
	return l, err
}

func (s *LedgerService) load(ctx context.Context, id identity.Identity) (*stats.Ledger, bool, error) {
	if id.IsAnonymous() {
		return nil, false, apperr.InvalidArgument("no active identity")
	}
	raw, err := s.stores.StoreFor(id).Get(ctx, storage.Bucket(storage.KindStats, id.ID))
	if errors.Is(err, apperr.ErrNotFound) {
		return stats.NewLedger(), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	l := stats.NewLedger()
	if err := json.Unmarshal(raw, l); err != nil {
		return nil, false, fmt.Errorf("failed to decode ledger for %s: %w", id.ID, err)
	}
	l.Normalize()
	return l, true, nil
}

// Update loads the ledger, applies fn to a copy and persists the copy as one
// value. fn reports whether it changed anything; unchanged ledgers are not
// written. On any failure the stored ledger is left as it was.
func (s *LedgerService) Update(ctx context.Context, id identity.Identity, fn func(l *stats.Ledger) (bool, error)) (*stats.Ledger, error) {
	if id.IsAnonymous() {
		return nil, apperr.InvalidArgument("no active identity")
	}
	lock := s.lockFor(id.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.stores.Settle(ctx, id); err != nil {
		return nil, err
	}
	current, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	changed, err := fn(next)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}

	next.Normalize()
	next.UpdatedAt = s.clock.Now()

	raw, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := s.stores.StoreFor(id).Put(ctx, storage.Bucket(storage.KindStats, id.ID), raw); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *LedgerService) AddXP(ctx context.Context, id identity.Identity, amount int64) (*stats.Ledger, error) {
	if amount < 0 {
		return nil, apperr.InvalidArgument("xp amount must be non-negative, got %d", amount)
	}
	l, err := s.Update(ctx, id, func(l *stats.Ledger) (bool, error) {
		if err := l.AddXP(amount); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.XPAwarded.Add(float64(amount))
	return l, nil
}

// IncrementCounter bumps counter once for activityID. Replaying the same
// activity leaves the ledger untouched and reports false.
func (s *LedgerService) IncrementCounter(ctx context.Context, id identity.Identity, counter stats.Counter, activityID string) (*stats.Ledger, bool, error) {
	var applied bool
	l, err := s.Update(ctx, id, func(l *stats.Ledger) (bool, error) {
		var err error
		applied, err = l.Increment(counter, activityID)
		return applied, err
	})
	if err != nil {
		return nil, false, err
	}
	return l, applied, nil
}

// Credit applies an activity's XP and optional counter as one unit, keyed by
// the activity id.
func (s *LedgerService) Credit(ctx context.Context, id identity.Identity, activityID string, xp int64, counter stats.Counter) (*stats.Ledger, bool, error) {
	if xp < 0 {
		return nil, false, apperr.InvalidArgument("xp amount must be non-negative, got %d", xp)
	}

	var applied bool
	l, err := s.Update(ctx, id, func(l *stats.Ledger) (bool, error) {
		if counter != "" {
			ok, err := l.Increment(counter, activityID)
			if err != nil {
				return false, err
			}
			applied = ok
		} else {
			applied = l.MarkApplied(activityID)
		}
		if !applied {
			return false, nil
		}
		return true, l.AddXP(xp)
	})
	if err != nil {
		return nil, false, err
	}
	if applied {
		metrics.XPAwarded.Add(float64(xp))
	}
	return l, applied, nil
}
