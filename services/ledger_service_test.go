package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/stats"
	"adaptlyAPI/internal/storage"
)

func TestLedgerStartsFresh(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := identity.Guest("guest_fresh")

	l, err := h.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), l.XP)
	assert.Equal(t, 1, l.Level)

	// Reading does not persist anything.
	_, err = h.local.Get(ctx, storage.Bucket(storage.KindStats, id.ID))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAddXP(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := identity.Guest("guest_xp")

	l, err := h.ledger.AddXP(ctx, id, 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), l.XP)
	assert.Equal(t, 3, l.Level)

	_, err = h.ledger.AddXP(ctx, id, -1)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	l, err = h.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), l.XP)
}

func TestIncrementCounterOncePerActivity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := identity.Guest("guest_counter")

	_, applied, err := h.ledger.IncrementCounter(ctx, id, stats.CounterTasks, "task-1")
	require.NoError(t, err)
	assert.True(t, applied)

	l, applied, err := h.ledger.IncrementCounter(ctx, id, stats.CounterTasks, "task-1")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, l.TasksCompleted)

	_, _, err = h.ledger.IncrementCounter(ctx, id, stats.Counter("bogus"), "task-2")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestConcurrentCreditsAreSerialized(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	id := identity.Guest("guest_race")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := h.ledger.Credit(ctx, id, "focus-"+string(rune('a'+i)), 10, stats.CounterFocusSessions)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	l, err := h.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(200), l.XP)
	assert.Equal(t, 20, l.FocusSessionsCompleted)
}

func TestLedgerRequiresIdentity(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.ledger.Get(context.Background(), identity.Anonymous)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}
