package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptlyAPI/internal/achievement"
	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/storage"
	"adaptlyAPI/middleware"
	"adaptlyAPI/services"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(ctx context.Context, token string) (string, error) {
	sub, ok := f[token]
	if !ok {
		return "", errors.New("token rejected")
	}
	return sub, nil
}

type testServer struct {
	router   *mux.Router
	sessions *services.SessionManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	local, err := storage.OpenLocal(ctx, storage.LocalConfig{Path: filepath.Join(t.TempDir(), "device.db")})
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })
	remote, err := storage.OpenLocal(ctx, storage.LocalConfig{Path: filepath.Join(t.TempDir(), "remote.db")})
	require.NoError(t, err)
	t.Cleanup(func() { remote.Close() })

	clk := clock.NewManual(time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC))
	catalog := achievement.MustDefault()

	sessions := services.NewSessionManager(local, remote, clk)
	ledger := services.NewLedgerService(sessions, clk)
	achievements := services.NewAchievementService(catalog, ledger, sessions, clk, time.UTC, nil)
	statsService := services.NewStatsService(ledger, sessions, clk, time.UTC, catalog.Len())
	activities := services.NewActivityService(sessions, ledger, achievements, statsService, clk, nil)
	settingsService := services.NewSettingsService(sessions)
	leaderboard := services.NewLeaderboardService(local, remote, ledger, settingsService, 10)

	h := &Handlers{
		Session:      NewSessionHandler(sessions),
		Activity:     NewActivityHandler(activities),
		Stats:        NewStatsHandler(statsService, ledger),
		Achievements: NewAchievementHandler(achievements),
		Leaderboard:  NewLeaderboardHandler(leaderboard),
		Settings:     NewSettingsHandler(settingsService),
	}

	verifier := fakeVerifier{"token-1": "user_1"}
	r := mux.NewRouter()
	h.Register(r, middleware.SessionMiddleware(sessions, verifier), middleware.ClerkAuthMiddleware(verifier))
	return &testServer{router: r, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(apperr.InvalidArgument("bad")))
	assert.Equal(t, http.StatusNotFound, statusFor(apperr.NotFound("gone")))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(apperr.Unavailable("read", errors.New("io"))))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	// A pending migration wraps the storage failure that left it pending.
	pending := apperr.Pending(apperr.Unavailable("append", errors.New("io")))
	assert.Equal(t, http.StatusConflict, statusFor(pending))
}

func TestRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/session", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", decode[map[string]any](t, rec)["identity"].(map[string]any)["kind"])
}

func TestGuestTaskFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/session/guest", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{"title": ""}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "Stretch"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[map[string]any](t, rec)
	assert.Equal(t, false, task["completed"])
	assert.Equal(t, "pending", task["status"])

	rec = s.do(t, http.MethodPost, "/api/v1/tasks/"+task["id"].(string)+"/complete", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[services.ActivityResult](t, rec)
	assert.True(t, res.Task.Completed())
	assert.Equal(t, int64(100), res.XPAwarded)
	assert.Equal(t, 1, res.Stats.TasksCompleted)

	rec = s.do(t, http.MethodPost, "/api/v1/tasks/"+task["id"].(string)+"/skip", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/tasks/missing/complete", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/achievements/evaluate", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]achievement.Unlock](t, rec)["unlocked"])
}

func TestFocusAndMoodRoutes(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/session/guest", nil, "").Code)

	rec := s.do(t, http.MethodPost, "/api/v1/focus-sessions", map[string]any{"duration": 500}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/focus-sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 25, decode[services.ActivityResult](t, rec).FocusSession.Duration)

	rec = s.do(t, http.MethodPost, "/api/v1/moods", map[string]any{"value": 8, "note": "good day"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/moods", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, view["focus_sessions_completed"])
	assert.EqualValues(t, 1, view["mood_entries"])
}

func TestSignInMigratesAndRequiresToken(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/session/guest", nil, "").Code)
	for _, title := range []string{"a", "b", "c"} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/tasks", map[string]any{"title": title}, "").Code)
	}

	rec := s.do(t, http.MethodPost, "/api/v1/session/sign-in", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/session/sign-in", nil, "token-1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["migration"].(map[string]any)["migrated"])

	// Account sessions must present their token.
	rec = s.do(t, http.MethodGet, "/api/v1/tasks", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/tasks", nil, "token-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 3)

	rec = s.do(t, http.MethodPost, "/api/v1/session/migrate", nil, "token-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["migrated"])
}

func TestGuestSignOutNeedsConfirmation(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/session/guest", nil, "").Code)

	rec := s.do(t, http.MethodPost, "/api/v1/session/sign-out", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/session/sign-out", map[string]any{"confirm_data_loss": true}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.sessions.CurrentIdentity().IsAnonymous())
}

func TestSignOutRequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/session/sign-out", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/session/sign-in", nil, "token-1").Code)

	rec = s.do(t, http.MethodPost, "/api/v1/session/sign-out", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, s.sessions.CurrentIdentity().IsAccount())

	rec = s.do(t, http.MethodPost, "/api/v1/session/sign-out", nil, "token-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.sessions.CurrentIdentity().IsAnonymous())
}

func TestSettingsAndLeaderboard(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/session/guest", nil, "").Code)

	rec := s.do(t, http.MethodPut, "/api/v1/settings", map[string]any{"theme_preference": "neon"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/settings", map[string]any{"username": "kai", "focus_duration": 45}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 45, decode[map[string]any](t, rec)["focus_duration"])

	rec = s.do(t, http.MethodPost, "/api/v1/stats/xp", map[string]any{"amount": 1200}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["level"])

	rec = s.do(t, http.MethodGet, "/api/v1/leaderboard?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[map[string]any](t, rec)
	assert.Equal(t, true, board["offline"])
	assert.Equal(t, "kai", board["user_position"].(map[string]any)["username"])

	rec = s.do(t, http.MethodGet, "/api/v1/achievements?category=level", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string]any](t, rec)
	assert.EqualValues(t, 200, list["total"])
}
