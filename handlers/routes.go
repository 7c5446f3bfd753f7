package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Session      *SessionHandler
	Activity     *ActivityHandler
	Stats        *StatsHandler
	Achievements *AchievementHandler
	Leaderboard  *LeaderboardHandler
	Settings     *SettingsHandler
}

// Register mounts the /api/v1 routes on r. requireSession guards everything
// outside /session plus migrate and sign-out; requireToken guards sign-in.
func (h *Handlers) Register(r *mux.Router, requireSession, requireToken mux.MiddlewareFunc) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/session", h.Session.GetSession).Methods(http.MethodGet)

	sessionRouter := api.PathPrefix("/session").Subrouter()
	sessionRouter.HandleFunc("/guest", h.Session.BeginGuest).Methods(http.MethodPost)
	sessionRouter.Handle("/sign-in", requireToken(http.HandlerFunc(h.Session.SignIn))).Methods(http.MethodPost)
	sessionRouter.Handle("/migrate", requireSession(http.HandlerFunc(h.Session.Migrate))).Methods(http.MethodPost)
	sessionRouter.Handle("/sign-out", requireSession(http.HandlerFunc(h.Session.SignOut))).Methods(http.MethodPost)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(requireSession)

	protected.HandleFunc("/tasks", h.Activity.ListTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", h.Activity.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}/complete", h.Activity.CompleteTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}/skip", h.Activity.SkipTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}/postpone", h.Activity.PostponeTask).Methods(http.MethodPost)

	protected.HandleFunc("/focus-sessions", h.Activity.ListFocusSessions).Methods(http.MethodGet)
	protected.HandleFunc("/focus-sessions", h.Activity.CompleteFocusSession).Methods(http.MethodPost)

	protected.HandleFunc("/moods", h.Activity.ListMoods).Methods(http.MethodGet)
	protected.HandleFunc("/moods", h.Activity.LogMood).Methods(http.MethodPost)

	protected.HandleFunc("/stats", h.Stats.GetStats).Methods(http.MethodGet)
	protected.HandleFunc("/stats/xp", h.Stats.AddXP).Methods(http.MethodPost)

	protected.HandleFunc("/achievements", h.Achievements.ListAchievements).Methods(http.MethodGet)
	protected.HandleFunc("/achievements/evaluate", h.Achievements.Evaluate).Methods(http.MethodPost)

	protected.HandleFunc("/leaderboard", h.Leaderboard.GetLeaderboard).Methods(http.MethodGet)

	protected.HandleFunc("/settings", h.Settings.GetSettings).Methods(http.MethodGet)
	protected.HandleFunc("/settings", h.Settings.UpdateSettings).Methods(http.MethodPut)
}
