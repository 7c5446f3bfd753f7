package handlers

import (
	"context"
	"net/http"
	"time"

	"adaptlyAPI/internal/achievement"
	"adaptlyAPI/services"
)

type AchievementHandler struct {
	achievements *services.AchievementService
}

func NewAchievementHandler(achievements *services.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

type achievementsResponse struct {
	CatalogVersion string                              `json:"catalog_version"`
	Unlocked       int                                 `json:"unlocked"`
	Total          int                                 `json:"total"`
	Achievements   []achievement.AchievementWithStatus `json:"achievements"`
}

func (h *AchievementHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	category := achievement.Category(r.URL.Query().Get("category"))
	items, err := h.achievements.List(ctx, id, category)
	if err != nil {
		respondWithServiceError(w, "ListAchievements", err)
		return
	}

	resp := achievementsResponse{
		CatalogVersion: h.achievements.Catalog().Version,
		Total:          len(items),
		Achievements:   items,
	}
	for _, a := range items {
		if a.Unlocked {
			resp.Unlocked++
		}
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *AchievementHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	unlocked, err := h.achievements.Evaluate(ctx, id)
	if err != nil {
		respondWithServiceError(w, "Evaluate", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"unlocked": unlocked})
}
