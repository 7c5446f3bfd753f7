package handlers

import (
	"context"
	"net/http"
	"time"

	"adaptlyAPI/internal/settings"
	"adaptlyAPI/services"
)

type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settingsService}
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	current, err := h.settings.Get(ctx, id)
	if err != nil {
		respondWithServiceError(w, "GetSettings", err)
		return
	}
	respondWithJSON(w, http.StatusOK, current)
}

func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	var req settings.UpdateSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.settings.Update(ctx, id, &req)
	if err != nil {
		respondWithServiceError(w, "UpdateSettings", err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}
