package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/middleware"
	"adaptlyAPI/services"
)

type SessionHandler struct {
	sessions *services.SessionManager
}

func NewSessionHandler(sessions *services.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionResponse struct {
	Identity       identity.Identity         `json:"identity"`
	PendingGuest   string                    `json:"pending_guest_id,omitempty"`
	Offline        bool                      `json:"offline"`
	Migration      *identity.MigrationReport `json:"migration,omitempty"`
	MigrationError string                    `json:"migration_error,omitempty"`
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := sessionResponse{
		Identity: h.sessions.CurrentIdentity(),
		Offline:  h.sessions.Offline(),
	}
	if resp.Identity.IsAccount() {
		marker, err := h.sessions.GuestMarker(ctx)
		if err != nil {
			respondWithServiceError(w, "GetSession", err)
			return
		}
		resp.PendingGuest = marker
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) BeginGuest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.sessions.BeginGuestSession(ctx)
	if err != nil {
		respondWithServiceError(w, "BeginGuest", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sessionResponse{Identity: id, Offline: h.sessions.Offline()})
}

// SignIn runs behind ClerkAuthMiddleware. A failed migration does not undo
// the sign-in; it is reported in the body and can be retried.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, report, err := h.sessions.SignIn(ctx, clerkID)
	if err != nil && (!id.IsAccount() || id.ID != clerkID) {
		respondWithServiceError(w, "SignIn", err)
		return
	}

	resp := sessionResponse{Identity: id, Offline: h.sessions.Offline(), Migration: report}
	if err != nil {
		log.Printf("SignIn: migration into %s incomplete: %v", clerkID, err)
		resp.MigrationError = err.Error()
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	report, err := h.sessions.RetryMigration(ctx)
	if errors.Is(err, apperr.ErrAlreadyMigrated) {
		respondWithJSON(w, http.StatusOK, map[string]any{"migrated": false, "reason": err.Error()})
		return
	}
	if err != nil {
		respondWithServiceError(w, "Migrate", err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

type signOutRequest struct {
	ConfirmDataLoss bool `json:"confirm_data_loss"`
}

func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req signOutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sessions.SignOut(ctx, req.ConfirmDataLoss); err != nil {
		respondWithServiceError(w, "SignOut", err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse{Identity: identity.Anonymous, Offline: h.sessions.Offline()})
}
