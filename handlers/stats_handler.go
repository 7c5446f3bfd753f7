package handlers

import (
	"context"
	"net/http"
	"time"

	"adaptlyAPI/internal/stats"
	"adaptlyAPI/services"
)

type StatsHandler struct {
	stats  *services.StatsService
	ledger *services.LedgerService
}

func NewStatsHandler(statsService *services.StatsService, ledger *services.LedgerService) *StatsHandler {
	return &StatsHandler{stats: statsService, ledger: ledger}
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	view, err := h.stats.Get(ctx, id)
	if err != nil {
		respondWithServiceError(w, "GetStats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

type addXPRequest struct {
	Amount int64 `json:"amount"`
}

// AddXP credits a manual amount. The level is recomputed from the new total.
func (h *StatsHandler) AddXP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	var req addXPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	l, err := h.ledger.AddXP(ctx, id, req.Amount)
	if err != nil {
		respondWithServiceError(w, "AddXP", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats.NewUserStats(l))
}
