package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"adaptlyAPI/internal/activity"
	"adaptlyAPI/services"
)

type ActivityHandler struct {
	activities *services.ActivityService
}

func NewActivityHandler(activities *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

func (h *ActivityHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	tasks, err := h.activities.ListTasks(ctx, id)
	if err != nil {
		respondWithServiceError(w, "ListTasks", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *ActivityHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	var req activity.CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.activities.CreateTask(ctx, id, &req)
	if err != nil {
		respondWithServiceError(w, "CreateTask", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

func (h *ActivityHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	res, err := h.activities.CompleteTask(ctx, id, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "CompleteTask", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *ActivityHandler) SkipTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	task, err := h.activities.SkipTask(ctx, id, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "SkipTask", err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (h *ActivityHandler) PostponeTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	task, err := h.activities.PostponeTask(ctx, id, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "PostponeTask", err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (h *ActivityHandler) ListFocusSessions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	sessions, err := h.activities.ListFocusSessions(ctx, id)
	if err != nil {
		respondWithServiceError(w, "ListFocusSessions", err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessions)
}

func (h *ActivityHandler) CompleteFocusSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	var req activity.CompleteFocusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.activities.CompleteFocusSession(ctx, id, &req)
	if err != nil {
		respondWithServiceError(w, "CompleteFocusSession", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *ActivityHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	entries, err := h.activities.ListMoods(ctx, id)
	if err != nil {
		respondWithServiceError(w, "ListMoods", err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (h *ActivityHandler) LogMood(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := sessionIdentity(w, r)
	if !ok {
		return
	}

	var req activity.LogMoodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.activities.LogMood(ctx, id, &req)
	if err != nil {
		respondWithServiceError(w, "LogMood", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}
