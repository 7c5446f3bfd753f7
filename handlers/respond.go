package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/middleware"
)

const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrMigrationPending):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError logs err under op and writes the mapped status.
// Internal failures are not echoed to the client.
func respondWithServiceError(w http.ResponseWriter, op string, err error) {
	code := statusFor(err)
	log.Printf("%s: %v", op, err)
	switch code {
	case http.StatusInternalServerError:
		respondWithError(w, code, "Internal server error")
	case http.StatusServiceUnavailable:
		respondWithError(w, code, "Storage unavailable, try again")
	default:
		respondWithError(w, code, err.Error())
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("Invalid request body: %v", err)
	}
	return nil
}

func sessionIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok || id.IsAnonymous() {
		respondWithError(w, http.StatusUnauthorized, "No active session")
		return identity.Anonymous, false
	}
	return id, true
}
