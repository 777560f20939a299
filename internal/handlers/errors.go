package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gymdesk/internal/credentials"
	"gymdesk/internal/service"
	"gymdesk/internal/validation"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondWithError(logger *slog.Logger, w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Error(logMsg, "error", err, "status", status)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps a service error onto its HTTP status. Unknown errors are logged and hidden.
func respondWithServiceError(logger *slog.Logger, w http.ResponseWriter, err error, logMsg string) {
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
		return
	}

	status, msg := statusForError(err)
	if status == http.StatusInternalServerError {
		respondWithError(logger, w, status, msg, logMsg, err)
		return
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, credentials.ErrMalformedToken):
		return http.StatusBadRequest, "Malformed credential token, please scan again"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized, ErrAuthRequired
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, "Username already taken"
	case errors.Is(err, service.ErrTaxNumberTaken):
		return http.StatusConflict, "Tax number already registered"
	case errors.Is(err, service.ErrDuplicateCompletion):
		return http.StatusConflict, "Completion already recorded for this session and date; check existing records"
	case errors.Is(err, service.ErrUnknownReference):
		return http.StatusUnprocessableEntity, "Referenced session or user does not exist"
	case errors.Is(err, service.ErrReasonRequired):
		return http.StatusUnprocessableEntity, "A reason is required when a workout was not completed"
	case errors.Is(err, service.ErrMemberNotFound):
		return http.StatusNotFound, "Member not found"
	case errors.Is(err, service.ErrWorkoutNotFound):
		return http.StatusNotFound, "Workout session not found"
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

// decodeJSON reads a single JSON object from the request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return validation.ValidationError{Field: "body", Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}
