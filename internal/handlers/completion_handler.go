package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"gymdesk/internal/models"
	"gymdesk/internal/service"
	"gymdesk/internal/validation"
)

// CompletionHandler exposes the completion ledger
type CompletionHandler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

// NewCompletionHandler creates a new completion handler
func NewCompletionHandler(ledger *service.LedgerService, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{ledger: ledger, logger: logger}
}

type completionRequest struct {
	SessionID int64   `json:"session_id"`
	ClientID  int64   `json:"client_id"`
	Date      string  `json:"date"`
	Completed bool    `json:"completed"`
	Reason    *string `json:"reason"`
	ProofRef  *string `json:"proof_ref"`
	Notes     *string `json:"notes"`
}

// Record stores a workout outcome. Members record for themselves; staff may record for any client.
// A repeated submission for the same session and date answers 409 Conflict.
func (h *CompletionHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	user := GetUserFromContext(r.Context())
	if req.ClientID == 0 {
		req.ClientID = user.ID
	}
	if !user.IsStaff() && req.ClientID != user.ID {
		respondWithError(h.logger, w, http.StatusForbidden, "Members can only record their own workouts", "", nil)
		return
	}

	date, err := parseDateParam("date", req.Date)
	if err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}
	if date.IsZero() {
		respondWithServiceError(h.logger, w, validation.ValidationError{Field: "date", Message: "date is required"}, "")
		return
	}

	completion, err := h.ledger.RecordCompletion(r.Context(), service.RecordCompletionInput{
		SessionID: req.SessionID,
		ClientID:  req.ClientID,
		Date:      date,
		Completed: req.Completed,
		Reason:    req.Reason,
		ProofRef:  req.ProofRef,
		Notes:     req.Notes,
	})
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to record completion")
		return
	}

	respondJSON(w, http.StatusCreated, completion)
}

// List returns a client's completions ordered by date, optionally bounded by ?from= and ?to=
func (h *CompletionHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	user := GetUserFromContext(r.Context())
	if !user.IsStaff() && clientID != user.ID {
		respondWithError(h.logger, w, http.StatusForbidden, ErrAccessDenied, "", nil)
		return
	}

	from, err := parseDateParam("from", r.URL.Query().Get("from"))
	if err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}
	to, err := parseDateParam("to", r.URL.Query().Get("to"))
	if err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	completions, err := h.ledger.ListCompletions(r.Context(), clientID, models.DateRange{From: from, To: to})
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to list completions")
		return
	}
	respondJSON(w, http.StatusOK, completions)
}

// parseDateParam parses an optional YYYY-MM-DD value; empty yields the zero time
func parseDateParam(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, validation.ValidationError{Field: field, Message: field + " must be a YYYY-MM-DD calendar date"}
	}
	return d, nil
}
