package handlers

import (
	"log/slog"
	"net/http"

	"gymdesk/internal/service"
)

// WorkoutHandler handles scheduled workout sessions
type WorkoutHandler struct {
	workoutService *service.WorkoutService
	logger         *slog.Logger
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workoutService *service.WorkoutService, logger *slog.Logger) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, logger: logger}
}

type workoutRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CoachID     *int64 `json:"coach_id"`
}

// Create schedules a workout session
func (h *WorkoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	session, err := h.workoutService.CreateSession(r.Context(), req.Title, req.Description, req.CoachID)
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to create workout session")
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// List returns all workout sessions
func (h *WorkoutHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.workoutService.ListSessions(r.Context())
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to list workout sessions")
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

// Get returns one workout session
func (h *WorkoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	session, err := h.workoutService.GetSession(r.Context(), id)
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to get workout session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}
