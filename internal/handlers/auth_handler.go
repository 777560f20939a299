package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"gymdesk/internal/credentials"
	"gymdesk/internal/models"
	"gymdesk/internal/observability"
	"gymdesk/internal/security"
	"gymdesk/internal/service"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	authService *service.AuthService
	qrService   *service.QRLoginService
	limiter     *security.RateLimiter
	clientIP    *security.ClientIPResolver
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, qrService *service.QRLoginService, limiter *security.RateLimiter, clientIP *security.ClientIPResolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		qrService:   qrService,
		limiter:     limiter,
		clientIP:    clientIP,
		logger:      logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type qrLoginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates an account. Only staff, or anyone before the first account exists, may create staff.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	if req.Role == models.RoleStaff {
		allowed, err := h.authService.CanGrantStaff(r.Context(), GetUserFromContext(r.Context()))
		if err != nil {
			respondWithError(h.logger, w, http.StatusInternalServerError, ErrInternalServerError, "failed to check staff permission", err)
			return
		}
		if !allowed {
			respondWithError(h.logger, w, http.StatusForbidden, "Only staff can create staff accounts", "", nil)
			return
		}
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Password, req.Role, req.Email)
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to register user")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Login exchanges a username and password for a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.allow(r, observability.LoginMethodPassword) {
		respondWithError(h.logger, w, http.StatusTooManyRequests, ErrTooManyLoginAttempts, "", nil)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		observability.RecordLogin(observability.LoginMethodPassword, loginOutcome(err))
		respondWithServiceError(h.logger, w, err, "failed to log in")
		return
	}

	observability.RecordLogin(observability.LoginMethodPassword, observability.LoginSuccess)
	respondJSON(w, http.StatusOK, loginResponse{Token: session.ID, ExpiresAt: session.ExpiresAt, User: user})
}

// QRLogin authenticates with a scanned credential token. Each request is one scan: the token is
// decoded once and the credentials are checked once, never retried.
func (h *AuthHandler) QRLogin(w http.ResponseWriter, r *http.Request) {
	if !h.allow(r, observability.LoginMethodQR) {
		respondWithError(h.logger, w, http.StatusTooManyRequests, ErrTooManyLoginAttempts, "", nil)
		return
	}

	var req qrLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	session, err := h.qrService.Scan(r.Context(), req.Token)
	if err != nil {
		observability.RecordLogin(observability.LoginMethodQR, loginOutcome(err))
		respondWithServiceError(h.logger, w, err, "failed to log in with credential token")
		return
	}

	user, err := h.authService.ValidateSession(r.Context(), session.ID)
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to load user for new session")
		return
	}

	observability.RecordLogin(observability.LoginMethodQR, observability.LoginSuccess)
	respondJSON(w, http.StatusOK, loginResponse{Token: session.ID, ExpiresAt: session.ExpiresAt, User: user})
}

// Logout invalidates the caller's session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), security.BearerToken(r)); err != nil {
		respondWithError(h.logger, w, http.StatusInternalServerError, ErrInternalServerError, "failed to log out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) allow(r *http.Request, method string) bool {
	if h.limiter.Allow(h.clientIP.ClientIP(r)) {
		return true
	}
	observability.RecordLogin(method, observability.LoginRateLimited)
	return false
}

func loginOutcome(err error) string {
	if errors.Is(err, credentials.ErrMalformedToken) {
		return observability.LoginMalformed
	}
	return observability.LoginFailure
}
