package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gymdesk/internal/models"
	"gymdesk/internal/service"
	"gymdesk/internal/validation"
)

// MemberHandler handles member profiles and payments
type MemberHandler struct {
	memberService *service.MemberService
	logger        *slog.Logger
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *service.MemberService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{memberService: memberService, logger: logger}
}

type registerMemberRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Email          string `json:"email"`
	TaxNumber      string `json:"tax_number"`
	RegularPayment bool   `json:"regular_payment"`
}

type paymentRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type paymentResponse struct {
	MemberID     int64 `json:"member_id"`
	BalanceCents int64 `json:"balance_cents"`
}

type regularPaymentRequest struct {
	RegularPayment bool `json:"regular_payment"`
}

type photoRequest struct {
	PhotoRef *string `json:"photo_ref"`
}

// Register creates a member at the front desk
func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	registered, err := h.memberService.RegisterMember(r.Context(), service.RegisterMemberInput{
		Username:       req.Username,
		Password:       req.Password,
		Email:          req.Email,
		TaxNumber:      req.TaxNumber,
		RegularPayment: req.RegularPayment,
	})
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to register member")
		return
	}

	respondJSON(w, http.StatusCreated, registered)
}

// Get returns a member profile to its owner or to staff
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// RecordPayment credits a cash payment
func (h *MemberHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	balance, err := h.memberService.RecordPayment(r.Context(), id, req.AmountCents)
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to record payment")
		return
	}

	respondJSON(w, http.StatusOK, paymentResponse{MemberID: id, BalanceCents: balance})
}

// SetRegularPayment toggles the standing-order flag
func (h *MemberHandler) SetRegularPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	var req regularPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	if err := h.memberService.SetRegularPayment(r.Context(), id, req.RegularPayment); err != nil {
		respondWithServiceError(h.logger, w, err, "failed to set regular payment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPhoto replaces the photo reference; members may change their own
func (h *MemberHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	member, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req photoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return
	}

	if err := h.memberService.SetPhoto(r.Context(), member.ID, req.PhotoRef); err != nil {
		respondWithServiceError(h.logger, w, err, "failed to set photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadOwned fetches the member named in the path and checks the caller may see it
func (h *MemberHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Member, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(h.logger, w, err, "")
		return nil, false
	}

	member, err := h.memberService.GetMember(r.Context(), id)
	if err != nil {
		respondWithServiceError(h.logger, w, err, "failed to get member")
		return nil, false
	}

	user := GetUserFromContext(r.Context())
	if !user.IsStaff() && member.UserID != user.ID {
		respondWithError(h.logger, w, http.StatusForbidden, ErrAccessDenied, "", nil)
		return nil, false
	}
	return member, true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.ValidationError{Field: name, Message: name + " must be a positive integer"}
	}
	return id, nil
}
