package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/service"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/middleware"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/validator"
)

// Malformed-request errors raised before the use cases run. These codes are
// part of the wire contract alongside the session codes.
var (
	errMissingLoginDetails   = apperrors.New("L01", "Missing login details", http.StatusBadRequest, apperrors.ErrInvalidInput)
	errMissingRefreshDetails = apperrors.New("R01", "Missing token refresh details", http.StatusBadRequest, apperrors.ErrInvalidInput)
	errMissingSignupDetails  = apperrors.New("S01", "Missing signup details", http.StatusBadRequest, apperrors.ErrInvalidInput)
)

// AuthHandler exposes the session use cases over HTTP.
type AuthHandler struct {
	sessions *service.SessionService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type signupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	AccessExpiresAt string `json:"access_expires_at"`
}

// Signup handles POST /api/users/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errMissingSignupDetails)
		return
	}
	if err := validator.Validate(req); err != nil {
		respondError(w, r, err)
		return
	}

	email, err := h.sessions.Signup(r.Context(), service.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"email": email})
}

// Login handles POST /api/users/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errMissingLoginDetails)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, r, errMissingLoginDetails)
		return
	}

	pair, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenPair(pair))
}

// Refresh handles POST /api/users/refresh_token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errMissingRefreshDetails)
		return
	}
	if req.UserID == 0 || req.RefreshToken == "" {
		respondError(w, r, errMissingRefreshDetails)
		return
	}

	pair, err := h.sessions.Refresh(r.Context(), req.UserID, req.RefreshToken)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenPair(pair))
}

// Logout handles POST /api/users/logout. The user is taken from the bearer
// token, never from the body.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	if err := h.sessions.Logout(r.Context(), userID); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func tokenPair(pair *domain.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.UTC().Format(time.RFC3339),
	}
}
