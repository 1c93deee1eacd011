package service

import (
	"net/http"

	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
)

// Session and task use case errors. The short codes and messages are a wire
// contract consumed by clients; do not reword them.
var (
	// Login.
	ErrEmailNotFound   = apperrors.New("L02", "Email not found", http.StatusUnauthorized, apperrors.ErrNotFound)
	ErrInvalidPassword = apperrors.New("L03", "Invalid Password", http.StatusUnauthorized, apperrors.ErrInvalidCredential)
	ErrLogoutFailed    = apperrors.New("L04", "Unable to logout user", http.StatusUnprocessableEntity, apperrors.ErrPersistence)

	// Signup.
	ErrEmailTaken       = apperrors.New("S02", "User already exists with the same email!", http.StatusUnprocessableEntity, apperrors.ErrAlreadyExists)
	ErrPasswordMismatch = apperrors.New("S03", "Passwords do not match", http.StatusUnprocessableEntity, apperrors.ErrInvalidInput)
	ErrWeakPassword     = apperrors.New("S04", "Password is weak", http.StatusUnprocessableEntity, apperrors.ErrInvalidInput)
	ErrSignupFailed     = apperrors.New("S05", "Unable to save the user", http.StatusUnprocessableEntity, apperrors.ErrPersistence)

	// Refresh.
	ErrSessionNotFound     = apperrors.New("R02", "Invalid session or user is already logged out.", http.StatusUnprocessableEntity, apperrors.ErrNotFound)
	ErrInvalidRefreshToken = apperrors.New("R03", "Invalid refresh token", http.StatusUnprocessableEntity, apperrors.ErrInvalidCredential)
	ErrRefreshTokenExpired = apperrors.New("R04", "Refresh Token is Expired", http.StatusUnprocessableEntity, apperrors.ErrExpired)

	// Tasks.
	ErrTaskNotFound   = apperrors.New("T02", "Task not found", http.StatusNotFound, apperrors.ErrNotFound)
	ErrTaskSaveFailed = apperrors.New("T03", "Unable to save the task", http.StatusUnprocessableEntity, apperrors.ErrPersistence)
)
