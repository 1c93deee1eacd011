package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/auth"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/repository"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/logger"
)

// minPasswordLength is the shortest password Signup accepts. Seven characters
// or fewer is rejected as weak.
const minPasswordLength = 8

// EventPublisher receives session lifecycle notifications. Implementations
// must not block the request path on broker availability.
type EventPublisher interface {
	UserSignedUp(ctx context.Context, userID int64, email string)
	SessionLoggedIn(ctx context.Context, userID int64)
	SessionRefreshed(ctx context.Context, userID int64)
	SessionLoggedOut(ctx context.Context, userID int64)
}

// SignupInput carries the fields required to register a new user.
type SignupInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// SessionService implements the signup, login, refresh, and logout use cases
// on top of the token service and the user repository.
type SessionService struct {
	users     repository.UserRepository
	tokens    *TokenService
	hasher    *auth.Hasher
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewSessionService creates a session service. The publisher may be nil when
// eventing is disabled.
func NewSessionService(
	users repository.UserRepository,
	tokens *TokenService,
	hasher *auth.Hasher,
	publisher EventPublisher,
	log *slog.Logger,
) *SessionService {
	return &SessionService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Signup registers a new user and returns the registered email. Tokens are
// not issued here: signup and login are separate steps.
func (s *SessionService) Signup(ctx context.Context, in SignupInput) (string, error) {
	_, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		return "", ErrEmailTaken
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("checking email: %w", err)
	}

	if in.Password != in.ConfirmPassword {
		return "", ErrPasswordMismatch
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return "", ErrWeakPassword
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	hash, err := s.hasher.Hash(in.Password, salt)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return "", ErrEmailTaken
		}
		s.log(ctx).Error("failed to persist user", "email", in.Email, "error", err)
		return "", ErrSignupFailed
	}

	s.log(ctx).Info("user signed up", "user_id", user.ID)
	if s.publisher != nil {
		s.publisher.UserSignedUp(ctx, user.ID, user.Email)
	}

	return user.Email, nil
}

// Login verifies the email/password pair and issues a token pair. The email
// lookup is exact and case-sensitive.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordSalt, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	pair, err := s.tokens.IssueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("user logged in", "user_id", user.ID)
	if s.publisher != nil {
		s.publisher.SessionLoggedIn(ctx, user.ID)
	}

	return pair, nil
}

// Refresh validates the presented raw refresh token for the user and, on
// success, issues a fresh token pair. Issuing rotates the stored refresh
// token: the presented one is invalid afterwards.
func (s *SessionService) Refresh(ctx context.Context, userID int64, rawToken string) (*domain.TokenPair, error) {
	record, err := s.tokens.ValidateRefreshToken(ctx, userID, rawToken)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssueTokenPair(ctx, record.UserID)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("session refreshed", "user_id", record.UserID)
	if s.publisher != nil {
		s.publisher.SessionRefreshed(ctx, record.UserID)
	}

	return pair, nil
}

// Logout revokes the user's refresh token. Logging out with no active session
// succeeds: logout is idempotent.
func (s *SessionService) Logout(ctx context.Context, userID int64) error {
	deleted, err := s.tokens.RevokeForUser(ctx, userID)
	if err != nil {
		s.log(ctx).Error("failed to revoke refresh token", "user_id", userID, "error", err)
		return ErrLogoutFailed
	}

	if deleted {
		s.log(ctx).Info("user logged out", "user_id", userID)
		if s.publisher != nil {
			s.publisher.SessionLoggedOut(ctx, userID)
		}
	}

	return nil
}

func (s *SessionService) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, s.logger)
}
