package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/auth"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/cache"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/repository"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/logger"
)

// RefreshTokenCache is the cache contract the token service consumes. The
// cache is an accelerator: misses and read failures fall through to the
// repository, a failed write evicts the entry, and a failed eviction during
// revocation fails the revocation, so a stale entry can never outlive the
// stored record.
type RefreshTokenCache interface {
	Get(ctx context.Context, userID int64) (*domain.RefreshToken, error)
	Set(ctx context.Context, token *domain.RefreshToken) error
	Delete(ctx context.Context, userID int64) error
}

// TokenService mints access tokens and issues, validates, and revokes refresh
// tokens. Issuing a pair replaces the user's previous refresh token record, so
// at most one refresh session exists per user at any time.
type TokenService struct {
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	cache      RefreshTokenCache
	hasher     *auth.Hasher
	jwt        *auth.JWTManager
	refreshTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewTokenService creates a token service. The cache may be nil; the service
// then works directly against the repository.
func NewTokenService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	tokenCache RefreshTokenCache,
	hasher *auth.Hasher,
	jwtManager *auth.JWTManager,
	refreshTTL time.Duration,
	log *slog.Logger,
) *TokenService {
	return &TokenService{
		users:      users,
		tokens:     tokens,
		cache:      tokenCache,
		hasher:     hasher,
		jwt:        jwtManager,
		refreshTTL: refreshTTL,
		logger:     log,
		now:        time.Now,
	}
}

// IssueTokenPair mints a signed access token and a fresh opaque refresh token
// for the user, replacing any previous refresh token record. If the refresh
// record cannot be persisted the whole operation fails: a token pair is never
// returned with an unsaved refresh half.
func (s *TokenService) IssueTokenPair(ctx context.Context, userID int64) (*domain.TokenPair, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", fmt.Sprintf("%d", userID))
		}
		return nil, fmt.Errorf("resolving user: %w", err)
	}
	if !user.Active {
		return nil, apperrors.NotFound("user", fmt.Sprintf("%d", userID))
	}

	now := s.now().UTC()

	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, now)
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}

	rawRefresh, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("minting refresh token: %w", err)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generating token salt: %w", err)
	}
	hash, err := s.hasher.Hash(rawRefresh, salt)
	if err != nil {
		return nil, fmt.Errorf("hashing refresh token: %w", err)
	}

	record := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		TokenSalt: salt,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}

	if err := s.tokens.ReplaceForUser(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting refresh token: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, record); err != nil {
			// Evict rather than leave the previous record behind: a stale
			// entry would let the replaced token keep validating.
			s.log(ctx).Warn("failed to cache refresh token, evicting entry", "user_id", user.ID, "error", err)
			if err := s.cache.Delete(ctx, user.ID); err != nil {
				s.log(ctx).Error("failed to evict stale refresh token cache entry", "user_id", user.ID, "error", err)
			}
		}
	}

	return &domain.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    rawRefresh,
		AccessExpiresAt: now.Add(s.jwt.AccessExpiry()),
	}, nil
}

// ValidateRefreshToken checks a raw refresh token presented by the given user
// against the stored record and returns the record on success. The record is
// resolved by owning user id; the caller-supplied user id is never used to
// address a record by its own primary key.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, userID int64, rawToken string) (*domain.RefreshToken, error) {
	record, err := s.lookupRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("looking up refresh token: %w", err)
	}

	ok, err := s.hasher.Verify(rawToken, record.TokenSalt, record.TokenHash)
	if err != nil {
		return nil, fmt.Errorf("verifying refresh token: %w", err)
	}
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	if record.Expired(s.now().UTC()) {
		return nil, ErrRefreshTokenExpired
	}

	return record, nil
}

// ValidateAccessToken verifies a signed access token and returns the subject
// user id and claims. Exposed for the HTTP auth middleware.
func (s *TokenService) ValidateAccessToken(tokenString string) (int64, *auth.Claims, error) {
	return s.jwt.ValidateAccessToken(tokenString)
}

// RevokeForUser deletes the user's refresh token record if present. The bool
// reports whether a record existed. A failed cache eviction fails the
// revocation: reporting success while a cached copy still validates would
// leave the session alive.
func (s *TokenService) RevokeForUser(ctx context.Context, userID int64) (bool, error) {
	deleted, err := s.tokens.DeleteByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("deleting refresh token: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, userID); err != nil {
			return false, fmt.Errorf("evicting cached refresh token: %w", err)
		}
	}

	return deleted, nil
}

func (s *TokenService) lookupRecord(ctx context.Context, userID int64) (*domain.RefreshToken, error) {
	if s.cache != nil {
		record, err := s.cache.Get(ctx, userID)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log(ctx).Warn("refresh token cache lookup failed", "user_id", userID, "error", err)
		}
	}

	return s.tokens.GetByUserID(ctx, userID)
}

func (s *TokenService) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, s.logger)
}
