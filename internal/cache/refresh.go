package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
)

// ErrMiss is returned when the cache has no entry for the key.
var ErrMiss = errors.New("cache miss")

// RefreshTokenCache is a read-through cache for refresh token records keyed
// by user id. It stores only hashed material, never raw tokens, so a cache
// dump is no more sensitive than the database itself.
type RefreshTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshTokenCache creates a refresh token cache with the given TTL.
// Entries expire on their own so a stale record can never outlive the
// session it mirrors by more than the TTL.
func NewRefreshTokenCache(client *redis.Client, ttl time.Duration) *RefreshTokenCache {
	return &RefreshTokenCache{client: client, ttl: ttl}
}

func (c *RefreshTokenCache) key(userID int64) string {
	return fmt.Sprintf("refresh_token:user:%d", userID)
}

// cachedToken mirrors domain.RefreshToken for cache serialization. The domain
// type hides hash material from JSON on purpose; the cache needs it back.
type cachedToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash []byte    `json:"token_hash"`
	TokenSalt []byte    `json:"token_salt"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get returns the cached record for the user, or ErrMiss.
func (c *RefreshTokenCache) Get(ctx context.Context, userID int64) (*domain.RefreshToken, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("getting cached refresh token: %w", err)
	}

	var rec cachedToken
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling cached refresh token: %w", err)
	}

	return &domain.RefreshToken{
		ID:        rec.ID,
		UserID:    rec.UserID,
		TokenHash: rec.TokenHash,
		TokenSalt: rec.TokenSalt,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Set stores the record for the user.
func (c *RefreshTokenCache) Set(ctx context.Context, token *domain.RefreshToken) error {
	data, err := json.Marshal(cachedToken{
		ID:        token.ID,
		UserID:    token.UserID,
		TokenHash: token.TokenHash,
		TokenSalt: token.TokenSalt,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshaling refresh token: %w", err)
	}

	if err := c.client.Set(ctx, c.key(token.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching refresh token: %w", err)
	}

	return nil
}

// Delete removes the record for the user.
func (c *RefreshTokenCache) Delete(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("deleting cached refresh token: %w", err)
	}

	return nil
}
