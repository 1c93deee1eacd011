package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
)

func TestTokenService_IssueTokenPair(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("issue@example.com", "longpass1")

	pair, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.AccessExpiresAt.After(time.Now()))

	record, err := env.tokens.GetByUserID(context.Background(), userID)
	require.NoError(t, err)

	// Only the salted hash is stored, never the raw value.
	ok, err := env.hasher.Verify(pair.RefreshToken, record.TokenSalt, record.TokenHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotContains(t, string(record.TokenHash), pair.RefreshToken)
}

func TestTokenService_IssueTokenPairUnknownUser(t *testing.T) {
	env := newTestEnv()

	_, err := env.token.IssueTokenPair(context.Background(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTokenService_IssueTokenPairInactiveUser(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("inactive@example.com", "longpass1")
	env.users.byID[userID].Active = false

	_, err := env.token.IssueTokenPair(context.Background(), userID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTokenService_IssueTwiceLeavesOneRecord(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("rotate@example.com", "longpass1")

	first, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)
	second, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 1, env.tokens.count())
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The replaced token no longer validates; the new one does.
	_, err = env.token.ValidateRefreshToken(context.Background(), userID, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = env.token.ValidateRefreshToken(context.Background(), userID, second.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenService_IssueFailsWhenPersistFails(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("persist@example.com", "longpass1")
	env.tokens.replaceErr = errors.New("disk on fire")

	pair, err := env.token.IssueTokenPair(context.Background(), userID)
	assert.Error(t, err)
	assert.Nil(t, pair)
	assert.Equal(t, 0, env.tokens.count())
}

func TestTokenService_ValidateRefreshToken(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("validate@example.com", "longpass1")

	pair, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	record, err := env.token.ValidateRefreshToken(context.Background(), userID, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)
}

func TestTokenService_ValidateRefreshTokenNoSession(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("nosession@example.com", "longpass1")

	_, err := env.token.ValidateRefreshToken(context.Background(), userID, "whatever")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokenService_ValidateRefreshTokenWrongValue(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("wrongvalue@example.com", "longpass1")

	_, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	_, err = env.token.ValidateRefreshToken(context.Background(), userID, "forged-token-value")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestTokenService_ValidateRefreshTokenExpired(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("expired@example.com", "longpass1")

	pair, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	// Jump past the TTL. The hash still matches; expiry alone must reject.
	env.token.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	_, err = env.token.ValidateRefreshToken(context.Background(), userID, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
}

// The stored record is addressed by owning user id, not by its own primary
// key. The fake allocates record ids in a disjoint range, so this test fails
// if the lookup ever keys on the record id.
func TestTokenService_LookupKeysOnOwningUser(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("keyspace@example.com", "longpass1")

	pair, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	record, err := env.tokens.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotEqual(t, record.ID, userID)

	got, err := env.token.ValidateRefreshToken(context.Background(), userID, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	// Presenting the record's own id as the user id finds nothing.
	_, err = env.token.ValidateRefreshToken(context.Background(), record.ID, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokenService_RevokeForUser(t *testing.T) {
	env := newTestEnv()
	userID := env.addUser("revoke@example.com", "longpass1")

	_, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	deleted, err := env.token.RevokeForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = env.token.RevokeForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTokenService_CacheServesLookups(t *testing.T) {
	env := newTestEnv(withCache())
	userID := env.addUser("cached@example.com", "longpass1")

	pair, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	_, err = env.token.ValidateRefreshToken(context.Background(), userID, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, env.cache.hits)

	// Revocation evicts the cache entry along with the record.
	_, err = env.token.RevokeForUser(context.Background(), userID)
	require.NoError(t, err)

	_, err = env.token.ValidateRefreshToken(context.Background(), userID, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokenService_CacheFailureFallsThrough(t *testing.T) {
	env := newTestEnv(withCache())
	userID := env.addUser("cachedown@example.com", "longpass1")

	pair, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	env.cache.getErr = errors.New("connection refused")

	record, err := env.token.ValidateRefreshToken(context.Background(), userID, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)
}

// A failed cache write during rotation must not leave the previous record
// cached, or the replaced token would keep validating until the entry's TTL.
func TestTokenService_RotationEvictsOnCacheWriteFailure(t *testing.T) {
	env := newTestEnv(withCache())
	userID := env.addUser("staleset@example.com", "longpass1")

	first, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	env.cache.setErr = errors.New("connection refused")

	second, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	_, err = env.token.ValidateRefreshToken(context.Background(), userID, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = env.token.ValidateRefreshToken(context.Background(), userID, second.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenService_RevokeFailsWhenEvictionFails(t *testing.T) {
	env := newTestEnv(withCache())
	userID := env.addUser("staledel@example.com", "longpass1")

	_, err := env.token.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	env.cache.delErr = errors.New("connection refused")

	// The cached copy could not be evicted, so the revocation must not be
	// reported as successful.
	_, err = env.token.RevokeForUser(context.Background(), userID)
	assert.Error(t, err)
}
