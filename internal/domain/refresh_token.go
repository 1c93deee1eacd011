package domain

import "time"

// RefreshToken is the stored half of a refresh session. The raw token value is
// returned to the client exactly once at issuance; only its salted hash is
// persisted. At most one record exists per user: issuing a new token replaces
// the previous one.
type RefreshToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash []byte    `json:"-"`
	TokenSalt []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// TokenPair holds an access and refresh token pair returned on login/refresh.
type TokenPair struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}
