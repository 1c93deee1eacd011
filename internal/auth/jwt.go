package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshTokenBytes is the entropy of a raw refresh token before encoding.
const refreshTokenBytes = 32

// Claims represents the JWT claims for an access token.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager mints and validates signed access tokens and generates opaque
// refresh tokens. The signing key, issuer, and audience are fixed at
// construction and never change for the lifetime of the process.
type JWTManager struct {
	secret       []byte
	issuer       string
	audience     string
	accessExpiry time.Duration
}

// NewJWTManager creates a JWT manager with the given key material, issuer,
// audience, and access token lifetime.
func NewJWTManager(secret []byte, issuer, audience string, accessExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:       secret,
		issuer:       issuer,
		audience:     audience,
		accessExpiry: accessExpiry,
	}
}

// AccessExpiry returns the configured access token lifetime.
func (m *JWTManager) AccessExpiry() time.Duration {
	return m.accessExpiry
}

// GenerateAccessToken creates a signed HS256 access token with the user ID as
// subject.
func (m *JWTManager) GenerateAccessToken(userID int64, email string, now time.Time) (string, error) {
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signedToken, nil
}

// ValidateAccessToken parses an access token and verifies signature, issuer,
// audience, and expiry together. The signing algorithm is pinned to HS256;
// tokens with any other method are rejected.
func (m *JWTManager) ValidateAccessToken(tokenString string) (int64, *Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, nil, fmt.Errorf("invalid access token claims")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid subject claim %q: %w", claims.Subject, err)
	}

	return userID, claims, nil
}

// GenerateRefreshToken returns a new opaque high-entropy token string. It is
// not a JWT: the server keeps only a salted hash, so there is nothing to
// verify statelessly.
func (m *JWTManager) GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
