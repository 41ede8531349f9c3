package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotFound indicates no stored session matched the lookup.
	ErrNotFound = errors.New("session: not found")

	// ErrInvalidToken indicates the refresh token is missing, expired,
	// already rotated or mismatched. The caller must force logout.
	ErrInvalidToken = errors.New("session: invalid token")

	// ErrInactivityTimeout indicates the refresh token is still within its
	// absolute expiry but the sliding activity window has lapsed. Same
	// forced-logout outcome as ErrInvalidToken, distinguished only for
	// user-facing messaging.
	ErrInactivityTimeout = errors.New("session: inactivity window elapsed")
)

// Session is the single piece of server-side mutable state per user: the
// currently valid refresh token, stored hashed, plus its expiry and the last
// observed activity timestamp.
type Session struct {
	ID           string
	UserID       string
	TokenHash    string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	LastActivity time.Time
}

// TokenPair is returned from login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	AccessTTL        time.Duration
}

// Claims are the verified access token claims. Role and department travel in
// the token so guards can evaluate without a user lookup per request.
type Claims struct {
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	SessionID  string `json:"sid"`
	jwt.RegisteredClaims
}
