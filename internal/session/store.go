package session

import (
	"context"
	"time"
)

// Store persists refresh sessions. Implementations must make Swap an atomic
// replace-on-match: concurrent rotations presenting the same token hash must
// yield exactly one success.
type Store interface {
	// Replace stores the session, discarding any prior session for the same
	// user. One active refresh token per user.
	Replace(ctx context.Context, sess *Session) error

	// Find returns the session by its identifier.
	Find(ctx context.Context, id string) (*Session, error)

	// Swap atomically replaces the session identified by id if its stored
	// token hash still equals oldHash. It returns ErrInvalidToken when the
	// hash no longer matches (the token was already rotated).
	Swap(ctx context.Context, id, oldHash string, repl *Session) error

	// DeleteByUser revokes the user's session. Outstanding access tokens
	// expire naturally; revocation is eventual, bounded by the access TTL.
	DeleteByUser(ctx context.Context, userID string) error

	// Touch records observed activity against the session.
	Touch(ctx context.Context, id string, at time.Time) error
}
