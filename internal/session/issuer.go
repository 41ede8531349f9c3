package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskhive.org/internal/access"
	"taskhive.org/internal/ids"
)

const (
	defaultIssuerName     = "taskhive"
	defaultAccessTTL      = 15 * time.Minute
	defaultRefreshTTL     = 7 * 24 * time.Hour
	defaultActivityWindow = 30 * time.Minute
)

// Directory resolves a user's current role and department. Rotation reads it
// fresh so claims in a refreshed access token never outlive one request's
// view of the user record.
type Directory interface {
	Lookup(ctx context.Context, userID string) (access.Caller, error)
}

// Issuer mints access/refresh token pairs and rotates refresh tokens.
// Access tokens are HS256 JWTs carrying role and department claims; refresh
// tokens are opaque `id.secret` strings whose secret is stored hashed.
type Issuer struct {
	store          Store
	directory      Directory
	secret         []byte
	issuer         string
	accessTTL      time.Duration
	refreshTTL     time.Duration
	activityWindow time.Duration
	now            func() time.Time
}

// Option configures Issuer behavior.
type Option func(*Issuer) error

// WithIssuerName overrides the token issuer claim.
func WithIssuerName(name string) Option {
	return func(i *Issuer) error {
		if strings.TrimSpace(name) != "" {
			i.issuer = strings.TrimSpace(name)
		}
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) Option {
	return func(i *Issuer) error {
		if ttl > 0 {
			i.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures the refresh token's absolute expiry.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(i *Issuer) error {
		if ttl > 0 {
			i.refreshTTL = ttl
		}
		return nil
	}
}

// WithActivityWindow configures the sliding inactivity timeout consulted on
// rotation.
func WithActivityWindow(window time.Duration) Option {
	return func(i *Issuer) error {
		if window > 0 {
			i.activityWindow = window
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(i *Issuer) error {
		if fn != nil {
			i.now = fn
		}
		return nil
	}
}

// NewIssuer constructs an Issuer. The secret signs access tokens and must
// not be empty.
func NewIssuer(store Store, directory Directory, secret string, opts ...Option) (*Issuer, error) {
	if store == nil {
		return nil, errors.New("session: store is required")
	}
	if directory == nil {
		return nil, errors.New("session: user directory is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session: signing secret is required")
	}
	iss := &Issuer{
		store:          store,
		directory:      directory,
		secret:         []byte(secret),
		issuer:         defaultIssuerName,
		accessTTL:      defaultAccessTTL,
		refreshTTL:     defaultRefreshTTL,
		activityWindow: defaultActivityWindow,
		now:            time.Now,
	}
	for _, opt := range opts {
		if err := opt(iss); err != nil {
			return nil, err
		}
	}
	return iss, nil
}

// AccessTTL returns the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// ActivityWindow returns the configured sliding inactivity timeout.
func (i *Issuer) ActivityWindow() time.Duration { return i.activityWindow }

// Issue mints a fresh token pair at login time, replacing any prior refresh
// session for the user.
func (i *Issuer) Issue(ctx context.Context, caller access.Caller) (TokenPair, error) {
	if strings.TrimSpace(caller.ID) == "" {
		return TokenPair{}, errors.New("session: caller id is required")
	}
	now := i.now().UTC()
	sess, refreshToken, err := i.newSession(caller.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	if err := i.store.Replace(ctx, sess); err != nil {
		return TokenPair{}, err
	}
	return i.pair(sess, refreshToken, caller, now)
}

// Rotate validates the presented refresh token and atomically replaces it.
// A token that was already rotated always fails with ErrInvalidToken, which
// doubles as theft detection. The sliding activity window is evaluated
// before any mutation: an idle session is refused even when the refresh
// token itself is still unexpired.
func (i *Issuer) Rotate(ctx context.Context, raw string) (TokenPair, access.Caller, error) {
	tokenID, secret, err := splitRefreshToken(raw)
	if err != nil {
		return TokenPair{}, access.Caller{}, ErrInvalidToken
	}
	sess, err := i.store.Find(ctx, tokenID)
	if err != nil {
		return TokenPair{}, access.Caller{}, ErrInvalidToken
	}
	now := i.now().UTC()
	if now.After(sess.ExpiresAt) {
		_ = i.store.DeleteByUser(ctx, sess.UserID)
		return TokenPair{}, access.Caller{}, ErrInvalidToken
	}
	if !Within(sess.LastActivity, now, i.activityWindow) {
		_ = i.store.DeleteByUser(ctx, sess.UserID)
		return TokenPair{}, access.Caller{}, ErrInactivityTimeout
	}
	if !matchesHash(sess.TokenHash, secret) {
		// A wrong secret for a live session id looks like a stolen or
		// replayed token: revoke the whole session.
		_ = i.store.DeleteByUser(ctx, sess.UserID)
		return TokenPair{}, access.Caller{}, ErrInvalidToken
	}

	caller, err := i.directory.Lookup(ctx, sess.UserID)
	if err != nil {
		return TokenPair{}, access.Caller{}, err
	}

	repl, refreshToken, err := i.newSession(sess.UserID, now)
	if err != nil {
		return TokenPair{}, access.Caller{}, err
	}
	if err := i.store.Swap(ctx, sess.ID, sess.TokenHash, repl); err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrNotFound) {
			return TokenPair{}, access.Caller{}, ErrInvalidToken
		}
		return TokenPair{}, access.Caller{}, err
	}
	pair, err := i.pair(repl, refreshToken, caller, now)
	if err != nil {
		return TokenPair{}, access.Caller{}, err
	}
	return pair, caller, nil
}

// Revoke clears the user's refresh session at logout. Outstanding access
// tokens remain valid until their TTL elapses.
func (i *Issuer) Revoke(ctx context.Context, userID string) error {
	return i.store.DeleteByUser(ctx, userID)
}

// VerifyAccess validates an access token's signature, issuer and expiry and
// returns its claims.
func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) pair(sess *Session, refreshToken string, caller access.Caller, now time.Time) (TokenPair, error) {
	accessToken, accessExp, err := i.signAccess(caller, sess.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: sess.ExpiresAt,
		AccessTTL:        i.accessTTL,
	}, nil
}

func (i *Issuer) signAccess(caller access.Caller, sessionID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(i.accessTTL)
	claims := Claims{
		Role:       string(caller.Role),
		Department: caller.Department,
		SessionID:  sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   caller.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        ids.New(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) newSession(userID string, now time.Time) (*Session, string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, "", err
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	sum := sha256.Sum256([]byte(secret))
	sess := &Session{
		ID:           ids.New(),
		UserID:       userID,
		TokenHash:    hex.EncodeToString(sum[:]),
		IssuedAt:     now,
		ExpiresAt:    now.Add(i.refreshTTL),
		LastActivity: now,
	}
	return sess, sess.ID + "." + secret, nil
}

func splitRefreshToken(raw string) (id, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid refresh token format")
	}
	return parts[0], parts[1], nil
}

func matchesHash(expectedHash, secret string) bool {
	sum := sha256.Sum256([]byte(secret))
	actual := hex.EncodeToString(sum[:])
	if len(expectedHash) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expectedHash), []byte(actual)) == 1
}
