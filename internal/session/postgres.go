package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGStore implements Store on PostgreSQL. The session row is the only shared
// mutable state in this subsystem; Swap uses a guarded delete so that
// concurrent rotations of the same token succeed exactly once, also across
// multiple server instances.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Replace(ctx context.Context, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`delete from sessions where user_id=$1`, sess.UserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into sessions(id, user_id, token_hash, issued_at, expires_at, last_activity)
		 values($1,$2,$3,$4,$5,$6)`,
		sess.ID, sess.UserID, sess.TokenHash, sess.IssuedAt, sess.ExpiresAt, sess.LastActivity,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) Find(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, token_hash, issued_at, expires_at, last_activity
		 from sessions where id=$1`, id)
	var sess Session
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.IssuedAt, &sess.ExpiresAt, &sess.LastActivity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *PGStore) Swap(ctx context.Context, id, oldHash string, repl *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Compare-and-swap: the delete only matches while the stored hash is
	// still the presented one. Zero rows means another rotation won.
	res, err := tx.ExecContext(ctx,
		`delete from sessions where id=$1 and token_hash=$2`, id, oldHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidToken
	}
	if _, err := tx.ExecContext(ctx,
		`insert into sessions(id, user_id, token_hash, issued_at, expires_at, last_activity)
		 values($1,$2,$3,$4,$5,$6)`,
		repl.ID, repl.UserID, repl.TokenHash, repl.IssuedAt, repl.ExpiresAt, repl.LastActivity,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where user_id=$1`, userID)
	return err
}

func (s *PGStore) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update sessions set last_activity=$2 where id=$1 and last_activity < $2`, id, at)
	return err
}
