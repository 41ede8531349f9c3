package task

import (
	"context"
	"database/sql"
	"errors"

	"taskhive.org/internal/access"
)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateTask(ctx context.Context, t *Task) error {
	return s.db.QueryRowContext(ctx,
		`insert into tasks(id, title, description, category, department, creator_id, assignee_id)
		 values($1,$2,nullif($3,''),$4,nullif($5,''),$6,nullif($7,''))
		 returning created_at, updated_at`,
		t.ID, t.Title, t.Description, string(t.Category), t.Department, t.CreatorID, t.AssigneeID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (s *PGStore) FindTask(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, title, coalesce(description,''), category, coalesce(department,''),
		        creator_id, coalesce(assignee_id,''), created_at, updated_at
		 from tasks where id=$1`, id)
	return scanTask(row)
}

func (s *PGStore) UpdateTask(ctx context.Context, t *Task) error {
	res, err := s.db.ExecContext(ctx,
		`update tasks set title=$2, description=$3, assignee_id=nullif($4,''), updated_at=now()
		 where id=$1`,
		t.ID, t.Title, t.Description, t.AssigneeID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from tasks where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListRelated(ctx context.Context, userID string) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, title, coalesce(description,''), category, coalesce(department,''),
		        creator_id, coalesce(assignee_id,''), created_at, updated_at
		 from tasks where creator_id=$1 or assignee_id=$1
		 order by created_at desc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *PGStore) FindUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, password_hash, role, coalesce(department,''), status, created_at, updated_at
		 from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, password_hash, role, coalesce(department,''), status, created_at, updated_at
		 from users where email=$1`, email)
	return scanUser(row)
}

func (s *PGStore) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, password_hash, role, department, status)
		 values($1,$2,$3,$4,nullif($5,''),$6)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role), u.Department, u.Status,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t        Task
		category string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &category, &t.Department,
		&t.CreatorID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Category = access.Category(category)
	return &t, nil
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.Department,
		&u.Status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = access.Role(role)
	return &u, nil
}
