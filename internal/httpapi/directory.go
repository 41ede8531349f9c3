package httpapi

import (
	"context"
	"errors"
	"fmt"

	"taskhive.org/internal/access"
	"taskhive.org/internal/session"
	"taskhive.org/internal/task"
)

// userDirectory adapts the user store to the issuer. A refresh for a missing
// or disabled user must read as an invalid token, not a server error.
type userDirectory struct {
	users task.Store
}

// NewUserDirectory returns the session.Directory backed by the user store.
func NewUserDirectory(users task.Store) session.Directory {
	return userDirectory{users: users}
}

func (d userDirectory) Lookup(ctx context.Context, userID string) (access.Caller, error) {
	u, err := d.users.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return access.Caller{}, session.ErrInvalidToken
		}
		return access.Caller{}, fmt.Errorf("directory lookup: %w", err)
	}
	if u.Status != task.UserStatusActive {
		return access.Caller{}, session.ErrInvalidToken
	}
	return access.Caller{ID: u.ID, Role: u.Role, Department: u.Department}, nil
}
