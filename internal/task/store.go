package task

import "context"

// Store describes persistence operations required by the task service.
// Role and department reads are per request; nothing is cached across
// requests.
type Store interface {
	CreateTask(ctx context.Context, t *Task) error
	FindTask(ctx context.Context, id string) (*Task, error)
	UpdateTask(ctx context.Context, t *Task) error
	DeleteTask(ctx context.Context, id string) error
	// ListRelated returns tasks where the user is creator or assignee;
	// visibility filtering happens above the store.
	ListRelated(ctx context.Context, userID string) ([]*Task, error)

	FindUser(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
}
