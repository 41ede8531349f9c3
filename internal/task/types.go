package task

import (
	"errors"
	"time"

	"taskhive.org/internal/access"
)

var (
	ErrNotFound     = errors.New("task: not found")
	ErrInvalidInput = errors.New("task: invalid input")
)

// Task is the guarded resource. Department is set for work tasks; personal
// tasks are private to their creator and carry no department.
type Task struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    access.Category `json:"category"`
	Department  string          `json:"department,omitempty"`
	CreatorID   string          `json:"creator_id"`
	AssigneeID  string          `json:"assignee_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// User is the caller-side record: role and department drive every
// authorization decision.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         access.Role `json:"role"`
	Department   string      `json:"department,omitempty"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Snapshot converts the task into the minimal view guards evaluate.
func (t *Task) Snapshot() access.Snapshot {
	return access.Snapshot{
		ID:         t.ID,
		CreatorID:  t.CreatorID,
		AssigneeID: t.AssigneeID,
		Category:   t.Category,
		Department: t.Department,
	}
}
