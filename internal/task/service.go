package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskhive.org/internal/access"
	"taskhive.org/internal/ids"
)

// Service is the single dispatch point for guarded task operations: every
// mutation loads the target snapshot, runs the capability rules and the
// department scope check, then touches the store.
type Service struct {
	store Store
	guard *access.Guard
}

// NewService constructs a Service.
func NewService(store Store, guard *access.Guard) (*Service, error) {
	if store == nil {
		return nil, errors.New("task: store is required")
	}
	if guard == nil {
		return nil, errors.New("task: guard is required")
	}
	return &Service{store: store, guard: guard}, nil
}

// CreateInput carries the fields for a new task.
type CreateInput struct {
	Title       string
	Description string
	Category    access.Category
	Department  string
	AssigneeID  string
}

// UpdateInput carries optional task field updates.
type UpdateInput struct {
	Title       *string
	Description *string
}

// Create validates input, checks create capability and department scope,
// then persists the task with the caller as creator.
func (s *Service) Create(ctx context.Context, caller access.Caller, in CreateInput) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Category != access.CategoryWork && in.Category != access.CategoryPersonal {
		return nil, fmt.Errorf("%w: unsupported category %q", ErrInvalidInput, in.Category)
	}

	department := strings.TrimSpace(in.Department)
	if in.Category == access.CategoryPersonal {
		// Personal tasks are private to their creator and never
		// department-scoped.
		department = ""
	}

	snap := access.Snapshot{Category: in.Category, Department: department}
	if err := s.guard.Authorize(ctx, caller, access.ActionCreate, &snap); err != nil {
		return nil, err
	}
	if in.Category == access.CategoryWork {
		if department == "" {
			department = caller.Department
		}
		if err := access.CheckDepartment(access.ActionCreate, caller.Role, caller.Department, department); err != nil {
			return nil, err
		}
	}

	assignee := strings.TrimSpace(in.AssigneeID)
	if assignee == "" {
		assignee = caller.ID
	} else if _, err := s.store.FindUser(ctx, assignee); err != nil {
		return nil, fmt.Errorf("%w: assignee does not exist", ErrInvalidInput)
	}

	t := &Task{
		ID:          ids.New(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Department:  department,
		CreatorID:   caller.ID,
		AssigneeID:  assignee,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update edits mutable fields after the edit capability and department scope
// pass.
func (s *Service) Update(ctx context.Context, caller access.Caller, taskID string, in UpdateInput) (*Task, error) {
	t, err := s.authorizeMutation(ctx, caller, access.ActionEdit, taskID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a task after the delete capability and department scope
// pass.
func (s *Service) Delete(ctx context.Context, caller access.Caller, taskID string) error {
	if _, err := s.authorizeMutation(ctx, caller, access.ActionDelete, taskID); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, taskID)
}

// Reassign changes the assignee after the reassign capability and department
// scope pass. The new assignee must exist.
func (s *Service) Reassign(ctx context.Context, caller access.Caller, taskID, assigneeID string) (*Task, error) {
	t, err := s.authorizeMutation(ctx, caller, access.ActionReassign, taskID)
	if err != nil {
		return nil, err
	}
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, fmt.Errorf("%w: assignee_id is required", ErrInvalidInput)
	}
	if _, err := s.store.FindUser(ctx, assigneeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: assignee does not exist", ErrInvalidInput)
		}
		return nil, err
	}
	t.AssigneeID = assigneeID
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a task the caller may see in their list.
func (s *Service) Get(ctx context.Context, caller access.Caller, taskID string) (*Task, error) {
	t, err := s.store.FindTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	snap := t.Snapshot()
	if err := s.guard.Authorize(ctx, caller, access.ActionViewMine, &snap); err != nil {
		return nil, err
	}
	return t, nil
}

// ListMine returns the caller's visible tasks: work tasks they created or
// are assigned to, plus personal tasks they created.
func (s *Service) ListMine(ctx context.Context, caller access.Caller) ([]*Task, error) {
	related, err := s.store.ListRelated(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	visible := make([]*Task, 0, len(related))
	for _, t := range related {
		own := access.OwnershipOf(caller.ID, t.Snapshot())
		if access.CanViewInMyTasks(caller.Role, t.Category, own.IsCreator, own.IsAssignee) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// authorizeMutation loads the target and runs both guards. A missing task
// goes through the guard with a nil snapshot so the denial is recorded and
// the request fails closed.
func (s *Service) authorizeMutation(ctx context.Context, caller access.Caller, action access.Action, taskID string) (*Task, error) {
	t, err := s.store.FindTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, s.guard.Authorize(ctx, caller, action, nil)
		}
		return nil, err
	}
	snap := t.Snapshot()
	if err := s.guard.Authorize(ctx, caller, action, &snap); err != nil {
		return nil, err
	}
	// Work tasks are department-scoped for every non-owner mutation, also
	// for Admin edits and reassignments.
	if t.Category == access.CategoryWork {
		if err := access.CheckDepartment(action, caller.Role, caller.Department, t.Department); err != nil {
			return nil, err
		}
	}
	return t, nil
}
