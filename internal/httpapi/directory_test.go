package httpapi

import (
	"context"
	"errors"
	"testing"

	"taskhive.org/internal/access"
	"taskhive.org/internal/session"
	"taskhive.org/internal/task"
)

func TestUserDirectoryLookup(t *testing.T) {
	store := task.NewMemoryStore()
	ctx := context.Background()
	if err := store.CreateUser(ctx, &task.User{
		ID: "u1", Email: "u1@example.com", Role: access.RoleAdmin,
		Department: "ops", Status: task.UserStatusActive,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.CreateUser(ctx, &task.User{
		ID: "u2", Email: "u2@example.com", Role: access.RoleViewer,
		Status: task.UserStatusDisabled,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	dir := NewUserDirectory(store)

	caller, err := dir.Lookup(ctx, "u1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if caller.Role != access.RoleAdmin || caller.Department != "ops" {
		t.Fatalf("unexpected caller: %+v", caller)
	}

	if _, err := dir.Lookup(ctx, "u2"); !errors.Is(err, session.ErrInvalidToken) {
		t.Fatalf("disabled user must read as invalid token, got %v", err)
	}
	if _, err := dir.Lookup(ctx, "missing"); !errors.Is(err, session.ErrInvalidToken) {
		t.Fatalf("missing user must read as invalid token, got %v", err)
	}
}
