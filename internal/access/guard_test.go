package access

import (
	"context"
	"errors"
	"testing"
)

type captureSink struct {
	decisions []Decision
}

func (s *captureSink) Record(_ context.Context, d Decision) {
	s.decisions = append(s.decisions, d)
}

func TestGuardFailsClosedOnMissingResource(t *testing.T) {
	sink := &captureSink{}
	guard := NewGuard(sink)

	err := guard.Authorize(context.Background(), Caller{ID: "u1", Role: RoleOwner}, ActionEdit, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(sink.decisions) != 1 || sink.decisions[0].Allowed {
		t.Fatalf("expected one denied decision, got %+v", sink.decisions)
	}
}

func TestGuardAllowsAndRecords(t *testing.T) {
	sink := &captureSink{}
	guard := NewGuard(sink)
	snap := &Snapshot{ID: "t1", CreatorID: "u1", Category: CategoryPersonal}

	err := guard.Authorize(context.Background(), Caller{ID: "u1", Role: RoleViewer}, ActionDelete, snap)
	if err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	if len(sink.decisions) != 1 {
		t.Fatalf("expected one decision, got %d", len(sink.decisions))
	}
	d := sink.decisions[0]
	if !d.Allowed || d.Action != ActionDelete || d.ResourceID != "t1" || d.CallerID != "u1" {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestGuardDenialCarriesReason(t *testing.T) {
	guard := NewGuard(nil)
	snap := &Snapshot{ID: "t1", CreatorID: "u2", Category: CategoryWork}

	err := guard.Authorize(context.Background(), Caller{ID: "u1", Role: RoleAdmin}, ActionDelete, snap)
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if denied.Action != ActionDelete || denied.Reason == "" {
		t.Fatalf("unexpected denial: %+v", denied)
	}
	if !IsDenied(err) {
		t.Fatal("IsDenied should report true")
	}
}

func TestGuardRejectsUnknownAction(t *testing.T) {
	guard := NewGuard(nil)
	snap := &Snapshot{ID: "t1"}
	if err := guard.Authorize(context.Background(), Caller{ID: "u1", Role: RoleOwner}, Action("task.purge"), snap); !IsDenied(err) {
		t.Fatalf("expected denial for unknown action, got %v", err)
	}
}

func TestCheckDepartment(t *testing.T) {
	// Owner passes regardless of departments.
	if err := CheckDepartment(ActionEdit, RoleOwner, "", "finance"); err != nil {
		t.Fatalf("owner must be exempt, got %v", err)
	}

	// Missing department is a hard deny for every non-owner role.
	for _, role := range []Role{RoleAdmin, RoleViewer} {
		for _, target := range []string{"", "finance", "ops"} {
			if err := CheckDepartment(ActionEdit, role, "", target); !IsDenied(err) {
				t.Fatalf("expected deny for %s with no department, target=%q", role, target)
			}
		}
	}

	if err := CheckDepartment(ActionEdit, RoleAdmin, "finance", "finance"); err != nil {
		t.Fatalf("matching department must pass, got %v", err)
	}
	if err := CheckDepartment(ActionEdit, RoleAdmin, "finance", "ops"); !IsDenied(err) {
		t.Fatalf("expected cross-department deny, got %v", err)
	}
}

func TestCheckDepartmentIn(t *testing.T) {
	allowed := []string{"finance", "ops"}
	if err := CheckDepartmentIn(ActionViewMine, RoleAdmin, "ops", allowed); err != nil {
		t.Fatalf("allow-listed department must pass, got %v", err)
	}
	if err := CheckDepartmentIn(ActionViewMine, RoleAdmin, "sales", allowed); !IsDenied(err) {
		t.Fatalf("expected deny for department outside allow-list, got %v", err)
	}
	if err := CheckDepartmentIn(ActionViewMine, RoleOwner, "", nil); err != nil {
		t.Fatalf("owner must be exempt, got %v", err)
	}
}

func TestAdminWithoutDepartmentDenialMessage(t *testing.T) {
	err := CheckDepartment(ActionEdit, RoleAdmin, "", "finance")
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if denied.Reason != "admin users must have a department assigned" {
		t.Fatalf("unexpected reason: %q", denied.Reason)
	}
}
