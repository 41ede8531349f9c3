package access

import "testing"

var allRoles = []Role{RoleOwner, RoleAdmin, RoleViewer}
var allCategories = []Category{CategoryWork, CategoryPersonal}

func TestAdminNeverDeletes(t *testing.T) {
	for _, category := range allCategories {
		for _, isCreator := range []bool{true, false} {
			if CanDelete(RoleAdmin, category, isCreator) {
				t.Fatalf("admin deleted category=%s isCreator=%v", category, isCreator)
			}
		}
	}
}

func TestCanCreate(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleAdmin} {
		for _, category := range allCategories {
			if !CanCreate(role, category) {
				t.Fatalf("expected %s to create %s tasks", role, category)
			}
		}
	}
	if CanCreate(RoleViewer, CategoryWork) {
		t.Fatal("viewer must not create work tasks")
	}
	if !CanCreate(RoleViewer, CategoryPersonal) {
		t.Fatal("viewer must create personal tasks")
	}
}

func TestCanEdit(t *testing.T) {
	cases := []struct {
		role      Role
		category  Category
		isCreator bool
		want      bool
	}{
		{RoleOwner, CategoryWork, false, true},
		{RoleAdmin, CategoryPersonal, false, true},
		{RoleViewer, CategoryPersonal, true, true},
		{RoleViewer, CategoryPersonal, false, false},
		{RoleViewer, CategoryWork, true, false},
	}
	for _, tc := range cases {
		if got := CanEdit(tc.role, tc.category, tc.isCreator); got != tc.want {
			t.Fatalf("CanEdit(%s,%s,%v)=%v, want %v", tc.role, tc.category, tc.isCreator, got, tc.want)
		}
	}
}

func TestCanDeleteOwnershipUsesIdentityNotRole(t *testing.T) {
	// A viewer who created a work task still cannot delete it.
	if CanDelete(RoleViewer, CategoryWork, true) {
		t.Fatal("viewer deleted a work task they created")
	}
	if !CanDelete(RoleOwner, CategoryPersonal, false) {
		t.Fatal("owner must delete any task")
	}
}

func TestCanReassign(t *testing.T) {
	if !CanReassign(RoleOwner) || !CanReassign(RoleAdmin) {
		t.Fatal("owner and admin must reassign")
	}
	if CanReassign(RoleViewer) {
		t.Fatal("viewer must not reassign")
	}
}

func TestCanViewInMyTasks(t *testing.T) {
	cases := []struct {
		category             Category
		isCreator, isAssignee bool
		want                 bool
	}{
		{CategoryWork, true, false, true},
		{CategoryWork, false, true, true},
		{CategoryWork, false, false, false},
		{CategoryPersonal, true, false, true},
		{CategoryPersonal, false, true, false}, // assigned someone else's personal task
		{CategoryPersonal, false, false, false},
	}
	for _, role := range allRoles {
		for _, tc := range cases {
			got := CanViewInMyTasks(role, tc.category, tc.isCreator, tc.isAssignee)
			if got != tc.want {
				t.Fatalf("CanViewInMyTasks(%s,%s,%v,%v)=%v, want %v",
					role, tc.category, tc.isCreator, tc.isAssignee, got, tc.want)
			}
		}
	}
}

func TestViewerPersonalTaskScenario(t *testing.T) {
	// Viewer creates a personal task: edit and delete allowed, reassign not.
	if !CanEdit(RoleViewer, CategoryPersonal, true) {
		t.Fatal("expected edit allowed")
	}
	if !CanDelete(RoleViewer, CategoryPersonal, true) {
		t.Fatal("expected delete allowed")
	}
	if CanReassign(RoleViewer) {
		t.Fatal("expected reassign denied")
	}
}

func TestViewerAssignedWorkTaskScenario(t *testing.T) {
	// Viewer is assignee (not creator) of a work task: visible but not editable.
	if !CanViewInMyTasks(RoleViewer, CategoryWork, false, true) {
		t.Fatal("expected task visible")
	}
	if CanEdit(RoleViewer, CategoryWork, false) {
		t.Fatal("expected edit denied")
	}
}

func TestParseRoleAndCategory(t *testing.T) {
	if role, ok := ParseRole(" Admin "); !ok || role != RoleAdmin {
		t.Fatalf("unexpected parse result: %s, %v", role, ok)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatal("expected unknown role to fail")
	}
	if cat, ok := ParseCategory("PERSONAL"); !ok || cat != CategoryPersonal {
		t.Fatalf("unexpected parse result: %s, %v", cat, ok)
	}
	if _, ok := ParseCategory(""); ok {
		t.Fatal("expected empty category to fail")
	}
}
