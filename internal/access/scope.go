package access

import "strings"

// Department scoping is a second, independent check layered on top of the
// rules table. Owner is exempt entirely. Any other role with no department
// assigned is a hard deny regardless of the target: absence of a department
// is a configuration error, not "all departments".

// CheckDepartment allows own-department-only actions.
func CheckDepartment(action Action, role Role, callerDept, targetDept string) error {
	if role == RoleOwner {
		return nil
	}
	callerDept = strings.TrimSpace(callerDept)
	if callerDept == "" {
		return Denied(action, missingDepartmentReason(role))
	}
	if callerDept != strings.TrimSpace(targetDept) {
		return Denied(action, "task belongs to another department")
	}
	return nil
}

// CheckDepartmentIn allows actions against an allow-list of departments.
func CheckDepartmentIn(action Action, role Role, callerDept string, allowed []string) error {
	if role == RoleOwner {
		return nil
	}
	callerDept = strings.TrimSpace(callerDept)
	if callerDept == "" {
		return Denied(action, missingDepartmentReason(role))
	}
	for _, dept := range allowed {
		if strings.TrimSpace(dept) == callerDept {
			return nil
		}
	}
	return Denied(action, "department is not in the allowed set")
}

func missingDepartmentReason(role Role) string {
	if role == RoleAdmin {
		return "admin users must have a department assigned"
	}
	return "user has no department assigned"
}
