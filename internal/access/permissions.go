package access

// Pure decision functions. Callable with primitives only so they can be
// exercised exhaustively in tests without any store or request context.

// CanEdit reports whether a role may edit a task of the given category.
// Viewer edits are limited to personal tasks they created.
func CanEdit(role Role, category Category, isCreator bool) bool {
	switch role {
	case RoleOwner, RoleAdmin:
		return true
	case RoleViewer:
		return category == CategoryPersonal && isCreator
	default:
		return false
	}
}

// CanDelete reports whether a role may delete a task. Deletion is an
// Owner-only capability at the organization level: Admin never deletes,
// Viewer deletes only personal tasks they created.
func CanDelete(role Role, category Category, isCreator bool) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleViewer:
		return category == CategoryPersonal && isCreator
	default:
		return false
	}
}

// CanReassign reports whether a role may change a task's assignee.
func CanReassign(role Role) bool {
	return role == RoleOwner || role == RoleAdmin
}

// CanCreate reports whether a role may create a task of the given category.
func CanCreate(role Role, category Category) bool {
	switch role {
	case RoleOwner, RoleAdmin:
		return true
	case RoleViewer:
		return category == CategoryPersonal
	default:
		return false
	}
}

// CanViewInMyTasks reports whether the task appears in the caller's task
// list. Work tasks are visible to their creator or assignee; personal tasks
// only to their creator, so being assigned someone else's personal task does
// not grant visibility.
func CanViewInMyTasks(role Role, category Category, isCreator, isAssignee bool) bool {
	if !isCreator && !isAssignee {
		return false
	}
	if category == CategoryPersonal {
		return isCreator
	}
	return true
}

// ruleFunc evaluates one action against caller, derived ownership and the
// target snapshot.
type ruleFunc func(c Caller, own Ownership, snap Snapshot) bool

// rules is the single declarative table mapping every guarded action to its
// capability check. Guard.Authorize is the only dispatch point.
var rules = map[Action]ruleFunc{
	ActionCreate: func(c Caller, _ Ownership, snap Snapshot) bool {
		return CanCreate(c.Role, snap.Category)
	},
	ActionEdit: func(c Caller, own Ownership, snap Snapshot) bool {
		return CanEdit(c.Role, snap.Category, own.IsCreator)
	},
	ActionDelete: func(c Caller, own Ownership, snap Snapshot) bool {
		return CanDelete(c.Role, snap.Category, own.IsCreator)
	},
	ActionReassign: func(c Caller, _ Ownership, _ Snapshot) bool {
		return CanReassign(c.Role)
	},
	ActionViewMine: func(c Caller, own Ownership, snap Snapshot) bool {
		return CanViewInMyTasks(c.Role, snap.Category, own.IsCreator, own.IsAssignee)
	},
}
