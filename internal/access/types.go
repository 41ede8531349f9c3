package access

import "strings"

// Role is the caller's authority level. The order Owner > Admin > Viewer only
// confers department-unscoped reach, not blanket permission: Admin can never
// delete tasks even though Viewer can delete their own personal ones.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// ParseRole normalizes a stored or transmitted role value.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleViewer:
		return RoleViewer, true
	default:
		return "", false
	}
}

// Category is the second axis of every permission decision. Personal tasks
// are private by default and are where Viewer gains rights over their own
// creations.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
)

// ParseCategory normalizes a stored or transmitted category value.
func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.TrimSpace(strings.ToLower(raw))) {
	case CategoryWork:
		return CategoryWork, true
	case CategoryPersonal:
		return CategoryPersonal, true
	default:
		return "", false
	}
}

// Action identifies a guarded operation. The full rule set lives in one
// table keyed by Action so it can be audited in one place.
type Action string

const (
	ActionCreate   Action = "task.create"
	ActionEdit     Action = "task.edit"
	ActionDelete   Action = "task.delete"
	ActionReassign Action = "task.reassign"
	ActionViewMine Action = "task.view_mine"
)

// Caller is the authenticated identity a decision is evaluated for. Guards
// take it as a plain argument, never from implicit request-global state.
type Caller struct {
	ID         string
	Role       Role
	Department string
}

// Snapshot is the minimal view of the target resource a decision needs.
type Snapshot struct {
	ID         string
	CreatorID  string
	AssigneeID string
	Category   Category
	Department string
}

// Ownership is derived per request by identity equality, never stored.
type Ownership struct {
	IsCreator  bool
	IsAssignee bool
}

// OwnershipOf compares caller identity against the snapshot's creator and
// assignee fields.
func OwnershipOf(callerID string, snap Snapshot) Ownership {
	return Ownership{
		IsCreator:  callerID != "" && callerID == snap.CreatorID,
		IsAssignee: callerID != "" && callerID == snap.AssigneeID,
	}
}
