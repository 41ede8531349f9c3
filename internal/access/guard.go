package access

import "context"

// Decision is the authorization outcome emitted to the audit sink.
type Decision struct {
	Action     Action
	ResourceID string
	CallerID   string
	Allowed    bool
	Reason     string
}

// DecisionSink receives authorization decisions. Recording is
// fire-and-forget: a sink failure must never block or reverse a decision.
type DecisionSink interface {
	Record(ctx context.Context, d Decision)
}

// Guard evaluates the rules table for mutating requests. It holds no
// per-request state and is safe under arbitrary request concurrency.
type Guard struct {
	sink DecisionSink
}

// NewGuard constructs a Guard. A nil sink disables decision recording.
func NewGuard(sink DecisionSink) *Guard {
	return &Guard{sink: sink}
}

// Authorize resolves ownership from the snapshot and dispatches to the rules
// table. A nil snapshot means the target could not be resolved and always
// yields ErrNotFound: the guard fails closed, it never silently permits.
func (g *Guard) Authorize(ctx context.Context, caller Caller, action Action, snap *Snapshot) error {
	if snap == nil {
		g.record(ctx, Decision{Action: action, CallerID: caller.ID, Allowed: false, Reason: "resource not found"})
		return ErrNotFound
	}
	rule, ok := rules[action]
	if !ok {
		// Unknown actions deny rather than pass through.
		g.record(ctx, Decision{Action: action, ResourceID: snap.ID, CallerID: caller.ID, Allowed: false, Reason: "unknown action"})
		return Denied(action, "unknown action")
	}
	own := OwnershipOf(caller.ID, *snap)
	if !rule(caller, own, *snap) {
		reason := denialReason(caller.Role, action)
		g.record(ctx, Decision{Action: action, ResourceID: snap.ID, CallerID: caller.ID, Allowed: false, Reason: reason})
		return Denied(action, reason)
	}
	g.record(ctx, Decision{Action: action, ResourceID: snap.ID, CallerID: caller.ID, Allowed: true})
	return nil
}

func (g *Guard) record(ctx context.Context, d Decision) {
	if g.sink == nil {
		return
	}
	g.sink.Record(ctx, d)
}

// denialReason states the minimal violated rule without leaking resource
// contents.
func denialReason(role Role, action Action) string {
	switch action {
	case ActionDelete:
		if role == RoleAdmin {
			return "admin users cannot delete tasks"
		}
		return "only the owner or the personal task's creator may delete"
	case ActionReassign:
		return "viewer users cannot reassign tasks"
	case ActionCreate:
		return "viewer users may only create personal tasks"
	case ActionEdit:
		return "viewer users may only edit personal tasks they created"
	case ActionViewMine:
		return "task is not visible to this user"
	default:
		return "not permitted"
	}
}
