package audit

import (
	"context"
	"database/sql"

	"taskhive.org/internal/access"
	"taskhive.org/internal/ids"
	"taskhive.org/internal/obs"
)

// LogSink emits every authorization decision as an audit log line and bumps
// the decision counter.
type LogSink struct{}

func (LogSink) Record(ctx context.Context, d access.Decision) {
	obs.ObserveDecision(string(d.Action), d.Allowed)
	fields := map[string]any{
		"action":  string(d.Action),
		"allowed": d.Allowed,
	}
	if d.ResourceID != "" {
		fields["resource_id"] = d.ResourceID
	}
	if d.CallerID != "" {
		fields["caller_id"] = d.CallerID
	}
	if d.Reason != "" {
		fields["reason"] = d.Reason
	}
	_ = LogEvent(ctx, "authz.decision", fields)
}

// PGSink appends decisions to the auth_decisions table. Inserts are
// fire-and-forget: a storage failure is logged and the decision stands.
type PGSink struct {
	db *sql.DB
}

func NewPGSink(db *sql.DB) *PGSink {
	return &PGSink{db: db}
}

func (s *PGSink) Record(ctx context.Context, d access.Decision) {
	const q = `
		insert into auth_decisions (id, action, resource_id, caller_id, allowed, reason, decided_at)
		values ($1, $2, nullif($3, ''), nullif($4, ''), $5, nullif($6, ''), now())`
	if _, err := s.db.ExecContext(ctx, q, ids.New(), string(d.Action), d.ResourceID, d.CallerID, d.Allowed, d.Reason); err != nil {
		_ = LogEvent(ctx, "authz.decision_store_failed", map[string]any{
			"action": string(d.Action),
			"error":  err.Error(),
		})
	}
}

// FanOut forwards each decision to every configured sink in order.
type FanOut []access.DecisionSink

func (f FanOut) Record(ctx context.Context, d access.Decision) {
	for _, sink := range f {
		if sink != nil {
			sink.Record(ctx, d)
		}
	}
}
