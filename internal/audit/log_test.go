package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"taskhive.org/internal/access"
	"taskhive.org/internal/obs"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(original) })
	return &buf
}

func TestLogEvent(t *testing.T) {
	buf := captureLog(t)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = access.ContextWithCaller(ctx, access.Caller{ID: "user-42", Role: access.RoleAdmin, Department: "finance"})
	ctx = access.ContextWithSessionID(ctx, "sess-7")

	if err := LogEvent(ctx, "audit.test", map[string]any{"foo": "bar"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "audit.test" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "user-42" {
		t.Fatalf("unexpected user id: %v", entry["user_id"])
	}
	if entry["session_id"] != "sess-7" {
		t.Fatalf("unexpected session id: %v", entry["session_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["foo"] != "bar" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank event name")
	}
}

func TestLogSinkRecordsDecision(t *testing.T) {
	buf := captureLog(t)

	LogSink{}.Record(context.Background(), access.Decision{
		Action:     access.ActionDelete,
		ResourceID: "task-9",
		CallerID:   "user-42",
		Allowed:    false,
		Reason:     "admin users cannot delete tasks",
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["event"] != "authz.decision" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields missing: %v", entry)
	}
	if fields["allowed"] != false {
		t.Fatalf("unexpected allowed: %v", fields["allowed"])
	}
	if !strings.Contains(fields["reason"].(string), "cannot delete") {
		t.Fatalf("unexpected reason: %v", fields["reason"])
	}
}

func TestFanOutForwardsToAllSinks(t *testing.T) {
	var got []string
	a := sinkFunc(func(d access.Decision) { got = append(got, "a:"+string(d.Action)) })
	b := sinkFunc(func(d access.Decision) { got = append(got, "b:"+string(d.Action)) })

	FanOut{a, nil, b}.Record(context.Background(), access.Decision{Action: access.ActionEdit})

	if len(got) != 2 || got[0] != "a:task.edit" || got[1] != "b:task.edit" {
		t.Fatalf("unexpected fan-out order: %v", got)
	}
}

type sinkFunc func(access.Decision)

func (f sinkFunc) Record(_ context.Context, d access.Decision) { f(d) }
