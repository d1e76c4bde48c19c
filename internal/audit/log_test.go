package audit

import (
	"context"
	"testing"

	"caseflow.org/internal/auth"
)

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := requestIDFromContext(ctx); got != "req-123" {
		t.Fatalf("requestIDFromContext = %q, want req-123", got)
	}

	// Blank ids leave the context untouched.
	base := context.Background()
	if WithRequestID(base, "   ") != base {
		t.Fatal("blank request id should not wrap the context")
	}
	if got := requestIDFromContext(base); got != "" {
		t.Fatalf("requestIDFromContext = %q, want empty", got)
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank event name")
	}
}

func TestLogEvent(t *testing.T) {
	rc := auth.RequestContext{
		Identity: &auth.Identity{ID: "u-1"},
		Locale:   auth.DefaultLocale,
	}
	ctx := auth.ContextWithRequest(WithRequestID(context.Background(), "req-9"), rc)
	if err := LogEvent(ctx, "auth.login", map[string]any{"email": "a@b.test"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
}
