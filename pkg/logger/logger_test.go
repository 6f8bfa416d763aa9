package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestCriticalLevelRendered(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelDebug, Format: FormatText})

	log.Critical("transfer: invariant broken", "family_id", "fam-1")

	if !strings.Contains(buf.String(), "level=CRITICAL") {
		t.Fatalf("expected CRITICAL level, got %q", buf.String())
	}
}

func TestBusinessErrorSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelDebug, Format: FormatText})

	log.BusinessError("members.add: rejected", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nothing logged for nil error, got %q", buf.String())
	}

	log.BusinessError("members.add: rejected", errors.New("forbidden"), "actor_id", "acc-1")
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "actor_id=acc-1") {
		t.Fatalf("expected warn line with attrs, got %q", buf.String())
	}
}

func TestInternalErrorLogsAtError(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelDebug, Format: FormatText})

	log.InternalError("db: open failed", errors.New("refused"))
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "err=refused") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestServiceAndComponentAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelInfo, Format: FormatJSON, Service: "family-registry"})

	log.Named("integrity").Info("sweep finished")

	out := buf.String()
	if !strings.Contains(out, `"service":"family-registry"`) || !strings.Contains(out, `"component":"integrity"`) {
		t.Fatalf("expected service and component attrs, got %q", out)
	}
}

func TestFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelDebug, Format: FormatJSON})

	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-42")
	log.FromContext(ctx).Info("roles.update: ok")

	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Fatalf("expected request id in output, got %q", buf.String())
	}
}

func TestLevelDefaults(t *testing.T) {
	if levelFor("", "development") != slog.LevelDebug {
		t.Fatalf("expected debug in development")
	}
	if levelFor("", "production") != slog.LevelInfo {
		t.Fatalf("expected info in production")
	}
	if levelFor("fatal", "production") != LevelCritical {
		t.Fatalf("expected fatal to map to critical")
	}
	if formatFor("TEXT") != FormatText || formatFor("yaml") != FormatJSON {
		t.Fatalf("expected text to be kept and unknown formats to fall back to json")
	}
}
