package app

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandlerPlainOutput(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	h := newPrettyHandler(&sb, &slog.HandlerOptions{Level: slog.LevelInfo}, false)

	r := slog.NewRecord(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "http.request", 0)
	r.AddAttrs(
		slog.String("method", "get"),
		slog.String("path", "/users"),
		slog.Int("status", 200),
		slog.Int64("duration_ms", 3),
	)

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	line := sb.String()
	for _, want := range []string{"msg=http.request", "method=GET", "path=/users", "status=200", "duration=3ms"} {
		if !strings.Contains(line, want) {
			t.Fatalf("output %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("color disabled but output contains ANSI: %q", line)
	}
}

func TestPrettyHandlerGroupsAndAttrs(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	base := newPrettyHandler(&sb, nil, false)
	h := base.WithAttrs([]slog.Attr{slog.String("svc", "relay")}).WithGroup("db")

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "query", 0)
	r.AddAttrs(slog.String("table", "users"))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	line := sb.String()
	if !strings.Contains(line, "svc=relay") {
		t.Fatalf("output %q missing pre-bound attr", line)
	}
	if !strings.Contains(line, "db.table=users") {
		t.Fatalf("output %q missing grouped attr", line)
	}
}

func TestPrettyHandlerLevelFilter(t *testing.T) {
	t.Parallel()

	h := newPrettyHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelWarn}, false)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info must be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error must pass at warn level")
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "", want: `""`},
		{in: "has space", want: `"has space"`},
		{in: `k=v`, want: `"k=v"`},
	}
	for _, tc := range cases {
		if got := quoteIfNeeded(tc.in); got != tc.want {
			t.Fatalf("quoteIfNeeded(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}
