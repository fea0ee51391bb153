package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

// TestStandardLoggerPrefixes verifies that each level carries its
// prefix.
func TestStandardLoggerPrefixes(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLogger(log.New(&buf, "", 0))

	l.Info("started on port %d", 7929)
	l.Warning("catalog %s missing", "site.json")
	l.Error("fetch failed: %v", "timeout")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "[INFO] ") || !strings.Contains(lines[0], "7929") {
		t.Fatalf("unexpected info line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[WARNING] ") {
		t.Fatalf("unexpected warning line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "[ERROR] ") {
		t.Fatalf("unexpected error line %q", lines[2])
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

// TestNopLoggerDiscards verifies the nop backend is inert.
func TestNopLoggerDiscards(t *testing.T) {
	l := NewNopLogger()
	l.Info("ignored %d", 1)
	l.Warning("ignored")
	l.Error("ignored")
	if err := l.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

// TestMockLoggerRecords verifies the test backend records formatted
// calls.
func TestMockLoggerRecords(t *testing.T) {
	m := NewMockLogger()
	m.Info("a %d", 1)
	m.Warning("b")
	m.Error("c %s", "x")
	m.Close()

	if len(m.InfoCalls) != 1 || m.InfoCalls[0] != "a 1" {
		t.Fatalf("unexpected info calls %v", m.InfoCalls)
	}
	if len(m.WarningCalls) != 1 || m.WarningCalls[0] != "b" {
		t.Fatalf("unexpected warning calls %v", m.WarningCalls)
	}
	if len(m.ErrorCalls) != 1 || m.ErrorCalls[0] != "c x" {
		t.Fatalf("unexpected error calls %v", m.ErrorCalls)
	}
	if !m.CloseCalled {
		t.Fatalf("expected close to be recorded")
	}
}

// TestToStdLogger verifies that stdlib-style lines route through the
// wrapped Logger at info level.
func TestToStdLogger(t *testing.T) {
	m := NewMockLogger()
	std := ToStdLogger(m)

	std.Printf("claimed %s", "a.mp4")
	std.Println("daemon ready")

	if len(m.InfoCalls) != 2 {
		t.Fatalf("expected 2 info calls, got %v", m.InfoCalls)
	}
	if m.InfoCalls[0] != "claimed a.mp4" {
		t.Fatalf("unexpected first call %q", m.InfoCalls[0])
	}
	if m.InfoCalls[1] != "daemon ready" {
		t.Fatalf("unexpected second call %q", m.InfoCalls[1])
	}
}
