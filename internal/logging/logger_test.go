package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPrintfAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lazytodo.log")
	logger, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Printf("created task %d", 1)
	logger.Printf("purged %d tasks\n", 2)
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	logger.Printf("after close")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "[") || !strings.HasSuffix(lines[0], "] created task 1") {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "] purged 2 tasks") {
		t.Fatalf("unexpected line %q", lines[1])
	}
}

func TestNamedLoggersShareClockAndLayout(t *testing.T) {
	var out bytes.Buffer
	at := time.Date(2026, 1, 31, 15, 4, 5, 0, time.UTC)
	root := NewWriter(&out, WithClock(func() time.Time { return at }), WithLayout("15:04:05"))

	root.Named("store").Printf("created task %d", 3)
	root.Named("web").Printf("listening on %s", ":8080")
	root.Printf("plain")

	want := "[15:04:05] store: created task 3\n" +
		"[15:04:05] web: listening on :8080\n" +
		"[15:04:05] plain\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	logger.Named("store").Printf("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("close nil logger: %v", err)
	}
}
