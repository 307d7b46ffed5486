// Package logging writes the activity log kept next to the config file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger writes one "[time] scope: message" line per call. Loggers returned by
// Named share the parent's sink, so the store and the web server can log to
// the same file from different goroutines.
type Logger struct {
	sink  *sink
	scope string
}

type sink struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	now    func() time.Time
	layout string
}

type Option func(*sink)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *sink) { s.now = now }
}

// WithLayout sets the timestamp layout. The default is time.RFC3339.
func WithLayout(layout string) Option {
	return func(s *sink) { s.layout = layout }
}

// New opens path for appending, creating its directory if needed.
func New(path string, opts ...Option) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	logger := NewWriter(f, opts...)
	logger.sink.closer = f
	return logger, nil
}

func NewWriter(out io.Writer, opts ...Option) *Logger {
	s := &sink{out: out, now: time.Now, layout: time.RFC3339}
	for _, opt := range opts {
		opt(s)
	}
	return &Logger{sink: s}
}

// Named returns a logger tagging its lines with scope.
func (l *Logger) Named(scope string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{sink: l.sink, scope: scope}
}

func (l *Logger) Close() error {
	if l == nil || l.sink == nil || l.sink.closer == nil {
		return nil
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	err := l.sink.closer.Close()
	l.sink.closer = nil
	l.sink.out = nil
	return err
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.sink == nil {
		return
	}
	message := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if l.scope != "" {
		message = l.scope + ": " + message
	}

	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return
	}
	fmt.Fprintf(s.out, "[%s] %s\n", s.now().Format(s.layout), message)
}
